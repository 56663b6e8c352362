package checkpoint

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestAppendAssignsContiguousIndices(t *testing.T) {
	buf := NewChunkBuffer()

	for i := 0; i < 5; i++ {
		index := buf.Append("thread-1", fmt.Sprintf("chunk-%d", i))
		if index != i {
			t.Errorf("Append #%d returned index %d, want %d", i, index, i)
		}
	}

	chunks := buf.Drain("thread-1")
	if len(chunks) != 5 {
		t.Fatalf("Drain returned %d chunks, want 5", len(chunks))
	}
	for i, chunk := range chunks {
		want := fmt.Sprintf("chunk-%d", i)
		if chunk != want {
			t.Errorf("chunk[%d] = %q, want %q", i, chunk, want)
		}
	}
}

func TestDrainIsReadOnly(t *testing.T) {
	buf := NewChunkBuffer()
	buf.Append("thread-1", "a")
	buf.Append("thread-1", "b")

	first := buf.Drain("thread-1")
	second := buf.Drain("thread-1")

	if len(first) != 2 || len(second) != 2 {
		t.Fatalf("Drain mutated state: first=%d second=%d, want 2 and 2", len(first), len(second))
	}

	// The returned slice is a copy; mutating it must not affect the buffer.
	first[0] = "mutated"
	third := buf.Drain("thread-1")
	if third[0] != "a" {
		t.Errorf("Drain returned shared backing slice: got %q, want %q", third[0], "a")
	}
}

func TestDrainUnknownSession(t *testing.T) {
	buf := NewChunkBuffer()
	if chunks := buf.Drain("nope"); chunks != nil {
		t.Errorf("Drain of unknown session = %v, want nil", chunks)
	}
}

func TestEvictIsIdempotent(t *testing.T) {
	buf := NewChunkBuffer()
	buf.Append("thread-1", "a")

	buf.Evict("thread-1")
	buf.Evict("thread-1") // absent session, must not panic

	if n := buf.Len("thread-1"); n != 0 {
		t.Errorf("Len after evict = %d, want 0", n)
	}
}

func TestCursorResetsAfterEvict(t *testing.T) {
	buf := NewChunkBuffer()
	buf.Append("thread-1", "a")
	buf.Append("thread-1", "b")
	buf.Evict("thread-1")

	if index := buf.Append("thread-1", "fresh"); index != 0 {
		t.Errorf("Append after evict returned index %d, want 0", index)
	}
}

func TestSessionsAreIndependent(t *testing.T) {
	buf := NewChunkBuffer()
	buf.Append("thread-1", "a1")
	buf.Append("thread-2", "b1")
	buf.Append("thread-1", "a2")

	if index := buf.Append("thread-2", "b2"); index != 1 {
		t.Errorf("thread-2 index = %d, want 1", index)
	}
	if n := buf.Len("thread-1"); n != 2 {
		t.Errorf("thread-1 Len = %d, want 2", n)
	}
	if n := buf.Sessions(); n != 2 {
		t.Errorf("Sessions = %d, want 2", n)
	}
}

func TestConcurrentAppendsSameKey(t *testing.T) {
	buf := NewChunkBuffer()

	const writers = 8
	const perWriter = 50

	var wg sync.WaitGroup
	seen := make(chan int, writers*perWriter)

	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				seen <- buf.Append("thread-1", "x")
			}
		}()
	}
	wg.Wait()
	close(seen)

	indices := make(map[int]bool)
	for index := range seen {
		if indices[index] {
			t.Fatalf("duplicate index assigned: %d", index)
		}
		indices[index] = true
	}

	if len(indices) != writers*perWriter {
		t.Fatalf("got %d unique indices, want %d", len(indices), writers*perWriter)
	}
	for i := 0; i < writers*perWriter; i++ {
		if !indices[i] {
			t.Fatalf("index %d was skipped", i)
		}
	}
}

func TestStateTransitions(t *testing.T) {
	buf := NewChunkBuffer()

	if _, ok := buf.State("thread-1"); ok {
		t.Error("State of unknown session reported present")
	}

	buf.Append("thread-1", "a")
	if state, ok := buf.State("thread-1"); !ok || state != StateAccumulating {
		t.Errorf("State after append = %v/%v, want accumulating/true", state, ok)
	}

	buf.SetState("thread-1", StateConsolidating)
	if state, _ := buf.State("thread-1"); state != StateConsolidating {
		t.Errorf("State = %v, want consolidating", state)
	}

	buf.Evict("thread-1")
	if _, ok := buf.State("thread-1"); ok {
		t.Error("State after evict reported present")
	}
}

func TestEvictStale(t *testing.T) {
	buf := NewChunkBuffer()

	buf.Append("old", "a")
	// Backdate the old session's last append.
	sb := buf.session("old")
	sb.mu.Lock()
	sb.lastAppend = time.Now().Add(-2 * time.Hour)
	sb.mu.Unlock()

	buf.Append("fresh", "b")

	// Sessions mid-consolidation must survive the sweep.
	buf.Append("busy", "c")
	busy := buf.session("busy")
	busy.mu.Lock()
	busy.lastAppend = time.Now().Add(-2 * time.Hour)
	busy.state = StateConsolidating
	busy.mu.Unlock()

	if n := buf.EvictStale(time.Hour); n != 1 {
		t.Errorf("EvictStale = %d, want 1", n)
	}
	if buf.Len("old") != 0 {
		t.Error("stale session was not evicted")
	}
	if buf.Len("fresh") != 1 {
		t.Error("fresh session was evicted")
	}
	if buf.Len("busy") != 1 {
		t.Error("consolidating session was evicted")
	}

	if n := buf.EvictStale(0); n != 0 {
		t.Errorf("EvictStale(0) = %d, want 0 (disabled)", n)
	}
}
