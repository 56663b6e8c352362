package checkpoint

import (
	"sync"
	"time"

	cache "github.com/patrickmn/go-cache"
)

// SessionState tracks where a streaming session is in its lifecycle.
// Absence of a session from the buffer means it never started or was
// already consolidated and evicted.
type SessionState int

const (
	StateAccumulating SessionState = iota
	StateConsolidating
	StateClosed
)

func (s SessionState) String() string {
	switch s {
	case StateAccumulating:
		return "accumulating"
	case StateConsolidating:
		return "consolidating"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// sessionBuffer holds the fragments and cursor for one open session.
// The mutex serializes same-key appends so index assignment stays contiguous
// under concurrent producers.
type sessionBuffer struct {
	mu         sync.Mutex
	chunks     []string
	nextIndex  int
	state      SessionState
	lastAppend time.Time
}

// ChunkBuffer is the ephemeral, process-local store of in-flight session
// fragments. No durability: contents are lost on restart.
type ChunkBuffer struct {
	sessions *cache.Cache
}

// NewChunkBuffer creates an empty buffer. Entries never expire on their own;
// eviction happens at consolidation or through the stale-session reaper.
func NewChunkBuffer() *ChunkBuffer {
	return &ChunkBuffer{
		sessions: cache.New(cache.NoExpiration, cache.NoExpiration),
	}
}

// session returns the buffer for threadID, creating it if needed.
func (b *ChunkBuffer) session(threadID string) *sessionBuffer {
	for {
		if v, ok := b.sessions.Get(threadID); ok {
			return v.(*sessionBuffer)
		}
		sb := &sessionBuffer{lastAppend: time.Now()}
		if err := b.sessions.Add(threadID, sb, cache.NoExpiration); err == nil {
			return sb
		}
		// Lost the insert race; loop and pick up the winner's entry.
	}
}

// Append stores payload as the next fragment for threadID and returns the
// sequence index it was assigned. Indices are contiguous from 0.
func (b *ChunkBuffer) Append(threadID, payload string) int {
	sb := b.session(threadID)
	sb.mu.Lock()
	defer sb.mu.Unlock()

	index := sb.nextIndex
	sb.chunks = append(sb.chunks, payload)
	sb.nextIndex = index + 1
	sb.lastAppend = time.Now()
	return index
}

// Drain returns all buffered fragments for threadID in ascending index
// order. Read-only: the session stays buffered until Evict.
func (b *ChunkBuffer) Drain(threadID string) []string {
	v, ok := b.sessions.Get(threadID)
	if !ok {
		return nil
	}
	sb := v.(*sessionBuffer)

	sb.mu.Lock()
	defer sb.mu.Unlock()

	out := make([]string, len(sb.chunks))
	copy(out, sb.chunks)
	return out
}

// Evict removes all buffered state for threadID. Evicting an absent session
// is a no-op.
func (b *ChunkBuffer) Evict(threadID string) {
	b.sessions.Delete(threadID)
}

// SetState transitions the session's lifecycle state if it is present.
func (b *ChunkBuffer) SetState(threadID string, state SessionState) {
	v, ok := b.sessions.Get(threadID)
	if !ok {
		return
	}
	sb := v.(*sessionBuffer)

	sb.mu.Lock()
	sb.state = state
	sb.mu.Unlock()
}

// State reports the session's lifecycle state. The second return is false
// when the session is not buffered (never started or already closed).
func (b *ChunkBuffer) State(threadID string) (SessionState, bool) {
	v, ok := b.sessions.Get(threadID)
	if !ok {
		return StateClosed, false
	}
	sb := v.(*sessionBuffer)

	sb.mu.Lock()
	defer sb.mu.Unlock()
	return sb.state, true
}

// Len reports how many fragments are buffered for threadID.
func (b *ChunkBuffer) Len(threadID string) int {
	v, ok := b.sessions.Get(threadID)
	if !ok {
		return 0
	}
	sb := v.(*sessionBuffer)

	sb.mu.Lock()
	defer sb.mu.Unlock()
	return len(sb.chunks)
}

// Sessions reports how many sessions are currently buffered.
func (b *ChunkBuffer) Sessions() int {
	return b.sessions.ItemCount()
}

// EvictStale removes accumulating sessions whose last append is older than
// maxIdle and returns how many were evicted. Sessions mid-consolidation are
// left alone.
func (b *ChunkBuffer) EvictStale(maxIdle time.Duration) int {
	if maxIdle <= 0 {
		return 0
	}

	cutoff := time.Now().Add(-maxIdle)
	evicted := 0

	for threadID, item := range b.sessions.Items() {
		sb := item.Object.(*sessionBuffer)

		sb.mu.Lock()
		stale := sb.state == StateAccumulating && sb.lastAppend.Before(cutoff)
		sb.mu.Unlock()

		if stale {
			b.sessions.Delete(threadID)
			evicted++
		}
	}
	return evicted
}
