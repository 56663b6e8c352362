package checkpoint

import (
	"context"
	"errors"
	"log"

	"streamvault/internal/logging"
	"streamvault/internal/models"
)

// ErrPersistenceDisabled is returned by Ping when no backend is connected.
var ErrPersistenceDisabled = errors.New("checkpoint persistence is disabled")

// Config selects and enables the durable store behind the manager.
type Config struct {
	// Enabled gates every public operation; when false everything degrades
	// to the benign false/empty result.
	Enabled bool

	// DatabaseURL picks the backend variant by scheme:
	// mongodb:// (document) or mysql:// (relational).
	DatabaseURL string
}

// Publisher receives fire-and-forget notifications about session activity.
// Implementations must never block the streaming path on failure.
type Publisher interface {
	PublishStreamEvent(ctx context.Context, threadID, eventType string, payload map[string]interface{})
}

// Manager is the consolidation engine: it buffers fragments per session,
// decides when a session is terminal, and persists the assembled
// conversation through the configured backend.
type Manager struct {
	enabled   bool
	backend   Backend
	buffer    *ChunkBuffer
	events    *EventLogger
	replays   *ReplayLogger
	publisher Publisher
}

// NewManager connects the backend selected by cfg and returns a ready
// manager. Unknown schemes and connection failures leave the manager
// running against the disabled backend.
func NewManager(cfg Config) *Manager {
	backend := Disabled()
	if cfg.Enabled {
		backend = Open(cfg.DatabaseURL)
	} else {
		log.Println("⚠️ Checkpoint saver is disabled")
	}
	return NewManagerWithBackend(cfg.Enabled, backend)
}

// NewManagerWithBackend wires a manager around an already-constructed
// backend.
func NewManagerWithBackend(enabled bool, backend Backend) *Manager {
	return &Manager{
		enabled: enabled,
		backend: backend,
		buffer:  NewChunkBuffer(),
		events:  NewEventLogger(enabled, backend),
		replays: NewReplayLogger(enabled, backend),
	}
}

// SetPublisher attaches an optional live-event publisher.
func (m *Manager) SetPublisher(p Publisher) {
	m.publisher = p
}

// Submit processes one stream fragment for a thread. Terminal finish
// reasons ("stop", "interrupt") trigger consolidation; any other reason
// leaves the session accumulating. Returns false on invalid input, when
// persistence is disabled, or when the terminal write fails.
func (m *Manager) Submit(ctx context.Context, threadID, message, finishReason string) bool {
	if threadID == "" {
		log.Println("⚠️ Invalid thread_id provided")
		return false
	}
	if message == "" {
		log.Println("⚠️ Empty message provided")
		return false
	}
	if !m.enabled {
		log.Println("⚠️ Checkpoint saver is disabled, message not processed")
		return false
	}

	index := m.buffer.Append(threadID, message)
	logging.WithSession(threadID).Debug("Fragment buffered", "index", index)
	fragmentsTotal.Inc()
	sessionsActive.Set(float64(m.buffer.Sessions()))

	if finishReason == models.FinishReasonStop || finishReason == models.FinishReasonInterrupt {
		return m.consolidate(ctx, threadID)
	}
	return true
}

// consolidate drains the session's fragments, persists the assembled
// conversation, and evicts the buffer regardless of persistence outcome.
func (m *Manager) consolidate(ctx context.Context, threadID string) bool {
	m.buffer.SetState(threadID, StateConsolidating)

	messages := m.buffer.Drain(threadID)
	if len(messages) == 0 {
		// Known quirk carried over from the reference behavior: the
		// session is NOT evicted here and stays accumulating forever
		// unless the reaper is enabled.
		log.Printf("⚠️ No messages found for thread %s", threadID)
		m.buffer.SetState(threadID, StateAccumulating)
		consolidationsTotal.WithLabelValues("empty").Inc()
		return false
	}

	// Record the fragment count before the terminal write; topic and style
	// were captured by the zero-count record that opened the session.
	m.replays.Record(ctx, threadID, "", "", len(messages))

	ok := m.backend.UpsertConversation(ctx, threadID, messages)

	m.buffer.SetState(threadID, StateClosed)
	m.buffer.Evict(threadID)
	sessionsActive.Set(float64(m.buffer.Sessions()))

	if ok {
		consolidationsTotal.WithLabelValues("persisted").Inc()
	} else {
		// No retry: the drained fragments are gone.
		consolidationsTotal.WithLabelValues("failed").Inc()
	}

	if m.publisher != nil {
		m.publisher.PublishStreamEvent(ctx, threadID, "conversation_consolidated", map[string]interface{}{
			"messages":  len(messages),
			"persisted": ok,
		})
	}

	return ok
}

// GetConversation returns the filtered conversation text for a thread.
func (m *Manager) GetConversation(ctx context.Context, threadID string) (string, bool) {
	if !m.enabled {
		log.Println("⚠️ Checkpoint saver is disabled, cannot retrieve conversation")
		return "", false
	}
	return m.backend.FetchConversation(ctx, threadID)
}

// ListReplaySummaries returns up to limit summaries, newest first by the
// given sort field.
func (m *Manager) ListReplaySummaries(ctx context.Context, limit int, sort string) []models.ReplaySummary {
	if !m.enabled {
		log.Println("⚠️ Checkpoint saver is disabled, cannot retrieve replay summaries")
		return []models.ReplaySummary{}
	}
	if limit <= 0 {
		limit = 10
	}
	if sort == "" {
		sort = "ts"
	}
	return m.backend.ListReplaySummaries(ctx, limit, sort)
}

// LogEvent appends an audit event for a thread, independent of the
// consolidation lifecycle.
func (m *Manager) LogEvent(ctx context.Context, threadID, event, level string, message map[string]interface{}) {
	m.events.Record(ctx, threadID, event, level, message)

	if m.publisher != nil {
		m.publisher.PublishStreamEvent(ctx, threadID, event, message)
	}
}

// LogReplaySummary records replay analytics for a thread.
func (m *Manager) LogReplaySummary(ctx context.Context, threadID, topic, style string, messages int) {
	m.replays.Record(ctx, threadID, topic, style, messages)
}

// Enabled reports whether persistence is configured on.
func (m *Manager) Enabled() bool {
	return m.enabled
}

// Backend exposes the persistence variant, mainly for health checks.
func (m *Manager) Backend() Backend {
	return m.backend
}

// Buffer exposes the ephemeral chunk buffer for the stale-session reaper.
func (m *Manager) Buffer() *ChunkBuffer {
	return m.buffer
}

// Close releases the backend connection.
func (m *Manager) Close(ctx context.Context) error {
	return m.backend.Close(ctx)
}
