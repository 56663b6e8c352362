package checkpoint

import (
	"context"
	"log"
)

// EventLogger is a thin façade over the backend's append-only audit stream.
// It holds no state of its own: no buffering, no retries. Failures are
// logged and swallowed so the streaming path never sees them.
type EventLogger struct {
	enabled bool
	backend Backend
}

// NewEventLogger creates an event logger façade.
func NewEventLogger(enabled bool, backend Backend) *EventLogger {
	return &EventLogger{enabled: enabled, backend: backend}
}

// Record appends one audit event for the thread.
func (l *EventLogger) Record(ctx context.Context, threadID, event, level string, message map[string]interface{}) {
	if !l.enabled {
		log.Println("⚠️ Checkpoint saver is disabled, event not logged")
		return
	}
	if l.backend == nil || l.backend.Variant() == VariantDisabled {
		log.Println("⚠️ No database connection available, event not logged")
		return
	}
	l.backend.AppendEvent(ctx, threadID, event, level, message)
}

// ReplayLogger is the analytics counterpart of EventLogger: it upserts
// replay summaries through the backend and swallows every failure.
type ReplayLogger struct {
	enabled bool
	backend Backend
}

// NewReplayLogger creates a replay logger façade.
func NewReplayLogger(enabled bool, backend Backend) *ReplayLogger {
	return &ReplayLogger{enabled: enabled, backend: backend}
}

// Record upserts the replay summary for the thread. A zero message count
// opens the session's summary; positive counts update the existing one.
func (l *ReplayLogger) Record(ctx context.Context, threadID, topic, style string, messages int) {
	if !l.enabled {
		log.Println("⚠️ Checkpoint saver is disabled, replay summary not logged")
		return
	}
	if l.backend == nil || l.backend.Variant() == VariantDisabled {
		log.Println("⚠️ No database connection available, replay summary not logged")
		return
	}
	l.backend.UpsertReplaySummary(ctx, threadID, topic, style, messages)
}
