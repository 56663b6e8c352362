package models

import "time"

// Session finish reasons recognized on the streaming write path.
// Any other value leaves the session accumulating.
const (
	FinishReasonStop      = "stop"
	FinishReasonInterrupt = "interrupt"
)

// ConsolidatedConversation is the durable record written when a streaming
// session terminates. One record per thread; re-consolidation overwrites.
type ConsolidatedConversation struct {
	ID       string    `bson:"id" json:"id"`
	ThreadID string    `bson:"thread_id" json:"thread_id"`
	Messages []string  `bson:"messages" json:"messages"`
	TS       time.Time `bson:"ts" json:"ts"`
}

// StreamEvent is an append-only audit record emitted at arbitrary points of a
// session. Events are never updated or deleted.
type StreamEvent struct {
	ID       string                 `bson:"id" json:"id"`
	ThreadID string                 `bson:"thread_id" json:"thread_id"`
	Event    string                 `bson:"event" json:"event"`
	Level    string                 `bson:"level" json:"level"`
	Message  map[string]interface{} `bson:"message" json:"message"`
	TS       time.Time              `bson:"ts" json:"ts"`
}

// ReplaySummary tracks replay analytics for a session. A zero-count record
// opens the session; positive counts update the existing record in place.
type ReplaySummary struct {
	ID       string    `bson:"id" json:"id"`
	ThreadID string    `bson:"thread_id" json:"thread_id"`
	Topic    string    `bson:"research_topic" json:"research_topic"`
	Style    string    `bson:"report_style" json:"report_style"`
	Messages int       `bson:"messages" json:"messages"`
	TS       time.Time `bson:"ts" json:"ts"`
}
