package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// StreamEventMessage is the wire format published on stream channels
type StreamEventMessage struct {
	ThreadID  string                 `json:"thread_id"`
	Event     string                 `json:"event"`
	Payload   map[string]interface{} `json:"payload,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// BroadcastService publishes stream lifecycle events to Redis channels so
// other replicas (and SSE bridges) can observe consolidation in real time.
// Publishing is best-effort: a failed publish is logged and dropped, it never
// affects the write path.
type BroadcastService struct {
	client *redis.Client
}

// NewBroadcastService creates a broadcast publisher on top of an existing
// Redis connection
func NewBroadcastService(redisService *RedisService) *BroadcastService {
	return &BroadcastService{client: redisService.Client()}
}

// channelFor returns the per-session channel name
func channelFor(threadID string) string {
	return fmt.Sprintf("stream:%s:events", threadID)
}

// PublishStreamEvent publishes an event for a session. Errors are swallowed
// after logging.
func (b *BroadcastService) PublishStreamEvent(ctx context.Context, threadID, eventType string, payload map[string]interface{}) {
	msg := StreamEventMessage{
		ThreadID:  threadID,
		Event:     eventType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}

	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("⚠️ Failed to marshal stream event for %s: %v", threadID, err)
		return
	}

	if err := b.client.Publish(ctx, channelFor(threadID), data).Err(); err != nil {
		log.Printf("⚠️ Failed to publish stream event for %s: %v", threadID, err)
	}
}

// Subscribe returns a pub/sub subscription for a session's event channel.
// The caller owns the subscription and must Close it.
func (b *BroadcastService) Subscribe(ctx context.Context, threadID string) *redis.PubSub {
	return b.client.Subscribe(ctx, channelFor(threadID))
}
