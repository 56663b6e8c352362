package checkpoint

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"streamvault/internal/database"
	"streamvault/internal/models"
)

// mongoBackend is the document-store variant, backed by MongoDB.
type mongoBackend struct {
	db            *database.MongoDB
	conversations *mongo.Collection
	events        *mongo.Collection
	replays       *mongo.Collection
}

func newMongoBackend(db *database.MongoDB) *mongoBackend {
	return &mongoBackend{
		db:            db,
		conversations: db.Collection(database.CollectionChatStreams),
		events:        db.Collection(database.CollectionStreamEvents),
		replays:       db.Collection(database.CollectionReplaySummaries),
	}
}

func (b *mongoBackend) Variant() Variant { return VariantDocument }

func (b *mongoBackend) UpsertConversation(ctx context.Context, threadID string, messages []string) bool {
	filter := bson.M{"thread_id": threadID}
	now := time.Now()

	var existing models.ConsolidatedConversation
	err := b.conversations.FindOne(ctx, filter).Decode(&existing)

	switch {
	case err == nil:
		update := bson.M{"$set": bson.M{"messages": messages, "ts": now}}
		result, err := b.conversations.UpdateOne(ctx, filter, update)
		if err != nil {
			log.Printf("❌ Error persisting conversation for thread %s: %v", threadID, err)
			return false
		}
		log.Printf("💾 Updated conversation for thread %s: %d documents modified", threadID, result.ModifiedCount)
		return result.ModifiedCount > 0

	case err == mongo.ErrNoDocuments:
		doc := models.ConsolidatedConversation{
			ID:       uuid.NewString(),
			ThreadID: threadID,
			Messages: messages,
			TS:       now,
		}
		result, err := b.conversations.InsertOne(ctx, doc)
		if err != nil {
			log.Printf("❌ Error persisting conversation for thread %s: %v", threadID, err)
			return false
		}
		log.Printf("💾 Created new conversation: %v", result.InsertedID)
		return result.InsertedID != nil

	default:
		log.Printf("❌ Error looking up conversation for thread %s: %v", threadID, err)
		return false
	}
}

func (b *mongoBackend) AppendEvent(ctx context.Context, threadID, event, level string, message map[string]interface{}) {
	doc := models.StreamEvent{
		ID:       uuid.NewString(),
		ThreadID: threadID,
		Event:    event,
		Level:    level,
		Message:  message,
		TS:       time.Now(),
	}
	result, err := b.events.InsertOne(ctx, doc)
	if err != nil {
		log.Printf("❌ Error logging event: %v", err)
		return
	}
	log.Printf("📝 Event logged: %v", result.InsertedID)
}

func (b *mongoBackend) UpsertReplaySummary(ctx context.Context, threadID, topic, style string, messages int) {
	if messages > 0 {
		// Positive counts only ever update the record that opened the
		// session; no record means nothing to do.
		filter := bson.M{"thread_id": threadID}

		var existing models.ReplaySummary
		err := b.replays.FindOne(ctx, filter).Decode(&existing)
		if err == mongo.ErrNoDocuments {
			log.Printf("⚠️ No replay summary found for thread %s, count not recorded", threadID)
			return
		}
		if err != nil {
			log.Printf("❌ Error logging replay summary: %v", err)
			return
		}

		result, err := b.replays.UpdateOne(ctx, filter, bson.M{"$set": bson.M{"messages": messages}})
		if err != nil {
			log.Printf("❌ Error logging replay summary: %v", err)
			return
		}
		log.Printf("📝 Updated replay summary for thread %s: %d documents modified", threadID, result.ModifiedCount)
		return
	}

	// Zero-count records always open a fresh summary for the session.
	doc := models.ReplaySummary{
		ID:       uuid.NewString(),
		ThreadID: threadID,
		Topic:    topic,
		Style:    style,
		Messages: messages,
		TS:       time.Now(),
	}
	result, err := b.replays.InsertOne(ctx, doc)
	if err != nil {
		log.Printf("❌ Error logging replay summary: %v", err)
		return
	}
	log.Printf("📝 Replay summary logged: %v", result.InsertedID)
}

func (b *mongoBackend) FetchConversation(ctx context.Context, threadID string) (string, bool) {
	var conversation models.ConsolidatedConversation
	err := b.conversations.FindOne(ctx, bson.M{"thread_id": threadID}).Decode(&conversation)
	if err == mongo.ErrNoDocuments {
		log.Printf("⚠️ No conversation found for thread_id: %s", threadID)
		return "", false
	}
	if err != nil {
		log.Printf("❌ Error retrieving conversation for thread %s: %v", threadID, err)
		return "", false
	}

	return FilterStreamFrames(conversation.Messages), true
}

func (b *mongoBackend) ListReplaySummaries(ctx context.Context, limit int, sort string) []models.ReplaySummary {
	opts := options.Find().
		SetSort(bson.D{{Key: sort, Value: -1}}).
		SetLimit(int64(limit))
	cursor, err := b.replays.Find(ctx, bson.M{}, opts)
	if err != nil {
		log.Printf("❌ Error retrieving replay summaries: %v", err)
		return []models.ReplaySummary{}
	}
	defer cursor.Close(ctx)

	summaries := make([]models.ReplaySummary, 0)
	for cursor.Next(ctx) {
		var summary models.ReplaySummary
		if err := cursor.Decode(&summary); err != nil {
			log.Printf("⚠️ Failed to decode replay summary: %v", err)
			continue
		}
		summaries = append(summaries, summary)
	}
	if err := cursor.Err(); err != nil {
		log.Printf("❌ Error iterating replay summaries: %v", err)
	}
	return summaries
}

func (b *mongoBackend) Ping(ctx context.Context) error {
	return b.db.Ping(ctx)
}

func (b *mongoBackend) Close(ctx context.Context) error {
	return b.db.Close(ctx)
}
