package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"streamvault/internal/config"
)

// MongoDB wraps the MongoDB client and database
type MongoDB struct {
	client   *mongo.Client
	database *mongo.Database
	dbName   string
}

// Collection names
const (
	CollectionChatStreams     = "chat_streams"
	CollectionStreamEvents    = "stream_events"
	CollectionReplaySummaries = "replay_summaries"
)

// NewMongoDB creates a new MongoDB connection with connection pooling
func NewMongoDB(uri string) (*MongoDB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Configure client options with connection pooling
	clientOptions := options.Client().
		ApplyURI(uri).
		SetMaxPoolSize(50).
		SetMinPoolSize(5).
		SetMaxConnIdleTime(30 * time.Second).
		SetServerSelectionTimeout(5 * time.Second).
		SetConnectTimeout(10 * time.Second)

	// Connect to MongoDB
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	// Ping to verify connection
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	// Extract database name from URI or use default
	dbName := extractDBName(uri)

	db := &MongoDB{
		client:   client,
		database: client.Database(dbName),
		dbName:   dbName,
	}

	log.Printf("✅ Connected to MongoDB database: %s", dbName)

	return db, nil
}

// extractDBName extracts the database name from a MongoDB URI.
// mongodb://localhost:27017/streamvault?authSource=admin -> streamvault
// Host-only URIs (mongodb://localhost:27017) fall back to the default: the
// last path segment there is the host:port, not a database name.
func extractDBName(uri string) string {
	return config.DatabaseName(uri, "streamvault")
}

// Initialize creates indexes for all collections
func (m *MongoDB) Initialize(ctx context.Context) error {
	log.Println("📦 Initializing MongoDB indexes...")

	// Consolidated conversations: one document per thread
	if err := m.createIndexes(ctx, CollectionChatStreams, []mongo.IndexModel{
		{Keys: bson.D{{Key: "thread_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "ts", Value: -1}}},
	}); err != nil {
		return fmt.Errorf("failed to create chat_streams indexes: %w", err)
	}

	// Audit events: append-only, queried by thread and recency
	if err := m.createIndexes(ctx, CollectionStreamEvents, []mongo.IndexModel{
		{Keys: bson.D{{Key: "thread_id", Value: 1}}},
		{Keys: bson.D{{Key: "ts", Value: -1}}},
	}); err != nil {
		return fmt.Errorf("failed to create stream_events indexes: %w", err)
	}

	// Replay summaries: zero-count records open a session, so thread_id is
	// intentionally NOT unique here
	if err := m.createIndexes(ctx, CollectionReplaySummaries, []mongo.IndexModel{
		{Keys: bson.D{{Key: "thread_id", Value: 1}}},
		{Keys: bson.D{{Key: "ts", Value: -1}}},
	}); err != nil {
		return fmt.Errorf("failed to create replay_summaries indexes: %w", err)
	}

	log.Println("✅ MongoDB indexes initialized successfully")
	return nil
}

// createIndexes creates indexes for a collection
func (m *MongoDB) createIndexes(ctx context.Context, collectionName string, indexes []mongo.IndexModel) error {
	collection := m.database.Collection(collectionName)
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}

// Collection returns a collection handle
func (m *MongoDB) Collection(name string) *mongo.Collection {
	return m.database.Collection(name)
}

// Client returns the underlying MongoDB client
func (m *MongoDB) Client() *mongo.Client {
	return m.client
}

// Close closes the MongoDB connection
func (m *MongoDB) Close(ctx context.Context) error {
	log.Println("🔌 Closing MongoDB connection...")
	return m.client.Disconnect(ctx)
}

// Ping checks if the database connection is alive
func (m *MongoDB) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, readpref.Primary())
}
