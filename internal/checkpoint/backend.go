package checkpoint

import (
	"context"
	"log"
	"log/slog"
	"strings"

	"streamvault/internal/database"
	"streamvault/internal/logging"
	"streamvault/internal/models"
)

// Variant identifies which persistence engine backs the checkpoint store.
type Variant string

const (
	VariantDocument   Variant = "document"   // MongoDB
	VariantRelational Variant = "relational" // MySQL
	VariantDisabled   Variant = "disabled"
)

// Backend is the durable store behind the consolidation engine. It is the
// failure firewall of the core: implementations catch and log every
// operational error and surface outcomes only as booleans or empty results.
type Backend interface {
	Variant() Variant

	// UpsertConversation replaces or inserts the consolidated fragment list
	// for a thread. Returns true only if a row/document was actually
	// affected.
	UpsertConversation(ctx context.Context, threadID string, messages []string) bool

	// AppendEvent inserts an audit event. Insert-only; failures are logged
	// and swallowed.
	AppendEvent(ctx context.Context, threadID, event, level string, message map[string]interface{})

	// UpsertReplaySummary updates the fragment count of an existing summary
	// when messages > 0 (logged no-op when none exists), and always inserts
	// a fresh record when messages == 0.
	UpsertReplaySummary(ctx context.Context, threadID, topic, style string, messages int)

	// FetchConversation returns the stored conversation text after the
	// stream-frame filter, or ("", false) when no record exists.
	FetchConversation(ctx context.Context, threadID string) (string, bool)

	// ListReplaySummaries returns up to limit summaries, descending by sort.
	ListReplaySummaries(ctx context.Context, limit int, sort string) []models.ReplaySummary

	// Ping checks backend liveness.
	Ping(ctx context.Context) error

	Close(ctx context.Context) error
}

// Open selects and connects the backend variant from the connection URL
// scheme. Unknown schemes and connection failures degrade to the disabled
// variant; nothing here ever panics or returns an error to the caller.
func Open(dbURL string) Backend {
	switch {
	case strings.HasPrefix(dbURL, "mongodb://"), strings.HasPrefix(dbURL, "mongodb+srv://"):
		mongoDB, err := database.NewMongoDB(dbURL)
		if err != nil {
			log.Printf("❌ Failed to connect to MongoDB: %v (checkpointing disabled)", err)
			return disabledBackend{}
		}
		if err := mongoDB.Initialize(context.Background()); err != nil {
			log.Printf("⚠️ Failed to initialize MongoDB indexes: %v", err)
		}
		logging.WithBackend(slog.Default(), string(VariantDocument)).Info("Checkpoint backend connected")
		return newMongoBackend(mongoDB)

	case strings.HasPrefix(dbURL, "mysql://"):
		db, err := database.New(dbURL)
		if err != nil {
			log.Printf("❌ Failed to connect to MySQL: %v (checkpointing disabled)", err)
			return disabledBackend{}
		}
		if err := db.Initialize(); err != nil {
			log.Printf("⚠️ Failed to initialize MySQL schema: %v", err)
		}
		logging.WithBackend(slog.Default(), string(VariantRelational)).Info("Checkpoint backend connected")
		return newSQLBackend(db)

	default:
		log.Printf("⚠️ Unsupported database URL scheme: %s. Supported schemes: mongodb://, mongodb+srv://, mysql://", dbURL)
		return disabledBackend{}
	}
}

// disabledBackend is the explicit no-backend variant. Every operation is a
// logged no-op returning the benign empty/false result.
type disabledBackend struct{}

// Disabled returns the no-op backend variant.
func Disabled() Backend {
	return disabledBackend{}
}

func (disabledBackend) Variant() Variant { return VariantDisabled }

func (disabledBackend) UpsertConversation(ctx context.Context, threadID string, messages []string) bool {
	log.Printf("⚠️ No database connection available, conversation for thread %s not persisted", threadID)
	return false
}

func (disabledBackend) AppendEvent(ctx context.Context, threadID, event, level string, message map[string]interface{}) {
	log.Println("⚠️ No database connection available, event not logged")
}

func (disabledBackend) UpsertReplaySummary(ctx context.Context, threadID, topic, style string, messages int) {
	log.Println("⚠️ No database connection available, replay summary not logged")
}

func (disabledBackend) FetchConversation(ctx context.Context, threadID string) (string, bool) {
	log.Println("⚠️ No database connection available, cannot retrieve conversation")
	return "", false
}

func (disabledBackend) ListReplaySummaries(ctx context.Context, limit int, sort string) []models.ReplaySummary {
	log.Println("⚠️ No database connection available, cannot list replay summaries")
	return []models.ReplaySummary{}
}

func (disabledBackend) Ping(ctx context.Context) error {
	return ErrPersistenceDisabled
}

func (disabledBackend) Close(ctx context.Context) error { return nil }
