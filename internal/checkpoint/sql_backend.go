package checkpoint

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"streamvault/internal/database"
	"streamvault/internal/models"
)

// sqlBackend is the relational variant, backed by MySQL.
type sqlBackend struct {
	db *database.DB
}

func newSQLBackend(db *database.DB) *sqlBackend {
	return &sqlBackend{db: db}
}

func (b *sqlBackend) Variant() Variant { return VariantRelational }

func (b *sqlBackend) UpsertConversation(ctx context.Context, threadID string, messages []string) bool {
	messagesJSON, err := json.Marshal(messages)
	if err != nil {
		log.Printf("❌ Error serializing conversation for thread %s: %v", threadID, err)
		return false
	}

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		log.Printf("❌ Error persisting conversation for thread %s: %v", threadID, err)
		return false
	}

	now := time.Now()

	var existingID string
	err = tx.QueryRowContext(ctx, "SELECT id FROM chat_streams WHERE thread_id = ?", threadID).Scan(&existingID)

	var result sql.Result
	switch {
	case err == nil:
		result, err = tx.ExecContext(ctx,
			"UPDATE chat_streams SET messages = ?, ts = ? WHERE thread_id = ?",
			messagesJSON, now, threadID)

	case err == sql.ErrNoRows:
		result, err = tx.ExecContext(ctx,
			"INSERT INTO chat_streams (id, thread_id, messages, ts) VALUES (?, ?, ?, ?)",
			uuid.NewString(), threadID, messagesJSON, now)

	default:
		tx.Rollback()
		log.Printf("❌ Error looking up conversation for thread %s: %v", threadID, err)
		return false
	}

	if err != nil {
		tx.Rollback()
		log.Printf("❌ Error persisting conversation for thread %s: %v", threadID, err)
		return false
	}

	affected, err := result.RowsAffected()
	if err != nil {
		tx.Rollback()
		log.Printf("❌ Error persisting conversation for thread %s: %v", threadID, err)
		return false
	}

	if err := tx.Commit(); err != nil {
		log.Printf("❌ Error persisting conversation for thread %s: %v", threadID, err)
		return false
	}

	log.Printf("💾 Persisted conversation for thread %s: %d rows modified", threadID, affected)
	return affected > 0
}

func (b *sqlBackend) AppendEvent(ctx context.Context, threadID, event, level string, message map[string]interface{}) {
	messageJSON, err := json.Marshal(message)
	if err != nil {
		log.Printf("❌ Error serializing event: %v", err)
		return
	}

	_, err = b.db.ExecContext(ctx,
		"INSERT INTO stream_events (id, thread_id, event, level, message, ts) VALUES (?, ?, ?, ?, ?, ?)",
		uuid.NewString(), threadID, event, level, messageJSON, time.Now())
	if err != nil {
		log.Printf("❌ Error logging event: %v", err)
		return
	}
	log.Println("📝 Event logged successfully")
}

func (b *sqlBackend) UpsertReplaySummary(ctx context.Context, threadID, topic, style string, messages int) {
	if messages > 0 {
		var existingID string
		err := b.db.QueryRowContext(ctx, "SELECT id FROM replay_summaries WHERE thread_id = ?", threadID).Scan(&existingID)
		if err == sql.ErrNoRows {
			log.Printf("⚠️ No replay summary found for thread %s, count not recorded", threadID)
			return
		}
		if err != nil {
			log.Printf("❌ Error logging replay summary: %v", err)
			return
		}

		result, err := b.db.ExecContext(ctx,
			"UPDATE replay_summaries SET messages = ? WHERE thread_id = ?", messages, threadID)
		if err != nil {
			log.Printf("❌ Error logging replay summary: %v", err)
			return
		}
		affected, _ := result.RowsAffected()
		log.Printf("📝 Updated replay summary for thread %s: %d rows modified", threadID, affected)
		return
	}

	_, err := b.db.ExecContext(ctx,
		"INSERT INTO replay_summaries (id, thread_id, research_topic, report_style, messages, ts) VALUES (?, ?, ?, ?, ?, ?)",
		uuid.NewString(), threadID, topic, style, messages, time.Now())
	if err != nil {
		log.Printf("❌ Error logging replay summary: %v", err)
		return
	}
	log.Println("📝 Replay summary logged successfully")
}

func (b *sqlBackend) FetchConversation(ctx context.Context, threadID string) (string, bool) {
	var messagesJSON []byte
	err := b.db.QueryRowContext(ctx,
		"SELECT messages FROM chat_streams WHERE thread_id = ?", threadID).Scan(&messagesJSON)
	if err == sql.ErrNoRows {
		log.Printf("⚠️ No conversation found for thread_id: %s", threadID)
		return "", false
	}
	if err != nil {
		log.Printf("❌ Error retrieving conversation for thread %s: %v", threadID, err)
		return "", false
	}

	var messages []string
	if err := json.Unmarshal(messagesJSON, &messages); err != nil {
		log.Printf("❌ Error decoding conversation for thread %s: %v", threadID, err)
		return "", false
	}

	return FilterStreamFrames(messages), true
}

func (b *sqlBackend) ListReplaySummaries(ctx context.Context, limit int, sort string) []models.ReplaySummary {
	// Sort field is interpolated into the query, so it is restricted to
	// known columns.
	switch sort {
	case "ts", "messages", "thread_id":
	default:
		sort = "ts"
	}

	query := fmt.Sprintf(
		"SELECT id, thread_id, research_topic, report_style, messages, ts FROM replay_summaries ORDER BY %s DESC LIMIT ?", sort)

	rows, err := b.db.QueryContext(ctx, query, limit)
	if err != nil {
		log.Printf("❌ Error retrieving replay summaries: %v", err)
		return []models.ReplaySummary{}
	}
	defer rows.Close()

	summaries := make([]models.ReplaySummary, 0)
	for rows.Next() {
		var summary models.ReplaySummary
		if err := rows.Scan(&summary.ID, &summary.ThreadID, &summary.Topic, &summary.Style, &summary.Messages, &summary.TS); err != nil {
			log.Printf("⚠️ Failed to scan replay summary: %v", err)
			continue
		}
		summaries = append(summaries, summary)
	}
	if err := rows.Err(); err != nil {
		log.Printf("❌ Error iterating replay summaries: %v", err)
	}
	return summaries
}

func (b *sqlBackend) Ping(ctx context.Context) error {
	return b.db.PingContext(ctx)
}

func (b *sqlBackend) Close(ctx context.Context) error {
	return b.db.DB.Close()
}
