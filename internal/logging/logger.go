package logging

import (
	"log/slog"
	"os"
	"strings"
)

// Init configures the global slog logger.
// In production (ENVIRONMENT=production) it uses JSON output for log aggregation.
// Otherwise it uses the human-readable text handler.
func Init() {
	env := strings.ToLower(os.Getenv("ENVIRONMENT"))

	var handler slog.Handler
	if env == "production" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})
	}

	slog.SetDefault(slog.New(handler))
}

// WithSession returns a logger with streaming-session context fields attached.
// Use this for all logging on the fragment write path.
func WithSession(threadID string) *slog.Logger {
	return slog.With("thread_id", threadID)
}

// WithBackend returns a logger scoped to a persistence backend variant.
func WithBackend(logger *slog.Logger, variant string) *slog.Logger {
	return logger.With("backend", variant)
}
