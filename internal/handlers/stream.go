package handlers

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"streamvault/internal/checkpoint"
)

// StreamHandler handles HTTP requests for stream fragment ingestion and
// session event logging
type StreamHandler struct {
	manager *checkpoint.Manager
}

// NewStreamHandler creates a new stream handler
func NewStreamHandler(manager *checkpoint.Manager) *StreamHandler {
	return &StreamHandler{manager: manager}
}

// FragmentRequest is the body for fragment submission
type FragmentRequest struct {
	Message      string `json:"message"`
	FinishReason string `json:"finish_reason,omitempty"`
}

// EventRequest is the body for session event logging
type EventRequest struct {
	Event   string                 `json:"event"`
	Level   string                 `json:"level,omitempty"`
	Message map[string]interface{} `json:"message,omitempty"`
}

// ReplayRequest is the body for recording a replay summary
type ReplayRequest struct {
	Topic    string `json:"research_topic,omitempty"`
	Style    string `json:"report_style,omitempty"`
	Messages int    `json:"messages"`
}

// SubmitFragment accepts one stream fragment for a session. A terminal
// finish_reason triggers consolidation of the whole session.
// POST /api/streams/:id/fragments
func (h *StreamHandler) SubmitFragment(c *fiber.Ctx) error {
	threadID := c.Params("id")
	if threadID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Stream ID is required",
		})
	}

	var req FragmentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Message == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Message is required",
		})
	}

	accepted := h.manager.Submit(c.Context(), threadID, req.Message, req.FinishReason)

	return c.JSON(fiber.Map{
		"accepted":  accepted,
		"thread_id": threadID,
		"buffered":  h.manager.Buffer().Len(threadID),
	})
}

// LogEvent records a session lifecycle event
// POST /api/streams/:id/events
func (h *StreamHandler) LogEvent(c *fiber.Ctx) error {
	threadID := c.Params("id")
	if threadID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Stream ID is required",
		})
	}

	var req EventRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Event == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Event name is required",
		})
	}

	if req.Level == "" {
		req.Level = "info"
	}

	h.manager.LogEvent(c.Context(), threadID, req.Event, req.Level, req.Message)

	return c.JSON(fiber.Map{
		"success": true,
	})
}

// RecordReplay records or updates the replay summary for a session
// POST /api/streams/:id/replay
func (h *StreamHandler) RecordReplay(c *fiber.Ctx) error {
	threadID := c.Params("id")
	if threadID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Stream ID is required",
		})
	}

	var req ReplayRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Messages < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Message count must be non-negative",
		})
	}

	h.manager.LogReplaySummary(c.Context(), threadID, req.Topic, req.Style, req.Messages)
	log.Printf("📝 Replay summary recorded for %s (%d messages)", threadID, req.Messages)

	return c.JSON(fiber.Map{
		"success": true,
	})
}
