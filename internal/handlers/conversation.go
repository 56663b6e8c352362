package handlers

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"streamvault/internal/checkpoint"
	"streamvault/internal/models"
)

// ConversationHandler serves consolidated conversations and replay listings
type ConversationHandler struct {
	manager *checkpoint.Manager
}

// NewConversationHandler creates a new conversation handler
func NewConversationHandler(manager *checkpoint.Manager) *ConversationHandler {
	return &ConversationHandler{manager: manager}
}

// Get returns the filtered, joined stream for a consolidated conversation
// GET /api/conversations/:id
func (h *ConversationHandler) Get(c *fiber.Ctx) error {
	threadID := c.Params("id")
	if threadID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Conversation ID is required",
		})
	}

	if !h.manager.Enabled() {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "Persistence is disabled",
		})
	}

	stream, ok := h.manager.GetConversation(c.Context(), threadID)
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Conversation not found",
		})
	}

	return c.JSON(fiber.Map{
		"thread_id": threadID,
		"stream":    stream,
	})
}

// List returns recent replay summaries as conversation entries
// GET /api/conversations?limit=10&sort=ts
func (h *ConversationHandler) List(c *fiber.Ctx) error {
	var req models.ConversationsRequest
	if err := c.QueryParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid query parameters",
		})
	}

	summaries := h.manager.ListReplaySummaries(c.Context(), req.Limit, req.Sort)

	resp := models.ConversationsResponse{
		Data: make([]models.Conversation, 0, len(summaries)),
	}
	for _, s := range summaries {
		resp.Data = append(resp.Data, models.Conversation{
			ID:       s.ThreadID,
			Title:    s.Topic,
			Date:     s.TS,
			Category: s.Style,
			Count:    s.Messages,
			DataType: "conversation",
		})
	}

	log.Printf("🔍 Listed %d conversation(s)", len(resp.Data))
	return c.JSON(resp)
}
