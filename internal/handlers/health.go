package handlers

import (
	"github.com/gofiber/fiber/v2"

	"streamvault/internal/checkpoint"
)

// HealthHandler reports service liveness and backend status
type HealthHandler struct {
	manager *checkpoint.Manager
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(manager *checkpoint.Manager) *HealthHandler {
	return &HealthHandler{manager: manager}
}

// Check returns service status. The service is healthy even when persistence
// is disabled; the backend field tells callers which mode it runs in.
// GET /health
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	status := fiber.Map{
		"status":   "ok",
		"service":  "streamvault",
		"backend":  string(h.manager.Backend().Variant()),
		"sessions": h.manager.Buffer().Sessions(),
	}

	if h.manager.Enabled() {
		if err := h.manager.Backend().Ping(c.Context()); err != nil {
			status["status"] = "degraded"
			status["backend_error"] = err.Error()
			return c.Status(fiber.StatusServiceUnavailable).JSON(status)
		}
	}

	return c.JSON(status)
}
