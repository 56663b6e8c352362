package handlers

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"streamvault/internal/retrieval"
)

// RetrievalHandler exposes the knowledge-base retrieval provider
type RetrievalHandler struct {
	provider retrieval.Retriever
}

// NewRetrievalHandler creates a new retrieval handler
func NewRetrievalHandler(provider retrieval.Retriever) *RetrievalHandler {
	return &RetrievalHandler{provider: provider}
}

// ListResources lists available knowledge bases
// GET /api/retrieval/resources?query=...
func (h *RetrievalHandler) ListResources(c *fiber.Ctx) error {
	resources, err := h.provider.ListResources(c.Context(), c.Query("query"))
	if err != nil {
		log.Printf("❌ Failed to list retrieval resources: %v", err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "Failed to list resources",
		})
	}

	return c.JSON(fiber.Map{
		"resources": resources,
	})
}

// QueryRequest is the body for document retrieval
type QueryRequest struct {
	Query     string               `json:"query"`
	Resources []retrieval.Resource `json:"resources"`
}

// Query retrieves documents relevant to a query from selected resources
// POST /api/retrieval/query
func (h *RetrievalHandler) Query(c *fiber.Ctx) error {
	var req QueryRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Query is required",
		})
	}

	documents, err := h.provider.QueryRelevantDocuments(c.Context(), req.Query, req.Resources)
	if err != nil {
		log.Printf("❌ Retrieval query failed: %v", err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "Retrieval query failed",
		})
	}

	return c.JSON(fiber.Map{
		"documents": documents,
	})
}
