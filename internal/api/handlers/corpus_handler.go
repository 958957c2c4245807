package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/caira/backend/internal/corpus"
)

type CorpusHandler struct {
	store *corpus.Store
}

func NewCorpusHandler(store *corpus.Store) *CorpusHandler {
	return &CorpusHandler{store: store}
}

type documentSummary struct {
	ID       string `json:"id"`
	Category string `json:"category"`
	Title    string `json:"title"`
}

// HandleList returns corpus metadata without content, in load order.
func (h *CorpusHandler) HandleList(c *fiber.Ctx) error {
	docs := h.store.Documents()

	summaries := make([]documentSummary, 0, len(docs))
	for _, doc := range docs {
		summaries = append(summaries, documentSummary{
			ID:       doc.ID,
			Category: string(doc.Category),
			Title:    doc.Title,
		})
	}

	return c.JSON(fiber.Map{
		"total":     len(summaries),
		"documents": summaries,
	})
}

func (h *CorpusHandler) HandleGet(c *fiber.Ctx) error {
	doc, ok := h.store.Get(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Document not found",
		})
	}

	return c.JSON(fiber.Map{
		"id":       doc.ID,
		"category": doc.Category,
		"title":    doc.Title,
		"content":  doc.Content,
	})
}
