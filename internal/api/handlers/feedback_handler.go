package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/caira/backend/internal/metrics"
	"github.com/caira/backend/internal/storage/models"
	"github.com/caira/backend/internal/storage/sqlite"
	"github.com/caira/backend/pkg/logger"
)

type FeedbackHandler struct {
	db *sqlite.Client
}

func NewFeedbackHandler(db *sqlite.Client) *FeedbackHandler {
	return &FeedbackHandler{db: db}
}

type feedbackRequest struct {
	QueryID       string `json:"query_id" validate:"required,uuid4"`
	Helpful       bool   `json:"helpful"`
	IssueCategory string `json:"issue_category" validate:"omitempty,max=64"`
	Comment       string `json:"comment" validate:"omitempty,max=2000"`
}

func (h *FeedbackHandler) HandleFeedback(c *fiber.Ctx) error {
	var req feedbackRequest

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if err := validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "query_id must be a valid query UUID",
		})
	}

	if h.db == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "Feedback storage is not configured",
		})
	}

	err := h.db.StoreFeedback(&models.Feedback{
		QueryID:       req.QueryID,
		Helpful:       req.Helpful,
		IssueCategory: req.IssueCategory,
		Comment:       req.Comment,
	})
	if err != nil {
		logger.Error("Failed to store feedback", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to store feedback",
		})
	}

	helpful := "false"
	if req.Helpful {
		helpful = "true"
	}
	metrics.UserSatisfaction.WithLabelValues(helpful).Inc()

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"status": "recorded",
	})
}
