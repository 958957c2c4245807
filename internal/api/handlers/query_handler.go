package handlers

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/caira/backend/internal/metrics"
	"github.com/caira/backend/internal/query"
	"github.com/caira/backend/internal/storage/sqlite"
	"github.com/caira/backend/pkg/logger"
)

var validate = validator.New()

type QueryHandler struct {
	engine *query.Engine
	db     *sqlite.Client
}

func NewQueryHandler(engine *query.Engine, db *sqlite.Client) *QueryHandler {
	return &QueryHandler{
		engine: engine,
		db:     db,
	}
}

type queryRequest struct {
	Query  string `json:"query" validate:"required,min=1,max=5000"`
	UserID string `json:"user_id" validate:"omitempty,max=128"`
}

func (h *QueryHandler) HandleQuery(c *fiber.Ctx) error {
	var req queryRequest

	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if err := validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Query is required and must be under 5000 characters",
		})
	}

	response, err := h.engine.Process(c.Context(), query.Request{
		Query:  req.Query,
		UserID: req.UserID,
	})
	if err != nil {
		logger.Error("Failed to process query", zap.Error(err))
		metrics.QueryTotal.WithLabelValues("error").Inc()
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to process query",
		})
	}

	status := "ok"
	if response.Degraded {
		status = "degraded"
	}
	metrics.QueryTotal.WithLabelValues(status).Inc()
	metrics.ConfidenceScore.Observe(response.Confidence)
	metrics.QueryDuration.WithLabelValues("query").Observe(float64(response.LatencyMS) / 1000)

	return c.JSON(response)
}

func (h *QueryHandler) GetQueryHistory(c *fiber.Ctx) error {
	userID := c.Query("user_id")
	if userID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "user_id is required",
		})
	}

	limit := c.QueryInt("limit", 20)
	if limit < 1 || limit > 100 {
		limit = 20
	}

	if h.db == nil {
		return c.JSON(fiber.Map{"history": []interface{}{}})
	}

	records, err := h.db.GetQueryHistory(userID, limit)
	if err != nil {
		logger.Error("Failed to load query history", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load query history",
		})
	}

	return c.JSON(fiber.Map{
		"history": records,
	})
}
