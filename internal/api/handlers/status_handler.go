package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/caira/backend/internal/metrics"
	"github.com/caira/backend/internal/status"
	"github.com/caira/backend/pkg/logger"
)

type StatusHandler struct {
	client *status.Client
}

func NewStatusHandler(client *status.Client) *StatusHandler {
	return &StatusHandler{client: client}
}

func (h *StatusHandler) HandleStatus(c *fiber.Ctx) error {
	overview, err := h.client.GetStatus(c.Context())
	if err != nil {
		logger.Error("Failed to fetch external status", zap.Error(err))
		metrics.StatusFetches.WithLabelValues("error").Inc()
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "External status feed unavailable",
		})
	}

	metrics.StatusFetches.WithLabelValues("ok").Inc()

	return c.JSON(fiber.Map{
		"overview": overview,
		"summary":  overview.Summary(),
	})
}
