package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/caira/backend/internal/history"
)

type AnalyticsHandler struct {
	analytics *history.Analytics
}

func NewAnalyticsHandler(analytics *history.Analytics) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics}
}

func (h *AnalyticsHandler) HandleSummary(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"total_incidents":       h.analytics.TotalIncidents(),
		"incidents_by_type":     h.analytics.IncidentsByType(),
		"avg_resolution_hours":  h.analytics.AvgResolutionHours(),
		"severity_distribution": h.analytics.SeverityDistribution(),
		"top_incident_types":    h.analytics.TopIncidentTypes(5),
		"insights":              h.analytics.Insights(),
	})
}

func (h *AnalyticsHandler) HandleCharts(c *fiber.Ctx) error {
	return c.JSON(h.analytics.Charts())
}
