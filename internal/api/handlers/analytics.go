package handlers

import (
	"time"

	"github.com/holycodess/AppDashboard/internal/services"

	"github.com/gin-gonic/gin"
)

type AnalyticsHandler struct {
	analyticsService *services.AnalyticsService
}

func NewAnalyticsHandler(analyticsService *services.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analyticsService: analyticsService}
}

func (h *AnalyticsHandler) GetAnalytics(c *gin.Context) {
	summary, err := h.analyticsService.Summary(c.Request.Context(), time.Now())
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(200, summary)
}
