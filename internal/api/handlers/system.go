package handlers

import (
	"github.com/holycodess/AppDashboard/internal/services"

	"github.com/gin-gonic/gin"
)

type SystemHandler struct {
	systemService *services.SystemService
}

func NewSystemHandler(systemService *services.SystemService) *SystemHandler {
	return &SystemHandler{systemService: systemService}
}

// GetStats returns process, database and configuration details
func (h *SystemHandler) GetStats(c *gin.Context) {
	c.JSON(200, h.systemService.GetStats(c.Request.Context()))
}

// Health reports liveness and database reachability
func (h *SystemHandler) Health(c *gin.Context) {
	if err := h.systemService.Ping(c.Request.Context()); err != nil {
		c.JSON(503, gin.H{"status": "degraded", "message": "Database unreachable"})
		return
	}

	c.JSON(200, gin.H{
		"status":  "ok",
		"message": "Dashboard API is running",
	})
}
