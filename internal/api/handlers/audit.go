package handlers

import (
	"strconv"

	"github.com/holycodess/AppDashboard/internal/services"

	"github.com/gin-gonic/gin"
)

type AuditHandler struct {
	auditService *services.AuditService
}

func NewAuditHandler(auditService *services.AuditService) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

// GetAuditLogs returns the newest audit entries
func (h *AuditHandler) GetAuditLogs(c *gin.Context) {
	limit := 100
	if limitStr := c.Query("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	logs, err := h.auditService.Recent(c.Request.Context(), limit)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(200, gin.H{"logs": logs})
}
