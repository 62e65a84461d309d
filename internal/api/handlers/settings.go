package handlers

import (
	"github.com/holycodess/AppDashboard/internal/services"

	"github.com/gin-gonic/gin"
)

type SettingsHandler struct {
	settingsService *services.SettingsService
}

func NewSettingsHandler(settingsService *services.SettingsService) *SettingsHandler {
	return &SettingsHandler{settingsService: settingsService}
}

type UpdateThemeRequest struct {
	Color string `json:"color" binding:"required"`
	Font  string `json:"font"`
}

// GetThemes returns the theme of every category with the available choices
func (h *SettingsHandler) GetThemes(c *gin.Context) {
	themes, err := h.settingsService.Themes(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(200, gin.H{
		"themes": themes,
		"colors": services.ThemeColors,
		"fonts":  services.ThemeFonts,
	})
}

func (h *SettingsHandler) UpdateTheme(c *gin.Context) {
	var req UpdateThemeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	theme, err := h.settingsService.SaveTheme(c.Request.Context(), userID(c), c.Param("category"), req.Color, req.Font)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(200, gin.H{"message": "Theme saved successfully", "theme": theme})
}

func (h *SettingsHandler) GetNotificationSettings(c *gin.Context) {
	settings, err := h.settingsService.NotificationSettings(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(200, settings)
}

func (h *SettingsHandler) UpdateNotificationSettings(c *gin.Context) {
	var req services.NotificationSettings
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	if err := h.settingsService.SaveNotificationSettings(c.Request.Context(), userID(c), req); err != nil {
		c.Error(err)
		return
	}

	c.JSON(200, gin.H{"message": "Notification settings saved successfully", "settings": req})
}
