package handlers

import (
	"github.com/holycodess/AppDashboard/internal/services"

	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	notificationService *services.NotificationService
}

func NewNotificationHandler(notificationService *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

type BroadcastRequest struct {
	Audience string `json:"audience" binding:"required"`
	Title    string `json:"title" binding:"required,max=255"`
	Message  string `json:"message" binding:"required"`
}

// GetMyNotifications returns the caller's notifications
func (h *NotificationHandler) GetMyNotifications(c *gin.Context) {
	notifications, err := h.notificationService.ForUser(c.Request.Context(), userID(c), 50)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(200, gin.H{"notifications": notifications})
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	if err := h.notificationService.MarkRead(c.Request.Context(), userID(c), c.Param("id")); err != nil {
		c.Error(err)
		return
	}

	c.JSON(200, gin.H{"message": "Notification marked as read"})
}

func (h *NotificationHandler) GetBroadcasts(c *gin.Context) {
	broadcasts, err := h.notificationService.RecentBroadcasts(c.Request.Context(), 20)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(200, gin.H{"broadcasts": broadcasts, "audiences": services.Audiences})
}

// CreateBroadcast sends a notification to an audience
func (h *NotificationHandler) CreateBroadcast(c *gin.Context) {
	var req BroadcastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	broadcast, err := h.notificationService.Broadcast(c.Request.Context(), userID(c), req.Audience, req.Title, req.Message)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(201, gin.H{"message": "Broadcast sent successfully", "broadcast": broadcast})
}
