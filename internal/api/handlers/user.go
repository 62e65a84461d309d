package handlers

import (
	"github.com/holycodess/AppDashboard/internal/models"
	"github.com/holycodess/AppDashboard/internal/services"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	profileService *services.ProfileService
}

func NewUserHandler(profileService *services.ProfileService) *UserHandler {
	return &UserHandler{profileService: profileService}
}

type UpdateRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

type UpdateTypeRequest struct {
	Type string `json:"type" binding:"required"`
}

// GetUsers returns all profiles, newest first
func (h *UserHandler) GetUsers(c *gin.Context) {
	users, err := h.profileService.ListProfiles(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(200, gin.H{"users": users})
}

// UpdateRole sets the role of another user
func (h *UserHandler) UpdateRole(c *gin.Context) {
	var req UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	profile, err := h.profileService.UpdateRole(c.Request.Context(), userID(c), c.Param("id"), models.Role(req.Role))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(200, gin.H{"message": "Role updated successfully", "profile": profile})
}

// UpdateType sets the descriptive type of a user
func (h *UserHandler) UpdateType(c *gin.Context) {
	var req UpdateTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	profile, err := h.profileService.UpdateType(c.Request.Context(), userID(c), c.Param("id"), models.ProfileType(req.Type))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(200, gin.H{"message": "Type updated successfully", "profile": profile})
}
