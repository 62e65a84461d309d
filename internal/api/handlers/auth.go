package handlers

import (
	"time"

	"github.com/holycodess/AppDashboard/internal/api/middleware"
	"github.com/holycodess/AppDashboard/internal/config"
	"github.com/holycodess/AppDashboard/internal/models"
	"github.com/holycodess/AppDashboard/internal/services"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authService    *services.AuthService
	profileService *services.ProfileService
	cfg            *config.Config
}

func NewAuthHandler(authService *services.AuthService, profileService *services.ProfileService, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		authService:    authService,
		profileService: profileService,
		cfg:            cfg,
	}
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expires_at"`
	Profile   *models.Profile `json:"profile"`
}

type UpdateMeRequest struct {
	FullName string `json:"full_name" binding:"required,max=255"`
}

// userID is the identity of the current session
func userID(c *gin.Context) string {
	return c.GetString(middleware.ContextUserID)
}

// Login handles email/password login
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	user, err := h.authService.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		c.Error(err)
		return
	}

	token, session, err := h.authService.IssueSession(c.Request.Context(), user.ID, services.SessionMeta{
		IPAddress: c.ClientIP(),
		UserAgent: c.GetHeader("User-Agent"),
	})
	if err != nil {
		c.Error(err)
		return
	}

	profile, err := h.profileService.GetProfile(c.Request.Context(), user.ID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(200, LoginResponse{
		Token:     token,
		ExpiresAt: session.ExpiresAt,
		Profile:   profile,
	})
}

// Logout ends the current session
func (h *AuthHandler) Logout(c *gin.Context) {
	session, ok := middleware.CurrentSession(c)
	if !ok {
		c.JSON(401, gin.H{"error": "Not authenticated"})
		return
	}

	if err := h.authService.SignOut(c.Request.Context(), session, c.ClientIP()); err != nil {
		c.Error(err)
		return
	}

	middleware.ClearSessionCookie(c, h.cfg.Security.Cookie)
	c.JSON(200, gin.H{"message": "Logged out successfully"})
}

// GetMe returns the current profile and the sidebar it may see
func (h *AuthHandler) GetMe(c *gin.Context) {
	profile, err := h.profileService.GetProfile(c.Request.Context(), userID(c))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(200, gin.H{"profile": profile, "navigation": navigation(profile)})
}

// UpdateMe changes the caller's display name
func (h *AuthHandler) UpdateMe(c *gin.Context) {
	var req UpdateMeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	profile, err := h.profileService.UpdateFullName(c.Request.Context(), userID(c), req.FullName)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(200, gin.H{"message": "Profile updated successfully", "profile": profile})
}
