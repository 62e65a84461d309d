package web

import (
	"net/http"
	"strconv"
	"time"

	"github.com/holycodess/AppDashboard/internal/access"
	"github.com/holycodess/AppDashboard/internal/api/middleware"
	"github.com/holycodess/AppDashboard/internal/models"
	"github.com/holycodess/AppDashboard/internal/services"

	"github.com/gin-gonic/gin"
)

type signInForm struct {
	Email    string `form:"email" binding:"required,email"`
	Password string `form:"password" binding:"required"`
}

type profileForm struct {
	FullName string `form:"full_name" binding:"required,max=255"`
}

type roleForm struct {
	Role string `form:"role" binding:"required"`
}

type typeForm struct {
	Type string `form:"type" binding:"required"`
}

type themeForm struct {
	Color string `form:"color" binding:"required"`
	Font  string `form:"font"`
}

type notificationSettingsForm struct {
	Email          bool `form:"email_notifications"`
	Push           bool `form:"push_notifications"`
	SMS            bool `form:"sms_notifications"`
	WeeklyReports  bool `form:"weekly_reports"`
	SecurityAlerts bool `form:"security_alerts"`
}

type broadcastForm struct {
	Audience string `form:"audience" binding:"required"`
	Title    string `form:"title" binding:"required,max=255"`
	Message  string `form:"message" binding:"required"`
}

func (h *Handler) Index(c *gin.Context) {
	if _, ok := middleware.CurrentSession(c); ok {
		c.Redirect(http.StatusFound, access.LandingPath)
		return
	}
	c.Redirect(http.StatusFound, access.SignInPath)
}

func (h *Handler) SignInPage(c *gin.Context) {
	c.HTML(http.StatusOK, "signin.html", h.page(c, "Sign In", nil, gin.H{
		"Providers": h.svc.OAuth.Providers(),
	}))
}

func (h *Handler) SignIn(c *gin.Context) {
	var form signInForm
	if err := c.ShouldBind(&form); err != nil {
		h.setFlash(c, "error", "Enter your email and password")
		c.Redirect(http.StatusSeeOther, access.SignInPath)
		return
	}

	user, err := h.svc.Auth.Authenticate(c.Request.Context(), form.Email, form.Password)
	if err != nil {
		h.fail(c, access.SignInPath, err)
		return
	}
	h.startSession(c, user.ID)
}

// startSession issues a session for userID, sets the cookie and lands on the dashboard.
func (h *Handler) startSession(c *gin.Context, userID string) {
	token, session, err := h.svc.Auth.IssueSession(c.Request.Context(), userID, services.SessionMeta{
		IPAddress: c.ClientIP(),
		UserAgent: c.GetHeader("User-Agent"),
	})
	if err != nil {
		h.fail(c, access.SignInPath, err)
		return
	}

	middleware.SetSessionCookie(c, h.cfg.Security.Cookie, token, session.ExpiresAt)
	c.Redirect(http.StatusSeeOther, access.LandingPath)
}

func (h *Handler) BeginOAuth(c *gin.Context) {
	url, err := h.svc.OAuth.Begin(c.Request.Context(), c.Param("provider"))
	if err != nil {
		h.fail(c, access.SignInPath, err)
		return
	}
	c.Redirect(http.StatusFound, url)
}

func (h *Handler) OAuthCallback(c *gin.Context) {
	if reason := c.Query("error"); reason != "" {
		h.setFlash(c, "error", "Sign in was cancelled")
		c.Redirect(http.StatusSeeOther, access.SignInPath)
		return
	}

	ident, err := h.svc.OAuth.Complete(c.Request.Context(), c.Param("provider"), c.Query("state"), c.Query("code"))
	if err != nil {
		h.fail(c, access.SignInPath, err)
		return
	}

	user, err := h.svc.Auth.FindOrCreateOAuthUser(c.Request.Context(), ident)
	if err != nil {
		h.fail(c, access.SignInPath, err)
		return
	}
	h.startSession(c, user.ID)
}

func (h *Handler) SignOut(c *gin.Context) {
	if session, ok := middleware.CurrentSession(c); ok {
		if err := h.svc.Auth.SignOut(c.Request.Context(), session, c.ClientIP()); err != nil {
			h.log.Error().Err(err).Str("session_id", session.ID).Msg("failed to sign out")
		}
	}
	middleware.ClearSessionCookie(c, h.cfg.Security.Cookie)
	h.setFlash(c, "success", "Signed out")
	c.Redirect(http.StatusSeeOther, access.SignInPath)
}

func (h *Handler) Dashboard(c *gin.Context) {
	session, profile := h.currentProfile(c)
	if session == nil {
		c.Redirect(http.StatusFound, access.SignInPath)
		return
	}

	notifications, err := h.svc.Notifications.ForUser(c.Request.Context(), session.UserID, 10)
	if err != nil {
		h.log.Error().Err(err).Str("user_id", session.UserID).Msg("failed to load notifications")
	}
	unread := 0
	for _, n := range notifications {
		if n.ReadAt == nil {
			unread++
		}
	}

	c.HTML(http.StatusOK, "dashboard.html", h.page(c, "Dashboard", profile, gin.H{
		"Notifications": notifications,
		"Unread":        unread,
		"Session":       session,
	}))
}

func (h *Handler) ProfilePage(c *gin.Context) {
	session, profile := h.currentProfile(c)
	if session == nil {
		c.Redirect(http.StatusFound, access.SignInPath)
		return
	}
	c.HTML(http.StatusOK, "profile.html", h.page(c, "Profile", profile, nil))
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	session, ok := middleware.CurrentSession(c)
	if !ok {
		c.Redirect(http.StatusFound, access.SignInPath)
		return
	}

	var form profileForm
	if err := c.ShouldBind(&form); err != nil {
		h.setFlash(c, "error", "Enter a name of at most 255 characters")
		c.Redirect(http.StatusSeeOther, "/dashboard/profile")
		return
	}

	if _, err := h.svc.Profiles.UpdateFullName(c.Request.Context(), session.UserID, form.FullName); err != nil {
		h.fail(c, "/dashboard/profile", err)
		return
	}
	h.ok(c, "/dashboard/profile", "Profile updated")
}

const usersPath = "/dashboard/admin/users"

func (h *Handler) UsersPage(c *gin.Context, page pageData) {
	profiles, err := h.svc.Profiles.ListProfiles(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list profiles")
	}
	page.Data = gin.H{
		"Users": profiles,
		"Roles": models.Roles,
		"Types": models.ProfileTypes,
	}
	c.HTML(http.StatusOK, "users.html", page)
}

func (h *Handler) UpdateRole(c *gin.Context, page pageData) {
	var form roleForm
	if err := c.ShouldBind(&form); err != nil {
		h.setFlash(c, "error", "Choose a role")
		c.Redirect(http.StatusSeeOther, usersPath)
		return
	}

	_, err := h.svc.Profiles.UpdateRole(c.Request.Context(), page.Profile.ID, c.Param("id"), models.Role(form.Role))
	if err != nil {
		h.fail(c, usersPath, err)
		return
	}
	h.ok(c, usersPath, "Role updated")
}

func (h *Handler) UpdateType(c *gin.Context, page pageData) {
	var form typeForm
	if err := c.ShouldBind(&form); err != nil {
		h.setFlash(c, "error", "Choose a user type")
		c.Redirect(http.StatusSeeOther, usersPath)
		return
	}

	_, err := h.svc.Profiles.UpdateType(c.Request.Context(), page.Profile.ID, c.Param("id"), models.ProfileType(form.Type))
	if err != nil {
		h.fail(c, usersPath, err)
		return
	}
	h.ok(c, usersPath, "User type updated")
}

func (h *Handler) AuditPage(c *gin.Context, page pageData) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	logs, err := h.svc.Audit.Recent(c.Request.Context(), limit)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to load audit logs")
	}
	page.Data = gin.H{"Logs": logs}
	c.HTML(http.StatusOK, "audit.html", page)
}

func (h *Handler) AnalyticsPage(c *gin.Context, page pageData) {
	summary, err := h.svc.Analytics.Summary(c.Request.Context(), time.Now())
	if err != nil {
		h.log.Error().Err(err).Msg("failed to compute analytics")
		summary = &services.Analytics{}
	}
	page.Data = summary
	c.HTML(http.StatusOK, "analytics.html", page)
}

const themesPath = "/dashboard/admin/themes"

func (h *Handler) ThemesPage(c *gin.Context, page pageData) {
	themes, err := h.svc.Settings.Themes(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("failed to load themes")
	}
	page.Data = gin.H{
		"Themes": themes,
		"Colors": services.ThemeColors,
		"Fonts":  services.ThemeFonts,
	}
	c.HTML(http.StatusOK, "themes.html", page)
}

func (h *Handler) SaveTheme(c *gin.Context, page pageData) {
	var form themeForm
	if err := c.ShouldBind(&form); err != nil {
		h.setFlash(c, "error", "Choose a color")
		c.Redirect(http.StatusSeeOther, themesPath)
		return
	}

	category := c.Param("category")
	if _, err := h.svc.Settings.SaveTheme(c.Request.Context(), page.Profile.ID, category, form.Color, form.Font); err != nil {
		h.fail(c, themesPath, err)
		return
	}
	h.ok(c, themesPath, "Theme saved for "+category)
}

const notificationsPath = "/dashboard/admin/notifications"

func (h *Handler) NotificationsPage(c *gin.Context, page pageData) {
	ctx := c.Request.Context()
	settings, err := h.svc.Settings.NotificationSettings(ctx)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to load notification settings")
	}
	broadcasts, err := h.svc.Notifications.RecentBroadcasts(ctx, 0)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to load broadcasts")
	}
	page.Data = gin.H{
		"Settings":   settings,
		"Broadcasts": broadcasts,
		"Audiences":  services.Audiences,
	}
	c.HTML(http.StatusOK, "notifications.html", page)
}

func (h *Handler) SaveNotificationSettings(c *gin.Context, page pageData) {
	var form notificationSettingsForm
	if err := c.ShouldBind(&form); err != nil {
		h.setFlash(c, "error", "Invalid notification settings")
		c.Redirect(http.StatusSeeOther, notificationsPath)
		return
	}

	err := h.svc.Settings.SaveNotificationSettings(c.Request.Context(), page.Profile.ID, services.NotificationSettings(form))
	if err != nil {
		h.fail(c, notificationsPath, err)
		return
	}
	h.ok(c, notificationsPath, "Notification settings saved")
}

func (h *Handler) SendBroadcast(c *gin.Context, page pageData) {
	var form broadcastForm
	if err := c.ShouldBind(&form); err != nil {
		h.setFlash(c, "error", "A broadcast needs an audience, a title and a message")
		c.Redirect(http.StatusSeeOther, notificationsPath)
		return
	}

	b, err := h.svc.Notifications.Broadcast(c.Request.Context(), page.Profile.ID, form.Audience, form.Title, form.Message)
	if err != nil {
		h.fail(c, notificationsPath, err)
		return
	}
	h.ok(c, notificationsPath, "Broadcast sent to "+strconv.Itoa(b.Recipients)+" users")
}

const systemPath = "/dashboard/admin/system"

func (h *Handler) SystemPage(c *gin.Context, page pageData) {
	ctx := c.Request.Context()
	runs, err := h.svc.Operations.Runs(ctx, 0)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to load operation runs")
	}
	backups, err := h.svc.Operations.Backups().ListBackups()
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list backups")
	}
	page.Data = gin.H{
		"Stats":      h.svc.System.GetStats(ctx),
		"Operations": services.OperationKinds,
		"Runs":       runs,
		"Backups":    backups,
	}
	c.HTML(http.StatusOK, "system.html", page)
}

func (h *Handler) RunOperation(c *gin.Context, page pageData) {
	run, err := h.svc.Operations.Run(c.Request.Context(), c.Param("kind"), page.Profile.ID)
	if err != nil {
		if run != nil {
			h.setFlash(c, "error", "Operation failed: "+run.Message)
			c.Redirect(http.StatusSeeOther, systemPath)
			return
		}
		h.fail(c, systemPath, err)
		return
	}
	h.ok(c, systemPath, run.Message)
}
