// Package web renders the browser dashboard. Every admin screen goes through the
// role gate and renders nothing of its content until the gate has resolved.
package web

import (
	"embed"
	"encoding/json"
	"html/template"
	"net/http"
	"time"

	"github.com/holycodess/AppDashboard/internal/access"
	"github.com/holycodess/AppDashboard/internal/api/middleware"
	"github.com/holycodess/AppDashboard/internal/config"
	"github.com/holycodess/AppDashboard/internal/models"
	"github.com/holycodess/AppDashboard/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

//go:embed templates/*.html
var templateFS embed.FS

// Templates parses the embedded page templates.
func Templates() (*template.Template, error) {
	return template.New("").Funcs(template.FuncMap{
		"fmtTime": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Local().Format("2006-01-02 15:04")
		},
		"fmtTimePtr": func(t *time.Time) string {
			if t == nil {
				return ""
			}
			return t.Local().Format("2006-01-02 15:04")
		},
		"jsonValue": func(v models.JSON) string {
			if v == nil {
				return ""
			}
			b, err := json.Marshal(v)
			if err != nil {
				return ""
			}
			return string(b)
		},
		"deref": func(s *string) string {
			if s == nil {
				return ""
			}
			return *s
		},
	}).ParseFS(templateFS, "templates/*.html")
}

// Services are the collaborators of the web handlers.
type Services struct {
	Auth          *services.AuthService
	OAuth         *services.OAuthService
	Profiles      *services.ProfileService
	Audit         *services.AuditService
	Analytics     *services.AnalyticsService
	Settings      *services.SettingsService
	Notifications *services.NotificationService
	Operations    *services.OperationService
	System        *services.SystemService
}

type Handler struct {
	cfg      *config.Config
	svc      Services
	roleGate *access.RoleGate
	log      zerolog.Logger
}

func NewHandler(cfg *config.Config, svc Services, roleGate *access.RoleGate, log zerolog.Logger) *Handler {
	return &Handler{cfg: cfg, svc: svc, roleGate: roleGate, log: log}
}

// pageData is what every template receives.
type pageData struct {
	Title   string
	Path    string
	Profile *models.Profile
	Nav     []access.NavItem
	Flash   *Flash
	Data    any
}

func (h *Handler) page(c *gin.Context, title string, profile *models.Profile, data any) pageData {
	return pageData{
		Title:   title,
		Path:    c.Request.URL.Path,
		Profile: profile,
		Nav:     access.NavItems(profile),
		Flash:   h.popFlash(c),
		Data:    data,
	}
}

// Register mounts the web routes on r. SessionGate must already run for r.
func (h *Handler) Register(r *gin.Engine, signInLimiter gin.HandlerFunc) {
	r.GET("/", h.Index)

	auth := r.Group("/auth")
	{
		auth.GET("", h.SignInPage)
		auth.POST("/signin", signInLimiter, h.SignIn)
		auth.GET("/oauth/:provider", h.BeginOAuth)
		auth.GET("/callback/:provider", h.OAuthCallback)
		auth.POST("/signout", h.SignOut)
	}

	dash := r.Group("/dashboard")
	{
		dash.GET("", h.Dashboard)
		dash.GET("/profile", h.ProfilePage)
		dash.POST("/profile", h.UpdateProfile)

		admin := dash.Group("/admin")
		admin.GET("/users", h.admin("User Management", h.UsersPage))
		admin.POST("/users/:id/role", h.admin("User Management", h.UpdateRole))
		admin.POST("/users/:id/type", h.admin("User Management", h.UpdateType))
		admin.GET("/audit", h.admin("Audit Logs", h.AuditPage))
		admin.GET("/analytics", h.admin("Analytics", h.AnalyticsPage))
		admin.GET("/themes", h.admin("Theme Management", h.ThemesPage))
		admin.POST("/themes/:category", h.admin("Theme Management", h.SaveTheme))
		admin.GET("/notifications", h.admin("Notifications", h.NotificationsPage))
		admin.POST("/notifications/settings", h.admin("Notifications", h.SaveNotificationSettings))
		admin.POST("/notifications/broadcast", h.admin("Notifications", h.SendBroadcast))
		admin.GET("/system", h.admin("System Management", h.SystemPage))
		admin.POST("/system/operations/:kind", h.admin("System Management", h.RunOperation))
	}
}

type adminFunc func(c *gin.Context, page pageData)

// admin wraps a screen with the role gate. Denied and failed checks render the same
// Access Denied page; an unresolved check renders nothing.
func (h *Handler) admin(title string, render adminFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, ok := middleware.CurrentSession(c)
		if !ok {
			c.Redirect(http.StatusFound, access.SignInPath)
			return
		}

		decision := h.roleGate.Check(c.Request.Context(), session.UserID)
		if !decision.Resolved() {
			c.Abort()
			return
		}
		if !decision.Authorized() {
			c.HTML(http.StatusForbidden, "denied.html", h.page(c, "Access Denied", decision.Profile, nil))
			return
		}

		render(c, h.page(c, title, decision.Profile, nil))
	}
}

// currentProfile loads the signed-in profile for non-admin screens. A failed fetch
// degrades to the placeholder identity.
func (h *Handler) currentProfile(c *gin.Context) (*models.Session, *models.Profile) {
	session, ok := middleware.CurrentSession(c)
	if !ok {
		return nil, nil
	}
	profile, err := h.svc.Profiles.FindProfile(c.Request.Context(), session.UserID)
	if err != nil {
		h.log.Error().Err(err).Str("user_id", session.UserID).Msg("failed to load profile")
	}
	return session, profile
}

func (h *Handler) fail(c *gin.Context, redirect string, err error) {
	status, msg := middleware.StatusFor(err)
	if status == http.StatusInternalServerError {
		h.log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
		msg = "Something went wrong, please try again"
	}
	h.setFlash(c, "error", msg)
	c.Redirect(http.StatusSeeOther, redirect)
}

func (h *Handler) ok(c *gin.Context, redirect, message string) {
	h.setFlash(c, "success", message)
	c.Redirect(http.StatusSeeOther, redirect)
}
