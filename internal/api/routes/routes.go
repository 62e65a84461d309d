package routes

import (
	"github.com/holycodess/AppDashboard/internal/access"
	"github.com/holycodess/AppDashboard/internal/api/handlers"
	"github.com/holycodess/AppDashboard/internal/api/middleware"
	"github.com/holycodess/AppDashboard/internal/config"
	"github.com/holycodess/AppDashboard/internal/models"
	"github.com/holycodess/AppDashboard/internal/services"
	"github.com/holycodess/AppDashboard/internal/web"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// Deps are the process-wide collaborators the routes are built from.
type Deps struct {
	Config *config.Config
	DB     *gorm.DB
	Log    zerolog.Logger
	States services.StateStore
}

func SetupRoutes(r *gin.Engine, deps Deps) error {
	cfg := deps.Config
	states := deps.States
	if states == nil {
		states = services.NewMemoryStateStore()
	}

	// Initialize services
	authService := services.NewAuthService(deps.DB, cfg)
	oauthService := services.NewOAuthService(cfg, states)
	profileService := services.NewProfileService(deps.DB)
	auditService := services.NewAuditService(deps.DB)
	analyticsService := services.NewAnalyticsService(deps.DB)
	settingsService := services.NewSettingsService(deps.DB)
	notificationService := services.NewNotificationService(deps.DB)
	operationService := services.NewOperationService(deps.DB, cfg, authService, deps.Log)
	systemService := services.NewSystemService(deps.DB, cfg)

	sessionGate := access.NewSessionGate(authService, deps.Log)
	roleGate := access.NewRoleGate(profileService, models.RoleSuperAdmin, deps.Log)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService, profileService, cfg)
	userHandler := handlers.NewUserHandler(profileService)
	auditHandler := handlers.NewAuditHandler(auditService)
	analyticsHandler := handlers.NewAnalyticsHandler(analyticsService)
	settingsHandler := handlers.NewSettingsHandler(settingsService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	operationHandler := handlers.NewOperationHandler(operationService)
	backupHandler := handlers.NewBackupHandler(operationService.Backups())
	systemHandler := handlers.NewSystemHandler(systemService)

	webHandler := web.NewHandler(cfg, web.Services{
		Auth:          authService,
		OAuth:         oauthService,
		Profiles:      profileService,
		Audit:         auditService,
		Analytics:     analyticsService,
		Settings:      settingsService,
		Notifications: notificationService,
		Operations:    operationService,
		System:        systemService,
	}, roleGate, deps.Log)

	tmpl, err := web.Templates()
	if err != nil {
		return errors.Wrap(err, "failed to parse templates")
	}
	r.SetHTMLTemplate(tmpl)

	loginLimiter := middleware.RateLimit(cfg.Security.RateLimit)

	// Middleware
	r.Use(middleware.RequestLogger(deps.Log))
	r.Use(middleware.SessionGate(sessionGate, cfg.Security.Cookie.Name))

	webHandler.Register(r, loginLimiter)

	// Public routes
	api := r.Group("/api")
	api.Use(middleware.ErrorHandler(deps.Log))
	{
		api.GET("/health", systemHandler.Health)
		api.GET("/metrics", gin.WrapH(promhttp.Handler()))

		// Auth routes (public)
		api.POST("/auth/login", loginLimiter, authHandler.Login)
	}

	// Protected routes
	protected := api.Group("")
	protected.Use(middleware.RequireSession())
	{
		protected.POST("/auth/logout", authHandler.Logout)
		protected.GET("/me", authHandler.GetMe)
		protected.PUT("/me", authHandler.UpdateMe)

		protected.GET("/notifications", notificationHandler.GetMyNotifications)
		protected.POST("/notifications/:id/read", notificationHandler.MarkRead)
	}

	// Admin routes
	admin := protected.Group("/admin")
	admin.Use(middleware.RequireRole(roleGate))
	{
		users := admin.Group("/users")
		{
			users.GET("", userHandler.GetUsers)
			users.PUT("/:id/role", userHandler.UpdateRole)
			users.PUT("/:id/type", userHandler.UpdateType)
		}

		admin.GET("/audit", auditHandler.GetAuditLogs)
		admin.GET("/analytics", analyticsHandler.GetAnalytics)

		settings := admin.Group("/settings")
		{
			settings.GET("/themes", settingsHandler.GetThemes)
			settings.PUT("/themes/:category", settingsHandler.UpdateTheme)
			settings.GET("/notifications", settingsHandler.GetNotificationSettings)
			settings.PUT("/notifications", settingsHandler.UpdateNotificationSettings)
		}

		broadcasts := admin.Group("/broadcasts")
		{
			broadcasts.GET("", notificationHandler.GetBroadcasts)
			broadcasts.POST("", notificationHandler.CreateBroadcast)
		}

		operations := admin.Group("/operations")
		{
			operations.GET("", operationHandler.GetOperations)
			operations.POST("/:kind", operationHandler.RunOperation)
		}

		backups := admin.Group("/backups")
		{
			backups.GET("", backupHandler.GetBackups)
			backups.DELETE("/:name", backupHandler.DeleteBackup)
		}

		admin.GET("/system", systemHandler.GetStats)
	}

	r.NoRoute(func(c *gin.Context) {
		path := c.Request.URL.Path
		if len(path) >= 4 && path[:4] == "/api" {
			c.JSON(404, gin.H{"error": "API endpoint not found"})
			return
		}
		c.HTML(404, "notfound.html", gin.H{"Title": "Page Not Found"})
	})

	return nil
}
