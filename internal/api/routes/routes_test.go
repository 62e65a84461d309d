package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/holycodess/AppDashboard/internal/config"
	"github.com/holycodess/AppDashboard/internal/models"
	"github.com/holycodess/AppDashboard/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// setupTestDB opens a migrated SQLite database in a temp dir
func setupTestDB(t *testing.T) (*gorm.DB, *config.Config) {
	t.Helper()
	dir := t.TempDir()

	cfg := &config.Config{
		Server: config.ServerConfig{Mode: "test", BaseURL: "http://localhost:8080"},
		Database: config.DatabaseConfig{
			Type:   "sqlite",
			SQLite: config.SQLiteConfig{Path: filepath.Join(dir, "dashboard_test.db")},
		},
		JWT: config.JWTConfig{
			Secret:    "test-secret-key-for-testing-only",
			ExpiresIn: "24h",
			Issuer:    "app-dashboard-test",
			KeyGrace:  "1h",
		},
		Security: config.SecurityConfig{
			BcryptCost: bcrypt.MinCost,
			Cookie:     config.CookieConfig{Name: "dash_session"},
		},
		OAuth: config.OAuthConfig{StateStore: "memory", StateTTL: "10m"},
		Paths: config.PathsConfig{Backups: filepath.Join(dir, "backups"), BackupRetentionDays: 14},
	}

	db, err := models.Open(cfg)
	require.NoError(t, err)
	require.NoError(t, models.Migrate(db))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db, cfg
}

// setupTestRouter creates a test router with routes
func setupTestRouter(t *testing.T, db *gorm.DB, cfg *config.Config) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	require.NoError(t, SetupRoutes(r, Deps{Config: cfg, DB: db, Log: zerolog.Nop()}))
	return r
}

// createTestToken creates a user with role and signs a session for it
func createTestToken(t *testing.T, db *gorm.DB, cfg *config.Config, email string, role models.Role) (string, *models.User) {
	t.Helper()
	auth := services.NewAuthService(db, cfg)
	user, err := auth.CreateUser(context.Background(), email, "password123", "Test "+string(role), role)
	require.NoError(t, err)

	token, _, err := auth.IssueSession(context.Background(), user.ID, services.SessionMeta{IPAddress: "127.0.0.1"})
	require.NoError(t, err)
	return token, user
}

func get(r *gin.Engine, path string, cookie *http.Cookie) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(http.MethodGet, path, nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSessionGateRoutes(t *testing.T) {
	db, cfg := setupTestDB(t)
	router := setupTestRouter(t, db, cfg)
	token, _ := createTestToken(t, db, cfg, "user@example.com", models.RoleUser)
	cookie := &http.Cookie{Name: cfg.Security.Cookie.Name, Value: token}

	t.Run("protected page without session redirects to sign in", func(t *testing.T) {
		w := get(router, "/dashboard/profile", nil)

		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/auth", w.Header().Get("Location"))
	})

	t.Run("sign in page with session redirects to dashboard", func(t *testing.T) {
		w := get(router, "/auth", cookie)

		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/dashboard", w.Header().Get("Location"))
	})

	t.Run("sign in page without session renders", func(t *testing.T) {
		w := get(router, "/auth", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `action="/auth/signin"`)
	})

	t.Run("garbage token fails closed", func(t *testing.T) {
		w := get(router, "/dashboard", &http.Cookie{Name: cfg.Security.Cookie.Name, Value: "not-a-token"})

		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/auth", w.Header().Get("Location"))
	})

	t.Run("valid session opens the dashboard", func(t *testing.T) {
		w := get(router, "/dashboard", cookie)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Welcome back, Test user")
		assert.NotContains(t, w.Body.String(), "User Management")
	})

	t.Run("root sends signed out visitors to sign in", func(t *testing.T) {
		w := get(router, "/", nil)

		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/auth", w.Header().Get("Location"))
	})
}

func TestAdminScreens(t *testing.T) {
	db, cfg := setupTestDB(t)
	router := setupTestRouter(t, db, cfg)
	adminToken, _ := createTestToken(t, db, cfg, "admin@example.com", models.RoleSuperAdmin)
	userToken, _ := createTestToken(t, db, cfg, "user@example.com", models.RoleUser)
	adminCookie := &http.Cookie{Name: cfg.Security.Cookie.Name, Value: adminToken}
	userCookie := &http.Cookie{Name: cfg.Security.Cookie.Name, Value: userToken}

	screens := []string{
		"/dashboard/admin/users",
		"/dashboard/admin/audit",
		"/dashboard/admin/analytics",
		"/dashboard/admin/themes",
		"/dashboard/admin/notifications",
		"/dashboard/admin/system",
	}

	for _, path := range screens {
		t.Run("superadmin opens "+path, func(t *testing.T) {
			w := get(router, path, adminCookie)

			assert.Equal(t, http.StatusOK, w.Code)
			assert.NotContains(t, w.Body.String(), "Access Denied")
		})

		t.Run("user is denied "+path, func(t *testing.T) {
			w := get(router, path, userCookie)

			assert.Equal(t, http.StatusForbidden, w.Code)
			assert.Contains(t, w.Body.String(), "Access Denied")
		})
	}

	t.Run("users screen lists emails", func(t *testing.T) {
		w := get(router, "/dashboard/admin/users", adminCookie)
		assert.Contains(t, w.Body.String(), "user@example.com")
	})

	t.Run("user cannot change roles through the form", func(t *testing.T) {
		var target models.User
		require.NoError(t, db.Where("email = ?", "user@example.com").First(&target).Error)

		form := url.Values{"role": {"superadmin"}}
		req, _ := http.NewRequest(http.MethodPost, "/dashboard/admin/users/"+target.ID+"/role", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.AddCookie(userCookie)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)

		var profile models.Profile
		require.NoError(t, db.Where("id = ?", target.ID).First(&profile).Error)
		assert.Equal(t, models.RoleUser, profile.Role)
	})

	t.Run("superadmin changes a role through the form", func(t *testing.T) {
		var target models.User
		require.NoError(t, db.Where("email = ?", "user@example.com").First(&target).Error)

		form := url.Values{"role": {"staff"}}
		req, _ := http.NewRequest(http.MethodPost, "/dashboard/admin/users/"+target.ID+"/role", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.AddCookie(adminCookie)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, "/dashboard/admin/users", w.Header().Get("Location"))

		var profile models.Profile
		require.NoError(t, db.Where("id = ?", target.ID).First(&profile).Error)
		assert.Equal(t, models.RoleStaff, profile.Role)
	})

	t.Run("profile backend failure renders access denied", func(t *testing.T) {
		require.NoError(t, db.Migrator().DropTable(&models.Profile{}))

		w := get(router, "/dashboard/admin/users", adminCookie)

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Contains(t, w.Body.String(), "Access Denied")
	})
}

func TestWebSignIn(t *testing.T) {
	db, cfg := setupTestDB(t)
	router := setupTestRouter(t, db, cfg)
	_, _ = createTestToken(t, db, cfg, "admin@example.com", models.RoleSuperAdmin)

	post := func(email, password string) *httptest.ResponseRecorder {
		form := url.Values{"email": {email}, "password": {password}}
		req, _ := http.NewRequest(http.MethodPost, "/auth/signin", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	findCookie := func(w *httptest.ResponseRecorder, name string) *http.Cookie {
		for _, c := range w.Result().Cookies() {
			if c.Name == name {
				return c
			}
		}
		return nil
	}

	t.Run("valid credentials set the session cookie", func(t *testing.T) {
		w := post("admin@example.com", "password123")

		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, "/dashboard", w.Header().Get("Location"))

		session := findCookie(w, cfg.Security.Cookie.Name)
		require.NotNil(t, session)
		assert.True(t, session.HttpOnly)
		assert.Equal(t, http.SameSiteLaxMode, session.SameSite)

		page := get(router, "/dashboard/admin/users", session)
		assert.Equal(t, http.StatusOK, page.Code)
	})

	t.Run("wrong password flashes an error", func(t *testing.T) {
		w := post("admin@example.com", "wrong")

		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, "/auth", w.Header().Get("Location"))
		assert.Nil(t, findCookie(w, cfg.Security.Cookie.Name))

		flash := findCookie(w, "dash_flash")
		require.NotNil(t, flash)

		page := get(router, "/auth", flash)
		assert.Contains(t, page.Body.String(), "Invalid credentials")
	})

	t.Run("sign out ends the session", func(t *testing.T) {
		session := findCookie(post("admin@example.com", "password123"), cfg.Security.Cookie.Name)
		require.NotNil(t, session)

		req, _ := http.NewRequest(http.MethodPost, "/auth/signout", nil)
		req.AddCookie(session)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusSeeOther, w.Code)

		page := get(router, "/dashboard", session)
		assert.Equal(t, http.StatusFound, page.Code)
		assert.Equal(t, "/auth", page.Header().Get("Location"))
	})
}

func TestAPIRoutes(t *testing.T) {
	db, cfg := setupTestDB(t)
	router := setupTestRouter(t, db, cfg)
	adminToken, _ := createTestToken(t, db, cfg, "admin@example.com", models.RoleSuperAdmin)
	userToken, _ := createTestToken(t, db, cfg, "user@example.com", models.RoleUser)

	do := func(method, path, token string, body any) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		if body != nil {
			json.NewEncoder(&buf).Encode(body)
		}
		req, _ := http.NewRequest(method, path, &buf)
		req.Header.Set("Content-Type", "application/json")
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	t.Run("GET /api/health", func(t *testing.T) {
		w := do(http.MethodGet, "/api/health", "", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"status":"ok"`)
	})

	t.Run("GET /api/metrics", func(t *testing.T) {
		do(http.MethodGet, "/dashboard", "", nil)
		w := do(http.MethodGet, "/api/metrics", "", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "dashboard_session_gate_outcomes_total")
	})

	t.Run("POST /api/auth/login - Success", func(t *testing.T) {
		w := do(http.MethodPost, "/api/auth/login", "", map[string]string{
			"email":    "ADMIN@example.com",
			"password": "password123",
		})
		assert.Equal(t, http.StatusOK, w.Code)

		var response map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.NotEmpty(t, response["token"])

		me := do(http.MethodGet, "/api/me", response["token"].(string), nil)
		assert.Equal(t, http.StatusOK, me.Code)
		assert.Contains(t, me.Body.String(), "User Management")
	})

	t.Run("POST /api/auth/login - Wrong password", func(t *testing.T) {
		w := do(http.MethodPost, "/api/auth/login", "", map[string]string{
			"email":    "admin@example.com",
			"password": "nope",
		})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("POST /api/auth/login - Invalid body", func(t *testing.T) {
		w := do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "not-an-email"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("GET /api/me - Unauthorized (no token)", func(t *testing.T) {
		w := do(http.MethodGet, "/api/me", "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("GET /api/admin/users - Success with superadmin", func(t *testing.T) {
		w := do(http.MethodGet, "/api/admin/users", adminToken, nil)
		assert.Equal(t, http.StatusOK, w.Code)

		var response map[string][]map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Len(t, response["users"], 2)
	})

	t.Run("GET /api/admin/users - Forbidden for user", func(t *testing.T) {
		w := do(http.MethodGet, "/api/admin/users", userToken, nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("PUT /api/admin/settings/themes/:category - Validation", func(t *testing.T) {
		w := do(http.MethodPut, "/api/admin/settings/themes/admin", adminToken, map[string]string{"color": "purple"})
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w = do(http.MethodPut, "/api/admin/settings/themes/admin", adminToken, map[string]string{"color": "gold"})
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("POST /api/admin/operations/:kind", func(t *testing.T) {
		w := do(http.MethodPost, "/api/admin/operations/purge-sessions", adminToken, nil)
		assert.Equal(t, http.StatusOK, w.Code)

		w = do(http.MethodPost, "/api/admin/operations/self-destruct", adminToken, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w = do(http.MethodPost, "/api/admin/operations/rls-update", adminToken, nil)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("DELETE /api/admin/backups/:name - Missing backup", func(t *testing.T) {
		w := do(http.MethodDelete, "/api/admin/backups/dashboard_gone.db.gz", adminToken, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)

		w = do(http.MethodDelete, "/api/admin/backups/.hidden", adminToken, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown API route", func(t *testing.T) {
		w := do(http.MethodGet, "/api/nope", "", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
