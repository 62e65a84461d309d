package web

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/holycodess/AppDashboard/internal/access"
	"github.com/holycodess/AppDashboard/internal/api/middleware"
	"github.com/holycodess/AppDashboard/internal/config"
	"github.com/holycodess/AppDashboard/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubFetcher struct {
	profile *models.Profile
	err     error
}

func (f stubFetcher) FindProfile(ctx context.Context, id string) (*models.Profile, error) {
	return f.profile, f.err
}

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestEngine(t *testing.T, fetcher access.ProfileFetcher, session *models.Session) (*gin.Engine, *bool) {
	t.Helper()

	tmpl, err := Templates()
	require.NoError(t, err)

	gate := access.NewRoleGate(fetcher, models.RoleSuperAdmin, zerolog.Nop())
	h := NewHandler(&config.Config{}, Services{}, gate, zerolog.Nop())

	rendered := false
	r := gin.New()
	r.SetHTMLTemplate(tmpl)
	r.Use(func(c *gin.Context) {
		if session != nil {
			c.Set(middleware.ContextSession, session)
		}
		c.Next()
	})
	r.GET("/dashboard/admin/users", h.admin("User Management", func(c *gin.Context, page pageData) {
		rendered = true
		page.Data = gin.H{"Users": nil, "Roles": models.Roles, "Types": models.ProfileTypes}
		c.HTML(http.StatusOK, "users.html", page)
	}))
	return r, &rendered
}

func TestAdminWrapper(t *testing.T) {
	session := &models.Session{ID: "s1", UserID: "u1", ExpiresAt: time.Now().Add(time.Hour)}

	t.Run("superadmin sees the screen", func(t *testing.T) {
		name := "Ada"
		r, rendered := newTestEngine(t, stubFetcher{profile: &models.Profile{ID: "u1", FullName: &name, Role: models.RoleSuperAdmin}}, session)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/dashboard/admin/users", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.True(t, *rendered)
		assert.Contains(t, w.Body.String(), "User Management")
		assert.Contains(t, w.Body.String(), "Audit Logs")
		assert.NotContains(t, w.Body.String(), "Access Denied")
	})

	t.Run("user role is denied", func(t *testing.T) {
		r, rendered := newTestEngine(t, stubFetcher{profile: &models.Profile{ID: "u1", Role: models.RoleUser}}, session)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/dashboard/admin/users", nil))

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.False(t, *rendered)
		assert.Contains(t, w.Body.String(), "Access Denied")
		assert.NotContains(t, w.Body.String(), "/dashboard/admin/audit")
	})

	t.Run("missing profile is denied", func(t *testing.T) {
		r, rendered := newTestEngine(t, stubFetcher{}, session)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/dashboard/admin/users", nil))

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.False(t, *rendered)
		assert.Contains(t, w.Body.String(), "Access Denied")
	})

	t.Run("fetch error renders the same denial", func(t *testing.T) {
		r, rendered := newTestEngine(t, stubFetcher{err: errors.New("connection refused")}, session)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/dashboard/admin/users", nil))

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.False(t, *rendered)
		assert.Contains(t, w.Body.String(), "Access Denied")
	})

	t.Run("cancelled request renders nothing", func(t *testing.T) {
		r, rendered := newTestEngine(t, stubFetcher{profile: &models.Profile{ID: "u1", Role: models.RoleSuperAdmin}}, session)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/dashboard/admin/users", nil).WithContext(ctx))

		assert.False(t, *rendered)
		assert.Empty(t, w.Body.String())
	})

	t.Run("no session goes to sign in", func(t *testing.T) {
		r, rendered := newTestEngine(t, stubFetcher{}, nil)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/dashboard/admin/users", nil))

		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, access.SignInPath, w.Header().Get("Location"))
		assert.False(t, *rendered)
	})
}

func newFlashEngine(secure bool, got **Flash) *gin.Engine {
	cfg := &config.Config{}
	cfg.Security.Cookie.Secure = secure
	h := NewHandler(cfg, Services{}, nil, zerolog.Nop())

	r := gin.New()
	r.GET("/set", func(c *gin.Context) {
		h.setFlash(c, "error", c.Query("msg"))
		c.Status(http.StatusNoContent)
	})
	r.GET("/get", func(c *gin.Context) {
		*got = h.popFlash(c)
		c.Status(http.StatusNoContent)
	})
	return r
}

func TestFlash(t *testing.T) {
	var got *Flash
	r := newFlashEngine(false, &got)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/set?msg="+url.QueryEscape("Invalid credentials | try again"), nil))
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, flashCookie, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
	assert.False(t, cookies[0].Secure)

	req := httptest.NewRequest(http.MethodGet, "/get", nil)
	req.AddCookie(cookies[0])
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.NotNil(t, got)
	assert.Equal(t, "error", got.Kind)
	assert.Equal(t, "Invalid credentials | try again", got.Message)

	cleared := w.Result().Cookies()
	require.Len(t, cleared, 1)
	assert.True(t, cleared[0].MaxAge < 0)

	t.Run("absent cookie", func(t *testing.T) {
		got = &Flash{}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/get", nil))
		assert.Nil(t, got)
	})

	t.Run("secure cookie config marks the flash secure", func(t *testing.T) {
		var got *Flash
		r := newFlashEngine(true, &got)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/set?msg=Saved", nil))
		cookies := w.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.True(t, cookies[0].Secure)

		req := httptest.NewRequest(http.MethodGet, "/get", nil)
		req.AddCookie(cookies[0])
		w = httptest.NewRecorder()
		r.ServeHTTP(w, req)
		cleared := w.Result().Cookies()
		require.Len(t, cleared, 1)
		assert.True(t, cleared[0].Secure)
	})

	t.Run("long command output stays small", func(t *testing.T) {
		var got *Flash
		r := newFlashEngine(false, &got)
		msg := "Operation failed: exit status 2\n" + strings.Repeat("pg_dump: error: connection refused\n", 200)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/set?msg="+url.QueryEscape(msg), nil))
		cookies := w.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Less(t, len(cookies[0].Value), 1024)

		req := httptest.NewRequest(http.MethodGet, "/get", nil)
		req.AddCookie(cookies[0])
		r.ServeHTTP(httptest.NewRecorder(), req)
		require.NotNil(t, got)
		assert.Equal(t, "Operation failed: exit status 2", got.Message)
	})
}

func TestFlashText(t *testing.T) {
	assert.Equal(t, "Saved", flashText("  Saved \n"))
	assert.Equal(t, "first", flashText("first\nsecond"))

	long := flashText(strings.Repeat("é", 500))
	assert.Equal(t, maxFlashRunes, len([]rune(long)))
	assert.True(t, strings.HasSuffix(long, "…"))
}

func TestTemplatesParse(t *testing.T) {
	tmpl, err := Templates()
	require.NoError(t, err)

	for _, name := range []string{
		"signin.html", "dashboard.html", "profile.html", "denied.html", "users.html", "audit.html",
		"analytics.html", "themes.html", "notifications.html", "system.html", "notfound.html",
	} {
		assert.NotNil(t, tmpl.Lookup(name), name)
	}

	var b strings.Builder
	require.NoError(t, tmpl.ExecuteTemplate(&b, "denied.html", pageData{Title: "Access Denied"}))
	assert.Contains(t, b.String(), "Access Denied")
}
