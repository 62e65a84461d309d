package services

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/holycodess/AppDashboard/internal/config"
	"github.com/holycodess/AppDashboard/internal/models"

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
			Cookie:     config.CookieConfig{Name: "dash_session", Secure: true},
		},
		OAuth: config.OAuthConfig{StateStore: "memory", StateTTL: "10m"},
		Paths: config.PathsConfig{Backups: filepath.Join(dir, "backups"), BackupRetentionDays: 14},
		DefaultUser: config.DefaultUserConfig{
			Email:    "admin@example.com",
			Password: "admin123",
			FullName: "Administrator",
		},
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

// createTestUser creates an email identity with the given role
func createTestUser(t *testing.T, auth *AuthService, email string, role models.Role) *models.User {
	t.Helper()
	user, err := auth.CreateUser(context.Background(), email, "password123", "Test "+string(role), role)
	require.NoError(t, err)
	return user
}
