package services

import (
	"context"
	"testing"

	"github.com/holycodess/AppDashboard/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingsService_Themes(t *testing.T) {
	db, _ := setupTestDB(t)
	settings := NewSettingsService(db)
	ctx := context.Background()

	themes, err := settings.Themes(ctx)
	require.NoError(t, err)
	require.Len(t, themes, 4)
	for _, th := range themes {
		assert.Equal(t, "blue", th.Color)
		assert.Equal(t, "geist-sans", th.Font)
		assert.Equal(t, "#2563eb", th.Primary)
	}

	saved, err := settings.SaveTheme(ctx, "admin-id", "vendor", "gold", "inter")
	require.NoError(t, err)
	assert.Equal(t, "#d97706", saved.Primary)
	assert.Equal(t, "#f59e0b", saved.Secondary)

	// second save goes through the upsert path
	_, err = settings.SaveTheme(ctx, "admin-id", "vendor", "red", "")
	require.NoError(t, err)

	themes, err = settings.Themes(ctx)
	require.NoError(t, err)
	assert.Equal(t, "vendor", themes[2].Category)
	assert.Equal(t, "red", themes[2].Color)
	assert.Equal(t, "geist-sans", themes[2].Font)
	assert.Equal(t, "blue", themes[0].Color)

	var entries []models.AuditLog
	require.NoError(t, db.Where("table_name = ?", "system_settings").Order("created_at asc").Find(&entries).Error)
	require.Len(t, entries, 2)
	assert.Nil(t, entries[0].OldValues)
	assert.Equal(t, "gold", entries[1].OldValues["color"])
	assert.Equal(t, "red", entries[1].NewValues["color"])

	t.Run("validation", func(t *testing.T) {
		_, err := settings.SaveTheme(ctx, "a", "guest", "blue", "inter")
		assert.ErrorIs(t, err, ErrInvalidTheme)
		_, err = settings.SaveTheme(ctx, "a", "admin", "purple", "inter")
		assert.ErrorIs(t, err, ErrInvalidTheme)
		_, err = settings.SaveTheme(ctx, "a", "admin", "blue", "comic-sans")
		assert.ErrorIs(t, err, ErrInvalidTheme)
	})
}

func TestSettingsService_NotificationSettings(t *testing.T) {
	db, _ := setupTestDB(t)
	settings := NewSettingsService(db)
	ctx := context.Background()

	got, err := settings.NotificationSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, DefaultNotificationSettings(), got)
	assert.False(t, got.SMS)

	want := NotificationSettings{Email: false, Push: true, SMS: true, WeeklyReports: false, SecurityAlerts: true}
	require.NoError(t, settings.SaveNotificationSettings(ctx, "admin-id", want))

	got, err = settings.NotificationSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
