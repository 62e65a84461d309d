package services

import (
	"context"
	"testing"

	"github.com/holycodess/AppDashboard/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationService(t *testing.T) {
	db, cfg := setupTestDB(t)
	auth := NewAuthService(db, cfg)
	notes := NewNotificationService(db)
	ctx := context.Background()

	admin := createTestUser(t, auth, "admin@example.com", models.RoleSuperAdmin)
	staff := createTestUser(t, auth, "staff@example.com", models.RoleStaff)
	user := createTestUser(t, auth, "user@example.com", models.RoleUser)

	t.Run("validation", func(t *testing.T) {
		_, err := notes.Broadcast(ctx, admin.ID, "everyone", "t", "m")
		assert.ErrorIs(t, err, ErrInvalidAudience)
		_, err = notes.Broadcast(ctx, admin.ID, "all", "  ", "m")
		assert.ErrorIs(t, err, ErrInvalidBroadcast)
	})

	t.Run("broadcast to all", func(t *testing.T) {
		b, err := notes.Broadcast(ctx, admin.ID, "all", " Maintenance ", "Tonight at 10")
		require.NoError(t, err)
		assert.Equal(t, 3, b.Recipients)
		assert.Equal(t, "Maintenance", b.Title)
	})

	t.Run("broadcast to one role", func(t *testing.T) {
		b, err := notes.Broadcast(ctx, admin.ID, "staff", "Staff meeting", "Monday")
		require.NoError(t, err)
		assert.Equal(t, 1, b.Recipients)

		list, err := notes.ForUser(ctx, user.ID, 0)
		require.NoError(t, err)
		assert.Len(t, list, 1)

		list, err = notes.ForUser(ctx, staff.ID, 0)
		require.NoError(t, err)
		assert.Len(t, list, 2)
	})

	t.Run("mark read", func(t *testing.T) {
		list, err := notes.ForUser(ctx, user.ID, 0)
		require.NoError(t, err)
		require.Len(t, list, 1)

		assert.ErrorIs(t, notes.MarkRead(ctx, staff.ID, list[0].ID), ErrNotificationNotFound)
		require.NoError(t, notes.MarkRead(ctx, user.ID, list[0].ID))
		require.NoError(t, notes.MarkRead(ctx, user.ID, list[0].ID))

		list, err = notes.ForUser(ctx, user.ID, 0)
		require.NoError(t, err)
		assert.NotNil(t, list[0].ReadAt)
	})

	t.Run("recent broadcasts", func(t *testing.T) {
		list, err := notes.RecentBroadcasts(ctx, 0)
		require.NoError(t, err)
		assert.Len(t, list, 2)
	})
}
