package services

import (
	"context"
	"strings"
	"time"

	"github.com/holycodess/AppDashboard/internal/models"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

const AudienceAll = "all"

// Audiences are the broadcast targets: everyone or one role.
var Audiences = []string{AudienceAll, string(models.RoleSuperAdmin), string(models.RoleStaff), string(models.RoleVendor), string(models.RoleUser)}

type NotificationService struct {
	db    *gorm.DB
	audit *AuditService
}

func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{db: db, audit: NewAuditService(db)}
}

// Broadcast sends one notification to every profile in the audience.
func (s *NotificationService) Broadcast(ctx context.Context, actorID, audience, title, message string) (*models.Broadcast, error) {
	if !contains(Audiences, audience) {
		return nil, ErrInvalidAudience
	}
	title = strings.TrimSpace(title)
	message = strings.TrimSpace(message)
	if title == "" || message == "" {
		return nil, ErrInvalidBroadcast
	}

	broadcast := &models.Broadcast{
		Title:    title,
		Message:  message,
		Audience: audience,
		SentBy:   actorID,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var recipients []string
		q := tx.Model(&models.Profile{})
		if audience != AudienceAll {
			q = q.Where("role = ?", audience)
		}
		if err := q.Pluck("id", &recipients).Error; err != nil {
			return err
		}

		broadcast.Recipients = len(recipients)
		if err := tx.Create(broadcast).Error; err != nil {
			return err
		}

		if len(recipients) > 0 {
			notifications := make([]models.Notification, 0, len(recipients))
			for _, id := range recipients {
				notifications = append(notifications, models.Notification{
					BroadcastID: broadcast.ID,
					UserID:      id,
					Title:       title,
					Message:     message,
				})
			}
			if err := tx.CreateInBatches(notifications, 100).Error; err != nil {
				return err
			}
		}

		return s.audit.Record(ctx, tx, &models.AuditLog{
			UserID:    strPtr(actorID),
			Action:    "create",
			Table:     "broadcasts",
			RecordID:  &broadcast.ID,
			NewValues: models.JSON{"audience": audience, "title": title, "recipients": broadcast.Recipients},
		})
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to send broadcast")
	}

	return broadcast, nil
}

func (s *NotificationService) RecentBroadcasts(ctx context.Context, limit int) ([]models.Broadcast, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var broadcasts []models.Broadcast
	if err := s.db.WithContext(ctx).Order("created_at desc").Limit(limit).Find(&broadcasts).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list broadcasts")
	}
	return broadcasts, nil
}

// ForUser returns the user's notifications, newest first.
func (s *NotificationService) ForUser(ctx context.Context, userID string, limit int) ([]models.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	var notifications []models.Notification
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Limit(limit).
		Find(&notifications).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list notifications")
	}
	return notifications, nil
}

// MarkRead marks one of the user's notifications as read. Marking twice keeps the first time.
func (s *NotificationService) MarkRead(ctx context.Context, userID, id string) error {
	var n models.Notification
	if err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&n).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotificationNotFound
		}
		return errors.Wrap(err, "failed to load notification")
	}
	if n.ReadAt != nil {
		return nil
	}
	if err := s.db.WithContext(ctx).Model(&n).Update("read_at", time.Now()).Error; err != nil {
		return errors.Wrap(err, "failed to mark notification read")
	}
	return nil
}
