package services

import (
	"context"

	"github.com/holycodess/AppDashboard/internal/models"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

const maxAuditEntries = 100

type AuditService struct {
	db *gorm.DB
}

func NewAuditService(db *gorm.DB) *AuditService {
	return &AuditService{db: db}
}

// Record writes entry through tx when given, so it commits with the change it describes.
func (s *AuditService) Record(ctx context.Context, tx *gorm.DB, entry *models.AuditLog) error {
	if tx == nil {
		tx = s.db
	}
	if err := tx.WithContext(ctx).Create(entry).Error; err != nil {
		return errors.Wrap(err, "failed to write audit log")
	}
	return nil
}

// Recent returns the newest entries first. limit is clamped to 1..100.
func (s *AuditService) Recent(ctx context.Context, limit int) ([]models.AuditLog, error) {
	if limit <= 0 || limit > maxAuditEntries {
		limit = maxAuditEntries
	}

	var entries []models.AuditLog
	if err := s.db.WithContext(ctx).
		Order("created_at desc").
		Limit(limit).
		Find(&entries).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list audit logs")
	}
	return entries, nil
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
