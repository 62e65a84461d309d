package services

import (
	"context"
	"strings"

	"github.com/holycodess/AppDashboard/internal/models"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type ProfileService struct {
	db    *gorm.DB
	audit *AuditService
}

func NewProfileService(db *gorm.DB) *ProfileService {
	return &ProfileService{db: db, audit: NewAuditService(db)}
}

// FindProfile returns (nil, nil) when the profile does not exist.
func (s *ProfileService) FindProfile(ctx context.Context, id string) (*models.Profile, error) {
	var profile models.Profile
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to load profile")
	}
	return &profile, nil
}

func (s *ProfileService) GetProfile(ctx context.Context, id string) (*models.Profile, error) {
	profile, err := s.FindProfile(ctx, id)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, ErrProfileNotFound
	}
	return profile, nil
}

// ProfileWithEmail is a profile row joined with its identity's email for listings.
type ProfileWithEmail struct {
	models.Profile
	Email string `json:"email"`
}

// ListProfiles returns every profile, newest first
func (s *ProfileService) ListProfiles(ctx context.Context) ([]ProfileWithEmail, error) {
	var rows []ProfileWithEmail
	if err := s.db.WithContext(ctx).
		Model(&models.Profile{}).
		Select("profiles.*, users.email AS email").
		Joins("LEFT JOIN users ON users.id = profiles.id").
		Order("profiles.created_at desc").
		Scan(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list profiles")
	}
	return rows, nil
}

// UpdateFullName changes the display name of the caller's own profile.
func (s *ProfileService) UpdateFullName(ctx context.Context, id, fullName string) (*models.Profile, error) {
	fullName = strings.TrimSpace(fullName)
	return s.update(ctx, id, id, func(p *models.Profile) (string, any, any) {
		var old any
		if p.FullName != nil {
			old = *p.FullName
		}
		return "full_name", old, fullName
	}, map[string]any{"full_name": strPtr(fullName)})
}

// UpdateRole sets another profile's role. Actors cannot change their own role.
func (s *ProfileService) UpdateRole(ctx context.Context, actorID, targetID string, role models.Role) (*models.Profile, error) {
	if !role.Valid() {
		return nil, ErrInvalidRole
	}
	if actorID == targetID {
		return nil, ErrSelfRoleChange
	}
	return s.update(ctx, actorID, targetID, func(p *models.Profile) (string, any, any) {
		return "role", string(p.Role), string(role)
	}, map[string]any{"role": role})
}

// UpdateType sets a profile's descriptive type. It has no effect on access.
func (s *ProfileService) UpdateType(ctx context.Context, actorID, targetID string, profileType models.ProfileType) (*models.Profile, error) {
	if !profileType.Valid() {
		return nil, ErrInvalidType
	}
	return s.update(ctx, actorID, targetID, func(p *models.Profile) (string, any, any) {
		return "type", string(p.Type), string(profileType)
	}, map[string]any{"type": profileType})
}

type diffFunc func(current *models.Profile) (field string, oldValue, newValue any)

func (s *ProfileService) update(ctx context.Context, actorID, targetID string, diff diffFunc, changes map[string]any) (*models.Profile, error) {
	var profile models.Profile
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", targetID).First(&profile).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProfileNotFound
			}
			return err
		}

		field, oldValue, newValue := diff(&profile)

		if err := tx.Model(&profile).Updates(changes).Error; err != nil {
			return err
		}

		return s.audit.Record(ctx, tx, &models.AuditLog{
			UserID:    strPtr(actorID),
			Action:    "update",
			Table:     "profiles",
			RecordID:  &profile.ID,
			OldValues: models.JSON{field: oldValue},
			NewValues: models.JSON{field: newValue},
		})
	})
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, errors.Wrap(err, "failed to update profile")
	}

	return s.GetProfile(ctx, targetID)
}
