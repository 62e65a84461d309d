package services

import (
	"context"
	"fmt"
	"time"

	"github.com/holycodess/AppDashboard/internal/models"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

const (
	growthMonths = 6
	loginBuckets = 6
)

type RoleCount struct {
	Role  models.Role `json:"role"`
	Count int64       `json:"count"`
}

type MonthCount struct {
	Month string `json:"month"` // 2006-01
	Count int64  `json:"count"`
}

type BucketCount struct {
	Label string `json:"label"` // 00:00, 04:00, ...
	Count int64  `json:"count"`
}

type Analytics struct {
	TotalUsers       int64         `json:"total_users"`
	NewThisWeek      int64         `json:"new_this_week"`
	ActiveToday      int64         `json:"active_today"`
	RoleDistribution []RoleCount   `json:"role_distribution"`
	UserGrowth       []MonthCount  `json:"user_growth"`
	LoginsToday      []BucketCount `json:"logins_today"`
}

type AnalyticsService struct {
	db *gorm.DB
}

func NewAnalyticsService(db *gorm.DB) *AnalyticsService {
	return &AnalyticsService{db: db}
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Summary computes the analytics screen figures as of now.
func (s *AnalyticsService) Summary(ctx context.Context, now time.Time) (*Analytics, error) {
	db := s.db.WithContext(ctx)
	out := &Analytics{}
	midnight := startOfDay(now)

	if err := db.Model(&models.Profile{}).Count(&out.TotalUsers).Error; err != nil {
		return nil, errors.Wrap(err, "failed to count users")
	}
	if err := db.Model(&models.Profile{}).Where("created_at >= ?", now.AddDate(0, 0, -7)).Count(&out.NewThisWeek).Error; err != nil {
		return nil, errors.Wrap(err, "failed to count new users")
	}
	if err := db.Model(&models.AuditLog{}).
		Where("action = ? AND created_at >= ? AND user_id IS NOT NULL", "login", midnight).
		Distinct("user_id").
		Count(&out.ActiveToday).Error; err != nil {
		return nil, errors.Wrap(err, "failed to count active users")
	}

	var grouped []RoleCount
	if err := db.Model(&models.Profile{}).
		Select("role, COUNT(*) AS count").
		Group("role").
		Scan(&grouped).Error; err != nil {
		return nil, errors.Wrap(err, "failed to count roles")
	}
	byRole := make(map[models.Role]int64, len(grouped))
	for _, g := range grouped {
		byRole[g.Role] = g.Count
	}
	for _, r := range models.Roles {
		out.RoleDistribution = append(out.RoleDistribution, RoleCount{Role: r, Count: byRole[r]})
	}

	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	for i := growthMonths - 1; i >= 0; i-- {
		from := monthStart.AddDate(0, -i, 0)
		to := from.AddDate(0, 1, 0)
		var n int64
		if err := db.Model(&models.Profile{}).
			Where("created_at >= ? AND created_at < ?", from, to).
			Count(&n).Error; err != nil {
			return nil, errors.Wrap(err, "failed to count user growth")
		}
		out.UserGrowth = append(out.UserGrowth, MonthCount{Month: from.Format("2006-01"), Count: n})
	}

	var logins []time.Time
	if err := db.Model(&models.AuditLog{}).
		Where("action = ? AND created_at >= ?", "login", midnight).
		Pluck("created_at", &logins).Error; err != nil {
		return nil, errors.Wrap(err, "failed to load logins")
	}
	out.LoginsToday = bucketLogins(logins, midnight)

	return out, nil
}

// bucketLogins counts logins in six 4-hour windows starting at midnight.
func bucketLogins(logins []time.Time, midnight time.Time) []BucketCount {
	width := 24 / loginBuckets
	buckets := make([]BucketCount, loginBuckets)
	for i := range buckets {
		buckets[i].Label = fmt.Sprintf("%02d:00", i*width)
	}
	y, m, d := midnight.Date()
	for _, t := range logins {
		t = t.In(midnight.Location())
		if t.Before(midnight) {
			continue
		}
		if ty, tm, td := t.Date(); ty != y || tm != m || td != d {
			continue
		}
		// wall clock hour, so 25 and 23 hour days still fill six buckets
		buckets[t.Hour()/width].Count++
	}
	return buckets
}
