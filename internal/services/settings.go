package services

import (
	"context"
	"encoding/json"

	"github.com/holycodess/AppDashboard/internal/models"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ThemeColor struct {
	Name      string `json:"name"`
	Primary   string `json:"primary"`
	Secondary string `json:"secondary"`
}

var ThemeColors = []ThemeColor{
	{Name: "black", Primary: "#000000", Secondary: "#1f1f1f"},
	{Name: "green", Primary: "#16a34a", Secondary: "#22c55e"},
	{Name: "red", Primary: "#dc2626", Secondary: "#ef4444"},
	{Name: "blue", Primary: "#2563eb", Secondary: "#3b82f6"},
	{Name: "gold", Primary: "#d97706", Secondary: "#f59e0b"},
}

var ThemeFonts = []string{"geist-sans", "inter", "roboto", "open-sans"}

// ThemeCategories are the audiences a theme can be set for.
var ThemeCategories = []string{"admin", "staff", "vendor", "user"}

const (
	defaultThemeColor = "blue"
	defaultThemeFont  = "geist-sans"

	notificationSettingsKey = "notification_settings"
)

type Theme struct {
	Category  string `json:"category"`
	Color     string `json:"color"`
	Font      string `json:"font"`
	Primary   string `json:"primary"`
	Secondary string `json:"secondary"`
}

type NotificationSettings struct {
	Email          bool `json:"email_notifications"`
	Push           bool `json:"push_notifications"`
	SMS            bool `json:"sms_notifications"`
	WeeklyReports  bool `json:"weekly_reports"`
	SecurityAlerts bool `json:"security_alerts"`
}

func DefaultNotificationSettings() NotificationSettings {
	return NotificationSettings{
		Email:          true,
		Push:           true,
		SMS:            false,
		WeeklyReports:  true,
		SecurityAlerts: true,
	}
}

type SettingsService struct {
	db    *gorm.DB
	audit *AuditService
}

func NewSettingsService(db *gorm.DB) *SettingsService {
	return &SettingsService{db: db, audit: NewAuditService(db)}
}

func themeKey(category string) string {
	return "theme_" + category
}

func findColor(name string) (ThemeColor, bool) {
	for _, c := range ThemeColors {
		if c.Name == name {
			return c, true
		}
	}
	return ThemeColor{}, false
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func newTheme(category, color, font string) Theme {
	c, ok := findColor(color)
	if !ok {
		c, _ = findColor(defaultThemeColor)
	}
	if !contains(ThemeFonts, font) {
		font = defaultThemeFont
	}
	return Theme{Category: category, Color: c.Name, Font: font, Primary: c.Primary, Secondary: c.Secondary}
}

// Themes returns the theme of every category, falling back to the default.
func (s *SettingsService) Themes(ctx context.Context) ([]Theme, error) {
	keys := make([]string, 0, len(ThemeCategories))
	for _, c := range ThemeCategories {
		keys = append(keys, themeKey(c))
	}

	var rows []models.SystemSetting
	if err := s.db.WithContext(ctx).Where("setting_key IN ?", keys).Find(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "failed to load themes")
	}
	stored := make(map[string]models.JSON, len(rows))
	for _, r := range rows {
		stored[r.Key] = r.Value
	}

	themes := make([]Theme, 0, len(ThemeCategories))
	for _, c := range ThemeCategories {
		v := stored[themeKey(c)]
		color, _ := v["color"].(string)
		font, _ := v["font"].(string)
		themes = append(themes, newTheme(c, color, font))
	}
	return themes, nil
}

// SaveTheme validates and stores the theme of one category.
func (s *SettingsService) SaveTheme(ctx context.Context, actorID, category, color, font string) (Theme, error) {
	if !contains(ThemeCategories, category) {
		return Theme{}, errors.Wrapf(ErrInvalidTheme, "unknown category %q", category)
	}
	if _, ok := findColor(color); !ok {
		return Theme{}, errors.Wrapf(ErrInvalidTheme, "unknown color %q", color)
	}
	if font == "" {
		font = defaultThemeFont
	}
	if !contains(ThemeFonts, font) {
		return Theme{}, errors.Wrapf(ErrInvalidTheme, "unknown font %q", font)
	}

	if err := s.put(ctx, actorID, themeKey(category), models.JSON{"color": color, "font": font}); err != nil {
		return Theme{}, err
	}
	return newTheme(category, color, font), nil
}

func (s *SettingsService) NotificationSettings(ctx context.Context) (NotificationSettings, error) {
	settings := DefaultNotificationSettings()

	var row models.SystemSetting
	err := s.db.WithContext(ctx).Where("setting_key = ?", notificationSettingsKey).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return settings, nil
	}
	if err != nil {
		return settings, errors.Wrap(err, "failed to load notification settings")
	}

	if err := fromJSON(row.Value, &settings); err != nil {
		return DefaultNotificationSettings(), errors.Wrap(err, "failed to decode notification settings")
	}
	return settings, nil
}

func (s *SettingsService) SaveNotificationSettings(ctx context.Context, actorID string, settings NotificationSettings) error {
	value, err := toJSON(settings)
	if err != nil {
		return errors.Wrap(err, "failed to encode notification settings")
	}
	return s.put(ctx, actorID, notificationSettingsKey, value)
}

// put upserts one setting and audits the change in the same transaction.
func (s *SettingsService) put(ctx context.Context, actorID, key string, value models.JSON) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var previous models.SystemSetting
		err := tx.Where("setting_key = ?", key).First(&previous).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		setting := &models.SystemSetting{Key: key, Value: value, UpdatedBy: strPtr(actorID)}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "setting_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_by", "updated_at"}),
		}).Create(setting).Error; err != nil {
			return err
		}

		return s.audit.Record(ctx, tx, &models.AuditLog{
			UserID:    strPtr(actorID),
			Action:    "update",
			Table:     "system_settings",
			RecordID:  &key,
			OldValues: previous.Value,
			NewValues: value,
		})
	})
	if err != nil {
		return errors.Wrapf(err, "failed to save setting %s", key)
	}
	return nil
}

func toJSON(v any) (models.JSON, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out models.JSON
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func fromJSON(j models.JSON, v any) error {
	b, err := json.Marshal(j)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}
