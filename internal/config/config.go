package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

// DefaultJWTSecret is used when no secret is configured. The security audit flags it.
const DefaultJWTSecret = "app-dashboard-default-secret-change-in-production"

type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Database    DatabaseConfig    `yaml:"database"`
	JWT         JWTConfig         `yaml:"jwt"`
	Security    SecurityConfig    `yaml:"security"`
	OAuth       OAuthConfig       `yaml:"oauth"`
	Redis       RedisConfig       `yaml:"redis"`
	Paths       PathsConfig       `yaml:"paths"`
	DefaultUser DefaultUserConfig `yaml:"default_user"`
	Log         LogConfig         `yaml:"log"`
}

type ServerConfig struct {
	Host    string `yaml:"host" env:"DASH_HOST, overwrite"`
	Port    int    `yaml:"port" env:"DASH_PORT, overwrite"`
	Mode    string `yaml:"mode" env:"DASH_MODE, overwrite"`
	BaseURL string `yaml:"base_url" env:"DASH_BASE_URL, overwrite"`
}

type DatabaseConfig struct {
	Type     string         `yaml:"type" env:"DASH_DB_TYPE, overwrite"`
	SQLite   SQLiteConfig   `yaml:"sqlite"`
	MySQL    MySQLConfig    `yaml:"mysql"`
	Postgres PostgresConfig `yaml:"postgres"`
}

type SQLiteConfig struct {
	Path string `yaml:"path" env:"DASH_DB_PATH, overwrite"`
}

type MySQLConfig struct {
	Host     string `yaml:"host" env:"DASH_MYSQL_HOST, overwrite"`
	Port     int    `yaml:"port" env:"DASH_MYSQL_PORT, overwrite"`
	Username string `yaml:"username" env:"DASH_MYSQL_USER, overwrite"`
	Password string `yaml:"password" env:"DASH_MYSQL_PASSWORD, overwrite"`
	Database string `yaml:"database" env:"DASH_MYSQL_DATABASE, overwrite"`
	Charset  string `yaml:"charset"`
}

type PostgresConfig struct {
	DSN string `yaml:"dsn" env:"DASH_POSTGRES_DSN, overwrite"`
}

type JWTConfig struct {
	Secret    string `yaml:"secret" env:"DASH_JWT_SECRET, overwrite"`
	ExpiresIn string `yaml:"expires_in"`
	Issuer    string `yaml:"issuer"`
	// KeyGrace is how long a rotated signing key keeps verifying sessions.
	KeyGrace string `yaml:"key_grace"`
}

type SecurityConfig struct {
	BcryptCost int             `yaml:"bcrypt_cost"`
	RateLimit  RateLimitConfig `yaml:"rate_limit"`
	Cookie     CookieConfig    `yaml:"cookie"`
}

type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled" env:"DASH_RATE_LIMIT_ENABLED, overwrite"`
	RequestsPerMinute int  `yaml:"requests_per_minute"`
	Burst             int  `yaml:"burst"`
}

type CookieConfig struct {
	Name   string `yaml:"name"`
	Secure bool   `yaml:"secure" env:"DASH_COOKIE_SECURE, overwrite"`
}

type OAuthConfig struct {
	StateStore string         `yaml:"state_store" env:"DASH_OAUTH_STATE_STORE, overwrite"`
	StateTTL   string         `yaml:"state_ttl"`
	Google     ProviderConfig `yaml:"google"`
	Facebook   ProviderConfig `yaml:"facebook"`
}

// ProviderConfig holds the client credentials of one social login provider.
// The URL fields override the provider's well-known endpoints.
type ProviderConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	RedirectURL  string `yaml:"redirect_url"`
	AuthURL      string `yaml:"auth_url"`
	TokenURL     string `yaml:"token_url"`
	UserInfoURL  string `yaml:"userinfo_url"`
}

func (p ProviderConfig) Enabled() bool {
	return p.ClientID != "" && p.ClientSecret != ""
}

type RedisConfig struct {
	Addr     string `yaml:"addr" env:"DASH_REDIS_ADDR, overwrite"`
	Password string `yaml:"password" env:"DASH_REDIS_PASSWORD, overwrite"`
	DB       int    `yaml:"db"`
}

type PathsConfig struct {
	Backups             string `yaml:"backups" env:"DASH_BACKUPS_PATH, overwrite"`
	BackupRetentionDays int    `yaml:"backup_retention_days"`
}

type DefaultUserConfig struct {
	Email    string `yaml:"email" env:"DASH_DEFAULT_EMAIL, overwrite"`
	Password string `yaml:"password" env:"DASH_DEFAULT_PASSWORD, overwrite"`
	FullName string `yaml:"full_name"`
}

type LogConfig struct {
	Level  string `yaml:"level" env:"DASH_LOG_LEVEL, overwrite"`
	Pretty bool   `yaml:"pretty" env:"DASH_LOG_PRETTY, overwrite"`
}

// Load reads the configuration file and environment variables
func Load(configPath string) (*Config, error) {
	return LoadWithLookuper(configPath, envconfig.OsLookuper())
}

// LoadWithLookuper is Load with an explicit environment source.
func LoadWithLookuper(configPath string, lookuper envconfig.Lookuper) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := envconfig.ProcessWith(context.Background(), &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Ensure data directory exists for SQLite
	if cfg.Database.Type == "sqlite" {
		dataDir := filepath.Dir(cfg.Database.SQLite.Path)
		if err := os.MkdirAll(dataDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	// Ensure backups directory exists
	if err := os.MkdirAll(cfg.Paths.Backups, 0755); err != nil {
		return nil, fmt.Errorf("failed to create backups directory: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.Mode == "" {
		c.Server.Mode = "release"
	}
	if c.Server.BaseURL == "" {
		c.Server.BaseURL = fmt.Sprintf("http://localhost:%d", c.Server.Port)
	}
	c.Server.BaseURL = strings.TrimRight(c.Server.BaseURL, "/")
	if c.Database.Type == "" {
		c.Database.Type = "sqlite"
	}
	if c.Database.SQLite.Path == "" {
		c.Database.SQLite.Path = "./data/dashboard.db"
	}
	if c.Database.MySQL.Port == 0 {
		c.Database.MySQL.Port = 3306
	}
	if c.Database.MySQL.Charset == "" {
		c.Database.MySQL.Charset = "utf8mb4"
	}
	if c.JWT.Secret == "" {
		c.JWT.Secret = DefaultJWTSecret
	}
	if c.JWT.ExpiresIn == "" {
		c.JWT.ExpiresIn = "24h"
	}
	if c.JWT.Issuer == "" {
		c.JWT.Issuer = "app-dashboard"
	}
	if c.JWT.KeyGrace == "" {
		c.JWT.KeyGrace = c.JWT.ExpiresIn
	}
	if c.Security.BcryptCost == 0 {
		c.Security.BcryptCost = bcrypt.DefaultCost
	}
	if c.Security.RateLimit.RequestsPerMinute == 0 {
		c.Security.RateLimit.RequestsPerMinute = 30
	}
	if c.Security.RateLimit.Burst == 0 {
		c.Security.RateLimit.Burst = 5
	}
	if c.Security.Cookie.Name == "" {
		c.Security.Cookie.Name = "dash_session"
	}
	if c.OAuth.StateStore == "" {
		c.OAuth.StateStore = "memory"
	}
	if c.OAuth.StateTTL == "" {
		c.OAuth.StateTTL = "10m"
	}
	if c.Paths.Backups == "" {
		c.Paths.Backups = "./data/backups"
	}
	if c.Paths.BackupRetentionDays == 0 {
		c.Paths.BackupRetentionDays = 14
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// Validate checks the settings that cannot be defaulted.
func (c *Config) Validate() error {
	switch c.Database.Type {
	case "sqlite":
	case "mysql":
		if c.Database.MySQL.Username == "" {
			return fmt.Errorf("MySQL username is required")
		}
		if c.Database.MySQL.Database == "" {
			return fmt.Errorf("MySQL database name is required")
		}
	case "postgres":
		if c.Database.Postgres.DSN == "" {
			return fmt.Errorf("Postgres DSN is required")
		}
	default:
		return fmt.Errorf("unsupported database type: %s", c.Database.Type)
	}

	if c.Security.BcryptCost < bcrypt.MinCost || c.Security.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("bcrypt cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}

	switch c.OAuth.StateStore {
	case "memory":
	case "redis":
		if c.Redis.Addr == "" {
			return fmt.Errorf("redis address is required for the redis state store")
		}
	default:
		return fmt.Errorf("unsupported oauth state store: %s", c.OAuth.StateStore)
	}

	for name, value := range map[string]string{
		"jwt.expires_in":  c.JWT.ExpiresIn,
		"jwt.key_grace":   c.JWT.KeyGrace,
		"oauth.state_ttl": c.OAuth.StateTTL,
	} {
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid duration for %s: %w", name, err)
		}
	}

	return nil
}

// SessionTTL returns the lifetime of an issued session.
func (j JWTConfig) SessionTTL() time.Duration {
	d, err := time.ParseDuration(j.ExpiresIn)
	if err != nil || d <= 0 {
		return 24 * time.Hour
	}
	return d
}

// Grace returns how long a retired signing key is still accepted.
func (j JWTConfig) Grace() time.Duration {
	d, err := time.ParseDuration(j.KeyGrace)
	if err != nil || d < 0 {
		return j.SessionTTL()
	}
	return d
}

func (o OAuthConfig) TTL() time.Duration {
	d, err := time.ParseDuration(o.StateTTL)
	if err != nil || d <= 0 {
		return 10 * time.Minute
	}
	return d
}

// Setting is one configuration entry as shown on the system screen.
type Setting struct {
	Key         string `json:"key"`
	Value       string `json:"value"`
	Description string `json:"description"`
}

const hidden = "***hidden***"

// Sanitized lists the connection settings with secrets masked.
func (c *Config) Sanitized() []Setting {
	mask := func(v string) string {
		if v == "" {
			return ""
		}
		return hidden
	}

	settings := []Setting{
		{Key: "DASH_MODE", Value: c.Server.Mode, Description: "Server mode"},
		{Key: "DASH_BASE_URL", Value: c.Server.BaseURL, Description: "Public base URL"},
		{Key: "DASH_DB_TYPE", Value: c.Database.Type, Description: "Database driver"},
	}

	switch c.Database.Type {
	case "sqlite":
		settings = append(settings, Setting{Key: "DASH_DB_PATH", Value: c.Database.SQLite.Path, Description: "SQLite database file"})
	case "mysql":
		settings = append(settings,
			Setting{Key: "DASH_MYSQL_HOST", Value: c.Database.MySQL.Host, Description: "MySQL host"},
			Setting{Key: "DASH_MYSQL_USER", Value: c.Database.MySQL.Username, Description: "MySQL user"},
			Setting{Key: "DASH_MYSQL_PASSWORD", Value: mask(c.Database.MySQL.Password), Description: "MySQL password"},
		)
	case "postgres":
		settings = append(settings, Setting{Key: "DASH_POSTGRES_DSN", Value: mask(c.Database.Postgres.DSN), Description: "Postgres connection string"})
	}

	settings = append(settings,
		Setting{Key: "DASH_JWT_SECRET", Value: mask(c.JWT.Secret), Description: "Session signing secret"},
		Setting{Key: "DASH_OAUTH_STATE_STORE", Value: c.OAuth.StateStore, Description: "OAuth state store"},
		Setting{Key: "GOOGLE_CLIENT_SECRET", Value: mask(c.OAuth.Google.ClientSecret), Description: "Google OAuth client secret"},
		Setting{Key: "FACEBOOK_CLIENT_SECRET", Value: mask(c.OAuth.Facebook.ClientSecret), Description: "Facebook OAuth client secret"},
	)
	return settings
}
