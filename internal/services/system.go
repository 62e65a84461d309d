package services

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/holycodess/AppDashboard/internal/config"

	"gorm.io/gorm"
)

type SystemStats struct {
	Uptime     string           `json:"uptime"`
	StartedAt  time.Time        `json:"started_at"`
	GoVersion  string           `json:"go_version"`
	Goroutines int              `json:"goroutines"`
	CPUCores   int              `json:"cpu_cores"`
	Memory     MemoryStats      `json:"memory"`
	Database   DatabaseStats    `json:"database"`
	Settings   []config.Setting `json:"settings"`
}

type MemoryStats struct {
	HeapAlloc uint64 `json:"heap_alloc"`
	HeapSys   uint64 `json:"heap_sys"`
	Sys       uint64 `json:"sys"`
	NumGC     uint32 `json:"num_gc"`
}

type DatabaseStats struct {
	Dialect         string `json:"dialect"`
	Status          string `json:"status"` // up, down
	Error           string `json:"error,omitempty"`
	OpenConnections int    `json:"open_connections"`
	InUse           int    `json:"in_use"`
	Idle            int    `json:"idle"`
	WaitCount       int64  `json:"wait_count"`
}

type SystemService struct {
	db        *gorm.DB
	cfg       *config.Config
	startedAt time.Time
}

func NewSystemService(db *gorm.DB, cfg *config.Config) *SystemService {
	return &SystemService{db: db, cfg: cfg, startedAt: time.Now()}
}

// GetStats returns current process and database statistics
func (s *SystemService) GetStats(ctx context.Context) *SystemStats {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	return &SystemStats{
		Uptime:     formatUptime(time.Since(s.startedAt)),
		StartedAt:  s.startedAt,
		GoVersion:  runtime.Version(),
		Goroutines: runtime.NumGoroutine(),
		CPUCores:   runtime.NumCPU(),
		Memory: MemoryStats{
			HeapAlloc: mem.HeapAlloc,
			HeapSys:   mem.HeapSys,
			Sys:       mem.Sys,
			NumGC:     mem.NumGC,
		},
		Database: s.databaseStats(ctx),
		Settings: s.cfg.Sanitized(),
	}
}

func (s *SystemService) databaseStats(ctx context.Context) DatabaseStats {
	stats := DatabaseStats{Dialect: s.db.Dialector.Name(), Status: "down"}

	sqlDB, err := s.db.DB()
	if err != nil {
		stats.Error = err.Error()
		return stats
	}

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		stats.Error = err.Error()
	} else {
		stats.Status = "up"
	}

	pool := sqlDB.Stats()
	stats.OpenConnections = pool.OpenConnections
	stats.InUse = pool.InUse
	stats.Idle = pool.Idle
	stats.WaitCount = pool.WaitCount
	return stats
}

// Ping reports whether the database answers.
func (s *SystemService) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func formatUptime(uptime time.Duration) string {
	days := int(uptime.Hours()) / 24
	hours := int(uptime.Hours()) % 24
	minutes := int(uptime.Minutes()) % 60

	return fmt.Sprintf("%dd %dh %dm", days, hours, minutes)
}
