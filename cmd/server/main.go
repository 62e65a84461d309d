package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/holycodess/AppDashboard/internal/api/routes"
	"github.com/holycodess/AppDashboard/internal/config"
	"github.com/holycodess/AppDashboard/internal/logger"
	"github.com/holycodess/AppDashboard/internal/models"
	"github.com/holycodess/AppDashboard/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.Init(logger.Options{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty})

	// Initialize database
	db, err := models.Open(cfg)
	if err != nil {
		log.Fatal().Err(err).Str("type", cfg.Database.Type).Msg("failed to open database")
	}
	if err := models.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
	}

	states, err := stateStore(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up oauth state store")
	}

	// Create default user if database is empty
	authService := services.NewAuthService(db, cfg)
	if err := authService.CreateDefaultUser(context.Background()); err != nil {
		log.Warn().Err(err).Msg("failed to create default user")
	}

	// Set Gin mode
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())

	if err := routes.SetupRoutes(r, routes.Deps{Config: cfg, DB: db, Log: log, States: states}); err != nil {
		log.Fatal().Err(err).Msg("failed to set up routes")
	}

	// Run server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Info().Str("addr", addr).Str("mode", cfg.Server.Mode).Msg("starting dashboard server")
	if err := r.Run(addr); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

// stateStore picks where OAuth states live. Redis lets several instances share them.
func stateStore(cfg *config.Config, log zerolog.Logger) (services.StateStore, error) {
	if cfg.OAuth.StateStore != "redis" {
		return services.NewMemoryStateStore(), nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis %s: %w", cfg.Redis.Addr, err)
	}

	log.Info().Str("addr", cfg.Redis.Addr).Msg("oauth states stored in redis")
	return services.NewRedisStateStore(client), nil
}
