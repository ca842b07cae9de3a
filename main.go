package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"squad-markets/config"
	"squad-markets/internal/api"
	"squad-markets/internal/auth"
	"squad-markets/internal/cache"
	"squad-markets/internal/chat"
	"squad-markets/internal/database"
	"squad-markets/internal/events"
	"squad-markets/internal/leaderboard"
	"squad-markets/internal/logging"
	"squad-markets/internal/market"
	"squad-markets/internal/vault"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := logging.New(logging.Config{
		Level:      cfg.LoggingConfig.Level,
		JSONFormat: cfg.LoggingConfig.JSONFormat,
	})
	logger.Info().Msg("structured logging initialized")

	// Database
	db, err := database.NewDB(database.Config{
		Host:     cfg.DatabaseConfig.Host,
		Port:     cfg.DatabaseConfig.Port,
		User:     cfg.DatabaseConfig.User,
		Password: cfg.DatabaseConfig.Password,
		Database: cfg.DatabaseConfig.Database,
		SSLMode:  cfg.DatabaseConfig.SSLMode,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	migrateCtx, cancelMigrate := context.WithTimeout(context.Background(), 30*time.Second)
	if err := db.RunMigrations(migrateCtx); err != nil {
		cancelMigrate()
		logger.Fatal().Err(err).Msg("migrations failed")
	}
	cancelMigrate()
	logger.Info().Msg("database ready")

	repo := database.NewRepository(db)

	// Market data credential, from Vault when enabled
	vaultClient, err := vault.NewClient(cfg.VaultConfig)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize vault client")
	}

	keyCtx, cancelKey := context.WithTimeout(context.Background(), 10*time.Second)
	apiKey, err := vaultClient.MarketDataAPIKey(keyCtx, cfg.MarketDataConfig.APIKey)
	cancelKey()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to resolve market data API key")
	}

	marketClient := market.NewClient(cfg.MarketDataConfig.BaseURL, apiKey, cfg.MarketDataConfig.FetchTimeout)

	// Snapshot cache, optionally backed by Redis for multi-instance setups
	var remote leaderboard.RemoteStore
	if cfg.RedisConfig.Enabled {
		cacheService := cache.NewCacheService(cache.Config{
			Address:  cfg.RedisConfig.Address,
			Password: cfg.RedisConfig.Password,
			DB:       cfg.RedisConfig.DB,
			PoolSize: cfg.RedisConfig.PoolSize,
		}, logger)
		defer cacheService.Close()
		remote = cacheService
	}
	snapshotCache := leaderboard.NewSnapshotCache(cfg.SquadConfig.LeaderboardTTL, remote, logger)

	// Events and chat
	eventBus := events.NewEventBus()
	hub := chat.NewHub(logger)
	go hub.Run()

	// Core leaderboard service; the event bus doubles as the announcer
	leaderboardService := leaderboard.NewService(
		repo, repo, repo, marketClient, snapshotCache, eventBus, logger,
	)

	// Auth
	jwtManager := auth.NewJWTManager(cfg.AuthConfig.JWTSecret, cfg.AuthConfig.AccessTokenDuration)
	passwordManager := auth.NewPasswordManager(cfg.AuthConfig.BcryptCost, cfg.AuthConfig.MinPasswordLength)
	authService := auth.NewService(repo, jwtManager, passwordManager, logger)

	server := api.NewServer(
		cfg.ServerConfig,
		cfg.SquadConfig,
		repo,
		authService,
		jwtManager,
		leaderboardService,
		hub,
		eventBus,
		logger,
	)

	go func() {
		if err := server.Start(); err != nil {
			logger.Fatal().Err(err).Msg("server stopped")
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
}
