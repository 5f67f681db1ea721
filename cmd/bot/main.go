// Package main is the entry point for the SHI economy bot.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"shi-bot/internal/api"
	"shi-bot/internal/bot"
	"shi-bot/internal/config"
	"shi-bot/internal/pkg/db"
	"shi-bot/internal/pkg/lock"
	"shi-bot/internal/repository"
	"shi-bot/internal/scheduler"
	"shi-bot/internal/service"
)

func main() {
	// Configure zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// Load configuration
	cfg, err := config.Load("config")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		log.Warn().Str("level", cfg.Log.Level).Msg("Unknown log level, using info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	log.Info().Msg("Configuration loaded successfully")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database connection pool
	dbPool, err := db.NewPool(ctx, &cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer dbPool.Close()

	if err := db.Migrate(ctx, dbPool); err != nil {
		log.Fatal().Err(err).Msg("Failed to run database migrations")
	}

	store := repository.NewStore(dbPool.Pool)

	// Initialize services
	settingsService := service.NewSettingsService(store.Settings)
	if err := settingsService.Seed(ctx, cfg.Economy.SettingDefaults()); err != nil {
		log.Fatal().Err(err).Msg("Failed to seed settings")
	}

	catalogService := service.NewCatalogService(store.Catalog)
	if cfg.Economy.SeedSampleItems {
		if n, err := catalogService.SeedSampleItems(ctx); err != nil {
			log.Fatal().Err(err).Msg("Failed to seed sample items")
		} else if n > 0 {
			log.Info().Int("items", n).Msg("Sample items added")
		}
	}

	userLock := lock.NewUserLock()
	economyService := service.NewEconomyService(store, settingsService, userLock, nil, service.EconomyOptions{
		CoinsPerShi:   cfg.Economy.CoinsPerShi,
		ShiPerChunk:   cfg.Economy.ShiPerChunkDecimal(),
		DailyCooldown: time.Duration(cfg.Economy.DailyCooldownHours) * time.Hour,
	})
	activityService := service.NewActivityService(economyService, store, cfg.Economy.ReferralRewardDecimal())
	reportingService := service.NewReportingService(store, cfg.Economy.LeaderboardSize)
	sessions := service.NewSessionStore()

	telegramBot, err := bot.New(&bot.Dependencies{
		Config:    cfg,
		Settings:  settingsService,
		Economy:   economyService,
		Catalog:   catalogService,
		Activity:  activityService,
		Reporting: reportingService,
		Sessions:  sessions,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create bot")
	}

	jobs := scheduler.New(sessions, reportingService, cfg.Session.TTL, scheduler.Specs{
		SessionSweep: cfg.Scheduler.SessionSweep,
		StatsReport:  cfg.Scheduler.StatsReport,
	})
	if err := jobs.Start(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start scheduler")
	}

	var httpServer *api.Server
	if cfg.HTTP.Addr != "" {
		httpServer = api.NewServer(cfg.HTTP.Addr, dbPool, reportingService)
		httpServer.Start()
	}

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go telegramBot.Start()

	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")

	telegramBot.Stop()
	jobs.Stop()
	if httpServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 5*time.Second)
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("HTTP API shutdown failed")
		}
		shutdownCancel()
	}
	log.Info().Msg("Bot stopped gracefully")
}
