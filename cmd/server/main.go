package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/plugdex/plugdex/internal/api"
	"github.com/plugdex/plugdex/internal/cache"
	"github.com/plugdex/plugdex/internal/config"
	"github.com/plugdex/plugdex/internal/database"
	"github.com/plugdex/plugdex/internal/github"
	"github.com/plugdex/plugdex/internal/indexer"
	"github.com/plugdex/plugdex/internal/parser"
)

func main() {
	// Load configuration
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize structured logger
	logger := initLogger(cfg.Logging)
	logger.Info("Starting plugdex indexer",
		"version", "1.0.0",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
	)

	// Initialize database connection
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.Connect(ctx, cfg.Database.GetDSN())
	if err != nil {
		log.Fatalf("DB init failed: %v", err)
	}
	defer db.Close()

	// Run embedded migrations (compiled into the binary)
	if err := database.RunMigrations(cfg.Database.GetDSN()); err != nil {
		log.Fatalf("Migrations failed: %v", err)
	}

	// Initialize manifest cache
	store, err := cache.New(cfg.Cache.Directory, logger)
	if err != nil {
		log.Fatalf("Failed to initialize cache: %v", err)
	}

	// Initialize GitHub client
	ghClient, err := github.NewClient(cfg.GitHub.Token, logger)
	if err != nil {
		log.Fatalf("Failed to initialize GitHub client: %v", err)
	}

	// Initialize database updater
	updater := database.NewUpdater(database.New(db), logger)

	// Initialize indexing pipeline
	retryPolicy := github.DefaultRetryPolicy()
	if cfg.GitHub.RetryAttempts > 0 {
		retryPolicy.MaxAttempts = cfg.GitHub.RetryAttempts
	}
	if cfg.GitHub.RetryBaseWaitMS > 0 {
		retryPolicy.BaseDelay = cfg.GitHub.GetRetryBaseWait()
	}

	var legacy indexer.LegacyParser
	if cfg.Indexer.LegacyFallback {
		legacy = parser.NewHeuristic(ghClient, logger)
		logger.Info("Legacy markdown fallback enabled")
	}

	ix := indexer.New(ghClient, updater, store, legacy, logger, indexer.Options{
		Query:          cfg.GitHub.SearchQuery,
		PageSize:       cfg.GitHub.PageSize,
		Cooldown:       cfg.Indexer.GetCooldown(),
		Retry:          retryPolicy,
		LegacyFallback: cfg.Indexer.LegacyFallback,
	})

	// Start the periodic scheduler
	scheduler := indexer.NewScheduler(ix, cfg.Indexer.GetSchedule(), logger)
	go scheduler.Run(ctx)

	// Create API router
	handler := api.NewHandler(ix, updater, ghClient, db)
	router := api.NewRouter(cfg, handler, logger)

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.GetReadTimeout(),
		WriteTimeout: cfg.Server.GetWriteTimeout(),
	}

	// Start server in goroutine
	go func() {
		logger.Info("HTTP server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Cancel the main context to stop the scheduler
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	logger.Info("Server stopped gracefully")
}

func initLogger(cfg config.LoggingConfig) *slog.Logger {
	var handler slog.Handler

	// Set log level
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	// Set format
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
