package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/terra-clan/skillpath-engine/internal/api"
	"github.com/terra-clan/skillpath-engine/internal/cache"
	"github.com/terra-clan/skillpath-engine/internal/catalog"
	"github.com/terra-clan/skillpath-engine/internal/cleanup"
	"github.com/terra-clan/skillpath-engine/internal/config"
	"github.com/terra-clan/skillpath-engine/internal/playground"
	"github.com/terra-clan/skillpath-engine/internal/progress"
	"github.com/terra-clan/skillpath-engine/internal/services"
	"github.com/terra-clan/skillpath-engine/internal/storage"
)

func main() {
	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	slog.Info("starting skillpath-engine",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
	)

	// Create context for initialization
	initCtx, initCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer initCancel()

	// Run database migrations
	slog.Info("running database migrations", "dir", cfg.Database.MigrationsDir)
	if err := storage.MigrateFromDSN(initCtx, cfg.Database.DSN, cfg.Database.MigrationsDir); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Initialize database repository
	repo, err := storage.NewPostgresRepository(initCtx, storage.PostgresConfig{
		DSN:          cfg.Database.DSN,
		MaxOpenConns: int32(cfg.Database.MaxOpenConns),
		MaxIdleConns: int32(cfg.Database.MaxIdleConns),
	})
	if err != nil {
		slog.Error("failed to create database repository", "error", err)
		os.Exit(1)
	}
	slog.Info("database connected successfully")

	// Initialize catalog store and seed it
	catalogStore := catalog.NewStore(repo)
	seedPaths, err := catalog.LoadSeedDir(cfg.Catalog.SeedDir)
	if err != nil {
		slog.Warn("failed to load catalog seed dir", "dir", cfg.Catalog.SeedDir, "error", err)
	}
	if err := catalogStore.Seed(initCtx, seedPaths); err != nil {
		slog.Error("failed to seed catalog", "error", err)
		os.Exit(1)
	}

	// Progress summary cache (optional; the service degrades gracefully
	// without it)
	var progressCache *cache.ProgressCache
	if cfg.Redis.Enabled {
		progressCache, err = cache.NewProgressCache(cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB, 10*time.Minute)
		if err != nil {
			slog.Warn("redis unavailable, progress cache disabled", "error", err)
			progressCache = nil
		}
	}

	// Initialize service registry for playground backing services
	registry := services.NewRegistry()

	postgresProvider, err := services.NewPostgresProvider(cfg.Database.DSN)
	if err != nil {
		slog.Error("failed to create postgres provider", "error", err)
		os.Exit(1)
	}
	registry.Register("postgres", postgresProvider)

	redisProvider, err := services.NewRedisProvider(cfg.Redis.Address, cfg.Redis.Password)
	if err != nil {
		slog.Error("failed to create redis provider", "error", err)
		os.Exit(1)
	}
	registry.Register("redis", redisProvider)

	// Initialize playground runner
	runner, err := playground.NewDockerRunner(cfg.Playground, registry, catalogStore, repo)
	if err != nil {
		slog.Error("failed to create playground runner", "error", err)
		os.Exit(1)
	}

	// Progress service
	progressSvc := progress.NewService(repo, catalogStore, progressCache)

	// Initialize cleanup worker
	cleaner := cleanup.New(runner, repo, catalogStore, cfg.Cleanup.Interval)
	cleaner.Start()

	// Setup HTTP server
	server := api.NewServer(cfg.Server, catalogStore, progressSvc, runner, repo)
	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      server.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		slog.Info("HTTP server starting", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down gracefully...")

	// Stop background workers
	cleaner.Stop()

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	// Close playground runner (releases the Docker client)
	if err := runner.Close(); err != nil {
		slog.Error("runner close error", "error", err)
	}

	if progressCache != nil {
		if err := progressCache.Close(); err != nil {
			slog.Error("cache close error", "error", err)
		}
	}

	if err := repo.Close(); err != nil {
		slog.Error("repository close error", "error", err)
	}

	slog.Info("skillpath-engine stopped")
}
