package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dom/phim-stream/internal/api"
	"github.com/dom/phim-stream/internal/cache"
	"github.com/dom/phim-stream/internal/config"
	"github.com/dom/phim-stream/internal/logging"
	"github.com/dom/phim-stream/internal/metrics"
	"github.com/dom/phim-stream/internal/repository"
	"github.com/dom/phim-stream/internal/repository/memory"
	"github.com/dom/phim-stream/internal/repository/postgres"
	"github.com/dom/phim-stream/internal/service"
	"gorm.io/gorm/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	log := logging.Setup("phim-stream", cfg.LogFormat, cfg.LogLevel, os.Stdout)
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	// Initialize credential store
	repos, err := openRepositories(cfg)
	if err != nil {
		return err
	}
	log.Info("credential store ready", "driver", cfg.StoreDriver)

	// Catalog cache is optional
	var catalogCache service.CatalogCache
	var cachePinger api.Pinger
	if cfg.RedisURL != "" {
		rdb, err := cache.NewRedis(cfg.RedisURL, "phim-stream:")
		if err != nil {
			return err
		}
		defer rdb.Close()
		catalogCache = rdb
		cachePinger = rdb
		log.Info("catalog cache enabled", "ttl", cfg.CatalogCacheTTL)
	}

	m := metrics.New()

	// Initialize services
	services, err := service.NewServices(repos, cfg, m, catalogCache, log)
	if err != nil {
		return err
	}

	// Initialize router
	router := api.NewRouter(services, m, cfg, cachePinger, log)

	srv := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", "port", cfg.Port, "environment", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	log.Info("shutting down server")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return err
	}

	log.Info("server stopped")
	return nil
}

func openRepositories(cfg *config.Config) (*repository.Repositories, error) {
	if cfg.StoreDriver == config.StoreDriverMemory {
		return memory.NewRepositories(), nil
	}

	logLevel := logger.Silent
	if cfg.IsDevelopment() {
		logLevel = logger.Warn
	}

	db, err := postgres.NewConnection(cfg.DatabaseURL, logLevel)
	if err != nil {
		return nil, err
	}
	return postgres.NewRepositories(db), nil
}
