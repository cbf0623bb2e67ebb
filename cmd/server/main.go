/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the asset depreciation engine server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration from environment (envconfig)
  2. Apply command-line overrides
  3. Initialize SQLite store
  4. Create API handler and router
  5. Start the year-end scheduler
  6. Start server with graceful shutdown

ENVIRONMENT:
  APP_ADDR             Listen address (default: :8080)
  DB_PATH              SQLite database path (default: assets.db)
  LOG_FORMAT           "json" or "text" (default: text)
  SCHEDULER_ENABLED    Post year-end depreciation automatically (default: true)
  SCHEDULER_INTERVAL   How often the scheduler checks (default: 1h)
  POST_RATE_LIMIT      Manual posts per minute per IP (default: 10)
  CORS_ORIGINS         Comma-separated allowed origins

COMMAND-LINE FLAGS:
  -addr    Overrides APP_ADDR
  -db      Overrides DB_PATH; use ":memory:" for an in-memory database

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the scheduler (cancels a posting in flight; its run is still recorded)
  2. Stop accepting new connections
  3. Wait for active requests to complete (30s timeout)
  4. Close database connection

SEE ALSO:
  - config/config.go: Environment configuration
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/warp/asset-engine/api"
	"github.com/warp/asset-engine/config"
	"github.com/warp/asset-engine/store/sqlite"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	// Flags
	addr := flag.String("addr", cfg.AppAddr, "HTTP listen address")
	dbPath := flag.String("db", cfg.DBPath, "SQLite database path")
	flag.Parse()

	logger := config.NewLogger(cfg)
	slog.SetDefault(logger)

	// Initialize store
	store, err := sqlite.New(*dbPath)
	if err != nil {
		logger.Error("initialize database", slog.String("path", *dbPath), slog.Any("error", err))
		os.Exit(1)
	}
	defer store.Close()

	handler := api.NewHandler(store, logger)
	router := api.NewRouter(handler, api.RouterOptions{
		AllowedOrigins: cfg.CORSOrigins,
		PostRateLimit:  cfg.PostRateLimit,
	})

	scheduler := api.NewYearEndScheduler(handler.Poster, logger)
	scheduler.CheckInterval = cfg.SchedulerInterval
	scheduler.Enabled = cfg.SchedulerEnabled
	scheduler.Start()

	server := &http.Server{
		Addr:         *addr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("server starting", slog.String("addr", *addr), slog.String("db", *dbPath))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	scheduler.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", slog.Any("error", err))
	}

	logger.Info("server stopped")
}
