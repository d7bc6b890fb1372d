package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"ytwatch/internal/api"
	"ytwatch/internal/config"
	"ytwatch/internal/controllers"
	"ytwatch/internal/models"
	"ytwatch/internal/scheduler"
	"ytwatch/internal/services/youtube"
	"ytwatch/internal/stores"
	"ytwatch/internal/utils"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// 2. Setup logger
	logger := utils.NewLogger(cfg.LogLevel)
	logger.Info("Starting ytwatch")
	logger.WithField("config_dir", filepath.Dir(cfg.DatabaseFile)).Info("Configuration loaded")

	// 3. Initialize database
	db, err := models.NewDatabase(cfg.DatabaseFile)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()
	logger.Info("Database initialized")

	// 4. Initialize stores
	progressStore := stores.NewProgressStore(db, logger)
	historyStore := stores.NewHistoryStore(db, logger)
	logger.Info("Stores initialized")

	// 5. Initialize YouTube client
	ytClient, err := youtube.NewClient(context.Background(), cfg.YouTubeAPIKey, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize YouTube client: %w", err)
	}
	logger.Info("YouTube client initialized")

	// 6. Initialize controllers
	catalogCtrl := controllers.NewCatalogController(ytClient, historyStore, logger)
	sessionTimeout := time.Duration(cfg.SessionTimeoutMinutes) * time.Minute
	sessions := controllers.NewSessionManager(progressStore, sessionTimeout, logger)
	defer sessions.CloseAll()
	logger.Info("Controllers initialized")

	// 7. Initialize scheduler
	sched := scheduler.NewScheduler(sessions, logger)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer sched.Stop()

	// 8. Initialize HTTP server
	server := api.NewServer(cfg, catalogCtrl, sessions, progressStore, historyStore, logger)

	// Start server in goroutine
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	serverErrChan := make(chan error, 1)
	go func() {
		if err := server.Start(ctx); err != nil {
			serverErrChan <- err
		}
	}()

	// 9. Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	logger.Info("ytwatch is running")

	select {
	case err := <-serverErrChan:
		return fmt.Errorf("server error: %w", err)
	case sig := <-sigChan:
		logger.WithField("signal", sig).Info("Received shutdown signal")
		cancel()
		if err := server.Shutdown(context.Background()); err != nil {
			logger.WithError(err).Error("Error during server shutdown")
		}
	}

	logger.Info("ytwatch stopped")
	return nil
}
