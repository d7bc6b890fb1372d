package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"ytwatch/internal/api/handlers"
	"ytwatch/internal/api/middleware"
	"ytwatch/internal/config"
	"ytwatch/internal/controllers"
	"ytwatch/internal/stores"
)

// Server represents the HTTP server
type Server struct {
	server   *http.Server
	catalog  *controllers.CatalogController
	sessions *controllers.SessionManager
	progress *stores.ProgressStore
	history  *stores.HistoryStore
	logger   *logrus.Logger
}

// NewServer creates a new HTTP server
func NewServer(cfg *config.Config, catalog *controllers.CatalogController, sessions *controllers.SessionManager, progress *stores.ProgressStore, history *stores.HistoryStore, logger *logrus.Logger) *Server {
	s := &Server{
		catalog:  catalog,
		sessions: sessions,
		progress: progress,
		history:  history,
		logger:   logger,
	}

	router := chi.NewRouter()
	s.setupRoutes(router)

	s.server = &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      middleware.Logging(router, logger),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes(router chi.Router) {
	healthHandler := handlers.NewHealthHandler(s.logger)
	router.Get("/health", healthHandler.ServeHTTP)

	statusHandler := handlers.NewStatusHandler(s.progress, s.history, s.sessions, s.logger)
	router.Get("/status", statusHandler.ServeHTTP)

	pageHandler := handlers.NewPageHandler(s.history, s.logger)
	router.Get("/", pageHandler.Home)
	router.Get("/watch", pageHandler.Watch)

	playlistHandler := handlers.NewPlaylistHandler(s.catalog, s.logger)
	historyHandler := handlers.NewHistoryHandler(s.history, s.logger)
	progressHandler := handlers.NewProgressHandler(s.progress, s.logger)
	sessionHandler := handlers.NewSessionHandler(s.catalog, s.sessions, s.progress, s.logger)

	router.Route("/api", func(r chi.Router) {
		r.Post("/playlists", playlistHandler.Load)
		r.Get("/playlists/{id}", playlistHandler.Get)

		r.Get("/history", historyHandler.List)

		r.Get("/progress", progressHandler.List)
		r.Get("/progress/{videoID}", progressHandler.Get)
		r.Post("/progress/{videoID}/completed", progressHandler.SetCompleted)

		r.Post("/sessions", sessionHandler.Create)
		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Get("/", sessionHandler.Get)
			r.Delete("/", sessionHandler.Delete)
			r.Post("/events", sessionHandler.Events)
			r.Post("/heartbeat", sessionHandler.Heartbeat)
			r.Post("/select", sessionHandler.Select)
			r.Post("/navigate", sessionHandler.Navigate)
		})
	})
}

// Start starts the HTTP server
func (s *Server) Start(ctx context.Context) error {
	s.logger.WithField("port", s.server.Addr).Info("Starting HTTP server")

	errChan := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		return s.Shutdown(context.Background())
	}
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.server.Shutdown(shutdownCtx)
}
