package handlers

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"ytwatch/internal/controllers"
	"ytwatch/internal/stores"
)

// StatusHandler handles status requests
type StatusHandler struct {
	progress *stores.ProgressStore
	history  *stores.HistoryStore
	sessions *controllers.SessionManager
	logger   *logrus.Logger
}

// NewStatusHandler creates a new status handler
func NewStatusHandler(progress *stores.ProgressStore, history *stores.HistoryStore, sessions *controllers.SessionManager, logger *logrus.Logger) *StatusHandler {
	return &StatusHandler{
		progress: progress,
		history:  history,
		sessions: sessions,
		logger:   logger,
	}
}

// StatusResponse represents the status response
type StatusResponse struct {
	TrackedVideos   int `json:"tracked_videos"`
	CompletedVideos int `json:"completed_videos"`
	HistoryEntries  int `json:"history_entries"`
	LiveSessions    int `json:"live_sessions"`
}

// ServeHTTP handles the status endpoint
func (h *StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	response := StatusResponse{
		TrackedVideos:   h.progress.Count(),
		CompletedVideos: h.progress.CompletedCount(),
		HistoryEntries:  h.history.Len(),
		LiveSessions:    h.sessions.Count(),
	}

	respondJSON(w, http.StatusOK, response)
}
