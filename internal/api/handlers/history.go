package handlers

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"ytwatch/internal/stores"
)

// HistoryHandler serves the recently viewed playlists list.
type HistoryHandler struct {
	history *stores.HistoryStore
	logger  *logrus.Logger
}

// NewHistoryHandler creates a new history handler
func NewHistoryHandler(history *stores.HistoryStore, logger *logrus.Logger) *HistoryHandler {
	return &HistoryHandler{history: history, logger: logger}
}

// List handles GET /api/history
func (h *HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.history.List())
}
