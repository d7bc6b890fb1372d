package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"ytwatch/internal/stores"
)

// ProgressHandler serves and mutates per-video watch progress.
type ProgressHandler struct {
	progress *stores.ProgressStore
	logger   *logrus.Logger
}

// NewProgressHandler creates a new progress handler
func NewProgressHandler(progress *stores.ProgressStore, logger *logrus.Logger) *ProgressHandler {
	return &ProgressHandler{progress: progress, logger: logger}
}

// List handles GET /api/progress
func (h *ProgressHandler) List(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.progress.All())
}

// Get handles GET /api/progress/{videoID}. Unknown videos yield a zeroed
// record, never an error.
func (h *ProgressHandler) Get(w http.ResponseWriter, r *http.Request) {
	videoID := chi.URLParam(r, "videoID")
	respondJSON(w, http.StatusOK, h.progress.Get(videoID))
}

// SetCompletedRequest is the manual completion toggle request body.
type SetCompletedRequest struct {
	Completed bool `json:"completed"`
}

// SetCompleted handles POST /api/progress/{videoID}/completed: the explicit
// user toggle, and the only way completion can go back to false.
func (h *ProgressHandler) SetCompleted(w http.ResponseWriter, r *http.Request) {
	videoID := chi.URLParam(r, "videoID")

	var req SetCompletedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	record, err := h.progress.SetCompleted(videoID, req.Completed)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to persist progress")
		return
	}

	respondJSON(w, http.StatusOK, record)
}
