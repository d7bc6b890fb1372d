package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"ytwatch/internal/controllers"
	"ytwatch/internal/models"
	"ytwatch/internal/stores"
	"ytwatch/internal/utils"
)

// SessionHandler manages player sessions: one per open watch page. The
// browser reports player events and positions; the server-side controller
// owns the resulting state and every response carries its current snapshot.
type SessionHandler struct {
	catalog  *controllers.CatalogController
	sessions *controllers.SessionManager
	progress *stores.ProgressStore
	logger   *logrus.Logger
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(catalog *controllers.CatalogController, sessions *controllers.SessionManager, progress *stores.ProgressStore, logger *logrus.Logger) *SessionHandler {
	return &SessionHandler{
		catalog:  catalog,
		sessions: sessions,
		progress: progress,
		logger:   logger,
	}
}

// CreateSessionRequest starts a session from a playlist URL or a bare ID.
type CreateSessionRequest struct {
	URL        string `json:"url"`
	PlaylistID string `json:"playlistId"`
	VideoIndex int    `json:"videoIndex"`
}

// SessionResponse is the full session view returned on create and get.
type SessionResponse struct {
	SessionID string                          `json:"sessionId"`
	Catalog   *models.PlaylistCatalog         `json:"catalog"`
	Snapshot  controllers.PlayerSnapshot      `json:"snapshot"`
	Progress  map[string]models.WatchProgress `json:"progress"`
}

// SnapshotResponse is the compact view returned by event, heartbeat and
// navigation endpoints.
type SnapshotResponse struct {
	Snapshot controllers.PlayerSnapshot      `json:"snapshot"`
	Progress map[string]models.WatchProgress `json:"progress"`
}

// Create handles POST /api/sessions
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	playlistID := req.PlaylistID
	sourceURL := req.URL
	if playlistID == "" {
		id, ok := utils.ExtractPlaylistID(req.URL)
		if !ok {
			respondError(w, http.StatusBadRequest, "no playlist id found in url")
			return
		}
		playlistID = id
	}
	if sourceURL == "" {
		sourceURL = "https://www.youtube.com/playlist?list=" + playlistID
	}

	catalog, err := h.catalog.Load(r.Context(), playlistID, sourceURL)
	if err != nil {
		h.logger.WithError(err).WithField("playlist_id", playlistID).Warn("Catalog load failed")
		respondCatalogError(w, err)
		return
	}

	session, err := h.sessions.Create(catalog, req.VideoIndex)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	respondJSON(w, http.StatusCreated, h.sessionResponse(session))
}

// Get handles GET /api/sessions/{id}
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	session, ok := h.lookup(w, r)
	if !ok {
		return
	}
	session.Touch()
	respondJSON(w, http.StatusOK, h.sessionResponse(session))
}

// EventRequest is a player state-change report from the browser.
type EventRequest struct {
	Event       string  `json:"event"`
	CurrentTime float64 `json:"currentTime"`
	Duration    float64 `json:"duration"`
}

// Events handles POST /api/sessions/{id}/events: playing, paused and ended
// signals from the embedded player.
func (h *SessionHandler) Events(w http.ResponseWriter, r *http.Request) {
	session, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var req EventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	event := models.PlayerState(req.Event)
	switch event {
	case models.StatePlaying, models.StatePaused, models.StateEnded:
	default:
		respondError(w, http.StatusBadRequest, "unknown player event")
		return
	}

	session.ReportPosition(req.CurrentTime, req.Duration)
	if err := session.Controller.HandleEvent(event); err != nil {
		respondError(w, http.StatusConflict, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, h.snapshotResponse(session))
}

// HeartbeatRequest carries the player's current position.
type HeartbeatRequest struct {
	CurrentTime float64 `json:"currentTime"`
	Duration    float64 `json:"duration"`
}

// Heartbeat handles POST /api/sessions/{id}/heartbeat: the browser reports
// its position about once per second and the response carries the controller
// snapshot, so the page observes auto-advance without a push channel.
func (h *SessionHandler) Heartbeat(w http.ResponseWriter, r *http.Request) {
	session, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var req HeartbeatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session.ReportPosition(req.CurrentTime, req.Duration)
	respondJSON(w, http.StatusOK, h.snapshotResponse(session))
}

// SelectRequest picks a catalog entry by index.
type SelectRequest struct {
	Index int `json:"index"`
}

// Select handles POST /api/sessions/{id}/select
func (h *SessionHandler) Select(w http.ResponseWriter, r *http.Request) {
	session, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var req SelectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session.Touch()
	if err := session.Controller.Select(req.Index); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, h.snapshotResponse(session))
}

// NavigateRequest moves selection one step through the catalog.
type NavigateRequest struct {
	Direction string `json:"direction"`
}

// Navigate handles POST /api/sessions/{id}/navigate: direction is "next" or
// "previous". Stepping past either end is a conflict, not a wraparound.
func (h *SessionHandler) Navigate(w http.ResponseWriter, r *http.Request) {
	session, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var req NavigateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session.Touch()

	var err error
	switch req.Direction {
	case "next":
		err = session.Controller.Next()
	case "previous":
		err = session.Controller.Previous()
	default:
		respondError(w, http.StatusBadRequest, "direction must be next or previous")
		return
	}

	if errors.Is(err, controllers.ErrNoNextVideo) || errors.Is(err, controllers.ErrNoPreviousVideo) {
		respondError(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, h.snapshotResponse(session))
}

// Delete handles DELETE /api/sessions/{id}
func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.sessions.Close(id); err != nil {
		respondError(w, http.StatusNotFound, "session not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SessionHandler) lookup(w http.ResponseWriter, r *http.Request) (*controllers.Session, bool) {
	session, err := h.sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusNotFound, "session not found")
		return nil, false
	}
	return session, true
}

func (h *SessionHandler) sessionResponse(session *controllers.Session) SessionResponse {
	return SessionResponse{
		SessionID: session.ID,
		Catalog:   session.Catalog,
		Snapshot:  session.Controller.Snapshot(),
		Progress:  h.catalogProgress(session.Catalog),
	}
}

func (h *SessionHandler) snapshotResponse(session *controllers.Session) SnapshotResponse {
	return SnapshotResponse{
		Snapshot: session.Controller.Snapshot(),
		Progress: h.catalogProgress(session.Catalog),
	}
}

func (h *SessionHandler) catalogProgress(catalog *models.PlaylistCatalog) map[string]models.WatchProgress {
	out := make(map[string]models.WatchProgress, len(catalog.Videos))
	for _, v := range catalog.Videos {
		out[v.ID] = h.progress.Get(v.ID)
	}
	return out
}
