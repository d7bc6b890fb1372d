package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"ytwatch/internal/controllers"
	"ytwatch/internal/utils"
)

// PlaylistHandler serves assembled playlist catalogs.
type PlaylistHandler struct {
	catalog *controllers.CatalogController
	logger  *logrus.Logger
}

// NewPlaylistHandler creates a new playlist handler
func NewPlaylistHandler(catalog *controllers.CatalogController, logger *logrus.Logger) *PlaylistHandler {
	return &PlaylistHandler{catalog: catalog, logger: logger}
}

// LoadRequest is the load-by-URL request body.
type LoadRequest struct {
	URL string `json:"url"`
}

// Load handles POST /api/playlists: extract the playlist ID from a URL,
// assemble the catalog and record the view in history.
func (h *PlaylistHandler) Load(w http.ResponseWriter, r *http.Request) {
	var req LoadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	playlistID, ok := utils.ExtractPlaylistID(req.URL)
	if !ok {
		respondError(w, http.StatusBadRequest, "no playlist id found in url")
		return
	}

	catalog, err := h.catalog.Load(r.Context(), playlistID, req.URL)
	if err != nil {
		h.logger.WithError(err).WithField("playlist_id", playlistID).Warn("Catalog load failed")
		respondCatalogError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, catalog)
}

// Get handles GET /api/playlists/{id}: the same assembled-catalog contract
// keyed by bare playlist ID.
func (h *PlaylistHandler) Get(w http.ResponseWriter, r *http.Request) {
	playlistID := chi.URLParam(r, "id")
	sourceURL := "https://www.youtube.com/playlist?list=" + playlistID

	catalog, err := h.catalog.Load(r.Context(), playlistID, sourceURL)
	if err != nil {
		h.logger.WithError(err).WithField("playlist_id", playlistID).Warn("Catalog load failed")
		respondCatalogError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, catalog)
}
