package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"ytwatch/internal/controllers"
	"ytwatch/internal/services/youtube"
)

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondCatalogError maps a catalog-fetch failure onto an HTTP status,
// passing the upstream API's own message through when it supplied one.
func respondCatalogError(w http.ResponseWriter, err error) {
	var uerr *youtube.UpstreamError
	switch {
	case errors.Is(err, youtube.ErrPlaylistNotFound):
		respondError(w, http.StatusNotFound, "playlist not found or private")
	case errors.Is(err, controllers.ErrEmptyPlaylist):
		respondError(w, http.StatusUnprocessableEntity, "playlist has no playable videos")
	case errors.As(err, &uerr):
		respondError(w, http.StatusBadGateway, uerr.Message)
	default:
		respondError(w, http.StatusInternalServerError, "failed to load playlist")
	}
}
