package controllers

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"ytwatch/internal/models"
	"ytwatch/internal/services/youtube"
	"ytwatch/internal/stores"
	"ytwatch/internal/utils"
)

// ErrEmptyPlaylist indicates a playlist resolved to zero playable videos
// after unresolvable IDs were dropped.
var ErrEmptyPlaylist = errors.New("playlist has no playable videos")

// CatalogAPI is the slice of the video source API the catalog controller
// needs. *youtube.Client implements it.
type CatalogAPI interface {
	GetPlaylist(ctx context.Context, playlistID string) (*youtube.PlaylistMeta, error)
	ListPlaylistItems(ctx context.Context, playlistID string) ([]string, error)
	GetVideoDetails(ctx context.Context, videoIDs []string) (map[string]youtube.VideoDetail, error)
}

// CatalogController assembles playlist catalogs from the video source API and
// records successful loads in the history store.
type CatalogController struct {
	api     CatalogAPI
	history *stores.HistoryStore
	logger  *logrus.Logger
	group   singleflight.Group
}

// NewCatalogController creates a new catalog controller
func NewCatalogController(api CatalogAPI, history *stores.HistoryStore, logger *logrus.Logger) *CatalogController {
	return &CatalogController{
		api:     api,
		history: history,
		logger:  logger,
	}
}

// Load produces a complete catalog for a playlist or fails with a descriptive
// error. Concurrent loads of the same playlist share a single in-flight
// fetch. A failed load leaves prior state (history, progress) untouched.
func (c *CatalogController) Load(ctx context.Context, playlistID, sourceURL string) (*models.PlaylistCatalog, error) {
	v, err, shared := c.group.Do(playlistID, func() (interface{}, error) {
		// The fetch result is handed to every coalesced caller, so it must
		// not inherit the first caller's cancellation.
		return c.fetch(context.WithoutCancel(ctx), playlistID)
	})
	if err != nil {
		return nil, err
	}
	catalog := v.(*models.PlaylistCatalog)

	if shared {
		c.logger.WithField("playlist_id", playlistID).Debug("Catalog fetch was shared with a concurrent load")
	}

	entry := models.PlaylistHistoryEntry{
		PlaylistID:   playlistID,
		Title:        catalog.Title,
		ChannelTitle: catalog.ChannelTitle,
		SourceURL:    sourceURL,
		ViewedAt:     time.Now(),
	}
	if _, err := c.history.Upsert(entry); err != nil {
		// The catalog itself is good; a history write failure is not fatal.
		c.logger.WithError(err).WithField("playlist_id", playlistID).Error("Failed to record playlist view")
	}

	return catalog, nil
}

// fetch runs the three source API calls strictly in sequence and re-projects
// the detail mapping back onto the membership order.
func (c *CatalogController) fetch(ctx context.Context, playlistID string) (*models.PlaylistCatalog, error) {
	meta, err := c.api.GetPlaylist(ctx, playlistID)
	if err != nil {
		return nil, err
	}

	videoIDs, err := c.api.ListPlaylistItems(ctx, playlistID)
	if err != nil {
		return nil, err
	}

	details, err := c.api.GetVideoDetails(ctx, videoIDs)
	if err != nil {
		return nil, err
	}

	videos := make([]models.Video, 0, len(videoIDs))
	for _, id := range videoIDs {
		detail, ok := details[id]
		if !ok {
			// Deleted or private videos have no detail record; drop them
			// without failing the whole fetch.
			c.logger.WithField("video_id", id).Debug("Dropping video without details")
			continue
		}

		videos = append(videos, models.Video{
			ID:              id,
			Title:           detail.Title,
			ThumbnailURL:    detail.ThumbnailURL,
			DurationDisplay: utils.FormatISODuration(detail.Duration),
			DurationSeconds: utils.ParseISODuration(detail.Duration),
			Description:     detail.Description,
			ChannelTitle:    detail.ChannelTitle,
			PublishedAt:     detail.PublishedAt,
		})
	}

	if len(videos) == 0 {
		return nil, ErrEmptyPlaylist
	}

	c.logger.WithFields(logrus.Fields{
		"playlist_id": playlistID,
		"title":       meta.Title,
		"videos":      len(videos),
		"dropped":     len(videoIDs) - len(videos),
	}).Info("Catalog assembled")

	return &models.PlaylistCatalog{
		ID:           playlistID,
		Title:        meta.Title,
		Description:  meta.Description,
		ChannelTitle: meta.ChannelTitle,
		Videos:       videos,
	}, nil
}
