package youtube

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

// maxPageSize is the YouTube Data API cap for list calls, both for
// playlistItems pages and for the number of IDs in one videos.list batch.
const maxPageSize = 50

// PlaylistMeta is the playlist-level metadata returned by the playlist
// lookup.
type PlaylistMeta struct {
	ID           string
	Title        string
	Description  string
	ChannelTitle string
}

// VideoDetail is the raw per-video detail returned by the batched video
// lookup. Duration is the ISO-8601 string as reported by the API.
type VideoDetail struct {
	ID           string
	Title        string
	ThumbnailURL string
	Description  string
	ChannelTitle string
	Duration     string
	PublishedAt  time.Time
}

// Client wraps the three read-only YouTube Data API v3 calls used to
// assemble playlist catalogs. All calls are rate limited client-side.
type Client struct {
	service *youtube.Service
	limiter *rate.Limiter
	logger  *logrus.Logger
}

// NewClient creates a new YouTube Data API client. Extra options are passed
// through to the underlying service, which lets tests point the client at a
// stub server.
func NewClient(ctx context.Context, apiKey string, logger *logrus.Logger, opts ...option.ClientOption) (*Client, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	all := append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	service, err := youtube.NewService(ctx, all...)
	if err != nil {
		return nil, fmt.Errorf("failed to create youtube service: %w", err)
	}

	return &Client{
		service: service,
		limiter: rate.NewLimiter(rate.Limit(8), 8),
		logger:  logger,
	}, nil
}

// GetPlaylist fetches playlist metadata by ID. Returns ErrPlaylistNotFound
// when the API reports zero items.
func (c *Client) GetPlaylist(ctx context.Context, playlistID string) (*PlaylistMeta, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	c.logger.WithField("playlist_id", playlistID).Debug("Fetching playlist metadata")

	resp, err := c.service.Playlists.List([]string{"snippet"}).
		Id(playlistID).
		MaxResults(1).
		Context(ctx).
		Do()
	if err != nil {
		return nil, wrapAPIError(err)
	}

	if len(resp.Items) == 0 {
		return nil, ErrPlaylistNotFound
	}

	meta := &PlaylistMeta{ID: playlistID}
	if sn := resp.Items[0].Snippet; sn != nil {
		meta.Title = sn.Title
		meta.Description = sn.Description
		meta.ChannelTitle = sn.ChannelTitle
	}

	return meta, nil
}

// ListPlaylistItems fetches the playlist membership in pages of up to 50
// items, following the continuation token until exhausted. The returned video
// IDs preserve API response order across pages.
func (c *Client) ListPlaylistItems(ctx context.Context, playlistID string) ([]string, error) {
	var videoIDs []string

	pageToken := ""
	for {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		resp, err := c.service.PlaylistItems.List([]string{"contentDetails"}).
			PlaylistId(playlistID).
			MaxResults(maxPageSize).
			PageToken(pageToken).
			Context(ctx).
			Do()
		if err != nil {
			return nil, wrapAPIError(err)
		}

		for _, item := range resp.Items {
			if item.ContentDetails == nil || item.ContentDetails.VideoId == "" {
				continue
			}
			videoIDs = append(videoIDs, item.ContentDetails.VideoId)
		}

		pageToken = resp.NextPageToken
		if pageToken == "" {
			break
		}
	}

	c.logger.WithFields(logrus.Fields{
		"playlist_id": playlistID,
		"count":       len(videoIDs),
	}).Debug("Playlist membership fetched")

	return videoIDs, nil
}

// GetVideoDetails fetches video details in batches of up to 50 IDs, in chunk
// order, and flattens the results into a single ID-to-detail mapping. IDs the
// API does not return (e.g. deleted videos) are simply absent from the map.
func (c *Client) GetVideoDetails(ctx context.Context, videoIDs []string) (map[string]VideoDetail, error) {
	details := make(map[string]VideoDetail, len(videoIDs))

	for _, chunk := range chunkIDs(videoIDs, maxPageSize) {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		resp, err := c.service.Videos.List([]string{"snippet", "contentDetails"}).
			Id(chunk...).
			MaxResults(maxPageSize).
			Context(ctx).
			Do()
		if err != nil {
			return nil, wrapAPIError(err)
		}

		for _, item := range resp.Items {
			detail := VideoDetail{ID: item.Id}
			if sn := item.Snippet; sn != nil {
				detail.Title = sn.Title
				detail.Description = sn.Description
				detail.ChannelTitle = sn.ChannelTitle
				detail.ThumbnailURL = pickThumbnail(sn.Thumbnails)
				if t, err := time.Parse(time.RFC3339, sn.PublishedAt); err == nil {
					detail.PublishedAt = t
				}
			}
			if cd := item.ContentDetails; cd != nil {
				detail.Duration = cd.Duration
			}
			details[item.Id] = detail
		}
	}

	return details, nil
}

// chunkIDs partitions ids into slices of at most size elements, preserving
// order.
func chunkIDs(ids []string, size int) [][]string {
	var chunks [][]string
	for len(ids) > size {
		chunks = append(chunks, ids[:size])
		ids = ids[size:]
	}
	if len(ids) > 0 {
		chunks = append(chunks, ids)
	}
	return chunks
}

func pickThumbnail(thumbs *youtube.ThumbnailDetails) string {
	if thumbs == nil {
		return ""
	}
	if thumbs.Medium != nil {
		return thumbs.Medium.Url
	}
	if thumbs.Default != nil {
		return thumbs.Default.Url
	}
	return ""
}
