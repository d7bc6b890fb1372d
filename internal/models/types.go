package models

import "time"

// CompletionThreshold is the watched fraction past which a video is
// automatically marked done.
const CompletionThreshold = 0.9

// HistoryLimit is the maximum number of retained playlist history entries.
const HistoryLimit = 5

// Video is a single playlist entry as assembled from the video API.
// Immutable once fetched; identity is ID.
type Video struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	ThumbnailURL    string    `json:"thumbnailUrl"`
	DurationDisplay string    `json:"durationDisplay"`
	DurationSeconds int64     `json:"durationSeconds"`
	Description     string    `json:"description"`
	ChannelTitle    string    `json:"channelTitle"`
	PublishedAt     time.Time `json:"publishedAt"`
}

// PlaylistCatalog holds playlist metadata plus its videos in playback order.
// The order is the source API's playlist order and must be preserved exactly.
type PlaylistCatalog struct {
	ID           string  `json:"id"`
	Title        string  `json:"title"`
	Description  string  `json:"description"`
	ChannelTitle string  `json:"channelTitle"`
	Videos       []Video `json:"videos"`
}

// WatchProgress is the persisted play position and completion state for one
// video. Keyed by VideoID across playlists: a video watched in one playlist
// shows as watched in any playlist containing it.
type WatchProgress struct {
	VideoID     string    `json:"videoId"`
	CurrentTime float64   `json:"currentTimeSeconds"`
	Duration    float64   `json:"durationSeconds"`
	Completed   bool      `json:"completed"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Fraction returns the watched fraction clamped to [0, 1], 0 when the
// duration is unknown.
func (p WatchProgress) Fraction() float64 {
	if p.Duration <= 0 {
		return 0
	}
	f := p.CurrentTime / p.Duration
	if f > 1 {
		f = 1
	}
	if f < 0 {
		f = 0
	}
	return f
}

// PlaylistHistoryEntry records a previously viewed playlist.
type PlaylistHistoryEntry struct {
	PlaylistID   string    `json:"playlistId"`
	Title        string    `json:"title"`
	ChannelTitle string    `json:"channelTitle"`
	SourceURL    string    `json:"sourceUrl"`
	ViewedAt     time.Time `json:"viewedAt"`
}

// PlayerState is the playback state of a player session.
type PlayerState string

const (
	StateIdle    PlayerState = "idle"
	StateLoading PlayerState = "loading"
	StatePlaying PlayerState = "playing"
	StatePaused  PlayerState = "paused"
	StateEnded   PlayerState = "ended"
)

// Valid reports whether s is a known player state.
func (s PlayerState) Valid() bool {
	switch s {
	case StateIdle, StateLoading, StatePlaying, StatePaused, StateEnded:
		return true
	}
	return false
}
