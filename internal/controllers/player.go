package controllers

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"ytwatch/internal/models"
	"ytwatch/internal/stores"
)

const (
	// defaultTickInterval is how often playback position is sampled while
	// the player is in the Playing state.
	defaultTickInterval = time.Second
	// defaultAdvanceDelay is the pause between end-of-video and the
	// automatic advance to the next catalog entry.
	defaultAdvanceDelay = time.Second
)

var (
	// ErrNoNextVideo indicates navigation past the last catalog entry.
	ErrNoNextVideo = errors.New("already at the last video")
	// ErrNoPreviousVideo indicates navigation before the first catalog entry.
	ErrNoPreviousVideo = errors.New("already at the first video")
	// ErrControllerClosed indicates the controller has been torn down.
	ErrControllerClosed = errors.New("player controller is closed")
)

// PlayerPosition reports the embedded player's last known playback position
// in seconds. Duration may be 0 while the player is still loading.
type PlayerPosition interface {
	Position() (currentTime, duration float64)
}

// PlayerSnapshot is the externally visible state of a player controller.
type PlayerSnapshot struct {
	State          models.PlayerState   `json:"state"`
	Index          int                  `json:"index"`
	VideoID        string               `json:"videoId"`
	Progress       models.WatchProgress `json:"progress"`
	TotalVideos    int                  `json:"totalVideos"`
	CompletedCount int                  `json:"completedCount"`
}

// PlayerController drives playback state for one active video within a
// catalog: Idle -> Loading -> Playing <-> Paused -> Ended. While Playing, a
// periodic ticker samples the player position into the progress store; the
// ticker is started on entering Playing and cancelled on leaving it, so at
// most one ticker is live per controller. On Ended the video is marked done
// and, after a fixed delay, selection advances to the next catalog entry
// (never past the last one).
type PlayerController struct {
	mu       sync.Mutex
	catalog  *models.PlaylistCatalog
	player   PlayerPosition
	progress *stores.ProgressStore
	logger   *logrus.Logger

	state models.PlayerState
	index int

	// gen is bumped on every teardown; ticks and pending advances carry the
	// generation they were armed under and bail out when it has moved on.
	gen      int
	stopTick chan struct{}
	advance  *time.Timer
	closed   bool

	tickInterval time.Duration
	advanceDelay time.Duration
}

// NewPlayerController creates a controller over a catalog. The controller
// starts Idle on the first video; Select moves it to Loading.
func NewPlayerController(catalog *models.PlaylistCatalog, player PlayerPosition, progress *stores.ProgressStore, logger *logrus.Logger) *PlayerController {
	return &PlayerController{
		catalog:      catalog,
		player:       player,
		progress:     progress,
		logger:       logger,
		state:        models.StateIdle,
		tickInterval: defaultTickInterval,
		advanceDelay: defaultAdvanceDelay,
	}
}

// Select switches the active video. The current ticker and any pending
// auto-advance are torn down and the controller re-enters Loading for the
// newly selected video.
func (p *PlayerController) Select(index int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrControllerClosed
	}
	if index < 0 || index >= len(p.catalog.Videos) {
		return fmt.Errorf("video index %d out of range [0,%d)", index, len(p.catalog.Videos))
	}

	p.teardownLocked()
	p.index = index
	p.state = models.StateLoading

	p.logger.WithFields(logrus.Fields{
		"playlist_id": p.catalog.ID,
		"index":       index,
		"video_id":    p.catalog.Videos[index].ID,
	}).Debug("Video selected")

	return nil
}

// Next selects the following catalog entry, failing at the last one.
func (p *PlayerController) Next() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrControllerClosed
	}
	next := p.index + 1
	if next >= len(p.catalog.Videos) {
		p.mu.Unlock()
		return ErrNoNextVideo
	}
	p.mu.Unlock()
	return p.Select(next)
}

// Previous selects the preceding catalog entry, failing at the first one.
func (p *PlayerController) Previous() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrControllerClosed
	}
	prev := p.index - 1
	if prev < 0 {
		p.mu.Unlock()
		return ErrNoPreviousVideo
	}
	p.mu.Unlock()
	return p.Select(prev)
}

// HandleEvent consumes a state-change signal from the embedded player.
func (p *PlayerController) HandleEvent(event models.PlayerState) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrControllerClosed
	}

	switch event {
	case models.StatePlaying:
		if p.state == models.StatePlaying {
			return nil
		}
		p.teardownLocked()
		p.state = models.StatePlaying
		p.startTickerLocked()

	case models.StatePaused:
		p.teardownLocked()
		p.state = models.StatePaused

	case models.StateEnded:
		p.teardownLocked()
		p.state = models.StateEnded
		p.handleEndedLocked()

	default:
		return fmt.Errorf("unknown player event %q", event)
	}

	return nil
}

// Snapshot returns the controller's current externally visible state.
func (p *PlayerController) Snapshot() PlayerSnapshot {
	p.mu.Lock()
	defer p.mu.Unlock()

	video := p.catalog.Videos[p.index]
	completed := 0
	for _, v := range p.catalog.Videos {
		if p.progress.Get(v.ID).Completed {
			completed++
		}
	}

	return PlayerSnapshot{
		State:          p.state,
		Index:          p.index,
		VideoID:        video.ID,
		Progress:       p.progress.Get(video.ID),
		TotalVideos:    len(p.catalog.Videos),
		CompletedCount: completed,
	}
}

// Close tears the controller down permanently.
func (p *PlayerController) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	p.teardownLocked()
	p.closed = true
	p.state = models.StateIdle
}

// teardownLocked cancels the sampling ticker and any pending auto-advance and
// invalidates their generation. Callers must hold the lock.
func (p *PlayerController) teardownLocked() {
	p.gen++
	if p.stopTick != nil {
		close(p.stopTick)
		p.stopTick = nil
	}
	if p.advance != nil {
		p.advance.Stop()
		p.advance = nil
	}
}

// startTickerLocked arms the position sampler for the current video.
// Callers must hold the lock; the current state must be Playing.
func (p *PlayerController) startTickerLocked() {
	gen := p.gen
	stop := make(chan struct{})
	p.stopTick = stop
	videoID := p.catalog.Videos[p.index].ID

	go func() {
		ticker := time.NewTicker(p.tickInterval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				p.sample(gen, videoID)
			}
		}
	}()
}

// sample records one playback position tick, unless the controller has moved
// on since the ticker was armed.
func (p *PlayerController) sample(gen int, videoID string) {
	p.mu.Lock()
	stale := p.closed || p.gen != gen || p.state != models.StatePlaying
	p.mu.Unlock()
	if stale {
		return
	}

	currentTime, duration := p.player.Position()
	if duration <= 0 {
		return
	}
	if _, err := p.progress.RecordTick(videoID, currentTime, duration); err != nil {
		p.logger.WithError(err).WithField("video_id", videoID).Error("Failed to record playback tick")
	}
}

// handleEndedLocked marks the ended video done and schedules the advance to
// the next catalog entry. The last video stays selected; there is no
// wraparound. Callers must hold the lock.
func (p *PlayerController) handleEndedLocked() {
	video := p.catalog.Videos[p.index]

	_, duration := p.player.Position()
	if duration <= 0 {
		duration = float64(video.DurationSeconds)
	}
	if _, err := p.progress.MarkEnded(video.ID, duration); err != nil {
		p.logger.WithError(err).WithField("video_id", video.ID).Error("Failed to mark video ended")
	}

	if p.index >= len(p.catalog.Videos)-1 {
		return
	}

	gen := p.gen
	p.advance = time.AfterFunc(p.advanceDelay, func() {
		p.autoAdvance(gen)
	})
}

// autoAdvance moves selection to the next video after the end-of-video delay,
// unless the controller was superseded in the meantime.
func (p *PlayerController) autoAdvance(gen int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed || p.gen != gen || p.state != models.StateEnded {
		return
	}
	if p.index >= len(p.catalog.Videos)-1 {
		return
	}

	p.teardownLocked()
	p.index++
	p.state = models.StateLoading

	p.logger.WithFields(logrus.Fields{
		"playlist_id": p.catalog.ID,
		"index":       p.index,
		"video_id":    p.catalog.Videos[p.index].ID,
	}).Debug("Auto-advanced to next video")
}
