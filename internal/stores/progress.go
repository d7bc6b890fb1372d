package stores

import (
	"sync"

	"github.com/sirupsen/logrus"

	"ytwatch/internal/models"
)

// ProgressStore keeps per-video watch progress in memory and writes every
// mutation through to durable storage before returning. Progress records
// accumulate indefinitely; nothing deletes them.
type ProgressStore struct {
	mu      sync.RWMutex
	db      *models.Database
	entries map[string]models.WatchProgress
	logger  *logrus.Logger
}

// NewProgressStore creates a progress store seeded from durable storage.
// A record set that fails to load is treated as empty, not fatal.
func NewProgressStore(db *models.Database, logger *logrus.Logger) *ProgressStore {
	s := &ProgressStore{
		db:      db,
		entries: make(map[string]models.WatchProgress),
		logger:  logger,
	}

	records, err := db.GetAllProgress()
	if err != nil {
		logger.WithError(err).Warn("Failed to load watch progress, starting empty")
		return s
	}

	for _, record := range records {
		s.entries[record.VideoID] = *record
	}
	logger.WithField("count", len(s.entries)).Debug("Watch progress loaded")

	return s
}

// Get returns the watch progress for a video. Absent videos yield a zeroed,
// non-completed record; Get never fails.
func (s *ProgressStore) Get(videoID string) models.WatchProgress {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if entry, ok := s.entries[videoID]; ok {
		return entry
	}
	return models.WatchProgress{VideoID: videoID}
}

// All returns a copy of every progress record keyed by video ID.
func (s *ProgressStore) All() map[string]models.WatchProgress {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]models.WatchProgress, len(s.entries))
	for id, entry := range s.entries {
		out[id] = entry
	}
	return out
}

// Count returns the number of tracked videos.
func (s *ProgressStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// CompletedCount returns the number of videos marked done.
func (s *ProgressStore) CompletedCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, entry := range s.entries {
		if entry.Completed {
			n++
		}
	}
	return n
}

// RecordTick overwrites the time fields from a playback position sample and
// sets Completed once the threshold fraction is crossed. An already-true
// Completed flag is left untouched by a later sub-threshold tick; time-based
// progress can only move completion upward.
func (s *ProgressStore) RecordTick(videoID string, currentTime, duration float64) (models.WatchProgress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := s.entries[videoID]
	entry.VideoID = videoID
	entry.CurrentTime = currentTime
	entry.Duration = duration
	if duration > 0 && currentTime/duration > models.CompletionThreshold {
		entry.Completed = true
	}

	return s.saveLocked(entry)
}

// SetCompleted explicitly overrides the completion flag. This is the only
// operation that can clear Completed; it is idempotent and independent of the
// recorded watch time.
func (s *ProgressStore) SetCompleted(videoID string, completed bool) (models.WatchProgress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := s.entries[videoID]
	entry.VideoID = videoID
	entry.Completed = completed

	return s.saveLocked(entry)
}

// MarkEnded records end-of-video: current time snaps to the full duration and
// the video is marked done.
func (s *ProgressStore) MarkEnded(videoID string, duration float64) (models.WatchProgress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := s.entries[videoID]
	entry.VideoID = videoID
	if duration > 0 {
		entry.Duration = duration
	}
	entry.CurrentTime = entry.Duration
	entry.Completed = true

	return s.saveLocked(entry)
}

// saveLocked updates the in-memory map and flushes the record synchronously.
// Callers must hold the write lock.
func (s *ProgressStore) saveLocked(entry models.WatchProgress) (models.WatchProgress, error) {
	record := entry
	if err := s.db.SaveProgress(&record); err != nil {
		s.logger.WithError(err).WithField("video_id", entry.VideoID).Error("Failed to persist watch progress")
		return entry, err
	}
	s.entries[entry.VideoID] = record
	return record, nil
}
