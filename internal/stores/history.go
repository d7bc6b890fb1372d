package stores

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"ytwatch/internal/models"
)

// HistoryStore keeps the bounded, most-recent-first list of previously viewed
// playlists, mirrored to durable storage on every change.
type HistoryStore struct {
	mu      sync.Mutex
	db      *models.Database
	entries []models.PlaylistHistoryEntry
	logger  *logrus.Logger
}

// NewHistoryStore creates a history store seeded from durable storage.
// A corrupt or missing record set yields an empty list, not a failure.
func NewHistoryStore(db *models.Database, logger *logrus.Logger) *HistoryStore {
	s := &HistoryStore{db: db, logger: logger}

	records, err := db.GetHistory()
	if err != nil {
		logger.WithError(err).Warn("Failed to load playlist history, starting empty")
		return s
	}

	for _, record := range records {
		s.entries = append(s.entries, *record)
	}
	if len(s.entries) > models.HistoryLimit {
		s.entries = s.entries[:models.HistoryLimit]
	}
	logger.WithField("count", len(s.entries)).Debug("Playlist history loaded")

	return s
}

// Upsert records a playlist view. Any existing entry with the same playlist
// ID is removed first, the new entry is prepended, and the list is truncated
// to the history limit. Returns the new ordered list.
func (s *HistoryStore) Upsert(entry models.PlaylistHistoryEntry) ([]models.PlaylistHistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.ViewedAt.IsZero() {
		entry.ViewedAt = time.Now()
	}

	kept := make([]models.PlaylistHistoryEntry, 0, len(s.entries)+1)
	kept = append(kept, entry)
	for _, existing := range s.entries {
		if existing.PlaylistID != entry.PlaylistID {
			kept = append(kept, existing)
		}
	}

	var evicted []models.PlaylistHistoryEntry
	if len(kept) > models.HistoryLimit {
		evicted = kept[models.HistoryLimit:]
		kept = kept[:models.HistoryLimit]
	}

	if err := s.db.SaveHistoryEntry(&entry); err != nil {
		s.logger.WithError(err).WithField("playlist_id", entry.PlaylistID).Error("Failed to persist history entry")
		return s.listLocked(), err
	}
	for _, old := range evicted {
		if err := s.db.DeleteHistoryEntry(old.PlaylistID); err != nil {
			s.logger.WithError(err).WithField("playlist_id", old.PlaylistID).Error("Failed to delete evicted history entry")
		}
	}

	s.entries = kept
	return s.listLocked(), nil
}

// List returns the history entries, most recently viewed first.
func (s *HistoryStore) List() []models.PlaylistHistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listLocked()
}

// Len returns the number of history entries.
func (s *HistoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *HistoryStore) listLocked() []models.PlaylistHistoryEntry {
	out := make([]models.PlaylistHistoryEntry, len(s.entries))
	copy(out, s.entries)
	return out
}
