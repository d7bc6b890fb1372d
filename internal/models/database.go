package models

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/timshannon/bolthold"
	"go.etcd.io/bbolt"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = bolthold.ErrNotFound

// Database wraps the bolthold store
type Database struct {
	store *bolthold.Store
}

// NewDatabase creates a new database connection
func NewDatabase(path string) (*Database, error) {
	store, err := bolthold.Open(path, 0600, &bolthold.Options{
		Options: &bbolt.Options{
			Timeout: 1 * time.Second,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return &Database{store: store}, nil
}

// Close closes the database connection
func (db *Database) Close() error {
	return db.store.Close()
}

// Watch progress operations

// SaveProgress upserts the watch progress record for a video.
func (db *Database) SaveProgress(progress *WatchProgress) error {
	progress.UpdatedAt = time.Now()
	return db.store.Upsert(progress.VideoID, progress)
}

// GetProgress retrieves the watch progress for a video.
// Returns ErrNotFound when no record exists.
func (db *Database) GetProgress(videoID string) (*WatchProgress, error) {
	var progress WatchProgress
	err := db.store.Get(videoID, &progress)
	if err != nil {
		return nil, err
	}
	return &progress, nil
}

// GetAllProgress retrieves every watch progress record.
func (db *Database) GetAllProgress() ([]*WatchProgress, error) {
	var records []*WatchProgress
	err := db.store.Find(&records, nil)
	return records, err
}

// History operations

// SaveHistoryEntry upserts a playlist history entry.
func (db *Database) SaveHistoryEntry(entry *PlaylistHistoryEntry) error {
	return db.store.Upsert(entry.PlaylistID, entry)
}

// DeleteHistoryEntry removes a playlist history entry. Deleting a missing
// entry is not an error.
func (db *Database) DeleteHistoryEntry(playlistID string) error {
	err := db.store.Delete(playlistID, &PlaylistHistoryEntry{})
	if errors.Is(err, bolthold.ErrNotFound) {
		return nil
	}
	return err
}

// GetHistory retrieves all playlist history entries, most recently viewed
// first.
func (db *Database) GetHistory() ([]*PlaylistHistoryEntry, error) {
	var entries []*PlaylistHistoryEntry
	if err := db.store.Find(&entries, nil); err != nil {
		return nil, err
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].ViewedAt.After(entries[j].ViewedAt)
	})

	return entries, nil
}
