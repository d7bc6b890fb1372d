package stores

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ytwatch/internal/models"
)

func historyEntry(id string, viewedAt time.Time) models.PlaylistHistoryEntry {
	return models.PlaylistHistoryEntry{
		PlaylistID:   id,
		Title:        "Playlist " + id,
		ChannelTitle: "Channel",
		SourceURL:    "https://www.youtube.com/playlist?list=" + id,
		ViewedAt:     viewedAt,
	}
}

func TestHistoryBounding(t *testing.T) {
	store := NewHistoryStore(newTestDB(t), testLogger())

	base := time.Now().Add(-time.Hour)
	for i := 1; i <= 6; i++ {
		_, err := store.Upsert(historyEntry(fmt.Sprintf("PL%d", i), base.Add(time.Duration(i)*time.Minute)))
		require.NoError(t, err)
	}

	entries := store.List()
	require.Len(t, entries, models.HistoryLimit)
	// Most recent first, least recent (PL1) evicted.
	assert.Equal(t, "PL6", entries[0].PlaylistID)
	assert.Equal(t, "PL2", entries[4].PlaylistID)
	for _, e := range entries {
		assert.NotEqual(t, "PL1", e.PlaylistID)
	}
}

func TestHistoryUpsertMovesToFront(t *testing.T) {
	store := NewHistoryStore(newTestDB(t), testLogger())

	base := time.Now().Add(-time.Hour)
	for i := 1; i <= 3; i++ {
		_, err := store.Upsert(historyEntry(fmt.Sprintf("PL%d", i), base.Add(time.Duration(i)*time.Minute)))
		require.NoError(t, err)
	}

	updated := historyEntry("PL1", base.Add(time.Hour))
	updated.Title = "Renamed"
	entries, err := store.Upsert(updated)
	require.NoError(t, err)

	require.Len(t, entries, 3, "re-upserting an existing ID must not grow the list")
	assert.Equal(t, "PL1", entries[0].PlaylistID)
	assert.Equal(t, "Renamed", entries[0].Title)
}

func TestHistoryUpsertSetsTimestamp(t *testing.T) {
	store := NewHistoryStore(newTestDB(t), testLogger())

	entry := historyEntry("PL1", time.Time{})
	entries, err := store.Upsert(entry)
	require.NoError(t, err)
	assert.False(t, entries[0].ViewedAt.IsZero())
}

func TestHistorySurvivesRestart(t *testing.T) {
	db := newTestDB(t)

	store := NewHistoryStore(db, testLogger())
	base := time.Now().Add(-time.Hour).Truncate(time.Second)
	for i := 1; i <= 6; i++ {
		_, err := store.Upsert(historyEntry(fmt.Sprintf("PL%d", i), base.Add(time.Duration(i)*time.Minute)))
		require.NoError(t, err)
	}

	reloaded := NewHistoryStore(db, testLogger())
	entries := reloaded.List()
	require.Len(t, entries, models.HistoryLimit)
	assert.Equal(t, "PL6", entries[0].PlaylistID)
	// The evicted entry must be gone from durable storage too.
	for _, e := range entries {
		assert.NotEqual(t, "PL1", e.PlaylistID)
	}
}

func TestHistoryEmptyStore(t *testing.T) {
	store := NewHistoryStore(newTestDB(t), testLogger())
	assert.Empty(t, store.List())
	assert.Zero(t, store.Len())
}

func TestHistoryUnreadableStorageStartsEmpty(t *testing.T) {
	store := NewHistoryStore(newUnreadableDB(t), testLogger())
	assert.Empty(t, store.List())
	assert.Zero(t, store.Len())
}
