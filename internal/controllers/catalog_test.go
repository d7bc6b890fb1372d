package controllers

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ytwatch/internal/models"
	"ytwatch/internal/services/youtube"
	"ytwatch/internal/stores"
)

type fakeAPI struct {
	meta       *youtube.PlaylistMeta
	metaErr    error
	ids        []string
	idsErr     error
	details    map[string]youtube.VideoDetail
	detailsErr error
}

func (f *fakeAPI) GetPlaylist(ctx context.Context, playlistID string) (*youtube.PlaylistMeta, error) {
	if f.metaErr != nil {
		return nil, f.metaErr
	}
	return f.meta, nil
}

func (f *fakeAPI) ListPlaylistItems(ctx context.Context, playlistID string) ([]string, error) {
	return f.ids, f.idsErr
}

func (f *fakeAPI) GetVideoDetails(ctx context.Context, videoIDs []string) (map[string]youtube.VideoDetail, error) {
	if f.detailsErr != nil {
		return nil, f.detailsErr
	}
	return f.details, nil
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func newTestDB(t *testing.T) *models.Database {
	t.Helper()
	db, err := models.NewDatabase(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func detail(id, title, duration string) youtube.VideoDetail {
	return youtube.VideoDetail{
		ID:           id,
		Title:        title,
		ThumbnailURL: "https://i.ytimg.com/vi/" + id + "/mqdefault.jpg",
		ChannelTitle: "Chan",
		Duration:     duration,
		PublishedAt:  time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestCatalogPreservesMembershipOrder(t *testing.T) {
	api := &fakeAPI{
		meta: &youtube.PlaylistMeta{ID: "PL1", Title: "Course", ChannelTitle: "Chan"},
		ids:  []string{"v1", "v2", "v3"},
		details: map[string]youtube.VideoDetail{
			// v2 has no detail record (deleted video) and must be dropped
			// without reordering the rest.
			"v1": detail("v1", "One", "PT1M"),
			"v3": detail("v3", "Three", "PT2M"),
		},
	}
	history := stores.NewHistoryStore(newTestDB(t), testLogger())
	ctrl := NewCatalogController(api, history, testLogger())

	catalog, err := ctrl.Load(context.Background(), "PL1", "https://x/?list=PL1")
	require.NoError(t, err)

	require.Len(t, catalog.Videos, 2)
	assert.Equal(t, "v1", catalog.Videos[0].ID)
	assert.Equal(t, "v3", catalog.Videos[1].ID)
}

func TestCatalogDurationDisplay(t *testing.T) {
	api := &fakeAPI{
		meta: &youtube.PlaylistMeta{ID: "PL1", Title: "Course"},
		ids:  []string{"v1", "v2"},
		details: map[string]youtube.VideoDetail{
			"v1": detail("v1", "One", "PT1H2M3S"),
			"v2": detail("v2", "Two", ""), // absent duration defaults to zero
		},
	}
	ctrl := NewCatalogController(api, stores.NewHistoryStore(newTestDB(t), testLogger()), testLogger())

	catalog, err := ctrl.Load(context.Background(), "PL1", "")
	require.NoError(t, err)

	assert.Equal(t, "1:02:03", catalog.Videos[0].DurationDisplay)
	assert.Equal(t, int64(3723), catalog.Videos[0].DurationSeconds)
	assert.Equal(t, "0:00", catalog.Videos[1].DurationDisplay)
}

func TestCatalogEmptyAfterDropping(t *testing.T) {
	api := &fakeAPI{
		meta:    &youtube.PlaylistMeta{ID: "PL1", Title: "Ghost town"},
		ids:     []string{"v1", "v2"},
		details: map[string]youtube.VideoDetail{},
	}
	history := stores.NewHistoryStore(newTestDB(t), testLogger())
	ctrl := NewCatalogController(api, history, testLogger())

	_, err := ctrl.Load(context.Background(), "PL1", "")
	require.ErrorIs(t, err, ErrEmptyPlaylist)
	assert.Zero(t, history.Len(), "a failed load must not touch history")
}

func TestCatalogNotFoundPassthrough(t *testing.T) {
	api := &fakeAPI{metaErr: youtube.ErrPlaylistNotFound}
	history := stores.NewHistoryStore(newTestDB(t), testLogger())
	ctrl := NewCatalogController(api, history, testLogger())

	_, err := ctrl.Load(context.Background(), "PLnope", "")
	require.ErrorIs(t, err, youtube.ErrPlaylistNotFound)
	assert.Zero(t, history.Len())
}

func TestCatalogUpstreamErrorAborts(t *testing.T) {
	upstream := &youtube.UpstreamError{StatusCode: 403, Message: "quota exceeded"}
	api := &fakeAPI{
		meta:   &youtube.PlaylistMeta{ID: "PL1"},
		idsErr: upstream,
	}
	ctrl := NewCatalogController(api, stores.NewHistoryStore(newTestDB(t), testLogger()), testLogger())

	_, err := ctrl.Load(context.Background(), "PL1", "")
	var uerr *youtube.UpstreamError
	require.True(t, errors.As(err, &uerr))
	assert.Equal(t, "quota exceeded", uerr.Message)
}

func TestCatalogRecordsHistory(t *testing.T) {
	api := &fakeAPI{
		meta:    &youtube.PlaylistMeta{ID: "PL1", Title: "Course", ChannelTitle: "Chan"},
		ids:     []string{"v1"},
		details: map[string]youtube.VideoDetail{"v1": detail("v1", "One", "PT1M")},
	}
	history := stores.NewHistoryStore(newTestDB(t), testLogger())
	ctrl := NewCatalogController(api, history, testLogger())

	_, err := ctrl.Load(context.Background(), "PL1", "https://x/?list=PL1")
	require.NoError(t, err)

	entries := history.List()
	require.Len(t, entries, 1)
	assert.Equal(t, "PL1", entries[0].PlaylistID)
	assert.Equal(t, "Course", entries[0].Title)
	assert.Equal(t, "https://x/?list=PL1", entries[0].SourceURL)
}

// gatedAPI blocks every metadata fetch on a gate and counts how many reach
// the upstream, so tests can hold a fetch in flight and pile callers onto it.
type gatedAPI struct {
	fakeAPI
	gate  chan struct{}
	calls int32
}

func (g *gatedAPI) GetPlaylist(ctx context.Context, playlistID string) (*youtube.PlaylistMeta, error) {
	atomic.AddInt32(&g.calls, 1)
	<-g.gate
	return g.fakeAPI.GetPlaylist(ctx, playlistID)
}

func (g *gatedAPI) ListPlaylistItems(ctx context.Context, playlistID string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return g.fakeAPI.ListPlaylistItems(ctx, playlistID)
}

func newGatedAPI() *gatedAPI {
	return &gatedAPI{
		fakeAPI: fakeAPI{
			meta:    &youtube.PlaylistMeta{ID: "PL1", Title: "Course", ChannelTitle: "Chan"},
			ids:     []string{"v1"},
			details: map[string]youtube.VideoDetail{"v1": detail("v1", "One", "PT1M")},
		},
		gate: make(chan struct{}),
	}
}

func TestCatalogConcurrentLoadsShareFetch(t *testing.T) {
	api := newGatedAPI()
	ctrl := NewCatalogController(api, stores.NewHistoryStore(newTestDB(t), testLogger()), testLogger())

	const loads = 5
	var wg sync.WaitGroup
	results := make([]error, loads)
	for i := 0; i < loads; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = ctrl.Load(context.Background(), "PL1", "https://x/?list=PL1")
		}(i)
	}

	// Wait for the first load to reach the upstream, then give the rest time
	// to pile onto the in-flight fetch before releasing it.
	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&api.calls) == 1
	}, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(api.gate)
	wg.Wait()

	for i, err := range results {
		require.NoError(t, err, "load %d", i)
	}
	assert.EqualValues(t, 1, atomic.LoadInt32(&api.calls), "overlapping loads must share one fetch")
}

func TestCatalogCancelledCallerDoesNotFailSharedFetch(t *testing.T) {
	api := newGatedAPI()
	ctrl := NewCatalogController(api, stores.NewHistoryStore(newTestDB(t), testLogger()), testLogger())

	firstCtx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := ctrl.Load(firstCtx, "PL1", "")
		firstErr <- err
	}()

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&api.calls) == 1
	}, time.Second, time.Millisecond)

	secondErr := make(chan error, 1)
	go func() {
		_, err := ctrl.Load(context.Background(), "PL1", "")
		secondErr <- err
	}()
	time.Sleep(20 * time.Millisecond)

	// The first caller goes away while the shared fetch is still in flight.
	cancel()
	close(api.gate)

	assert.NoError(t, <-secondErr, "a caller that did not cancel must still get the catalog")
	assert.NoError(t, <-firstErr)
	assert.EqualValues(t, 1, atomic.LoadInt32(&api.calls))
}
