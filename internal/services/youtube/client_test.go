package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

// newStubClient points a Client at a stub of the YouTube Data API.
func newStubClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	client, err := NewClient(context.Background(), "test-key", testLogger(), option.WithEndpoint(ts.URL))
	if err != nil {
		t.Fatalf("NewClient() failed: %v", err)
	}
	return client
}

func writeJSON(t *testing.T, w http.ResponseWriter, v interface{}) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Errorf("encode stub response: %v", err)
	}
}

func TestNewClientRequiresKey(t *testing.T) {
	_, err := NewClient(context.Background(), "", testLogger())
	if !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("NewClient() error = %v, want ErrMissingAPIKey", err)
	}
}

func TestGetPlaylist(t *testing.T) {
	client := newStubClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/playlists") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		writeJSON(t, w, map[string]interface{}{
			"items": []map[string]interface{}{
				{"snippet": map[string]string{
					"title":        "Go Lectures",
					"description":  "A course",
					"channelTitle": "Some Channel",
				}},
			},
		})
	}))

	meta, err := client.GetPlaylist(context.Background(), "PL123")
	if err != nil {
		t.Fatalf("GetPlaylist() failed: %v", err)
	}
	if meta.Title != "Go Lectures" || meta.ChannelTitle != "Some Channel" {
		t.Errorf("unexpected metadata: %+v", meta)
	}
}

func TestGetPlaylistNotFound(t *testing.T) {
	client := newStubClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]interface{}{"items": []interface{}{}})
	}))

	_, err := client.GetPlaylist(context.Background(), "PLmissing")
	if !errors.Is(err, ErrPlaylistNotFound) {
		t.Fatalf("GetPlaylist() error = %v, want ErrPlaylistNotFound", err)
	}
}

func TestGetPlaylistUpstreamError(t *testing.T) {
	client := newStubClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"error":{"code":403,"message":"The request cannot be completed because you have exceeded your quota."}}`)
	}))

	_, err := client.GetPlaylist(context.Background(), "PL123")
	var uerr *UpstreamError
	if !errors.As(err, &uerr) {
		t.Fatalf("GetPlaylist() error = %v, want UpstreamError", err)
	}
	if uerr.StatusCode != http.StatusForbidden {
		t.Errorf("StatusCode = %d, want 403", uerr.StatusCode)
	}
	if !strings.Contains(uerr.Message, "exceeded your quota") {
		t.Errorf("Message %q should pass the API error text through", uerr.Message)
	}
}

func TestListPlaylistItemsPagination(t *testing.T) {
	// Two pages: 50 items then 10, joined by a continuation token.
	client := newStubClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/playlistItems") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}

		var items []map[string]interface{}
		resp := map[string]interface{}{}
		switch r.URL.Query().Get("pageToken") {
		case "":
			for i := 0; i < 50; i++ {
				items = append(items, map[string]interface{}{
					"contentDetails": map[string]string{"videoId": fmt.Sprintf("v%02d", i)},
				})
			}
			resp["nextPageToken"] = "page2"
		case "page2":
			for i := 50; i < 60; i++ {
				items = append(items, map[string]interface{}{
					"contentDetails": map[string]string{"videoId": fmt.Sprintf("v%02d", i)},
				})
			}
		default:
			t.Errorf("unexpected pageToken %q", r.URL.Query().Get("pageToken"))
		}
		resp["items"] = items
		writeJSON(t, w, resp)
	}))

	ids, err := client.ListPlaylistItems(context.Background(), "PL123")
	if err != nil {
		t.Fatalf("ListPlaylistItems() failed: %v", err)
	}

	if len(ids) != 60 {
		t.Fatalf("got %d IDs, want 60", len(ids))
	}
	seen := make(map[string]bool)
	for i, id := range ids {
		want := fmt.Sprintf("v%02d", i)
		if id != want {
			t.Fatalf("ids[%d] = %q, want %q (order must be preserved)", i, id, want)
		}
		if seen[id] {
			t.Fatalf("duplicate ID %q", id)
		}
		seen[id] = true
	}
}

func TestGetVideoDetailsChunking(t *testing.T) {
	var batchSizes []int
	client := newStubClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/videos") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}

		ids := r.URL.Query()["id"]
		batchSizes = append(batchSizes, len(ids))

		var items []map[string]interface{}
		for _, id := range ids {
			items = append(items, map[string]interface{}{
				"id": id,
				"snippet": map[string]interface{}{
					"title":        "Video " + id,
					"channelTitle": "Chan",
					"publishedAt":  "2024-03-01T12:00:00Z",
				},
				"contentDetails": map[string]string{"duration": "PT4M13S"},
			})
		}
		writeJSON(t, w, map[string]interface{}{"items": items})
	}))

	ids := make([]string, 60)
	for i := range ids {
		ids[i] = fmt.Sprintf("v%02d", i)
	}

	details, err := client.GetVideoDetails(context.Background(), ids)
	if err != nil {
		t.Fatalf("GetVideoDetails() failed: %v", err)
	}

	if len(details) != 60 {
		t.Fatalf("got %d details, want 60", len(details))
	}
	if len(batchSizes) != 2 || batchSizes[0] != 50 || batchSizes[1] != 10 {
		t.Errorf("batch sizes = %v, want [50 10]", batchSizes)
	}
	d := details["v07"]
	if d.Title != "Video v07" || d.Duration != "PT4M13S" {
		t.Errorf("unexpected detail: %+v", d)
	}
	if d.PublishedAt.IsZero() {
		t.Errorf("PublishedAt should be parsed")
	}
}

func TestChunkIDs(t *testing.T) {
	tests := []struct {
		name  string
		count int
		size  int
		want  []int
	}{
		{"empty", 0, 50, nil},
		{"single partial", 10, 50, []int{10}},
		{"exact", 50, 50, []int{50}},
		{"two chunks", 60, 50, []int{50, 10}},
		{"three chunks", 101, 50, []int{50, 50, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ids := make([]string, tt.count)
			for i := range ids {
				ids[i] = fmt.Sprintf("v%d", i)
			}

			chunks := chunkIDs(ids, tt.size)
			if len(chunks) != len(tt.want) {
				t.Fatalf("got %d chunks, want %d", len(chunks), len(tt.want))
			}
			for i, chunk := range chunks {
				if len(chunk) != tt.want[i] {
					t.Errorf("chunk %d has %d IDs, want %d", i, len(chunk), tt.want[i])
				}
			}
			// Concatenation must reproduce the input order.
			idx := 0
			for _, chunk := range chunks {
				for _, id := range chunk {
					if id != ids[idx] {
						t.Fatalf("chunk order broken at %d", idx)
					}
					idx++
				}
			}
		})
	}
}
