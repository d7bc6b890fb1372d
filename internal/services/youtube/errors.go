package youtube

import (
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/api/googleapi"
)

var (
	// ErrMissingAPIKey indicates no credential was supplied. This is a
	// configuration error and is raised before any network call.
	ErrMissingAPIKey = errors.New("youtube: api key is required")

	// ErrPlaylistNotFound indicates the playlist lookup returned zero items,
	// which covers both "does not exist" and "private".
	ErrPlaylistNotFound = errors.New("youtube: playlist not found")
)

// UpstreamError is a non-success response from the YouTube Data API. Message
// carries the API's reported error text when present.
type UpstreamError struct {
	StatusCode int
	Message    string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("youtube: upstream error %d: %s", e.StatusCode, e.Message)
}

// wrapAPIError converts googleapi errors into UpstreamError, passing the
// API's own message through. Other errors are returned unchanged.
func wrapAPIError(err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		msg := gerr.Message
		if msg == "" {
			msg = http.StatusText(gerr.Code)
		}
		return &UpstreamError{StatusCode: gerr.Code, Message: msg}
	}
	return err
}
