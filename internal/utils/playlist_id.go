package utils

import "regexp"

var playlistParamPattern = regexp.MustCompile(`[?&]list=([^&#]+)`)

// ExtractPlaylistID pulls the value of the first "list=" query parameter out
// of a URL-like string. The second return value is false when no such
// parameter exists. No validation of the extracted identifier is performed.
func ExtractPlaylistID(raw string) (string, bool) {
	m := playlistParamPattern.FindStringSubmatch(raw)
	if m == nil {
		return "", false
	}
	return m[1], true
}
