package capture

import (
	"strings"
	"time"
)

const timestampLayout = "20060102150405"

// SuggestedFilename derives "<handle>_<postid>_<timestamp>.png" from the
// post URL. URLs that don't parse as an author/post-id pair fall back to a
// generic timestamped name.
func SuggestedFilename(rawURL string, now time.Time) string {
	ts := now.Format(timestampLayout)
	handle, postID, ok := splitPostURL(rawURL)
	if !ok {
		return "tweet_" + ts + ".png"
	}
	return handle + "_" + postID + "_" + ts + ".png"
}

// splitPostURL extracts the author handle and post id from a
// ".../<handle>/status/<id>" URL, ignoring any query string.
func splitPostURL(rawURL string) (handle, postID string, ok bool) {
	trimmed, _, _ := strings.Cut(rawURL, "?")
	parts := strings.Split(trimmed, "/")
	if len(parts) < 3 || parts[len(parts)-2] != "status" {
		return "", "", false
	}
	handle = parts[len(parts)-3]
	postID = parts[len(parts)-1]
	if handle == "" || postID == "" {
		return "", "", false
	}
	return handle, postID, true
}
