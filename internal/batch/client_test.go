package batch

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const testPNG = "not really a png"

type fakeServer struct {
	mu       sync.Mutex
	requests []string
	failURLs map[string]bool
	inline   bool
}

func (f *fakeServer) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/screenshot", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			TweetURL  string `json:"tweet_url"`
			NightMode int    `json:"night_mode"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		f.mu.Lock()
		f.requests = append(f.requests, req.TweetURL)
		fail := f.failURLs[req.TweetURL]
		f.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		if fail {
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(map[string]string{"error": "failed to capture screenshot"})
			return
		}
		ref := "/image/abc123"
		if f.inline {
			ref = "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte(testPNG))
		}
		json.NewEncoder(w).Encode(map[string]string{
			"message":        "Screenshot captured successfully",
			"tweet_url":      req.TweetURL,
			"screenshot_url": ref,
			"filename":       "user_123_20240529133742.png",
		})
	})
	mux.HandleFunc("GET /image/abc123", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte(testPNG))
	})
	return mux
}

func (f *fakeServer) requestCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func newTestClient(t *testing.T, fs *fakeServer) (*Client, string) {
	t.Helper()
	ts := httptest.NewServer(fs.handler())
	t.Cleanup(ts.Close)
	dir := t.TempDir()
	return NewClient(Config{
		ServerURL: ts.URL,
		OutputDir: dir,
		NightMode: 2,
		Delay:     time.Millisecond,
	}, nil), dir
}

func TestRunDownloadsInlineImages(t *testing.T) {
	t.Parallel()

	fs := &fakeServer{failURLs: map[string]bool{}, inline: true}
	client, dir := newTestClient(t, fs)

	sum, err := client.Run(context.Background(), []string{"https://x.com/user/status/123"})
	require.NoError(t, err)
	require.Equal(t, 1, sum.Total)
	require.Equal(t, 1, sum.Succeeded)
	require.Empty(t, sum.Failed)

	data, err := os.ReadFile(filepath.Join(dir, "user_123_20240529133742.png"))
	require.NoError(t, err)
	require.Equal(t, testPNG, string(data))
}

func TestRunDownloadsServedImages(t *testing.T) {
	t.Parallel()

	fs := &fakeServer{failURLs: map[string]bool{}}
	client, dir := newTestClient(t, fs)

	sum, err := client.Run(context.Background(), []string{"https://x.com/user/status/123"})
	require.NoError(t, err)
	require.Equal(t, 1, sum.Succeeded)

	data, err := os.ReadFile(filepath.Join(dir, "user_123_20240529133742.png"))
	require.NoError(t, err)
	require.Equal(t, testPNG, string(data))
}

func TestRunContinuesPastFailures(t *testing.T) {
	t.Parallel()

	fs := &fakeServer{
		failURLs: map[string]bool{"https://x.com/b/status/2": true},
		inline:   true,
	}
	client, _ := newTestClient(t, fs)

	urls := []string{
		"https://x.com/a/status/1",
		"https://x.com/b/status/2",
		"https://x.com/c/status/3",
	}
	sum, err := client.Run(context.Background(), urls)
	require.NoError(t, err)
	require.Equal(t, 3, sum.Total)
	require.Equal(t, 2, sum.Succeeded)
	require.Equal(t, []string{"https://x.com/b/status/2"}, sum.Failed)
	require.Equal(t, 3, fs.requestCount())
}

func TestRunSkipsInvalidURLWithoutRequest(t *testing.T) {
	t.Parallel()

	fs := &fakeServer{failURLs: map[string]bool{}, inline: true}
	client, _ := newTestClient(t, fs)

	sum, err := client.Run(context.Background(), []string{"https://example.com/nope"})
	require.NoError(t, err)
	require.Equal(t, 0, sum.Succeeded)
	require.Len(t, sum.Failed, 1)
	require.Equal(t, 0, fs.requestCount())
}

func TestRunHonorsContextCancellation(t *testing.T) {
	t.Parallel()

	fs := &fakeServer{failURLs: map[string]bool{}, inline: true}
	ts := httptest.NewServer(fs.handler())
	t.Cleanup(ts.Close)

	client := NewClient(Config{
		ServerURL: ts.URL,
		OutputDir: t.TempDir(),
		Delay:     time.Hour,
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	urls := []string{
		"https://x.com/a/status/1",
		"https://x.com/b/status/2",
	}
	_, err := client.Run(ctx, urls)
	require.Error(t, err)
}

func TestReadURLList(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "urls.txt")
	content := "https://x.com/a/status/1\n\n# a comment\n  https://x.com/b/status/2  \n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	urls, err := ReadURLList(path)
	require.NoError(t, err)
	require.Equal(t, []string{
		"https://x.com/a/status/1",
		"https://x.com/b/status/2",
	}, urls)
}

func TestReadURLListMissingFile(t *testing.T) {
	t.Parallel()

	_, err := ReadURLList(filepath.Join(t.TempDir(), "nope.txt"))
	require.Error(t, err)
}
