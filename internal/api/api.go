package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"tweetshot/internal/capture"
)

type screenshotRequest struct {
	TweetURL       string `json:"tweet_url"`
	NightMode      *int   `json:"night_mode"`
	Lang           string `json:"lang"`
	ShowEngagement bool   `json:"show_engagement"`
}

type screenshotResponse struct {
	Message       string `json:"message"`
	TweetURL      string `json:"tweet_url"`
	ScreenshotURL string `json:"screenshot_url"`
	Filename      string `json:"filename"`
}

// apiScreenshot handles the JSON entry point. The theme default here is
// Light, unlike the form's Black; the asymmetry is deliberate.
func (s *Server) apiScreenshot(w http.ResponseWriter, r *http.Request) {
	var req screenshotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if req.TweetURL == "" {
		writeError(w, http.StatusBadRequest, "missing tweet_url in JSON payload")
		return
	}
	if !capture.IsValidPostURL(req.TweetURL) {
		writeError(w, http.StatusBadRequest, "invalid tweet_url")
		return
	}

	theme := capture.ThemeLight
	if req.NightMode != nil {
		theme = capture.ThemeFromInt(*req.NightMode, capture.ThemeLight)
	}
	lang := req.Lang
	if lang == "" {
		lang = "en"
	}

	ref, err := s.captureAndStore(r.Context(), capture.Request{
		URL:            req.TweetURL,
		Theme:          theme,
		Lang:           lang,
		ShowEngagement: req.ShowEngagement,
	})
	if err != nil {
		if errors.Is(err, capture.ErrCaptureFailed) {
			writeError(w, http.StatusInternalServerError, "failed to capture screenshot")
			return
		}
		writeError(w, http.StatusInternalServerError, "an internal error occurred")
		return
	}

	writeJSON(w, http.StatusOK, screenshotResponse{
		Message:       "Screenshot captured successfully",
		TweetURL:      req.TweetURL,
		ScreenshotURL: ref.URL,
		Filename:      ref.Filename,
	})
}
