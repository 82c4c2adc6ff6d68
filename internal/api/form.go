package api

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"tweetshot/internal/capture"
)

//go:embed templates/index.html
var templateFS embed.FS

var indexTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

// screenshotView is one rendered result row on the form page.
type screenshotView struct {
	URL           string
	ScreenshotURL template.URL
	Filename      string
	Error         string
}

type formData struct {
	ErrorMessage      string
	Screenshots       []screenshotView
	ScreenshotURL     template.URL
	Filename          string
	SubmittedTweetURL string
	SubmittedBulkURLs string
	SelectedNightMode string
	ShowEngagement    bool
	InputMode         string
}

func (s *Server) getIndex(w http.ResponseWriter, _ *http.Request) {
	s.renderForm(w, formData{
		SelectedNightMode: "2",
		InputMode:         "single",
	})
}

func (s *Server) postIndex(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form")
		return
	}

	inputMode := r.FormValue("input_mode")
	if inputMode == "" {
		inputMode = "single"
	}
	nightModeStr := r.FormValue("night_mode")
	if nightModeStr == "" {
		nightModeStr = "2"
	}
	choice := capture.ParseThemeChoice(nightModeStr, capture.ThemeBlack)
	lang := r.FormValue("lang")
	if lang == "" {
		lang = "en"
	}
	showEngagement := r.FormValue("show_engagement") == "on"

	s.logger.Info("form submission",
		zap.String("mode", inputMode),
		zap.String("night_mode", nightModeStr),
		zap.String("lang", lang),
	)

	data := formData{
		SelectedNightMode: nightModeStr,
		ShowEngagement:    showEngagement,
		InputMode:         inputMode,
	}

	if inputMode == "bulk" {
		s.handleBulk(w, r, data, choice, lang, showEngagement)
		return
	}
	s.handleSingle(w, r, data, choice, lang, showEngagement)
}

func (s *Server) handleSingle(
	w http.ResponseWriter,
	r *http.Request,
	data formData,
	choice capture.ThemeChoice,
	lang string,
	showEngagement bool,
) {
	tweetURL := strings.TrimSpace(r.FormValue("tweet_url"))
	data.SubmittedTweetURL = tweetURL

	switch {
	case tweetURL == "":
		data.ErrorMessage = "Please enter a Tweet URL."
	case !capture.IsValidPostURL(tweetURL):
		data.ErrorMessage = "Please enter a valid Tweet URL."
	default:
		ref, err := s.captureAndStore(r.Context(), capture.Request{
			URL:            tweetURL,
			Theme:          choice.Resolve(),
			Lang:           lang,
			ShowEngagement: showEngagement,
		})
		if err != nil {
			data.ErrorMessage = "Failed to capture screenshot. The post might be protected, deleted, or an error occurred."
		} else {
			data.Screenshots = append(data.Screenshots, screenshotView{
				URL:           tweetURL,
				ScreenshotURL: template.URL(ref.URL),
				Filename:      ref.Filename,
			})
			data.ScreenshotURL = template.URL(ref.URL)
			data.Filename = ref.Filename
		}
	}

	s.renderForm(w, data)
}

func (s *Server) handleBulk(
	w http.ResponseWriter,
	r *http.Request,
	data formData,
	choice capture.ThemeChoice,
	lang string,
	showEngagement bool,
) {
	bulkText := strings.TrimSpace(r.FormValue("bulk_tweet_urls"))
	data.SubmittedBulkURLs = bulkText

	urls := splitLines(bulkText)
	if len(urls) == 0 {
		data.ErrorMessage = "Please enter at least one Tweet URL for bulk processing."
		s.renderForm(w, data)
		return
	}

	var invalid []string
	for _, u := range urls {
		if !capture.IsValidPostURL(u) {
			invalid = append(invalid, "Invalid URL: "+u)
		}
	}
	if len(invalid) > 0 {
		// Any invalid line rejects the whole batch before a single capture
		// runs; the valid subset is not processed.
		data.ErrorMessage = "Some URLs were invalid: " + strings.Join(invalid, "; ")
		s.renderForm(w, data)
		return
	}

	for i, u := range urls {
		ref, err := s.captureAndStore(r.Context(), capture.Request{
			URL:            u,
			Theme:          choice.ResolveAt(i),
			Lang:           lang,
			ShowEngagement: showEngagement,
		})
		if err != nil {
			data.Screenshots = append(data.Screenshots, screenshotView{
				URL:   u,
				Error: "Failed to capture screenshot",
			})
			continue
		}
		data.Screenshots = append(data.Screenshots, screenshotView{
			URL:           u,
			ScreenshotURL: template.URL(ref.URL),
			Filename:      ref.Filename,
		})
	}

	s.renderForm(w, data)
}

func (s *Server) renderForm(w http.ResponseWriter, data formData) {
	var buf bytes.Buffer
	if err := indexTemplate.Execute(&buf, data); err != nil {
		s.logger.Error("render form failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := buf.WriteTo(w); err != nil {
		s.logger.Warn("write form response failed", zap.Error(err))
	}
}

func splitLines(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}
