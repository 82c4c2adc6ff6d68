// Package batch drives the JSON API from the command line, capturing a list
// of posts and downloading the resulting images.
package batch

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"tweetshot/internal/capture"
	"tweetshot/internal/delivery"
)

// Config controls a batch run.
type Config struct {
	// ServerURL is the base URL of the screenshot service.
	ServerURL string
	// OutputDir receives the downloaded images.
	OutputDir string
	// NightMode is the theme index sent with every request.
	NightMode int
	// Delay is the minimum spacing between requests.
	Delay time.Duration
}

// Summary tallies one batch run.
type Summary struct {
	Total     int
	Succeeded int
	Failed    []string
}

type screenshotRequest struct {
	TweetURL  string `json:"tweet_url"`
	NightMode int    `json:"night_mode"`
}

type screenshotResponse struct {
	Message       string `json:"message"`
	TweetURL      string `json:"tweet_url"`
	ScreenshotURL string `json:"screenshot_url"`
	Filename      string `json:"filename"`
	Error         string `json:"error"`
}

// Client submits capture requests and saves the images locally.
type Client struct {
	http    *resty.Client
	cfg     Config
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewClient builds a Client for the given server. A nil logger is replaced
// with a no-op one.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Delay <= 0 {
		cfg.Delay = time.Second
	}
	cfg.ServerURL = strings.TrimRight(cfg.ServerURL, "/")
	rc := resty.New().
		SetBaseURL(cfg.ServerURL).
		SetTimeout(2 * time.Minute)
	return &Client{
		http:    rc,
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Every(cfg.Delay), 1),
		logger:  logger,
	}
}

// Run captures every URL in order, pacing requests by the configured delay.
// A failed URL is recorded in the summary and does not stop the rest.
func (c *Client) Run(ctx context.Context, urls []string) (Summary, error) {
	if err := os.MkdirAll(c.cfg.OutputDir, 0o750); err != nil {
		return Summary{}, fmt.Errorf("create output dir: %w", err)
	}

	sum := Summary{Total: len(urls)}
	for _, u := range urls {
		if err := c.limiter.Wait(ctx); err != nil {
			return sum, err
		}
		if err := c.captureOne(ctx, u); err != nil {
			c.logger.Warn("capture failed", zap.String("url", u), zap.Error(err))
			sum.Failed = append(sum.Failed, u)
			continue
		}
		sum.Succeeded++
	}
	return sum, nil
}

func (c *Client) captureOne(ctx context.Context, url string) error {
	if !capture.IsValidPostURL(url) {
		return fmt.Errorf("not a post URL: %s", url)
	}

	var resp screenshotResponse
	res, err := c.http.R().
		SetContext(ctx).
		SetBody(screenshotRequest{TweetURL: url, NightMode: c.cfg.NightMode}).
		SetResult(&resp).
		SetError(&resp).
		Post("/api/screenshot")
	if err != nil {
		return fmt.Errorf("request: %w", err)
	}
	if res.StatusCode() != http.StatusOK {
		if resp.Error != "" {
			return fmt.Errorf("server: %s", resp.Error)
		}
		return fmt.Errorf("server returned %s", res.Status())
	}
	if resp.ScreenshotURL == "" {
		return fmt.Errorf("response missing screenshot_url")
	}

	img, err := c.fetchImage(ctx, resp.ScreenshotURL)
	if err != nil {
		return err
	}

	name := filepath.Base(resp.Filename)
	if name == "" || name == "." || name == string(filepath.Separator) {
		name = fmt.Sprintf("tweet_%d.png", time.Now().Unix())
	}
	path := filepath.Join(c.cfg.OutputDir, name)
	if err := os.WriteFile(path, img, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	c.logger.Info("saved screenshot",
		zap.String("url", url),
		zap.String("path", path),
		zap.Int("bytes", len(img)),
	)
	return nil
}

// fetchImage materializes a screenshot reference. Inline references decode
// locally; path references are fetched from the server.
func (c *Client) fetchImage(ctx context.Context, ref string) ([]byte, error) {
	if delivery.IsDataURI(ref) {
		return delivery.DecodeDataURI(ref)
	}
	res, err := c.http.R().SetContext(ctx).Get(ref)
	if err != nil {
		return nil, fmt.Errorf("download: %w", err)
	}
	if res.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("download returned %s", res.Status())
	}
	return res.Body(), nil
}

// ReadURLList loads one URL per line, skipping blanks and # comments.
func ReadURLList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var urls []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return urls, nil
}
