package capture

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// EngineConfig controls the chromedp capture engine.
type EngineConfig struct {
	// ExecPath points at the Chrome/Chromium binary. When empty or missing
	// on disk, chromedp's own executable discovery is used.
	ExecPath     string
	NavTimeout   time.Duration
	WaitSelector string
}

// ChromedpEngine renders posts with headless Chrome and screenshots the
// post element.
type ChromedpEngine struct {
	cfg         EngineConfig
	allocator   context.Context
	allocCancel context.CancelFunc
	logger      *zap.Logger
}

// NewChromedpEngine creates an engine backed by a shared exec allocator.
func NewChromedpEngine(cfg EngineConfig, logger *zap.Logger) (*ChromedpEngine, error) {
	if cfg.NavTimeout <= 0 {
		cfg.NavTimeout = 45 * time.Second
	}
	if cfg.WaitSelector == "" {
		cfg.WaitSelector = "article"
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", "new"),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("hide-scrollbars", true),
		chromedp.Flag("enable-automation", false),
	)
	if cfg.ExecPath != "" {
		if _, err := os.Stat(cfg.ExecPath); err == nil {
			opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
		} else {
			logger.Warn("chrome executable not found, using default discovery",
				zap.String("path", cfg.ExecPath))
		}
	}
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)

	return &ChromedpEngine{
		cfg:         cfg,
		allocator:   allocCtx,
		allocCancel: allocCancel,
		logger:      logger,
	}, nil
}

// Close cancels the allocator context.
func (e *ChromedpEngine) Close() {
	e.allocCancel()
}

// Render navigates to the post, applies theme/language/engagement options
// and writes an element screenshot to outPath. The navigation timeout is the
// only timeout on this path.
func (e *ChromedpEngine) Render(ctx context.Context, url string, opts RenderOptions, outPath string) error {
	taskCtx, taskCancel := chromedp.NewContext(e.allocator)
	defer taskCancel()

	taskCtx, cancel := context.WithTimeout(taskCtx, e.cfg.NavTimeout)
	defer cancel()

	go func() {
		select {
		case <-ctx.Done():
			taskCancel()
		case <-taskCtx.Done():
		}
	}()

	var buf []byte
	actions := []chromedp.Action{
		e.setupAction(opts),
		chromedp.EmulateViewport(800, 1400),
		chromedp.Navigate(url),
		chromedp.WaitVisible(e.cfg.WaitSelector, chromedp.ByQuery),
		chromedp.Sleep(time.Second),
		e.styleAction(opts),
		chromedp.Screenshot(e.cfg.WaitSelector, &buf, chromedp.NodeVisible, chromedp.ByQuery),
	}
	if err := chromedp.Run(taskCtx, actions...); err != nil {
		return fmt.Errorf("chromedp run: %w", err)
	}
	if err := os.WriteFile(outPath, buf, 0o644); err != nil {
		return fmt.Errorf("write capture: %w", err)
	}
	return nil
}

func (e *ChromedpEngine) setupAction(opts RenderOptions) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		if err := network.Enable().Do(ctx); err != nil {
			return fmt.Errorf("enable network domain: %w", err)
		}
		lang := opts.Lang
		if lang == "" {
			lang = "en"
		}
		headers := network.Headers{"Accept-Language": lang}
		if err := network.SetExtraHTTPHeaders(headers).Do(ctx); err != nil {
			return fmt.Errorf("set accept-language: %w", err)
		}
		scheme := "light"
		if opts.Theme != ThemeLight {
			scheme = "dark"
		}
		err := emulation.SetEmulatedMedia().
			WithFeatures([]*emulation.MediaFeature{
				{Name: "prefers-color-scheme", Value: scheme},
			}).
			Do(ctx)
		if err != nil {
			return fmt.Errorf("emulate color scheme: %w", err)
		}
		return nil
	})
}

// styleAction injects CSS for the black theme and engagement visibility.
// The dark/black distinction and the metric counters are not reachable
// through emulation alone.
func (e *ChromedpEngine) styleAction(opts RenderOptions) chromedp.Action {
	var rules string
	if opts.Theme == ThemeBlack {
		rules += "body, article { background-color: #000 !important; }\n"
	}
	if !opts.ShowEngagement {
		rules += "article [role=\"group\"] { display: none !important; }\n"
	}
	if rules == "" {
		return chromedp.ActionFunc(func(context.Context) error { return nil })
	}
	script := fmt.Sprintf(
		`(() => { const s = document.createElement("style"); s.textContent = %q; document.head.appendChild(s); })()`,
		rules,
	)
	return chromedp.Evaluate(script, nil)
}
