package capture

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"
)

// Invoker stages a temp file for the engine, reads the capture back into
// memory and guarantees the staging file is removed on every exit path.
type Invoker struct {
	engine   Engine
	clock    Clock
	minBytes int
	logger   *zap.Logger
}

// NewInvoker constructs an Invoker. minBytes guards against probably-corrupt
// captures; values <= 0 select the default threshold.
func NewInvoker(engine Engine, clock Clock, minBytes int, logger *zap.Logger) *Invoker {
	if minBytes <= 0 {
		minBytes = 1000
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Invoker{
		engine:   engine,
		clock:    clock,
		minBytes: minBytes,
		logger:   logger,
	}
}

// Capture renders the post once and returns the image bytes plus a suggested
// filename. No retry is performed; engine errors are logged in full and
// surfaced as ErrCaptureFailed.
func (iv *Invoker) Capture(ctx context.Context, req Request) (Result, error) {
	f, err := os.CreateTemp("", "tweetshot-*.png")
	if err != nil {
		return Result{}, fmt.Errorf("stage temp file: %w", err)
	}
	path := f.Name()
	if err := f.Close(); err != nil {
		iv.removeStaging(path)
		return Result{}, fmt.Errorf("close temp file: %w", err)
	}
	defer iv.removeStaging(path)

	opts := RenderOptions{
		Theme:          req.Theme,
		Lang:           req.Lang,
		ShowEngagement: req.ShowEngagement,
	}
	if err := iv.engine.Render(ctx, req.URL, opts, path); err != nil {
		iv.logger.Error("engine render failed",
			zap.String("url", req.URL),
			zap.Stringer("theme", req.Theme),
			zap.Error(err),
		)
		return Result{}, ErrCaptureFailed
	}

	data, err := os.ReadFile(path)
	if err != nil {
		iv.logger.Error("read staged capture failed",
			zap.String("url", req.URL),
			zap.Error(err),
		)
		return Result{}, ErrCaptureFailed
	}
	if len(data) == 0 {
		iv.logger.Error("engine produced empty capture", zap.String("url", req.URL))
		return Result{}, ErrCaptureFailed
	}
	if len(data) < iv.minBytes {
		iv.logger.Warn("capture suspiciously small",
			zap.String("url", req.URL),
			zap.Int("bytes", len(data)),
		)
	}

	return Result{
		Bytes:    data,
		Filename: SuggestedFilename(req.URL, iv.clock.Now()),
	}, nil
}

func (iv *Invoker) removeStaging(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		iv.logger.Warn("temp file cleanup failed",
			zap.String("path", path),
			zap.Error(err),
		)
	}
}
