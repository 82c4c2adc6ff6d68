package capture

import (
	"context"
	"errors"
)

// NoopEngine implements Engine but always returns an error to indicate that
// the headless browser is not available in the current build.
type NoopEngine struct{}

// NewNoopEngine creates a new NoopEngine.
func NewNoopEngine() *NoopEngine {
	return &NoopEngine{}
}

// Render returns an error since this is a stub implementation.
func (NoopEngine) Render(_ context.Context, _ string, _ RenderOptions, _ string) error {
	return errors.New("capture engine not configured")
}
