package delivery

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"tweetshot/internal/capture"
)

// DiskStore writes captures under a configured directory and references them
// by a static-file path. Stale files accumulate; retention is the operator's
// problem.
type DiskStore struct {
	dir string
}

// NewDiskStore creates a DiskStore and ensures the directory exists.
func NewDiskStore(dir string) (*DiskStore, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("screenshot directory is required")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create screenshot directory: %w", err)
	}
	return &DiskStore{dir: dir}, nil
}

// Dir returns the directory screenshots are written to.
func (s *DiskStore) Dir() string {
	return s.dir
}

// Store writes the capture under its suggested filename.
func (s *DiskStore) Store(_ context.Context, res capture.Result) (Reference, error) {
	name := filepath.Base(res.Filename)
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, res.Bytes, 0o644); err != nil {
		return Reference{}, fmt.Errorf("write screenshot: %w", err)
	}
	return Reference{
		URL:      "/screenshots/" + name,
		Filename: name,
	}, nil
}
