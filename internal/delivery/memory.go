package delivery

import (
	"context"
	"fmt"
	"sync"

	"tweetshot/internal/capture"
	"tweetshot/internal/metrics"
)

// MemoryCache keeps captures in a process-wide map keyed by generated UUID.
// Inserts are append-only under unique keys and there is no delete path, so
// concurrent readers and writers cannot conflict beyond what the RWMutex
// serializes. Entries live until process restart: no eviction is
// implemented, which is a known resource leak under sustained load, and the
// map is not shared across worker processes.
type MemoryCache struct {
	mu     sync.RWMutex
	images map[string]CachedImage
	idGen  IDGenerator
}

// NewMemoryCache creates an empty cache using idGen for keys.
func NewMemoryCache(idGen IDGenerator) *MemoryCache {
	return &MemoryCache{
		images: make(map[string]CachedImage),
		idGen:  idGen,
	}
}

// Store inserts the capture under a fresh id and returns the lookup URL.
func (c *MemoryCache) Store(_ context.Context, res capture.Result) (Reference, error) {
	id, err := c.idGen.NewID()
	if err != nil {
		return Reference{}, fmt.Errorf("generate image id: %w", err)
	}

	c.mu.Lock()
	c.images[id] = CachedImage{ID: id, Bytes: res.Bytes, Filename: res.Filename}
	size := len(c.images)
	c.mu.Unlock()

	metrics.SetCacheSize(size)

	return Reference{
		URL:      "/image/" + id,
		Filename: res.Filename,
	}, nil
}

// Resolve returns the cached entry for id, or ErrNotFound.
func (c *MemoryCache) Resolve(id string) (CachedImage, error) {
	c.mu.RLock()
	img, ok := c.images[id]
	c.mu.RUnlock()
	if !ok {
		return CachedImage{}, ErrNotFound
	}
	return img, nil
}

// Len reports the number of cached entries.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.images)
}
