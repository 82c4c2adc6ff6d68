// Package delivery moves captured screenshot bytes to the HTTP client.
//
// Three interchangeable strategies exist: disk files served by path, an
// in-process UUID-keyed cache served by a lookup endpoint, and inline base64
// data URIs with no server-side state. One strategy is active per deployment.
package delivery

import (
	"context"
	"errors"

	"tweetshot/internal/capture"
)

// ErrNotFound signals a cache miss. Expected after a process restart, since
// the in-memory cache does not survive one; never more than a warning.
var ErrNotFound = errors.New("image not found")

// Reference points a caller at a stored capture. URL is either a routable
// path or a self-contained data URI, depending on the strategy.
type Reference struct {
	URL      string
	Filename string
}

// Strategy stores a capture and returns a reference the response can embed.
// Ownership of the result's bytes transfers to the strategy.
type Strategy interface {
	Store(ctx context.Context, res capture.Result) (Reference, error)
}

// Resolver serves stored bytes back by id. Only the in-memory cache
// implements it; the other strategies have no lookup step.
type Resolver interface {
	Resolve(id string) (CachedImage, error)
}

// CachedImage is one entry in the in-memory cache.
type CachedImage struct {
	ID       string
	Bytes    []byte
	Filename string
}

// IDGenerator produces cache keys (UUIDs).
type IDGenerator interface {
	NewID() (string, error)
}
