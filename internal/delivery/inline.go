package delivery

import (
	"context"
	"encoding/base64"

	"tweetshot/internal/capture"
)

const dataURIPrefix = "data:image/png;base64,"

// InlineStore embeds captures directly in the response as base64 data URIs.
// No server-side state, so it stays correct under multi-process deployment;
// the cost is ~33% payload inflation and no proxy cacheability.
type InlineStore struct{}

// NewInlineStore creates an InlineStore.
func NewInlineStore() *InlineStore {
	return &InlineStore{}
}

// Store encodes the capture as a data URI. The reference is the payload.
func (InlineStore) Store(_ context.Context, res capture.Result) (Reference, error) {
	return Reference{
		URL:      dataURIPrefix + base64.StdEncoding.EncodeToString(res.Bytes),
		Filename: res.Filename,
	}, nil
}

// IsDataURI reports whether a reference URL is an inline payload.
func IsDataURI(url string) bool {
	return len(url) >= len(dataURIPrefix) && url[:len(dataURIPrefix)] == dataURIPrefix
}

// DecodeDataURI returns the image bytes embedded in an inline reference.
func DecodeDataURI(url string) ([]byte, error) {
	if !IsDataURI(url) {
		return nil, ErrNotFound
	}
	data, err := base64.StdEncoding.DecodeString(url[len(dataURIPrefix):])
	if err != nil {
		return nil, err
	}
	return data, nil
}
