package delivery

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"tweetshot/internal/capture"
)

func TestInlineStoreRoundTrip(t *testing.T) {
	t.Parallel()

	payload := []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a, 1, 2, 3}
	store := NewInlineStore()

	ref, err := store.Store(context.Background(), capture.Result{
		Bytes:    payload,
		Filename: "user_1_20240529133742.png",
	})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(ref.URL, "data:image/png;base64,"))
	require.Equal(t, "user_1_20240529133742.png", ref.Filename)

	decoded, err := DecodeDataURI(ref.URL)
	require.NoError(t, err)
	require.Equal(t, payload, decoded)
}

func TestDecodeDataURIRejectsOtherReferences(t *testing.T) {
	t.Parallel()

	_, err := DecodeDataURI("/image/some-id")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = DecodeDataURI("data:image/png;base64,!!!not-base64!!!")
	require.Error(t, err)
}
