package delivery

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"tweetshot/internal/capture"
)

func TestDiskStoreWritesUnderSuggestedFilename(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store, err := NewDiskStore(dir)
	require.NoError(t, err)

	payload := []byte("png bytes")
	ref, err := store.Store(context.Background(), capture.Result{
		Bytes:    payload,
		Filename: "user_1_20240529133742.png",
	})
	require.NoError(t, err)
	require.Equal(t, "/screenshots/user_1_20240529133742.png", ref.URL)

	data, err := os.ReadFile(filepath.Join(dir, "user_1_20240529133742.png"))
	require.NoError(t, err)
	require.Equal(t, payload, data)
}

func TestDiskStoreSanitizesFilename(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store, err := NewDiskStore(dir)
	require.NoError(t, err)

	ref, err := store.Store(context.Background(), capture.Result{
		Bytes:    []byte("x"),
		Filename: "../../escape.png",
	})
	require.NoError(t, err)
	require.Equal(t, "/screenshots/escape.png", ref.URL)

	_, err = os.Stat(filepath.Join(dir, "escape.png"))
	require.NoError(t, err)
}

func TestNewDiskStoreRequiresDir(t *testing.T) {
	t.Parallel()

	_, err := NewDiskStore("  ")
	require.Error(t, err)
}
