package file

import (
	"context"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time {
	return c.now
}

func testImage() image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.NRGBA{R: 255, A: 255})
	return img
}

func TestStoreRejectsInvalidKinds(t *testing.T) {
	t.Parallel()

	store := NewStore(t.TempDir(), nil)
	for _, kind := range []string{"", "   ", "../escape", "Upper", "a/b"} {
		_, err := store.Save(context.Background(), kind, testImage())
		require.Error(t, err, kind)
		assert.ErrorContains(t, err, "invalid artifact kind")
	}
}

func TestStoreSaveWritesUniqueTimestampedFiles(t *testing.T) {
	t.Parallel()

	root := filepath.Join(t.TempDir(), "outputs")
	now := time.Date(2026, 3, 1, 14, 5, 9, 123_000_000, time.UTC)
	store := NewStore(root, fixedClock{now: now})

	first, err := store.Save(context.Background(), "exploration", testImage())
	require.NoError(t, err)
	second, err := store.Save(context.Background(), "exploration", testImage())
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.True(t, strings.HasPrefix(filepath.Base(first), "exploration_20260301_140509_123_"))
	assert.Equal(t, ".png", filepath.Ext(first))

	data, err := os.ReadFile(first)
	require.NoError(t, err)
	assert.Equal(t, "\x89PNG", string(data[:4]))

	leftovers, err := filepath.Glob(filepath.Join(root, "*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestStorePruneRemovesOnlyOldImages(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	store := NewStore(root, nil)

	oldPath, err := store.Save(context.Background(), "supervised", testImage())
	require.NoError(t, err)
	freshPath, err := store.Save(context.Background(), "supervised", testImage())
	require.NoError(t, err)
	notes := filepath.Join(root, "notes.txt")
	require.NoError(t, os.WriteFile(notes, []byte("keep"), 0o600))

	past := time.Now().Add(-10 * 24 * time.Hour)
	require.NoError(t, os.Chtimes(oldPath, past, past))
	require.NoError(t, os.Chtimes(notes, past, past))

	cutoff := time.Now().Add(-7 * 24 * time.Hour)

	listed, err := store.Prune(context.Background(), cutoff, true)
	require.NoError(t, err)
	assert.Equal(t, []string{oldPath}, listed)
	assert.FileExists(t, oldPath)

	pruned, err := store.Prune(context.Background(), cutoff, false)
	require.NoError(t, err)
	assert.Equal(t, []string{oldPath}, pruned)
	assert.NoFileExists(t, oldPath)
	assert.FileExists(t, freshPath)
	assert.FileExists(t, notes)
}

func TestStorePruneMissingDirectoryIsEmpty(t *testing.T) {
	t.Parallel()

	store := NewStore(filepath.Join(t.TempDir(), "missing"), nil)
	pruned, err := store.Prune(context.Background(), time.Now(), false)
	require.NoError(t, err)
	assert.Empty(t, pruned)
}
