package toml

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/bnema/drawloop/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCorpusRepositoryRoundTrip(t *testing.T) {
	t.Parallel()

	repo, err := NewCorpusRepository(t.TempDir())
	require.NoError(t, err)

	created := time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC)
	records := []domain.ExampleRecord{
		{
			Intent:      "a red circle",
			DSL:         "set_background(color=\"white\")\nfill_circle(x=60, y=60, radius=40, color=\"red\")",
			Description: "a red circle on white background",
			Provenance: &domain.Provenance{
				Confidence: 0.82,
				Source:     domain.SourceSupervised,
				ImagePath:  "/tmp/out/supervised.png",
				CreatedAt:  created,
			},
		},
		{
			Intent:      "a blue shape",
			DSL:         "draw_rect(x=1, y=2, w=3, h=4, color=\"blue\")",
			Description: "a blue square",
		},
	}

	require.NoError(t, repo.SaveBucket(context.Background(), "examples", records))

	got, err := repo.LoadBucket(context.Background(), "examples")
	require.NoError(t, err)
	assert.Equal(t, records, got)
}

func TestCorpusRepositoryMissingBucketIsEmpty(t *testing.T) {
	t.Parallel()

	repo, err := NewCorpusRepository(filepath.Join(t.TempDir(), "not-created"))
	require.NoError(t, err)

	got, err := repo.LoadBucket(context.Background(), "examples")
	require.NoError(t, err)
	assert.Empty(t, got)

	buckets, err := repo.ListBuckets(context.Background())
	require.NoError(t, err)
	assert.Empty(t, buckets)
}

func TestCorpusRepositoryRejectsInvalidBuckets(t *testing.T) {
	t.Parallel()

	repo, err := NewCorpusRepository(t.TempDir())
	require.NoError(t, err)

	for _, bucket := range []string{"", "../escape", "Upper", "with space", "a/b"} {
		err := repo.SaveBucket(context.Background(), bucket, nil)
		require.ErrorIs(t, err, domain.ErrInvalidBucket, bucket)
	}
}

func TestCorpusRepositoryListBucketsSkipsForeignFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	repo, err := NewCorpusRepository(dir)
	require.NoError(t, err)

	require.NoError(t, repo.SaveBucket(context.Background(), "shapes", nil))
	require.NoError(t, repo.SaveBucket(context.Background(), "examples", nil))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o600))

	buckets, err := repo.ListBuckets(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"examples", "shapes"}, buckets)
}

func TestCorpusRepositoryRejectsNewerSchemaVersion(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "examples.toml"), []byte("version = 9\n"), 0o600))

	repo, err := NewCorpusRepository(dir)
	require.NoError(t, err)

	_, err = repo.LoadBucket(context.Background(), "examples")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported corpus schema version 9")
}

func TestCorpusRepositoryWritesRestrictedFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	repo, err := NewCorpusRepository(dir)
	require.NoError(t, err)

	require.NoError(t, repo.SaveBucket(context.Background(), "examples", []domain.ExampleRecord{{Intent: "a", DSL: "b"}}))

	info, err := os.Stat(filepath.Join(dir, "examples.toml"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(corpusFileMode), info.Mode().Perm())

	leftovers, err := filepath.Glob(filepath.Join(dir, ".drawloop-*"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestCorpusRepositoryConcurrentSavesLeaveValidFile(t *testing.T) {
	t.Parallel()

	repo, err := NewCorpusRepository(t.TempDir())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			records := []domain.ExampleRecord{{Intent: "intent " + strconv.Itoa(i), DSL: "fill_rect()"}}
			assert.NoError(t, repo.SaveBucket(context.Background(), "examples", records))
		}()
	}
	wg.Wait()

	got, err := repo.LoadBucket(context.Background(), "examples")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Contains(t, got[0].Intent, "intent ")
}

func TestCorpusRepositoryHonorsCanceledContext(t *testing.T) {
	t.Parallel()

	repo, err := NewCorpusRepository(t.TempDir())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = repo.SaveBucket(ctx, "examples", nil)
	require.ErrorIs(t, err, context.Canceled)
}

func TestHistoryRepositoryKeepsMostRecentRuns(t *testing.T) {
	t.Parallel()

	repo, err := NewHistoryRepository(filepath.Join(t.TempDir(), "runs.toml"), 2)
	require.NoError(t, err)

	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	for i := range 3 {
		require.NoError(t, repo.Append(context.Background(), domain.RunSummary{
			StartedAt:  start.Add(time.Duration(i) * time.Hour),
			FinishedAt: start.Add(time.Duration(i)*time.Hour + time.Minute),
			Processed:  i + 1,
			Accepted:   i,
		}))
	}

	runs, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, 2, runs[0].Processed)
	assert.Equal(t, 3, runs[1].Processed)
	assert.Equal(t, time.Minute, runs[1].Duration())
}
