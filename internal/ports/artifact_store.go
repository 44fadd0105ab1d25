package ports

import (
	"context"
	"image"
	"time"
)

type ArtifactStore interface {
	Save(ctx context.Context, kind string, img image.Image) (string, error)
	Prune(ctx context.Context, olderThan time.Time, dryRun bool) ([]string, error)
}
