package ports

import (
	"context"
	"image"

	"github.com/bnema/drawloop/internal/domain"
)

type DSLConverter interface {
	ConvertToDSL(ctx context.Context, intent string, examples []domain.ExampleRecord) (string, error)
}

type Captioner interface {
	Describe(ctx context.Context, img image.Image) (domain.Caption, error)
}

// SimilarityOracle scores two texts in [0,1].
type SimilarityOracle interface {
	Similarity(ctx context.Context, a, b string) (float64, error)
}
