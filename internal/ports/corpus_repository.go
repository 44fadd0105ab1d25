package ports

import (
	"context"

	"github.com/bnema/drawloop/internal/domain"
)

type CorpusRepository interface {
	ListBuckets(ctx context.Context) ([]string, error)
	LoadBucket(ctx context.Context, bucket string) ([]domain.ExampleRecord, error)
	SaveBucket(ctx context.Context, bucket string, records []domain.ExampleRecord) error
}

type RunHistoryRepository interface {
	Append(ctx context.Context, summary domain.RunSummary) error
	List(ctx context.Context) ([]domain.RunSummary, error)
}
