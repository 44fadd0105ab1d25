package ollama

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/bnema/drawloop/internal/domain"
	"github.com/bnema/drawloop/internal/ports"
)

type Similarity struct {
	client *Client
}

var _ ports.SimilarityOracle = (*Similarity)(nil)

func NewSimilarity(client *Client) *Similarity {
	return &Similarity{client: client}
}

// Similarity embeds both texts in one request and maps their cosine
// similarity into [0,1]; opposed vectors score 0.
func (s *Similarity) Similarity(ctx context.Context, a, b string) (float64, error) {
	vectors, err := s.client.embed(ctx, []string{a, b})
	if err != nil {
		return 0, oracleError("embed texts", err)
	}
	if len(vectors) != 2 {
		return 0, fmt.Errorf("%w: %w: expected 2 embeddings, got %d", domain.ErrOracleFailure, domain.ErrMalformedOracleOutput, len(vectors))
	}

	cosine, err := CosineSimilarity(vectors[0], vectors[1])
	if err != nil {
		return 0, fmt.Errorf("%w: %w: %w", domain.ErrOracleFailure, domain.ErrMalformedOracleOutput, err)
	}

	return clamp01(cosine), nil
}

// CosineSimilarity returns a value in [-1, 1].
func CosineSimilarity(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("vectors must have same length: %d vs %d", len(a), len(b))
	}
	if len(a) == 0 {
		return 0, errors.New("vectors cannot be empty")
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	normA = math.Sqrt(normA)
	normB = math.Sqrt(normB)
	if normA == 0 || normB == 0 {
		return 0, errors.New("vector norm cannot be zero")
	}

	return math.Max(-1, math.Min(1, dot/(normA*normB))), nil
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
