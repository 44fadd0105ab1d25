package application

import (
	"context"
	"errors"

	"github.com/bnema/drawloop/internal/domain"
	"github.com/bnema/drawloop/internal/ports"
)

var errNilSimilarityOracle = errors.New("similarity oracle is nil")

// SimilarityGate judges supervised results by text similarity between the
// intent and the caption. It never looks at caption confidence.
type SimilarityGate struct {
	oracle    ports.SimilarityOracle
	threshold float64
}

func NewSimilarityGate(oracle ports.SimilarityOracle, threshold float64) (*SimilarityGate, error) {
	if oracle == nil {
		return nil, errNilSimilarityOracle
	}

	return &SimilarityGate{oracle: oracle, threshold: threshold}, nil
}

func (g *SimilarityGate) Threshold() float64 {
	return g.threshold
}

func (g *SimilarityGate) Evaluate(ctx context.Context, intent, description string) (domain.Decision, error) {
	score, err := g.oracle.Similarity(ctx, intent, description)
	if err != nil {
		return domain.Decision{}, err
	}

	return domain.Decide(domain.SignalSimilarity, score, g.threshold), nil
}

// ConfidenceGate judges exploratory results by the captioner's own confidence.
type ConfidenceGate struct {
	Threshold float64
}

func (g ConfidenceGate) Evaluate(caption domain.Caption) domain.Decision {
	return domain.Decide(domain.SignalConfidence, caption.Confidence, g.Threshold)
}
