package application

import (
	"context"
	"errors"
	"time"

	"github.com/bnema/drawloop/internal/domain"
	"github.com/bnema/drawloop/internal/ports"
)

type CurationResult struct {
	Rule     string
	Decision domain.Decision
	Assigned bool
}

// Curator files accepted supervised examples into rule buckets using the
// same similarity gate that accepted them.
type Curator struct {
	gate    *SimilarityGate
	store   *ExampleStore
	rules   []domain.Rule
	timeout time.Duration
	log     ports.Logger
}

func NewCurator(gate *SimilarityGate, store *ExampleStore, rules []domain.Rule, timeout time.Duration, log ports.Logger) *Curator {
	if log == nil {
		log = ports.NopLogger{}
	}

	return &Curator{gate: gate, store: store, rules: rules, timeout: timeout, log: log}
}

func (c *Curator) Rules() []domain.Rule {
	return c.rules
}

// Curate scores the record's intent against every rule description and
// appends the record to the best-scoring rule bucket that passes the gate.
// Rules whose scoring fails are skipped.
func (c *Curator) Curate(ctx context.Context, record domain.ExampleRecord) (CurationResult, error) {
	var (
		best  CurationResult
		found bool
	)

	for _, rule := range c.rules {
		decision, err := c.evaluate(ctx, rule, record)
		if err != nil {
			if ctx.Err() != nil {
				return CurationResult{}, ctx.Err()
			}
			c.log.Warn("curation scoring failed", "rule", rule.Name, "error", err)
			continue
		}
		if !decision.Accepted() {
			continue
		}
		if !found || decision.Score > best.Decision.Score {
			best = CurationResult{Rule: rule.Name, Decision: decision}
			found = true
		}
	}

	if !found {
		return CurationResult{}, nil
	}

	err := c.store.Append(ctx, best.Rule, record)
	if err != nil && !errors.Is(err, domain.ErrPersistence) {
		return best, err
	}
	best.Assigned = true
	c.log.Info("example curated", "rule", best.Rule, "score", best.Decision.Score)

	return best, err
}

func (c *Curator) evaluate(ctx context.Context, rule domain.Rule, record domain.ExampleRecord) (domain.Decision, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	return c.gate.Evaluate(ctx, record.Intent, rule.Description)
}
