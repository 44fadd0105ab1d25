// Package chain tries a primary DSL converter and falls back to a second one.
package chain

import (
	"context"
	"errors"
	"fmt"

	"github.com/bnema/drawloop/internal/domain"
	"github.com/bnema/drawloop/internal/ports"
)

type Converter struct {
	primary  ports.DSLConverter
	fallback ports.DSLConverter
}

var _ ports.DSLConverter = (*Converter)(nil)

var (
	errNilPrimaryConverter  = errors.New("primary converter is nil")
	errNilFallbackConverter = errors.New("fallback converter is nil")
)

func NewConverter(primary ports.DSLConverter, fallback ports.DSLConverter) (*Converter, error) {
	if primary == nil {
		return nil, errNilPrimaryConverter
	}
	if fallback == nil {
		return nil, errNilFallbackConverter
	}

	return &Converter{primary: primary, fallback: fallback}, nil
}

func (c *Converter) ConvertToDSL(ctx context.Context, intent string, examples []domain.ExampleRecord) (string, error) {
	program, err := c.primary.ConvertToDSL(ctx, intent, examples)
	if err == nil {
		return program, nil
	}
	if shouldSkipFallback(err) {
		return "", err
	}

	fallbackProgram, fallbackErr := c.fallback.ConvertToDSL(ctx, intent, examples)
	if fallbackErr == nil {
		return fallbackProgram, nil
	}

	return "", fmt.Errorf("primary converter failed: %w; fallback converter failed: %w", err, fallbackErr)
}

func shouldSkipFallback(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
