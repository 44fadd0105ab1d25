// Package ollama implements the conversion, captioning, and similarity
// oracles on top of an Ollama server.
package ollama

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bnema/drawloop/internal/domain"
	"github.com/ollama/ollama/api"
	"golang.org/x/time/rate"
)

const (
	DefaultURL         = "http://localhost:11434"
	DefaultTextModel   = "llama3.2"
	DefaultVisionModel = "llava"
	DefaultEmbedModel  = "nomic-embed-text"
)

type Options struct {
	URL           string
	TextModel     string
	VisionModel   string
	EmbedModel    string
	Timeout       time.Duration
	RatePerSecond float64
	Burst         int
	HTTPClient    *http.Client
}

// Client shares one API client and one rate limiter across all three oracles.
type Client struct {
	api         *api.Client
	textModel   string
	visionModel string
	embedModel  string
	limiter     *rate.Limiter
}

func NewClient(opts Options) (*Client, error) {
	rawURL := strings.TrimSpace(opts.URL)
	if rawURL == "" {
		rawURL = DefaultURL
	}

	base, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: oracle url %q: %w", domain.ErrInvalidConfig, rawURL, err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("%w: oracle url %q must include scheme and host", domain.ErrInvalidConfig, rawURL)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if opts.RatePerSecond > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RatePerSecond), burst)
	}

	return &Client{
		api:         api.NewClient(base, httpClient),
		textModel:   orDefault(opts.TextModel, DefaultTextModel),
		visionModel: orDefault(opts.VisionModel, DefaultVisionModel),
		embedModel:  orDefault(opts.EmbedModel, DefaultEmbedModel),
		limiter:     limiter,
	}, nil
}

// WithTextModel returns a client sharing the connection and limiter but
// converting with a different model.
func (c *Client) WithTextModel(model string) *Client {
	clone := *c
	clone.textModel = orDefault(model, c.textModel)
	return &clone
}

func (c *Client) TextModel() string {
	return c.textModel
}

func (c *Client) generate(ctx context.Context, req *api.GenerateRequest) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	stream := false
	req.Stream = &stream

	var out strings.Builder
	err := c.api.Generate(ctx, req, func(resp api.GenerateResponse) error {
		out.WriteString(resp.Response)
		return nil
	})
	if err != nil {
		return "", err
	}

	return out.String(), nil
}

func (c *Client) embed(ctx context.Context, inputs []string) ([][]float64, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	resp, err := c.api.Embed(ctx, &api.EmbedRequest{Model: c.embedModel, Input: inputs})
	if err != nil {
		return nil, err
	}

	vectors := make([][]float64, 0, len(resp.Embeddings))
	for _, embedding := range resp.Embeddings {
		vector := make([]float64, len(embedding))
		for i, v := range embedding {
			vector[i] = float64(v)
		}
		vectors = append(vectors, vector)
	}

	return vectors, nil
}

func orDefault(value, fallback string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}

	return fallback
}

func oracleError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", domain.ErrOracleFailure, op, err)
}
