package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"strings"

	"github.com/bnema/drawloop/internal/domain"
	"github.com/bnema/drawloop/internal/ports"
	"github.com/ollama/ollama/api"
)

const captionPrompt = `Describe this image in one short sentence naming the main shapes and their colors.
Reply with JSON: {"description": "<sentence>", "confidence": <number between 0 and 1>}.`

type Captioner struct {
	client *Client
}

var _ ports.Captioner = (*Captioner)(nil)

func NewCaptioner(client *Client) *Captioner {
	return &Captioner{client: client}
}

type captionPayload struct {
	Description string   `json:"description"`
	Confidence  *float64 `json:"confidence"`
}

func (c *Captioner) Describe(ctx context.Context, img image.Image) (domain.Caption, error) {
	var encoded bytes.Buffer
	if err := png.Encode(&encoded, img); err != nil {
		return domain.Caption{}, fmt.Errorf("encode image for captioning: %w", err)
	}

	response, err := c.client.generate(ctx, &api.GenerateRequest{
		Model:  c.client.visionModel,
		Prompt: captionPrompt,
		Images: []api.ImageData{encoded.Bytes()},
		Format: json.RawMessage(`"json"`),
	})
	if err != nil {
		return domain.Caption{}, oracleError("describe image", err)
	}

	return parseCaption(response)
}

func parseCaption(response string) (domain.Caption, error) {
	var payload captionPayload
	if err := json.Unmarshal([]byte(strings.TrimSpace(response)), &payload); err != nil {
		return domain.Caption{}, fmt.Errorf("%w: %w: decode caption: %w", domain.ErrOracleFailure, domain.ErrMalformedOracleOutput, err)
	}

	description := strings.TrimSpace(payload.Description)
	if description == "" {
		return domain.Caption{}, fmt.Errorf("%w: %w: caption has no description", domain.ErrOracleFailure, domain.ErrMalformedOracleOutput)
	}
	if payload.Confidence == nil {
		return domain.Caption{}, fmt.Errorf("%w: %w: caption has no confidence", domain.ErrOracleFailure, domain.ErrMalformedOracleOutput)
	}

	return domain.Caption{Text: description, Confidence: clamp01(*payload.Confidence)}, nil
}
