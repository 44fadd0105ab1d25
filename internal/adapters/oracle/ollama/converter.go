package ollama

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/bnema/drawloop/internal/domain"
	"github.com/bnema/drawloop/internal/ports"
	"github.com/ollama/ollama/api"
)

const converterSystemPrompt = `You translate short scene descriptions into a drawing language.
Write one command per line, nothing else. Available commands:
set_background(color="white")
draw_rect(x=10, y=10, w=100, h=50, color="red")
fill_rect(x=10, y=10, w=100, h=50, color="red")
draw_circle(x=60, y=60, radius=40, color="blue")
fill_circle(x=60, y=60, radius=40, color="blue")
draw_ellipse(x=10, y=10, w=100, h=50, color="green")
fill_ellipse(x=10, y=10, w=100, h=50, color="green")
draw_line(x1=0, y1=0, x2=100, y2=100, color="black", width=3)
draw_triangle(x1=10, y1=90, x2=50, y2=10, x3=90, y3=90, color="black")
fill_triangle(x1=10, y1=90, x2=50, y2=10, x3=90, y3=90, color="black")
Coordinates are pixels on a %dx%d canvas with the origin at the top left.`

var commandLine = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*\s*\(`)

type Converter struct {
	client *Client
	system string
}

var _ ports.DSLConverter = (*Converter)(nil)

// NewConverter prompts for programs sized to a width x height canvas.
func NewConverter(client *Client, width, height int) *Converter {
	return &Converter{
		client: client,
		system: fmt.Sprintf(converterSystemPrompt, width, height),
	}
}

func (c *Converter) ConvertToDSL(ctx context.Context, intent string, examples []domain.ExampleRecord) (string, error) {
	prompt := buildConversionPrompt(intent, examples)

	response, err := c.client.generate(ctx, &api.GenerateRequest{
		Model:   c.client.textModel,
		System:  c.system,
		Prompt:  prompt,
		Options: map[string]any{"temperature": 0.2},
	})
	if err != nil {
		return "", oracleError("generate dsl", err)
	}

	program := extractProgram(response)
	if program == "" {
		return "", fmt.Errorf("%w: %w: no commands in conversion response", domain.ErrOracleFailure, domain.ErrMalformedOracleOutput)
	}

	return program, nil
}

func buildConversionPrompt(intent string, examples []domain.ExampleRecord) string {
	var b strings.Builder
	if fewShot := domain.FormatFewShot(examples); fewShot != "" {
		b.WriteString(fewShot)
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "Input: %q\nOutput:\n", intent)

	return b.String()
}

// extractProgram keeps command-shaped lines and drops prose and code fences.
func extractProgram(response string) string {
	var lines []string
	for _, line := range strings.Split(response, "\n") {
		trimmed := strings.TrimSpace(line)
		trimmed = strings.TrimPrefix(trimmed, "- ")
		if commandLine.MatchString(trimmed) {
			lines = append(lines, trimmed)
		}
	}

	return strings.Join(lines, "\n")
}
