package canvas

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/bnema/drawloop/internal/domain"
	"github.com/bnema/drawloop/internal/ports"
	"github.com/fogleman/gg"
)

const (
	Kind                = "placeholder"
	defaultOutlineWidth = 3
	reachFactor         = 4
)

var (
	defaultRectColor     = color.NRGBA{R: 200, A: 255}
	defaultCircleColor   = color.NRGBA{B: 200, A: 255}
	defaultEllipseColor  = color.NRGBA{G: 128, A: 255}
	defaultStrokeColor   = color.NRGBA{A: 255}
	defaultBackground    = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	defaultTriangleShape = [6]int{10, 90, 50, 10, 90, 90}
)

type Options struct {
	Width      int
	Height     int
	Background string
}

// Renderer draws programs with simple vector shapes. Commands outside the
// vocabulary are skipped and bad parameters fall back to their defaults.
type Renderer struct {
	width      int
	height     int
	background color.Color
}

var _ ports.Renderer = (*Renderer)(nil)

func NewRenderer(opts Options) (*Renderer, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("%w: canvas size %dx%d", domain.ErrInvalidConfig, opts.Width, opts.Height)
	}

	background := color.Color(defaultBackground)
	if opts.Background != "" {
		parsed, ok := ParseColor(opts.Background)
		if !ok {
			return nil, fmt.Errorf("%w: canvas background %q", domain.ErrInvalidConfig, opts.Background)
		}
		background = parsed
	}

	return &Renderer{width: opts.Width, height: opts.Height, background: background}, nil
}

func (r *Renderer) Size() (int, int) {
	return r.width, r.height
}

func (r *Renderer) Render(program domain.Program) image.Image {
	dc := gg.NewContext(r.width, r.height)
	dc.SetColor(r.background)
	dc.Clear()

	limit := r.reach()
	for _, command := range program.Commands {
		spec, ok := domain.LookupCommand(command.Name)
		if !ok {
			continue
		}
		r.draw(dc, spec, params{command: command, limit: limit})
	}

	return dc.Image()
}

// reach bounds every coordinate and size. The rasterizer works in 26.6
// fixed point and stalls on paths far outside the canvas.
func (r *Renderer) reach() float64 {
	return float64(reachFactor * max(r.width, r.height))
}

func (r *Renderer) draw(dc *gg.Context, spec domain.CommandSpec, p params) {
	switch spec.Family {
	case domain.FamilyBackground:
		dc.SetColor(p.color(r.background))
		dc.Clear()
		return
	case domain.FamilyRect:
		dc.SetColor(p.color(defaultRectColor))
		dc.DrawRectangle(p.float("x", 10), p.float("y", 10), p.float("w", 100), p.float("h", 50))
	case domain.FamilyCircle:
		dc.SetColor(p.color(defaultCircleColor))
		dc.DrawCircle(p.float("x", 60), p.float("y", 60), math.Abs(p.float("radius", 40)))
	case domain.FamilyEllipse:
		dc.SetColor(p.color(defaultEllipseColor))
		x, y := p.float("x", 10), p.float("y", 10)
		w, h := math.Abs(p.float("w", 100)), math.Abs(p.float("h", 50))
		dc.DrawEllipse(x+w/2, y+h/2, w/2, h/2)
	case domain.FamilyLine:
		dc.SetColor(p.color(defaultStrokeColor))
		dc.SetLineWidth(p.lineWidth(float64(max(r.width, r.height))))
		dc.DrawLine(p.float("x1", 0), p.float("y1", 0), p.float("x2", 100), p.float("y2", 100))
		dc.Stroke()
		return
	case domain.FamilyTriangle:
		dc.SetColor(p.color(defaultStrokeColor))
		d := defaultTriangleShape
		dc.MoveTo(p.float("x1", d[0]), p.float("y1", d[1]))
		dc.LineTo(p.float("x2", d[2]), p.float("y2", d[3]))
		dc.LineTo(p.float("x3", d[4]), p.float("y3", d[5]))
		dc.ClosePath()
	default:
		return
	}

	if spec.Filled {
		dc.Fill()
		return
	}

	dc.SetLineWidth(defaultOutlineWidth)
	dc.Stroke()
}

type params struct {
	command domain.Command
	limit   float64
}

// float reads a numeric parameter clamped to [-limit, limit].
func (p params) float(name string, fallback int) float64 {
	value, ok := p.command.Param(name)
	if !ok {
		return float64(fallback)
	}
	n, ok := value.Int()
	if !ok {
		return float64(fallback)
	}

	return max(-p.limit, min(float64(n), p.limit))
}

func (p params) lineWidth(widest float64) float64 {
	width := p.float("width", defaultOutlineWidth)
	if width <= 0 {
		return defaultOutlineWidth
	}

	return min(width, widest)
}

func (p params) color(fallback color.Color) color.Color {
	value, ok := p.command.Param("color")
	if !ok {
		return fallback
	}
	c, ok := parseColorValue(value)
	if !ok {
		return fallback
	}

	return c
}
