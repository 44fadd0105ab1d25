package dsl

import (
	"math/rand/v2"
	"sync"
	"time"

	"github.com/bnema/drawloop/internal/domain"
)

const (
	defaultClusterProbability = 0.4
	defaultDetailProbability  = 0.3
	clusterSpread             = 50
	detailMargin              = 20
)

type SynthesizerOptions struct {
	Catalog            domain.Catalog
	Palette            []string
	Width              int
	Height             int
	ClusterProbability float64
	DetailProbability  float64
}

type Synthesizer struct {
	mu          sync.Mutex
	rng         *rand.Rand
	catalog     domain.Catalog
	palette     []string
	width       int
	height      int
	cluster     float64
	detail      float64
	totalWeight float64
}

// NewSynthesizer builds a synthesizer drawing from rng. A nil rng is seeded from the clock.
func NewSynthesizer(rng *rand.Rand, opts SynthesizerOptions) *Synthesizer {
	if rng == nil {
		seed := uint64(time.Now().UnixNano())
		rng = rand.New(rand.NewPCG(seed, seed>>1|1))
	}
	if opts.Width <= 0 {
		opts.Width = 512
	}
	if opts.Height <= 0 {
		opts.Height = 512
	}
	if len(opts.Palette) == 0 {
		opts.Palette = domain.DefaultPalette
	}
	if len(opts.Catalog) == 0 {
		opts.Catalog = domain.DefaultCatalog(opts.Width, opts.Height)
	}

	total := 0.0
	for _, tmpl := range opts.Catalog {
		if tmpl.Weight > 0 {
			total += tmpl.Weight
		}
	}

	return &Synthesizer{
		rng:         rng,
		catalog:     opts.Catalog,
		palette:     opts.Palette,
		width:       opts.Width,
		height:      opts.Height,
		cluster:     opts.ClusterProbability,
		detail:      opts.DetailProbability,
		totalWeight: total,
	}
}

func DefaultSynthesizerOptions(width, height int) SynthesizerOptions {
	return SynthesizerOptions{
		Catalog:            domain.DefaultCatalog(width, height),
		Palette:            domain.DefaultPalette,
		Width:              width,
		Height:             height,
		ClusterProbability: defaultClusterProbability,
		DetailProbability:  defaultDetailProbability,
	}
}

// Synthesize returns a background command followed by up to N-1 weighted
// template draws, N uniform in [minCommands, maxCommands], optionally
// followed by a cluster of filled shapes and a few detail strokes.
func (s *Synthesizer) Synthesize(minCommands, maxCommands int) domain.Program {
	s.mu.Lock()
	defer s.mu.Unlock()

	if minCommands < 1 {
		minCommands = 1
	}
	if maxCommands < minCommands {
		maxCommands = minCommands
	}

	n := s.between(minCommands, maxCommands)
	commands := make([]domain.Command, 0, n+7)
	commands = append(commands, domain.NewCommand(domain.CommandSetBackground,
		domain.Param{Name: "color", Value: domain.StringValue(s.color())},
	))

	for i := 1; i < n; i++ {
		tmpl, ok := s.pick()
		if !ok || tmpl.Command == domain.CommandSetBackground {
			continue
		}
		commands = append(commands, s.instantiate(tmpl))
	}

	if s.rng.Float64() < s.cluster {
		commands = append(commands, s.clusterCommands()...)
	}
	if s.rng.Float64() < s.detail {
		commands = append(commands, s.detailCommands()...)
	}

	return domain.Program{Commands: commands}
}

func (s *Synthesizer) pick() (domain.Template, bool) {
	if s.totalWeight <= 0 {
		return domain.Template{}, false
	}

	target := s.rng.Float64() * s.totalWeight
	var last domain.Template
	for _, tmpl := range s.catalog {
		if tmpl.Weight <= 0 {
			continue
		}
		last = tmpl
		target -= tmpl.Weight
		if target < 0 {
			return tmpl, true
		}
	}

	return last, true
}

func (s *Synthesizer) instantiate(tmpl domain.Template) domain.Command {
	params := make([]domain.Param, 0, len(tmpl.Params))
	for _, spec := range tmpl.Params {
		var value domain.Value
		switch spec.Kind {
		case domain.ParamPalette:
			value = domain.StringValue(s.color())
		case domain.ParamRange:
			value = domain.IntValue(s.between(spec.Min, spec.Max))
		default:
			value = domain.RawValue(spec.Fixed)
		}
		params = append(params, domain.Param{Name: spec.Name, Value: value})
	}

	return domain.NewCommand(tmpl.Command, params...)
}

func (s *Synthesizer) clusterCommands() []domain.Command {
	cx := s.between(s.width*150/512, s.width*362/512)
	cy := s.between(s.height*150/512, s.height*362/512)
	count := s.between(2, 4)

	out := make([]domain.Command, 0, count)
	for range count {
		x := cx + s.between(-clusterSpread, clusterSpread)
		y := cy + s.between(-clusterSpread, clusterSpread)
		switch s.rng.IntN(3) {
		case 0:
			out = append(out, domain.NewCommand(domain.CommandFillCircle,
				intParam("x", x), intParam("y", y),
				intParam("radius", s.between(15, 60)),
				s.colorParam(),
			))
		case 1:
			out = append(out, domain.NewCommand(domain.CommandFillRect,
				intParam("x", x), intParam("y", y),
				intParam("w", s.between(20, 80)), intParam("h", s.between(20, 80)),
				s.colorParam(),
			))
		default:
			out = append(out, domain.NewCommand(domain.CommandFillEllipse,
				intParam("x", x), intParam("y", y),
				intParam("w", s.between(20, 70)), intParam("h", s.between(20, 70)),
				s.colorParam(),
			))
		}
	}

	return out
}

func (s *Synthesizer) detailCommands() []domain.Command {
	count := s.between(1, 3)
	out := make([]domain.Command, 0, count)
	for range count {
		switch s.rng.IntN(3) {
		case 0:
			out = append(out, domain.NewCommand(domain.CommandDrawCircle,
				intParam("x", s.xPoint()), intParam("y", s.yPoint()),
				intParam("radius", s.between(3, 20)),
				s.colorParam(),
			))
		case 1:
			out = append(out, domain.NewCommand(domain.CommandDrawRect,
				intParam("x", s.between(detailMargin, s.width-62)), intParam("y", s.between(detailMargin, s.height-62)),
				intParam("w", s.between(5, 30)), intParam("h", s.between(5, 30)),
				s.colorParam(),
			))
		default:
			out = append(out, domain.NewCommand(domain.CommandDrawLine,
				intParam("x1", s.xPoint()), intParam("y1", s.yPoint()),
				intParam("x2", s.xPoint()), intParam("y2", s.yPoint()),
				s.colorParam(),
				intParam("width", s.between(1, 5)),
			))
		}
	}

	return out
}

func (s *Synthesizer) xPoint() int {
	return s.between(detailMargin, s.width-detailMargin)
}

func (s *Synthesizer) yPoint() int {
	return s.between(detailMargin, s.height-detailMargin)
}

func (s *Synthesizer) color() string {
	return s.palette[s.rng.IntN(len(s.palette))]
}

func (s *Synthesizer) colorParam() domain.Param {
	return domain.Param{Name: "color", Value: domain.StringValue(s.color())}
}

// between returns a uniform integer in [lo, hi].
func (s *Synthesizer) between(lo, hi int) int {
	if hi <= lo {
		return lo
	}

	return lo + s.rng.IntN(hi-lo+1)
}

func intParam(name string, v int) domain.Param {
	return domain.Param{Name: name, Value: domain.IntValue(v)}
}
