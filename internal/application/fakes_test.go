package application

import (
	"context"
	"errors"
	"image"
	"image/color"
	"slices"
	"sync"
	"time"

	"github.com/bnema/drawloop/internal/domain"
	"github.com/bnema/drawloop/internal/ports"
	"github.com/stretchr/testify/mock"
)

var errDiskFull = errors.New("disk full")

func mockAnyContext() any {
	return mock.MatchedBy(func(context.Context) bool { return true })
}

type memoryRepo struct {
	mu      sync.Mutex
	buckets map[string][]domain.ExampleRecord
	saveErr error
	saves   int
}

var _ ports.CorpusRepository = (*memoryRepo)(nil)

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{buckets: map[string][]domain.ExampleRecord{}}
}

func (r *memoryRepo) ListBuckets(context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, 0, len(r.buckets))
	for name := range r.buckets {
		names = append(names, name)
	}
	slices.Sort(names)
	return names, nil
}

func (r *memoryRepo) LoadBucket(_ context.Context, bucket string) ([]domain.ExampleRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return slices.Clone(r.buckets[bucket]), nil
}

func (r *memoryRepo) SaveBucket(_ context.Context, bucket string, records []domain.ExampleRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.saves++
	if r.saveErr != nil {
		return r.saveErr
	}
	r.buckets[bucket] = slices.Clone(records)
	return nil
}

func (r *memoryRepo) bucket(name string) []domain.ExampleRecord {
	r.mu.Lock()
	defer r.mu.Unlock()

	return slices.Clone(r.buckets[name])
}

type solidRenderer struct {
	mu       sync.Mutex
	programs []domain.Program
	panicOn  string
}

func (r *solidRenderer) Render(program domain.Program) image.Image {
	r.mu.Lock()
	r.programs = append(r.programs, program)
	r.mu.Unlock()

	for _, cmd := range program.Commands {
		if r.panicOn != "" && cmd.Name == r.panicOn {
			panic("renderer exploded")
		}
	}

	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(0, 0, color.White)
	return img
}

type fixedSynthesizer struct {
	program domain.Program
	calls   int
}

func (s *fixedSynthesizer) Synthesize(int, int) domain.Program {
	s.calls++
	return s.program
}

type pathArtifacts struct {
	mu    sync.Mutex
	kinds []string
	err   error
}

func (a *pathArtifacts) Save(_ context.Context, kind string, _ image.Image) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.err != nil {
		return "", a.err
	}
	a.kinds = append(a.kinds, kind)
	return "/out/" + kind + ".png", nil
}

func (a *pathArtifacts) Prune(context.Context, time.Time, bool) ([]string, error) {
	return nil, nil
}

type staticClock struct {
	now time.Time
}

func (c staticClock) Now() time.Time {
	return c.now
}

type recordingHistory struct {
	runs []domain.RunSummary
}

func (h *recordingHistory) Append(_ context.Context, run domain.RunSummary) error {
	h.runs = append(h.runs, run)
	return nil
}

func (h *recordingHistory) List(context.Context) ([]domain.RunSummary, error) {
	return h.runs, nil
}

func circleProgram() domain.Program {
	return domain.Program{Commands: []domain.Command{
		domain.NewCommand(domain.CommandSetBackground, domain.Param{Name: "color", Value: domain.StringValue("white")}),
		domain.NewCommand(domain.CommandDrawCircle,
			domain.Param{Name: "x", Value: domain.IntValue(60)},
			domain.Param{Name: "y", Value: domain.IntValue(60)},
			domain.Param{Name: "radius", Value: domain.IntValue(40)},
		),
	}}
}
