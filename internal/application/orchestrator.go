package application

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strings"
	"sync"
	"time"

	"github.com/bnema/drawloop/internal/domain"
	"github.com/bnema/drawloop/internal/dsl"
	"github.com/bnema/drawloop/internal/ports"
)

const (
	artifactSupervised  = "supervised"
	artifactExploration = "exploration"
)

type OrchestratorConfig struct {
	DefaultBucket       string
	FewShot             int
	ExplorationInterval int
	PeriodicBatch       int
	FinalBatch          int
	MinCommands         int
	MaxCommands         int
	Strict              bool
	OracleTimeout       time.Duration
	Retry               RetryPolicy
	Palette             []string
}

type Dependencies struct {
	Converter   ports.DSLConverter
	Captioner   ports.Captioner
	Renderer    ports.Renderer
	Synthesizer ports.Synthesizer
	Artifacts   ports.ArtifactStore
	Store       *ExampleStore
	Similarity  *SimilarityGate
	Confidence  ConfidenceGate
	Curator     *Curator
	History     ports.RunHistoryRepository
	Logger      ports.Logger
	Clock       ports.Clock
}

// Orchestrator runs supervised steps over input texts and exploration
// passes over synthesized programs. A failing item never stops the loop;
// only cancellation of the context does.
type Orchestrator struct {
	deps Dependencies
	cfg  OrchestratorConfig
	log  ports.Logger

	mu     sync.RWMutex
	state  State
	index  int
	inputs int
	batch  int
}

func NewOrchestrator(deps Dependencies, cfg OrchestratorConfig) (*Orchestrator, error) {
	var missing []string
	if deps.Converter == nil {
		missing = append(missing, "converter")
	}
	if deps.Captioner == nil {
		missing = append(missing, "captioner")
	}
	if deps.Renderer == nil {
		missing = append(missing, "renderer")
	}
	if deps.Synthesizer == nil {
		missing = append(missing, "synthesizer")
	}
	if deps.Artifacts == nil {
		missing = append(missing, "artifact store")
	}
	if deps.Store == nil {
		missing = append(missing, "example store")
	}
	if deps.Similarity == nil {
		missing = append(missing, "similarity gate")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: orchestrator missing %s", domain.ErrInvalidConfig, strings.Join(missing, ", "))
	}

	if deps.Logger == nil {
		deps.Logger = ports.NopLogger{}
	}
	if deps.Clock == nil {
		deps.Clock = ports.SystemClock{}
	}
	if cfg.DefaultBucket == "" {
		cfg.DefaultBucket = domain.DefaultBucket
	}
	if err := domain.ValidateBucket(cfg.DefaultBucket); err != nil {
		return nil, fmt.Errorf("%w: default bucket: %w", domain.ErrInvalidConfig, err)
	}
	if len(cfg.Palette) == 0 {
		cfg.Palette = domain.DefaultPalette
	}

	return &Orchestrator{deps: deps, cfg: cfg, log: deps.Logger, state: StateIdle, index: -1}, nil
}

// State returns the current state and the index of the item it refers to.
func (o *Orchestrator) State() (State, int) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	return o.state, o.index
}

// Progress returns a snapshot of the current state together with the size
// of the run and of the exploration pass in flight.
func (o *Orchestrator) Progress() Progress {
	o.mu.RLock()
	defer o.mu.RUnlock()

	return Progress{State: o.state, Index: o.index, Inputs: o.inputs, Batch: o.batch}
}

func (o *Orchestrator) setSizes(inputs, batch int) {
	o.mu.Lock()
	o.inputs = inputs
	o.batch = batch
	o.mu.Unlock()
}

func (o *Orchestrator) setBatch(batch int) {
	o.mu.Lock()
	o.batch = batch
	o.mu.Unlock()
}

func (o *Orchestrator) setState(state State, index int) {
	o.mu.Lock()
	o.state = state
	o.index = index
	o.mu.Unlock()

	o.log.Debug("orchestrator state", "state", state, "index", index)
}

// Run processes inputs in order, interleaving a periodic exploration pass
// after every ExplorationInterval steps and a final pass at the end. The
// returned error is non-nil only when ctx is done; the report then covers
// the work completed so far.
func (o *Orchestrator) Run(ctx context.Context, inputs []string) (RunReport, error) {
	report := RunReport{Summary: domain.RunSummary{StartedAt: o.deps.Clock.Now()}}
	o.log.Info("run started", "inputs", len(inputs))

	for i, intent := range inputs {
		if err := ctx.Err(); err != nil {
			return o.finish(ctx, report), err
		}

		step := o.Step(ctx, i, intent)
		report.Steps = append(report.Steps, step)
		tallyStep(&report.Summary, step)

		interval := o.cfg.ExplorationInterval
		if interval > 0 && (i+1)%interval == 0 && i+1 < len(inputs) && o.cfg.PeriodicBatch > 0 {
			o.log.Info("periodic exploration", "after_step", i, "batch", o.cfg.PeriodicBatch)
			pass := o.explorationPass(ctx, o.cfg.PeriodicBatch, o.deps.Confidence)
			report.addExploration(pass)
		}
	}

	if err := ctx.Err(); err != nil {
		return o.finish(ctx, report), err
	}

	if o.cfg.FinalBatch > 0 {
		o.log.Info("final exploration", "batch", o.cfg.FinalBatch)
		report.addExploration(o.explorationPass(ctx, o.cfg.FinalBatch, o.deps.Confidence))
	}

	return o.finish(ctx, report), ctx.Err()
}

// Explore runs a single exploration batch of count attempts against the
// given confidence threshold and reports per-attempt results plus corpus stats.
func (o *Orchestrator) Explore(ctx context.Context, count int, threshold float64) (ExplorationReport, error) {
	if count < 0 {
		return ExplorationReport{}, fmt.Errorf("exploration count must be non-negative, got %d", count)
	}

	o.setSizes(0, 0)
	report := o.explorationPass(ctx, count, ConfidenceGate{Threshold: threshold})
	report.Stats = o.deps.Store.Stats(o.cfg.DefaultBucket)
	o.setState(StateIdle, -1)

	return report, ctx.Err()
}

// Step runs one supervised input through conversion, rendering, captioning,
// the similarity gate, and, on acceptance, storage and curation.
func (o *Orchestrator) Step(ctx context.Context, index int, intent string) (result StepResult) {
	result = StepResult{Index: index, Intent: intent}
	o.setState(StateProcessingInput, index)

	defer func() {
		if r := recover(); r != nil {
			result = o.skip(result, fmt.Errorf("supervised step panicked: %v", r))
		}
	}()

	if strings.TrimSpace(intent) == "" {
		return o.skip(result, errors.New("input text is empty"))
	}

	examples := o.deps.Store.TopK(intent, o.cfg.FewShot, o.cfg.DefaultBucket)
	conversion := Retry(ctx, o.cfg.Retry, func(ctx context.Context) (domain.Program, error) {
		text, err := o.deps.Converter.ConvertToDSL(ctx, intent, examples)
		if err != nil {
			return domain.Program{}, err
		}
		program := dsl.Parse(text)
		if program.Len() == 0 {
			return domain.Program{}, fmt.Errorf("%w: %w", domain.ErrOracleFailure, domain.ErrEmptyProgram)
		}
		return program, nil
	})
	result.Attempts = conversion.Attempts
	if !conversion.OK() {
		return o.skip(result, conversion.Err)
	}

	program := conversion.Value
	result.Program = program.String()
	if unknown := program.UnknownCommands(); len(unknown) > 0 {
		if o.cfg.Strict {
			return o.skip(result, fmt.Errorf("%w: %s", domain.ErrStrictUnknownCommand, strings.Join(unknown, ", ")))
		}
		o.log.Warn("program has unknown commands", "index", index, "commands", unknown)
	}

	img := o.deps.Renderer.Render(program)
	result.ImagePath = o.saveArtifact(ctx, artifactSupervised, img)

	caption, err := o.describe(ctx, img)
	if err != nil {
		return o.skip(result, err)
	}
	result.Description = caption.Text

	decision, err := o.similarity(ctx, intent, caption.Text)
	if err != nil {
		return o.skip(result, err)
	}
	result.Decision = &decision

	if !decision.Accepted() {
		result.Outcome = OutcomeRejected
		o.setState(StateRejected, index)
		o.log.Info("input rejected", "index", index, "similarity", decision.Score, "threshold", decision.Threshold)
		return result
	}

	record := domain.ExampleRecord{
		Intent:      intent,
		DSL:         result.Program,
		Description: caption.Text,
		Provenance: &domain.Provenance{
			Confidence:   caption.Confidence,
			Source:       domain.SourceSupervised,
			CommandCount: program.Len(),
			ImagePath:    result.ImagePath,
			CreatedAt:    o.deps.Clock.Now(),
		},
	}

	result.Outcome = OutcomeAccepted
	o.setState(StateAccepted, index)
	result.Persisted = o.appendRecord(ctx, o.cfg.DefaultBucket, record)
	o.log.Info("input accepted", "index", index, "similarity", decision.Score, "persisted", result.Persisted)

	if o.deps.Curator != nil {
		curation, err := o.deps.Curator.Curate(ctx, record)
		if err != nil {
			o.log.Warn("curation failed", "index", index, "error", err)
			if errors.Is(err, domain.ErrPersistence) {
				result.Persisted = false
			}
		}
		if curation.Assigned {
			result.CuratedInto = curation.Rule
		}
	}

	return result
}

func (o *Orchestrator) explorationPass(ctx context.Context, count int, gate ConfidenceGate) ExplorationReport {
	var report ExplorationReport
	o.setBatch(count)
	for i := range count {
		if ctx.Err() != nil {
			break
		}
		o.setState(StateExploring, i)
		report.add(o.attempt(ctx, i, gate))
	}

	return report
}

func (o *Orchestrator) attempt(ctx context.Context, index int, gate ConfidenceGate) (result AttemptResult) {
	result = AttemptResult{Index: index}
	defer func() {
		if r := recover(); r != nil {
			result = failAttempt(result, fmt.Errorf("exploration attempt panicked: %v", r))
		}
		if result.Failed() {
			o.log.Warn("exploration attempt failed", "attempt", index, "error", result.Err)
		}
	}()

	program := o.deps.Synthesizer.Synthesize(o.cfg.MinCommands, o.cfg.MaxCommands)
	result.Program = program.String()
	result.CommandCount = program.Len()

	img := o.deps.Renderer.Render(program)
	result.ImagePath = o.saveArtifact(ctx, artifactExploration, img)

	caption, err := o.describe(ctx, img)
	if err != nil {
		return failAttempt(result, err)
	}
	result.Caption = caption

	decision := gate.Evaluate(caption)
	result.Decision = &decision
	if !decision.Accepted() {
		o.log.Debug("exploration rejected", "attempt", index, "confidence", caption.Confidence, "threshold", decision.Threshold)
		return result
	}

	record := domain.ExampleRecord{
		Intent:      domain.SyntheticLabel(caption.Text, o.cfg.Palette),
		DSL:         result.Program,
		Description: caption.Text,
		Provenance: &domain.Provenance{
			Confidence:   caption.Confidence,
			Source:       domain.SourceExploratory,
			CommandCount: result.CommandCount,
			ImagePath:    result.ImagePath,
			CreatedAt:    o.deps.Clock.Now(),
		},
	}
	result.Record = &record
	result.Persisted = o.appendRecord(ctx, o.cfg.DefaultBucket, record)
	o.log.Info("exploration accepted", "attempt", index, "label", record.Intent, "confidence", caption.Confidence)

	return result
}

func (o *Orchestrator) describe(ctx context.Context, img image.Image) (domain.Caption, error) {
	ctx, cancel := o.oracleContext(ctx)
	defer cancel()

	caption, err := o.deps.Captioner.Describe(ctx, img)
	if err != nil {
		return domain.Caption{}, fmt.Errorf("describe image: %w", err)
	}

	return caption, nil
}

func (o *Orchestrator) similarity(ctx context.Context, intent, description string) (domain.Decision, error) {
	ctx, cancel := o.oracleContext(ctx)
	defer cancel()

	decision, err := o.deps.Similarity.Evaluate(ctx, intent, description)
	if err != nil {
		return domain.Decision{}, fmt.Errorf("score similarity: %w", err)
	}

	return decision, nil
}

func (o *Orchestrator) oracleContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if o.cfg.OracleTimeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, o.cfg.OracleTimeout)
}

// saveArtifact persists the image and returns its path, or "" when saving fails.
func (o *Orchestrator) saveArtifact(ctx context.Context, kind string, img image.Image) string {
	path, err := o.deps.Artifacts.Save(ctx, kind, img)
	if err != nil {
		o.log.Error("save rendered image", "kind", kind, "error", err)
		return ""
	}

	return path
}

func (o *Orchestrator) appendRecord(ctx context.Context, bucket string, record domain.ExampleRecord) bool {
	if err := o.deps.Store.Append(ctx, bucket, record); err != nil {
		o.log.Error("store example", "bucket", bucket, "error", err)
		return false
	}

	return true
}

func (o *Orchestrator) skip(result StepResult, err error) StepResult {
	result.Outcome = OutcomeSkipped
	result.Reason = err.Error()
	o.setState(StateSkipped, result.Index)
	o.log.Warn("input skipped", "index", result.Index, "error", err)

	return result
}

func (o *Orchestrator) finish(ctx context.Context, report RunReport) RunReport {
	report.Summary.FinishedAt = o.deps.Clock.Now()
	o.setState(StateIdle, -1)

	s := report.Summary
	o.log.Info("run finished",
		"processed", s.Processed,
		"accepted", s.Accepted,
		"rejected", s.Rejected,
		"skipped", s.Skipped,
		"explorations", s.ExplorationAttempts,
		"exploration_accepted", s.ExplorationAccepted,
	)

	if o.deps.History != nil {
		if err := o.deps.History.Append(context.WithoutCancel(ctx), s); err != nil {
			o.log.Error("record run history", "error", err)
		}
	}

	return report
}

func failAttempt(result AttemptResult, err error) AttemptResult {
	result.Err = err
	result.Reason = err.Error()
	result.Record = nil
	result.Persisted = false

	return result
}

func tallyStep(summary *domain.RunSummary, step StepResult) {
	summary.Processed++
	switch step.Outcome {
	case OutcomeAccepted:
		summary.Accepted++
		if !step.Persisted {
			summary.PersistenceFailures++
		}
		if step.CuratedInto != "" {
			summary.Curated++
		}
	case OutcomeRejected:
		summary.Rejected++
	default:
		summary.Skipped++
	}
}

func (r *RunReport) addExploration(pass ExplorationReport) {
	r.Explorations = append(r.Explorations, pass.Attempts...)
	r.Summary.ExplorationAttempts += len(pass.Attempts)
	r.Summary.ExplorationAccepted += pass.Accepted
	r.Summary.ExplorationFailed += pass.Failed
	for _, attempt := range pass.Attempts {
		if attempt.Accepted() && !attempt.Persisted {
			r.Summary.PersistenceFailures++
		}
	}
}
