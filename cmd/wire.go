package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/bnema/drawloop/internal/adapters/artifacts/file"
	chainoracle "github.com/bnema/drawloop/internal/adapters/oracle/chain"
	"github.com/bnema/drawloop/internal/adapters/oracle/ollama"
	"github.com/bnema/drawloop/internal/adapters/render/canvas"
	"github.com/bnema/drawloop/internal/adapters/render/summary"
	tomlrepo "github.com/bnema/drawloop/internal/adapters/repo/toml"
	"github.com/bnema/drawloop/internal/application"
	"github.com/bnema/drawloop/internal/config"
	"github.com/bnema/drawloop/internal/domain"
	"github.com/bnema/drawloop/internal/dsl"
	"github.com/bnema/drawloop/internal/logging"
	"github.com/bnema/drawloop/internal/ports"
	"github.com/spf13/viper"
)

type app struct {
	cfg       config.Config
	logger    *slog.Logger
	closeLog  func() error
	store     *application.ExampleStore
	history   ports.RunHistoryRepository
	artifacts *file.Store
	renderer  ports.Renderer
	renderRun func(application.RunReport, summary.Options) (string, error)
	renderExp func(application.ExplorationReport, summary.Options) (string, error)
	now       func() time.Time
}

// wireApp loads configuration and builds everything that works offline.
// Oracle-backed components are built on demand by newOrchestrator.
func wireApp(ctx context.Context, configPath string, logOutput io.Writer) (*app, error) {
	cfg, err := config.Load(viper.New(), configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, closeLog, err := logging.New(cfg.Logging, logOutput)
	if err != nil {
		return nil, fmt.Errorf("wire logger: %w", err)
	}

	renderer, err := newRenderer(cfg)
	if err != nil {
		_ = closeLog()
		return nil, err
	}

	corpus, err := tomlrepo.NewCorpusRepository(cfg.Paths.CorpusDir)
	if err != nil {
		_ = closeLog()
		return nil, fmt.Errorf("wire corpus repository: %w", err)
	}

	history, err := tomlrepo.NewHistoryRepository(cfg.Paths.HistoryFile, cfg.Learning.HistoryLimit)
	if err != nil {
		_ = closeLog()
		return nil, fmt.Errorf("wire run history: %w", err)
	}

	store := application.NewExampleStore(corpus, cfg.Learning.MaxExamples, logger)
	if err := store.Load(ctx); err != nil {
		logger.Warn("corpus partially loaded", "dir", corpus.Dir(), "error", err)
	}

	return &app{
		cfg:       cfg,
		logger:    logger,
		closeLog:  closeLog,
		store:     store,
		history:   history,
		artifacts: file.NewStore(cfg.Paths.OutputDir, ports.SystemClock{}),
		renderer:  renderer,
		renderRun: summary.RenderRun,
		renderExp: summary.RenderExploration,
		now:       time.Now,
	}, nil
}

func newRenderer(cfg config.Config) (ports.Renderer, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Generator.Kind)) {
	case canvas.Kind:
		r, err := canvas.NewRenderer(canvas.Options{
			Width:      cfg.Canvas.Width,
			Height:     cfg.Canvas.Height,
			Background: cfg.Canvas.Background,
		})
		if err != nil {
			return nil, fmt.Errorf("wire renderer: %w", err)
		}
		return r, nil
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownRenderer, cfg.Generator.Kind)
	}
}

func (a *app) newSynthesizer(rng *rand.Rand) *dsl.Synthesizer {
	return dsl.NewSynthesizer(rng, dsl.SynthesizerOptions{
		Catalog:            a.cfg.Catalog(),
		Palette:            a.cfg.Palette(),
		Width:              a.cfg.Canvas.Width,
		Height:             a.cfg.Canvas.Height,
		ClusterProbability: a.cfg.Synth.ClusterProbability,
		DetailProbability:  a.cfg.Synth.DetailProbability,
	})
}

func (a *app) newConverter(client *ollama.Client) (ports.DSLConverter, error) {
	width, height := a.cfg.Canvas.Width, a.cfg.Canvas.Height
	primary := ollama.NewConverter(client, width, height)
	fallbackModel := strings.TrimSpace(a.cfg.Oracle.FallbackTextModel)
	if fallbackModel == "" || fallbackModel == client.TextModel() {
		return primary, nil
	}

	converter, err := chainoracle.NewConverter(primary, ollama.NewConverter(client.WithTextModel(fallbackModel), width, height))
	if err != nil {
		return nil, fmt.Errorf("wire fallback converter: %w", err)
	}
	return converter, nil
}

func (a *app) newOrchestrator() (*application.Orchestrator, error) {
	oc := a.cfg.Oracle
	client, err := ollama.NewClient(ollama.Options{
		URL:           oc.URL,
		TextModel:     oc.TextModel,
		VisionModel:   oc.VisionModel,
		EmbedModel:    oc.EmbedModel,
		Timeout:       oc.Timeout,
		RatePerSecond: oc.RatePerSecond,
		Burst:         oc.Burst,
	})
	if err != nil {
		return nil, fmt.Errorf("wire oracle client: %w", err)
	}

	converter, err := a.newConverter(client)
	if err != nil {
		return nil, err
	}

	similarity, err := application.NewSimilarityGate(ollama.NewSimilarity(client), a.cfg.Learning.SimilarityThreshold)
	if err != nil {
		return nil, fmt.Errorf("wire similarity gate: %w", err)
	}

	var curator *application.Curator
	if rules := a.cfg.Rules(); len(rules) > 0 {
		curator = application.NewCurator(similarity, a.store, rules, oc.Timeout, a.logger)
	}

	return application.NewOrchestrator(application.Dependencies{
		Converter:   converter,
		Captioner:   ollama.NewCaptioner(client),
		Renderer:    a.renderer,
		Synthesizer: a.newSynthesizer(nil),
		Artifacts:   a.artifacts,
		Store:       a.store,
		Similarity:  similarity,
		Confidence:  application.ConfidenceGate{Threshold: a.cfg.Learning.ExplorationThreshold},
		Curator:     curator,
		History:     a.history,
		Logger:      a.logger,
		Clock:       ports.SystemClock{},
	}, application.OrchestratorConfig{
		DefaultBucket:       a.cfg.Learning.DefaultBucket,
		FewShot:             a.cfg.Learning.FewShot,
		ExplorationInterval: a.cfg.Learning.ExplorationInterval,
		PeriodicBatch:       a.cfg.Learning.PeriodicBatch,
		FinalBatch:          a.cfg.Learning.FinalBatch,
		MinCommands:         a.cfg.Synth.MinCommands,
		MaxCommands:         a.cfg.Synth.MaxCommands,
		Strict:              a.cfg.DSL.Strict,
		OracleTimeout:       oc.Timeout,
		Retry: application.RetryPolicy{
			Attempts:   oc.RetryCount,
			Backoff:    oc.RetryBackoff,
			MaxBackoff: oc.MaxRetryBackoff,
			Timeout:    oc.Timeout,
		},
		Palette: a.cfg.Palette(),
	})
}

func (a *app) Close() error {
	if a == nil || a.closeLog == nil {
		return nil
	}
	return a.closeLog()
}
