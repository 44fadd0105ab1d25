package cmd

import (
	"fmt"
	"time"

	"github.com/alpkeskin/gotoon"
	"github.com/bnema/drawloop/internal/adapters/render/summary"
	"github.com/bnema/drawloop/internal/domain"
	"github.com/spf13/cobra"
)

const defaultTopK = 3

type outputFormat struct {
	json bool
	toon bool
}

func (f *outputFormat) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.json, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&f.toon, "toon", false, "Output in LLM-friendly toon format")
	cmd.MarkFlagsMutuallyExclusive("json", "toon")
}

// write prints v as JSON or toon and reports whether it did.
func (f outputFormat) write(cmd *cobra.Command, v any) (bool, error) {
	switch {
	case f.json:
		return true, writeJSON(cmd, v)
	case f.toon:
		output, err := gotoon.Encode(v)
		if err != nil {
			return true, fmt.Errorf("encode toon: %w", err)
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), output)
		return true, err
	default:
		return false, nil
	}
}

type exampleView struct {
	Bucket       string  `json:"bucket"`
	Intent       string  `json:"intent"`
	DSL          string  `json:"dsl"`
	Description  string  `json:"description,omitempty"`
	Source       string  `json:"source"`
	Confidence   float64 `json:"confidence,omitempty"`
	CommandCount int     `json:"command_count,omitempty"`
	ImagePath    string  `json:"image_path,omitempty"`
	CreatedAt    string  `json:"created_at,omitempty"`
}

func toExampleViews(bucket string, records []domain.ExampleRecord) []exampleView {
	views := make([]exampleView, 0, len(records))
	for _, record := range records {
		view := exampleView{
			Bucket:      bucket,
			Intent:      record.Intent,
			DSL:         record.DSL,
			Description: record.Description,
			Source:      string(domain.SourceSupervised),
		}
		if p := record.Provenance; p != nil {
			if p.Source != "" {
				view.Source = string(p.Source)
			}
			view.Confidence = p.Confidence
			view.CommandCount = p.CommandCount
			view.ImagePath = p.ImagePath
			if !p.CreatedAt.IsZero() {
				view.CreatedAt = p.CreatedAt.UTC().Format(time.RFC3339)
			}
		}
		views = append(views, view)
	}
	return views
}

func newCorpusCmd(app *app) *cobra.Command {
	corpusCmd := &cobra.Command{
		Use:   "corpus",
		Short: "Inspect and manage stored few-shot examples",
	}

	corpusCmd.AddCommand(
		newCorpusListCmd(app),
		newCorpusTopCmd(app),
		newCorpusStatsCmd(app),
		newCorpusClearCmd(app),
	)

	return corpusCmd
}

func newCorpusListCmd(app *app) *cobra.Command {
	var (
		bucket       string
		format       outputFormat
		showPrograms bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the examples of a bucket, oldest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			bucket = resolveBucket(app, bucket)
			if err := domain.ValidateBucket(bucket); err != nil {
				return err
			}

			records := app.store.All(bucket)
			return writeExamples(cmd, format, bucket, records, showPrograms)
		},
	}

	cmd.Flags().StringVar(&bucket, "bucket", "", "Bucket to list (default learning.default_bucket)")
	cmd.Flags().BoolVar(&showPrograms, "show-programs", false, "Print each example's program")
	format.register(cmd)

	return cmd
}

func newCorpusTopCmd(app *app) *cobra.Command {
	var (
		bucket       string
		k            int
		format       outputFormat
		showPrograms bool
	)

	cmd := &cobra.Command{
		Use:   "top <query>",
		Short: "Show the examples a conversion of query would receive as few-shot context",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bucket = resolveBucket(app, bucket)
			if err := domain.ValidateBucket(bucket); err != nil {
				return err
			}
			if k < 0 {
				return fmt.Errorf("--limit must not be negative, got %d", k)
			}

			records := app.store.TopK(args[0], k, bucket)
			return writeExamples(cmd, format, bucket, records, showPrograms)
		},
	}

	cmd.Flags().StringVar(&bucket, "bucket", "", "Bucket to search (default learning.default_bucket)")
	cmd.Flags().IntVarP(&k, "limit", "k", defaultTopK, "Number of examples to return")
	cmd.Flags().BoolVar(&showPrograms, "show-programs", false, "Print each example's program")
	format.register(cmd)

	return cmd
}

func newCorpusStatsCmd(app *app) *cobra.Command {
	var format outputFormat

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show example counts and the exploratory ratio per bucket",
		RunE: func(cmd *cobra.Command, _ []string) error {
			buckets := app.store.Buckets()
			stats := make([]domain.CorpusStats, 0, len(buckets))
			for _, bucket := range buckets {
				stats = append(stats, app.store.Stats(bucket))
			}

			if handled, err := format.write(cmd, stats); handled {
				return err
			}

			rendered, err := summary.RenderCorpus(stats)
			if err != nil {
				return fmt.Errorf("render corpus stats: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
			return err
		},
	}

	format.register(cmd)

	return cmd
}

func newCorpusClearCmd(app *app) *cobra.Command {
	var (
		bucket string
		force  bool
	)

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every example from a bucket",
		RunE: func(cmd *cobra.Command, _ []string) error {
			bucket = resolveBucket(app, bucket)
			if err := domain.ValidateBucket(bucket); err != nil {
				return err
			}

			count := len(app.store.All(bucket))
			if !force {
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "Would remove %d examples from %s. Use --force to clear.\n", count, bucket)
				return err
			}

			if err := app.store.Clear(cmd.Context(), bucket); err != nil {
				return fmt.Errorf("clear bucket %q: %w", bucket, err)
			}

			app.logger.Info("corpus bucket cleared", "bucket", bucket, "removed", count)
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "Removed %d examples from %s.\n", count, bucket)
			return err
		},
	}

	cmd.Flags().StringVar(&bucket, "bucket", "", "Bucket to clear (default learning.default_bucket)")
	cmd.Flags().BoolVar(&force, "force", false, "Actually remove the examples")

	return cmd
}

func resolveBucket(app *app, bucket string) string {
	if bucket == "" {
		return app.cfg.Learning.DefaultBucket
	}
	return bucket
}

func writeExamples(cmd *cobra.Command, format outputFormat, bucket string, records []domain.ExampleRecord, showPrograms bool) error {
	if handled, err := format.write(cmd, toExampleViews(bucket, records)); handled {
		return err
	}

	rendered, err := summary.RenderExamples(bucket, records, summary.Options{ShowPrograms: showPrograms})
	if err != nil {
		return fmt.Errorf("render examples: %w", err)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
	return err
}
