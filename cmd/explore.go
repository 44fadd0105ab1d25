package cmd

import (
	"context"
	"fmt"

	"github.com/bnema/drawloop/internal/adapters/render/summary"
	"github.com/bnema/drawloop/internal/application"
	"github.com/spf13/cobra"
)

func newExploreCmd(app *app) *cobra.Command {
	var (
		count        int
		threshold    float64
		asJSON       bool
		showPrograms bool
	)

	cmd := &cobra.Command{
		Use:   "explore",
		Short: "Caption random programs and keep the confident ones as examples",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("count") {
				count = app.cfg.Learning.FinalBatch
			}
			if !cmd.Flags().Changed("threshold") {
				threshold = app.cfg.Learning.ExplorationThreshold
			}
			if count < 0 {
				return fmt.Errorf("--count must not be negative, got %d", count)
			}
			if threshold < 0 || threshold > 1 {
				return fmt.Errorf("--threshold must be within [0,1], got %v", threshold)
			}

			orchestrator, err := app.newOrchestrator()
			if err != nil {
				return err
			}

			var report application.ExplorationReport
			work := func(ctx context.Context) error {
				var exploreErr error
				report, exploreErr = orchestrator.Explore(ctx, count, threshold)
				return exploreErr
			}

			if asJSON {
				err = work(cmd.Context())
			} else {
				err = runWithSpinner(cmd.Context(), cmd.ErrOrStderr(), fmt.Sprintf("Exploring %d programs...", count), orchestrator, work)
			}
			if err != nil {
				return fmt.Errorf("exploration interrupted: %w", err)
			}

			if asJSON {
				return writeJSON(cmd, report)
			}
			return writeRendered(cmd, app.renderExp, report, summary.Options{ShowPrograms: showPrograms})
		},
	}

	cmd.Flags().IntVarP(&count, "count", "n", 0, "Number of programs to try (default learning.final_batch)")
	cmd.Flags().Float64Var(&threshold, "threshold", 0, "Caption confidence needed to keep a program (default learning.exploration_threshold)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the exploration report as JSON")
	cmd.Flags().BoolVar(&showPrograms, "show-programs", false, "Print each synthesized program")

	return cmd
}
