package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newArtifactsCmd(app *app) *cobra.Command {
	artifactsCmd := &cobra.Command{
		Use:   "artifacts",
		Short: "Manage rendered images in the output directory",
	}

	artifactsCmd.AddCommand(newArtifactsPruneCmd(app))

	return artifactsCmd
}

func newArtifactsPruneCmd(app *app) *cobra.Command {
	var (
		olderThan time.Duration
		force     bool
	)

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Remove rendered images older than the retention age",
		Long: `Remove rendered images older than cleanup.max_output_age.

Example:
  drawloop artifacts prune                      # Show what would be removed
  drawloop artifacts prune --older-than 24h     # Use a different age
  drawloop artifacts prune --force              # Actually remove the images`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("older-than") {
				olderThan = app.cfg.Cleanup.MaxOutputAge
			}
			if olderThan <= 0 {
				return fmt.Errorf("--older-than must be positive, got %s", olderThan)
			}

			cutoff := app.now().Add(-olderThan)
			paths, err := app.artifacts.Prune(cmd.Context(), cutoff, !force)
			if err != nil {
				return fmt.Errorf("prune artifacts: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(paths) == 0 {
				_, err = fmt.Fprintf(out, "No images older than %s in %s\n", olderThan, app.artifacts.Root())
				return err
			}

			verb := "Would remove"
			if force {
				verb = "Removed"
				app.logger.Info("artifacts pruned", "count", len(paths), "cutoff", cutoff)
			}
			if _, err := fmt.Fprintf(out, "%s %d images older than %s:\n", verb, len(paths), olderThan); err != nil {
				return err
			}
			for _, path := range paths {
				if _, err := fmt.Fprintf(out, "  %s\n", path); err != nil {
					return err
				}
			}
			if !force {
				_, err = fmt.Fprintln(out, "Use --force to remove them.")
			}
			return err
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", 0, "Age threshold (default cleanup.max_output_age)")
	cmd.Flags().BoolVar(&force, "force", false, "Actually remove the images")

	return cmd
}
