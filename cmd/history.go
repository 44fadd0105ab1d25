package cmd

import (
	"fmt"

	"github.com/bnema/drawloop/internal/adapters/render/summary"
	"github.com/spf13/cobra"
)

func newHistoryCmd(app *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show summaries of recent runs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			runs, err := app.history.List(cmd.Context())
			if err != nil {
				return fmt.Errorf("load run history: %w", err)
			}

			if asJSON {
				return writeJSON(cmd, runs)
			}

			rendered, err := summary.RenderHistory(runs)
			if err != nil {
				return fmt.Errorf("render run history: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
			return err
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the history as JSON")

	return cmd
}
