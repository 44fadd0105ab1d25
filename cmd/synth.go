package cmd

import (
	"fmt"
	"math/rand/v2"

	"github.com/spf13/cobra"
)

func newSynthCmd(app *app) *cobra.Command {
	var (
		seed        uint64
		minCommands int
		maxCommands int
	)

	cmd := &cobra.Command{
		Use:   "synth",
		Short: "Print a random drawing program",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("min") {
				minCommands = app.cfg.Synth.MinCommands
			}
			if !cmd.Flags().Changed("max") {
				maxCommands = app.cfg.Synth.MaxCommands
			}

			var rng *rand.Rand
			if cmd.Flags().Changed("seed") {
				rng = rand.New(rand.NewPCG(seed, seed))
			}

			program := app.newSynthesizer(rng).Synthesize(minCommands, maxCommands)
			_, err := fmt.Fprintln(cmd.OutOrStdout(), program.String())
			return err
		},
	}

	cmd.Flags().Uint64Var(&seed, "seed", 0, "Seed for a reproducible program")
	cmd.Flags().IntVar(&minCommands, "min", 0, "Minimum number of template commands (default synth.min_commands)")
	cmd.Flags().IntVar(&maxCommands, "max", 0, "Maximum number of template commands (default synth.max_commands)")

	return cmd
}
