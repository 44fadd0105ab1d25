package cmd

import (
	"github.com/spf13/cobra"
)

// offlineAnnotation marks commands that run without loading configuration.
const offlineAnnotation = "drawloop/offline"

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	var configPath string
	app := &app{}

	rootCmd := &cobra.Command{
		Use:           "drawloop",
		Short:         "drawloop: turn text into drawings and learn from what the vision model sees",
		Long:          "drawloop converts text intents into drawing programs, renders them, checks the result with a vision model, and keeps the examples that pass as few-shot context for later conversions.",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if _, offline := cmd.Annotations[offlineAnnotation]; offline {
				return nil
			}

			wired, err := wireApp(cmd.Context(), configPath, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			*app = *wired
			return nil
		},
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			return app.Close()
		},
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a TOML config file (default $HOME/.config/drawloop/config.toml)")

	rootCmd.AddCommand(
		newVersionCmd(),
		newRunCmd(app),
		newExploreCmd(app),
		newRenderCmd(app),
		newSynthCmd(app),
		newCorpusCmd(app),
		newArtifactsCmd(app),
		newHistoryCmd(app),
	)

	return rootCmd
}
