package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bnema/drawloop/internal/domain"
	"github.com/bnema/drawloop/internal/dsl"
	"github.com/fogleman/gg"
	"github.com/spf13/cobra"
)

const renderArtifactKind = "render"

func newRenderCmd(app *app) *cobra.Command {
	var (
		programFile string
		outPath     string
	)

	cmd := &cobra.Command{
		Use:   "render [program]",
		Short: "Render a drawing program to PNG without calling any model",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readProgram(cmd.InOrStdin(), programFile, args)
			if err != nil {
				return err
			}

			program := dsl.Parse(text)
			if program.Len() == 0 {
				return fmt.Errorf("render program: %w", domain.ErrEmptyProgram)
			}
			if unknown := program.UnknownCommands(); len(unknown) > 0 {
				if app.cfg.DSL.Strict {
					return fmt.Errorf("%w: %s", domain.ErrStrictUnknownCommand, strings.Join(unknown, ", "))
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "skipping unknown commands: %s\n", strings.Join(unknown, ", "))
			}

			img := app.renderer.Render(program)

			path := outPath
			if path == "" {
				path, err = app.artifacts.Save(cmd.Context(), renderArtifactKind, img)
				if err != nil {
					return err
				}
			} else {
				if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
					return fmt.Errorf("create output directory: %w", err)
				}
				if err := gg.SavePNG(path, img); err != nil {
					return fmt.Errorf("write png: %w", err)
				}
			}

			app.logger.Debug("program rendered", "commands", program.Len(), "path", path)
			_, err = fmt.Fprintln(cmd.OutOrStdout(), path)
			return err
		},
	}

	cmd.Flags().StringVarP(&programFile, "file", "f", "", "Read the program from a file (- for stdin)")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Write the PNG here instead of the output directory")

	return cmd
}

func readProgram(stdin io.Reader, path string, args []string) (string, error) {
	switch {
	case path != "" && len(args) > 0:
		return "", errors.New("pass the program as an argument or with --file, not both")
	case len(args) > 0:
		return args[0], nil
	case path == "-":
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read program: %w", err)
		}
		return string(data), nil
	case path != "":
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read program: %w", err)
		}
		return string(data), nil
	default:
		return "", errors.New("render requires a program argument or --file")
	}
}
