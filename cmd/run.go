package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/bnema/drawloop/internal/adapters/render/summary"
	"github.com/bnema/drawloop/internal/application"
	"github.com/spf13/cobra"
)

var errNoInputs = errors.New("run requires at least one input text")

func newRunCmd(app *app) *cobra.Command {
	var (
		inputFile    string
		asJSON       bool
		showPrograms bool
	)

	cmd := &cobra.Command{
		Use:   "run [text...]",
		Short: "Draw each input text, keep the drawings the vision model confirms",
		Long:  "run converts each input into a drawing program, renders it, and asks the vision model what it sees. Matches are stored as few-shot examples. Exploration passes over random programs run between inputs and after the last one.",
		RunE: func(cmd *cobra.Command, args []string) error {
			inputs, err := collectInputs(cmd.InOrStdin(), inputFile, args)
			if err != nil {
				return err
			}

			orchestrator, err := app.newOrchestrator()
			if err != nil {
				return err
			}

			var report application.RunReport
			work := func(ctx context.Context) error {
				var runErr error
				report, runErr = orchestrator.Run(ctx, inputs)
				return runErr
			}

			if asJSON {
				err = work(cmd.Context())
			} else {
				err = runWithSpinner(cmd.Context(), cmd.ErrOrStderr(), fmt.Sprintf("Drawing %d inputs...", len(inputs)), orchestrator, work)
			}
			if err != nil {
				// Only the synchronous path has a settled partial report.
				if asJSON {
					_ = writeJSON(cmd, report)
				}
				return fmt.Errorf("run interrupted: %w", err)
			}

			if asJSON {
				return writeJSON(cmd, report)
			}
			return writeRendered(cmd, app.renderRun, report, summary.Options{ShowPrograms: showPrograms})
		},
	}

	cmd.Flags().StringVarP(&inputFile, "file", "f", "", "Read inputs from a file, one per line (- for stdin)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the run report as JSON")
	cmd.Flags().BoolVar(&showPrograms, "show-programs", false, "Print the generated program under each step")

	return cmd
}

// collectInputs returns the positional inputs followed by the non-blank lines of path.
func collectInputs(stdin io.Reader, path string, args []string) ([]string, error) {
	inputs := make([]string, 0, len(args))
	for _, arg := range args {
		if strings.TrimSpace(arg) != "" {
			inputs = append(inputs, arg)
		}
	}

	if path != "" {
		lines, err := readLines(stdin, path)
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, lines...)
	}

	if len(inputs) == 0 {
		return nil, errNoInputs
	}
	return inputs, nil
}

func readLines(stdin io.Reader, path string) ([]string, error) {
	var r io.Reader = stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open input file: %w", err)
		}
		defer f.Close()
		r = f
	}

	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read input file: %w", err)
	}
	return lines, nil
}

func writeRendered[T any](cmd *cobra.Command, render func(T, summary.Options) (string, error), v T, opts summary.Options) error {
	rendered, err := render(v, opts)
	if err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
	return err
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
