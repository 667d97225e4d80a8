package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/tk0221/envdiff/packages/core/workspace"
	"github.com/tk0221/envdiff/packages/http"
	"github.com/tk0221/envdiff/packages/report"
)

var diffCmd = &cobra.Command{
	Use:   "diff <left> <right>",
	Short: "Compare two saved response bodies",
	Long: `Compare two response bodies saved to disk with the same structural diff
that run uses. Either argument may be "-" to read standard input. Bodies that
are not both valid JSON are compared as text.

Exit status is 1 when the bodies differ.

Examples:
  envdiff diff staging.json production.json
  envdiff diff old.json new.json --ignore meta --array lcs
  curl -s https://api.example.com/users | envdiff diff expected.json -
  envdiff diff a.json b.json -o json`,
	Args: cobra.ExactArgs(2),
	RunE: diffCommand,
}

func init() {
	addCompareFlags(diffCmd)
	addOutputFlags(diffCmd)
}

func diffCommand(cmd *cobra.Command, args []string) error {
	opts, err := compareOptions()
	if err != nil {
		return err
	}
	if args[0] == "-" && args[1] == "-" {
		return withExitCode(ExitUsageError, fmt.Errorf("only one side can be read from standard input"))
	}

	start := time.Now()
	sides := [2]string{"left", "right"}
	envs := make([]*workspace.Environment, 0, 2)
	envelopes := make(map[string]*http.Envelope, 2)
	for i, path := range args {
		body, err := readBody(cmd.InOrStdin(), path)
		if err != nil {
			return withExitCode(ExitUsageError, err)
		}
		id := sides[i]
		envs = append(envs, &workspace.Environment{ID: id, Name: path})
		envelopes[id] = &http.Envelope{
			EnvironmentID: id,
			Status:        200,
			Size:          len(body),
			Body:          string(body),
			URL:           path,
		}
	}

	rep, err := report.New(report.Input{
		Request:      &workspace.RequestDefinition{ID: "diff", Name: fmt.Sprintf("%s vs %s", args[0], args[1])},
		Environments: envs,
		Envelopes:    envelopes,
		Options:      opts,
	})
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if outputFileFlag != "" {
		f, err := os.Create(outputFileFlag)
		if err != nil {
			return fmt.Errorf("cannot create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	format := appConfig.Output
	if outputFlag != "" {
		format = outputFlag
	}
	formatter, err := newFormatter(format, w, outputFileFlag != "")
	if err != nil {
		return err
	}
	formatter.FormatReport(rep)
	if flushable, ok := formatter.(Flushable); ok {
		if err := flushable.Flush(time.Since(start)); err != nil {
			return fmt.Errorf("error writing output: %w", err)
		}
	}

	if rep.HasDrift() {
		return withExitCode(ExitDrift, nil)
	}
	return nil
}

func readBody(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("reading standard input: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return data, nil
}
