package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tk0221/envdiff/packages/core/workspace"
)

var validateCmd = &cobra.Command{
	Use:   "validate [workspace...]",
	Short: "Validate workspace files without sending requests",
	Long: `Validate checks workspace files against the workspace schema and for
duplicate ids, without resolving or sending anything.

Examples:
  envdiff validate
  envdiff validate envdiff.yaml other/envdiff.jsonc`,
	RunE: validateCommand,
}

func init() {
	addWorkspaceFlags(validateCmd)
}

func validateCommand(cmd *cobra.Command, args []string) error {
	paths := args
	if len(paths) == 0 {
		path, err := workspacePath()
		if err != nil {
			return withExitCode(ExitWorkspaceError, err)
		}
		paths = []string{path}
	}

	hasErrors := false
	for _, path := range paths {
		_, err := workspace.Load(path)
		if err == nil {
			fmt.Fprintf(cmd.OutOrStdout(), "Valid: %s\n", path)
			continue
		}

		hasErrors = true
		var verr *workspace.ValidationError
		if errors.As(err, &verr) {
			fmt.Fprintf(cmd.ErrOrStderr(), "Invalid: %s\n", path)
			for _, p := range verr.Problems {
				fmt.Fprintf(cmd.ErrOrStderr(), "  - %s\n", p)
			}
			continue
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Error in %s: %v\n", path, err)
	}

	if hasErrors {
		return withExitCode(ExitWorkspaceError, fmt.Errorf("validation failed"))
	}
	return nil
}
