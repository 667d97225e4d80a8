package cmd

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/tk0221/envdiff/packages/core/env"
	"github.com/tk0221/envdiff/packages/core/workspace"
	"github.com/tk0221/envdiff/packages/http"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve [request-id...]",
	Short: "Show requests as they would be sent to each environment",
	Long: `Resolve substitutes each environment's variables into the requests and
prints the result without sending anything. Placeholders that no variable
matches are left as-is and reported.

With --template an arbitrary string is resolved instead.

Examples:
  envdiff resolve
  envdiff resolve get-user --env staging
  envdiff resolve --template "{{baseUrl}}/users/{{userId}}"
  envdiff resolve get-user --var userId=42`,
	ValidArgsFunction: completeRequestIDs,
	RunE:              resolveCommand,
}

var templateFlag string

func init() {
	addWorkspaceFlags(resolveCmd)
	addEnvFileFlag(resolveCmd)
	addSelectionFlags(resolveCmd)
	resolveCmd.Flags().StringVarP(&templateFlag, "template", "t", "", "Resolve this string against each environment instead of the requests")
}

func resolveCommand(cmd *cobra.Command, args []string) error {
	if templateFlag != "" {
		return resolveTemplate(cmd)
	}
	settings, err := newRunSettings(cmd)
	if err != nil {
		return err
	}
	return dryRun(cmd, settings, args)
}

// dryRun prints every resolved request. It backs both resolve and run --dry-run.
func dryRun(cmd *cobra.Command, s *runSettings, args []string) error {
	_, requests, envs, err := selectTargets(args)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	unresolved := 0
	for _, req := range requests {
		fmt.Fprintf(w, "%s\n", color.New(color.Bold).Sprint(req.ID))
		for _, r := range s.builder.BuildAll(req, envs) {
			writeResolved(w, r)
			unresolved += len(r.Unresolved)
		}
		fmt.Fprintln(w)
	}

	if unresolved > 0 {
		logger.Warn("requests contain unresolved variables", "count", unresolved)
	}
	return nil
}

func writeResolved(w io.Writer, r *http.ResolvedRequest) {
	fmt.Fprintf(w, "  [%s] %s %s\n", r.EnvironmentID, r.Method, r.URL)

	keys := make([]string, 0, len(r.Headers))
	for k := range r.Headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "      %s: %s\n", k, r.Headers[k])
	}
	if r.Body != "" {
		for _, line := range strings.Split(r.Body, "\n") {
			fmt.Fprintf(w, "      %s\n", line)
		}
	}
	if len(r.Unresolved) > 0 {
		fmt.Fprintf(w, "      %s %s\n", color.YellowString("unresolved:"), strings.Join(r.Unresolved, ", "))
	}
}

func resolveTemplate(cmd *cobra.Command) error {
	envs, err := templateEnvironments()
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	for _, e := range envs {
		r := env.NewResolver()
		r.SetGlobal(appConfig.GetGlobalSubstitution())
		r.SetVariables(e.Variables)
		r.SetWarnFunc(func(format string, args ...any) {
			logger.Warn(fmt.Sprintf(format, args...), "environment", e.ID)
		})
		fmt.Fprintf(w, "[%s] %s\n", e.ID, r.Resolve(templateFlag))
	}
	return nil
}

// templateEnvironments is selectTargets without the request lookup, so a
// workspace without requests can still resolve templates.
func templateEnvironments() ([]*workspace.Environment, error) {
	ws, err := loadWorkspace()
	if err != nil {
		return nil, err
	}
	envs, err := ws.SelectEnvironments(envsFlag)
	if err != nil {
		return nil, withExitCode(ExitWorkspaceError, err)
	}
	return overrideVariables(envs, varFlags), nil
}
