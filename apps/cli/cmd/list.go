package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the requests and environments in a workspace",
	Long: `List every request and environment defined in the workspace.

Examples:
  envdiff list
  envdiff list -f api/envdiff.yaml`,
	Args: cobra.NoArgs,
	RunE: listCommand,
}

func init() {
	addWorkspaceFlags(listCmd)
}

func listCommand(cmd *cobra.Command, args []string) error {
	ws, err := loadWorkspace()
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%s:\n", ws.Path)

	fmt.Fprintf(w, "\nRequests:\n")
	for _, req := range ws.Requests {
		fmt.Fprintf(w, "  - %s  %s %s\n", req.ID, strings.ToUpper(req.Method), req.URL)
		if req.Name != "" {
			fmt.Fprintf(w, "    name: %s\n", req.Name)
		}
	}

	fmt.Fprintf(w, "\nEnvironments:\n")
	for _, e := range ws.Environments {
		fmt.Fprintf(w, "  - %s", e.ID)
		if e.Name != "" && e.Name != e.ID {
			fmt.Fprintf(w, " (%s)", e.Name)
		}
		fmt.Fprintln(w)
		if e.BaseURL != "" {
			fmt.Fprintf(w, "    baseUrl: %s\n", e.BaseURL)
		}
		if len(e.Variables) > 0 {
			names := make([]string, 0, len(e.Variables))
			for name := range e.Variables {
				names = append(names, name)
			}
			sort.Strings(names)
			fmt.Fprintf(w, "    variables: %s\n", strings.Join(names, ", "))
		}
		if e.UseProxy {
			fmt.Fprintf(w, "    proxied via %s\n", appConfig.ProxyPrefix)
		}
	}

	return nil
}
