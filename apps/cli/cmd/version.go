package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

var shortVersion bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if shortVersion {
			fmt.Fprintln(cmd.OutOrStdout(), version)
			return
		}
		fmt.Fprintf(cmd.OutOrStdout(), "envdiff %s\n", version)
		fmt.Fprintf(cmd.OutOrStdout(), "  built:    %s\n", buildTime)
		fmt.Fprintf(cmd.OutOrStdout(), "  go:       %s\n", runtime.Version())
		fmt.Fprintf(cmd.OutOrStdout(), "  platform: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	},
}

func init() {
	versionCmd.Flags().BoolVar(&shortVersion, "short", false, "Print only the version number")
}
