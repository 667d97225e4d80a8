package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/tk0221/envdiff/packages/core/config"
	"github.com/tk0221/envdiff/packages/core/workspace"
)

var forceInit bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new envdiff workspace",
	Long: `Initialize a new envdiff workspace in the current directory.

This creates:
  - envdiff.yaml   - Requests and environments
  - .envdiff.yaml  - Configuration file

Examples:
  envdiff init
  envdiff init --force`,
	Args: cobra.NoArgs,
	RunE: initCommand,
}

func init() {
	initCmd.Flags().BoolVarP(&forceInit, "force", "f", false, "Overwrite existing files")
}

func exampleWorkspace() *workspace.Workspace {
	return &workspace.Workspace{
		Requests: []*workspace.RequestDefinition{
			{
				ID:     "health",
				Name:   "Health check",
				Method: "GET",
				URL:    "/health",
			},
			{
				ID:     "get-user",
				Method: "GET",
				URL:    "/users/{{userId}}",
				Headers: []workspace.KeyValue{
					{Key: "Accept", Value: "application/json"},
				},
			},
		},
		Environments: []*workspace.Environment{
			{
				ID:        "local",
				Name:      "Local",
				Color:     "green",
				BaseURL:   "http://localhost:3000",
				Variables: map[string]any{"userId": 1},
			},
			{
				ID:        "staging",
				Name:      "Staging",
				Color:     "yellow",
				BaseURL:   "https://staging.api.example.com",
				Token:     "{{$STAGING_TOKEN}}",
				Variables: map[string]any{"userId": 1},
			},
			{
				ID:        "production",
				Name:      "Production",
				Color:     "red",
				BaseURL:   "https://api.example.com",
				Token:     "{{$PRODUCTION_TOKEN}}",
				Variables: map[string]any{"userId": 1},
			},
		},
	}
}

func initCommand(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}

	workspaceFile := filepath.Join(cwd, workspace.DefaultFilenames[0])
	configFile := filepath.Join(cwd, config.ConfigFilenames[0])

	if !forceInit {
		for _, f := range []string{workspaceFile, configFile} {
			if _, err := os.Stat(f); err == nil {
				return withExitCode(ExitUsageError, fmt.Errorf("file already exists: %s (use --force to overwrite)", f))
			}
		}
	}

	wsData, err := workspace.Marshal(exampleWorkspace(), workspace.FormatYAML)
	if err != nil {
		return err
	}
	if err := os.WriteFile(workspaceFile, wsData, 0644); err != nil {
		return fmt.Errorf("failed to create workspace file: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", workspaceFile)

	d := config.DefaultConfig()
	configContent := map[string]any{
		"timeout":         d.Timeout,
		"concurrency":     d.Concurrency,
		"followRedirects": *d.FollowRedirects,
		"maxRedirects":    d.MaxRedirects,
		"validateSSL":     *d.ValidateSSL,
		"arrayStrategy":   d.ArrayStrategy,
		"authPrecedence":  d.AuthPrecedence,
		"baseline":        "production",
		"envFile":         d.EnvFile,
		"headers": map[string]string{
			"User-Agent": "envdiff/" + version,
		},
	}
	configYAML, err := yaml.Marshal(configContent)
	if err != nil {
		return err
	}
	if err := os.WriteFile(configFile, configYAML, 0644); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", configFile)

	fmt.Fprintf(cmd.OutOrStdout(), "\nenvdiff workspace initialized!\n")
	fmt.Fprintf(cmd.OutOrStdout(), "Put STAGING_TOKEN and PRODUCTION_TOKEN in .env, then run 'envdiff run'.\n")

	return nil
}
