package cmd

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/spf13/cobra"

	"github.com/tk0221/envdiff/packages/core/env"
	"github.com/tk0221/envdiff/packages/core/workspace"
)

// systemVarPrefix marks process environment variables that bind workspace
// variables, e.g. ENVDIFF_VAR_userId=42 binds {{userId}}.
const systemVarPrefix = "ENVDIFF_VAR_"

var (
	workspaceFlag string
	envFileFlag   string
)

// addWorkspaceFlags registers the flags shared by commands that read a
// workspace file.
func addWorkspaceFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&workspaceFlag, "workspace", "f", "", "Workspace file (default: envdiff.yaml, envdiff.json or envdiff.jsonc in the working directory)")
}

func addEnvFileFlag(cmd *cobra.Command) {
	cmd.Flags().StringVar(&envFileFlag, "env-file", "", "Path to .env file with secrets for {{$NAME}} references (env: ENVDIFF_ENVFILE)")
}

func workspacePath() (string, error) {
	if workspaceFlag != "" {
		return workspaceFlag, nil
	}
	return workspace.Find(".")
}

// loadWorkspace loads the workspace and expands {{$NAME}} secret references
// from the env file and the process environment.
func loadWorkspace() (*workspace.Workspace, error) {
	path, err := workspacePath()
	if err != nil {
		return nil, withExitCode(ExitWorkspaceError, err)
	}

	ws, err := workspace.Load(path)
	if err != nil {
		return nil, withExitCode(ExitWorkspaceError, err)
	}
	logger.Debug("workspace loaded", "path", path, "requests", len(ws.Requests), "environments", len(ws.Environments))

	secrets, err := loadSecrets()
	if err != nil {
		return nil, withExitCode(ExitConfigError, err)
	}
	ws.ExpandSecrets(secrets, warnf)
	return ws, nil
}

// loadSecrets reads the env file. A missing default file is not an error; a
// missing file that was asked for explicitly is.
func loadSecrets() (*env.Secrets, error) {
	path := envFileFlag
	explicit := path != ""
	if !explicit {
		path = appConfig.EnvFile
	}
	if path == "" {
		return env.NewSecrets(nil), nil
	}

	values, err := env.LoadDotEnv(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return env.NewSecrets(nil), nil
		}
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	logger.Debug("env file loaded", "path", path, "keys", len(values))
	return env.NewSecrets(values), nil
}

// overrideVariables layers ENVDIFF_VAR_* process variables and then --var
// assignments over each environment's own variables. The workspace is not
// modified.
func overrideVariables(envs []*workspace.Environment, assignments []string) []*workspace.Environment {
	system := env.LoadSystemEnv(systemVarPrefix)
	flags := env.ParseAssignments(assignments)
	if len(system) == 0 && len(flags) == 0 {
		return envs
	}

	out := make([]*workspace.Environment, 0, len(envs))
	for _, e := range envs {
		clone := *e
		clone.Variables = env.MergeVariables(e.Variables, system, flags)
		out = append(out, &clone)
	}
	return out
}

func warnf(format string, args ...any) {
	logger.Warn(fmt.Sprintf(format, args...))
}

// completeRequestIDs completes request ids from the workspace.
func completeRequestIDs(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	path, err := workspacePath()
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	ws, err := workspace.Load(path)
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	var ids []string
	for _, r := range ws.Requests {
		ids = append(ids, r.ID+"\t"+r.DisplayName())
	}
	return ids, cobra.ShellCompDirectiveNoFileComp
}

// completeEnvironmentIDs completes environment ids from the workspace.
func completeEnvironmentIDs(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	path, err := workspacePath()
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	ws, err := workspace.Load(path)
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	var ids []string
	for _, e := range ws.Environments {
		ids = append(ids, e.ID+"\t"+e.DisplayName())
	}
	return ids, cobra.ShellCompDirectiveNoFileComp
}
