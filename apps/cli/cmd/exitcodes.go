package cmd

// Exit codes for the envdiff CLI
const (
	// ExitSuccess indicates every environment matched the baseline
	ExitSuccess = 0

	// ExitDrift indicates at least one environment differs from the baseline
	ExitDrift = 1

	// ExitWorkspaceError indicates the workspace file could not be loaded
	ExitWorkspaceError = 2

	// ExitConfigError indicates a configuration error
	ExitConfigError = 3

	// ExitNetworkError indicates that no environment could be reached
	ExitNetworkError = 4

	// ExitUsageError indicates invalid CLI usage
	ExitUsageError = 64
)
