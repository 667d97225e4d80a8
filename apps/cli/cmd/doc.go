// Package cmd implements the envdiff CLI commands using Cobra.
//
// Available commands:
//   - run: Send requests to several environments and diff the responses
//   - diff: Compare two JSON files offline
//   - resolve: Show the resolved requests without sending them
//   - validate: Check a workspace file against its schema
//   - list: Display the requests and environments of a workspace
//   - init: Create a starter workspace
//   - version: Show envdiff version information
//
// Configuration comes from .envdiff.yaml and ENVDIFF_* variables; flags
// override both.
package cmd
