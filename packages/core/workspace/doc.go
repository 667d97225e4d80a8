// Package workspace defines the request definitions and environments that
// envdiff executes, and loads them from YAML or JSON/JSONC workspace files.
//
// A workspace file is validated against an embedded JSON Schema before it is
// decoded, so structural mistakes are reported with their location instead
// of surfacing later as empty fields.
package workspace
