// Package env handles environment variable bindings and template resolution for envdiff.
//
// It provides functionality for:
//   - Substituting {{variable}} placeholders from an environment's variable map
//   - Detecting placeholders left unresolved by a variable map
//   - Loading secrets from .env files (KEY=value)
//   - Expanding {{$NAME}} secret references in tokens and header values
package env
