// Package http builds and executes the concrete requests envdiff sends to each environment.
//
// It wraps the standard library's http package with additional features:
//   - Building a resolved request from a request definition and an environment
//   - Configurable timeouts, redirects, TLS verification and forward proxy
//   - Response envelopes with per-request timing and body fingerprints
//   - Synthesized failure envelopes for unreachable environments
//   - gzip and zstd body decoding when the transport leaves bodies encoded
package http
