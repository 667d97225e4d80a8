package http

import (
	"net/url"
	"strings"

	"github.com/tk0221/envdiff/packages/core/env"
	"github.com/tk0221/envdiff/packages/core/workspace"
)

// ResolvedRequest is a dispatch-ready request for one environment. All
// placeholders the environment binds have been substituted; the rest are
// listed in Unresolved.
type ResolvedRequest struct {
	EnvironmentID string
	RequestID     string
	Method        string
	URL           string
	Headers       map[string]string
	Body          string
	Unresolved    []string
	UseProxy      bool
}

// Header returns a header value, matching the name case-insensitively.
func (r *ResolvedRequest) Header(key string) string {
	for k, v := range r.Headers {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return ""
}

// Builder turns request definitions into resolved requests.
type Builder struct {
	// PreserveAuthorization keeps an explicit Authorization header instead of
	// replacing it with the environment's bearer token.
	PreserveAuthorization bool
	// GlobalSubstitution replaces every occurrence of a placeholder instead of
	// only the first one.
	GlobalSubstitution bool
	// ProxyPrefix is prepended (with the target URL query-escaped) for
	// environments that set UseProxy.
	ProxyPrefix string
}

// Build resolves a request for an environment with the default builder.
func Build(req *workspace.RequestDefinition, e *workspace.Environment) *ResolvedRequest {
	var b Builder
	return b.Build(req, e)
}

// BuildAll resolves a request for each environment, preserving order.
func (b *Builder) BuildAll(req *workspace.RequestDefinition, envs []*workspace.Environment) []*ResolvedRequest {
	out := make([]*ResolvedRequest, 0, len(envs))
	for _, e := range envs {
		out = append(out, b.Build(req, e))
	}
	return out
}

func (b *Builder) resolve(s string, vars map[string]any) string {
	if b.GlobalSubstitution {
		return env.ResolveGlobal(s, vars)
	}
	return env.Resolve(s, vars)
}

// Build resolves req for environment e.
//
// The URL template is the environment's override for req.ID when present,
// else req.URL. Enabled query parameters are appended, then headers are
// assembled in order: custom headers, a JSON Content-Type for methods with a
// body, and the environment's bearer token.
func (b *Builder) Build(req *workspace.RequestDefinition, e *workspace.Environment) *ResolvedRequest {
	vars := e.Variables
	method := strings.ToUpper(req.Method)

	template := req.URL
	if override, ok := e.URLs[req.ID]; ok {
		template = override
	}

	var unresolved []string
	seen := make(map[string]bool)
	track := func(s string) {
		for _, name := range env.Unresolved(s, vars) {
			if !seen[name] {
				seen[name] = true
				unresolved = append(unresolved, name)
			}
		}
	}

	track(template)
	target := b.resolve(template, vars)
	if e.BaseURL != "" && !hasScheme(target) {
		track(e.BaseURL)
		target = joinURL(b.resolve(e.BaseURL, vars), target)
	}

	var params []string
	for _, p := range append(append([]workspace.KeyValue(nil), req.Params...), e.Params...) {
		if !p.IsEnabled() || p.Key == "" {
			continue
		}
		track(p.Value)
		params = append(params, encodeComponent(p.Key)+"="+encodeComponent(b.resolve(p.Value, vars)))
	}
	target = appendQuery(target, strings.Join(params, "&"))

	headers := make(map[string]string)
	for _, h := range append(append([]workspace.KeyValue(nil), req.Headers...), e.Headers...) {
		if !h.IsEnabled() || h.Key == "" {
			continue
		}
		track(h.Value)
		setHeader(headers, h.Key, b.resolve(h.Value, vars))
	}

	hasBody := method != "GET" && method != "HEAD"
	if hasBody && !hasHeader(headers, "Content-Type") {
		headers["Content-Type"] = "application/json"
	}

	if e.Token != "" && !(b.PreserveAuthorization && hasHeader(headers, "Authorization")) {
		track(e.Token)
		setHeader(headers, "Authorization", "Bearer "+b.resolve(e.Token, vars))
	}

	var body string
	if hasBody {
		track(req.Body)
		body = b.resolve(req.Body, vars)
	}

	if e.UseProxy && b.ProxyPrefix != "" {
		target = b.ProxyPrefix + encodeComponent(target)
	}

	return &ResolvedRequest{
		EnvironmentID: e.ID,
		RequestID:     req.ID,
		Method:        method,
		URL:           target,
		Headers:       headers,
		Body:          body,
		Unresolved:    unresolved,
		UseProxy:      e.UseProxy && b.ProxyPrefix != "",
	}
}

// encodeComponent percent-encodes s for use as a query key or value, encoding
// spaces as %20 rather than +.
func encodeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// appendQuery attaches query to u with ? or &, keeping any #fragment last.
func appendQuery(u, query string) string {
	if query == "" {
		return u
	}
	base, fragment, hasFragment := strings.Cut(u, "#")
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
		if strings.HasSuffix(base, "?") || strings.HasSuffix(base, "&") {
			sep = ""
		}
	}
	out := base + sep + query
	if hasFragment {
		out += "#" + fragment
	}
	return out
}

// hasScheme reports whether u starts with "scheme://". It does not parse the
// rest, so an absolute template with an unresolved host is still absolute.
func hasScheme(u string) bool {
	scheme, _, ok := strings.Cut(u, "://")
	if !ok || scheme == "" {
		return false
	}
	for i, c := range scheme {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case i > 0 && (c >= '0' && c <= '9' || c == '+' || c == '-' || c == '.'):
		default:
			return false
		}
	}
	return true
}

func joinURL(base, path string) string {
	if path == "" {
		return base
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}

// setHeader sets key, replacing any existing header that differs only in case.
func setHeader(headers map[string]string, key, value string) {
	for k := range headers {
		if strings.EqualFold(k, key) {
			delete(headers, k)
		}
	}
	headers[key] = value
}

func hasHeader(headers map[string]string, key string) bool {
	for k := range headers {
		if strings.EqualFold(k, key) {
			return true
		}
	}
	return false
}
