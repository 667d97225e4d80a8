package http

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tk0221/envdiff/packages/core/workspace"
)

func disabled() *bool {
	b := false
	return &b
}

func TestBuild_URL(t *testing.T) {
	tests := []struct {
		name string
		req  workspace.RequestDefinition
		env  workspace.Environment
		want string
	}{
		{
			name: "template resolved with variables",
			req:  workspace.RequestDefinition{ID: "u", Method: "GET", URL: "https://api.{{env}}.x.com/u/{{id}}"},
			env:  workspace.Environment{ID: "qa", Variables: map[string]any{"env": "qa", "id": 42}},
			want: "https://api.qa.x.com/u/42",
		},
		{
			name: "missing variable left intact",
			req:  workspace.RequestDefinition{ID: "u", Method: "GET", URL: "https://api.{{env}}.x.com/u/{{id}}"},
			env:  workspace.Environment{ID: "qa", Variables: map[string]any{"env": "qa"}},
			want: "https://api.qa.x.com/u/{{id}}",
		},
		{
			name: "environment override wins",
			req:  workspace.RequestDefinition{ID: "u", Method: "GET", URL: "https://default.example.com"},
			env: workspace.Environment{
				ID:        "prod",
				Variables: map[string]any{"region": "eu"},
				URLs:      map[string]string{"u": "https://{{region}}.example.com/legacy"},
			},
			want: "https://eu.example.com/legacy",
		},
		{
			name: "override for another request ignored",
			req:  workspace.RequestDefinition{ID: "u", Method: "GET", URL: "https://default.example.com"},
			env:  workspace.Environment{ID: "prod", URLs: map[string]string{"other": "https://nope"}},
			want: "https://default.example.com",
		},
		{
			name: "relative URL joined to base URL",
			req:  workspace.RequestDefinition{ID: "u", Method: "GET", URL: "/users/{{id}}"},
			env:  workspace.Environment{ID: "s", BaseURL: "https://{{host}}/v1/", Variables: map[string]any{"id": 7, "host": "staging.example.com"}},
			want: "https://staging.example.com/v1/users/7",
		},
		{
			name: "absolute URL ignores base URL",
			req:  workspace.RequestDefinition{ID: "u", Method: "GET", URL: "https://other.example.com/x"},
			env:  workspace.Environment{ID: "s", BaseURL: "https://staging.example.com"},
			want: "https://other.example.com/x",
		},
		{
			name: "absolute URL with unresolved host ignores base URL",
			req:  workspace.RequestDefinition{ID: "u", Method: "GET", URL: "https://{{host}}/x"},
			env:  workspace.Environment{ID: "s", BaseURL: "https://staging.example.com"},
			want: "https://{{host}}/x",
		},
		{
			name: "scheme-like text in a relative path",
			req:  workspace.RequestDefinition{ID: "u", Method: "GET", URL: "/redirect?to=https://x.com"},
			env:  workspace.Environment{ID: "s", BaseURL: "https://staging.example.com"},
			want: "https://staging.example.com/redirect?to=https://x.com",
		},
		{
			name: "params appended and encoded",
			req: workspace.RequestDefinition{ID: "u", Method: "GET", URL: "https://x.com/search",
				Params: []workspace.KeyValue{
					{Key: "q", Value: "a b&c"},
					{Key: "skip", Value: "1", Enabled: disabled()},
				}},
			env: workspace.Environment{ID: "s", Params: []workspace.KeyValue{{Key: "region", Value: "{{r}}"}},
				Variables: map[string]any{"r": "eu/west"}},
			want: "https://x.com/search?q=a%20b%26c&region=eu%2Fwest",
		},
		{
			name: "params extend existing query",
			req: workspace.RequestDefinition{ID: "u", Method: "GET", URL: "https://x.com/search?page=2",
				Params: []workspace.KeyValue{{Key: "q", Value: "go"}}},
			env:  workspace.Environment{ID: "s"},
			want: "https://x.com/search?page=2&q=go",
		},
		{
			name: "params placed before fragment",
			req: workspace.RequestDefinition{ID: "u", Method: "GET", URL: "https://x.com/p#top",
				Params: []workspace.KeyValue{{Key: "q", Value: "1"}}},
			env:  workspace.Environment{ID: "s"},
			want: "https://x.com/p?q=1#top",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Build(&tt.req, &tt.env)
			assert.Equal(t, tt.want, got.URL)
			assert.Equal(t, tt.env.ID, got.EnvironmentID)
			assert.Equal(t, tt.req.ID, got.RequestID)
		})
	}
}

func TestBuild_Headers(t *testing.T) {
	req := &workspace.RequestDefinition{
		ID:     "create",
		Method: "post",
		URL:    "https://x.com/items",
		Headers: []workspace.KeyValue{
			{Key: "X-Tenant", Value: "{{tenant}}"},
			{Key: "X-Debug", Value: "1", Enabled: disabled()},
			{Key: "Authorization", Value: "Basic abc"},
		},
		Body: `{"tenant":"{{tenant}}"}`,
	}
	e := &workspace.Environment{
		ID:        "prod",
		Token:     "tok-{{tenant}}",
		Variables: map[string]any{"tenant": "acme"},
		Headers:   []workspace.KeyValue{{Key: "x-tenant", Value: "override"}},
	}

	got := Build(req, e)
	assert.Equal(t, "POST", got.Method)
	assert.Equal(t, map[string]string{
		"x-tenant":      "override",
		"Content-Type":  "application/json",
		"Authorization": "Bearer tok-acme",
	}, got.Headers)
	assert.Equal(t, `{"tenant":"acme"}`, got.Body)
	assert.Empty(t, got.Unresolved)
}

func TestBuild_PreserveAuthorization(t *testing.T) {
	req := &workspace.RequestDefinition{
		ID: "u", Method: "GET", URL: "https://x.com",
		Headers: []workspace.KeyValue{{Key: "authorization", Value: "Basic abc"}},
	}
	e := &workspace.Environment{ID: "prod", Token: "tok"}

	b := Builder{PreserveAuthorization: true}
	got := b.Build(req, e)
	assert.Equal(t, "Basic abc", got.Header("Authorization"))
	assert.Len(t, got.Headers, 1)

	got = b.Build(&workspace.RequestDefinition{ID: "u", Method: "GET", URL: "https://x.com"}, e)
	assert.Equal(t, "Bearer tok", got.Header("Authorization"))
}

func TestBuild_ContentType(t *testing.T) {
	tests := []struct {
		method  string
		headers []workspace.KeyValue
		want    string
	}{
		{method: "GET", want: ""},
		{method: "HEAD", want: ""},
		{method: "DELETE", want: "application/json"},
		{method: "PUT", headers: []workspace.KeyValue{{Key: "content-type", Value: "text/plain"}}, want: "text/plain"},
	}
	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			got := Build(&workspace.RequestDefinition{ID: "u", Method: tt.method, URL: "https://x.com", Headers: tt.headers, Body: "b"},
				&workspace.Environment{ID: "e"})
			assert.Equal(t, tt.want, got.Header("Content-Type"))
			if tt.method == "GET" || tt.method == "HEAD" {
				assert.Empty(t, got.Body)
			} else {
				assert.Equal(t, "b", got.Body)
			}
		})
	}
}

func TestBuild_Unresolved(t *testing.T) {
	req := &workspace.RequestDefinition{
		ID: "u", Method: "GET", URL: "https://{{host}}/u/{{id}}",
		Headers: []workspace.KeyValue{{Key: "X-Key", Value: "{{apiKey}}"}},
	}
	got := Build(req, &workspace.Environment{ID: "e", Variables: map[string]any{"host": "h"}, Token: "{{id}}"})

	assert.Equal(t, []string{"id", "apiKey"}, got.Unresolved)
	assert.Equal(t, "https://h/u/{{id}}", got.URL)
}

func TestBuild_Proxy(t *testing.T) {
	req := &workspace.RequestDefinition{ID: "u", Method: "GET", URL: "https://api.x.com/a?b=1"}
	e := &workspace.Environment{ID: "e", UseProxy: true}

	b := Builder{ProxyPrefix: "https://corsproxy.io/?"}
	got := b.Build(req, e)
	assert.Equal(t, "https://corsproxy.io/?https%3A%2F%2Fapi.x.com%2Fa%3Fb%3D1", got.URL)
	assert.True(t, got.UseProxy)

	got = Build(req, e)
	assert.Equal(t, "https://api.x.com/a?b=1", got.URL)
	assert.False(t, got.UseProxy)
}

func TestBuild_GlobalSubstitution(t *testing.T) {
	req := &workspace.RequestDefinition{ID: "u", Method: "GET", URL: "https://x.com/{{v}}/{{v}}"}
	e := &workspace.Environment{ID: "e", Variables: map[string]any{"v": "a"}}

	assert.Equal(t, "https://x.com/a/{{v}}", Build(req, e).URL)

	b := Builder{GlobalSubstitution: true}
	assert.Equal(t, "https://x.com/a/a", b.Build(req, e).URL)
}

func TestBuildAll_KeepsOrder(t *testing.T) {
	req := &workspace.RequestDefinition{ID: "u", Method: "GET", URL: "https://{{h}}"}
	envs := []*workspace.Environment{
		{ID: "prod", Variables: map[string]any{"h": "prod.x"}},
		{ID: "staging", Variables: map[string]any{"h": "staging.x"}},
	}
	var b Builder
	got := b.BuildAll(req, envs)
	if assert.Len(t, got, 2) {
		assert.Equal(t, "prod", got[0].EnvironmentID)
		assert.Equal(t, "https://staging.x", got[1].URL)
	}
}

func TestBuild_LoadedNumbersKeepTheirDigits(t *testing.T) {
	ws, err := workspace.Parse([]byte(`
requests:
  - id: get-order
    method: GET
    url: /orders/{{orderId}}/v{{ver}}
environments:
  - id: prod
    baseUrl: https://api.example.com
    variables:
      orderId: 12345678901234567
      ver: 1.10
`), workspace.FormatYAML)
	require.NoError(t, err)

	got := Build(ws.Requests[0], ws.Environments[0])
	assert.Equal(t, "https://api.example.com/orders/12345678901234567/v1.10", got.URL)
}
