package workspace

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tk0221/envdiff/packages/core/env"
)

const sampleYAML = `
requests:
  - id: list-items
    name: List items
    method: GET
    url: "https://api.{{env}}.example.com/items"
    params:
      - key: limit
        value: "10"
      - key: debug
        value: "1"
        enabled: false
environments:
  - id: staging
    name: Staging
    color: "#f59e0b"
    variables:
      env: staging
      version: 2
      beta: true
    token: "{{$STAGING_TOKEN}}"
  - id: prod
    name: Production
    variables:
      env: prod
    urls:
      list-items: "https://api.example.com/v2/items"
`

func TestParseYAML(t *testing.T) {
	ws, err := Parse([]byte(sampleYAML), FormatYAML)
	require.NoError(t, err)

	require.Len(t, ws.Requests, 1)
	req := ws.Requests[0]
	assert.Equal(t, "list-items", req.ID)
	assert.Equal(t, "GET", req.Method)
	require.Len(t, req.Params, 2)
	assert.True(t, req.Params[0].IsEnabled())
	assert.False(t, req.Params[1].IsEnabled())

	require.Len(t, ws.Environments, 2)
	staging := ws.Environments[0]
	assert.Equal(t, "#f59e0b", staging.Color)
	assert.Equal(t, "staging", staging.Variables["env"])
	assert.Equal(t, json.Number("2"), staging.Variables["version"])
	assert.Equal(t, true, staging.Variables["beta"])
	assert.Equal(t, "https://api.example.com/v2/items", ws.Environments[1].URLs["list-items"])
}

func TestParseJSONC(t *testing.T) {
	data := []byte(`{
  // one request, two targets
  "requests": [
    {"id": "health", "method": "get", "url": "/health",},
  ],
  "environments": [
    {"id": "a", "baseUrl": "http://a.local"},
    {"id": "b", "baseUrl": "http://b.local"}, /* trailing */
  ],
}`)

	ws, err := Parse(data, FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, "health", ws.Requests[0].ID)
	assert.Equal(t, "http://b.local", ws.Environments[1].BaseURL)
}

func TestParseKeepsNumbersAsWritten(t *testing.T) {
	yamlDoc := []byte(`
requests:
  - id: get-order
    method: GET
    url: /orders/{{orderId}}/v{{ver}}
environments:
  - id: staging
    variables: &defaults
      region: 1.20
  - id: prod
    variables:
      <<: *defaults
      orderId: 12345678901234567
      ver: 1.10
      hex: 0x1F
`)
	ws, err := Parse(yamlDoc, FormatYAML)
	require.NoError(t, err)
	vars := ws.Environments[1].Variables
	assert.Equal(t, "12345678901234567", env.Stringify(vars["orderId"]))
	assert.Equal(t, "1.10", env.Stringify(vars["ver"]))
	assert.Equal(t, "1.20", env.Stringify(vars["region"]))
	assert.Equal(t, "31", env.Stringify(vars["hex"]))

	jsonDoc := []byte(`{
  "requests": [{"id": "get-order", "method": "GET", "url": "/orders/{{orderId}}"}],
  "environments": [{"id": "prod", "variables": {"orderId": 12345678901234567, "ver": 1.10}}]
}`)
	ws, err = Parse(jsonDoc, FormatJSON)
	require.NoError(t, err)
	vars = ws.Environments[0].Variables
	assert.Equal(t, "12345678901234567", env.Stringify(vars["orderId"]))
	assert.Equal(t, "1.10", env.Stringify(vars["ver"]))
}

func TestParseRejectsInvalidDocuments(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name: "request without method",
			content: `
requests:
  - id: r1
    url: /x
environments: []
`,
			want: "method",
		},
		{
			name: "unknown method",
			content: `
requests:
  - id: r1
    method: FETCH
    url: /x
environments: []
`,
			want: "method",
		},
		{
			name: "object variable value",
			content: `
requests: []
environments:
  - id: e1
    variables:
      nested: {a: 1}
`,
			want: "nested",
		},
		{
			name: "duplicate environment",
			content: `
requests: []
environments:
  - id: e1
  - id: e1
`,
			want: `duplicate environment id "e1"`,
		},
		{
			name: "override for unknown request",
			content: `
requests: []
environments:
  - id: e1
    urls:
      ghost: /x
`,
			want: `unknown request "ghost"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.content), FormatYAML)
			require.Error(t, err)

			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Contains(t, verr.Error(), tt.want)
		})
	}
}

func TestLoadAndFind(t *testing.T) {
	dir := t.TempDir()
	_, err := Find(dir)
	assert.Error(t, err)

	path := filepath.Join(dir, "envdiff.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0644))

	found, err := Find(dir)
	require.NoError(t, err)
	assert.Equal(t, path, found)

	ws, err := Load(found)
	require.NoError(t, err)
	assert.Equal(t, path, ws.Path)
}

func TestLoadReportsPathOnValidationError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("requests: 3\nenvironments: []\n"), 0644))

	_, err := Load(path)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, path, verr.Path)
}

func TestLookups(t *testing.T) {
	ws, err := Parse([]byte(sampleYAML), FormatYAML)
	require.NoError(t, err)

	_, err = ws.Request("missing")
	assert.True(t, errors.Is(err, ErrRequestNotFound))

	_, err = ws.Environment("missing")
	assert.True(t, errors.Is(err, ErrEnvironmentNotFound))

	all, err := ws.SelectEnvironments(nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	picked, err := ws.SelectEnvironments([]string{"prod", "staging", "prod"})
	require.NoError(t, err)
	require.Len(t, picked, 2)
	assert.Equal(t, "prod", picked[0].ID)
	assert.Equal(t, "staging", picked[1].ID)

	_, err = ws.SelectEnvironments([]string{"qa"})
	assert.True(t, errors.Is(err, ErrEnvironmentNotFound))
}

func TestExpandSecrets(t *testing.T) {
	ws, err := Parse([]byte(sampleYAML), FormatYAML)
	require.NoError(t, err)

	ws.ExpandSecrets(env.NewSecrets(map[string]string{"STAGING_TOKEN": "s3cr3t"}), nil)
	assert.Equal(t, "s3cr3t", ws.Environments[0].Token)
}

func TestMarshalRoundTripsThroughParse(t *testing.T) {
	ws, err := Parse([]byte(sampleYAML), FormatYAML)
	require.NoError(t, err)

	for _, format := range []Format{FormatYAML, FormatJSON} {
		data, err := Marshal(ws, format)
		require.NoError(t, err)

		again, err := Parse(data, format)
		require.NoError(t, err, string(data))
		assert.Equal(t, ws.Requests[0].URL, again.Requests[0].URL)
		assert.Equal(t, ws.Environments[1].URLs, again.Environments[1].URLs)
	}
}
