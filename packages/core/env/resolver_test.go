package env

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		variables map[string]any
		expected  string
	}{
		{
			name:     "no variables",
			input:    "https://api.example.com/users",
			expected: "https://api.example.com/users",
		},
		{
			name:      "host and path",
			input:     "https://api.{{env}}.x.com/u/{{id}}",
			variables: map[string]any{"env": "qa", "id": 42},
			expected:  "https://api.qa.x.com/u/42",
		},
		{
			name:      "unresolved stays as-is",
			input:     "https://api.{{env}}.x.com/u/{{id}}",
			variables: map[string]any{"env": "qa"},
			expected:  "https://api.qa.x.com/u/{{id}}",
		},
		{
			name:      "first occurrence only",
			input:     "/{{v}}/{{v}}",
			variables: map[string]any{"v": "a"},
			expected:  "/a/{{v}}",
		},
		{
			name:      "boolean value",
			input:     "/items?active={{active}}",
			variables: map[string]any{"active": true},
			expected:  "/items?active=true",
		},
		{
			name:      "float value",
			input:     "/v{{version}}",
			variables: map[string]any{"version": 1.5},
			expected:  "/v1.5",
		},
		{
			name:      "integral float renders without exponent",
			input:     "/u/{{id}}",
			variables: map[string]any{"id": float64(1000000)},
			expected:  "/u/1000000",
		},
		{
			name:      "substituted text is not rescanned",
			input:     "{{a}}-{{b}}",
			variables: map[string]any{"a": "{{b}}", "b": "x"},
			expected:  "{{b}}-x",
		},
		{
			name:      "unknown braces pass through",
			input:     "{{ spaced }} and {{",
			variables: map[string]any{"spaced": "no"},
			expected:  "{{ spaced }} and {{",
		},
		{
			name:      "triple braces",
			input:     "{{{id}}}",
			variables: map[string]any{"id": 7},
			expected:  "{7}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(tt.input, tt.variables)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestResolveGlobal(t *testing.T) {
	got := ResolveGlobal("/{{v}}/{{v}}", map[string]any{"v": "a"})
	assert.Equal(t, "/a/a", got)
}

func TestResolveIsDeterministic(t *testing.T) {
	vars := map[string]any{"a": "{{b}}", "b": "{{a}}", "c": 3, "d": "x"}
	want := Resolve("{{a}}{{b}}{{c}}{{d}}", vars)
	for i := 0; i < 50; i++ {
		assert.Equal(t, want, Resolve("{{a}}{{b}}{{c}}{{d}}", vars))
	}
}

func TestUnresolved(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		variables map[string]any
		expected  []string
	}{
		{
			name:     "no placeholders",
			input:    "hello world",
			expected: nil,
		},
		{
			name:      "all bound",
			input:     "{{foo}} and {{bar}}",
			variables: map[string]any{"foo": 1, "bar": 2},
			expected:  nil,
		},
		{
			name:      "mixed",
			input:     "{{foo}} and {{bar}} and {{baz}} and {{foo}}",
			variables: map[string]any{"bar": "middle"},
			expected:  []string{"foo", "baz"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Unresolved(tt.input, tt.variables))
		})
	}
}

func TestResolverWarnsOnUnresolved(t *testing.T) {
	r := NewResolver()
	r.SetVariables(map[string]any{"host": "qa.example.com"})

	var warnings []string
	r.SetWarnFunc(func(format string, args ...any) {
		warnings = append(warnings, fmt.Sprintf(format, args...))
	})

	got := r.Resolve("https://{{host}}/{{tenant}}")
	assert.Equal(t, "https://qa.example.com/{{tenant}}", got)
	assert.Equal(t, []string{"unresolved variable: tenant"}, warnings)
}

func TestResolverGlobalMode(t *testing.T) {
	r := NewResolver()
	r.SetVariables(map[string]any{"v": "a"})
	assert.Equal(t, "a-{{v}}", r.Resolve("{{v}}-{{v}}"))

	r.SetGlobal(true)
	assert.Equal(t, "a-a", r.Resolve("{{v}}-{{v}}"))

	r.SetVariables(map[string]any{"v": "b"})
	assert.Equal(t, "b-b", r.Resolve("{{v}}-{{v}}"))
}

func TestStringify(t *testing.T) {
	assert.Equal(t, "42", Stringify(42))
	assert.Equal(t, "42", Stringify(int64(42)))
	assert.Equal(t, "0.1", Stringify(0.1))
	assert.Equal(t, "false", Stringify(false))
	assert.Equal(t, "", Stringify(nil))
	assert.Equal(t, "1e+21", Stringify(1e21))
}

func TestStringifyNumbersAsWritten(t *testing.T) {
	assert.Equal(t, "12345678901234567", Stringify(json.Number("12345678901234567")))
	assert.Equal(t, "1.10", Stringify(json.Number("1.10")))
}
