package workspace

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"
	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	"github.com/tk0221/envdiff/packages/core/env"
)

// Format is the encoding of a workspace file.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// DefaultFilenames are searched, in order, when no workspace path is given.
var DefaultFilenames = []string{
	"envdiff.yaml",
	"envdiff.yml",
	"envdiff.json",
	"envdiff.jsonc",
}

// ValidationError lists every schema violation found in a workspace document.
type ValidationError struct {
	Path     string
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid workspace %s: %s", e.Path, strings.Join(e.Problems, "; "))
}

// FormatFromPath picks the workspace format from the file extension.
// Anything that is not .json or .jsonc is treated as YAML.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		return FormatJSON
	default:
		return FormatYAML
	}
}

// Find returns the first default workspace file present in dir.
func Find(dir string) (string, error) {
	for _, name := range DefaultFilenames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("no workspace file found in %s (looked for %s)", dir, strings.Join(DefaultFilenames, ", "))
}

// Load reads, validates and decodes a workspace file.
func Load(path string) (*Workspace, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading workspace: %w", err)
	}

	ws, err := Parse(data, FormatFromPath(path))
	if err != nil {
		if verr, ok := err.(*ValidationError); ok {
			verr.Path = path
			return nil, verr
		}
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	ws.Path = path
	return ws, nil
}

// Parse validates and decodes workspace data in the given format.
func Parse(data []byte, format Format) (*Workspace, error) {
	doc, err := toJSON(data, format)
	if err != nil {
		return nil, err
	}

	if problems := Validate(doc); len(problems) > 0 {
		return nil, &ValidationError{Problems: problems}
	}

	// Variable numbers stay json.Number so they stringify as written.
	var ws Workspace
	dec := json.NewDecoder(bytes.NewReader(doc))
	dec.UseNumber()
	if err := dec.Decode(&ws); err != nil {
		return nil, fmt.Errorf("decoding workspace: %w", err)
	}

	if problems := ws.Check(); len(problems) > 0 {
		return nil, &ValidationError{Problems: problems}
	}
	return &ws, nil
}

// Validate checks a JSON document against the workspace schema and returns
// one message per violation.
func Validate(doc []byte) []string {
	schemaLoader := gojsonschema.NewStringLoader(workspaceSchema)
	documentLoader := gojsonschema.NewBytesLoader(doc)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return []string{fmt.Sprintf("schema validation error: %v", err)}
	}
	if result.Valid() {
		return nil
	}

	var problems []string
	for _, desc := range result.Errors() {
		problems = append(problems, desc.String())
	}
	return problems
}

// toJSON normalizes a workspace document to plain JSON. JSONC comments and
// trailing commas are stripped; YAML is decoded and re-encoded with numeric
// scalars kept in their source form.
func toJSON(data []byte, format Format) ([]byte, error) {
	if format == FormatJSON {
		return jsonc.ToJSON(data), nil
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}
	doc, err := yamlValue(&root)
	if err != nil {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}
	if doc == nil {
		doc = map[string]any{}
	}
	out, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("converting YAML to JSON: %w", err)
	}
	return out, nil
}

// yamlValue converts a YAML node to a JSON-encodable value. Integers and
// floats written as valid JSON number literals become json.Number holding the
// source text, so 12345678901234567 and 1.10 survive unchanged.
func yamlValue(n *yaml.Node) (any, error) {
	switch n.Kind {
	case 0:
		return nil, nil
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return yamlValue(n.Content[0])
	case yaml.AliasNode:
		return yamlValue(n.Alias)
	case yaml.SequenceNode:
		items := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := yamlValue(c)
			if err != nil {
				return nil, err
			}
			items = append(items, v)
		}
		return items, nil
	case yaml.MappingNode:
		m := make(map[string]any, len(n.Content)/2)
		var merged []*yaml.Node
		for i := 0; i+1 < len(n.Content); i += 2 {
			k, v := n.Content[i], n.Content[i+1]
			if k.ShortTag() == "!!merge" {
				merged = append(merged, v)
				continue
			}
			val, err := yamlValue(v)
			if err != nil {
				return nil, err
			}
			m[k.Value] = val
		}
		for _, src := range merged {
			if err := mergeInto(m, src); err != nil {
				return nil, err
			}
		}
		return m, nil
	}

	switch n.ShortTag() {
	case "!!int", "!!float":
		if json.Valid([]byte(n.Value)) {
			return json.Number(n.Value), nil
		}
	}
	var v any
	if err := n.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

// mergeInto applies a "<<" merge source. Keys already set take precedence.
func mergeInto(m map[string]any, src *yaml.Node) error {
	if src.Kind == yaml.SequenceNode {
		for _, c := range src.Content {
			if err := mergeInto(m, c); err != nil {
				return err
			}
		}
		return nil
	}
	v, err := yamlValue(src)
	if err != nil {
		return err
	}
	fields, ok := v.(map[string]any)
	if !ok {
		return fmt.Errorf("line %d: merge value must be a mapping", src.Line)
	}
	for k, val := range fields {
		if _, exists := m[k]; !exists {
			m[k] = val
		}
	}
	return nil
}

// ExpandSecrets replaces {{$NAME}} references in environment tokens and
// header values.
func (w *Workspace) ExpandSecrets(secrets *env.Secrets, warn env.WarnFunc) {
	for _, e := range w.Environments {
		e.Token = secrets.Expand(e.Token, warn)
		for i := range e.Headers {
			e.Headers[i].Value = secrets.Expand(e.Headers[i].Value, warn)
		}
	}
	for _, r := range w.Requests {
		for i := range r.Headers {
			r.Headers[i].Value = secrets.Expand(r.Headers[i].Value, warn)
		}
	}
}

// Marshal encodes a workspace in the given format.
func Marshal(w *Workspace, format Format) ([]byte, error) {
	if format == FormatJSON {
		return json.MarshalIndent(w, "", "  ")
	}
	return yaml.Marshal(w)
}
