package workspace

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrRequestNotFound is returned when a request id is not defined in the workspace.
	ErrRequestNotFound = errors.New("request not found")
	// ErrEnvironmentNotFound is returned when an environment id is not defined in the workspace.
	ErrEnvironmentNotFound = errors.New("environment not found")
)

// KeyValue is a header or query parameter entry. Entries are enabled unless
// explicitly disabled.
type KeyValue struct {
	Key     string `yaml:"key" json:"key"`
	Value   string `yaml:"value" json:"value"`
	Enabled *bool  `yaml:"enabled,omitempty" json:"enabled,omitempty"`
}

func (kv KeyValue) IsEnabled() bool {
	return kv.Enabled == nil || *kv.Enabled
}

// RequestDefinition is one logical HTTP request. Its URL may contain
// {{variable}} placeholders that each environment resolves differently.
type RequestDefinition struct {
	ID      string     `yaml:"id" json:"id"`
	Name    string     `yaml:"name,omitempty" json:"name,omitempty"`
	Method  string     `yaml:"method" json:"method"`
	URL     string     `yaml:"url" json:"url"`
	Params  []KeyValue `yaml:"params,omitempty" json:"params,omitempty"`
	Headers []KeyValue `yaml:"headers,omitempty" json:"headers,omitempty"`
	Body    string     `yaml:"body,omitempty" json:"body,omitempty"`
}

// DisplayName returns the request name, falling back to "METHOD url".
func (r *RequestDefinition) DisplayName() string {
	if r.Name != "" {
		return r.Name
	}
	return fmt.Sprintf("%s %s", strings.ToUpper(r.Method), r.URL)
}

// Environment is a named deployment target.
type Environment struct {
	ID    string `yaml:"id" json:"id"`
	Name  string `yaml:"name,omitempty" json:"name,omitempty"`
	Color string `yaml:"color,omitempty" json:"color,omitempty"`

	// Variables values are strings, numbers or booleans.
	Variables map[string]any `yaml:"variables,omitempty" json:"variables,omitempty"`
	BaseURL   string         `yaml:"baseUrl,omitempty" json:"baseUrl,omitempty"`
	Token     string         `yaml:"token,omitempty" json:"token,omitempty"`

	// URLs overrides the request URL template, keyed by request id.
	URLs     map[string]string `yaml:"urls,omitempty" json:"urls,omitempty"`
	Headers  []KeyValue        `yaml:"headers,omitempty" json:"headers,omitempty"`
	Params   []KeyValue        `yaml:"params,omitempty" json:"params,omitempty"`
	UseProxy bool              `yaml:"useProxy,omitempty" json:"useProxy,omitempty"`
}

func (e *Environment) DisplayName() string {
	if e.Name != "" {
		return e.Name
	}
	return e.ID
}

// Workspace is the set of requests and environments loaded from one file.
type Workspace struct {
	Path         string               `yaml:"-" json:"-"`
	Requests     []*RequestDefinition `yaml:"requests" json:"requests"`
	Environments []*Environment       `yaml:"environments" json:"environments"`
}

func (w *Workspace) Request(id string) (*RequestDefinition, error) {
	for _, r := range w.Requests {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrRequestNotFound, id)
}

func (w *Workspace) Environment(id string) (*Environment, error) {
	for _, e := range w.Environments {
		if e.ID == id {
			return e, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrEnvironmentNotFound, id)
}

// SelectEnvironments returns the environments with the given ids in the order
// given. With no ids, every environment is returned in workspace order.
func (w *Workspace) SelectEnvironments(ids []string) ([]*Environment, error) {
	if len(ids) == 0 {
		return append([]*Environment(nil), w.Environments...), nil
	}
	seen := make(map[string]bool, len(ids))
	selected := make([]*Environment, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		e, err := w.Environment(id)
		if err != nil {
			return nil, err
		}
		selected = append(selected, e)
	}
	return selected, nil
}

// Check reports semantic problems the schema cannot express: duplicate ids
// and per-environment URL overrides for unknown requests.
func (w *Workspace) Check() []string {
	var problems []string

	requestIDs := make(map[string]bool)
	for _, r := range w.Requests {
		if requestIDs[r.ID] {
			problems = append(problems, fmt.Sprintf("duplicate request id %q", r.ID))
		}
		requestIDs[r.ID] = true
	}

	envIDs := make(map[string]bool)
	for _, e := range w.Environments {
		if envIDs[e.ID] {
			problems = append(problems, fmt.Sprintf("duplicate environment id %q", e.ID))
		}
		envIDs[e.ID] = true
		overrides := make([]string, 0, len(e.URLs))
		for reqID := range e.URLs {
			overrides = append(overrides, reqID)
		}
		sort.Strings(overrides)
		for _, reqID := range overrides {
			if !requestIDs[reqID] {
				problems = append(problems, fmt.Sprintf("environment %q overrides URL of unknown request %q", e.ID, reqID))
			}
		}
	}

	return problems
}
