package report

import (
	"errors"
	"fmt"
	"time"

	"github.com/tk0221/envdiff/packages/compare"
	"github.com/tk0221/envdiff/packages/core/workspace"
	"github.com/tk0221/envdiff/packages/dispatch"
	"github.com/tk0221/envdiff/packages/http"
)

var errNoResponse = errors.New("no response recorded")

// Target describes what one environment returned.
type Target struct {
	EnvironmentID string        `json:"environment"`
	Name          string        `json:"name"`
	Color         string        `json:"color,omitempty"`
	URL           string        `json:"url"`
	Status        int           `json:"status"`
	Time          time.Duration `json:"time"`
	Size          int           `json:"size"`
	RequestID     string        `json:"requestId,omitempty"`
	Fingerprint   string        `json:"fingerprint"`
	Error         string        `json:"error,omitempty"`
	Unresolved    []string      `json:"unresolved,omitempty"`

	envelope *http.Envelope
}

// Envelope returns the envelope the target was built from.
func (t *Target) Envelope() *http.Envelope {
	return t.envelope
}

// Failed reports whether the environment could not be reached.
func (t *Target) Failed() bool {
	return t.Status == 0
}

// Pair is the comparison of one environment against the baseline.
type Pair struct {
	Baseline string `json:"baseline"`
	Other    string `json:"environment"`

	BaselineStatus int  `json:"baselineStatus"`
	OtherStatus    int  `json:"status"`
	StatusChanged  bool `json:"statusChanged"`

	// Comparison is nil when either side failed to respond.
	Comparison *compare.Comparison `json:"comparison,omitempty"`
	Notes      []string            `json:"notes,omitempty"`
}

// Drift reports whether the environment behaves differently from the
// baseline.
func (p *Pair) Drift() bool {
	if p.StatusChanged || p.BaselineStatus == 0 || p.OtherStatus == 0 {
		return true
	}
	return p.Comparison != nil && !p.Comparison.Equivalent()
}

// Report is the outcome of one request run against several environments.
type Report struct {
	RequestID   string                  `json:"request"`
	RequestName string                  `json:"name"`
	Method      string                  `json:"method"`
	Baseline    string                  `json:"baseline"`
	Targets     []*Target               `json:"targets"`
	Pairs       []*Pair                 `json:"comparisons"`
	Timings     []dispatch.LatencyStats `json:"timings,omitempty"`
	GeneratedAt time.Time               `json:"generatedAt"`
}

// Input bundles what a report is built from.
type Input struct {
	Request      *workspace.RequestDefinition
	Environments []*workspace.Environment
	// Baseline is the environment every other one is compared to. Empty
	// selects the first environment.
	Baseline  string
	Envelopes map[string]*http.Envelope
	// Resolved is optional; it contributes unresolved placeholder names.
	Resolved []*http.ResolvedRequest
	Options  compare.Options
}

// New builds the report for in. It fails only when the baseline is not one
// of the environments.
func New(in Input) (*Report, error) {
	if len(in.Environments) == 0 {
		return nil, errors.New("no environments to compare")
	}

	baseline := in.Baseline
	if baseline == "" {
		baseline = in.Environments[0].ID
	}
	found := false
	for _, e := range in.Environments {
		if e.ID == baseline {
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("baseline %q: %w", baseline, workspace.ErrEnvironmentNotFound)
	}

	unresolved := make(map[string][]string)
	for _, r := range in.Resolved {
		unresolved[r.EnvironmentID] = r.Unresolved
	}

	r := &Report{
		Baseline:    baseline,
		GeneratedAt: time.Now(),
	}
	if in.Request != nil {
		r.RequestID = in.Request.ID
		r.RequestName = in.Request.DisplayName()
		r.Method = in.Request.Method
	}

	targets := make(map[string]*Target, len(in.Environments))
	for _, e := range in.Environments {
		env, ok := in.Envelopes[e.ID]
		if !ok || env == nil {
			env = http.NewFailureEnvelope(e.ID, "", errNoResponse)
		}
		t := &Target{
			EnvironmentID: e.ID,
			Name:          e.DisplayName(),
			Color:         e.Color,
			URL:           env.URL,
			Status:        env.Status,
			Time:          env.Time,
			Size:          env.Size,
			RequestID:     env.RequestID,
			Fingerprint:   env.Fingerprint(),
			Error:         env.FailureMessage(),
			Unresolved:    unresolved[e.ID],
			envelope:      env,
		}
		targets[e.ID] = t
		r.Targets = append(r.Targets, t)
	}

	base := targets[baseline]
	for _, t := range r.Targets {
		if t.EnvironmentID == baseline {
			continue
		}
		r.Pairs = append(r.Pairs, comparePair(base, t, in.Options))
	}
	return r, nil
}

// NewReport is New for the common case without resolved requests.
func NewReport(req *workspace.RequestDefinition, envs []*workspace.Environment, baseline string, envelopes map[string]*http.Envelope, opts compare.Options) (*Report, error) {
	return New(Input{
		Request:      req,
		Environments: envs,
		Baseline:     baseline,
		Envelopes:    envelopes,
		Options:      opts,
	})
}

func comparePair(base, other *Target, opts compare.Options) *Pair {
	p := &Pair{
		Baseline:       base.EnvironmentID,
		Other:          other.EnvironmentID,
		BaselineStatus: base.Status,
		OtherStatus:    other.Status,
	}

	if base.Failed() || other.Failed() {
		for _, t := range []*Target{base, other} {
			if t.Failed() {
				p.Notes = append(p.Notes, fmt.Sprintf("%s unreachable: %s", t.Name, t.Error))
			}
		}
		return p
	}

	if base.Status != other.Status {
		p.StatusChanged = true
		p.Notes = append(p.Notes, fmt.Sprintf("status %d on %s, %d on %s", base.Status, base.Name, other.Status, other.Name))
	}

	opts.LeftLabel, opts.RightLabel = base.Name, other.Name
	p.Comparison = compareBodies(base.envelope, other.envelope, opts)
	if c := p.Comparison; !c.Structured && c.Reason != "" {
		p.Notes = append(p.Notes, "compared as text: "+c.Reason)
	}
	return p
}

// compareBodies reuses the cached decoded bodies of the envelopes and skips
// decoding entirely when the fingerprints match.
func compareBodies(left, right *http.Envelope, opts compare.Options) *compare.Comparison {
	if left.Fingerprint() == right.Fingerprint() {
		_, structured := left.Decoded()
		return &compare.Comparison{Structured: structured, Identical: true, TextEqual: true}
	}

	lv, lok := left.Decoded()
	rv, rok := right.Decoded()
	if lok && rok {
		return compare.Values(lv, rv, opts)
	}
	return compare.Bodies(left.Body, right.Body, opts)
}

// HasDrift reports whether any environment differs from the baseline.
func (r *Report) HasDrift() bool {
	for _, p := range r.Pairs {
		if p.Drift() {
			return true
		}
	}
	return false
}

// Target returns the target for an environment id.
func (r *Report) Target(environmentID string) (*Target, bool) {
	for _, t := range r.Targets {
		if t.EnvironmentID == environmentID {
			return t, true
		}
	}
	return nil, false
}

// Totals sums the difference counts of every pair.
func (r *Report) Totals() compare.Summary {
	var s compare.Summary
	for _, p := range r.Pairs {
		if p.Comparison == nil {
			continue
		}
		s.Added += p.Comparison.Summary.Added
		s.Removed += p.Comparison.Summary.Removed
		s.Changed += p.Comparison.Summary.Changed
		s.Total += p.Comparison.Summary.Total
	}
	return s
}
