package output

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/tk0221/envdiff/packages/compare"
	"github.com/tk0221/envdiff/packages/report"
)

// JSONOutput represents the complete JSON output structure
type JSONOutput struct {
	Summary  JSONSummary  `json:"summary"`
	Reports  []JSONReport `json:"reports"`
	Duration float64      `json:"duration"`
	Time     string       `json:"time"`
}

type JSONSummary struct {
	Requests   int `json:"requests"`
	Drifting   int `json:"drifting"`
	Consistent int `json:"consistent"`
}

// JSONReport is one request run against its environments.
type JSONReport struct {
	Request     string           `json:"request"`
	Name        string           `json:"name"`
	Method      string           `json:"method,omitempty"`
	Baseline    string           `json:"baseline"`
	Drift       bool             `json:"drift"`
	Targets     []JSONTarget     `json:"targets"`
	Comparisons []JSONComparison `json:"comparisons"`
	Timings     []JSONTiming     `json:"timings,omitempty"`
}

type JSONTarget struct {
	Environment string   `json:"environment"`
	Name        string   `json:"name"`
	URL         string   `json:"url"`
	Status      int      `json:"status"`
	Duration    float64  `json:"duration"`
	Size        int      `json:"size"`
	RequestID   string   `json:"requestId,omitempty"`
	Fingerprint string   `json:"fingerprint"`
	Error       string   `json:"error,omitempty"`
	Unresolved  []string `json:"unresolved,omitempty"`
}

type JSONComparison struct {
	Baseline      string               `json:"baseline"`
	Environment   string               `json:"environment"`
	Drift         bool                 `json:"drift"`
	StatusChanged bool                 `json:"statusChanged,omitempty"`
	Structured    bool                 `json:"structured"`
	Identical     bool                 `json:"identical"`
	Summary       *compare.Summary     `json:"summary,omitempty"`
	Differences   []compare.Difference `json:"differences,omitempty"`
	TextDiff      string               `json:"textDiff,omitempty"`
	Notes         []string             `json:"notes,omitempty"`
}

// JSONTiming holds latency figures in milliseconds.
type JSONTiming struct {
	Environment string  `json:"environment"`
	Samples     int     `json:"samples"`
	Failures    int     `json:"failures"`
	Min         float64 `json:"min"`
	Mean        float64 `json:"mean"`
	P50         float64 `json:"p50"`
	P95         float64 `json:"p95"`
	P99         float64 `json:"p99"`
	Max         float64 `json:"max"`
}

// JSONFormatter formats drift reports as JSON
type JSONFormatter struct {
	writer  io.Writer
	reports []JSONReport
}

type JSONOption func(*JSONFormatter)

func NewJSONFormatter(opts ...JSONOption) *JSONFormatter {
	f := &JSONFormatter{
		writer:  os.Stdout,
		reports: make([]JSONReport, 0),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func JSONWithWriter(w io.Writer) JSONOption {
	return func(f *JSONFormatter) {
		f.writer = w
	}
}

func (f *JSONFormatter) FormatReport(r *report.Report) {
	out := JSONReport{
		Request:     r.RequestID,
		Name:        r.RequestName,
		Method:      r.Method,
		Baseline:    r.Baseline,
		Drift:       r.HasDrift(),
		Targets:     make([]JSONTarget, 0, len(r.Targets)),
		Comparisons: make([]JSONComparison, 0, len(r.Pairs)),
	}

	for _, t := range r.Targets {
		out.Targets = append(out.Targets, JSONTarget{
			Environment: t.EnvironmentID,
			Name:        t.Name,
			URL:         t.URL,
			Status:      t.Status,
			Duration:    millis(t.Time),
			Size:        t.Size,
			RequestID:   t.RequestID,
			Fingerprint: t.Fingerprint,
			Error:       t.Error,
			Unresolved:  t.Unresolved,
		})
	}

	for _, p := range r.Pairs {
		c := JSONComparison{
			Baseline:      p.Baseline,
			Environment:   p.Other,
			Drift:         p.Drift(),
			StatusChanged: p.StatusChanged,
			Notes:         p.Notes,
		}
		if cmp := p.Comparison; cmp != nil {
			c.Structured = cmp.Structured
			c.Identical = cmp.Identical
			c.Differences = cmp.Differences
			c.TextDiff = cmp.TextDiff
			if cmp.Structured {
				summary := cmp.Summary
				c.Summary = &summary
			}
		}
		out.Comparisons = append(out.Comparisons, c)
	}

	for _, s := range r.Timings {
		out.Timings = append(out.Timings, JSONTiming{
			Environment: s.EnvironmentID,
			Samples:     s.Samples,
			Failures:    s.Failures,
			Min:         millis(s.Min),
			Mean:        millis(s.Mean),
			P50:         millis(s.P50),
			P95:         millis(s.P95),
			P99:         millis(s.P99),
			Max:         millis(s.Max),
		})
	}

	f.reports = append(f.reports, out)
}

func (f *JSONFormatter) FormatError(err error) {
	// Errors surface as failed targets inside the reports
}

func (f *JSONFormatter) FormatHeader(version string) {
	// No header needed for JSON output
}

// Flush writes the accumulated JSON output
func (f *JSONFormatter) Flush(totalDuration time.Duration) error {
	var drifting int
	for _, r := range f.reports {
		if r.Drift {
			drifting++
		}
	}

	output := JSONOutput{
		Summary: JSONSummary{
			Requests:   len(f.reports),
			Drifting:   drifting,
			Consistent: len(f.reports) - drifting,
		},
		Reports:  f.reports,
		Duration: millis(totalDuration),
		Time:     time.Now().Format(time.RFC3339),
	}

	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
