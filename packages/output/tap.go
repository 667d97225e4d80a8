package output

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tk0221/envdiff/packages/report"
)

// TAPFormatter formats drift reports in TAP (Test Anything Protocol) version
// 13, one test per environment pair. Failing tests carry a YAML diagnostic
// block.
type TAPFormatter struct {
	writer  io.Writer
	results []tapResult
}

type tapResult struct {
	name       string
	passed     bool
	diagnostic *tapDiagnostic
}

type tapDiagnostic struct {
	Message     string   `yaml:"message"`
	Severity    string   `yaml:"severity"`
	Status      []int    `yaml:"status,flow,omitempty"`
	Differences []string `yaml:"differences,omitempty"`
}

type TAPOption func(*TAPFormatter)

func NewTAPFormatter(opts ...TAPOption) *TAPFormatter {
	f := &TAPFormatter{writer: os.Stdout}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func TAPWithWriter(w io.Writer) TAPOption {
	return func(f *TAPFormatter) {
		f.writer = w
	}
}

func (f *TAPFormatter) FormatReport(r *report.Report) {
	for _, p := range r.Pairs {
		tr := tapResult{name: pairName(r, p), passed: !p.Drift()}

		switch {
		case p.BaselineStatus == 0 || p.OtherStatus == 0:
			tr.diagnostic = &tapDiagnostic{
				Message:  strings.Join(p.Notes, "; "),
				Severity: "error",
			}
		case !tr.passed:
			msg := "responses differ"
			if c := p.Comparison; c != nil && c.Structured {
				msg = summaryLine(c.Summary)
			}
			tr.diagnostic = &tapDiagnostic{
				Message:     msg,
				Severity:    "fail",
				Differences: pairDetails(p, maxValueLen),
			}
			if p.StatusChanged {
				tr.diagnostic.Status = []int{p.BaselineStatus, p.OtherStatus}
			}
		}

		f.results = append(f.results, tr)
	}
}

func (f *TAPFormatter) FormatError(err error) {
	// Transport errors are reported on their tests
}

func (f *TAPFormatter) FormatHeader(version string) {
	// Header is written in Flush
}

// Flush writes the accumulated TAP output
func (f *TAPFormatter) Flush(totalDuration time.Duration) error {
	fmt.Fprintf(f.writer, "TAP version 13\n")
	fmt.Fprintf(f.writer, "1..%d\n", len(f.results))

	for i, r := range f.results {
		status := "ok"
		if !r.passed {
			status = "not ok"
		}
		fmt.Fprintf(f.writer, "%s %d - %s\n", status, i+1, r.name)
		if r.diagnostic != nil {
			if err := f.writeDiagnostic(r.diagnostic); err != nil {
				return err
			}
		}
	}

	fmt.Fprintf(f.writer, "# time: %dms\n", totalDuration.Milliseconds())
	return nil
}

// writeDiagnostic writes d as an indented YAML block between "---" and "...".
func (f *TAPFormatter) writeDiagnostic(d *tapDiagnostic) error {
	data, err := yaml.Marshal(d)
	if err != nil {
		return fmt.Errorf("encoding TAP diagnostic: %w", err)
	}
	fmt.Fprintf(f.writer, "  ---\n")
	for _, line := range bytes.Split(bytes.TrimRight(data, "\n"), []byte("\n")) {
		fmt.Fprintf(f.writer, "  %s\n", line)
	}
	fmt.Fprintf(f.writer, "  ...\n")
	return nil
}
