package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/tk0221/envdiff/packages/compare"
	"github.com/tk0221/envdiff/packages/report"
)

// DefaultMaxDiffs is how many differences per pair are printed unless
// verbose output is enabled.
const DefaultMaxDiffs = 20

const maxValueLen = 80

// environmentColors maps the color names an environment may declare to
// terminal attributes. Unknown names print uncolored.
var environmentColors = map[string]color.Attribute{
	"red":     color.FgRed,
	"green":   color.FgGreen,
	"yellow":  color.FgYellow,
	"blue":    color.FgBlue,
	"magenta": color.FgMagenta,
	"purple":  color.FgMagenta,
	"cyan":    color.FgCyan,
	"white":   color.FgWhite,
}

type ConsoleFormatter struct {
	writer   io.Writer
	verbose  bool
	noColor  bool
	maxDiffs int

	reports  int
	drifting int
}

type ConsoleOption func(*ConsoleFormatter)

func NewConsoleFormatter(opts ...ConsoleOption) *ConsoleFormatter {
	f := &ConsoleFormatter{
		writer:   os.Stdout,
		maxDiffs: DefaultMaxDiffs,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.noColor {
		color.NoColor = true
	}
	return f
}

func WithWriter(w io.Writer) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.writer = w
	}
}

func WithVerbose(v bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.verbose = v
	}
}

func WithNoColor(nc bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.noColor = nc
	}
}

// WithMaxDiffs limits the differences printed per pair; zero or less prints
// all of them.
func WithMaxDiffs(n int) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.maxDiffs = n
	}
}

func (f *ConsoleFormatter) FormatReport(r *report.Report) {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()
	bold := color.New(color.Bold).SprintFunc()

	f.reports++
	if r.HasDrift() {
		f.drifting++
	}

	title := r.RequestName
	if r.RequestID != "" && r.RequestID != r.RequestName {
		title = fmt.Sprintf("%s (%s)", r.RequestName, r.RequestID)
	}
	fmt.Fprintf(f.writer, "\n%s\n", bold(title))
	fmt.Fprintf(f.writer, "baseline: %s\n\n", r.Baseline)

	width := 0
	for _, t := range r.Targets {
		width = max(width, len(t.Name))
	}
	for _, t := range r.Targets {
		name := envName(t, width)
		if t.Failed() {
			fmt.Fprintf(f.writer, "  %s %s %s\n", red("x"), name, red(fmt.Sprintf("(%s)", t.Error)))
			continue
		}
		status := green(fmt.Sprintf("%d", t.Status))
		if t.Status >= 400 {
			status = red(fmt.Sprintf("%d", t.Status))
		} else if t.Status >= 300 {
			status = yellow(fmt.Sprintf("%d", t.Status))
		}
		fmt.Fprintf(f.writer, "  %s %s %s %s  %s\n", green("•"), name, status,
			cyan(fmt.Sprintf("(%dms)", t.Time.Milliseconds())), formatSize(t.Size))

		if f.verbose {
			fmt.Fprintf(f.writer, "      URL:         %s\n", t.URL)
			if t.RequestID != "" {
				fmt.Fprintf(f.writer, "      Request ID:  %s\n", t.RequestID)
			}
			fmt.Fprintf(f.writer, "      Fingerprint: %s\n", t.Fingerprint[:16])
		}
		if len(t.Unresolved) > 0 {
			fmt.Fprintf(f.writer, "      %s unresolved: %s\n", yellow("!"), strings.Join(t.Unresolved, ", "))
		}
	}
	fmt.Fprintln(f.writer)

	for _, p := range r.Pairs {
		header := fmt.Sprintf("%s vs %s", p.Baseline, p.Other)
		if !p.Drift() {
			detail := "equivalent"
			if p.Comparison != nil && p.Comparison.Identical {
				detail = "identical"
			}
			fmt.Fprintf(f.writer, "  %s %s %s\n", green("✓"), header, cyan(detail))
			continue
		}

		detail := "drift"
		if c := p.Comparison; c != nil && c.Structured {
			detail = summaryLine(c.Summary)
		}
		fmt.Fprintf(f.writer, "  %s %s %s\n", red("✗"), header, yellow(detail))

		for _, note := range p.Notes {
			fmt.Fprintf(f.writer, "    %s %s\n", yellow("!"), note)
		}
		if p.Comparison == nil {
			continue
		}
		f.writeDiffs(p.Comparison.Differences)
		if c := p.Comparison; !c.Structured && c.TextDiff != "" {
			f.writeTextDiff(c.TextDiff)
		}
	}

	if len(r.Timings) > 0 {
		fmt.Fprintf(f.writer, "\n  %s\n", bold("Latency"))
		fmt.Fprintf(f.writer, "    %-*s %8s %8s %8s %8s %8s\n", width, "", "samples", "p50", "p95", "p99", "max")
		for _, s := range r.Timings {
			fmt.Fprintf(f.writer, "    %-*s %8d %8s %8s %8s %8s",
				width, s.EnvironmentID, s.Samples, ms(s.P50), ms(s.P95), ms(s.P99), ms(s.Max))
			if s.Failures > 0 {
				fmt.Fprintf(f.writer, " %s", red(fmt.Sprintf("%d failed", s.Failures)))
			}
			fmt.Fprintln(f.writer)
		}
	}
}

func (f *ConsoleFormatter) writeDiffs(diffs []compare.Difference) {
	red := color.New(color.FgRed).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()

	limit := len(diffs)
	if !f.verbose && f.maxDiffs > 0 && limit > f.maxDiffs {
		limit = f.maxDiffs
	}
	for _, d := range diffs[:limit] {
		switch d.Type {
		case compare.Added:
			fmt.Fprintf(f.writer, "    %s %s %s\n", green("+"), d.Path, formatValue(d.Right, maxValueLen))
		case compare.Removed:
			fmt.Fprintf(f.writer, "    %s %s %s\n", red("-"), d.Path, formatValue(d.Left, maxValueLen))
		default:
			fmt.Fprintf(f.writer, "    %s %s %s → %s\n", yellow("~"), d.Path,
				formatValue(d.Left, maxValueLen), formatValue(d.Right, maxValueLen))
		}
	}
	if rest := len(diffs) - limit; rest > 0 {
		fmt.Fprintf(f.writer, "    ... %d more (use -v to show all)\n", rest)
	}
}

func (f *ConsoleFormatter) writeTextDiff(diff string) {
	red := color.New(color.FgRed).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()

	for _, line := range strings.Split(strings.TrimRight(diff, "\n"), "\n") {
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
			fmt.Fprintf(f.writer, "    %s\n", line)
		case strings.HasPrefix(line, "@@"):
			fmt.Fprintf(f.writer, "    %s\n", cyan(line))
		case strings.HasPrefix(line, "+"):
			fmt.Fprintf(f.writer, "    %s\n", green(line))
		case strings.HasPrefix(line, "-"):
			fmt.Fprintf(f.writer, "    %s\n", red(line))
		default:
			fmt.Fprintf(f.writer, "    %s\n", line)
		}
	}
}

func (f *ConsoleFormatter) FormatError(err error) {
	red := color.New(color.FgRed).SprintFunc()
	fmt.Fprintf(f.writer, "%s %v\n", red("Error:"), err)
}

func (f *ConsoleFormatter) FormatHeader(version string) {
	bold := color.New(color.Bold).SprintFunc()
	fmt.Fprintf(f.writer, "%s %s\n", bold("envdiff"), version)
}

// Flush prints the totals over every report formatted so far.
func (f *ConsoleFormatter) Flush(totalDuration time.Duration) error {
	if f.reports == 0 {
		return nil
	}
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()

	fmt.Fprintf(f.writer, "\nRequests: ")
	if f.drifting > 0 {
		fmt.Fprintf(f.writer, "%s, ", red(fmt.Sprintf("%d drifting", f.drifting)))
	}
	if consistent := f.reports - f.drifting; consistent > 0 {
		fmt.Fprintf(f.writer, "%s, ", green(fmt.Sprintf("%d consistent", consistent)))
	}
	fmt.Fprintf(f.writer, "%d total\n", f.reports)
	fmt.Fprintf(f.writer, "Time:     %dms\n\n", totalDuration.Milliseconds())
	return nil
}

func envName(t *report.Target, width int) string {
	padded := fmt.Sprintf("%-*s", width, t.Name)
	if attr, ok := environmentColors[strings.ToLower(t.Color)]; ok {
		return color.New(attr).Sprint(padded)
	}
	return padded
}

func ms(d time.Duration) string {
	return fmt.Sprintf("%.1fms", float64(d)/float64(time.Millisecond))
}
