package output

import (
	"fmt"
	"strings"

	"github.com/tk0221/envdiff/packages/compare"
	"github.com/tk0221/envdiff/packages/report"
)

// formatValue renders a value for display, summarizing containers and
// truncating long scalars.
func formatValue(v compare.Value, maxLen int) string {
	switch val := v.(type) {
	case nil:
		return ""
	case compare.Array:
		if len(val) > 0 {
			return fmt.Sprintf("[array with %d items]", len(val))
		}
	case *compare.Object:
		if val.Len() > 0 {
			return fmt.Sprintf("{object with %d keys}", val.Len())
		}
	}
	str := compare.Format(v)
	if maxLen > 0 && len(str) > maxLen {
		return str[:maxLen] + "..."
	}
	return str
}

// describeDiff renders one difference on a single line.
func describeDiff(d compare.Difference, maxLen int) string {
	switch d.Type {
	case compare.Added:
		return fmt.Sprintf("%s added %s", d.Path, formatValue(d.Right, maxLen))
	case compare.Removed:
		return fmt.Sprintf("%s removed %s", d.Path, formatValue(d.Left, maxLen))
	default:
		return fmt.Sprintf("%s changed %s -> %s", d.Path, formatValue(d.Left, maxLen), formatValue(d.Right, maxLen))
	}
}

func pairName(r *report.Report, p *report.Pair) string {
	return fmt.Sprintf("%s: %s vs %s", reportName(r), p.Baseline, p.Other)
}

func reportName(r *report.Report) string {
	if r.RequestID != "" {
		return r.RequestID
	}
	return r.RequestName
}

// summaryLine describes a comparison summary, e.g. "3 differences (1 added,
// 2 changed)".
func summaryLine(s compare.Summary) string {
	if s.Total == 0 {
		return "no differences"
	}
	var parts []string
	if s.Added > 0 {
		parts = append(parts, fmt.Sprintf("%d added", s.Added))
	}
	if s.Removed > 0 {
		parts = append(parts, fmt.Sprintf("%d removed", s.Removed))
	}
	if s.Changed > 0 {
		parts = append(parts, fmt.Sprintf("%d changed", s.Changed))
	}
	noun := "differences"
	if s.Total == 1 {
		noun = "difference"
	}
	return fmt.Sprintf("%d %s (%s)", s.Total, noun, strings.Join(parts, ", "))
}

// pairDetails lists why a pair drifts, one line per entry.
func pairDetails(p *report.Pair, maxLen int) []string {
	lines := append([]string(nil), p.Notes...)
	if c := p.Comparison; c != nil {
		for _, d := range c.Differences {
			lines = append(lines, describeDiff(d, maxLen))
		}
		if !c.Structured && !c.TextEqual && c.TextDiff != "" {
			lines = append(lines, strings.Split(strings.TrimRight(c.TextDiff, "\n"), "\n")...)
		}
	}
	return lines
}

func formatSize(n int) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1fMB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1fKB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%dB", n)
	}
}
