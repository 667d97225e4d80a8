package compare

import (
	"strings"

	udiff "github.com/aymanbagabas/go-udiff"
	"github.com/tidwall/gjson"
)

// Comparison is the outcome of comparing two raw bodies.
type Comparison struct {
	// Structured is true when both bodies decoded as JSON.
	Structured bool `json:"structured"`
	// Identical is true when the raw bodies are byte-for-byte equal.
	Identical   bool         `json:"identical"`
	Differences []Difference `json:"differences,omitempty"`
	Summary     Summary      `json:"summary"`

	// TextEqual and TextDiff are set when the comparison degraded to text.
	TextEqual bool   `json:"textEqual,omitempty"`
	TextDiff  string `json:"textDiff,omitempty"`
	// Reason explains why the comparison degraded to text.
	Reason string `json:"reason,omitempty"`
}

// Equivalent reports whether the bodies are considered the same under the
// options they were compared with.
func (c *Comparison) Equivalent() bool {
	if c.Identical {
		return true
	}
	if c.Structured {
		return c.Summary.Equivalent()
	}
	return c.TextEqual
}

// Bodies compares two raw bodies. When both are JSON the structural diff is
// used; otherwise the bodies are compared as text. Bodies never fails.
func Bodies(left, right string, opts Options) *Comparison {
	leftOK, rightOK := gjson.Valid(left), gjson.Valid(right)

	if left == right {
		return &Comparison{Structured: leftOK && rightOK, Identical: true, TextEqual: true}
	}

	if !leftOK || !rightOK {
		return textComparison(left, right, opts, textReason(leftOK, rightOK))
	}

	lv := fromResult(selectResult(gjson.Parse(left), opts.Select))
	rv := fromResult(selectResult(gjson.Parse(right), opts.Select))
	return Values(lv, rv, Options{Arrays: opts.Arrays, Ignore: opts.Ignore})
}

// Values compares two decoded values with the given options.
func Values(left, right Value, opts Options) *Comparison {
	if opts.Select != "" {
		left = selectValue(left, opts.Select)
		right = selectValue(right, opts.Select)
	}
	diffs := FilterIgnored(DiffWith(left, right, opts), opts.Ignore)
	return &Comparison{
		Structured:  true,
		Differences: diffs,
		Summary:     Summarize(diffs),
	}
}

// FilterIgnored drops differences located at or below any of the ignored
// paths. "meta" ignores "meta", "meta.ts" and "meta[0]", not "metadata".
func FilterIgnored(diffs []Difference, ignore []string) []Difference {
	if len(ignore) == 0 {
		return diffs
	}
	var out []Difference
	for _, d := range diffs {
		if !ignored(d.Path, ignore) {
			out = append(out, d)
		}
	}
	return out
}

func ignored(path string, ignore []string) bool {
	for _, ig := range ignore {
		ig = strings.TrimSpace(ig)
		if ig == "" {
			continue
		}
		if path == ig || strings.HasPrefix(path, ig+".") || strings.HasPrefix(path, ig+"[") {
			return true
		}
	}
	return false
}

func selectResult(r gjson.Result, path string) gjson.Result {
	if path == "" {
		return r
	}
	return r.Get(path)
}

func selectValue(v Value, path string) Value {
	return fromResult(gjson.Get(Format(orNull(v)), path))
}

func textReason(leftOK, rightOK bool) string {
	switch {
	case !leftOK && !rightOK:
		return "neither body is valid JSON"
	case !leftOK:
		return "left body is not valid JSON"
	default:
		return "right body is not valid JSON"
	}
}

func textComparison(left, right string, opts Options, reason string) *Comparison {
	c := &Comparison{Reason: reason, TextEqual: left == right}
	if c.TextEqual {
		return c
	}
	leftLabel, rightLabel := opts.LeftLabel, opts.RightLabel
	if leftLabel == "" {
		leftLabel = "left"
	}
	if rightLabel == "" {
		rightLabel = "right"
	}
	edits := udiff.Strings(withNewline(left), withNewline(right))
	unified, err := udiff.ToUnified(leftLabel, rightLabel, withNewline(left), edits, 3)
	if err != nil {
		unified = ""
	}
	c.TextDiff = unified
	return c
}

func withNewline(s string) string {
	if s == "" || strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}
