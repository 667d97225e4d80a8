package compare

import (
	"fmt"
	"strconv"
	"strings"
)

// DiffType classifies a Difference.
type DiffType string

const (
	Added   DiffType = "added"
	Removed DiffType = "removed"
	Changed DiffType = "changed"
)

// RootPath is the path reported for a mismatch of the top-level values.
const RootPath = "/"

// Difference is one divergence between two values. Added carries only Right,
// Removed only Left, Changed both.
type Difference struct {
	Path  string   `json:"path"`
	Type  DiffType `json:"type"`
	Left  Value    `json:"leftValue,omitempty"`
	Right Value    `json:"rightValue,omitempty"`
}

func (d Difference) String() string {
	switch d.Type {
	case Added:
		return fmt.Sprintf("%s added %s", d.Path, Format(d.Right))
	case Removed:
		return fmt.Sprintf("%s removed %s", d.Path, Format(d.Left))
	default:
		return fmt.Sprintf("%s changed %s -> %s", d.Path, Format(d.Left), Format(d.Right))
	}
}

// ArrayStrategy selects how array elements are aligned.
type ArrayStrategy int

const (
	// ArrayPositional compares element i with element i. An insertion
	// anywhere but the tail shows up as a cascade of changes.
	ArrayPositional ArrayStrategy = iota
	// ArrayLCS aligns elements along a longest common subsequence of equal
	// elements before comparing what is left.
	ArrayLCS
)

func (s ArrayStrategy) String() string {
	if s == ArrayLCS {
		return "lcs"
	}
	return "positional"
}

// ParseArrayStrategy parses "positional" (or "") and "lcs".
func ParseArrayStrategy(s string) (ArrayStrategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "positional":
		return ArrayPositional, nil
	case "lcs":
		return ArrayLCS, nil
	}
	return ArrayPositional, fmt.Errorf("unknown array strategy %q", s)
}

// Options control Diff and the body comparison helpers.
type Options struct {
	Arrays ArrayStrategy

	// Select is a gjson path applied to both bodies before comparing.
	Select string
	// Ignore drops differences at these paths and below them.
	Ignore []string

	// LeftLabel and RightLabel name the sides in text diffs.
	LeftLabel  string
	RightLabel string
}

// Diff compares left and right by position and returns their differences.
// Identical values yield an empty (nil) slice.
func Diff(left, right Value) []Difference {
	return DiffWith(left, right, Options{})
}

// DiffWith is Diff with an explicit array strategy. A nil value is treated as
// JSON null.
func DiffWith(left, right Value, opts Options) []Difference {
	d := &differ{arrays: opts.Arrays}
	d.walk(orNull(left), orNull(right), "")
	return d.diffs
}

type differ struct {
	arrays ArrayStrategy
	diffs  []Difference
}

func (d *differ) emit(diff Difference) {
	d.diffs = append(d.diffs, diff)
}

func (d *differ) changed(path string, left, right Value) {
	if path == "" {
		path = RootPath
	}
	d.emit(Difference{Path: path, Type: Changed, Left: left, Right: right})
}

func (d *differ) walk(left, right Value, path string) {
	if left.Kind() != right.Kind() {
		d.changed(path, left, right)
		return
	}

	switch l := left.(type) {
	case Array:
		if d.arrays == ArrayLCS {
			d.arraysLCS(l, right.(Array), path)
		} else {
			d.arraysPositional(l, right.(Array), path)
		}
	case *Object:
		d.objects(l, right.(*Object), path)
	default:
		if !Equal(left, right) {
			d.changed(path, left, right)
		}
	}
}

func (d *differ) arraysPositional(left, right Array, path string) {
	n := max(len(left), len(right))
	for i := 0; i < n; i++ {
		p := indexPath(path, i)
		switch {
		case i >= len(left):
			d.emit(Difference{Path: p, Type: Added, Right: right[i]})
		case i >= len(right):
			d.emit(Difference{Path: p, Type: Removed, Left: left[i]})
		default:
			d.walk(left[i], right[i], p)
		}
	}
}

// objects visits the union of keys: left keys in document order, then keys
// only present on the right in their document order.
func (d *differ) objects(left, right *Object, path string) {
	for _, k := range left.keys {
		p := keyPath(path, k)
		rv, ok := right.fields[k]
		if !ok {
			d.emit(Difference{Path: p, Type: Removed, Left: left.fields[k]})
			continue
		}
		d.walk(left.fields[k], rv, p)
	}
	for _, k := range right.keys {
		if left.Has(k) {
			continue
		}
		d.emit(Difference{Path: keyPath(path, k), Type: Added, Right: right.fields[k]})
	}
}

func indexPath(parent string, i int) string {
	return parent + "[" + strconv.Itoa(i) + "]"
}

func keyPath(parent, key string) string {
	if parent == "" {
		return key
	}
	return parent + "." + key
}
