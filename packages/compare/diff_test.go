package compare

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func render(diffs []Difference) []string {
	out := make([]string, 0, len(diffs))
	for _, d := range diffs {
		out = append(out, d.String())
	}
	return out
}

func TestDiff(t *testing.T) {
	tests := []struct {
		name  string
		left  string
		right string
		want  []string
	}{
		{
			name:  "equal scalars",
			left:  `42`,
			right: `42`,
			want:  []string{},
		},
		{
			name:  "number vs string",
			left:  `1`,
			right: `"1"`,
			want:  []string{`/ changed 1 -> "1"`},
		},
		{
			name:  "null vs object",
			left:  `null`,
			right: `{"a":1}`,
			want:  []string{`/ changed null -> {"a":1}`},
		},
		{
			name:  "numbers compare by value",
			left:  `1.0`,
			right: `1`,
			want:  []string{},
		},
		{
			name:  "array grows",
			left:  `[1,2]`,
			right: `[1,2,3]`,
			want:  []string{`[2] added 3`},
		},
		{
			name:  "array shrinks",
			left:  `[1,2,3]`,
			right: `[1]`,
			want:  []string{`[1] removed 2`, `[2] removed 3`},
		},
		{
			name:  "object keys",
			left:  `{"a":1,"b":2}`,
			right: `{"a":1,"c":3}`,
			want:  []string{`b removed 2`, `c added 3`},
		},
		{
			name:  "nested change",
			left:  `{"data":[{"id":1,"status":"active"}]}`,
			right: `{"data":[{"id":1,"status":"pending"}]}`,
			want:  []string{`data[0].status changed "active" -> "pending"`},
		},
		{
			name:  "type mismatch does not recurse",
			left:  `{"data":[1,2]}`,
			right: `{"data":{"0":1}}`,
			want:  []string{`data changed [1,2] -> {"0":1}`},
		},
		{
			name:  "nested arrays",
			left:  `[[1,2],[3]]`,
			right: `[[1,3],[3,4]]`,
			want:  []string{`[0][1] changed 2 -> 3`, `[1][1] added 4`},
		},
		{
			name:  "null leaf",
			left:  `{"a":null}`,
			right: `{"a":0}`,
			want:  []string{`a changed null -> 0`},
		},
		{
			name:  "key order is not a difference",
			left:  `{"a":1,"b":2}`,
			right: `{"b":2,"a":1}`,
			want:  []string{},
		},
		{
			name:  "union order follows left then right",
			left:  `{"z":1,"a":1}`,
			right: `{"y":2,"a":2,"x":3}`,
			want:  []string{`z removed 1`, `a changed 1 -> 2`, `y added 2`, `x added 3`},
		},
		{
			name:  "positional cascade on insert",
			left:  `[1,2,3]`,
			right: `[0,1,2,3]`,
			want:  []string{`[0] changed 1 -> 0`, `[1] changed 2 -> 1`, `[2] changed 3 -> 2`, `[3] added 3`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Diff(MustFromJSON(tt.left), MustFromJSON(tt.right))
			assert.Equal(t, tt.want, render(got))
		})
	}
}

func TestDiffIdentity(t *testing.T) {
	docs := []string{
		`null`, `true`, `0`, `"x"`, `[]`, `{}`,
		`{"a":[1,{"b":null}],"c":{"d":[[]]}}`,
	}
	for _, doc := range docs {
		v := MustFromJSON(doc)
		assert.Empty(t, Diff(v, v), doc)
		assert.Empty(t, DiffWith(v, v, Options{Arrays: ArrayLCS}), doc)
	}
}

func TestDiffNilIsNull(t *testing.T) {
	assert.Empty(t, Diff(nil, Null{}))
	diffs := Diff(nil, Bool(true))
	require.Len(t, diffs, 1)
	assert.Equal(t, RootPath, diffs[0].Path)
	assert.Equal(t, Null{}, diffs[0].Left)
}

func TestDiffSymmetry(t *testing.T) {
	pairs := [][2]string{
		{`{"a":1,"b":[1,2,3],"c":{"d":true}}`, `{"a":"1","b":[1],"e":null}`},
		{`[1,2]`, `[1,2,3]`},
		{`{"x":{"y":[{"z":1}]}}`, `{"x":{"y":[{"z":2},{}]}}`},
	}
	swap := map[DiffType]DiffType{Added: Removed, Removed: Added, Changed: Changed}

	for _, p := range pairs {
		a, b := MustFromJSON(p[0]), MustFromJSON(p[1])
		forward, backward := Diff(a, b), Diff(b, a)
		require.Len(t, backward, len(forward))

		byPath := map[string]Difference{}
		for _, d := range backward {
			byPath[d.Path] = d
		}
		for _, d := range forward {
			other, ok := byPath[d.Path]
			require.True(t, ok, "missing %s in reverse diff", d.Path)
			assert.Equal(t, swap[d.Type], other.Type, d.Path)
			assert.Equal(t, Format(d.Left), Format(other.Right), d.Path)
			assert.Equal(t, Format(d.Right), Format(other.Left), d.Path)
		}
	}
}

func TestDiffIdempotent(t *testing.T) {
	a := MustFromJSON(`{"items":[{"id":1},{"id":2}],"total":2}`)
	b := MustFromJSON(`{"items":[{"id":1},{"id":3},{"id":4}],"total":3}`)

	first, second := Diff(a, b), Diff(a, b)
	assert.Equal(t, render(first), render(second))
	assert.Equal(t, Summarize(first), Summarize(second))
}

func TestDiffLCS(t *testing.T) {
	tests := []struct {
		name  string
		left  string
		right string
		want  []string
	}{
		{
			name:  "prepend",
			left:  `[1,2,3]`,
			right: `[0,1,2,3]`,
			want:  []string{`[0] added 0`},
		},
		{
			name:  "remove from middle",
			left:  `[1,2,3,4]`,
			right: `[1,3,4]`,
			want:  []string{`[1] removed 2`},
		},
		{
			name:  "replace pairs by position",
			left:  `[{"id":1},{"id":2,"v":"a"},{"id":3}]`,
			right: `[{"id":1},{"id":2,"v":"b"},{"id":3}]`,
			want:  []string{`[1].v changed "a" -> "b"`},
		},
		{
			name:  "unequal run lengths",
			left:  `["a","x","b"]`,
			right: `["a","y","z","b"]`,
			want:  []string{`[1] changed "x" -> "y"`, `[2] added "z"`},
		},
		{
			name:  "append",
			left:  `[1,2]`,
			right: `[1,2,3]`,
			want:  []string{`[2] added 3`},
		},
		{
			name:  "nested arrays use the same strategy",
			left:  `{"tags":["b","c"]}`,
			right: `{"tags":["a","b","c"]}`,
			want:  []string{`tags[0] added "a"`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DiffWith(MustFromJSON(tt.left), MustFromJSON(tt.right), Options{Arrays: ArrayLCS})
			assert.Equal(t, tt.want, render(got))
		})
	}
}

func TestParseArrayStrategy(t *testing.T) {
	s, err := ParseArrayStrategy("")
	require.NoError(t, err)
	assert.Equal(t, ArrayPositional, s)

	s, err = ParseArrayStrategy("LCS")
	require.NoError(t, err)
	assert.Equal(t, ArrayLCS, s)
	assert.Equal(t, "lcs", s.String())

	_, err = ParseArrayStrategy("myers")
	assert.Error(t, err)
}

func TestDifferenceJSON(t *testing.T) {
	diffs := Diff(MustFromJSON(`{"a":null,"b":1}`), MustFromJSON(`{"a":true,"c":[1]}`))
	data, err := json.Marshal(diffs)
	require.NoError(t, err)
	assert.JSONEq(t, `[
		{"path":"a","type":"changed","leftValue":null,"rightValue":true},
		{"path":"b","type":"removed","leftValue":1},
		{"path":"c","type":"added","rightValue":[1]}
	]`, string(data))
}

func TestSummarize(t *testing.T) {
	diffs := Diff(
		MustFromJSON(`{"a":1,"b":2,"c":[1,2]}`),
		MustFromJSON(`{"a":2,"c":[1,2,3],"d":4}`),
	)
	s := Summarize(diffs)
	assert.Equal(t, Summary{Added: 2, Removed: 1, Changed: 1, Total: 4}, s)
	assert.False(t, s.Equivalent())
	assert.True(t, Summarize(nil).Equivalent())
}
