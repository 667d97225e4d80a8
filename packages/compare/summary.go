package compare

// Summary counts differences by type.
type Summary struct {
	Added   int `json:"added"`
	Removed int `json:"removed"`
	Changed int `json:"changed"`
	Total   int `json:"total"`
}

// Summarize counts diffs by type.
func Summarize(diffs []Difference) Summary {
	var s Summary
	for _, d := range diffs {
		switch d.Type {
		case Added:
			s.Added++
		case Removed:
			s.Removed++
		case Changed:
			s.Changed++
		}
	}
	s.Total = s.Added + s.Removed + s.Changed
	return s
}

// Equivalent reports whether no differences were counted.
func (s Summary) Equivalent() bool {
	return s.Total == 0
}
