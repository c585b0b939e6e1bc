package buffer

// Range is a half-open rune range [Start, End) with Start <= End.
type Range struct {
	Start int
	End   int
}

func (r Range) IsEmpty() bool { return r.Start == r.End }

func (r Range) Len() int { return r.End - r.Start }

// NormalizeRange orders the endpoints of r.
func NormalizeRange(r Range) Range {
	if r.Start <= r.End {
		return r
	}
	return Range{Start: r.End, End: r.Start}
}

// Pos is a (row, col) position in runes, used for layout of multi-line values.
type Pos struct {
	Row int
	Col int
}

// TextEdit replaces the text in Range with Text.
type TextEdit struct {
	Range Range
	Text  string
}

func clampInt(v, min, max int) int {
	if max < min {
		return min
	}
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
