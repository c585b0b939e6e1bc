package buffer

// PosFromOffset converts a rune offset to a (row, col) position.
// Offsets are clamped into the value.
func (b *Buffer) PosFromOffset(off int) Pos {
	off = clampInt(off, 0, len(b.text))
	row, col := 0, 0
	for i := 0; i < off; i++ {
		if b.text[i] == '\n' {
			row++
			col = 0
			continue
		}
		col++
	}
	return Pos{Row: row, Col: col}
}

// OffsetFromPos converts a (row, col) position to a rune offset.
// Rows and columns past the end clamp to the last row and line end.
func (b *Buffer) OffsetFromPos(p Pos) int {
	if p.Row < 0 {
		return 0
	}
	row, lineStart := 0, 0
	for i, r := range b.text {
		if row == p.Row {
			break
		}
		if r == '\n' {
			row++
			lineStart = i + 1
		}
	}
	if row < p.Row {
		return len(b.text)
	}
	lineEnd := lineStart
	for lineEnd < len(b.text) && b.text[lineEnd] != '\n' {
		lineEnd++
	}
	return lineStart + clampInt(p.Col, 0, lineEnd-lineStart)
}

// Lines returns the value split on line breaks. It always has at least one line.
func (b *Buffer) Lines() []string {
	lines := []string{}
	start := 0
	for i, r := range b.text {
		if r == '\n' {
			lines = append(lines, string(b.text[start:i]))
			start = i + 1
		}
	}
	return append(lines, string(b.text[start:]))
}
