package grapheme

import (
	"strings"
	"unicode"

	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"
)

// Split returns grapheme clusters for text in visual order.
func Split(text string) []string {
	if text == "" {
		return nil
	}
	g := uniseg.NewGraphemes(text)
	out := make([]string, 0, len(text))
	for g.Next() {
		out = append(out, g.Str())
	}
	return out
}

// Count returns the number of grapheme clusters in text.
func Count(text string) int {
	if text == "" {
		return 0
	}
	return uniseg.GraphemeClusterCount(text)
}

// Slice returns the grapheme-safe substring for [start, end).
func Slice(text string, start, end int) string {
	if text == "" {
		return ""
	}
	if start < 0 {
		start = 0
	}
	if end < start {
		end = start
	}

	g := uniseg.NewGraphemes(text)
	idx := 0
	var sb strings.Builder
	for g.Next() {
		if idx >= end {
			break
		}
		if idx >= start {
			sb.WriteString(g.Str())
		}
		idx++
	}
	return sb.String()
}

// ClusterWidth returns the terminal cell width of one grapheme cluster.
// Zero-width clusters (combining marks on their own, control runes) count as 0.
func ClusterWidth(cluster string) int {
	if cluster == "" {
		return 0
	}
	rs := []rune(cluster)
	if len(rs) == 1 && unicode.IsControl(rs[0]) {
		return 0
	}
	return runewidth.StringWidth(cluster)
}

// Width returns the cell width of text, expanding tabs to tabWidth stops.
// Newlines are not expected; callers split lines first.
func Width(text string, tabWidth int) int {
	if tabWidth <= 0 {
		tabWidth = 4
	}
	w := 0
	for _, c := range Split(text) {
		if c == "\t" {
			w += TabAdvance(w, tabWidth)
			continue
		}
		w += ClusterWidth(c)
	}
	return w
}

// TabAdvance returns the number of cells a tab occupies at visual column col.
func TabAdvance(col, tabWidth int) int {
	if tabWidth <= 0 {
		tabWidth = 4
	}
	adv := tabWidth - col%tabWidth
	if adv < 1 {
		return 1
	}
	return adv
}

// IsSpace reports whether all runes in cluster are Unicode whitespace.
func IsSpace(cluster string) bool {
	if cluster == "" {
		return false
	}
	for _, r := range cluster {
		if !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}
