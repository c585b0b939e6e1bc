package overlay

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// Style controls how ghost text is painted on a terminal.
type Style struct {
	Ghost lipgloss.Style
}

func DefaultStyle() Style {
	return Style{
		Ghost: lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "250", Dark: "240"}).Italic(true),
	}
}

// Ellipsis marks ghost text cut at the max width.
const Ellipsis = "…"

// Paint renders the first line of p's text, truncated to p.MaxWidth cells.
func Paint(p Placement, st Style) string {
	text := p.Text
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = text[:i]
	}
	w := int(p.MaxWidth)
	if w <= 0 || text == "" {
		return ""
	}
	if runewidth.StringWidth(text) > w {
		text = runewidth.Truncate(text, w, Ellipsis)
	}
	return st.Ghost.Render(text)
}
