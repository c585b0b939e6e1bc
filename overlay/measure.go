package overlay

import (
	"github.com/iw2rmb/ghostline/dom"
	"github.com/iw2rmb/ghostline/internal/grapheme"
)

// Measurer returns the rendered width of text in the font of st. It stands
// in for a hidden measuring element carrying the host font.
type Measurer interface {
	Width(text string, st dom.Style) float64
}

// CellMeasurer measures monospace text in terminal cells scaled by the font
// size. Tabs advance to the next tab stop.
type CellMeasurer struct {
	TabWidth int
}

func (m CellMeasurer) Width(text string, st dom.Style) float64 {
	tw := m.TabWidth
	if tw <= 0 {
		tw = 4
	}
	return float64(grapheme.Width(text, tw)) * st.FontSize()
}

// MeasureFunc adapts a function to Measurer.
type MeasureFunc func(text string, st dom.Style) float64

func (f MeasureFunc) Width(text string, st dom.Style) float64 { return f(text, st) }
