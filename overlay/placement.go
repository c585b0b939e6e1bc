package overlay

import (
	"math"
	"strings"

	"github.com/iw2rmb/ghostline/dom"
)

// Placement is where and how the ghost text is drawn.
type Placement struct {
	Left, Top  float64
	Height     float64
	LineHeight float64
	MaxWidth   float64

	FontFamily string
	FontSize   float64

	Text string
}

// contentBox is the border box minus border and padding.
type contentBox struct {
	Left, Top, Width, Height float64
}

func contentBoxOf(r dom.Rect, st dom.Style) contentBox {
	pad, bw := st.Padding(), st.BorderWidth()
	return contentBox{
		Left:   r.X + bw.Left + pad.Left,
		Top:    r.Y + bw.Top + pad.Top,
		Width:  math.Max(0, r.W-bw.Left-bw.Right-pad.Left-pad.Right),
		Height: math.Max(0, r.H-bw.Top-bw.Bottom-pad.Top-pad.Bottom),
	}
}

// placeSingleLine places text after pre in a non-wrapping control,
// vertically centred in the content box.
func placeSingleLine(box contentBox, st dom.Style, w float64) Placement {
	lh := st.LineHeight()
	adv := math.Min(w, box.Width)
	return Placement{
		Left:       box.Left + adv,
		Top:        box.Top + (box.Height-lh)/2,
		Height:     lh,
		LineHeight: lh,
		MaxWidth:   math.Max(0, box.Width-adv),
	}
}

// placeWrapped places text after pre in a soft-wrapping control. Every hard
// line before the caret line takes at least one row; the caret line adds
// the rows its text fills completely.
func placeWrapped(box contentBox, st dom.Style, m Measurer, pre string) Placement {
	lh := st.LineHeight()
	if box.Width <= 0 {
		return Placement{Left: box.Left, Top: box.Top, Height: lh, LineHeight: lh}
	}
	lines := strings.Split(pre, "\n")
	rows := 0.0
	for _, l := range lines[:len(lines)-1] {
		rows += math.Max(1, math.Ceil(m.Width(l, st)/box.Width))
	}
	w := m.Width(lines[len(lines)-1], st)
	rows += math.Floor(w / box.Width)
	rem := math.Mod(w, box.Width)
	return Placement{
		Left:       box.Left + rem,
		Top:        box.Top + rows*lh,
		Height:     lh,
		LineHeight: lh,
		MaxWidth:   box.Width - rem,
	}
}

// placeAtCaret places text at the right edge of the caret box.
func placeAtCaret(caret dom.Rect, bound dom.Rect, hasBound bool, fallback float64) Placement {
	mw := fallback
	if hasBound {
		mw = math.Max(0, bound.Right()-caret.Right())
	}
	return Placement{
		Left:       caret.Right(),
		Top:        caret.Y,
		Height:     caret.H,
		LineHeight: caret.H,
		MaxWidth:   mw,
	}
}
