package overlay

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/iw2rmb/ghostline/dom"
	"github.com/iw2rmb/ghostline/surface"
)

// ClassName is the class of the overlay element.
const ClassName = "ghostline-overlay"

// DefaultCaretMaxWidth bounds ghost text placed at a caret box when the
// editor box is unknown.
const DefaultCaretMaxWidth = 40

// ErrNoGeometry is returned when the host supplies no box for the surface.
var ErrNoGeometry = errors.New("overlay: no geometry")

// fixedStyle is carried by the overlay element whenever it is shown.
var fixedStyle = map[string]string{
	"pointer-events": "none",
	"position":       "absolute",
	"white-space":    "pre",
	"overflow":       "hidden",
	"text-overflow":  "ellipsis",
	"z-index":        "2147483647",
	"display":        "block",
}

type Options struct {
	Measurer Measurer
	// CaretMaxWidth is used for caret-placed ghost text when the editor
	// box is unknown.
	CaretMaxWidth float64
}

// Renderer owns the single overlay element of a document.
type Renderer struct {
	doc *dom.Document
	opt Options

	el        *dom.Element
	live      *surface.Suggestion
	target    *surface.Surface
	visible   bool
	placement Placement
}

func NewRenderer(doc *dom.Document, opt Options) *Renderer {
	if opt.Measurer == nil {
		opt.Measurer = CellMeasurer{}
	}
	if opt.CaretMaxWidth <= 0 {
		opt.CaretMaxWidth = DefaultCaretMaxWidth
	}
	return &Renderer{doc: doc, opt: opt}
}

// Element returns the overlay element, or nil before the first Show.
func (r *Renderer) Element() *dom.Element { return r.el }

// Owns reports whether n is the overlay element or inside it.
func (r *Renderer) Owns(n *html.Node) bool {
	return r.el != nil && r.el.Contains(n)
}

func (r *Renderer) IsVisible() bool { return r.visible }

// Live returns the suggestion currently shown.
func (r *Renderer) Live() *surface.Suggestion {
	if !r.visible {
		return nil
	}
	return r.live
}

// Placement returns the current placement while visible.
func (r *Renderer) Placement() (Placement, bool) {
	return r.placement, r.visible
}

// Show renders sg next to the caret of s, replacing any live suggestion.
func (r *Renderer) Show(s *surface.Surface, sg *surface.Suggestion) error {
	if sg == nil || !sg.For(s) {
		return surface.ErrSurfaceDetached
	}
	p, err := r.place(s, sg.Text)
	if err != nil {
		return err
	}
	r.ensureElement()
	r.live, r.target = sg, s
	r.el.SetTextContent(sg.Text)
	r.apply(p)
	return nil
}

// Reposition recomputes the placement of the live suggestion after layout
// changed. Only the overlay style is touched.
func (r *Renderer) Reposition() error {
	if !r.visible || r.live == nil {
		return nil
	}
	if !r.live.For(r.target) {
		r.Clear()
		return surface.ErrSurfaceDetached
	}
	p, err := r.place(r.target, r.live.Text)
	if err != nil {
		return err
	}
	r.apply(p)
	return nil
}

// Clear hides the overlay and drops the live suggestion. The element is
// kept for reuse.
func (r *Renderer) Clear() {
	r.live, r.target = nil, nil
	r.placement = Placement{}
	if !r.visible {
		return
	}
	r.visible = false
	r.el.SetStyle(map[string]string{"display": "none"})
}

// Destroy removes the overlay element from the document.
func (r *Renderer) Destroy() {
	r.Clear()
	if r.el != nil && r.el.Attached() {
		r.doc.Remove(r.el)
	}
	r.el = nil
}

func (r *Renderer) ensureElement() {
	if r.el != nil && r.el.Attached() {
		return
	}
	r.el = r.doc.CreateElement("div")
	r.el.SetAttr("class", ClassName)
	r.el.SetAttr("aria-hidden", "true")
	r.el.SetStyle(map[string]string{"display": "none"})
	r.doc.Body().AppendChild(r.el.Node())
}

func (r *Renderer) apply(p Placement) {
	props := make(map[string]string, len(fixedStyle)+8)
	for k, v := range fixedStyle {
		props[k] = v
	}
	props["left"] = px(p.Left)
	props["top"] = px(p.Top)
	props["height"] = px(p.Height)
	props["line-height"] = px(p.LineHeight)
	props["max-width"] = px(p.MaxWidth)
	props["font-size"] = px(p.FontSize)
	props["font-family"] = p.FontFamily
	r.el.SetStyle(props)
	r.placement = p
	r.visible = true
}

func (r *Renderer) place(s *surface.Surface, text string) (Placement, error) {
	el := s.Element()
	st := el.ComputedStyle()
	rect, hasRect := el.Rect()

	var p Placement
	switch {
	case el.Control() != nil:
		if !hasRect {
			return Placement{}, fmt.Errorf("place %s: %w", s.Kind(), ErrNoGeometry)
		}
		c := el.Control()
		pre := c.TextBefore(c.Caret())
		box := contentBoxOf(rect, st)
		if c.SingleLine() {
			p = placeSingleLine(box, st, r.opt.Measurer.Width(pre, st))
		} else {
			p = placeWrapped(box, st, r.opt.Measurer, pre)
		}
	default:
		if caret, ok := r.doc.Geometry().CaretRect(r.doc); ok {
			p = placeAtCaret(caret, rect, hasRect, r.opt.CaretMaxWidth)
			break
		}
		if !hasRect {
			return Placement{}, fmt.Errorf("place %s: %w", s.Kind(), ErrNoGeometry)
		}
		pre, ok := el.Document().Selection().TextBefore(el)
		if !ok {
			pre = el.TextContent()
		}
		if i := strings.LastIndexByte(pre, '\n'); i >= 0 {
			pre = pre[i+1:]
		}
		p = placeSingleLine(contentBoxOf(rect, st), st, r.opt.Measurer.Width(pre, st))
	}
	p.FontFamily = st.FontFamily()
	p.FontSize = st.FontSize()
	p.Text = text
	return p, nil
}

func px(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64) + "px"
}
