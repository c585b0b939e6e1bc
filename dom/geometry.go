package dom

// Rect is a box in host coordinates. The terminal host uses cells.
type Rect struct {
	X, Y, W, H float64
}

func (r Rect) Right() float64 { return r.X + r.W }

func (r Rect) Bottom() float64 { return r.Y + r.H }

// Geometry supplies layout that the headless document cannot compute.
type Geometry interface {
	// BoundingRect returns the border box of el.
	BoundingRect(el *Element) (Rect, bool)
	// CaretRect returns the box of the collapsed caret of the live selection.
	CaretRect(doc *Document) (Rect, bool)
}

// StaticGeometry is a Geometry backed by explicitly assigned boxes.
type StaticGeometry struct {
	boxes    map[*Element]Rect
	caret    Rect
	hasCaret bool
}

func NewStaticGeometry() *StaticGeometry {
	return &StaticGeometry{boxes: make(map[*Element]Rect)}
}

func (g *StaticGeometry) Set(el *Element, r Rect) { g.boxes[el] = r }

func (g *StaticGeometry) SetCaret(r Rect) {
	g.caret = r
	g.hasCaret = true
}

func (g *StaticGeometry) ClearCaret() { g.hasCaret = false }

func (g *StaticGeometry) BoundingRect(el *Element) (Rect, bool) {
	r, ok := g.boxes[el]
	return r, ok
}

func (g *StaticGeometry) CaretRect(*Document) (Rect, bool) {
	return g.caret, g.hasCaret
}
