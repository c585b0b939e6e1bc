package main

import (
	"strconv"
	"strings"

	"github.com/iw2rmb/ghostline/dom"
	"github.com/iw2rmb/ghostline/internal/grapheme"
)

const (
	fieldSelector  = "[data-field]"
	canvasSelector = ".kix-appview-editor"
	lineSelector   = ".kix-lineview"
	cursorSelector = ".kix-cursor"

	// headerRows are taken by the title above the first field.
	headerRows = 2
	minWidth   = 20
)

// field is one bordered box of the page. rect is its border box in cells.
type field struct {
	el    *dom.Element
	label string
	rows  int
	rect  dom.Rect
}

// content is what a field shows: wrapped lines and the caret cell.
type content struct {
	lines    []string
	caretRow int
	caretCol int
	hasCaret bool
}

// layout stacks the page fields vertically and serves as the document
// geometry: every box and the caret are reported in terminal cells.
type layout struct {
	doc      *dom.Document
	width    int
	tabWidth int
	fields   []field
	boxes    map[*dom.Element]dom.Rect
}

func newLayout(doc *dom.Document, tabWidth int) *layout {
	if tabWidth <= 0 {
		tabWidth = 4
	}
	l := &layout{doc: doc, width: 60, tabWidth: tabWidth}
	l.reflow(l.width)
	return l
}

// reflow recomputes field boxes for the terminal width. Boxes grow with
// their content.
func (l *layout) reflow(width int) {
	l.width = max(width, minWidth)
	l.fields = l.fields[:0]
	l.boxes = make(map[*dom.Element]dom.Rect)

	y := headerRows
	for _, el := range l.doc.QueryAll(fieldSelector) {
		f := field{el: el, label: label(el), rows: dataRows(el)}
		f.rect = dom.Rect{X: 0, Y: float64(y + 1), W: float64(l.width), H: float64(f.rows + 2)}
		c := l.contentOf(f)
		if n := max(len(c.lines), c.caretRow+1); n > f.rows {
			f.rows = n
			f.rect.H = float64(n + 2)
		}
		l.fields = append(l.fields, f)
		l.boxes[el] = f.rect
		y += f.rows + 3
	}
}

// height is the number of rows the fields take.
func (l *layout) height() int {
	if len(l.fields) == 0 {
		return headerRows
	}
	last := l.fields[len(l.fields)-1]
	return int(last.rect.Bottom())
}

func (l *layout) BoundingRect(el *dom.Element) (dom.Rect, bool) {
	r, ok := l.boxes[el]
	return r, ok
}

// CaretRect reports the caret of the focused rich region. Native controls
// have no caret rectangle, like in a browser.
func (l *layout) CaretRect(*dom.Document) (dom.Rect, bool) {
	f, ok := l.focusedField()
	if !ok || f.el.IsTextControl() {
		return dom.Rect{}, false
	}
	c := l.contentOf(f)
	if !c.hasCaret {
		return dom.Rect{}, false
	}
	x, y := l.contentOrigin(f)
	return dom.Rect{X: float64(x + c.caretCol), Y: float64(y + c.caretRow), W: 0, H: 1}, true
}

func (l *layout) focusedField() (field, bool) {
	foc := l.doc.Focused()
	for _, f := range l.fields {
		if f.el == foc {
			return f, true
		}
	}
	return field{}, false
}

// contentOrigin is the top-left content cell: inside the border and the
// one-cell horizontal padding.
func (l *layout) contentOrigin(f field) (int, int) {
	return int(f.rect.X) + 2, int(f.rect.Y) + 1
}

func (l *layout) contentWidth(f field) int {
	return max(int(f.rect.W)-4, 1)
}

func (l *layout) contentOf(f field) content {
	w := l.contentWidth(f)
	focused := l.doc.Focused() == f.el

	if c := f.el.Control(); c != nil {
		text := c.Text()
		if f.el.Type() == "password" {
			text = strings.Repeat("•", c.Len())
		}
		pre := c.TextBefore(c.Caret())
		if f.el.Type() == "password" {
			pre = strings.Repeat("•", c.Caret())
		}
		if c.SingleLine() {
			return content{lines: []string{text}, caretCol: grapheme.Width(pre, l.tabWidth), hasCaret: focused}
		}
		row, col := l.caretCell(pre, w)
		return content{lines: l.wrap(text, w), caretRow: row, caretCol: col, hasCaret: focused}
	}

	if f.el.Matches(canvasSelector) {
		return l.canvasContent(f, focused)
	}

	text := f.el.TextContent()
	c := content{lines: l.wrap(text, w)}
	if pre, ok := l.doc.Selection().TextBefore(f.el); ok && focused {
		c.caretRow, c.caretCol = l.caretCell(pre, w)
		c.hasCaret = true
	}
	return c
}

// canvasContent shows the rendered lines of a canvas editor. Its caret is
// the cursor marker the editor paints, not the document selection.
func (l *layout) canvasContent(f field, focused bool) content {
	var c content
	cursor := l.doc.Query(cursorSelector)
	for i, line := range f.el.QueryAll(lineSelector) {
		c.lines = append(c.lines, line.TextContent())
		if cursor == nil || !line.Contains(cursor.Node()) {
			continue
		}
		if pre, ok := line.TextBefore(cursor.Node()); ok {
			c.caretRow, c.caretCol = i, grapheme.Width(pre, l.tabWidth)
			c.hasCaret = focused
		}
	}
	return c
}

// caretCell maps the text before the caret to a row and column of the
// wrapped text. Full rows push the caret onto the next row, which is how
// the overlay places wrapped text too.
func (l *layout) caretCell(pre string, width int) (int, int) {
	hard := strings.Split(pre, "\n")
	row := 0
	for _, line := range hard[:len(hard)-1] {
		row += max(1, (grapheme.Width(line, l.tabWidth)+width-1)/width)
	}
	w := grapheme.Width(hard[len(hard)-1], l.tabWidth)
	return row + w/width, w % width
}

// wrap breaks text into rows of at most width cells.
func (l *layout) wrap(text string, width int) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		var sb strings.Builder
		col := 0
		for _, cl := range grapheme.Split(line) {
			cw := grapheme.ClusterWidth(cl)
			if cl == "\t" {
				cw = grapheme.TabAdvance(col, l.tabWidth)
				cl = strings.Repeat(" ", cw)
			}
			if col+cw > width {
				out = append(out, sb.String())
				sb.Reset()
				col = 0
			}
			sb.WriteString(cl)
			col += cw
		}
		out = append(out, sb.String())
	}
	return out
}

func label(el *dom.Element) string {
	if v, ok := el.Attr("data-label"); ok && v != "" {
		return v
	}
	return el.ID()
}

func dataRows(el *dom.Element) int {
	v, _ := el.Attr("data-rows")
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n < 1 {
		return 1
	}
	return n
}
