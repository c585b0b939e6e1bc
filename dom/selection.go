package dom

import (
	"errors"
	"strings"

	"golang.org/x/net/html"
)

// ErrNoSelection is returned by selection edits when no range is active.
var ErrNoSelection = errors.New("dom: no selection")

// Boundary is a range boundary point. For text nodes Offset counts runes;
// for element nodes it is a child index.
type Boundary struct {
	Node   *html.Node
	Offset int
}

// Selection is the document text selection (window.getSelection()).
// It holds at most one range.
type Selection struct {
	doc    *Document
	active bool
	anchor Boundary
	focus  Boundary
}

// RangeCount returns 0 or 1.
func (s *Selection) RangeCount() int {
	if s.active {
		return 1
	}
	return 0
}

func (s *Selection) Anchor() Boundary { return s.anchor }

func (s *Selection) Focus() Boundary { return s.focus }

func (s *Selection) IsCollapsed() bool { return !s.active || s.anchor == s.focus }

// Collapse places a collapsed range at (n, off).
func (s *Selection) Collapse(n *html.Node, off int) {
	b := Boundary{Node: n, Offset: clampBoundary(n, off)}
	s.active = true
	s.anchor, s.focus = b, b
}

// Extend moves the focus to (n, off), keeping the anchor.
func (s *Selection) Extend(n *html.Node, off int) {
	if !s.active {
		s.Collapse(n, off)
		return
	}
	s.focus = Boundary{Node: n, Offset: clampBoundary(n, off)}
}

func (s *Selection) RemoveAllRanges() {
	s.active = false
	s.anchor, s.focus = Boundary{}, Boundary{}
}

// Within reports whether the focus boundary lies inside container.
func (s *Selection) Within(container *Element) bool {
	return s.active && s.focus.Node != nil && isAncestor(container.node, s.focus.Node) &&
		isAncestor(s.doc.root, s.focus.Node)
}

// TextBefore serializes the text of container that precedes the focus
// boundary. It reports false when the selection is not inside container.
func (s *Selection) TextBefore(container *Element) (string, bool) {
	if !s.Within(container) {
		return "", false
	}
	var sb strings.Builder
	writeTextBefore(&sb, container.node, s.focus)
	return sb.String(), true
}

// CaretOffset returns the rune offset of the focus within container's text.
func (s *Selection) CaretOffset(container *Element) (int, bool) {
	text, ok := s.TextBefore(container)
	if !ok {
		return 0, false
	}
	return len([]rune(text)), true
}

// SetCaretOffset collapses the selection at rune offset off of container's
// text. Offsets past the end land at the end of the last text node.
func (s *Selection) SetCaretOffset(container *Element, off int) {
	if off < 0 {
		off = 0
	}
	var last *html.Node
	placed := false
	walk(container.node, func(n *html.Node) bool {
		if n.Type != html.TextNode {
			return false
		}
		l := len([]rune(n.Data))
		if off <= l {
			s.Collapse(n, off)
			placed = true
			return true
		}
		off -= l
		last = n
		return false
	})
	if placed {
		return
	}
	if last != nil {
		s.Collapse(last, len([]rune(last.Data)))
		return
	}
	s.Collapse(container.node, childCount(container.node))
}

// InsertTextNode inserts a new text node holding text at the focus boundary,
// splitting the host text node when needed, and collapses the selection right
// after it. The whole edit is recorded as a single structural change.
func (s *Selection) InsertTextNode(text string) (*html.Node, error) {
	if !s.active || s.focus.Node == nil {
		return nil, ErrNoSelection
	}
	b := s.focus
	node := &html.Node{Type: html.TextNode, Data: text}
	var parent *html.Node
	added := []*html.Node{node}

	switch b.Node.Type {
	case html.TextNode:
		parent = b.Node.Parent
		if parent == nil {
			return nil, ErrNoSelection
		}
		rs := []rune(b.Node.Data)
		off := clampInt(b.Offset, 0, len(rs))
		switch {
		case off == 0:
			parent.InsertBefore(node, b.Node)
		case off == len(rs):
			parent.InsertBefore(node, b.Node.NextSibling)
		default:
			suffix := &html.Node{Type: html.TextNode, Data: string(rs[off:])}
			b.Node.Data = string(rs[:off])
			parent.InsertBefore(node, b.Node.NextSibling)
			parent.InsertBefore(suffix, node.NextSibling)
			added = append(added, suffix)
		}
	default:
		parent = b.Node
		parent.InsertBefore(node, childAt(parent, b.Offset))
	}

	s.Collapse(parent, childIndex(node)+1)
	s.doc.emit(MutationEvent{Target: s.doc.Element(parent), Added: added})
	return node, nil
}

// typeText inserts text at the caret the way typing does: merged into the
// adjacent text node when there is one.
func (s *Selection) typeText(text string) {
	if !s.active || s.focus.Node == nil {
		return
	}
	s.deleteContents()
	b := s.normalizeToText()
	if b.Node.Type != html.TextNode {
		n := &html.Node{Type: html.TextNode, Data: text}
		b.Node.InsertBefore(n, childAt(b.Node, b.Offset))
		s.Collapse(n, len([]rune(text)))
		return
	}
	rs := []rune(b.Node.Data)
	off := clampInt(b.Offset, 0, len(rs))
	b.Node.Data = string(rs[:off]) + text + string(rs[off:])
	s.Collapse(b.Node, off+len([]rune(text)))
}

// deleteBackward removes one rune before the caret inside container.
func (s *Selection) deleteBackward(container *Element) bool {
	if !s.IsCollapsed() {
		return s.deleteContents()
	}
	off, ok := s.CaretOffset(container)
	if !ok || off == 0 {
		return false
	}
	n, local := runeAt(container.node, off-1)
	if n == nil {
		return false
	}
	rs := []rune(n.Data)
	n.Data = string(rs[:local]) + string(rs[local+1:])
	s.Collapse(n, local)
	return true
}

// deleteForward removes one rune after the caret inside container.
func (s *Selection) deleteForward(container *Element) bool {
	if !s.IsCollapsed() {
		return s.deleteContents()
	}
	off, ok := s.CaretOffset(container)
	if !ok {
		return false
	}
	n, local := runeAt(container.node, off)
	if n == nil {
		return false
	}
	rs := []rune(n.Data)
	n.Data = string(rs[:local]) + string(rs[local+1:])
	s.Collapse(n, local)
	return true
}

// runeAt finds the text node holding the rune at index idx of n's text.
func runeAt(n *html.Node, idx int) (*html.Node, int) {
	var found *html.Node
	walk(n, func(c *html.Node) bool {
		if c.Type != html.TextNode {
			return false
		}
		l := len([]rune(c.Data))
		if idx < l {
			found = c
			return true
		}
		idx -= l
		return false
	})
	return found, idx
}

// deleteContents removes a non-collapsed range inside a single text node.
// Cross-node ranges collapse to the focus.
func (s *Selection) deleteContents() bool {
	if s.IsCollapsed() {
		return false
	}
	a, f := s.anchor, s.focus
	if a.Node != f.Node || a.Node.Type != html.TextNode {
		s.Collapse(f.Node, f.Offset)
		return false
	}
	lo, hi := a.Offset, f.Offset
	if lo > hi {
		lo, hi = hi, lo
	}
	rs := []rune(a.Node.Data)
	a.Node.Data = string(rs[:lo]) + string(rs[hi:])
	s.Collapse(a.Node, lo)
	return true
}

// normalizeToText moves an element boundary onto an adjacent text node.
func (s *Selection) normalizeToText() Boundary {
	b := s.focus
	if b.Node.Type == html.TextNode {
		return b
	}
	if prev := childAt(b.Node, b.Offset-1); prev != nil && prev.Type == html.TextNode {
		s.Collapse(prev, len([]rune(prev.Data)))
		return s.focus
	}
	if next := childAt(b.Node, b.Offset); next != nil && next.Type == html.TextNode {
		s.Collapse(next, 0)
		return s.focus
	}
	return b
}

func writeTextBefore(sb *strings.Builder, n *html.Node, b Boundary) bool {
	if n == b.Node {
		if n.Type == html.TextNode {
			rs := []rune(n.Data)
			sb.WriteString(string(rs[:clampInt(b.Offset, 0, len(rs))]))
			return true
		}
		i := 0
		for c := n.FirstChild; c != nil && i < b.Offset; c = c.NextSibling {
			sb.WriteString(textContent(c))
			i++
		}
		return true
	}
	if n.Type == html.TextNode {
		sb.WriteString(n.Data)
		return false
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if writeTextBefore(sb, c, b) {
			return true
		}
	}
	return false
}

func clampBoundary(n *html.Node, off int) int {
	if n == nil {
		return 0
	}
	if n.Type == html.TextNode {
		return clampInt(off, 0, len([]rune(n.Data)))
	}
	return clampInt(off, 0, childCount(n))
}

func childCount(n *html.Node) int {
	c := 0
	for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
		c++
	}
	return c
}

func childAt(n *html.Node, i int) *html.Node {
	if i < 0 {
		return nil
	}
	for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
		if i == 0 {
			return ch
		}
		i--
	}
	return nil
}

func childIndex(n *html.Node) int {
	i := 0
	for ch := n.Parent.FirstChild; ch != nil && ch != n; ch = ch.NextSibling {
		i++
	}
	return i
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
