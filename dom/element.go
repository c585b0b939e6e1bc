package dom

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/iw2rmb/ghostline/buffer"
)

// Element is a non-owning handle to an element node. Handles are stable:
// the same node always yields the same *Element.
type Element struct {
	doc  *Document
	node *html.Node
}

func (e *Element) Node() *html.Node { return e.node }

func (e *Element) Document() *Document { return e.doc }

// Tag returns the lower-case tag name.
func (e *Element) Tag() string { return e.node.Data }

func (e *Element) Attr(name string) (string, bool) {
	return attr(e.node, name), hasAttr(e.node, name)
}

func (e *Element) SetAttr(name, val string) {
	for i, a := range e.node.Attr {
		if a.Namespace == "" && a.Key == name {
			e.node.Attr[i].Val = val
			return
		}
	}
	e.node.Attr = append(e.node.Attr, html.Attribute{Key: name, Val: val})
}

func (e *Element) RemoveAttr(name string) {
	out := e.node.Attr[:0]
	for _, a := range e.node.Attr {
		if a.Namespace == "" && a.Key == name {
			continue
		}
		out = append(out, a)
	}
	e.node.Attr = out
}

func (e *Element) ID() string { return attr(e.node, "id") }

func (e *Element) Classes() []string { return strings.Fields(attr(e.node, "class")) }

func (e *Element) HasClass(class string) bool {
	for _, c := range e.Classes() {
		if c == class {
			return true
		}
	}
	return false
}

// Type returns the lower-case input type, defaulting to "text" like the
// HTMLInputElement.type property. Non-input elements return "".
func (e *Element) Type() string {
	if e.node.DataAtom != atom.Input {
		return ""
	}
	t := strings.ToLower(strings.TrimSpace(attr(e.node, "type")))
	if t == "" {
		return "text"
	}
	return t
}

// IsTextControl reports whether e is an <input> or <textarea>.
func (e *Element) IsTextControl() bool {
	return e.node.DataAtom == atom.Input || e.node.DataAtom == atom.Textarea
}

// ReadOnly reports the readonly or disabled state.
func (e *Element) ReadOnly() bool {
	return hasAttr(e.node, "readonly") || hasAttr(e.node, "disabled")
}

// ContentEditable reports whether the element itself carries an editing
// contenteditable value ("", "true" or "plaintext-only").
func (e *Element) ContentEditable() bool {
	v, ok := e.Attr("contenteditable")
	if !ok {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "true", "plaintext-only":
		return true
	default:
		return false
	}
}

// Matches reports whether e matches a CSS selector.
func (e *Element) Matches(selector string) bool {
	return goquery.NewDocumentFromNode(e.node).Is(selector)
}

// Closest returns the nearest inclusive ancestor matching selector, or nil.
func (e *Element) Closest(selector string) *Element {
	nodes := goquery.NewDocumentFromNode(e.node).Closest(selector).Nodes
	if len(nodes) == 0 {
		return nil
	}
	return e.doc.Element(nodes[0])
}

// QueryAll returns descendants matching selector.
func (e *Element) QueryAll(selector string) []*Element {
	return e.doc.wrap(goquery.NewDocumentFromNode(e.node).Find(selector).Nodes)
}

func (e *Element) Parent() *Element { return e.doc.Element(e.node.Parent) }

// Attached reports whether e is still reachable from the document root.
func (e *Element) Attached() bool { return isAncestor(e.doc.root, e.node) }

// Contains reports whether n is e or a descendant of e.
func (e *Element) Contains(n *html.Node) bool { return isAncestor(e.node, n) }

// TextContent concatenates descendant text nodes. For text controls it
// returns the live value.
func (e *Element) TextContent() string {
	if c := e.Control(); c != nil {
		return c.Text()
	}
	return textContent(e.node)
}

// TextBefore returns the text of e's descendants that precede n in
// document order. n must be inside e.
func (e *Element) TextBefore(n *html.Node) (string, bool) {
	if !isAncestor(e.node, n) {
		return "", false
	}
	var sb strings.Builder
	walk(e.node, func(c *html.Node) bool {
		if c == n {
			return true
		}
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
		return false
	})
	return sb.String(), true
}

// Control returns the live value model of an <input> or <textarea>, created
// from the markup on first access. It returns nil for other elements.
func (e *Element) Control() *buffer.Buffer {
	if !e.IsTextControl() {
		return nil
	}
	if b, ok := e.doc.controls[e.node]; ok {
		return b
	}
	var b *buffer.Buffer
	if e.node.DataAtom == atom.Input {
		b = buffer.New(attr(e.node, "value"), buffer.Options{SingleLine: true, MaxLength: maxLength(e.node)})
	} else {
		b = buffer.New(textContent(e.node), buffer.Options{MaxLength: maxLength(e.node)})
	}
	b.SetCaret(b.Len())
	e.doc.controls[e.node] = b
	return b
}

// SetTextContent replaces the children of e with a single text node as one
// structural change.
func (e *Element) SetTextContent(text string) {
	var removed []*html.Node
	for c := e.node.FirstChild; c != nil; {
		next := c.NextSibling
		e.node.RemoveChild(c)
		removed = append(removed, c)
		c = next
	}
	var added []*html.Node
	if text != "" {
		n := &html.Node{Type: html.TextNode, Data: text}
		e.node.AppendChild(n)
		added = append(added, n)
	}
	if len(added) > 0 || len(removed) > 0 {
		e.doc.emit(MutationEvent{Target: e, Added: added, Removed: removed})
	}
}

// AppendChild appends child to e as one structural change.
func (e *Element) AppendChild(child *html.Node) {
	if child.Parent != nil {
		child.Parent.RemoveChild(child)
	}
	e.node.AppendChild(child)
	e.doc.emit(MutationEvent{Target: e, Added: []*html.Node{child}})
}

// Rect returns the element's border box from the host geometry.
func (e *Element) Rect() (Rect, bool) {
	return e.doc.geometry.BoundingRect(e)
}

func maxLength(n *html.Node) int {
	v := strings.TrimSpace(attr(n, "maxlength"))
	if v == "" {
		return 0
	}
	max := 0
	for _, r := range v {
		if r < '0' || r > '9' {
			return 0
		}
		max = max*10 + int(r-'0')
	}
	return max
}

// CreateElement returns a detached element node handle.
func (d *Document) CreateElement(tag string) *Element {
	n := &html.Node{Type: html.ElementNode, Data: tag, DataAtom: atom.Lookup([]byte(tag))}
	return d.Element(n)
}
