package dom

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/iw2rmb/ghostline/buffer"
)

// Document is a parsed page with live editing state.
type Document struct {
	root *html.Node

	elems    map[*html.Node]*Element
	controls map[*html.Node]*buffer.Buffer

	sel      Selection
	focused  *html.Node
	geometry Geometry

	queue []Event
}

// Parse reads an HTML page.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	d := &Document{
		root:     root,
		elems:    make(map[*html.Node]*Element),
		controls: make(map[*html.Node]*buffer.Buffer),
		geometry: NewStaticGeometry(),
	}
	d.sel.doc = d
	return d, nil
}

// ParseString is Parse over a string.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// MustParse is ParseString that panics on error. Intended for tests and
// embedded pages.
func MustParse(s string) *Document {
	d, err := ParseString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Root returns the document node.
func (d *Document) Root() *html.Node { return d.root }

// Body returns the <body> element. html.Parse always synthesizes one.
func (d *Document) Body() *Element {
	var find func(n *html.Node) *html.Node
	find = func(n *html.Node) *html.Node {
		if n.Type == html.ElementNode && n.DataAtom == atom.Body {
			return n
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if b := find(c); b != nil {
				return b
			}
		}
		return nil
	}
	return d.Element(find(d.root))
}

// Element returns the stable handle for an element node, or nil.
func (d *Document) Element(n *html.Node) *Element {
	if n == nil || n.Type != html.ElementNode {
		return nil
	}
	if el, ok := d.elems[n]; ok {
		return el
	}
	el := &Element{doc: d, node: n}
	d.elems[n] = el
	return el
}

// Query returns the first element matching selector, or nil.
func (d *Document) Query(selector string) *Element {
	all := d.QueryAll(selector)
	if len(all) == 0 {
		return nil
	}
	return all[0]
}

// QueryAll returns every element matching selector in document order.
func (d *Document) QueryAll(selector string) []*Element {
	return d.wrap(goquery.NewDocumentFromNode(d.root).Find(selector).Nodes)
}

// ByID returns the element with the given id attribute, or nil.
func (d *Document) ByID(id string) *Element {
	var found *html.Node
	walk(d.root, func(n *html.Node) bool {
		if n.Type == html.ElementNode && attr(n, "id") == id {
			found = n
			return true
		}
		return false
	})
	return d.Element(found)
}

// Selection returns the live document selection.
func (d *Document) Selection() *Selection { return &d.sel }

// Geometry returns the host layout source.
func (d *Document) Geometry() Geometry { return d.geometry }

// SetGeometry installs the host layout source.
func (d *Document) SetGeometry(g Geometry) {
	if g == nil {
		g = NewStaticGeometry()
	}
	d.geometry = g
}

// Events drains queued events in the order they were produced.
func (d *Document) Events() []Event {
	out := d.queue
	d.queue = nil
	return out
}

func (d *Document) emit(ev Event) {
	d.queue = append(d.queue, ev)
}

func (d *Document) wrap(nodes []*html.Node) []*Element {
	out := make([]*Element, 0, len(nodes))
	for _, n := range nodes {
		if el := d.Element(n); el != nil {
			out = append(out, el)
		}
	}
	return out
}

// walk visits n and its descendants in document order until fn returns true.
func walk(n *html.Node, fn func(*html.Node) bool) bool {
	if fn(n) {
		return true
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if walk(c, fn) {
			return true
		}
	}
	return false
}

func attr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == name {
			return a.Val
		}
	}
	return ""
}

func hasAttr(n *html.Node, name string) bool {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == name {
			return true
		}
	}
	return false
}

func isAncestor(anc, n *html.Node) bool {
	for p := n; p != nil; p = p.Parent {
		if p == anc {
			return true
		}
	}
	return false
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	walk(n, func(c *html.Node) bool {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
		return false
	})
	return sb.String()
}
