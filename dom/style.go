package dom

import (
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/aymerick/douceur/css"
	"github.com/aymerick/douceur/parser"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Default computed values at the root. The terminal host measures in cells,
// so a font size of 1 is one cell and one row.
const (
	DefaultFontFamily = "monospace"
	DefaultFontSize   = 1.0
	DefaultLineHeight = 1.0

	normalLineHeight = 1.2
)

var inherited = []string{"font-family", "font-size", "line-height", "color", "-webkit-user-modify"}

// Style is a set of resolved declarations keyed by lower-case property.
type Style map[string]string

func (s Style) Get(prop string) string { return s[prop] }

// Length parses a length value. em is relative to em, unitless values and
// px/ch are taken as host units.
func (s Style) Length(prop string, em float64) (float64, bool) {
	return parseLength(s[prop], em)
}

// FontSize returns the resolved font size.
func (s Style) FontSize() float64 {
	if v, ok := parseLength(s["font-size"], DefaultFontSize); ok && v > 0 {
		return v
	}
	return DefaultFontSize
}

// LineHeight returns the resolved line box height.
func (s Style) LineHeight() float64 {
	fs := s.FontSize()
	v := strings.TrimSpace(s["line-height"])
	switch {
	case v == "":
		return DefaultLineHeight * fs
	case v == "normal":
		return normalLineHeight * fs
	}
	if n, err := strconv.ParseFloat(v, 64); err == nil {
		return n * fs
	}
	if n, ok := parseLength(v, fs); ok {
		return n
	}
	return DefaultLineHeight * fs
}

func (s Style) FontFamily() string {
	if v := strings.TrimSpace(s["font-family"]); v != "" {
		return v
	}
	return DefaultFontFamily
}

// UserModify returns the -webkit-user-modify value, "read-only" when unset.
func (s Style) UserModify() string {
	if v := strings.TrimSpace(s["-webkit-user-modify"]); v != "" {
		return strings.ToLower(v)
	}
	return "read-only"
}

// Edges are per-side lengths.
type Edges struct {
	Top, Right, Bottom, Left float64
}

// Padding expands the padding shorthand and longhands.
func (s Style) Padding() Edges {
	return s.box("padding")
}

// BorderWidth expands border-width, the border shorthand and longhands.
func (s Style) BorderWidth() Edges {
	e := Edges{}
	if v := s["border"]; v != "" {
		w := firstLength(v, s.FontSize())
		e = Edges{w, w, w, w}
	}
	if v := s["border-width"]; v != "" {
		e = expandBox(v, s.FontSize())
	}
	fs := s.FontSize()
	side := func(name string, dst *float64) {
		if v := s["border-"+name]; v != "" {
			*dst = firstLength(v, fs)
		}
		if v := s["border-"+name+"-width"]; v != "" {
			if n, ok := parseLength(v, fs); ok {
				*dst = n
			}
		}
	}
	side("top", &e.Top)
	side("right", &e.Right)
	side("bottom", &e.Bottom)
	side("left", &e.Left)
	return e
}

func (s Style) box(prop string) Edges {
	fs := s.FontSize()
	e := expandBox(s[prop], fs)
	side := func(name string, dst *float64) {
		if n, ok := parseLength(s[prop+"-"+name], fs); ok {
			*dst = n
		}
	}
	side("top", &e.Top)
	side("right", &e.Right)
	side("bottom", &e.Bottom)
	side("left", &e.Left)
	return e
}

// InlineStyle returns the declarations of the style attribute.
func (e *Element) InlineStyle() Style {
	out := Style{}
	for _, d := range parseDecls(attr(e.node, "style")) {
		out[strings.ToLower(d.Property)] = d.Value
	}
	return out
}

// SetStyle merges props into the style attribute, keeping declaration order.
// An empty value removes the property.
func (e *Element) SetStyle(props map[string]string) {
	decls := parseDecls(attr(e.node, "style"))
	seen := make(map[string]bool, len(props))
	out := decls[:0]
	for _, d := range decls {
		p := strings.ToLower(d.Property)
		if v, ok := props[p]; ok {
			seen[p] = true
			if v == "" {
				continue
			}
			d.Value = v
		}
		out = append(out, d)
	}
	for _, p := range slices.Sorted(maps.Keys(props)) {
		if seen[p] || props[p] == "" {
			continue
		}
		out = append(out, &css.Declaration{Property: p, Value: props[p]})
	}
	var sb strings.Builder
	for i, d := range out {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(d.Property)
		sb.WriteString(": ")
		sb.WriteString(d.Value)
		sb.WriteByte(';')
	}
	e.SetAttr("style", sb.String())
}

// ComputedStyle cascades document <style> rules in source order and the
// inline style, then inherits font and color properties from ancestors.
func (e *Element) ComputedStyle() Style {
	var parent Style
	if p := e.Parent(); p != nil {
		parent = p.ComputedStyle()
	} else {
		parent = Style{
			"font-family": DefaultFontFamily,
			"font-size":   formatFloat(DefaultFontSize),
			"line-height": formatFloat(DefaultLineHeight),
		}
	}

	own := Style{}
	for _, rule := range e.doc.stylesheet() {
		if rule.Kind != css.QualifiedRule || !e.Matches(strings.Join(rule.Selectors, ", ")) {
			continue
		}
		for _, d := range rule.Declarations {
			own[strings.ToLower(d.Property)] = d.Value
		}
	}
	for k, v := range e.InlineStyle() {
		own[k] = v
	}

	out := Style{}
	for _, p := range inherited {
		if v, ok := parent[p]; ok {
			out[p] = v
		}
	}
	pfs := parent.FontSize()
	for k, v := range own {
		if strings.TrimSpace(v) == "inherit" {
			continue
		}
		out[k] = v
	}
	if v, ok := own["font-size"]; ok {
		if n, ok := parseLength(v, pfs); ok {
			out["font-size"] = formatFloat(n)
		} else {
			out["font-size"] = formatFloat(pfs)
		}
	}
	if v, ok := own["line-height"]; ok {
		if _, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err != nil && strings.TrimSpace(v) != "normal" {
			if n, ok := parseLength(v, out.FontSize()); ok {
				out["line-height"] = formatFloat(n)
			}
		}
	}
	return out
}

// stylesheet collects the rules of every <style> element.
func (d *Document) stylesheet() []*css.Rule {
	var rules []*css.Rule
	walk(d.root, func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.DataAtom == atom.Style {
			sheet, err := parser.Parse(textContent(n))
			if err == nil {
				rules = append(rules, sheet.Rules...)
			}
		}
		return false
	})
	return rules
}

func parseDecls(s string) []*css.Declaration {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	decls, err := parser.ParseDeclarations(s)
	if err != nil {
		return nil
	}
	return decls
}

func parseLength(v string, em float64) (float64, bool) {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "" {
		return 0, false
	}
	mult := 1.0
	switch {
	case strings.HasSuffix(v, "rem"):
		v, mult = strings.TrimSuffix(v, "rem"), DefaultFontSize
	case strings.HasSuffix(v, "em"):
		v, mult = strings.TrimSuffix(v, "em"), em
	case strings.HasSuffix(v, "px"):
		v = strings.TrimSuffix(v, "px")
	case strings.HasSuffix(v, "ch"):
		v = strings.TrimSuffix(v, "ch")
	}
	n, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false
	}
	return n * mult, true
}

func firstLength(v string, em float64) float64 {
	for _, f := range strings.Fields(v) {
		if n, ok := parseLength(f, em); ok {
			return n
		}
	}
	return 0
}

// expandBox applies the 1-4 value box shorthand.
func expandBox(v string, em float64) Edges {
	var vals []float64
	for _, f := range strings.Fields(v) {
		n, ok := parseLength(f, em)
		if !ok {
			return Edges{}
		}
		vals = append(vals, n)
	}
	switch len(vals) {
	case 1:
		return Edges{vals[0], vals[0], vals[0], vals[0]}
	case 2:
		return Edges{vals[0], vals[1], vals[0], vals[1]}
	case 3:
		return Edges{vals[0], vals[1], vals[2], vals[1]}
	case 4:
		return Edges{vals[0], vals[1], vals[2], vals[3]}
	}
	return Edges{}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

