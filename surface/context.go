package surface

import (
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"
	"weak"

	"github.com/iw2rmb/ghostline/dom"
)

// InputContext is an immutable snapshot of a surface taken for one
// suggestion request.
type InputContext struct {
	Text          string
	CaretOffset   int
	SurfaceKind   Kind
	IsSearchField bool
	IsCodeLike    bool

	// Host hints for prompt building.
	Name        string
	Placeholder string

	source weak.Pointer[Surface]
}

// BeforeCaret returns the text preceding the caret.
func (c InputContext) BeforeCaret() string {
	rs := []rune(c.Text)
	if c.CaretOffset < 0 {
		return ""
	}
	if c.CaretOffset >= len(rs) {
		return c.Text
	}
	return string(rs[:c.CaretOffset])
}

// Source returns the surface the context was read from, if it is still
// referenced elsewhere.
func (c InputContext) Source() (*Surface, bool) {
	s := c.source.Value()
	return s, s != nil
}

var codePatterns = []*regexp.Regexp{
	regexp.MustCompile(`[{}\[\]()]`),
	regexp.MustCompile(`\b(function|const|let|var|if|for|while|class|import|export|def|func|return|package)\b`),
	regexp.MustCompile(`[;=<>+\-*/%]`),
	regexp.MustCompile(`\bclass\s+\w+:`),
	regexp.MustCompile(`\bdef\s+\w+\s*\(`),
}

// LooksLikeCode reports whether text matches any of the code patterns.
func LooksLikeCode(text string) bool {
	for _, re := range codePatterns {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

var searchNames = []string{"q", "query", "search", "s", "keyword", "keywords", "term"}

// IsSearchField reports whether el is a search box.
func IsSearchField(el *dom.Element) bool {
	if el.Type() == "search" {
		return true
	}
	if role, _ := el.Attr("role"); strings.EqualFold(role, "searchbox") {
		return true
	}
	name, _ := el.Attr("name")
	if slices.Contains(searchNames, strings.ToLower(name)) {
		return true
	}
	ph, _ := el.Attr("placeholder")
	label, _ := el.Attr("aria-label")
	for _, v := range []string{ph, el.ID(), label} {
		if strings.Contains(strings.ToLower(v), "search") {
			return true
		}
	}
	return false
}

// ReadContext captures the text and caret of s.
func (a *Adapter) ReadContext(s *Surface) (InputContext, error) {
	if s == nil || !s.Attached() {
		return InputContext{}, ErrSurfaceDetached
	}
	text, caret := a.read(s)
	name, _ := s.el.Attr("name")
	ph, _ := s.el.Attr("placeholder")
	return InputContext{
		Text:          text,
		CaretOffset:   caret,
		SurfaceKind:   s.kind,
		IsSearchField: IsSearchField(s.el),
		IsCodeLike:    a.inCodeEditor(s.el) || LooksLikeCode(text),
		Name:          name,
		Placeholder:   ph,
		source:        weak.Make(s),
	}, nil
}

func (a *Adapter) read(s *Surface) (string, int) {
	if c := s.el.Control(); c != nil {
		return c.Text(), c.Caret()
	}
	if s.polled {
		line, caret, ok := a.cursorLine(s)
		if !ok {
			return "", 0
		}
		return line.TextContent(), caret
	}
	text := s.el.TextContent()
	return text, richCaret(s, text)
}

// richCaret is the selection offset inside s, or the end of text when the
// selection is elsewhere.
func richCaret(s *Surface, text string) int {
	if off, ok := s.el.Document().Selection().CaretOffset(s.el); ok {
		return off
	}
	return utf8.RuneCountInString(text)
}

// Caret returns the live caret offset of s.
func (a *Adapter) Caret(s *Surface) (int, bool) {
	if s == nil || !s.Attached() {
		return 0, false
	}
	if c := s.el.Control(); c != nil {
		return c.Caret(), true
	}
	if s.polled {
		_, caret, ok := a.cursorLine(s)
		return caret, ok
	}
	return richCaret(s, s.el.TextContent()), true
}

// LineText returns the text of the rendered line holding the cursor marker
// of a polled surface.
func (a *Adapter) LineText(s *Surface) (string, bool) {
	if s == nil || !s.polled || !s.Attached() {
		return "", false
	}
	line, _, ok := a.cursorLine(s)
	if !ok {
		return "", false
	}
	return line.TextContent(), true
}

// cursorLine finds the cursor marker and the line view that contains it.
// The marker is searched in the whole document, since canvas editors render
// it outside the focused element.
func (a *Adapter) cursorLine(s *Surface) (*dom.Element, int, bool) {
	cursor := s.el.Document().Query(cursorSelector)
	if cursor == nil {
		return nil, 0, false
	}
	line := cursor.Closest(lineSelector)
	if line == nil {
		return nil, 0, false
	}
	before, ok := line.TextBefore(cursor.Node())
	if !ok {
		return nil, 0, false
	}
	return line, utf8.RuneCountInString(before), true
}

func (a *Adapter) inCodeEditor(el *dom.Element) bool {
	if a.code == "" {
		return false
	}
	return el.Closest(a.code) != nil || el.HasClass("monaco-mouse-cursor-text")
}
