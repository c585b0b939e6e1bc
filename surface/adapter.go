package surface

import (
	"errors"
	"strings"

	"github.com/iw2rmb/ghostline/dom"
)

var (
	// ErrSurfaceDetached is returned when the element left the document.
	ErrSurfaceDetached = errors.New("surface: detached")
	// ErrStaleSurface is returned when the caret moved since the context
	// was captured.
	ErrStaleSurface = errors.New("surface: stale caret")
	// ErrReadOnly is returned when committing into a read-only surface.
	ErrReadOnly = errors.New("surface: read-only")
)

// DefaultMinTextLength is the minimum trimmed text length of an eligible
// surface.
const DefaultMinTextLength = 2

// DefaultRichEditorSelectors mark third-party editor widgets.
var DefaultRichEditorSelectors = []string{
	".ql-editor",
	".ProseMirror",
	".CodeMirror-code",
	".ace_editor",
	".monaco-editor",
	".kix-canvas-tile-content",
	".kix-appview-editor",
	".Am.Al.editable",
}

// DefaultCodeEditorSelectors mark editors whose content is always code.
var DefaultCodeEditorSelectors = []string{
	".monaco-editor",
	".CodeMirror-code",
	".ace_editor",
}

// DefaultCanvasSelectors mark canvas-rendered editors.
var DefaultCanvasSelectors = []string{
	".kix-canvas-tile-content",
	".kix-appview-editor",
}

const (
	cursorSelector = ".kix-cursor"
	lineSelector   = ".kix-lineview"
)

// excludedInputTypes are input types that never take free text.
var excludedInputTypes = map[string]bool{
	"checkbox": true,
	"radio":    true,
	"submit":   true,
	"button":   true,
	"file":     true,
	"hidden":   true,
	"password": true,
	"image":    true,
	"reset":    true,
	"range":    true,
	"color":    true,
}

type Options struct {
	RichEditorSelectors []string
	CodeEditorSelectors []string
	CanvasSelectors     []string
	MinTextLength       int
}

func DefaultOptions() Options {
	return Options{
		RichEditorSelectors: DefaultRichEditorSelectors,
		CodeEditorSelectors: DefaultCodeEditorSelectors,
		CanvasSelectors:     DefaultCanvasSelectors,
		MinTextLength:       DefaultMinTextLength,
	}
}

// Adapter is the single capability interface over every surface kind.
type Adapter struct {
	opt    Options
	rich   string
	code   string
	canvas string
}

func NewAdapter(opt Options) *Adapter {
	d := DefaultOptions()
	if opt.RichEditorSelectors == nil {
		opt.RichEditorSelectors = d.RichEditorSelectors
	}
	if opt.CodeEditorSelectors == nil {
		opt.CodeEditorSelectors = d.CodeEditorSelectors
	}
	if opt.CanvasSelectors == nil {
		opt.CanvasSelectors = d.CanvasSelectors
	}
	if opt.MinTextLength <= 0 {
		opt.MinTextLength = d.MinTextLength
	}
	return &Adapter{
		opt:    opt,
		rich:   joinSelectors(opt.RichEditorSelectors),
		code:   joinSelectors(opt.CodeEditorSelectors),
		canvas: joinSelectors(opt.CanvasSelectors),
	}
}

func (a *Adapter) Options() Options { return a.opt }

// detector is one link of the detection chain.
type detector func(a *Adapter, el *dom.Element) (Kind, bool)

// detectors run in priority order; the first match wins.
var detectors = []detector{
	detectNative,
	detectContentEditable,
	detectRichMarker,
	detectUserModify,
}

func detectNative(_ *Adapter, el *dom.Element) (Kind, bool) {
	switch el.Tag() {
	case "textarea":
		return PlainInput, true
	case "input":
		return PlainInput, true
	}
	return 0, false
}

func detectContentEditable(_ *Adapter, el *dom.Element) (Kind, bool) {
	return ContentEditable, el.ContentEditable()
}

func detectRichMarker(a *Adapter, el *dom.Element) (Kind, bool) {
	return RichEditorProxy, a.rich != "" && el.Matches(a.rich)
}

func detectUserModify(_ *Adapter, el *dom.Element) (Kind, bool) {
	switch el.ComputedStyle().UserModify() {
	case "read-write", "read-write-plaintext-only":
		return RichEditorProxy, true
	}
	return 0, false
}

// Detect classifies el. Password inputs are detected as PlainInput so that
// Resolve can exclude them explicitly.
func (a *Adapter) Detect(el *dom.Element) (Kind, bool) {
	if el == nil {
		return 0, false
	}
	if el.Tag() == "input" && excludedInputTypes[el.Type()] && el.Type() != "password" {
		return 0, false
	}
	for _, d := range detectors {
		if k, ok := d(a, el); ok {
			return k, true
		}
	}
	return 0, false
}

// Resolve turns el into a Surface. Read-only, disabled and password
// controls are never resolvable.
func (a *Adapter) Resolve(el *dom.Element) (*Surface, bool) {
	kind, ok := a.Detect(el)
	if !ok || el.ReadOnly() || el.Type() == "password" {
		return nil, false
	}
	return newSurface(kind, el, a.isCanvas(el)), true
}

// IsEligible reports whether s may receive suggestions now.
func (a *Adapter) IsEligible(s *Surface) bool {
	if s == nil || !s.Attached() || s.ReadOnly() || s.el.Type() == "password" {
		return false
	}
	in, err := a.ReadContext(s)
	if err != nil {
		return false
	}
	return len([]rune(strings.TrimSpace(in.Text))) >= a.opt.MinTextLength
}

// Discover returns the rich editors found in a newly attached subtree,
// including its root.
func (a *Adapter) Discover(root *dom.Element) []*Surface {
	if root == nil || a.rich == "" {
		return nil
	}
	var out []*Surface
	cands := append([]*dom.Element{root}, root.QueryAll(a.rich)...)
	for _, el := range cands {
		if !el.Matches(a.rich) {
			continue
		}
		if s, ok := a.Resolve(el); ok {
			out = append(out, s)
		}
	}
	return out
}

func (a *Adapter) isCanvas(el *dom.Element) bool {
	if a.canvas == "" {
		return false
	}
	return el.Matches(a.canvas) || len(el.QueryAll(a.canvas)) > 0
}

func joinSelectors(sels []string) string {
	out := make([]string, 0, len(sels))
	for _, s := range sels {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return strings.Join(out, ", ")
}
