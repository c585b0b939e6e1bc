package surface

import (
	"github.com/google/uuid"

	"github.com/iw2rmb/ghostline/dom"
)

// Surface is an editable region resolved from an element. It does not own
// the element; the document does.
type Surface struct {
	id     string
	kind   Kind
	el     *dom.Element
	polled bool
}

func (s *Surface) ID() string { return s.id }

func (s *Surface) Kind() Kind { return s.kind }

func (s *Surface) Element() *dom.Element { return s.el }

// Polled reports whether the surface is a canvas-rendered editor whose
// content changes are only observable by polling its rendered lines.
func (s *Surface) Polled() bool { return s.polled }

// ReadOnly reports the readonly/disabled state of the underlying element.
func (s *Surface) ReadOnly() bool { return s.el.ReadOnly() }

// Attached reports whether the element is still in the document.
func (s *Surface) Attached() bool { return s.el.Attached() }

// Same reports whether s and o wrap the same element.
func (s *Surface) Same(o *Surface) bool {
	return s != nil && o != nil && s.el == o.el
}

func newSurface(kind Kind, el *dom.Element, polled bool) *Surface {
	return &Surface{id: uuid.NewString(), kind: kind, el: el, polled: polled}
}
