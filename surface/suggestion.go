package surface

import (
	"time"
	"weak"

	"github.com/google/uuid"
)

// Suggestion is a proposed continuation for one surface at one caret
// offset. It refers back to the surface weakly and never keeps it alive.
type Suggestion struct {
	ID             string
	Text           string
	ProviderID     string
	CreatedAt      time.Time
	ForCaretOffset int

	surface weak.Pointer[Surface]
}

// NewSuggestion binds text to the surface and caret captured in in.
func NewSuggestion(in InputContext, text, providerID string, now time.Time) *Suggestion {
	return &Suggestion{
		ID:             uuid.NewString(),
		Text:           text,
		ProviderID:     providerID,
		CreatedAt:      now,
		ForCaretOffset: in.CaretOffset,
		surface:        in.source,
	}
}

// Surface resolves the back-reference. A collected or detached surface
// yields ErrSurfaceDetached.
func (sg *Suggestion) Surface() (*Surface, error) {
	if sg == nil {
		return nil, ErrSurfaceDetached
	}
	s := sg.surface.Value()
	if s == nil || !s.Attached() {
		return nil, ErrSurfaceDetached
	}
	return s, nil
}

// For reports whether sg was produced for s.
func (sg *Suggestion) For(s *Surface) bool {
	cur, err := sg.Surface()
	return err == nil && cur.Same(s)
}
