package surface

import (
	"fmt"
)

// Commit inserts text at the caret of s. captured is the caret offset the
// text was produced for; if the caret has moved since, nothing is changed
// and ErrStaleSurface is returned.
func (a *Adapter) Commit(s *Surface, text string, captured int) error {
	if s == nil || !s.Attached() {
		return ErrSurfaceDetached
	}
	if s.ReadOnly() {
		return ErrReadOnly
	}
	cur, ok := a.Caret(s)
	if !ok || cur != captured {
		return ErrStaleSurface
	}
	if text == "" {
		return nil
	}

	switch {
	case s.el.Control() != nil:
		s.el.Control().Splice(cur, text)
	case s.polled:
		cursor := s.el.Document().Query(cursorSelector)
		if cursor == nil {
			return ErrStaleSurface
		}
		if _, ok := s.el.Document().InsertTextBefore(cursor, text); !ok {
			return ErrSurfaceDetached
		}
	default:
		sel := s.el.Document().Selection()
		if !sel.Within(s.el) {
			sel.SetCaretOffset(s.el, cur)
		}
		if _, err := sel.InsertTextNode(text); err != nil {
			return fmt.Errorf("commit %s: %w", s.kind, err)
		}
	}
	return nil
}

// Accept commits sg into the surface it was produced for.
func (a *Adapter) Accept(sg *Suggestion) error {
	s, err := sg.Surface()
	if err != nil {
		return err
	}
	return a.Commit(s, sg.Text, sg.ForCaretOffset)
}
