package dom

import (
	"fmt"

	"golang.org/x/net/html"
)

// Event is a host notification queued by the document.
type Event interface {
	event()
}

// FocusInEvent is queued when an element gains focus.
type FocusInEvent struct{ Target *Element }

// FocusOutEvent is queued when an element loses focus.
type FocusOutEvent struct{ Target *Element }

// InputEvent is queued after the value or content of an editable element
// changed by user action.
type InputEvent struct {
	Target    *Element
	InputType string // "insertText", "deleteContentBackward", ...
	Data      string
}

// MutationEvent is a structural change record: children were added to or
// removed from Target.
type MutationEvent struct {
	Target  *Element
	Added   []*html.Node
	Removed []*html.Node
}

// ResizeEvent is queued when the viewport size changes.
type ResizeEvent struct {
	Width, Height int
}

func (FocusInEvent) event()  {}
func (FocusOutEvent) event() {}
func (InputEvent) event()    {}
func (MutationEvent) event() {}
func (ResizeEvent) event()   {}

// KeyEvent is dispatched synchronously by the host before the default action.
// Listeners call PreventDefault to suppress it.
type KeyEvent struct {
	Target *Element
	Key    string

	prevented bool
}

func (*KeyEvent) event() {}

// NewKeyEvent returns a key event targeted at the focused element.
func (d *Document) NewKeyEvent(key string) *KeyEvent {
	return &KeyEvent{Target: d.Focused(), Key: key}
}

// String returns the key name in bubbletea notation ("tab", "esc", "a").
func (k *KeyEvent) String() string { return k.Key }

func (k *KeyEvent) PreventDefault() { k.prevented = true }

func (k *KeyEvent) DefaultPrevented() bool { return k.prevented }

func (e InputEvent) String() string {
	return fmt.Sprintf("input(%s %q)", e.InputType, e.Data)
}
