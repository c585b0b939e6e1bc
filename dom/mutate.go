package dom

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"

	"github.com/iw2rmb/ghostline/buffer"
)

// Focused returns the focused element, or nil.
func (d *Document) Focused() *Element { return d.Element(d.focused) }

// Focus moves focus to el, queueing FocusOut for the previous element and
// FocusIn for el. Focusing an editable region without a caret inside places
// the caret at its end.
func (d *Document) Focus(el *Element) {
	if el == nil {
		d.Blur()
		return
	}
	if d.focused == el.node {
		return
	}
	d.Blur()
	d.focused = el.node
	if el.IsTextControl() {
		d.sel.RemoveAllRanges()
	} else if !d.sel.Within(el) {
		d.sel.SetCaretOffset(el, utf8.RuneCountInString(textContent(el.node)))
	}
	d.emit(FocusInEvent{Target: el})
}

// Blur removes focus, queueing FocusOut.
func (d *Document) Blur() {
	if d.focused == nil {
		return
	}
	prev := d.Element(d.focused)
	d.focused = nil
	d.emit(FocusOutEvent{Target: prev})
}

// TypeText inserts text at the caret of the focused element like typing.
func (d *Document) TypeText(text string) bool {
	el := d.Focused()
	if el == nil || text == "" || el.ReadOnly() {
		return false
	}
	data := text
	if c := el.Control(); c != nil {
		if !c.InsertText(text) {
			return false
		}
		data = inserted(c)
	} else {
		if !d.sel.Within(el) {
			d.sel.SetCaretOffset(el, utf8.RuneCountInString(textContent(el.node)))
		}
		d.sel.typeText(text)
	}
	d.emit(InputEvent{Target: el, InputType: "insertText", Data: data})
	return true
}

// inserted is the text the last change of c actually inserted, after line
// break and maxlength filtering.
func inserted(c *buffer.Buffer) string {
	ch, ok := c.LastChange()
	if !ok {
		return ""
	}
	return ch.Inserted()
}

// Backspace deletes before the caret of the focused element.
func (d *Document) Backspace() bool {
	return d.deleteContent("deleteContentBackward", (*buffer.Buffer).DeleteBackward, (*Selection).deleteBackward)
}

// Delete deletes after the caret of the focused element.
func (d *Document) Delete() bool {
	return d.deleteContent("deleteContentForward", (*buffer.Buffer).DeleteForward, (*Selection).deleteForward)
}

func (d *Document) deleteContent(inputType string, control func(*buffer.Buffer) bool, rich func(*Selection, *Element) bool) bool {
	el := d.Focused()
	if el == nil || el.ReadOnly() {
		return false
	}
	var changed bool
	if c := el.Control(); c != nil {
		changed = control(c)
	} else {
		changed = rich(&d.sel, el)
	}
	if changed {
		d.emit(InputEvent{Target: el, InputType: inputType})
	}
	return changed
}

// Undo reverts the last edit step of the focused text control. Rich
// regions keep no history here.
func (d *Document) Undo() bool {
	return d.history("historyUndo", (*buffer.Buffer).Undo)
}

// Redo reapplies the last undone step of the focused text control.
func (d *Document) Redo() bool {
	return d.history("historyRedo", (*buffer.Buffer).Redo)
}

func (d *Document) history(inputType string, step func(*buffer.Buffer) bool) bool {
	el := d.Focused()
	if el == nil || el.ReadOnly() {
		return false
	}
	c := el.Control()
	if c == nil || !step(c) {
		return false
	}
	d.emit(InputEvent{Target: el, InputType: inputType})
	return true
}

// MoveCaret moves the caret of the focused element by delta runes. It does
// not queue an input event.
func (d *Document) MoveCaret(delta int) {
	el := d.Focused()
	if el == nil {
		return
	}
	if c := el.Control(); c != nil {
		c.SetCaret(c.Caret() + delta)
		return
	}
	off, ok := d.sel.CaretOffset(el)
	if !ok {
		return
	}
	d.sel.SetCaretOffset(el, max(0, off+delta))
}

// MoveLine moves the caret of the focused multi-line control by delta
// lines, keeping the column where the target line is long enough.
func (d *Document) MoveLine(delta int) bool {
	el := d.Focused()
	if el == nil {
		return false
	}
	c := el.Control()
	if c == nil || c.SingleLine() {
		return false
	}
	p := c.PosFromOffset(c.Caret())
	if p.Row+delta < 0 {
		return false
	}
	p.Row += delta
	before := c.Caret()
	c.SetCaret(c.OffsetFromPos(p))
	return c.Caret() != before
}

// DefaultKeyAction performs what the host does for an unprevented key.
// It reports whether the key changed anything.
func (d *Document) DefaultKeyAction(ev *KeyEvent) bool {
	if ev.DefaultPrevented() {
		return false
	}
	switch ev.Key {
	case "backspace":
		return d.Backspace()
	case "delete":
		return d.Delete()
	case "left":
		d.MoveCaret(-1)
		return true
	case "right":
		d.MoveCaret(1)
		return true
	case "up":
		return d.MoveLine(-1)
	case "down":
		return d.MoveLine(1)
	case "enter":
		el := d.Focused()
		if el == nil || el.Type() != "" {
			return false
		}
		return d.TypeText("\n")
	case "space", " ":
		return d.TypeText(" ")
	case "ctrl+z":
		return d.Undo()
	case "ctrl+shift+z":
		return d.Redo()
	}
	if utf8.RuneCountInString(ev.Key) == 1 {
		return d.TypeText(ev.Key)
	}
	return false
}

// AppendHTML parses markup in the context of parent, appends the result as
// one structural change and returns the top-level elements.
func (d *Document) AppendHTML(parent *Element, markup string) ([]*Element, error) {
	nodes, err := html.ParseFragment(strings.NewReader(markup), parent.node)
	if err != nil {
		return nil, fmt.Errorf("parse fragment: %w", err)
	}
	for _, n := range nodes {
		parent.node.AppendChild(n)
	}
	d.emit(MutationEvent{Target: parent, Added: nodes})
	return d.wrap(nodes), nil
}

// Remove detaches el. Focus and selection inside el are dropped without
// focus events, like a browser removing a focused node.
func (d *Document) Remove(el *Element) {
	parent := el.node.Parent
	if parent == nil {
		return
	}
	if d.focused != nil && isAncestor(el.node, d.focused) {
		d.focused = nil
	}
	if d.sel.active && d.sel.focus.Node != nil && isAncestor(el.node, d.sel.focus.Node) {
		d.sel.RemoveAllRanges()
	}
	parent.RemoveChild(el.node)
	d.emit(MutationEvent{Target: d.Element(parent), Removed: []*html.Node{el.node}})
}

// InsertTextBefore inserts a text node right before ref as one structural
// change.
func (d *Document) InsertTextBefore(ref *Element, text string) (*html.Node, bool) {
	parent := ref.node.Parent
	if parent == nil {
		return nil, false
	}
	n := &html.Node{Type: html.TextNode, Data: text}
	parent.InsertBefore(n, ref.node)
	d.emit(MutationEvent{Target: d.Element(parent), Added: []*html.Node{n}})
	return n, true
}

// Resize queues a viewport size change.
func (d *Document) Resize(w, h int) {
	d.emit(ResizeEvent{Width: w, Height: h})
}
