package buffer

// editKind groups consecutive edits into undo steps the way a browser text
// control does: a run of typing or of deleting is undone at once.
type editKind uint8

const (
	editOther editKind = iota
	editTyping
	editDeleting
)

type snapshot struct {
	text   string
	anchor int
	focus  int
}

type historyState struct {
	undo []snapshot
	redo []snapshot

	// open is the kind of the step still accepting edits, and caret is
	// where the next edit must start to join it.
	open  editKind
	caret int
}

func (b *Buffer) snapshot() snapshot {
	return snapshot{text: string(b.text), anchor: b.anchor, focus: b.focus}
}

func (b *Buffer) restore(s snapshot) {
	b.text = []rune(s.text)
	b.anchor = clampInt(s.anchor, 0, len(b.text))
	b.focus = clampInt(s.focus, 0, len(b.text))
}

// recordUndo stores prev as an undo step unless the edit continues the open
// typing or deleting run.
func (b *Buffer) recordUndo(prev snapshot, kind editKind) {
	if b.opt.HistoryLimit <= 0 {
		return
	}
	h := &b.hist
	h.redo = nil
	if kind != editOther && kind == h.open && prev.focus == h.caret && len(h.undo) > 0 {
		h.caret = b.focus
		return
	}
	h.undo = append(h.undo, prev)
	if len(h.undo) > b.opt.HistoryLimit {
		h.undo = h.undo[len(h.undo)-b.opt.HistoryLimit:]
	}
	h.open, h.caret = kind, b.focus
}

// closeStep ends the open run so the next edit starts a new undo step.
func (b *Buffer) closeStep() { b.hist.open = editOther }

func (b *Buffer) CanUndo() bool { return len(b.hist.undo) > 0 }

func (b *Buffer) CanRedo() bool { return len(b.hist.redo) > 0 }

// Undo restores the value before the last undo step.
func (b *Buffer) Undo() bool {
	return b.travel(&b.hist.undo, &b.hist.redo)
}

// Redo reapplies the last undone step.
func (b *Buffer) Redo() bool {
	return b.travel(&b.hist.redo, &b.hist.undo)
}

// travel pops a snapshot from one stack, pushes the current value onto the
// other and restores the popped one as a single change.
func (b *Buffer) travel(from, to *[]snapshot) bool {
	if len(*from) == 0 {
		return false
	}
	cur := b.snapshot()
	change := b.beginChange()

	i := len(*from) - 1
	next := (*from)[i]
	*from = (*from)[:i]
	*to = append(*to, cur)

	b.restore(next)
	b.version++
	b.closeStep()
	change.addAppliedEdit(replacementAppliedEdit(cur.text, next.text))
	b.commitChange(change)
	return true
}
