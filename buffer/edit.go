package buffer

// InsertText inserts s at the caret, replacing the active selection.
// It reports whether the value changed.
// Single-character typing at the caret joins the open undo step; a line
// break closes it.
func (b *Buffer) InsertText(s string) bool {
	kind := editOther
	r, ok := b.Selection()
	if !ok {
		r = Range{Start: b.focus, End: b.focus}
		if len([]rune(s)) == 1 && s != "\n" {
			kind = editTyping
		}
	}
	return b.applyOne(kind, TextEdit{Range: r, Text: s})
}

// DeleteBackward applies backspace semantics.
func (b *Buffer) DeleteBackward() bool {
	if r, ok := b.Selection(); ok {
		return b.applyOne(editOther, TextEdit{Range: r})
	}
	if b.focus == 0 {
		return false
	}
	return b.applyOne(editDeleting, TextEdit{Range: Range{Start: b.focus - 1, End: b.focus}})
}

// DeleteForward applies delete-key semantics.
func (b *Buffer) DeleteForward() bool {
	if r, ok := b.Selection(); ok {
		return b.applyOne(editOther, TextEdit{Range: r})
	}
	if b.focus >= len(b.text) {
		return false
	}
	return b.applyOne(editOther, TextEdit{Range: Range{Start: b.focus, End: b.focus + 1}})
}

// Splice inserts s at off as one atomic mutation and puts the caret at the
// end of the inserted text. It is always its own undo step. It reports
// whether the value changed.
func (b *Buffer) Splice(off int, s string) bool {
	return b.applyOne(editOther, TextEdit{Range: Range{Start: off, End: off}, Text: s})
}

// applyOne replaces e.Range with e.Text as one version bump and puts the
// caret at the end of the inserted text. Ranges are clamped into the value.
func (b *Buffer) applyOne(kind editKind, e TextEdit) bool {
	prev := b.snapshot()
	change := b.beginChange()
	caret, applied, changed := b.replaceRange(e.Range, e.Text)
	if !changed {
		return false
	}
	change.addAppliedEdit(applied)
	b.anchor, b.focus = caret, caret
	b.version++
	b.recordUndo(prev, kind)
	b.commitChange(change)
	return true
}

func (b *Buffer) replaceRange(r Range, text string) (caret int, applied AppliedEdit, changed bool) {
	r = NormalizeRange(r)
	r.Start = clampInt(r.Start, 0, len(b.text))
	r.End = clampInt(r.End, 0, len(b.text))

	ins := []rune(b.sanitize(text))
	if b.opt.MaxLength > 0 {
		room := b.opt.MaxLength - (len(b.text) - r.Len())
		if room < 0 {
			room = 0
		}
		if len(ins) > room {
			ins = ins[:room]
		}
	}
	if r.IsEmpty() && len(ins) == 0 {
		return b.focus, AppliedEdit{}, false
	}
	deleted := string(b.text[r.Start:r.End])
	if deleted == string(ins) {
		return b.focus, AppliedEdit{}, false
	}

	out := make([]rune, 0, len(b.text)-r.Len()+len(ins))
	out = append(out, b.text[:r.Start]...)
	out = append(out, ins...)
	out = append(out, b.text[r.End:]...)
	b.text = out

	caret = r.Start + len(ins)
	applied = AppliedEdit{
		RangeBefore: r,
		RangeAfter:  Range{Start: r.Start, End: caret},
		InsertText:  string(ins),
		DeletedText: deleted,
	}
	return caret, applied, true
}
