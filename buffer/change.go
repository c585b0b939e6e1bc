package buffer

import "strings"

// AppliedEdit describes one effective edit in a change.
type AppliedEdit struct {
	RangeBefore Range
	RangeAfter  Range
	InsertText  string
	DeletedText string
}

// Change is a normalized, versioned mutation record.
type Change struct {
	VersionBefore uint64
	VersionAfter  uint64
	CaretBefore   int
	CaretAfter    int
	AppliedEdits  []AppliedEdit
}

// Inserted joins the text inserted by the change's edits.
func (c Change) Inserted() string {
	var sb strings.Builder
	for _, e := range c.AppliedEdits {
		sb.WriteString(e.InsertText)
	}
	return sb.String()
}

type changeBuilder struct {
	versionBefore uint64
	caretBefore   int
	appliedEdits  []AppliedEdit
}

// LastChange returns the most recent effective change.
func (b *Buffer) LastChange() (Change, bool) {
	if !b.hasLastChange {
		return Change{}, false
	}
	out := b.lastChange
	out.AppliedEdits = append([]AppliedEdit(nil), b.lastChange.AppliedEdits...)
	return out, true
}

func (b *Buffer) beginChange() changeBuilder {
	return changeBuilder{versionBefore: b.version, caretBefore: b.focus}
}

func (cb *changeBuilder) addAppliedEdit(edit AppliedEdit) {
	cb.appliedEdits = append(cb.appliedEdits, edit)
}

func (b *Buffer) commitChange(cb changeBuilder) {
	if b.version == cb.versionBefore {
		return
	}
	b.lastChange = Change{
		VersionBefore: cb.versionBefore,
		VersionAfter:  b.version,
		CaretBefore:   cb.caretBefore,
		CaretAfter:    b.focus,
		AppliedEdits:  append([]AppliedEdit(nil), cb.appliedEdits...),
	}
	b.hasLastChange = true
}

func replacementAppliedEdit(before, after string) AppliedEdit {
	return AppliedEdit{
		RangeBefore: Range{Start: 0, End: len([]rune(before))},
		RangeAfter:  Range{Start: 0, End: len([]rune(after))},
		InsertText:  after,
		DeletedText: before,
	}
}
