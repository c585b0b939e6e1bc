package buffer

import "strings"

type Options struct {
	// HistoryLimit bounds undo snapshots. Zero selects 100; negative disables history.
	HistoryLimit int

	// SingleLine drops line breaks from inserted text, as <input> does.
	SingleLine bool

	// MaxLength limits the value length in runes. Zero means unlimited.
	MaxLength int
}

// Buffer holds a control value with its caret and selection.
//
// Version changes on every effective mutation, including caret moves.
// LastChange records only mutations of the value.
type Buffer struct {
	text    []rune
	version uint64

	anchor int
	focus  int

	opt  Options
	hist historyState

	lastChange    Change
	hasLastChange bool
}

func New(text string, opt Options) *Buffer {
	if opt.HistoryLimit == 0 {
		opt.HistoryLimit = 100
	}
	b := &Buffer{opt: opt}
	b.text = []rune(b.sanitize(text))
	if opt.MaxLength > 0 && len(b.text) > opt.MaxLength {
		b.text = b.text[:opt.MaxLength]
	}
	return b
}

func (b *Buffer) Text() string { return string(b.text) }

// Len returns the value length in runes.
func (b *Buffer) Len() int { return len(b.text) }

func (b *Buffer) Version() uint64 { return b.version }

func (b *Buffer) SingleLine() bool { return b.opt.SingleLine }

// Caret returns the selection focus, which is where typing continues.
func (b *Buffer) Caret() int { return b.focus }

// Selection returns the normalized selection when it is not collapsed.
func (b *Buffer) Selection() (Range, bool) {
	r := NormalizeRange(Range{Start: b.anchor, End: b.focus})
	if r.IsEmpty() {
		return Range{}, false
	}
	return r, true
}

func (b *Buffer) SetCaret(off int) {
	b.SetSelectionRange(off, off)
}

// SetSelectionRange sets anchor and focus; values are clamped to the text.
func (b *Buffer) SetSelectionRange(anchor, focus int) {
	anchor = clampInt(anchor, 0, len(b.text))
	focus = clampInt(focus, 0, len(b.text))
	if anchor == b.anchor && focus == b.focus {
		return
	}
	b.anchor, b.focus = anchor, focus
	b.version++
	b.closeStep()
}

// TextBefore returns the value text in [0, off).
func (b *Buffer) TextBefore(off int) string {
	off = clampInt(off, 0, len(b.text))
	return string(b.text[:off])
}

func (b *Buffer) sanitize(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	if b.opt.SingleLine {
		s = strings.ReplaceAll(s, "\n", "")
	}
	return s
}
