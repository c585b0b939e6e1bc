package buffer

import "testing"

func TestSplice_InsertsAtOffsetAndMovesCaret(t *testing.T) {
	b := New("Hello wor", Options{SingleLine: true})
	b.SetCaret(9)

	if !b.Splice(9, "ld!") {
		t.Fatalf("splice should report a change")
	}
	if got, want := b.Text(), "Hello world!"; got != want {
		t.Fatalf("text: got %q, want %q", got, want)
	}
	if got, want := b.Caret(), 12; got != want {
		t.Fatalf("caret: got %d, want %d", got, want)
	}
	ch, ok := b.LastChange()
	if !ok || len(ch.AppliedEdits) != 1 || ch.VersionAfter != ch.VersionBefore+1 {
		t.Fatalf("splice must be one change: got %+v ok=%v", ch, ok)
	}
	if got := ch.Inserted(); got != "ld!" {
		t.Fatalf("inserted=%q, want %q", got, "ld!")
	}
}

func TestSplice_MidValueKeepsSuffix(t *testing.T) {
	b := New("ac", Options{})
	b.Splice(1, "b")
	if got := b.Text(); got != "abc" {
		t.Fatalf("text=%q, want %q", got, "abc")
	}
	if got := b.Caret(); got != 2 {
		t.Fatalf("caret=%d, want 2", got)
	}
}

func TestSplice_EmptyIsNoOp(t *testing.T) {
	b := New("abc", Options{})
	v := b.Version()
	if b.Splice(1, "") {
		t.Fatalf("empty splice should not report a change")
	}
	if b.Version() != v {
		t.Fatalf("version changed on no-op")
	}
}

func TestInsertText_ReplacesSelection(t *testing.T) {
	b := New("hello world", Options{})
	b.SetSelectionRange(6, 11)
	b.InsertText("there")
	if got := b.Text(); got != "hello there" {
		t.Fatalf("text=%q", got)
	}
	if got := b.Caret(); got != 11 {
		t.Fatalf("caret=%d, want 11", got)
	}
}

func TestDeleteBackwardAndForward(t *testing.T) {
	b := New("abc", Options{})
	b.SetCaret(0)
	b.DeleteBackward()
	if got := b.Text(); got != "abc" {
		t.Fatalf("backspace at start should be no-op: %q", got)
	}
	b.SetCaret(2)
	b.DeleteBackward()
	if got := b.Text(); got != "ac" {
		t.Fatalf("text after backspace=%q, want %q", got, "ac")
	}
	b.DeleteForward()
	if got := b.Text(); got != "a" {
		t.Fatalf("text after delete=%q, want %q", got, "a")
	}
	b.DeleteForward()
	if got := b.Text(); got != "a" {
		t.Fatalf("delete at end should be no-op: %q", got)
	}
}

func TestDeleteForward_SelectionAndChange(t *testing.T) {
	b := New("hello world", Options{})
	b.SetSelectionRange(5, 11)
	if !b.DeleteForward() {
		t.Fatalf("delete over a selection should report a change")
	}
	if got := b.Text(); got != "hello" {
		t.Fatalf("text=%q, want %q", got, "hello")
	}
	ch, ok := b.LastChange()
	if !ok || len(ch.AppliedEdits) != 1 {
		t.Fatalf("last change: got %+v ok=%v", ch, ok)
	}
	if got := ch.AppliedEdits[0].DeletedText; got != " world" {
		t.Fatalf("deleted=%q, want %q", got, " world")
	}
	if ch.Inserted() != "" || ch.CaretAfter != 5 {
		t.Fatalf("change after delete: %+v", ch)
	}

	if !b.Undo() {
		t.Fatalf("undo should succeed")
	}
	if got := b.Text(); got != "hello world" {
		t.Fatalf("text after undo=%q", got)
	}
	ch, _ = b.LastChange()
	if got := ch.Inserted(); got != "hello world" {
		t.Fatalf("undo records the restored value, got %q", got)
	}
}

func TestHistory_DisabledWithNegativeLimit(t *testing.T) {
	b := New("", Options{HistoryLimit: -1})
	b.InsertText("x")
	if b.CanUndo() {
		t.Fatalf("history should be disabled")
	}
}

func undoAll(t *testing.T, b *Buffer, want ...string) {
	t.Helper()
	for i, w := range want {
		if !b.Undo() {
			t.Fatalf("undo %d should succeed", i)
		}
		if got := b.Text(); got != w {
			t.Fatalf("text after undo %d=%q, want %q", i, got, w)
		}
	}
	if b.CanUndo() {
		t.Fatalf("history should be exhausted, text=%q", b.Text())
	}
}

func TestHistory_TypingRunIsOneStep(t *testing.T) {
	b := New("", Options{})
	b.InsertText("h")
	b.InsertText("i")
	b.Splice(2, " there")
	if got := b.Text(); got != "hi there" {
		t.Fatalf("text=%q", got)
	}
	undoAll(t, b, "hi", "")
}

func TestHistory_CaretMoveClosesRun(t *testing.T) {
	b := New("", Options{})
	b.InsertText("a")
	b.InsertText("b")
	b.SetCaret(0)
	b.InsertText("x")
	if got := b.Text(); got != "xab" {
		t.Fatalf("text=%q", got)
	}
	undoAll(t, b, "ab", "")
}

func TestHistory_LineBreakClosesRun(t *testing.T) {
	b := New("", Options{})
	b.InsertText("a")
	b.InsertText("\n")
	b.InsertText("b")
	undoAll(t, b, "a\n", "a", "")
}

func TestHistory_DeletingRunIsOneStep(t *testing.T) {
	b := New("abc", Options{})
	b.SetCaret(3)
	b.InsertText("d")
	b.DeleteBackward()
	b.DeleteBackward()
	if got := b.Text(); got != "ab" {
		t.Fatalf("text=%q", got)
	}
	undoAll(t, b, "abcd", "abc")
}

func TestHistory_RedoClearedByEdit(t *testing.T) {
	b := New("", Options{})
	b.InsertText("a")
	b.Undo()
	if !b.CanRedo() {
		t.Fatalf("redo should be available")
	}
	b.InsertText("b")
	if b.CanRedo() {
		t.Fatalf("edit should clear redo")
	}
}
