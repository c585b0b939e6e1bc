package coordinator

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/iw2rmb/ghostline/dom"
	"github.com/iw2rmb/ghostline/surface"
)

const page = `<html><body>
<input id="q" value="Hell">
<input id="pw" type="password" value="secret">
<div id="ce" contenteditable="true">Dear team, </div>
<div id="docs" class="kix-appview-editor">
  <div class="kix-lineview">The quick<span class="kix-cursor"></span></div>
</div>
</body></html>`

type fixture struct {
	doc *dom.Document
	geo *dom.StaticGeometry
	gw  *MockSuggester
	c   *Coordinator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	doc := dom.MustParse(page)
	geo := dom.NewStaticGeometry()
	doc.SetGeometry(geo)
	geo.Set(doc.ByID("q"), dom.Rect{W: 40, H: 1})
	geo.SetCaret(dom.Rect{X: 9, Y: 3, H: 1})

	gw := NewMockSuggester(gomock.NewController(t))
	return &fixture{doc: doc, geo: geo, gw: gw, c: New(doc, gw, Options{})}
}

func reply(text string) func(context.Context, surface.InputContext) *surface.Suggestion {
	return func(_ context.Context, in surface.InputContext) *surface.Suggestion {
		return surface.NewSuggestion(in, text, "mock", time.Now())
	}
}

func (f *fixture) drain() tea.Cmd {
	return f.c.Dispatch(f.doc.Events()...)
}

func (f *fixture) focus(id string) tea.Cmd {
	f.doc.Focus(f.doc.ByID(id))
	return f.drain()
}

// press dispatches k the way a host does: listeners first, then the default
// action unless prevented, then the queued events.
func (f *fixture) press(k string) (*dom.KeyEvent, tea.Cmd) {
	ev := f.doc.NewKeyEvent(k)
	f.c.Update(ev)
	if !ev.DefaultPrevented() {
		f.doc.DefaultKeyAction(ev)
	}
	return ev, f.drain()
}

func (f *fixture) typeText(s string) tea.Cmd {
	var cmd tea.Cmd
	for _, r := range s {
		_, cmd = f.press(string(r))
	}
	return cmd
}

// fire delivers the debounce tick of the latest input.
func (f *fixture) fire() tea.Cmd {
	_, cmd := f.c.Update(debounceMsg{gen: f.c.Generation()})
	return cmd
}

func (f *fixture) deliver(t *testing.T, cmd tea.Cmd) {
	t.Helper()
	require.NotNil(t, cmd)
	f.c.Update(cmd())
}

func (f *fixture) value(id string) string {
	return f.doc.ByID(id).Control().Text()
}

// showHelloWorld drives the input to "Hello wor" with "ld!" on screen.
func (f *fixture) showHelloWorld(t *testing.T) {
	t.Helper()
	f.gw.EXPECT().Suggest(gomock.Any(), gomock.Any()).DoAndReturn(reply("ld!"))
	f.focus("q")
	require.NotNil(t, f.typeText("o wor"))
	f.deliver(t, f.fire())
	require.Equal(t, Showing, f.c.State())
	require.True(t, f.c.Renderer().IsVisible())
}

func TestDebounceFiresOneRequestForBurst(t *testing.T) {
	f := newFixture(t)
	f.gw.EXPECT().Suggest(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, in surface.InputContext) *surface.Suggestion {
			assert.Equal(t, "Hello wor", in.Text)
			assert.Equal(t, 9, in.CaretOffset)
			return surface.NewSuggestion(in, "ld!", "mock", time.Now())
		}).Times(1)

	f.focus("q")
	var gens []uint64
	for _, r := range "o wor" {
		_, cmd := f.press(string(r))
		require.NotNil(t, cmd, "each keystroke schedules a tick")
		gens = append(gens, f.c.Generation())
	}

	var requests []tea.Cmd
	for _, gen := range gens {
		if _, cmd := f.c.Update(debounceMsg{gen: gen}); cmd != nil {
			requests = append(requests, cmd)
		}
	}
	require.Len(t, requests, 1)
	assert.Equal(t, AwaitingSuggestion, f.c.State())

	f.deliver(t, requests[0])
	assert.Equal(t, Showing, f.c.State())
	p, ok := f.c.Renderer().Placement()
	require.True(t, ok)
	assert.Equal(t, "ld!", p.Text)
	assert.Equal(t, 9.0, p.Left)
}

func TestDebounceTickCarriesGeneration(t *testing.T) {
	f := newFixture(t)
	f.c = New(f.doc, f.gw, Options{Debounce: 5 * time.Millisecond})
	f.focus("q")

	_, cmd := f.press("o")
	require.NotNil(t, cmd)
	msg, ok := cmd().(debounceMsg)
	require.True(t, ok)
	assert.Equal(t, f.c.Generation(), msg.gen)
}

func TestDebounceWaitsFullWindowAfterLastKeystroke(t *testing.T) {
	f := newFixture(t)
	f.gw.EXPECT().Suggest(gomock.Any(), gomock.Any()).DoAndReturn(reply("ld!")).Times(1)
	f.focus("q")

	var ticks []tea.Cmd
	for _, r := range "o wor" {
		_, cmd := f.press(string(r))
		require.NotNil(t, cmd)
		ticks = append(ticks, cmd)
	}

	type fired struct {
		msg     tea.Msg
		elapsed time.Duration
	}
	results := make([]chan fired, len(ticks))
	start := time.Now()
	for i, cmd := range ticks {
		results[i] = make(chan fired, 1)
		go func(cmd tea.Cmd, out chan<- fired) {
			msg := cmd()
			out <- fired{msg: msg, elapsed: time.Since(start)}
		}(cmd, results[i])
	}

	var requests []tea.Cmd
	for i, ch := range results {
		got := <-ch
		msg, ok := got.msg.(debounceMsg)
		require.True(t, ok)
		if i == len(results)-1 {
			assert.GreaterOrEqual(t, got.elapsed, DefaultDebounce)
			assert.Equal(t, f.c.Generation(), msg.gen)
		}
		if _, cmd := f.c.Update(msg); cmd != nil {
			requests = append(requests, cmd)
		}
	}
	require.Len(t, requests, 1, "only the last keystroke's tick requests")
	f.deliver(t, requests[0])
	assert.Equal(t, Showing, f.c.State())
}

func TestAcceptRoundTrip(t *testing.T) {
	f := newFixture(t)
	f.showHelloWorld(t)

	ev, cmd := f.press("tab")
	assert.True(t, ev.DefaultPrevented())
	assert.Nil(t, cmd)
	assert.Equal(t, "Hello world!", f.value("q"))
	assert.Equal(t, 12, f.doc.ByID("q").Control().Caret())
	assert.False(t, f.c.Renderer().IsVisible())
	assert.Equal(t, Idle, f.c.State())
	require.NotNil(t, f.c.LastAccepted())
	assert.Equal(t, "ld!", f.c.LastAccepted().Text)
}

func TestTabWithoutSuggestionIsNotPrevented(t *testing.T) {
	f := newFixture(t)
	f.focus("q")

	ev, _ := f.press("tab")
	assert.False(t, ev.DefaultPrevented())
	assert.Equal(t, "Hell", f.value("q"))
}

func TestStaleResultIsDiscarded(t *testing.T) {
	f := newFixture(t)
	f.gw.EXPECT().Suggest(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, in surface.InputContext) *surface.Suggestion {
			assert.Error(t, ctx.Err(), "superseded request is cancelled")
			return surface.NewSuggestion(in, " world", "mock", time.Now())
		})

	f.focus("q")
	f.typeText("o")
	first := f.fire()
	require.NotNil(t, first)
	assert.Equal(t, AwaitingSuggestion, f.c.State())

	f.typeText(" ")
	assert.Equal(t, Stale, f.c.State())

	f.deliver(t, first)
	assert.False(t, f.c.Renderer().IsVisible())
	assert.Equal(t, Stale, f.c.State())
}

func TestNilSuggestionReturnsToIdle(t *testing.T) {
	f := newFixture(t)
	f.gw.EXPECT().Suggest(gomock.Any(), gomock.Any()).Return(nil)

	f.focus("q")
	f.typeText("o")
	f.deliver(t, f.fire())
	assert.Equal(t, Idle, f.c.State())
	assert.False(t, f.c.Renderer().IsVisible())
}

func TestKeystrokeHidesOverlayImmediately(t *testing.T) {
	f := newFixture(t)
	f.showHelloWorld(t)

	ev := f.doc.NewKeyEvent("x")
	f.c.Update(ev)
	assert.False(t, ev.DefaultPrevented())
	assert.False(t, f.c.Renderer().IsVisible(), "hidden before the debounce window")
	assert.Equal(t, Idle, f.c.State())

	f.doc.DefaultKeyAction(ev)
	assert.NotNil(t, f.drain(), "typing schedules the next request")
	assert.Equal(t, "Hello worx", f.value("q"))
}

func TestEscapeDismisses(t *testing.T) {
	f := newFixture(t)
	f.showHelloWorld(t)

	_, cmd := f.press("esc")
	assert.Nil(t, cmd)
	assert.False(t, f.c.Renderer().IsVisible())
	assert.Equal(t, Idle, f.c.State())
	assert.Equal(t, "Hello wor", f.value("q"))
}

func TestEscapeCancelsPendingRequest(t *testing.T) {
	f := newFixture(t)
	f.gw.EXPECT().Suggest(gomock.Any(), gomock.Any()).DoAndReturn(reply("ld!"))

	f.focus("q")
	f.typeText("o")
	req := f.fire()
	f.press("esc")

	f.deliver(t, req)
	assert.Equal(t, Idle, f.c.State())
	assert.False(t, f.c.Renderer().IsVisible())
}

func TestStaleCommitIsSilentNoop(t *testing.T) {
	f := newFixture(t)
	f.showHelloWorld(t)

	f.doc.MoveCaret(-2)
	ev, _ := f.press("tab")
	assert.True(t, ev.DefaultPrevented())
	assert.Equal(t, "Hello wor", f.value("q"))
	assert.False(t, f.c.Renderer().IsVisible())
	assert.Equal(t, Idle, f.c.State())
	assert.Nil(t, f.c.LastAccepted())
}

func TestMovedCaretDropsArrivingSuggestion(t *testing.T) {
	f := newFixture(t)
	f.gw.EXPECT().Suggest(gomock.Any(), gomock.Any()).DoAndReturn(reply("ld!"))

	f.focus("q")
	f.typeText("o")
	req := f.fire()
	f.doc.MoveCaret(-1)

	f.deliver(t, req)
	assert.Equal(t, Idle, f.c.State())
	assert.False(t, f.c.Renderer().IsVisible())
}

func TestFocusOutClears(t *testing.T) {
	f := newFixture(t)
	f.showHelloWorld(t)

	f.doc.Blur()
	assert.Nil(t, f.drain())
	assert.False(t, f.c.Renderer().IsVisible())
	assert.Nil(t, f.c.Current())
	assert.Equal(t, Idle, f.c.State())
}

func TestPasswordFieldIsIgnored(t *testing.T) {
	f := newFixture(t)
	f.focus("pw")
	assert.Nil(t, f.c.Current())
	assert.Nil(t, f.typeText("xy"))
}

func TestRemovedSurfaceDiscardsPendingSuggestion(t *testing.T) {
	f := newFixture(t)
	f.gw.EXPECT().Suggest(gomock.Any(), gomock.Any()).DoAndReturn(reply("ld!"))

	f.focus("q")
	f.typeText("o")
	req := f.fire()

	f.doc.Remove(f.doc.ByID("q"))
	f.drain()
	assert.Nil(t, f.c.Current())

	f.deliver(t, req)
	assert.Equal(t, Idle, f.c.State())
	assert.False(t, f.c.Renderer().IsVisible())
}

func TestOverlayMutationsAreIgnored(t *testing.T) {
	f := newFixture(t)
	f.showHelloWorld(t)

	assert.Nil(t, f.drain())
	assert.Equal(t, Showing, f.c.State())
	assert.True(t, f.c.Renderer().IsVisible())
}

func TestDiscoveredEditorTakesInputWithoutFocus(t *testing.T) {
	f := newFixture(t)
	added, err := f.doc.AppendHTML(f.doc.Body(), `<div id="pm" class="ProseMirror">Draft text</div>`)
	require.NoError(t, err)
	require.Len(t, added, 1)
	f.drain()

	pm := f.doc.ByID("pm")
	require.Contains(t, f.c.wired, pm)

	_, cmd := f.c.Update(dom.InputEvent{Target: pm, InputType: "insertText"})
	require.NotNil(t, cmd)
	require.NotNil(t, f.c.Current())
	assert.Equal(t, surface.RichEditorProxy, f.c.Current().Kind())
	assert.Same(t, pm, f.c.Current().Element())

	f.doc.Remove(pm)
	f.drain()
	assert.NotContains(t, f.c.wired, pm)
	assert.Nil(t, f.c.Current())
}

func TestWiredEditorWithoutSelectionAcceptsAtEnd(t *testing.T) {
	f := newFixture(t)
	_, err := f.doc.AppendHTML(f.doc.Body(), `<div id="pm" class="ProseMirror">Thanks for </div>`)
	require.NoError(t, err)
	f.drain()
	pm := f.doc.ByID("pm")
	require.False(t, f.doc.Selection().Within(pm))

	f.gw.EXPECT().Suggest(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, in surface.InputContext) *surface.Suggestion {
			assert.Equal(t, 11, in.CaretOffset)
			return surface.NewSuggestion(in, "the help", "mock", time.Now())
		})
	_, cmd := f.c.Update(dom.InputEvent{Target: pm, InputType: "insertText"})
	require.NotNil(t, cmd)
	f.deliver(t, f.fire())
	require.Equal(t, Showing, f.c.State())
	require.True(t, f.c.Renderer().IsVisible())

	ev, _ := f.press("tab")
	assert.True(t, ev.DefaultPrevented())
	assert.Equal(t, "Thanks for the help", pm.TextContent())
	assert.Equal(t, Idle, f.c.State())
}

func TestInitDiscoversExistingEditors(t *testing.T) {
	f := newFixture(t)
	assert.Nil(t, f.c.Init())
	assert.Contains(t, f.c.wired, f.doc.ByID("docs"))
}

type probingSuggester struct {
	*MockSuggester
	probed bool
}

func (p *probingSuggester) Probe(context.Context) error {
	p.probed = true
	return nil
}

func TestInitProbesProviders(t *testing.T) {
	f := newFixture(t)
	ps := &probingSuggester{MockSuggester: f.gw}
	c := New(f.doc, ps, Options{})

	cmd := c.Init()
	require.NotNil(t, cmd)
	msg := cmd()
	assert.IsType(t, ProbedMsg{}, msg)
	assert.True(t, ps.probed)
	c.Update(msg)
}

func TestCanvasEditorPolling(t *testing.T) {
	f := newFixture(t)
	f.gw.EXPECT().Suggest(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, in surface.InputContext) *surface.Suggestion {
			assert.Equal(t, "The quickly", in.Text)
			assert.Equal(t, 11, in.CaretOffset)
			return surface.NewSuggestion(in, " brown", "mock", time.Now())
		}).Times(1)

	require.NotNil(t, f.focus("docs"), "canvas editors start polling on focus")
	require.True(t, f.c.Current().Polled())
	poll := func() tea.Cmd {
		_, cmd := f.c.Update(pollMsg{seq: f.c.pollSeq})
		return cmd
	}

	gen := f.c.Generation()
	assert.NotNil(t, poll(), "polling continues")
	assert.Equal(t, gen, f.c.Generation(), "unchanged line issues nothing")

	cursor := f.doc.Query(".kix-cursor")
	f.doc.InsertTextBefore(cursor, "ly")
	f.drain()
	assert.NotNil(t, poll())
	assert.Greater(t, f.c.Generation(), gen)

	f.deliver(t, f.fire())
	require.Equal(t, Showing, f.c.State())

	ev, _ := f.press("tab")
	assert.True(t, ev.DefaultPrevented())
	assert.Equal(t, "The quickly brown", f.doc.Query(".kix-lineview").TextContent())

	gen = f.c.Generation()
	poll()
	assert.Equal(t, gen, f.c.Generation(), "committed text is not a new change")
}

func TestStalePollTickStops(t *testing.T) {
	f := newFixture(t)
	f.focus("docs")
	seq := f.c.pollSeq
	f.focus("q")

	_, cmd := f.c.Update(pollMsg{seq: seq})
	assert.Nil(t, cmd)
}

func TestResizeRepositions(t *testing.T) {
	f := newFixture(t)
	f.showHelloWorld(t)
	before, _ := f.c.Renderer().Placement()

	f.geo.Set(f.doc.ByID("q"), dom.Rect{X: 5, W: 40, H: 1})
	f.doc.Resize(120, 40)
	f.drain()

	after, ok := f.c.Renderer().Placement()
	require.True(t, ok)
	assert.Equal(t, before.Left+5, after.Left)
	assert.Equal(t, Showing, f.c.State())
}

func TestCachedSuggestionShowsWithoutRequest(t *testing.T) {
	f := newFixture(t)
	f.showHelloWorld(t)

	f.press("x")
	f.press("backspace")
	assert.Nil(t, f.fire(), "same text and caret reuse the last suggestion")
	assert.Equal(t, Showing, f.c.State())
	assert.Equal(t, "ld!", f.c.Renderer().Live().Text)
}

func TestContentEditableAccept(t *testing.T) {
	f := newFixture(t)
	f.gw.EXPECT().Suggest(gomock.Any(), gomock.Any()).DoAndReturn(reply("Best regards"))

	f.focus("ce")
	f.typeText("hi ")
	f.deliver(t, f.fire())
	require.Equal(t, Showing, f.c.State())

	f.press("tab")
	assert.Equal(t, "Dear team, hi Best regards", f.doc.ByID("ce").TextContent())
	assert.Nil(t, f.drain())
}

func TestCloseDestroysOverlay(t *testing.T) {
	f := newFixture(t)
	f.showHelloWorld(t)

	f.c.Close()
	assert.Nil(t, f.c.Renderer().Element())
	assert.Nil(t, f.c.Current())
	assert.Equal(t, Idle, f.c.State())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "awaiting", AwaitingSuggestion.String())
	assert.Equal(t, "unknown", State(42).String())
}
