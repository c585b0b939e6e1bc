package coordinator

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/net/html"

	"github.com/iw2rmb/ghostline/dom"
	"github.com/iw2rmb/ghostline/internal/logging"
	"github.com/iw2rmb/ghostline/internal/metrics"
	"github.com/iw2rmb/ghostline/overlay"
	"github.com/iw2rmb/ghostline/surface"
)

const (
	DefaultDebounce     = 300 * time.Millisecond
	DefaultPollInterval = 500 * time.Millisecond
	DefaultProbeTimeout = 5 * time.Second
)

//go:generate mockgen -package=coordinator -destination=mock_suggester_test.go github.com/iw2rmb/ghostline/coordinator Suggester

// Suggester returns the best suggestion for a context, or nil.
// *provider.Gateway implements it.
type Suggester interface {
	Suggest(ctx context.Context, in surface.InputContext) *surface.Suggestion
}

// Prober is implemented by suggesters that need an availability probe
// before first use.
type Prober interface {
	Probe(ctx context.Context) error
}

type Options struct {
	Debounce     time.Duration
	PollInterval time.Duration
	KeyMap       KeyMap

	Adapter  *surface.Adapter
	Renderer *overlay.Renderer
	Logger   *logging.Logger
}

func (o Options) withDefaults(doc *dom.Document) Options {
	if o.Debounce <= 0 {
		o.Debounce = DefaultDebounce
	}
	if o.PollInterval <= 0 {
		o.PollInterval = DefaultPollInterval
	}
	if len(o.KeyMap.Accept.Keys()) == 0 {
		o.KeyMap = DefaultKeyMap()
	}
	if o.Adapter == nil {
		o.Adapter = surface.NewAdapter(surface.DefaultOptions())
	}
	if o.Renderer == nil {
		o.Renderer = overlay.NewRenderer(doc, overlay.Options{})
	}
	if o.Logger == nil {
		o.Logger = logging.Discard()
	}
	return o
}

// Coordinator is the per-document suggestion state machine.
type Coordinator struct {
	doc      *dom.Document
	gw       Suggester
	opt      Options
	adapter  *surface.Adapter
	renderer *overlay.Renderer
	log      *logging.Logger

	state   State
	current *surface.Surface
	// wired holds editors found through structural changes; they take
	// input without a prior focus event.
	wired map[*dom.Element]*surface.Surface

	gen    uint64
	cancel context.CancelFunc

	pollSeq  uint64
	lastLine string

	cache    suggestionCache
	accepted *surface.Suggestion
}

func New(doc *dom.Document, gw Suggester, opt Options) *Coordinator {
	opt = opt.withDefaults(doc)
	return &Coordinator{
		doc:      doc,
		gw:       gw,
		opt:      opt,
		adapter:  opt.Adapter,
		renderer: opt.Renderer,
		log:      opt.Logger.Component("coordinator"),
		wired:    make(map[*dom.Element]*surface.Surface),
	}
}

func (c *Coordinator) State() State { return c.state }

// Current returns the surface input is scoped to, or nil.
func (c *Coordinator) Current() *surface.Surface { return c.current }

// Generation returns the request generation; it grows on every change of
// the current surface.
func (c *Coordinator) Generation() uint64 { return c.gen }

// LastAccepted returns the most recently committed suggestion.
func (c *Coordinator) LastAccepted() *surface.Suggestion { return c.accepted }

func (c *Coordinator) Renderer() *overlay.Renderer { return c.renderer }

func (c *Coordinator) Adapter() *surface.Adapter { return c.adapter }

func (c *Coordinator) KeyMap() KeyMap { return c.opt.KeyMap }

// Init discovers editors already in the document and probes provider
// availability.
func (c *Coordinator) Init() tea.Cmd {
	if body := c.doc.Body(); body != nil {
		c.discover(body.Node())
	}
	p, ok := c.gw.(Prober)
	if !ok {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), DefaultProbeTimeout)
		defer cancel()
		return ProbedMsg{Err: p.Probe(ctx)}
	}
}

// Dispatch feeds drained document events through Update.
func (c *Coordinator) Dispatch(events ...dom.Event) tea.Cmd {
	var cmds []tea.Cmd
	for _, ev := range events {
		_, cmd := c.Update(ev)
		cmds = append(cmds, cmd)
	}
	return tea.Batch(cmds...)
}

func (c *Coordinator) Update(msg tea.Msg) (*Coordinator, tea.Cmd) {
	switch msg := msg.(type) {
	case *dom.KeyEvent:
		c.onKey(msg)
		return c, nil
	case dom.InputEvent:
		return c, c.onInput(msg)
	case dom.FocusInEvent:
		return c, c.onFocusIn(msg)
	case dom.FocusOutEvent:
		c.onFocusOut(msg)
		return c, nil
	case dom.MutationEvent:
		c.onMutation(msg)
		return c, nil
	case dom.ResizeEvent:
		c.onResize()
		return c, nil

	case debounceMsg:
		return c, c.onDebounce(msg)
	case suggestionMsg:
		c.onSuggestion(msg)
		return c, nil
	case pollMsg:
		return c, c.onPoll(msg)
	case ProbedMsg:
		if msg.Err != nil {
			c.log.Warn("provider probe failed", "error", msg.Err)
		} else {
			c.log.Debug("provider probe done")
		}
		return c, nil
	}
	return c, nil
}

// Close cancels pending work and removes the overlay from the document.
func (c *Coordinator) Close() {
	c.abort()
	c.renderer.Destroy()
	c.current = nil
	c.pollSeq++
	c.cache.reset()
	clear(c.wired)
	c.state = Idle
}

func (c *Coordinator) onKey(ev *dom.KeyEvent) {
	switch {
	case c.state == Showing && key.Matches(ev, c.opt.KeyMap.Accept):
		ev.PreventDefault()
		c.accept()
	case key.Matches(ev, c.opt.KeyMap.Dismiss):
		if c.state == Showing {
			c.event("dismissed")
		}
		c.abort()
		c.state = Idle
	case c.state == Showing:
		// The keystroke's own input event schedules the next request.
		c.hide()
		c.event("dismissed")
		c.state = Idle
	}
}

func (c *Coordinator) accept() {
	sg := c.renderer.Live()
	s := c.current
	c.abort()
	c.state = Idle
	if sg == nil {
		return
	}

	log := c.surfaceLog(s)
	switch err := c.adapter.Accept(sg); {
	case err == nil:
		c.accepted = sg
		c.cache.reset()
		if s != nil && s.Polled() {
			c.lastLine, _ = c.adapter.LineText(s)
		}
		c.event("accepted")
		log.Debug("suggestion accepted", "provider", sg.ProviderID, "chars", len(sg.Text))
	case errors.Is(err, surface.ErrStaleSurface):
		c.event("stale")
		log.Debug("stale commit dropped")
	case errors.Is(err, surface.ErrSurfaceDetached):
		c.detached()
	default:
		log.Warn("commit failed", "error", err)
	}
}

func (c *Coordinator) onInput(ev dom.InputEvent) tea.Cmd {
	s := c.surfaceFor(ev.Target)
	if s == nil {
		return nil
	}
	var poll tea.Cmd
	if !s.Same(c.current) {
		poll = c.adopt(s)
	}
	return tea.Batch(c.changed(), poll)
}

// changed handles a content change of the current surface: the overlay goes
// away at once and a new request is scheduled after the debounce window.
func (c *Coordinator) changed() tea.Cmd {
	c.hide()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.gen++
	if c.state == AwaitingSuggestion {
		c.state = Stale
	} else if c.state != Stale {
		c.state = Idle
	}

	if !c.adapter.IsEligible(c.current) {
		c.state = Idle
		return nil
	}
	gen := c.gen
	return tea.Tick(c.opt.Debounce, func(time.Time) tea.Msg {
		return debounceMsg{gen: gen}
	})
}

func (c *Coordinator) onDebounce(msg debounceMsg) tea.Cmd {
	if msg.gen != c.gen || c.current == nil {
		return nil
	}
	s := c.current
	in, err := c.adapter.ReadContext(s)
	if err != nil {
		c.detached()
		return nil
	}
	if !c.adapter.IsEligible(s) {
		c.state = Idle
		return nil
	}

	if sg, ok := c.cache.get(keyFor(s, in)); ok {
		c.event("cache_hit")
		c.show(s, sg)
		return nil
	}

	if c.cancel != nil {
		c.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.state = AwaitingSuggestion
	metrics.DebounceFired.Inc()
	c.event("requested")
	c.surfaceLog(s).WithGeneration(msg.gen).Debug("requesting suggestion", "caret", in.CaretOffset)

	gw, gen := c.gw, msg.gen
	return func() tea.Msg {
		return suggestionMsg{gen: gen, sg: gw.Suggest(ctx, in)}
	}
}

func (c *Coordinator) onSuggestion(msg suggestionMsg) {
	if msg.gen != c.gen {
		if msg.sg != nil {
			c.event("discarded")
		}
		return
	}
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	if msg.sg == nil {
		c.state = Idle
		return
	}

	s, err := msg.sg.Surface()
	if err != nil || !s.Same(c.current) {
		c.event("detached")
		c.log.WithGeneration(msg.gen).Debug("suggestion for detached surface dropped")
		c.state = Idle
		return
	}
	if caret, ok := c.adapter.Caret(s); !ok || caret != msg.sg.ForCaretOffset {
		c.event("stale")
		c.surfaceLog(s).Debug("suggestion for moved caret dropped")
		c.state = Idle
		return
	}
	c.show(s, msg.sg)
	if c.state == Showing {
		in, err := c.adapter.ReadContext(s)
		if err == nil {
			c.cache.put(keyFor(s, in), msg.sg)
		}
	}
}

func (c *Coordinator) show(s *surface.Surface, sg *surface.Suggestion) {
	if err := c.renderer.Show(s, sg); err != nil {
		c.surfaceLog(s).Debug("show failed", "error", err)
		c.state = Idle
		return
	}
	c.state = Showing
	c.event("shown")
}

func (c *Coordinator) onFocusIn(ev dom.FocusInEvent) tea.Cmd {
	s := c.surfaceFor(ev.Target)
	if s == nil {
		return nil
	}
	if s.Same(c.current) {
		return nil
	}
	return c.adopt(s)
}

func (c *Coordinator) onFocusOut(ev dom.FocusOutEvent) {
	if c.current == nil || ev.Target != c.current.Element() {
		return
	}
	if c.state == Showing {
		c.event("dismissed")
	}
	c.abort()
	c.current = nil
	c.pollSeq++
	c.state = Idle
}

func (c *Coordinator) onMutation(ev dom.MutationEvent) {
	if ev.Target != nil && c.renderer.Owns(ev.Target.Node()) {
		return
	}
	if len(ev.Removed) > 0 {
		for el := range c.wired {
			if !el.Attached() {
				delete(c.wired, el)
			}
		}
		if c.current != nil && !c.current.Attached() {
			c.detached()
		}
	}
	for _, n := range ev.Added {
		if n.Type == html.ElementNode && !c.renderer.Owns(n) {
			c.discover(n)
		}
	}
}

func (c *Coordinator) discover(n *html.Node) {
	for _, s := range c.adapter.Discover(c.doc.Element(n)) {
		if _, ok := c.wired[s.Element()]; ok {
			continue
		}
		c.wired[s.Element()] = s
		c.surfaceLog(s).Debug("editor discovered")
	}
}

func (c *Coordinator) onResize() {
	if c.state != Showing {
		return
	}
	if err := c.renderer.Reposition(); err != nil {
		c.surfaceLog(c.current).Debug("reposition failed", "error", err)
		c.hide()
		c.state = Idle
	}
}

func (c *Coordinator) startPolling() tea.Cmd {
	c.pollSeq++
	c.lastLine, _ = c.adapter.LineText(c.current)
	return c.pollTick()
}

func (c *Coordinator) pollTick() tea.Cmd {
	seq := c.pollSeq
	return tea.Tick(c.opt.PollInterval, func(time.Time) tea.Msg {
		return pollMsg{seq: seq}
	})
}

func (c *Coordinator) onPoll(msg pollMsg) tea.Cmd {
	if msg.seq != c.pollSeq || c.current == nil || !c.current.Polled() {
		return nil
	}
	if !c.current.Attached() {
		c.detached()
		return nil
	}
	line, ok := c.adapter.LineText(c.current)
	if !ok || line == c.lastLine {
		return c.pollTick()
	}
	c.lastLine = line
	return tea.Batch(c.changed(), c.pollTick())
}

// adopt makes s the current surface, resetting any pending work. Polled
// surfaces start their sampling tick.
func (c *Coordinator) adopt(s *surface.Surface) tea.Cmd {
	c.pollSeq++
	c.abort()
	c.current = s
	c.state = Idle
	c.surfaceLog(s).Debug("surface adopted")
	if s.Polled() {
		return c.startPolling()
	}
	return nil
}

// abort cancels the pending request and hides the overlay. The generation
// is bumped first so that an in-flight result can no longer apply.
func (c *Coordinator) abort() {
	c.gen++
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.hide()
}

func (c *Coordinator) hide() {
	c.renderer.Clear()
}

func (c *Coordinator) detached() {
	if c.current != nil {
		c.surfaceLog(c.current).Debug("surface detached")
		delete(c.wired, c.current.Element())
		c.event("detached")
	}
	c.abort()
	c.current = nil
	c.pollSeq++
	c.cache.reset()
	c.state = Idle
}

// surfaceFor maps an event target to the current surface, a wired editor
// or a freshly resolved surface.
func (c *Coordinator) surfaceFor(el *dom.Element) *surface.Surface {
	if el == nil {
		return nil
	}
	if c.current != nil && (c.current.Element() == el || c.current.Element().Contains(el.Node())) {
		return c.current
	}
	for wel, s := range c.wired {
		if wel == el || wel.Contains(el.Node()) {
			return s
		}
	}
	s, ok := c.adapter.Resolve(el)
	if !ok {
		return nil
	}
	return s
}

func (c *Coordinator) event(name string) {
	kind := "none"
	if c.current != nil {
		kind = c.current.Kind().String()
	}
	metrics.Suggestions.WithLabelValues(name, kind).Inc()
}

func (c *Coordinator) surfaceLog(s *surface.Surface) *logging.Logger {
	if s == nil {
		return c.log
	}
	return c.log.WithSurface(s.ID(), s.Kind().String())
}
