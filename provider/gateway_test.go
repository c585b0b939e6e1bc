package provider

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/iw2rmb/ghostline/surface"
)

var helloWor = surface.InputContext{Text: "Hello wor", CaretOffset: 9, SurfaceKind: surface.PlainInput}

type clock struct{ t time.Time }

func (c *clock) now() time.Time           { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newClock() *clock { return &clock{t: time.Unix(1_700_000_000, 0)} }

func newMock(ctrl *gomock.Controller, id string) *MockProvider {
	m := NewMockProvider(ctrl)
	m.EXPECT().ID().Return(id).AnyTimes()
	return m
}

type gatedProvider struct {
	*MockProvider
	available bool
}

func (g *gatedProvider) Available(context.Context) bool { return g.available }

func TestSuggestPreferredProvider(t *testing.T) {
	ctrl := gomock.NewController(t)
	a, b := newMock(ctrl, "a"), newMock(ctrl, "b")
	a.EXPECT().Suggest(gomock.Any(), helloWor).Return("ld!", nil)

	g := NewGateway(Options{})
	g.Register(a, 0)
	g.Register(b, 0)

	sg := g.Suggest(context.Background(), helloWor)
	require.NotNil(t, sg)
	assert.Equal(t, "ld!", sg.Text)
	assert.Equal(t, "a", sg.ProviderID)
	assert.Equal(t, 9, sg.ForCaretOffset)
	assert.Equal(t, []string{"a", "b"}, g.Providers())
}

func TestSuggestFallsBackOnceOnEmpty(t *testing.T) {
	ctrl := gomock.NewController(t)
	a, b := newMock(ctrl, "a"), newMock(ctrl, "b")
	a.EXPECT().Suggest(gomock.Any(), helloWor).Return("", nil).Times(1)
	b.EXPECT().Suggest(gomock.Any(), helloWor).Return("ld", nil).Times(1)

	g := NewGateway(Options{})
	g.Register(a, 0)
	g.Register(b, 0)

	sg := g.Suggest(context.Background(), helloWor)
	require.NotNil(t, sg)
	assert.Equal(t, "b", sg.ProviderID)
}

func TestSuggestBothFailReturnsNil(t *testing.T) {
	ctrl := gomock.NewController(t)
	a, b, c := newMock(ctrl, "a"), newMock(ctrl, "b"), newMock(ctrl, "c")
	a.EXPECT().Suggest(gomock.Any(), gomock.Any()).Return("", NewError("a", Transient, 503, errors.New("busy")))
	b.EXPECT().Suggest(gomock.Any(), gomock.Any()).Return("  ", nil)

	g := NewGateway(Options{})
	g.Register(a, 0)
	g.Register(b, 0)
	g.Register(c, 0)

	assert.Nil(t, g.Suggest(context.Background(), helloWor))

	st, ok := g.State("a")
	require.True(t, ok)
	assert.Equal(t, 1, st.ConsecutiveFailures)
}

func TestRateLimitedBacksOffAndRoutesToAlternate(t *testing.T) {
	ctrl := gomock.NewController(t)
	clk := newClock()
	a, b := newMock(ctrl, "a"), newMock(ctrl, "b")

	g := NewGateway(Options{Now: clk.now})
	g.Register(a, 0)
	g.Register(b, 0)

	a.EXPECT().Suggest(gomock.Any(), gomock.Any()).Return("", NewError("a", RateLimited, 429, nil))
	b.EXPECT().Suggest(gomock.Any(), gomock.Any()).Return("from b", nil).Times(2)

	sg := g.Suggest(context.Background(), helloWor)
	require.NotNil(t, sg)
	assert.Equal(t, "b", sg.ProviderID)

	st, _ := g.State("a")
	assert.Equal(t, 2*time.Second, st.MinInterval)
	assert.Equal(t, clk.now(), st.LastRequestAt)
	assert.True(t, st.CoolingDown(clk.now()))

	clk.advance(time.Second)
	sg = g.Suggest(context.Background(), helloWor)
	require.NotNil(t, sg)
	assert.Equal(t, "b", sg.ProviderID)

	clk.advance(2 * time.Second)
	a.EXPECT().Suggest(gomock.Any(), gomock.Any()).Return("from a", nil)
	sg = g.Suggest(context.Background(), helloWor)
	require.NotNil(t, sg)
	assert.Equal(t, "a", sg.ProviderID)

	st, _ = g.State("a")
	assert.Zero(t, st.MinInterval)
	assert.Zero(t, st.ConsecutiveFailures)
}

func TestBackoffMultipliesAndCaps(t *testing.T) {
	ctrl := gomock.NewController(t)
	clk := newClock()
	a := newMock(ctrl, "a")
	a.EXPECT().Suggest(gomock.Any(), gomock.Any()).Return("", NewError("a", InvalidInput, 400, nil)).Times(3)

	g := NewGateway(Options{Now: clk.now, MaxInterval: 5 * time.Second})
	g.Register(a, 500*time.Millisecond)

	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}
	for _, w := range want {
		assert.Nil(t, g.Suggest(context.Background(), helloWor))
		st, _ := g.State("a")
		assert.Equal(t, w, st.MinInterval)
		clk.advance(time.Minute)
	}

	s := State{MinInterval: 4 * time.Second}
	s.backoff(2, time.Second, 5*time.Second)
	assert.Equal(t, 5*time.Second, s.MinInterval)
}

func TestBaseIntervalSkipsRecentlyUsedProvider(t *testing.T) {
	ctrl := gomock.NewController(t)
	clk := newClock()
	a, b := newMock(ctrl, "a"), newMock(ctrl, "b")
	a.EXPECT().Suggest(gomock.Any(), gomock.Any()).Return("a1", nil)
	b.EXPECT().Suggest(gomock.Any(), gomock.Any()).Return("b1", nil)

	g := NewGateway(Options{Now: clk.now})
	g.Register(a, time.Second)
	g.Register(b, 0)

	assert.Equal(t, "a", g.Suggest(context.Background(), helloWor).ProviderID)
	clk.advance(300 * time.Millisecond)
	assert.Equal(t, "b", g.Suggest(context.Background(), helloWor).ProviderID)
}

func TestCancelledCallerSkipsFallback(t *testing.T) {
	ctrl := gomock.NewController(t)
	a, b := newMock(ctrl, "a"), newMock(ctrl, "b")

	g := NewGateway(Options{})
	g.Register(a, 0)
	g.Register(b, 0)

	ctx, cancel := context.WithCancel(context.Background())
	a.EXPECT().Suggest(gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, _ surface.InputContext) (string, error) {
		cancel()
		<-ctx.Done()
		return "", ctx.Err()
	})

	assert.Nil(t, g.Suggest(ctx, helloWor))
	assert.Nil(t, g.Suggest(ctx, helloWor))
}

func TestPanicIsTransient(t *testing.T) {
	ctrl := gomock.NewController(t)
	a, b := newMock(ctrl, "a"), newMock(ctrl, "b")
	a.EXPECT().Suggest(gomock.Any(), gomock.Any()).DoAndReturn(func(context.Context, surface.InputContext) (string, error) {
		panic("boom")
	})
	b.EXPECT().Suggest(gomock.Any(), gomock.Any()).Return("safe", nil)

	g := NewGateway(Options{})
	g.Register(a, 0)
	g.Register(b, 0)

	sg := g.Suggest(context.Background(), helloWor)
	require.NotNil(t, sg)
	assert.Equal(t, "safe", sg.Text)
}

func TestAttemptTimeoutFallsBack(t *testing.T) {
	ctrl := gomock.NewController(t)
	a, b := newMock(ctrl, "a"), newMock(ctrl, "b")
	a.EXPECT().Suggest(gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, _ surface.InputContext) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})
	b.EXPECT().Suggest(gomock.Any(), gomock.Any()).Return("fast", nil)

	g := NewGateway(Options{AttemptTimeout: 20 * time.Millisecond})
	g.Register(a, 0)
	g.Register(b, 0)

	sg := g.Suggest(context.Background(), helloWor)
	require.NotNil(t, sg)
	assert.Equal(t, "b", sg.ProviderID)

	st, _ := g.State("a")
	assert.Equal(t, 1, st.ConsecutiveFailures)
}

func TestNewRequestSupersedesInFlight(t *testing.T) {
	ctrl := gomock.NewController(t)
	a := newMock(ctrl, "a")
	started := make(chan struct{})
	gomock.InOrder(
		a.EXPECT().Suggest(gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, _ surface.InputContext) (string, error) {
			close(started)
			<-ctx.Done()
			return "stale", nil
		}),
		a.EXPECT().Suggest(gomock.Any(), gomock.Any()).Return("fresh", nil),
	)

	g := NewGateway(Options{})
	g.Register(a, 0)

	first := make(chan *surface.Suggestion)
	go func() { first <- g.Suggest(context.Background(), helloWor) }()
	<-started

	sg := g.Suggest(context.Background(), helloWor)
	require.NotNil(t, sg)
	assert.Equal(t, "fresh", sg.Text)
	assert.Nil(t, <-first)
}

func TestProbeGatesProviders(t *testing.T) {
	ctrl := gomock.NewController(t)
	local := &gatedProvider{MockProvider: newMock(ctrl, "local"), available: true}
	off := &gatedProvider{MockProvider: newMock(ctrl, "off"), available: false}
	hosted := newMock(ctrl, "hosted")

	g := NewGateway(Options{})
	g.Register(off, 0)
	g.Register(local, 0)
	g.Register(hosted, 0)

	st, _ := g.State("local")
	assert.False(t, st.Available)

	hosted.EXPECT().Suggest(gomock.Any(), gomock.Any()).Return("h", nil)
	assert.Equal(t, "hosted", g.Suggest(context.Background(), helloWor).ProviderID)

	require.NoError(t, g.Probe(context.Background()))
	st, _ = g.State("local")
	assert.True(t, st.Available)
	st, _ = g.State("off")
	assert.False(t, st.Available)

	local.EXPECT().Suggest(gomock.Any(), gomock.Any()).Return("l", nil)
	assert.Equal(t, "local", g.Suggest(context.Background(), helloWor).ProviderID)
}

func TestUnavailableDoesNotConsumeHop(t *testing.T) {
	ctrl := gomock.NewController(t)
	a := &gatedProvider{MockProvider: newMock(ctrl, "a"), available: true}
	b, c := newMock(ctrl, "b"), newMock(ctrl, "c")
	a.EXPECT().Suggest(gomock.Any(), gomock.Any()).Return("", NewError("a", Unavailable, 0, nil))
	b.EXPECT().Suggest(gomock.Any(), gomock.Any()).Return("", nil)
	c.EXPECT().Suggest(gomock.Any(), gomock.Any()).Return("c", nil)

	g := NewGateway(Options{})
	g.Register(a, 0)
	g.Register(b, 0)
	g.Register(c, 0)
	require.NoError(t, g.Probe(context.Background()))

	sg := g.Suggest(context.Background(), helloWor)
	require.NotNil(t, sg)
	assert.Equal(t, "c", sg.ProviderID)

	st, _ := g.State("a")
	assert.False(t, st.Available)
}

func TestErrorClassification(t *testing.T) {
	err := NewError("hosted", RateLimited, 429, errors.New("slow down"))
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.NotErrorIs(t, err, ErrTransient)
	assert.Equal(t, RateLimited, KindOf(err))
	assert.Equal(t, RateLimited, KindOf(errors.Join(errors.New("x"), err)))
	assert.Equal(t, Transient, KindOf(context.DeadlineExceeded))
	assert.Equal(t, "hosted: rate-limited (status 429): slow down", err.Error())

	assert.Equal(t, RateLimited, KindForStatus(429))
	assert.Equal(t, InvalidInput, KindForStatus(404))
	assert.Equal(t, Transient, KindForStatus(500))
}
