package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/iw2rmb/ghostline/internal/logging"
	"github.com/iw2rmb/ghostline/internal/metrics"
	"github.com/iw2rmb/ghostline/internal/tracing"
	"github.com/iw2rmb/ghostline/surface"
)

const (
	DefaultAttemptTimeout    = 2 * time.Second
	DefaultBackoffMultiplier = 2.0
	DefaultBackoffFloor      = time.Second
	DefaultMaxInterval       = time.Minute

	// maxAttempts bounds a request to the selected provider plus one
	// fallback hop.
	maxAttempts = 2
)

// errSuperseded marks an attempt overtaken by a newer request to the same
// provider.
var errSuperseded = errors.New("provider: superseded")

type Options struct {
	AttemptTimeout    time.Duration
	BackoffMultiplier float64
	BackoffFloor      time.Duration
	MaxInterval       time.Duration

	Logger *logging.Logger
	Now    func() time.Time
}

func (o Options) withDefaults() Options {
	if o.AttemptTimeout <= 0 {
		o.AttemptTimeout = DefaultAttemptTimeout
	}
	if o.BackoffMultiplier <= 1 {
		o.BackoffMultiplier = DefaultBackoffMultiplier
	}
	if o.BackoffFloor <= 0 {
		o.BackoffFloor = DefaultBackoffFloor
	}
	if o.MaxInterval <= 0 {
		o.MaxInterval = DefaultMaxInterval
	}
	if o.Logger == nil {
		o.Logger = logging.Discard()
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

type entry struct {
	p     Provider
	state State

	cancel context.CancelFunc
	seq    uint64
}

// Gateway selects a provider per request and owns the provider state table.
// It is safe for concurrent use.
type Gateway struct {
	opt Options
	log *logging.Logger

	mu      sync.Mutex
	entries []*entry
}

func NewGateway(opt Options) *Gateway {
	opt = opt.withDefaults()
	return &Gateway{opt: opt, log: opt.Logger.Component("gateway")}
}

// Register appends p to the preference order. Providers with a capability
// gate start unavailable until Probe confirms them.
func (g *Gateway) Register(p Provider, baseInterval time.Duration) {
	_, gated := p.(Availability)
	g.mu.Lock()
	defer g.mu.Unlock()
	g.entries = append(g.entries, &entry{
		p: p,
		state: State{
			BaseInterval: baseInterval,
			MinInterval:  baseInterval,
			Available:    !gated,
		},
	})
}

// Providers returns the registered provider ids in preference order.
func (g *Gateway) Providers() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	ids := make([]string, len(g.entries))
	for i, e := range g.entries {
		ids[i] = e.p.ID()
	}
	return ids
}

// State returns a copy of the state of provider id.
func (g *Gateway) State(id string) (State, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, e := range g.entries {
		if e.p.ID() == id {
			return e.state, true
		}
	}
	return State{}, false
}

// Probe checks every gated provider in parallel and records the result.
func (g *Gateway) Probe(ctx context.Context) error {
	g.mu.Lock()
	entries := append([]*entry(nil), g.entries...)
	g.mu.Unlock()

	eg, ctx := errgroup.WithContext(ctx)
	for _, e := range entries {
		av, ok := e.p.(Availability)
		if !ok {
			continue
		}
		eg.Go(func() error {
			pctx, cancel := context.WithTimeout(ctx, g.opt.AttemptTimeout)
			defer cancel()
			ok := av.Available(pctx)
			g.mu.Lock()
			e.state.Available = ok
			g.mu.Unlock()
			g.log.WithProvider(e.p.ID()).Info("probe", "available", ok)
			return nil
		})
	}
	return eg.Wait()
}

// Suggest returns the best suggestion for in, or nil. It never fails: every
// provider error is logged and absorbed. A cancelled ctx returns nil without
// trying a fallback.
func (g *Gateway) Suggest(ctx context.Context, in surface.InputContext) *surface.Suggestion {
	attempts := 0
	for _, e := range g.candidates() {
		if attempts == maxAttempts || ctx.Err() != nil {
			break
		}
		if attempts > 0 {
			metrics.Fallbacks.Inc()
		}

		text, err := g.attempt(ctx, e, in)
		if ctx.Err() != nil || errors.Is(err, errSuperseded) {
			return nil
		}
		if err == nil && strings.TrimSpace(text) != "" {
			return surface.NewSuggestion(in, text, e.p.ID(), g.opt.Now())
		}
		if err != nil && KindOf(err) == Unavailable {
			continue
		}
		attempts++
	}
	return nil
}

// candidates returns the providers eligible now, in preference order.
func (g *Gateway) candidates() []*entry {
	now := g.opt.Now()
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]*entry, 0, len(g.entries))
	for _, e := range g.entries {
		switch {
		case !e.state.Available:
			metrics.ProviderSkipped.WithLabelValues(e.p.ID(), "unavailable").Inc()
		case e.state.CoolingDown(now):
			metrics.ProviderSkipped.WithLabelValues(e.p.ID(), "cooldown").Inc()
		default:
			out = append(out, e)
		}
	}
	return out
}

// attempt issues one request to e, cancelling the previous in-flight
// request to the same provider.
func (g *Gateway) attempt(ctx context.Context, e *entry, in surface.InputContext) (string, error) {
	id := e.p.ID()
	log := g.log.WithProvider(id)

	actx, cancel := context.WithTimeout(ctx, g.opt.AttemptTimeout)
	g.mu.Lock()
	if e.cancel != nil {
		e.cancel()
	}
	e.seq++
	seq := e.seq
	e.cancel = cancel
	e.state.LastRequestAt = g.opt.Now()
	g.mu.Unlock()
	defer func() {
		g.mu.Lock()
		if e.seq == seq {
			e.cancel = nil
		}
		g.mu.Unlock()
		cancel()
	}()

	actx, span := tracing.StartSpan(actx, "provider.attempt",
		attribute.String("provider", id),
		attribute.String("surface_kind", in.SurfaceKind.String()),
		attribute.Bool("code_like", in.IsCodeLike),
		attribute.Bool("search", in.IsSearchField),
	)
	defer span.End()

	start := time.Now()
	text, err := call(actx, e.p, in)
	metrics.ProviderLatency.WithLabelValues(id).Observe(time.Since(start).Seconds())

	g.mu.Lock()
	defer g.mu.Unlock()

	outcome := metrics.OutcomeOK
	switch {
	case e.seq != seq:
		outcome, err = metrics.OutcomeSuperseded, errSuperseded
	case ctx.Err() != nil:
		outcome = metrics.OutcomeCanceled
	case err == nil && strings.TrimSpace(text) == "":
		outcome = metrics.OutcomeEmpty
	case err == nil:
		e.state.reset()
		e.state.Available = true
	default:
		outcome = g.fail(e, err)
	}
	metrics.ProviderRequests.WithLabelValues(id, outcome).Inc()
	span.SetAttributes(attribute.String("outcome", outcome))
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		log.WithContext(actx).Debug("attempt failed", "outcome", outcome, "error", err)
	} else {
		log.WithContext(actx).Debug("attempt", "outcome", outcome, "chars", len(text))
	}
	return text, err
}

// fail updates e for a classified failure. The caller holds g.mu.
func (g *Gateway) fail(e *entry, err error) string {
	e.state.ConsecutiveFailures++
	switch KindOf(err) {
	case RateLimited:
		e.state.backoff(g.opt.BackoffMultiplier, g.opt.BackoffFloor, g.opt.MaxInterval)
		e.state.LastRequestAt = g.opt.Now()
		return metrics.OutcomeRateLimited
	case InvalidInput:
		e.state.backoff(g.opt.BackoffMultiplier, g.opt.BackoffFloor, g.opt.MaxInterval)
		e.state.LastRequestAt = g.opt.Now()
		return metrics.OutcomeInvalid
	case Unavailable:
		// Only a probe can bring a gated provider back.
		if _, gated := e.p.(Availability); gated {
			e.state.Available = false
		}
		return metrics.OutcomeUnavailable
	default:
		return metrics.OutcomeTransient
	}
}

// Close cancels every in-flight request.
func (g *Gateway) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, e := range g.entries {
		if e.cancel != nil {
			e.cancel()
			e.cancel = nil
		}
	}
}

// call invokes p and turns a panic into a Transient error.
func call(ctx context.Context, p Provider, in surface.InputContext) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, err = "", NewError(p.ID(), Transient, 0, fmt.Errorf("panic: %v", r))
		}
	}()
	return p.Suggest(ctx, in)
}
