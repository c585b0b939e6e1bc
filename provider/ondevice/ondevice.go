// Package ondevice is the local-model provider. It talks to an
// OpenAI-compatible runtime on the same machine and is gated on the model
// actually being installed there.
package ondevice

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/iw2rmb/ghostline"
	"github.com/iw2rmb/ghostline/internal/logging"
	"github.com/iw2rmb/ghostline/provider"
	"github.com/iw2rmb/ghostline/provider/prompt"
	"github.com/iw2rmb/ghostline/surface"
)

const (
	ID = "ondevice"

	DefaultBaseURL = "http://localhost:11434/v1"
	DefaultModel   = "llama3.2:1b"

	minTextLength = 3
	maxTokens     = 40
)

// Provider is a capability-gated local model.
type Provider struct {
	client    openai.Client
	baseURL   string
	model     string
	asciiOnly bool
	log       *logging.Logger

	mu        sync.Mutex
	checked   bool
	available bool
	inflight  context.CancelFunc
}

type Option func(*Provider)

func WithModel(model string) Option {
	return func(p *Provider) {
		if model != "" {
			p.model = model
		}
	}
}

func WithBaseURL(url string) Option {
	return func(p *Provider) {
		if url != "" {
			p.baseURL = url
		}
	}
}

// WithASCIIOnly drops non-ASCII runes from answers.
func WithASCIIOnly(on bool) Option {
	return func(p *Provider) { p.asciiOnly = on }
}

func WithLogger(l *logging.Logger) Option {
	return func(p *Provider) { p.log = l }
}

func New(opts ...Option) *Provider {
	p := &Provider{
		baseURL: DefaultBaseURL,
		model:   DefaultModel,
		log:     logging.Discard(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.client = openai.NewClient(
		option.WithBaseURL(p.baseURL),
		option.WithAPIKey("local"),
		option.WithMaxRetries(0),
		option.WithHeader("User-Agent", ghostline.UserAgent()),
	)
	p.log = p.log.Component("ondevice").WithProvider(ID)
	return p
}

func (p *Provider) ID() string { return ID }

// Available asks the runtime for the model once and caches the answer.
func (p *Provider) Available(ctx context.Context) bool {
	p.mu.Lock()
	if p.checked {
		ok := p.available
		p.mu.Unlock()
		return ok
	}
	p.mu.Unlock()

	_, err := p.client.Models.Get(ctx, p.model)
	ok := err == nil
	if err != nil {
		p.log.Info("model not available", "model", p.model, "error", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if ctx.Err() == nil {
		p.checked, p.available = true, ok
	}
	return ok
}

// Suggest asks for a short natural-language continuation. Only one request
// is outstanding at a time; a new one aborts the previous.
func (p *Provider) Suggest(ctx context.Context, in surface.InputContext) (string, error) {
	if !p.Available(ctx) {
		return "", provider.NewError(ID, provider.Unavailable, 0, fmt.Errorf("model %s not installed", p.model))
	}
	before := in.BeforeCaret()
	if len([]rune(before)) < minTextLength {
		return "", nil
	}

	ctx, cancel := context.WithCancel(ctx)
	p.mu.Lock()
	if p.inflight != nil {
		p.inflight()
	}
	p.inflight = cancel
	p.mu.Unlock()
	defer cancel()

	resp, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       p.model,
		Messages:    []openai.ChatCompletionMessageParamUnion{openai.UserMessage(prompt.Instruction(in))},
		MaxTokens:   openai.Int(maxTokens),
		Temperature: openai.Float(prompt.DefaultTemperature),
	})
	if err != nil {
		err = classify(err)
		if provider.KindOf(err) == provider.Unavailable {
			p.mu.Lock()
			p.checked, p.available = true, false
			p.mu.Unlock()
		}
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return prompt.Clean(resp.Choices[0].Message.Content, before, p.asciiOnly), nil
}

func classify(err error) error {
	var apiErr *openai.Error
	switch {
	case errors.As(err, &apiErr) && apiErr.StatusCode == 404:
		return provider.NewError(ID, provider.Unavailable, apiErr.StatusCode, err)
	case errors.As(err, &apiErr):
		return provider.NewError(ID, provider.KindForStatus(apiErr.StatusCode), apiErr.StatusCode, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		return provider.NewError(ID, provider.Transient, 0, err)
	}
}

// Close aborts the outstanding request, if any.
func (p *Provider) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.inflight != nil {
		p.inflight()
		p.inflight = nil
	}
}

var _ provider.Availability = (*Provider)(nil)
