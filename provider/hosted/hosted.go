// Package hosted is the hosted completions provider. It speaks the
// OpenAI-compatible /completions API (Cerebras by default), builds a prompt
// per input mode and maps HTTP failures onto provider error kinds.
package hosted

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	"github.com/iw2rmb/ghostline"
	"github.com/iw2rmb/ghostline/internal/logging"
	"github.com/iw2rmb/ghostline/provider"
	"github.com/iw2rmb/ghostline/provider/prompt"
	"github.com/iw2rmb/ghostline/surface"
)

const (
	ID = "hosted"

	DefaultBaseURL     = "https://api.cerebras.ai/v1"
	DefaultModel       = "llama3.1-8b"
	DefaultMaxTokens   = 50
	DefaultTemperature = prompt.DefaultTemperature
	DefaultRateLimit   = rate.Limit(2) // requests per second
	DefaultBurst       = 2

	minTextLength = 2
)

// APIKeyEnv lists the environment variables read when no key is given.
var APIKeyEnv = []string{"GHOSTLINE_API_KEY", "CEREBRAS_API_KEY"}

var errLocalLimit = errors.New("client-side rate limit exhausted")

// Provider calls a hosted completions endpoint.
type Provider struct {
	client      openai.Client
	baseURL     string
	model       string
	maxTokens   int64
	temperature float64
	limiter     *rate.Limiter
	httpClient  *http.Client
	log         *logging.Logger
}

type Option func(*Provider)

func WithModel(model string) Option {
	return func(p *Provider) {
		if model != "" {
			p.model = model
		}
	}
}

// WithBaseURL points the provider at another OpenAI-compatible endpoint.
func WithBaseURL(url string) Option {
	return func(p *Provider) {
		if url != "" {
			p.baseURL = url
		}
	}
}

// WithRateLimit sets the client-side request budget.
func WithRateLimit(r rate.Limit, burst int) Option {
	return func(p *Provider) { p.limiter = rate.NewLimiter(r, burst) }
}

func WithSampling(maxTokens int64, temperature float64) Option {
	return func(p *Provider) {
		p.maxTokens = maxTokens
		p.temperature = temperature
	}
}

func WithHTTPClient(c *http.Client) Option {
	return func(p *Provider) { p.httpClient = c }
}

func WithLogger(l *logging.Logger) Option {
	return func(p *Provider) { p.log = l }
}

// New returns a hosted provider. An empty apiKey is read from APIKeyEnv.
func New(apiKey string, opts ...Option) (*Provider, error) {
	for _, env := range APIKeyEnv {
		if apiKey != "" {
			break
		}
		apiKey = os.Getenv(env)
	}
	if apiKey == "" {
		return nil, fmt.Errorf("hosted provider: API key is required (set %s)", strings.Join(APIKeyEnv, " or "))
	}

	p := &Provider{
		baseURL:     DefaultBaseURL,
		model:       DefaultModel,
		maxTokens:   DefaultMaxTokens,
		temperature: DefaultTemperature,
		limiter:     rate.NewLimiter(DefaultRateLimit, DefaultBurst),
		log:         logging.Discard(),
	}
	for _, opt := range opts {
		opt(p)
	}

	copts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithBaseURL(p.baseURL),
		option.WithMaxRetries(0),
		option.WithHeader("User-Agent", ghostline.UserAgent()),
	}
	if p.httpClient != nil {
		copts = append(copts, option.WithHTTPClient(p.httpClient))
	}
	p.client = openai.NewClient(copts...)
	p.log = p.log.Component("hosted").WithProvider(ID)
	return p, nil
}

func (p *Provider) ID() string { return ID }

func (p *Provider) Suggest(ctx context.Context, in surface.InputContext) (string, error) {
	before := in.BeforeCaret()
	if len([]rune(strings.TrimSpace(before))) < minTextLength {
		return "", nil
	}
	if !p.limiter.Allow() {
		return "", provider.NewError(ID, provider.RateLimited, 0, errLocalLimit)
	}

	start := time.Now()
	resp, err := p.client.Completions.New(ctx, openai.CompletionNewParams{
		Model:       openai.CompletionNewParamsModel(p.model),
		Prompt:      openai.CompletionNewParamsPromptUnion{OfString: openai.String(prompt.Completion(in))},
		MaxTokens:   openai.Int(p.maxTokens),
		Temperature: openai.Float(p.temperature),
		Stop:        openai.CompletionNewParamsStopUnion{OfStringArray: prompt.StopSequences(in)},
	})
	if err != nil {
		return "", classify(err)
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}

	serverTime := gjson.Get(resp.RawJSON(), "time_info.total_time")
	p.log.WithContext(ctx).Debug("completion",
		"mode", prompt.ModeOf(in).String(),
		"server_time", serverTime.Float(),
		"elapsed", time.Since(start),
	)
	return prompt.Clean(resp.Choices[0].Text, before, false), nil
}

// classify maps transport failures to provider error kinds.
func classify(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return provider.NewError(ID, provider.KindForStatus(apiErr.StatusCode), apiErr.StatusCode, err)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return provider.NewError(ID, provider.Transient, 0, err)
}
