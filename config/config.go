// Package config holds ghostline settings: defaults, YAML loading and
// validation.
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/iw2rmb/ghostline/internal/logging"
	"github.com/iw2rmb/ghostline/surface"
)

type Config struct {
	Debounce      time.Duration `yaml:"debounce"`
	PollInterval  time.Duration `yaml:"poll_interval"`
	MinTextLength int           `yaml:"min_text_length"`

	Editors   EditorsConfig   `yaml:"editors"`
	Keys      KeysConfig      `yaml:"keys"`
	Overlay   OverlayConfig   `yaml:"overlay"`
	Gateway   GatewayConfig   `yaml:"gateway"`
	Providers ProvidersConfig `yaml:"providers"`
	Log       LogConfig       `yaml:"log"`
}

// EditorsConfig extends editor detection.
type EditorsConfig struct {
	RichSelectors   []string `yaml:"rich_selectors"`
	CodeSelectors   []string `yaml:"code_selectors"`
	CanvasSelectors []string `yaml:"canvas_selectors"`
}

// KeysConfig names keys in bubbletea notation ("tab", "esc", "ctrl+y").
type KeysConfig struct {
	Accept  []string `yaml:"accept"`
	Dismiss []string `yaml:"dismiss"`
}

type OverlayConfig struct {
	TabWidth      int     `yaml:"tab_width"`
	CaretMaxWidth float64 `yaml:"caret_max_width"`
}

type GatewayConfig struct {
	AttemptTimeout    time.Duration `yaml:"attempt_timeout"`
	BackoffMultiplier float64       `yaml:"backoff_multiplier"`
	BackoffFloor      time.Duration `yaml:"backoff_floor"`
	MaxInterval       time.Duration `yaml:"max_interval"`
}

type ProvidersConfig struct {
	// Order is the preference order of enabled providers.
	Order      []string         `yaml:"order"`
	OnDevice   OnDeviceConfig   `yaml:"ondevice"`
	Hosted     HostedConfig     `yaml:"hosted"`
	Phrasebook PhrasebookConfig `yaml:"phrasebook"`
}

type OnDeviceConfig struct {
	Enabled      bool          `yaml:"enabled"`
	BaseURL      string        `yaml:"base_url"`
	Model        string        `yaml:"model"`
	ASCIIOnly    bool          `yaml:"ascii_only"`
	BaseInterval time.Duration `yaml:"base_interval"`
}

type HostedConfig struct {
	Enabled      bool          `yaml:"enabled"`
	BaseURL      string        `yaml:"base_url"`
	Model        string        `yaml:"model"`
	APIKey       string        `yaml:"api_key"`
	MaxTokens    int64         `yaml:"max_tokens"`
	Temperature  float64       `yaml:"temperature"`
	RateLimit    float64       `yaml:"rate_limit"`
	Burst        int           `yaml:"burst"`
	BaseInterval time.Duration `yaml:"base_interval"`
}

type PhrasebookConfig struct {
	Enabled      bool          `yaml:"enabled"`
	Delay        time.Duration `yaml:"delay"`
	Phrases      []string      `yaml:"phrases"`
	BaseInterval time.Duration `yaml:"base_interval"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Provider ids accepted in providers.order.
const (
	ProviderOnDevice   = "ondevice"
	ProviderHosted     = "hosted"
	ProviderPhrasebook = "phrasebook"
)

func Default() *Config {
	return &Config{
		Debounce:      300 * time.Millisecond,
		PollInterval:  500 * time.Millisecond,
		MinTextLength: surface.DefaultMinTextLength,
		Keys: KeysConfig{
			Accept:  []string{"tab"},
			Dismiss: []string{"esc"},
		},
		Overlay: OverlayConfig{TabWidth: 4, CaretMaxWidth: 40},
		Gateway: GatewayConfig{
			AttemptTimeout:    2 * time.Second,
			BackoffMultiplier: 2,
			BackoffFloor:      time.Second,
			MaxInterval:       time.Minute,
		},
		Providers: ProvidersConfig{
			Order: []string{ProviderOnDevice, ProviderHosted, ProviderPhrasebook},
			OnDevice: OnDeviceConfig{
				Enabled:   false,
				BaseURL:   "http://localhost:11434/v1",
				Model:     "llama3.2:1b",
				ASCIIOnly: true,
			},
			Hosted: HostedConfig{
				Enabled:      false,
				BaseURL:      "https://api.cerebras.ai/v1",
				Model:        "llama3.1-8b",
				MaxTokens:    50,
				Temperature:  0.3,
				RateLimit:    2,
				Burst:        2,
				BaseInterval: 500 * time.Millisecond,
			},
			Phrasebook: PhrasebookConfig{
				Enabled: true,
				Delay:   80 * time.Millisecond,
			},
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads path over the defaults, applies environment overrides and
// validates the result. An empty path yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv fills secrets and toggles from the environment.
func (c *Config) applyEnv() {
	if c.Providers.Hosted.APIKey == "" {
		for _, env := range []string{"GHOSTLINE_API_KEY", "CEREBRAS_API_KEY"} {
			if v := os.Getenv(env); v != "" {
				c.Providers.Hosted.APIKey = v
				break
			}
		}
	}
	if v := os.Getenv("GHOSTLINE_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

func (c *Config) Validate() error {
	var errs []error
	if c.Debounce <= 0 {
		errs = append(errs, errors.New("debounce must be positive"))
	}
	if c.PollInterval <= 0 {
		errs = append(errs, errors.New("poll_interval must be positive"))
	}
	if c.MinTextLength < 1 {
		errs = append(errs, errors.New("min_text_length must be at least 1"))
	}
	if len(c.Keys.Accept) == 0 {
		errs = append(errs, errors.New("keys.accept must name at least one key"))
	}
	for _, k := range c.Keys.Accept {
		if slices.Contains(c.Keys.Dismiss, k) {
			errs = append(errs, fmt.Errorf("key %q is bound to both accept and dismiss", k))
		}
	}
	if c.Gateway.AttemptTimeout <= 0 {
		errs = append(errs, errors.New("gateway.attempt_timeout must be positive"))
	}
	if c.Gateway.BackoffMultiplier <= 1 {
		errs = append(errs, errors.New("gateway.backoff_multiplier must be greater than 1"))
	}
	if c.Gateway.MaxInterval < c.Gateway.BackoffFloor {
		errs = append(errs, errors.New("gateway.max_interval must not be below backoff_floor"))
	}
	seen := map[string]bool{}
	for _, id := range c.Providers.Order {
		switch id {
		case ProviderOnDevice, ProviderHosted, ProviderPhrasebook:
		default:
			errs = append(errs, fmt.Errorf("providers.order: unknown provider %q", id))
		}
		if seen[id] {
			errs = append(errs, fmt.Errorf("providers.order: %q listed twice", id))
		}
		seen[id] = true
	}
	if len(c.EnabledProviders()) == 0 {
		errs = append(errs, errors.New("no provider enabled"))
	}
	if c.Providers.Hosted.Enabled && c.Providers.Hosted.APIKey == "" {
		errs = append(errs, errors.New("providers.hosted: api_key is required (or GHOSTLINE_API_KEY)"))
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// EnabledProviders returns enabled provider ids in preference order.
func (c *Config) EnabledProviders() []string {
	var out []string
	for _, id := range c.Providers.Order {
		if c.enabled(id) {
			out = append(out, id)
		}
	}
	return out
}

func (c *Config) enabled(id string) bool {
	switch id {
	case ProviderOnDevice:
		return c.Providers.OnDevice.Enabled
	case ProviderHosted:
		return c.Providers.Hosted.Enabled
	case ProviderPhrasebook:
		return c.Providers.Phrasebook.Enabled
	}
	return false
}

// SurfaceOptions maps the editor settings to surface adapter options.
// Configured selectors extend the built-in lists.
func (c *Config) SurfaceOptions() surface.Options {
	d := surface.DefaultOptions()
	return surface.Options{
		RichEditorSelectors: merge(d.RichEditorSelectors, c.Editors.RichSelectors),
		CodeEditorSelectors: merge(d.CodeEditorSelectors, c.Editors.CodeSelectors),
		CanvasSelectors:     merge(d.CanvasSelectors, c.Editors.CanvasSelectors),
		MinTextLength:       c.MinTextLength,
	}
}

// Marshal renders c as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

func merge(base, extra []string) []string {
	out := slices.Clone(base)
	for _, s := range extra {
		s = strings.TrimSpace(s)
		if s != "" && !slices.Contains(out, s) {
			out = append(out, s)
		}
	}
	return out
}
