package main

import (
	_ "embed"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/iw2rmb/ghostline/config"
	"github.com/iw2rmb/ghostline/coordinator"
	"github.com/iw2rmb/ghostline/dom"
	"github.com/iw2rmb/ghostline/internal/logging"
	"github.com/iw2rmb/ghostline/overlay"
	"github.com/iw2rmb/ghostline/provider"
	"github.com/iw2rmb/ghostline/provider/hosted"
	"github.com/iw2rmb/ghostline/provider/ondevice"
	"github.com/iw2rmb/ghostline/provider/phrasebook"
	"github.com/iw2rmb/ghostline/surface"
)

//go:embed page.html
var pageHTML string

// buildGateway registers the enabled providers in preference order. The
// returned func releases provider resources.
func buildGateway(cfg *config.Config, log *logging.Logger) (*provider.Gateway, func(), error) {
	gw := provider.NewGateway(provider.Options{
		AttemptTimeout:    cfg.Gateway.AttemptTimeout,
		BackoffMultiplier: cfg.Gateway.BackoffMultiplier,
		BackoffFloor:      cfg.Gateway.BackoffFloor,
		MaxInterval:       cfg.Gateway.MaxInterval,
		Logger:            log,
	})
	var closers []func()
	closeAll := func() {
		gw.Close()
		for _, c := range closers {
			c()
		}
	}

	for _, id := range cfg.EnabledProviders() {
		switch id {
		case config.ProviderOnDevice:
			c := cfg.Providers.OnDevice
			p := ondevice.New(
				ondevice.WithBaseURL(c.BaseURL),
				ondevice.WithModel(c.Model),
				ondevice.WithASCIIOnly(c.ASCIIOnly),
				ondevice.WithLogger(log),
			)
			gw.Register(p, c.BaseInterval)
			closers = append(closers, p.Close)

		case config.ProviderHosted:
			c := cfg.Providers.Hosted
			p, err := hosted.New(c.APIKey,
				hosted.WithBaseURL(c.BaseURL),
				hosted.WithModel(c.Model),
				hosted.WithSampling(c.MaxTokens, c.Temperature),
				hosted.WithRateLimit(rate.Limit(c.RateLimit), c.Burst),
				hosted.WithLogger(log),
			)
			if err != nil {
				closeAll()
				return nil, nil, fmt.Errorf("hosted provider: %w", err)
			}
			gw.Register(p, c.BaseInterval)

		case config.ProviderPhrasebook:
			c := cfg.Providers.Phrasebook
			opts := []phrasebook.Option{phrasebook.WithDelay(c.Delay)}
			if len(c.Phrases) > 0 {
				opts = append(opts, phrasebook.WithPhrases(c.Phrases...))
			}
			gw.Register(phrasebook.New(opts...), c.BaseInterval)
		}
	}
	log.Info("gateway ready", "providers", gw.Providers())
	return gw, closeAll, nil
}

// newPage parses the demo page and installs the terminal layout as its
// geometry.
func newPage(cfg *config.Config) (*dom.Document, *layout, error) {
	doc, err := dom.ParseString(pageHTML)
	if err != nil {
		return nil, nil, fmt.Errorf("parse demo page: %w", err)
	}
	lay := newLayout(doc, cfg.Overlay.TabWidth)
	doc.SetGeometry(lay)
	return doc, lay, nil
}

func newCoordinator(cfg *config.Config, doc *dom.Document, gw coordinator.Suggester, log *logging.Logger) *coordinator.Coordinator {
	return coordinator.New(doc, gw, coordinator.Options{
		Debounce:     cfg.Debounce,
		PollInterval: cfg.PollInterval,
		KeyMap:       coordinator.NewKeyMap(cfg.Keys.Accept, cfg.Keys.Dismiss),
		Adapter:      surface.NewAdapter(cfg.SurfaceOptions()),
		Renderer: overlay.NewRenderer(doc, overlay.Options{
			Measurer:      overlay.CellMeasurer{TabWidth: cfg.Overlay.TabWidth},
			CaretMaxWidth: cfg.Overlay.CaretMaxWidth,
		}),
		Logger: log,
	})
}
