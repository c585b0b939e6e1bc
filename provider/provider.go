// Package provider routes suggestion requests to completion providers.
//
// The Gateway keeps a per-provider state table (last request time, current
// minimum interval, consecutive failures, availability) and applies the
// selection policy: providers are tried in preference order, cooling or
// unavailable providers are skipped, and a failed or empty attempt falls
// back to exactly one more provider.
package provider

import (
	"context"

	"github.com/iw2rmb/ghostline/surface"
)

// Provider produces a short continuation of the text before the caret.
// An empty string with a nil error means "no suggestion".
//
//go:generate mockgen -package=provider -destination=mock_provider_test.go github.com/iw2rmb/ghostline/provider Provider
type Provider interface {
	ID() string
	Suggest(ctx context.Context, in surface.InputContext) (string, error)
}

// Availability is implemented by providers behind a capability gate.
type Availability interface {
	Available(ctx context.Context) bool
}
