package coordinator

import "github.com/iw2rmb/ghostline/surface"

// debounceMsg fires after the debounce window of the input that produced
// generation gen.
type debounceMsg struct{ gen uint64 }

// suggestionMsg carries a provider result for generation gen.
type suggestionMsg struct {
	gen uint64
	sg  *surface.Suggestion
}

// pollMsg samples the rendered line of a polled surface.
type pollMsg struct{ seq uint64 }

// ProbedMsg reports the end of the provider availability probe.
type ProbedMsg struct{ Err error }
