package provider

import (
	"errors"
	"fmt"
)

// Kind classifies provider failures.
type Kind uint8

const (
	Transient Kind = iota + 1
	RateLimited
	InvalidInput
	Unavailable
)

func (k Kind) String() string {
	switch k {
	case Transient:
		return "transient"
	case RateLimited:
		return "rate-limited"
	case InvalidInput:
		return "invalid-input"
	case Unavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

var (
	ErrTransient    = errors.New("provider: transient failure")
	ErrRateLimited  = errors.New("provider: rate limited")
	ErrInvalidInput = errors.New("provider: invalid input")
	ErrUnavailable  = errors.New("provider: unavailable")
)

func (k Kind) sentinel() error {
	switch k {
	case RateLimited:
		return ErrRateLimited
	case InvalidInput:
		return ErrInvalidInput
	case Unavailable:
		return ErrUnavailable
	default:
		return ErrTransient
	}
}

// Error is a classified provider failure.
type Error struct {
	Provider string
	Kind     Kind
	Status   int // HTTP status when known
	Err      error
}

func NewError(provider string, kind Kind, status int, err error) *Error {
	return &Error{Provider: provider, Kind: kind, Status: status, Err: err}
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Provider, e.Kind)
	if e.Status != 0 {
		msg += fmt.Sprintf(" (status %d)", e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the sentinel of the error kind.
func (e *Error) Is(target error) bool {
	return target == e.Kind.sentinel()
}

// KindOf classifies err. Timeouts and unknown errors are Transient.
func KindOf(err error) Kind {
	var pe *Error
	switch {
	case errors.As(err, &pe):
		return pe.Kind
	case errors.Is(err, ErrRateLimited):
		return RateLimited
	case errors.Is(err, ErrInvalidInput):
		return InvalidInput
	case errors.Is(err, ErrUnavailable):
		return Unavailable
	default:
		return Transient
	}
}

// KindForStatus maps an HTTP status to a failure kind.
func KindForStatus(status int) Kind {
	switch {
	case status == 429:
		return RateLimited
	case status >= 400 && status < 500:
		return InvalidInput
	default:
		return Transient
	}
}
