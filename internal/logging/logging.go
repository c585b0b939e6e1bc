// Package logging is the structured logger shared by ghostline components.
// The terminal host owns stdout, so logs go to a file or nowhere.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"go.opentelemetry.io/otel/trace"
)

// Logger is a slog.Logger carrying a component attribute.
type Logger struct {
	*slog.Logger
}

// New returns a JSON logger writing to w.
func New(w io.Writer, component string, level slog.Level) *Logger {
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	return &Logger{Logger: slog.New(h).With(
		slog.String("component", component),
		slog.String("system", "ghostline"),
	)}
}

// NewFile opens (appending) the log file at path. The caller closes the
// returned file.
func NewFile(path, component string, level slog.Level) (*Logger, io.Closer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return New(f, component, level), f, nil
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	return &Logger{Logger: slog.New(slog.DiscardHandler)}
}

// ParseLevel maps debug/info/warn/error to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("log level %q: %w", s, err)
	}
	return l, nil
}

// Component returns a logger for a sub-component.
func (l *Logger) Component(name string) *Logger {
	return &Logger{Logger: l.Logger.With(slog.String("component", name))}
}

// WithContext adds trace and span ids of the active span, if any.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return l
	}
	return &Logger{Logger: l.Logger.With(
		slog.String("trace_id", sc.TraceID().String()),
		slog.String("span_id", sc.SpanID().String()),
	)}
}

// WithSurface returns a logger with surface-specific fields.
func (l *Logger) WithSurface(id, kind string) *Logger {
	return &Logger{Logger: l.Logger.With(
		slog.String("surface_id", id),
		slog.String("surface_kind", kind),
	)}
}

// WithProvider returns a logger with provider-specific fields.
func (l *Logger) WithProvider(id string) *Logger {
	return &Logger{Logger: l.Logger.With(slog.String("provider", id))}
}

// WithGeneration returns a logger tagged with a request generation.
func (l *Logger) WithGeneration(gen uint64) *Logger {
	return &Logger{Logger: l.Logger.With(slog.Uint64("generation", gen))}
}
