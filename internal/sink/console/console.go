// Package console implements the terminal sink: events go straight to a
// writer through zerolog, pretty-printed in plain mode and structured in
// JSON mode.
package console

import (
	"context"
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/crimson-sun/sawmill/internal/logging"
	"github.com/crimson-sun/sawmill/internal/model"
	"github.com/crimson-sun/sawmill/internal/sink"
)

// Option configures a console Sink.
type Option func(*Sink)

// WithWriter redirects output away from stdout (tests).
func WithWriter(w io.Writer) Option {
	return func(s *Sink) { s.out = w }
}

// Sink writes each event to the terminal as it arrives. There is no
// buffering; zerolog serializes concurrent writes internally.
type Sink struct {
	core *sink.Core
	out  io.Writer
	log  zerolog.Logger
}

// New creates a console sink. Plain mode renders through zerolog's console
// writer; JSON mode emits one structured line per event.
func New(core *sink.Core, opts ...Option) *Sink {
	s := &Sink{core: core, out: os.Stdout}
	for _, opt := range opts {
		opt(s)
	}
	s.log = logging.New(s.out, !core.JSONFormat(), zerolog.DebugLevel).
		With().
		Str("service", core.Service()).
		Str("env", core.Env()).
		Logger()
	return s
}

// LogDebug writes a debug event. Debug output exists only when env is dev.
func (s *Sink) LogDebug(ctx context.Context, message any) {
	if !s.core.DebugEnabled() {
		return
	}
	s.emit(ctx, model.LevelDebug, message)
}

// LogInfo writes an info event.
func (s *Sink) LogInfo(ctx context.Context, message any) {
	s.emit(ctx, model.LevelInfo, message)
}

// LogWarning writes a warning event.
func (s *Sink) LogWarning(ctx context.Context, message any) {
	s.emit(ctx, model.LevelWarning, message)
}

// LogError writes an error event.
func (s *Sink) LogError(ctx context.Context, message any) {
	s.emit(ctx, model.LevelError, message)
}

// Close implements sink.Sink. Writes are unbuffered.
func (s *Sink) Close(context.Context) error { return nil }

func (s *Sink) emit(ctx context.Context, level model.Level, message any) {
	ev := s.core.BuildEvent(ctx, level, message)

	entry := s.log.WithLevel(zerologLevel(level)).Str("time", ev.FormattedTime)
	if ev.TraceID != "" {
		entry = entry.Str("traceId", ev.TraceID).Str("spanId", ev.SpanID)
	}
	if ev.DdTraceID != "" {
		entry = entry.Str("ddTraceId", ev.DdTraceID).Str("ddSpanId", ev.DdSpanID)
	}
	entry.Msg(ev.Message)
}

func zerologLevel(l model.Level) zerolog.Level {
	switch l {
	case model.LevelDebug:
		return zerolog.DebugLevel
	case model.LevelWarning:
		return zerolog.WarnLevel
	case model.LevelError:
		return zerolog.ErrorLevel
	}
	return zerolog.InfoLevel
}
