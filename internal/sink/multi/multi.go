// Package multi fans out logging calls to several sinks.
package multi

import (
	"context"
	"errors"

	"github.com/crimson-sun/sawmill/internal/sink"
)

// Multi delivers every call to each wrapped sink sequentially, in the
// order the sinks were given. Sinks never return errors from logging
// calls, so one sink cannot stop delivery to the rest.
type Multi struct {
	sinks []sink.Sink
}

// New creates a Multi that fans out to the given sinks.
func New(sinks ...sink.Sink) *Multi {
	return &Multi{sinks: sinks}
}

func (m *Multi) LogDebug(ctx context.Context, message any) {
	for _, s := range m.sinks {
		s.LogDebug(ctx, message)
	}
}

func (m *Multi) LogInfo(ctx context.Context, message any) {
	for _, s := range m.sinks {
		s.LogInfo(ctx, message)
	}
}

func (m *Multi) LogWarning(ctx context.Context, message any) {
	for _, s := range m.sinks {
		s.LogWarning(ctx, message)
	}
}

func (m *Multi) LogError(ctx context.Context, message any) {
	for _, s := range m.sinks {
		s.LogError(ctx, message)
	}
}

// Close closes every wrapped sink, collecting errors.
func (m *Multi) Close(ctx context.Context) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
