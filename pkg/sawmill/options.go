package sawmill

import (
	"github.com/rs/zerolog"
)

type options struct {
	transform Transform
	diag      *zerolog.Logger
	extra     []Sink
}

// Option customizes a Logger beyond what configuration expresses.
type Option func(*options)

// WithTransform sets the event transform applied before delivery.
// It only runs in JSON mode.
func WithTransform(t Transform) Option {
	return func(o *options) { o.transform = t }
}

// WithDiag overrides the diagnostic side channel. Default: JSON to stderr.
func WithDiag(l zerolog.Logger) Option {
	return func(o *options) { o.diag = &l }
}

// WithSink attaches an additional delivery destination alongside the
// configured ones.
func WithSink(s Sink) Option {
	return func(o *options) { o.extra = append(o.extra, s) }
}
