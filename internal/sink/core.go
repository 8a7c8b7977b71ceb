package sink

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/crimson-sun/sawmill/internal/logging"
	"github.com/crimson-sun/sawmill/internal/model"
	"github.com/crimson-sun/sawmill/internal/tracing"
)

// Timezone selects the zone used to format event timestamps.
type Timezone string

const (
	TZUTC     Timezone = "utc"
	TZLocal   Timezone = "local"
	TZTokyo   Timezone = "tokyo"
	TZNewYork Timezone = "newyork"
)

const (
	// eventSource is the fixed process-kind tag stamped on every event.
	eventSource = "app"

	defaultService = "sawmill"
	defaultEnv     = "prod"

	// renderFallback replaces a message whose rendering failed or came
	// out empty; events never carry an empty message.
	renderFallback = "log message could not be rendered"

	// timeLayout is ISO-8601 with millisecond precision and zone offset.
	timeLayout = "2006-01-02T15:04:05.000-07:00"
)

// Transform replaces an event as the last step before delivery.
// Applied in JSON mode only.
type Transform func(model.LogEvent) model.LogEvent

// Option configures a Core.
type Option func(*Core)

// WithTimezone sets the zone events are formatted in. Default: UTC.
// Unrecognized zones silently fall back to UTC.
func WithTimezone(tz Timezone) Option {
	return func(c *Core) { c.loc = tz.location() }
}

// WithJSONFormat makes sinks render one JSON-encoded event per output unit
// instead of single-line prefixed plain text.
func WithJSONFormat() Option {
	return func(c *Core) { c.json = true }
}

// WithTransform sets the event transform applied before delivery.
// It only runs in JSON mode.
func WithTransform(t Transform) Option {
	return func(c *Core) { c.transform = t }
}

// WithDatadogIDs enables cross-vendor trace conversion: decimal
// ddTraceId/ddSpanId fields derived from the hex span identifiers.
func WithDatadogIDs() Option {
	return func(c *Core) { c.datadog = true }
}

// WithDiag overrides the diagnostic side channel. Default: JSON to stderr.
func WithDiag(l zerolog.Logger) Option {
	return func(c *Core) { c.diag = l }
}

// WithSpanLookup substitutes the capability that resolves the active
// tracing span. Default: OpenTelemetry's context lookup.
func WithSpanLookup(lookup tracing.SpanLookup) Option {
	return func(c *Core) { c.lookup = lookup }
}

// WithClock substitutes the time source (tests).
func WithClock(now func() time.Time) Option {
	return func(c *Core) { c.now = now }
}

// Core builds normalized log events on behalf of sinks. Identity (service,
// env) and the formatting zone are resolved once at construction and stay
// immutable for the life of every sink sharing the Core.
type Core struct {
	service   string
	env       string
	loc       *time.Location
	json      bool
	transform Transform
	datadog   bool
	lookup    tracing.SpanLookup
	injector  *tracing.Injector
	diag      zerolog.Logger
	now       func() time.Time
}

// New creates a Core for the given service identity. Empty service or env
// fall back to fixed literals; env is lower-cased.
func New(service, env string, opts ...Option) *Core {
	c := &Core{
		service: service,
		env:     env,
		loc:     time.UTC,
		diag:    logging.New(os.Stderr, false, zerolog.InfoLevel),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.service == "" {
		c.service = defaultService
	}
	if c.env == "" {
		c.env = defaultEnv
	}
	c.env = strings.ToLower(c.env)
	c.injector = tracing.NewInjector(c.datadog, c.lookup)
	return c
}

// BuildEvent materializes a normalized event for one logging call.
func (c *Core) BuildEvent(ctx context.Context, level model.Level, message any) model.LogEvent {
	now := c.now()
	ev := model.LogEvent{
		ID:            uuid.NewString(),
		Source:        eventSource,
		Service:       c.service,
		Env:           c.env,
		Level:         level,
		Message:       c.ErrorMessage(message),
		FormattedTime: now.In(c.loc).Format(timeLayout),
		RawTime:       now.UTC(),
	}
	c.injector.Inject(ctx, &ev, level == model.LevelError)
	if c.json && c.transform != nil {
		ev = c.transform(ev)
	}
	return ev
}

// ErrorMessage renders a logging-call argument as a message string using
// explicit classification: structured AppError (full cause chain), generic
// error (its Error text), or any other value (default string form).
// Rendering itself must never raise: a panic is reported on the diag
// channel and replaced with a fixed fallback message. The error branch
// calls Error directly rather than going through fmt, which would swallow
// the panic and embed it in the output.
func (c *Core) ErrorMessage(input any) (msg string) {
	defer func() {
		if r := recover(); r != nil {
			c.diag.Warn().Interface("panic", r).Msg("log message rendering failed")
			msg = renderFallback
		}
	}()

	switch v := input.(type) {
	case *model.AppError:
		msg = v.Verbose()
	case error:
		msg = v.Error()
	case string:
		msg = v
	case fmt.Stringer:
		msg = v.String()
	default:
		msg = fmt.Sprint(v)
	}
	if msg == "" {
		msg = renderFallback
	}
	return msg
}

// FormatNow renders the current instant in the configured zone.
func (c *Core) FormatNow() string {
	return c.now().In(c.loc).Format(timeLayout)
}

// PlainLine renders the single-line plain-text form of an event.
func (c *Core) PlainLine(ev model.LogEvent) string {
	return ev.FormattedTime + " " + ev.Level.Prefix() + " " + ev.Message
}

// JSONFormat reports whether sinks should render structured events.
func (c *Core) JSONFormat() bool { return c.json }

// DebugEnabled reports whether debug-level events are delivered.
// Debug output exists only in the dev environment.
func (c *Core) DebugEnabled() bool { return c.env == "dev" }

// Service returns the resolved logical application name.
func (c *Core) Service() string { return c.service }

// Env returns the resolved deployment environment tag.
func (c *Core) Env() string { return c.env }

// Now returns the current instant from the configured clock.
func (c *Core) Now() time.Time { return c.now() }

// Diag exposes the diagnostic side channel.
func (c *Core) Diag() *zerolog.Logger { return &c.diag }

// location resolves the Timezone enum, falling back to UTC for anything
// unrecognized or unloadable.
func (tz Timezone) location() *time.Location {
	switch tz {
	case TZLocal:
		return time.Local
	case TZTokyo:
		if loc, err := time.LoadLocation("Asia/Tokyo"); err == nil {
			return loc
		}
	case TZNewYork:
		if loc, err := time.LoadLocation("America/New_York"); err == nil {
			return loc
		}
	}
	return time.UTC
}
