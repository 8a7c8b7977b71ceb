// Package tracing bridges log events to the ambient distributed-tracing
// context: it reads the active OpenTelemetry span, attaches its identifiers
// to events, and converts hex IDs to the decimal form Datadog expects.
package tracing

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/crimson-sun/sawmill/internal/model"
)

// SpanLookup resolves the active span for a logging call. The default
// reads it from the context via OpenTelemetry; tests substitute their own.
type SpanLookup func(ctx context.Context) trace.Span

// Injector attaches trace context to log events.
type Injector struct {
	lookup  SpanLookup
	datadog bool
}

// NewInjector builds an Injector. When datadog is true, decimal
// ddTraceId/ddSpanId fields are derived from the hex identifiers.
// A nil lookup defaults to trace.SpanFromContext.
func NewInjector(datadog bool, lookup SpanLookup) *Injector {
	if lookup == nil {
		lookup = trace.SpanFromContext
	}
	return &Injector{lookup: lookup, datadog: datadog}
}

// Inject copies the active span's identifiers onto the event. Nothing is
// attached when no valid span context exists. For error-level events the
// active span is additionally marked with an error status carrying the
// event's message.
func (i *Injector) Inject(ctx context.Context, ev *model.LogEvent, isError bool) {
	span := i.lookup(ctx)
	sc := span.SpanContext()
	if !sc.IsValid() {
		return
	}

	ev.TraceID = sc.TraceID().String()
	ev.SpanID = sc.SpanID().String()
	ev.TraceFlags = fmt.Sprintf("%02x", byte(sc.TraceFlags()))

	if isError {
		span.SetStatus(codes.Error, ev.Message)
	}

	if i.datadog {
		if dec, err := HexToDecimal(LowerHalf(ev.TraceID)); err == nil {
			ev.DdTraceID = dec
		}
		if dec, err := HexToDecimal(ev.SpanID); err == nil {
			ev.DdSpanID = dec
		}
	}
}
