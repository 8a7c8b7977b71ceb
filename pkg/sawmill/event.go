package sawmill

import (
	"github.com/crimson-sun/sawmill/internal/model"
	"github.com/crimson-sun/sawmill/internal/sink"
)

// Event is the normalized log event delivered to every sink. This is the
// stable public type; internal representations may evolve independently
// without breaking consumers.
type Event = model.LogEvent

// Level is the severity of an event.
type Level = model.Level

// Severity levels, ordered.
const (
	LevelDebug   = model.LevelDebug
	LevelInfo    = model.LevelInfo
	LevelWarning = model.LevelWarning
	LevelError   = model.LevelError
)

// AppError is a structured application error carrying a machine-readable
// code and an optional cause chain. Logging one renders the full chain.
type AppError = model.AppError

// NewAppError creates a structured application error.
func NewAppError(code, message string, cause error) *AppError {
	return model.NewAppError(code, message, cause)
}

// Sink is a log delivery destination. Custom implementations can be
// attached with WithSink.
type Sink = sink.Sink

// Transform replaces an event as the last step before delivery.
// Applied in JSON mode only.
type Transform = sink.Transform
