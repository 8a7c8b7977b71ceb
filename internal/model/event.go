package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// Level classifies the severity of a log event. The zero value is Debug.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarning
	LevelError
)

// String returns the canonical level name used in structured output.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "Debug"
	case LevelInfo:
		return "Info"
	case LevelWarning:
		return "Warn"
	case LevelError:
		return "Error"
	}
	return fmt.Sprintf("Level(%d)", int(l))
}

// Prefix returns the plain-text line prefix for the level.
func (l Level) Prefix() string {
	switch l {
	case LevelDebug:
		return "APP DEBUG:"
	case LevelInfo:
		return "APP INFO:"
	case LevelWarning:
		return "APP WARNING:"
	case LevelError:
		return "APP ERROR:"
	}
	return "APP INFO:"
}

// MarshalJSON encodes the level as its canonical name.
func (l Level) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.String())
}

// UnmarshalJSON decodes a canonical level name. Unknown names are rejected
// so a decoded event always carries one of the four enumerated levels.
func (l *Level) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	switch s {
	case "Debug":
		*l = LevelDebug
	case "Info":
		*l = LevelInfo
	case "Warn", "Warning":
		*l = LevelWarning
	case "Error":
		*l = LevelError
	default:
		return fmt.Errorf("model: unknown log level %q", s)
	}
	return nil
}

// LogEvent is the normalized unit of output shared by all sinks.
// It is created fresh per logging call and treated as immutable once
// handed to a sink; only a caller-supplied transform may replace it
// before delivery.
type LogEvent struct {
	ID            string    `json:"id"`
	Source        string    `json:"source"`
	Service       string    `json:"service"`
	Env           string    `json:"env"`
	Level         Level     `json:"level"`
	Message       string    `json:"message"`
	FormattedTime string    `json:"formattedTime"`
	RawTime       time.Time `json:"rawTime"`

	// Trace linkage, populated when an active span exists.
	TraceID    string `json:"traceId,omitempty"`
	SpanID     string `json:"spanId,omitempty"`
	TraceFlags string `json:"traceFlags,omitempty"`

	// Datadog decimal IDs, populated when cross-vendor conversion is on.
	DdTraceID string `json:"ddTraceId,omitempty"`
	DdSpanID  string `json:"ddSpanId,omitempty"`
}
