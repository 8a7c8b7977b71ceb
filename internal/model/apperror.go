package model

import (
	"errors"
	"strings"
)

// AppError is a structured application error: a stable code, a
// human-readable message, and an optional chained cause. Sinks render it
// with the full cause chain; plain errors render their default form.
type AppError struct {
	Code    string
	Message string
	Cause   error
}

// NewAppError builds an AppError. cause may be nil.
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{Code: code, Message: message, Cause: cause}
}

func (e *AppError) Error() string {
	if e.Code == "" {
		return e.Message
	}
	return e.Code + ": " + e.Message
}

// Unwrap exposes the cause for errors.Is / errors.As.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Verbose renders the full diagnostic string, walking the cause chain.
func (e *AppError) Verbose() string {
	var b strings.Builder
	b.WriteString(e.Error())
	for cause := e.Cause; cause != nil; cause = errors.Unwrap(cause) {
		b.WriteString(" <- ")
		b.WriteString(cause.Error())
	}
	return b.String()
}
