// Package sink defines the shared logging contract: the four-operation
// Sink interface every backend implements, and the Core event builder that
// turns raw messages into normalized events on the backends' behalf.
package sink

import "context"

// Sink is a concrete delivery backend for leveled log events.
//
// The four logging operations never return an error and never panic:
// delivery failures are handled inside the sink (diagnostic side channel,
// fallback replay) so that logging can never disrupt the caller's control
// flow. message may be a string, an error, or a *model.AppError.
type Sink interface {
	LogDebug(ctx context.Context, message any)
	LogInfo(ctx context.Context, message any)
	LogWarning(ctx context.Context, message any)
	LogError(ctx context.Context, message any)

	// Close releases the sink's resources, flushing anything buffered.
	// Implementations must be idempotent.
	Close(ctx context.Context) error
}
