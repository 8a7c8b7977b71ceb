// Package async decouples logging calls from sink delivery with a
// buffered queue drained by a background goroutine. Wrap a slow sink in
// one when callers cannot afford its write latency.
package async

import (
	"context"
	"sync"
	"time"

	"github.com/crimson-sun/sawmill/internal/model"
	"github.com/crimson-sun/sawmill/internal/sink"
)

const (
	defaultBufferSize   = 1024
	defaultDrainTimeout = 5 * time.Second
)

// Option configures an Async wrapper.
type Option func(*Async)

// WithBufferSize sets the queue capacity. Default: 1024.
func WithBufferSize(n int) Option {
	return func(a *Async) { a.bufSize = n }
}

// WithDropOnFull makes logging calls return immediately (dropping the
// event) when the queue is full, instead of blocking. Use for sinks where
// lossiness is acceptable.
func WithDropOnFull() Option {
	return func(a *Async) { a.dropOnFull = true }
}

type call struct {
	level   model.Level
	message any
}

// Async wraps a sink behind a buffered queue. Logging calls enqueue; a
// background goroutine replays them against the inner sink, so the inner
// sink stamps event timestamps at drain time, not call time.
type Async struct {
	core       *sink.Core
	inner      sink.Sink
	ch         chan call
	done       chan struct{}
	bufSize    int
	dropOnFull bool

	closeOnce sync.Once
	closeErr  error
}

// New wraps a sink in an async queue. The drain goroutine starts
// immediately.
func New(core *sink.Core, inner sink.Sink, opts ...Option) *Async {
	a := &Async{
		core:    core,
		inner:   inner,
		bufSize: defaultBufferSize,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.ch = make(chan call, a.bufSize)
	a.done = make(chan struct{})
	go a.drain()
	return a
}

func (a *Async) LogDebug(_ context.Context, message any) {
	a.enqueue(call{model.LevelDebug, message})
}

func (a *Async) LogInfo(_ context.Context, message any) {
	a.enqueue(call{model.LevelInfo, message})
}

func (a *Async) LogWarning(_ context.Context, message any) {
	a.enqueue(call{model.LevelWarning, message})
}

func (a *Async) LogError(_ context.Context, message any) {
	a.enqueue(call{model.LevelError, message})
}

// Close stops accepting events, waits for the queue to drain (with a
// timeout), then closes the inner sink. Idempotent.
func (a *Async) Close(ctx context.Context) error {
	a.closeOnce.Do(func() {
		close(a.ch)
		select {
		case <-a.done:
		case <-time.After(defaultDrainTimeout):
			a.core.Diag().Warn().Msg("async sink: drain timed out")
		}
		a.closeErr = a.inner.Close(ctx)
	})
	return a.closeErr
}

// enqueue sends the call into the queue. By default it blocks when the
// queue is full (backpressure). With WithDropOnFull the event is lost
// instead, with a note on the diag channel.
func (a *Async) enqueue(c call) {
	if a.dropOnFull {
		select {
		case a.ch <- c:
		default:
			a.core.Diag().Warn().Stringer("level", c.level).
				Msg("async sink: queue full, dropping event")
		}
		return
	}
	a.ch <- c
}

// drain replays queued calls against the inner sink in order.
func (a *Async) drain() {
	defer close(a.done)
	for c := range a.ch {
		ctx := context.Background()
		switch c.level {
		case model.LevelDebug:
			a.inner.LogDebug(ctx, c.message)
		case model.LevelInfo:
			a.inner.LogInfo(ctx, c.message)
		case model.LevelWarning:
			a.inner.LogWarning(ctx, c.message)
		case model.LevelError:
			a.inner.LogError(ctx, c.message)
		}
	}
}
