// Package slack implements the batched remote sink: events accumulate in
// memory and are delivered to a Slack channel as one themed message per
// flush tick, degrading to a fallback sink when delivery fails.
package slack

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	slackapi "github.com/slack-go/slack"

	"github.com/crimson-sun/sawmill/internal/model"
	"github.com/crimson-sun/sawmill/internal/sink"
)

const defaultFlushInterval = 30 * time.Second

// Color accents per level, applied to message attachments.
const (
	colorDebug = "#F8F8F8"
	colorInfo  = "#259D2F"
	colorWarn  = "#F1AB2A"
	colorError = "#EF401D"
)

// Framing lines emitted before a failed batch is replayed.
const (
	framingFailed   = "slack delivery failed"
	framingOriginal = "original messages below"
)

// Poster delivers one batched message. *slackapi.Client satisfies it;
// tests substitute a recording fake.
type Poster interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error)
}

// Option configures a slack Sink.
type Option func(*Sink)

// WithLevels restricts delivery to the given levels. Default: all levels
// (debug stays gated on the dev environment regardless).
func WithLevels(levels ...model.Level) Option {
	return func(s *Sink) {
		s.levels = make(map[model.Level]bool, len(levels))
		for _, l := range levels {
			s.levels[l] = true
		}
	}
}

// WithFilter sets a per-event predicate; events failing it are dropped
// before buffering.
func WithFilter(f func(model.LogEvent) bool) Option {
	return func(s *Sink) { s.filter = f }
}

// WithFallback sets the sink that receives buffered events when delivery
// fails. Without one, failed batches go to the diagnostic side channel.
func WithFallback(fb sink.Sink) Option {
	return func(s *Sink) { s.fallback = fb }
}

// WithFlushInterval overrides the flush cadence. Default: 30s.
func WithFlushInterval(d time.Duration) Option {
	return func(s *Sink) { s.interval = d }
}

// WithIdentity sets the display name and icon emoji on outgoing messages.
func WithIdentity(username, iconEmoji string) Option {
	return func(s *Sink) {
		s.username = username
		s.iconEmoji = iconEmoji
	}
}

// WithPoster substitutes the delivery client (tests).
func WithPoster(p Poster) Option {
	return func(s *Sink) { s.poster = p }
}

// Sink buffers events in memory and posts them to one Slack channel on a
// fixed cadence. Buffering is a pure in-memory append and never blocks on
// network I/O; the batch is swapped atomically at flush time so producers
// never lose or duplicate events while a flush is in flight.
type Sink struct {
	core      *sink.Core
	poster    Poster
	channel   string
	username  string
	iconEmoji string
	levels    map[model.Level]bool
	filter    func(model.LogEvent) bool
	fallback  sink.Sink
	interval  time.Duration

	mu      sync.Mutex
	pending []model.LogEvent

	ticker   *time.Ticker
	stop     chan struct{}
	loopDone chan struct{}

	closeOnce sync.Once
	closed    chan struct{}
}

// New creates a slack sink posting to the given channel with the given bot
// token. The recurring flush starts immediately.
func New(core *sink.Core, token, channel string, opts ...Option) (*Sink, error) {
	if token == "" {
		return nil, errors.New("slack sink: bot token is required")
	}
	if channel == "" {
		return nil, errors.New("slack sink: channel is required")
	}

	s := &Sink{
		core:     core,
		channel:  channel,
		interval: defaultFlushInterval,
		levels: map[model.Level]bool{
			model.LevelDebug:   true,
			model.LevelInfo:    true,
			model.LevelWarning: true,
			model.LevelError:   true,
		},
		stop:     make(chan struct{}),
		loopDone: make(chan struct{}),
		closed:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.interval <= 0 {
		return nil, fmt.Errorf("slack sink: flush interval must be positive, got %v", s.interval)
	}
	if s.poster == nil {
		s.poster = slackapi.New(token)
	}

	s.ticker = time.NewTicker(s.interval)
	go s.loop()
	return s, nil
}

// LogDebug buffers a debug event. Debug output exists only when env is dev.
func (s *Sink) LogDebug(ctx context.Context, message any) {
	if !s.core.DebugEnabled() {
		return
	}
	s.buffer(ctx, model.LevelDebug, message)
}

// LogInfo buffers an info event.
func (s *Sink) LogInfo(ctx context.Context, message any) {
	s.buffer(ctx, model.LevelInfo, message)
}

// LogWarning buffers a warning event.
func (s *Sink) LogWarning(ctx context.Context, message any) {
	s.buffer(ctx, model.LevelWarning, message)
}

// LogError buffers an error event.
func (s *Sink) LogError(ctx context.Context, message any) {
	s.buffer(ctx, model.LevelError, message)
}

// Close cancels the recurring flush and performs one final flush. It is
// idempotent: the first call does the work, later calls wait for and share
// that call's completion.
func (s *Sink) Close(ctx context.Context) error {
	s.closeOnce.Do(func() {
		s.ticker.Stop()
		close(s.stop)
		<-s.loopDone
		s.flush(ctx)
		close(s.closed)
	})
	<-s.closed
	return nil
}

// buffer builds the event, applies the allow-list and predicate filter,
// and appends it to the current batch.
func (s *Sink) buffer(ctx context.Context, level model.Level, message any) {
	if !s.levels[level] {
		return
	}
	ev := s.core.BuildEvent(ctx, level, message)
	if s.filter != nil && !s.filter(ev) {
		return
	}

	s.mu.Lock()
	s.pending = append(s.pending, ev)
	s.mu.Unlock()
}

// loop flushes on every tick until Close stops it.
func (s *Sink) loop() {
	defer close(s.loopDone)
	for {
		select {
		case <-s.ticker.C:
			s.flush(context.Background())
		case <-s.stop:
			return
		}
	}
}

// flush swaps the batch for an empty one and attempts a single delivery
// carrying every buffered event. On failure the batch is replayed to the
// fallback sink in order, levels preserved.
func (s *Sink) flush(ctx context.Context) {
	s.mu.Lock()
	batch := s.pending
	s.pending = nil
	s.mu.Unlock()

	if len(batch) == 0 {
		return
	}

	if err := s.deliver(ctx, batch); err != nil {
		s.core.Diag().Warn().Err(err).Int("events", len(batch)).Msg("slack sink: delivery failed")
		s.replay(ctx, batch)
	}
}

// deliver posts the whole batch as one message: a header line with the
// service identity and one color-accented attachment per event.
func (s *Sink) deliver(ctx context.Context, batch []model.LogEvent) error {
	attachments := make([]slackapi.Attachment, len(batch))
	for i, ev := range batch {
		attachments[i] = slackapi.Attachment{
			Color:  levelColor(ev.Level),
			Text:   ev.Message,
			Footer: ev.FormattedTime,
		}
	}

	opts := []slackapi.MsgOption{
		slackapi.MsgOptionText(fmt.Sprintf("%s [%s]", s.core.Service(), s.core.Env()), false),
		slackapi.MsgOptionAttachments(attachments...),
	}
	if s.username != "" {
		opts = append(opts, slackapi.MsgOptionUsername(s.username))
	}
	if s.iconEmoji != "" {
		opts = append(opts, slackapi.MsgOptionIconEmoji(s.iconEmoji))
	}

	if _, _, err := s.poster.PostMessageContext(ctx, s.channel, opts...); err != nil {
		return fmt.Errorf("slack sink: post message: %w", err)
	}
	return nil
}

// replay hands a failed batch to the fallback sink after two framing
// warnings, preserving each event's original level and order. Without a
// fallback the same output goes to the diagnostic side channel.
func (s *Sink) replay(ctx context.Context, batch []model.LogEvent) {
	if s.fallback == nil {
		diag := s.core.Diag()
		diag.Warn().Msg(framingFailed)
		diag.Warn().Msg(framingOriginal)
		for _, ev := range batch {
			diag.WithLevel(diagLevel(ev.Level)).Str("time", ev.FormattedTime).Msg(ev.Message)
		}
		return
	}

	s.fallback.LogWarning(ctx, framingFailed)
	s.fallback.LogWarning(ctx, framingOriginal)
	for _, ev := range batch {
		switch ev.Level {
		case model.LevelDebug:
			s.fallback.LogDebug(ctx, ev.Message)
		case model.LevelInfo:
			s.fallback.LogInfo(ctx, ev.Message)
		case model.LevelWarning:
			s.fallback.LogWarning(ctx, ev.Message)
		case model.LevelError:
			s.fallback.LogError(ctx, ev.Message)
		}
	}
}

func levelColor(l model.Level) string {
	switch l {
	case model.LevelDebug:
		return colorDebug
	case model.LevelInfo:
		return colorInfo
	case model.LevelWarning:
		return colorWarn
	case model.LevelError:
		return colorError
	}
	return colorInfo
}

func diagLevel(l model.Level) zerolog.Level {
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
