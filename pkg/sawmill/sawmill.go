package sawmill

import (
	"context"
	"fmt"
	"time"

	"github.com/crimson-sun/sawmill/internal/config"
	"github.com/crimson-sun/sawmill/internal/sink"
	"github.com/crimson-sun/sawmill/internal/sink/console"
	"github.com/crimson-sun/sawmill/internal/sink/file"
	"github.com/crimson-sun/sawmill/internal/sink/multi"
	"github.com/crimson-sun/sawmill/internal/sink/slack"
)

// Logger fans logging calls out to the configured sinks. Safe for
// concurrent use.
type Logger struct {
	core *sink.Core
	out  sink.Sink
}

// New assembles a Logger from configuration: a shared event-construction
// core plus one sink per enabled section. When both the Slack and the file
// sink are enabled, failed Slack batches are replayed to the file sink;
// without a file sink the console sink takes that role.
func New(cfg *config.Config, opts ...Option) (*Logger, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	coreOpts := []sink.Option{}
	if cfg.Timezone != "" {
		coreOpts = append(coreOpts, sink.WithTimezone(sink.Timezone(cfg.Timezone)))
	}
	if cfg.JSONFormat {
		coreOpts = append(coreOpts, sink.WithJSONFormat())
	}
	if cfg.Datadog {
		coreOpts = append(coreOpts, sink.WithDatadogIDs())
	}
	if o.transform != nil {
		coreOpts = append(coreOpts, sink.WithTransform(o.transform))
	}
	if o.diag != nil {
		coreOpts = append(coreOpts, sink.WithDiag(*o.diag))
	}
	core := sink.New(cfg.Service, cfg.Env, coreOpts...)

	var sinks []Sink
	var consoleSink *console.Sink
	if cfg.Console {
		consoleSink = console.New(core)
		sinks = append(sinks, consoleSink)
	}

	var fileSink *file.Sink
	if cfg.File != nil {
		fs, err := file.New(core, cfg.File.Directory, cfg.File.RetentionDays)
		if err != nil {
			return nil, fmt.Errorf("sawmill: %w", err)
		}
		fileSink = fs
		sinks = append(sinks, fileSink)
	}

	if cfg.Slack != nil {
		var slackOpts []slack.Option
		if cfg.Slack.Username != "" || cfg.Slack.IconEmoji != "" {
			slackOpts = append(slackOpts, slack.WithIdentity(cfg.Slack.Username, cfg.Slack.IconEmoji))
		}
		if cfg.Slack.FlushSeconds > 0 {
			slackOpts = append(slackOpts,
				slack.WithFlushInterval(time.Duration(cfg.Slack.FlushSeconds)*time.Second))
		}
		if fileSink != nil {
			slackOpts = append(slackOpts, slack.WithFallback(fileSink))
		} else if consoleSink != nil {
			slackOpts = append(slackOpts, slack.WithFallback(consoleSink))
		}

		ss, err := slack.New(core, cfg.Slack.Token, cfg.Slack.Channel, slackOpts...)
		if err != nil {
			return nil, fmt.Errorf("sawmill: %w", err)
		}
		sinks = append(sinks, ss)
	}

	sinks = append(sinks, o.extra...)
	return &Logger{core: core, out: multi.New(sinks...)}, nil
}

// Debug logs a debug event. Delivered only in the dev environment.
func (l *Logger) Debug(ctx context.Context, message any) {
	l.out.LogDebug(ctx, message)
}

// Info logs an info event.
func (l *Logger) Info(ctx context.Context, message any) {
	l.out.LogInfo(ctx, message)
}

// Warning logs a warning event.
func (l *Logger) Warning(ctx context.Context, message any) {
	l.out.LogWarning(ctx, message)
}

// Error logs an error event.
func (l *Logger) Error(ctx context.Context, message any) {
	l.out.LogError(ctx, message)
}

// Close flushes and closes every sink. Call once at shutdown.
func (l *Logger) Close(ctx context.Context) error {
	return l.out.Close(ctx)
}
