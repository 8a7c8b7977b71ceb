// Package file implements the rotating file sink: hour-partitioned append
// files under one directory, bounded by a retention window.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/crimson-sun/sawmill/internal/model"
	"github.com/crimson-sun/sawmill/internal/sink"
)

const (
	fileSuffix = ".log"

	// hourPrefixLen is the length of "YYYY-MM-DDTHH" in a formatted
	// timestamp; it names the target file for an event.
	hourPrefixLen = 13
)

// Sink appends events to one file per calendar hour and evicts files older
// than the retention window. All appends and purges are serialized by an
// exclusive in-process lock; multi-process writers are not supported.
type Sink struct {
	core      *sink.Core
	dir       string
	retention time.Duration

	mu         sync.Mutex
	lastPurged time.Time // guarded by mu
}

// New creates a file sink rooted at dir, which must be an absolute path
// (created if absent). retentionDays bounds how long rotated files are
// kept and must be positive.
func New(core *sink.Core, dir string, retentionDays int) (*Sink, error) {
	if !filepath.IsAbs(dir) {
		return nil, fmt.Errorf("file sink: directory must be absolute, got %q", dir)
	}
	if retentionDays <= 0 {
		return nil, fmt.Errorf("file sink: retention days must be positive, got %d", retentionDays)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("file sink: create directory: %w", err)
	}

	return &Sink{
		core:      core,
		dir:       dir,
		retention: time.Duration(retentionDays) * 24 * time.Hour,
	}, nil
}

// LogDebug writes a debug event. Debug output exists only when env is dev.
func (s *Sink) LogDebug(ctx context.Context, message any) {
	if !s.core.DebugEnabled() {
		return
	}
	s.write(ctx, model.LevelDebug, message)
}

// LogInfo writes an info event.
func (s *Sink) LogInfo(ctx context.Context, message any) {
	s.write(ctx, model.LevelInfo, message)
}

// LogWarning writes a warning event.
func (s *Sink) LogWarning(ctx context.Context, message any) {
	s.write(ctx, model.LevelWarning, message)
}

// LogError writes an error event.
func (s *Sink) LogError(ctx context.Context, message any) {
	s.write(ctx, model.LevelError, message)
}

// Close implements sink.Sink. Appends open and close the hour file per
// write, so there is nothing to flush.
func (s *Sink) Close(context.Context) error { return nil }

// write builds the event and appends it under the exclusive lock, then
// triggers a purge check. Durability is best-effort: append failures are
// reported on the diagnostic side channel, never to the caller.
func (s *Sink) write(ctx context.Context, level model.Level, message any) {
	ev := s.core.BuildEvent(ctx, level, message)

	var line string
	if s.core.JSONFormat() {
		data, err := json.Marshal(ev)
		if err != nil {
			s.core.Diag().Error().Err(err).Msg("file sink: encode event")
			return
		}
		line = string(data)
	} else {
		line = s.core.PlainLine(ev)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.appendLocked(ev.FormattedTime, line); err != nil {
		s.core.Diag().Error().Err(err).Msg("file sink: append failed")
	}
	s.purgeLocked()
}

// appendLocked appends one newline-prefixed line to the hour file named by
// the event's formatted timestamp. Caller must hold s.mu.
func (s *Sink) appendLocked(formattedTime, line string) error {
	if len(formattedTime) < hourPrefixLen {
		return fmt.Errorf("malformed timestamp %q", formattedTime)
	}
	name := formattedTime[:hourPrefixLen] + fileSuffix

	f, err := os.OpenFile(filepath.Join(s.dir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("open %s: %w", name, err)
	}
	if _, err := f.WriteString("\n" + line); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", name, err)
	}
	return f.Close()
}

// purgeLocked deletes log files older than the retention window, at most
// once per window. File mod time stands in for creation time: the platform
// exposes no portable birth time, so a file ages from its last write.
// Hour partitioning keeps that drift under one hour. Caller must hold s.mu.
func (s *Sink) purgeLocked() {
	now := s.core.Now()
	if now.Sub(s.lastPurged) < s.retention {
		return
	}
	s.lastPurged = now

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		s.core.Diag().Warn().Err(err).Msg("file sink: purge scan failed")
		return
	}

	cutoff := now.Add(-s.retention)
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != fileSuffix {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(s.dir, entry.Name())); err != nil {
				s.core.Diag().Warn().Err(err).Str("file", entry.Name()).Msg("file sink: purge remove failed")
				continue
			}
			s.core.Diag().Debug().Str("file", entry.Name()).Msg("file sink: purged expired log file")
		}
	}
}
