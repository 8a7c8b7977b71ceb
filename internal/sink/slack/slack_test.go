package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	slackapi "github.com/slack-go/slack"

	"github.com/crimson-sun/sawmill/internal/model"
	"github.com/crimson-sun/sawmill/internal/sink"
)

type postCall struct {
	channel     string
	text        string
	attachments []slackapi.Attachment
}

// fakePoster records delivery calls, decoding the message options the way
// the Slack API would.
type fakePoster struct {
	mu    sync.Mutex
	err   error
	calls []postCall
}

func (f *fakePoster) PostMessageContext(_ context.Context, channel string, options ...slackapi.MsgOption) (string, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", "", f.err
	}

	_, values, err := slackapi.UnsafeApplyMsgOptions("xoxb-test", channel, slackapi.APIURL, options...)
	if err != nil {
		return "", "", err
	}
	call := postCall{channel: channel, text: values.Get("text")}
	if raw := values.Get("attachments"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &call.attachments); err != nil {
			return "", "", err
		}
	}
	f.calls = append(f.calls, call)
	return channel, "ts", nil
}

func (f *fakePoster) snapshot() []postCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]postCall(nil), f.calls...)
}

// recordingSink captures fallback replays with their levels.
type recorded struct {
	level   model.Level
	message string
}

type recordingSink struct {
	mu      sync.Mutex
	entries []recorded
}

func (r *recordingSink) log(level model.Level, message any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, recorded{level: level, message: fmt.Sprint(message)})
}

func (r *recordingSink) LogDebug(_ context.Context, m any)   { r.log(model.LevelDebug, m) }
func (r *recordingSink) LogInfo(_ context.Context, m any)    { r.log(model.LevelInfo, m) }
func (r *recordingSink) LogWarning(_ context.Context, m any) { r.log(model.LevelWarning, m) }
func (r *recordingSink) LogError(_ context.Context, m any)   { r.log(model.LevelError, m) }
func (r *recordingSink) Close(context.Context) error         { return nil }

func newSink(t *testing.T, env string, poster Poster, opts ...Option) *Sink {
	t.Helper()
	core := sink.New("svc", env)
	opts = append([]Option{WithPoster(poster), WithFlushInterval(time.Hour)}, opts...)
	s, err := New(core, "xoxb-test", "#ops", opts...)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	t.Cleanup(func() { s.Close(context.Background()) })
	return s
}

func TestConstructionValidation(t *testing.T) {
	core := sink.New("svc", "prod")
	if _, err := New(core, "", "#ops"); err == nil {
		t.Error("expected error for empty token")
	}
	if _, err := New(core, "xoxb-test", ""); err == nil {
		t.Error("expected error for empty channel")
	}
	if _, err := New(core, "xoxb-test", "#ops", WithFlushInterval(-time.Second)); err == nil {
		t.Error("expected error for negative flush interval")
	}
}

func TestFlushDeliversBatchInOrder(t *testing.T) {
	poster := &fakePoster{}
	s := newSink(t, "prod", poster)

	s.LogInfo(context.Background(), "one")
	s.LogWarning(context.Background(), "two")
	s.LogError(context.Background(), "three")
	s.flush(context.Background())

	calls := poster.snapshot()
	if len(calls) != 1 {
		t.Fatalf("got %d delivery calls, want 1", len(calls))
	}
	if calls[0].channel != "#ops" {
		t.Errorf("channel = %q", calls[0].channel)
	}
	if calls[0].text != "svc [prod]" {
		t.Errorf("header = %q, want %q", calls[0].text, "svc [prod]")
	}
	got := calls[0].attachments
	if len(got) != 3 {
		t.Fatalf("got %d attachments, want 3", len(got))
	}
	for i, want := range []string{"one", "two", "three"} {
		if got[i].Text != want {
			t.Errorf("attachment %d = %q, want %q (append order)", i, got[i].Text, want)
		}
	}
}

func TestLevelColorAccents(t *testing.T) {
	poster := &fakePoster{}
	s := newSink(t, "dev", poster)

	s.LogDebug(context.Background(), "d")
	s.LogInfo(context.Background(), "i")
	s.LogWarning(context.Background(), "w")
	s.LogError(context.Background(), "e")
	s.flush(context.Background())

	atts := poster.snapshot()[0].attachments
	want := []string{"F8F8F8", "259D2F", "F1AB2A", "EF401D"}
	if len(atts) != 4 {
		t.Fatalf("got %d attachments, want 4", len(atts))
	}
	for i, color := range want {
		if !strings.EqualFold(strings.TrimPrefix(atts[i].Color, "#"), color) {
			t.Errorf("attachment %d color = %q, want #%s", i, atts[i].Color, color)
		}
	}
}

func TestAllowListRestrictsLevels(t *testing.T) {
	poster := &fakePoster{}
	s := newSink(t, "prod", poster, WithLevels(model.LevelError))

	s.LogInfo(context.Background(), "x")
	s.LogError(context.Background(), "y")
	s.flush(context.Background())

	calls := poster.snapshot()
	if len(calls) != 1 {
		t.Fatalf("got %d delivery calls, want 1", len(calls))
	}
	atts := calls[0].attachments
	if len(atts) != 1 || atts[0].Text != "y" {
		t.Errorf("attachments = %+v, want exactly the error event", atts)
	}
}

func TestPredicateFilter(t *testing.T) {
	poster := &fakePoster{}
	s := newSink(t, "prod", poster, WithFilter(func(ev model.LogEvent) bool {
		return !strings.Contains(ev.Message, "noisy")
	}))

	s.LogInfo(context.Background(), "noisy heartbeat")
	s.LogInfo(context.Background(), "kept")
	s.flush(context.Background())

	atts := poster.snapshot()[0].attachments
	if len(atts) != 1 || atts[0].Text != "kept" {
		t.Errorf("attachments = %+v", atts)
	}
}

func TestDebugBufferedOnlyInDev(t *testing.T) {
	prodPoster := &fakePoster{}
	prod := newSink(t, "prod", prodPoster)
	prod.LogDebug(context.Background(), "noise")
	prod.flush(context.Background())
	if len(prodPoster.snapshot()) != 0 {
		t.Error("debug event delivered outside dev")
	}

	devPoster := &fakePoster{}
	dev := newSink(t, "dev", devPoster)
	dev.LogDebug(context.Background(), "noise")
	dev.flush(context.Background())
	calls := devPoster.snapshot()
	if len(calls) != 1 || len(calls[0].attachments) != 1 {
		t.Errorf("debug event missing in dev: %+v", calls)
	}
}

func TestEmptyBatchSkipsDelivery(t *testing.T) {
	poster := &fakePoster{}
	s := newSink(t, "prod", poster)

	s.flush(context.Background())

	if len(poster.snapshot()) != 0 {
		t.Error("flush posted a message for an empty batch")
	}
}

func TestFailureReplaysToFallback(t *testing.T) {
	poster := &fakePoster{err: errors.New("channel_not_found")}
	fallback := &recordingSink{}
	s := newSink(t, "prod", poster, WithFallback(fallback))

	s.LogWarning(context.Background(), "w1")
	s.LogError(context.Background(), "e1")
	s.LogInfo(context.Background(), "i1")
	s.flush(context.Background())

	want := []recorded{
		{model.LevelWarning, framingFailed},
		{model.LevelWarning, framingOriginal},
		{model.LevelWarning, "w1"},
		{model.LevelError, "e1"},
		{model.LevelInfo, "i1"},
	}
	fallback.mu.Lock()
	defer fallback.mu.Unlock()
	if len(fallback.entries) != len(want) {
		t.Fatalf("got %d fallback entries, want %d: %+v", len(fallback.entries), len(want), fallback.entries)
	}
	for i, w := range want {
		if fallback.entries[i] != w {
			t.Errorf("entry %d = %+v, want %+v", i, fallback.entries[i], w)
		}
	}
}

func TestFailureWithoutFallbackGoesToDiag(t *testing.T) {
	var diag bytes.Buffer
	core := sink.New("svc", "prod", sink.WithDiag(zerolog.New(&diag)))
	poster := &fakePoster{err: errors.New("timeout")}
	s, err := New(core, "xoxb-test", "#ops", WithPoster(poster), WithFlushInterval(time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close(context.Background())

	s.LogError(context.Background(), "boom")
	s.flush(context.Background())

	out := diag.String()
	for _, want := range []string{framingFailed, framingOriginal, "boom"} {
		if !strings.Contains(out, want) {
			t.Errorf("diag output missing %q:\n%s", want, out)
		}
	}
}

func TestTimerDrivenFlush(t *testing.T) {
	poster := &fakePoster{}
	core := sink.New("svc", "prod")
	s, err := New(core, "xoxb-test", "#ops", WithPoster(poster), WithFlushInterval(20*time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close(context.Background())

	s.LogInfo(context.Background(), "tick")

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if len(poster.snapshot()) > 0 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("timer never flushed the batch")
}

func TestCloseFlushesOnceAndIsIdempotent(t *testing.T) {
	poster := &fakePoster{}
	core := sink.New("svc", "prod")
	s, err := New(core, "xoxb-test", "#ops", WithPoster(poster), WithFlushInterval(time.Hour))
	if err != nil {
		t.Fatal(err)
	}

	s.LogInfo(context.Background(), "last words")

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.Close(context.Background()); err != nil {
				t.Errorf("Close error: %v", err)
			}
		}()
	}
	wg.Wait()

	calls := poster.snapshot()
	if len(calls) != 1 {
		t.Fatalf("got %d delivery calls from %d Close calls, want 1", len(calls), 4)
	}
	if len(calls[0].attachments) != 1 || calls[0].attachments[0].Text != "last words" {
		t.Errorf("final flush payload = %+v", calls[0].attachments)
	}
}

// Appends racing a flush must deliver every event exactly once.
func TestConcurrentAppendsNeverLostOrDuplicated(t *testing.T) {
	poster := &fakePoster{}
	s := newSink(t, "prod", poster)

	const producers = 10
	const perProducer = 20

	var wg sync.WaitGroup
	stopFlushing := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stopFlushing:
				return
			default:
				s.flush(context.Background())
			}
		}
	}()

	var producerWg sync.WaitGroup
	for p := 0; p < producers; p++ {
		producerWg.Add(1)
		go func(p int) {
			defer producerWg.Done()
			for i := 0; i < perProducer; i++ {
				s.LogInfo(context.Background(), fmt.Sprintf("p%d-%d", p, i))
			}
		}(p)
	}
	producerWg.Wait()
	close(stopFlushing)
	wg.Wait()
	s.flush(context.Background())

	seen := make(map[string]int)
	total := 0
	for _, call := range poster.snapshot() {
		for _, att := range call.attachments {
			seen[att.Text]++
			total++
		}
	}
	if total != producers*perProducer {
		t.Errorf("delivered %d events, want %d", total, producers*perProducer)
	}
	for msg, n := range seen {
		if n != 1 {
			t.Errorf("event %q delivered %d times", msg, n)
		}
	}
}
