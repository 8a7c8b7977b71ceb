package multi

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/crimson-sun/sawmill/internal/model"
)

type spySink struct {
	name     string
	calls    *[]string
	closeErr error
	closed   int
}

func (s *spySink) record(level model.Level, message any) {
	*s.calls = append(*s.calls, fmt.Sprintf("%s/%s/%v", s.name, level, message))
}

func (s *spySink) LogDebug(_ context.Context, m any)   { s.record(model.LevelDebug, m) }
func (s *spySink) LogInfo(_ context.Context, m any)    { s.record(model.LevelInfo, m) }
func (s *spySink) LogWarning(_ context.Context, m any) { s.record(model.LevelWarning, m) }
func (s *spySink) LogError(_ context.Context, m any)   { s.record(model.LevelError, m) }

func (s *spySink) Close(context.Context) error {
	s.closed++
	return s.closeErr
}

func TestFanOutPreservesSinkOrder(t *testing.T) {
	var calls []string
	a := &spySink{name: "a", calls: &calls}
	b := &spySink{name: "b", calls: &calls}
	m := New(a, b)

	m.LogInfo(context.Background(), "x")
	m.LogError(context.Background(), "y")

	want := []string{"a/Info/x", "b/Info/x", "a/Error/y", "b/Error/y"}
	if len(calls) != len(want) {
		t.Fatalf("calls = %v, want %v", calls, want)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Errorf("call %d = %q, want %q", i, calls[i], want[i])
		}
	}
}

func TestCloseClosesAllAndJoinsErrors(t *testing.T) {
	var calls []string
	a := &spySink{name: "a", calls: &calls, closeErr: errors.New("a failed")}
	b := &spySink{name: "b", calls: &calls}
	c := &spySink{name: "c", calls: &calls, closeErr: errors.New("c failed")}
	m := New(a, b, c)

	err := m.Close(context.Background())

	for _, s := range []*spySink{a, b, c} {
		if s.closed != 1 {
			t.Errorf("sink %s closed %d times, want 1", s.name, s.closed)
		}
	}
	if err == nil {
		t.Fatal("expected joined close errors")
	}
	for _, want := range []string{"a failed", "c failed"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("joined error missing %q: %v", want, err)
		}
	}
}

func TestEmptyMultiIsInert(t *testing.T) {
	m := New()
	m.LogInfo(context.Background(), "x")
	if err := m.Close(context.Background()); err != nil {
		t.Errorf("Close error: %v", err)
	}
}
