package resilience

import (
	"errors"
	"testing"
	"time"
)

var errTest = errors.New("service unavailable")

func newTestBreaker(maxFailures int) (*Breaker, *time.Time) {
	now := time.Now()
	b := NewBreaker("test", maxFailures, time.Second)
	b.now = func() time.Time { return now }
	b.OnStateChange(nil)
	return b, &now
}

func TestClosedStateAllowsCalls(t *testing.T) {
	b, _ := newTestBreaker(3)
	called := false
	err := b.Execute(func() error {
		called = true
		return nil
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !called {
		t.Fatal("expected fn to be called")
	}
	if b.State() != StateClosed {
		t.Fatalf("expected closed, got %s", b.State())
	}
}

func TestOpensAfterMaxFailures(t *testing.T) {
	b, _ := newTestBreaker(3)

	for range 3 {
		_ = b.Execute(func() error { return errTest })
	}

	err := b.Execute(func() error { return nil })
	if !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
	if b.State() != StateOpen {
		t.Fatalf("expected open, got %s", b.State())
	}
}

func TestHalfOpenProbeCloses(t *testing.T) {
	b, now := newTestBreaker(2)

	for range 2 {
		_ = b.Execute(func() error { return errTest })
	}
	*now = now.Add(2 * time.Second)

	if b.State() != StateHalfOpen {
		t.Fatalf("expected half_open after timeout, got %s", b.State())
	}

	called := false
	if err := b.Execute(func() error {
		called = true
		return nil
	}); err != nil {
		t.Fatalf("expected probe to pass, got %v", err)
	}
	if !called {
		t.Fatal("expected probe to run")
	}
	if b.State() != StateClosed {
		t.Fatalf("expected closed after successful probe, got %s", b.State())
	}
}

func TestHalfOpenAllowsSingleProbe(t *testing.T) {
	b, now := newTestBreaker(1)
	_ = b.Execute(func() error { return errTest })
	*now = now.Add(2 * time.Second)

	err := b.Execute(func() error {
		// A concurrent caller arriving while the probe is in flight is rejected.
		if inner := b.Execute(func() error { return nil }); !errors.Is(inner, ErrCircuitOpen) {
			t.Errorf("expected second caller to be rejected, got %v", inner)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("probe failed: %v", err)
	}
}

func TestHalfOpenFailureReopens(t *testing.T) {
	b, now := newTestBreaker(2)

	for range 2 {
		_ = b.Execute(func() error { return errTest })
	}
	*now = now.Add(2 * time.Second)

	_ = b.Execute(func() error { return errTest })

	if b.State() != StateOpen {
		t.Fatalf("expected open after failed probe, got %s", b.State())
	}
	if err := b.Execute(func() error { return nil }); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen after reopen, got %v", err)
	}
}

func TestSuccessResetsFailureCount(t *testing.T) {
	b, _ := newTestBreaker(3)

	_ = b.Execute(func() error { return errTest })
	_ = b.Execute(func() error { return errTest })
	_ = b.Execute(func() error { return nil })
	_ = b.Execute(func() error { return errTest })
	_ = b.Execute(func() error { return errTest })

	called := false
	if err := b.Execute(func() error {
		called = true
		return nil
	}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !called {
		t.Fatal("expected fn to be called")
	}
}

func TestStateChangeHook(t *testing.T) {
	b, now := newTestBreaker(1)
	var transitions []string
	b.OnStateChange(func(name string, from, to State) {
		transitions = append(transitions, name+":"+string(from)+"->"+string(to))
	})

	_ = b.Execute(func() error { return errTest })
	*now = now.Add(2 * time.Second)
	_ = b.Execute(func() error { return nil })

	want := []string{"test:closed->open", "test:open->half_open", "test:half_open->closed"}
	if len(transitions) != len(want) {
		t.Fatalf("transitions = %v, want %v", transitions, want)
	}
	for i := range want {
		if transitions[i] != want[i] {
			t.Errorf("transition %d = %q, want %q", i, transitions[i], want[i])
		}
	}
}
