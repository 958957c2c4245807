package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestOpensAfterConsecutiveFailures(t *testing.T) {
	cb := New("test", Config{FailureThreshold: 3, Timeout: time.Minute})
	fail := errors.New("boom")

	for i := 0; i < 3; i++ {
		cb.Execute(context.Background(), func() error { return fail })
	}

	if cb.State() != StateOpen {
		t.Fatalf("state = %s, want open", cb.State())
	}

	err := cb.Execute(context.Background(), func() error { return nil })
	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("err = %v, want ErrCircuitOpen", err)
	}
}

func TestSuccessResetsFailureStreak(t *testing.T) {
	cb := New("test", Config{FailureThreshold: 3})
	fail := errors.New("boom")

	cb.Execute(context.Background(), func() error { return fail })
	cb.Execute(context.Background(), func() error { return fail })
	cb.Execute(context.Background(), func() error { return nil })
	cb.Execute(context.Background(), func() error { return fail })
	cb.Execute(context.Background(), func() error { return fail })

	if cb.State() != StateClosed {
		t.Errorf("state = %s, want closed", cb.State())
	}
}

func TestHalfOpenRecovery(t *testing.T) {
	cb := New("test", Config{
		FailureThreshold: 1,
		SuccessThreshold: 2,
		MaxRequests:      2,
		Timeout:          10 * time.Millisecond,
	})

	cb.Execute(context.Background(), func() error { return errors.New("boom") })
	if cb.State() != StateOpen {
		t.Fatalf("state = %s, want open", cb.State())
	}

	time.Sleep(20 * time.Millisecond)

	if cb.State() != StateHalfOpen {
		t.Fatalf("state = %s, want half-open", cb.State())
	}

	cb.Execute(context.Background(), func() error { return nil })
	cb.Execute(context.Background(), func() error { return nil })

	if cb.State() != StateClosed {
		t.Errorf("state = %s, want closed after recovery", cb.State())
	}
}

func TestStateChangeCallback(t *testing.T) {
	var transitions []string
	cb := New("llm", Config{
		FailureThreshold: 1,
		OnStateChange: func(name string, from, to State) {
			transitions = append(transitions, from.String()+"->"+to.String())
		},
	})

	cb.Execute(context.Background(), func() error { return errors.New("boom") })

	if len(transitions) != 1 || transitions[0] != "closed->open" {
		t.Errorf("transitions = %v, want [closed->open]", transitions)
	}
}
