package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newTestBreaker(cooldown time.Duration) *Breaker {
	return New("test", Config{
		FailureThreshold: 3,
		SuccessThreshold: 2,
		Cooldown:         cooldown,
	})
}

func fail(b *Breaker) error {
	return b.Execute(context.Background(), func() error {
		return errors.New("boom")
	})
}

func succeed(b *Breaker) error {
	return b.Execute(context.Background(), func() error {
		return nil
	})
}

func TestBreakerStaysClosedOnSuccess(t *testing.T) {
	b := newTestBreaker(time.Minute)
	for i := 0; i < 10; i++ {
		if err := succeed(b); err != nil {
			t.Fatalf("success call %d returned error: %v", i, err)
		}
	}
	if b.State() != StateClosed {
		t.Errorf("state = %v, want closed", b.State())
	}
}

func TestBreakerOpensAfterThreshold(t *testing.T) {
	b := newTestBreaker(time.Minute)
	for i := 0; i < 3; i++ {
		fail(b)
	}
	if b.State() != StateOpen {
		t.Fatalf("state = %v, want open after 3 failures", b.State())
	}

	err := succeed(b)
	if !errors.Is(err, ErrOpen) {
		t.Errorf("open breaker should reject calls, got %v", err)
	}
}

func TestBreakerResetsFailureCountOnSuccess(t *testing.T) {
	b := newTestBreaker(time.Minute)
	fail(b)
	fail(b)
	succeed(b)
	fail(b)
	fail(b)
	if b.State() != StateClosed {
		t.Errorf("state = %v, want closed; success should reset the failure count", b.State())
	}
}

func TestBreakerHalfOpenRecovery(t *testing.T) {
	b := newTestBreaker(10 * time.Millisecond)
	for i := 0; i < 3; i++ {
		fail(b)
	}

	time.Sleep(20 * time.Millisecond)

	if b.State() != StateHalfOpen {
		t.Fatalf("state = %v, want half-open after cooldown", b.State())
	}

	if err := succeed(b); err != nil {
		t.Fatalf("half-open probe returned error: %v", err)
	}
	if err := succeed(b); err != nil {
		t.Fatalf("second half-open probe returned error: %v", err)
	}

	if b.State() != StateClosed {
		t.Errorf("state = %v, want closed after recovery", b.State())
	}
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	b := newTestBreaker(10 * time.Millisecond)
	for i := 0; i < 3; i++ {
		fail(b)
	}

	time.Sleep(20 * time.Millisecond)

	fail(b)

	if b.State() != StateOpen {
		t.Errorf("state = %v, want open after half-open failure", b.State())
	}
}
