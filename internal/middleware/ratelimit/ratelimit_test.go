package ratelimit

import (
	"testing"
	"time"
)

func TestAllowWithinBudget(t *testing.T) {
	rl := New(Config{MaxRequestsPerMinute: 5, WindowDuration: time.Minute})
	defer rl.Stop()

	for i := 0; i < 5; i++ {
		if !rl.allow("client-a") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if rl.allow("client-a") {
		t.Error("request over budget should be rejected")
	}
}

func TestClientsAreIsolated(t *testing.T) {
	rl := New(Config{MaxRequestsPerMinute: 1, WindowDuration: time.Minute})
	defer rl.Stop()

	if !rl.allow("client-a") {
		t.Fatal("first request for client-a should be allowed")
	}
	if rl.allow("client-a") {
		t.Error("second request for client-a should be rejected")
	}
	if !rl.allow("client-b") {
		t.Error("client-b has its own budget")
	}
}

func TestTokensRefill(t *testing.T) {
	rl := New(Config{MaxRequestsPerMinute: 100, WindowDuration: time.Second})
	defer rl.Stop()

	for i := 0; i < 100; i++ {
		rl.allow("client-a")
	}
	if rl.allow("client-a") {
		t.Fatal("budget should be exhausted")
	}

	time.Sleep(50 * time.Millisecond)

	if !rl.allow("client-a") {
		t.Error("tokens should refill over time")
	}
}
