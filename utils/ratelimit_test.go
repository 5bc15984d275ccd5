package utils

import (
	"testing"
	"time"
)

func TestRateLimiterAllowsUpToLimit(t *testing.T) {
	rl := NewRateLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		if !rl.Allow("client") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if rl.Allow("client") {
		t.Error("request over the limit should be denied")
	}
	if rl.GetRemaining("client") != 0 {
		t.Errorf("remaining = %d, want 0", rl.GetRemaining("client"))
	}
}

func TestRateLimiterKeysAreIndependent(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)

	if !rl.Allow("a") {
		t.Fatal("first request for a should be allowed")
	}
	if !rl.Allow("b") {
		t.Error("b should not share a's counter")
	}
}

func TestRateLimiterReset(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)

	rl.Allow("client")
	if rl.Allow("client") {
		t.Fatal("second request should be denied")
	}

	rl.Reset("client")
	if !rl.Allow("client") {
		t.Error("request after reset should be allowed")
	}
}
