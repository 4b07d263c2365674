package middleware

import (
	"testing"
	"time"
)

func TestRateLimiterBurstThenRefill(t *testing.T) {
	rl := NewRateLimiter(100, 3)

	for i := 0; i < 3; i++ {
		if !rl.allow("1.2.3.4") {
			t.Fatalf("request %d within burst was rejected", i+1)
		}
	}
	if rl.allow("1.2.3.4") {
		t.Error("request beyond burst was allowed")
	}

	// At 100 tokens/s a token is back within a few ms.
	time.Sleep(50 * time.Millisecond)
	if !rl.allow("1.2.3.4") {
		t.Error("request after refill was rejected")
	}
}

func TestRateLimiterKeysAreIndependent(t *testing.T) {
	rl := NewRateLimiter(0.001, 1)

	if !rl.allow("a") {
		t.Fatal("first request for key a rejected")
	}
	if rl.allow("a") {
		t.Error("second request for exhausted key a allowed")
	}
	if !rl.allow("b") {
		t.Error("request for fresh key b rejected")
	}
}
