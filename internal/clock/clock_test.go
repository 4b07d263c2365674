package clock

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

func TestArmFiresOnce(t *testing.T) {
	c := New(zerolog.Nop())
	attemptID := uuid.New()

	var fired atomic.Int32
	c.Arm(attemptID, 20*time.Millisecond, func(uuid.UUID) {
		fired.Add(1)
	})

	time.Sleep(100 * time.Millisecond)
	if got := fired.Load(); got != 1 {
		t.Fatalf("timer fired %d times, want 1", got)
	}
	if c.Active() != 0 {
		t.Errorf("fired timer still registered")
	}
}

func TestCancelPreventsFire(t *testing.T) {
	c := New(zerolog.Nop())
	attemptID := uuid.New()

	var fired atomic.Int32
	c.Arm(attemptID, 30*time.Millisecond, func(uuid.UUID) {
		fired.Add(1)
	})
	c.Cancel(attemptID)

	time.Sleep(80 * time.Millisecond)
	if got := fired.Load(); got != 0 {
		t.Fatalf("cancelled timer fired %d times", got)
	}
}

func TestCancelWithoutTimerIsNoop(t *testing.T) {
	c := New(zerolog.Nop())
	c.Cancel(uuid.New()) // must not panic
}

func TestRearmReplacesTimer(t *testing.T) {
	c := New(zerolog.Nop())
	attemptID := uuid.New()

	var fired atomic.Int32
	c.Arm(attemptID, 10*time.Millisecond, func(uuid.UUID) {
		fired.Add(1)
	})
	c.Arm(attemptID, 40*time.Millisecond, func(uuid.UUID) {
		fired.Add(1)
	})

	time.Sleep(120 * time.Millisecond)
	if got := fired.Load(); got != 1 {
		t.Fatalf("re-armed attempt fired %d times, want 1", got)
	}
}

func TestShutdownStopsAll(t *testing.T) {
	c := New(zerolog.Nop())

	var fired atomic.Int32
	for i := 0; i < 3; i++ {
		c.Arm(uuid.New(), 30*time.Millisecond, func(uuid.UUID) {
			fired.Add(1)
		})
	}
	c.Shutdown()

	time.Sleep(80 * time.Millisecond)
	if got := fired.Load(); got != 0 {
		t.Fatalf("shutdown left %d timers firing", got)
	}
	if c.Active() != 0 {
		t.Error("timers still registered after shutdown")
	}
}
