package autologin

import (
	"math"
	"testing"
	"time"
)

func TestDefaultPolicy(t *testing.T) {
	p := DefaultPolicy()

	if p.MaxAttempts != 8 {
		t.Errorf("MaxAttempts = %d, want 8", p.MaxAttempts)
	}
	if p.BaseDelay != 2*time.Second {
		t.Errorf("BaseDelay = %v, want 2s", p.BaseDelay)
	}
	if p.GrowthFactor != 1.5 {
		t.Errorf("GrowthFactor = %v, want 1.5", p.GrowthFactor)
	}
	if p.MaxDelay != 30*time.Second {
		t.Errorf("MaxDelay = %v, want 30s", p.MaxDelay)
	}
	if p.FallbackFromAttempt != 3 {
		t.Errorf("FallbackFromAttempt = %d, want 3", p.FallbackFromAttempt)
	}
}

func TestBackoffDelayBounds(t *testing.T) {
	p := DefaultPolicy()

	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		grown := time.Duration(float64(p.BaseDelay) * math.Pow(p.GrowthFactor, float64(attempt)))
		capped := grown
		if capped > p.MaxDelay {
			capped = p.MaxDelay
		}

		// jitter is random, sample a few times
		for i := 0; i < 50; i++ {
			delay := p.BackoffDelay(attempt)
			if delay < capped {
				t.Fatalf("attempt %d: delay %v below %v", attempt, delay, capped)
			}
			if delay >= capped+p.JitterMax {
				t.Fatalf("attempt %d: delay %v at or above %v", attempt, delay, capped+p.JitterMax)
			}
		}
	}
}

func TestBackoffDelayMonotonicUntilCap(t *testing.T) {
	p := DefaultPolicy()
	p.JitterMax = 0 // deterministic

	prev := time.Duration(0)
	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		delay := p.BackoffDelay(attempt)
		if delay < prev {
			t.Fatalf("attempt %d: delay %v below previous %v", attempt, delay, prev)
		}
		if delay > p.MaxDelay {
			t.Fatalf("attempt %d: delay %v exceeds cap %v", attempt, delay, p.MaxDelay)
		}
		prev = delay
	}

	// the tail of the schedule sits on the cap
	if got := p.BackoffDelay(7); got != p.MaxDelay {
		t.Errorf("attempt 7: delay = %v, want cap %v", got, p.MaxDelay)
	}
}
