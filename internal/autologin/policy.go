package autologin

import (
	"math"
	"math/rand"
	"time"
)

// Policy controls the token retry loop. Zero values are not usable;
// start from DefaultPolicy and override per deployment.
type Policy struct {
	// MaxAttempts is the number of primary token fetches before giving up.
	MaxAttempts int
	// BaseDelay is the backoff delay before the first retry.
	BaseDelay time.Duration
	// GrowthFactor multiplies the delay on every retry.
	GrowthFactor float64
	// MaxDelay caps the grown delay, jitter excluded.
	MaxDelay time.Duration
	// InitialWait runs once before the first fetch so the payment webhook
	// has a chance to land.
	InitialWait time.Duration
	// JitterMax is the upper bound (exclusive) of the uniform jitter added
	// to every backoff delay.
	JitterMax time.Duration
	// FallbackFromAttempt is the 0-based attempt index from which a failed
	// primary fetch also tries the fallback creation endpoint.
	FallbackFromAttempt int
}

// DefaultPolicy caps the worst-case total wait at roughly 2-3 minutes.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:         8,
		BaseDelay:           2 * time.Second,
		GrowthFactor:        1.5,
		MaxDelay:            30 * time.Second,
		InitialWait:         5 * time.Second,
		JitterMax:           time.Second,
		FallbackFromAttempt: 3,
	}
}

// BackoffDelay returns the wait before the given 0-based attempt:
// min(BaseDelay * GrowthFactor^attempt, MaxDelay) plus uniform jitter
// in [0, JitterMax).
func (p Policy) BackoffDelay(attempt int) time.Duration {
	delay := time.Duration(float64(p.BaseDelay) * math.Pow(p.GrowthFactor, float64(attempt)))
	if delay > p.MaxDelay {
		delay = p.MaxDelay
	}
	if p.JitterMax > 0 {
		delay += time.Duration(rand.Int63n(int64(p.JitterMax)))
	}

	return delay
}
