package autologin

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrTokenNotReady signals that the backend has not produced a token for
// the session yet. It is the one retryable error of the primary fetch.
var ErrTokenNotReady = errors.New("auto-login token not ready")

// ExhaustedError is returned when every attempt, including the interleaved
// fallback attempts, finished without a token.
type ExhaustedError struct {
	Attempts int
	LastErr  error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("token retrieval exhausted after %d attempts", e.Attempts)
}

func (e *ExhaustedError) Unwrap() error { return e.LastErr }

// NetworkError wraps a transport failure that hit the final attempt.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("token endpoint unreachable: %v", e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// TokenSource is the backend surface the retry loop talks to. FetchToken
// must be side-effect free so repeating it is always safe.
type TokenSource interface {
	FetchToken(ctx context.Context, sessionID string) (string, error)
	CreateFallbackToken(ctx context.Context, sessionID string) (string, error)
}

// State is a display-only snapshot emitted while the loop runs. It carries
// no correctness weight; the view layer formats it.
type State struct {
	Phase       Phase
	Attempt     int
	MaxAttempts int
	NextRetryIn time.Duration
	Elapsed     time.Duration
}

// Retryer polls a TokenSource for an auto-login token, backing off between
// attempts per its Policy. It is strictly sequential: one outstanding
// request at a time, all waiting through ctx-aware sleeps.
type Retryer struct {
	source  TokenSource
	policy  Policy
	observe func(State)

	// test seams
	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time
}

func NewRetryer(source TokenSource, policy Policy) *Retryer {
	return &Retryer{
		source: source,
		policy: policy,
		sleep:  sleepCtx,
		now:    time.Now,
	}
}

// OnState registers the observer for retry-progress snapshots.
func (r *Retryer) OnState(fn func(State)) {
	r.observe = fn
}

// Run fetches a token for the session, returning it from either the primary
// or the fallback endpoint. It fails with *ExhaustedError once all attempts
// are spent, or with *NetworkError when a transport failure hits the last
// attempt.
func (r *Retryer) Run(ctx context.Context, sessionID string) (string, error) {
	if sessionID == "" {
		return "", errors.New("session id is required")
	}

	start := r.now()

	if err := r.countdown(ctx, r.policy.InitialWait, 0, start); err != nil {
		return "", err
	}

	var lastErr error
	for attempt := 0; attempt < r.policy.MaxAttempts; attempt++ {
		r.emit(State{
			Phase:       PhaseProcessing,
			Attempt:     attempt + 1,
			MaxAttempts: r.policy.MaxAttempts,
			Elapsed:     r.now().Sub(start),
		})

		token, err := r.source.FetchToken(ctx, sessionID)
		if err == nil && token != "" {
			return token, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		lastErr = err

		if attempt >= r.policy.FallbackFromAttempt {
			token, ferr := r.source.CreateFallbackToken(ctx, sessionID)
			if ferr == nil && token != "" {
				return token, nil
			}
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
		}

		if attempt == r.policy.MaxAttempts-1 {
			break
		}

		delay := r.policy.BackoffDelay(attempt + 1)
		if err := r.countdown(ctx, delay, attempt+1, start); err != nil {
			return "", err
		}
	}

	if lastErr != nil && !errors.Is(lastErr, ErrTokenNotReady) {
		return "", &NetworkError{Err: lastErr}
	}

	return "", &ExhaustedError{Attempts: r.policy.MaxAttempts, LastErr: lastErr}
}

// countdown sleeps for the full delay in one-second steps, emitting the
// remaining wait before each step so a view can render a ticking counter.
func (r *Retryer) countdown(ctx context.Context, total time.Duration, nextAttempt int, start time.Time) error {
	remaining := total
	for remaining > 0 {
		r.emit(State{
			Phase:       PhaseProcessing,
			Attempt:     nextAttempt,
			MaxAttempts: r.policy.MaxAttempts,
			NextRetryIn: remaining,
			Elapsed:     r.now().Sub(start),
		})

		step := time.Second
		if remaining < step {
			step = remaining
		}
		if err := r.sleep(ctx, step); err != nil {
			return err
		}
		remaining -= step
	}

	return nil
}

func (r *Retryer) emit(s State) {
	if r.observe != nil {
		r.observe(s)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
