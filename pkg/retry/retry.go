// Package retry implements bounded exponential backoff with jitter for
// external calls that can signal rate limiting. Non-rate-limit failures
// propagate immediately; exhausting attempts yields a terminal error naming
// the operation.
package retry

import (
	"context"
	"fmt"
	"math/rand"
	"time"
)

// Classifier reports whether an error should trigger a retry.
type Classifier func(error) bool

// SleepFunc is injectable for tests; the default blocks on a timer but
// honors context cancellation.
type SleepFunc func(ctx context.Context, d time.Duration) error

func defaultSleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Policy is a reusable retry-policy value. Zero values are corrected to the
// defaults below, so a partially filled Policy is still usable.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Multiplier  float64
	MaxDelay    time.Duration
	Jitter      float64 // fraction of the computed delay added at random, 0..1

	Retryable Classifier
	Sleep     SleepFunc
	rand      func() float64
}

func DefaultPolicy(retryable Classifier) Policy {
	return Policy{
		MaxAttempts: 4,
		BaseDelay:   2 * time.Second,
		Multiplier:  2.0,
		MaxDelay:    60 * time.Second,
		Jitter:      0.25,
		Retryable:   retryable,
	}
}

// WithSleep returns a copy of the policy using the given sleep function.
func (p Policy) WithSleep(s SleepFunc) Policy {
	p.Sleep = s
	return p
}

// WithRand fixes the jitter source; used by tests for determinism.
func (p Policy) WithRand(f func() float64) Policy {
	p.rand = f
	return p
}

// Delay computes the backoff before the given retry (attempt is 1-based:
// the delay applied after attempt N has failed).
func (p Policy) Delay(attempt int) time.Duration {
	base := float64(p.baseDelay())
	mult := p.multiplier()
	for i := 1; i < attempt; i++ {
		base *= mult
	}
	d := time.Duration(base)
	if max := p.maxDelay(); d > max {
		d = max
	}
	if p.Jitter > 0 {
		r := p.rand
		if r == nil {
			r = rand.Float64
		}
		d += time.Duration(float64(d) * p.Jitter * r())
	}
	return d
}

func (p Policy) maxAttempts() int {
	if p.MaxAttempts <= 0 {
		return 4
	}
	return p.MaxAttempts
}

func (p Policy) baseDelay() time.Duration {
	if p.BaseDelay <= 0 {
		return 2 * time.Second
	}
	return p.BaseDelay
}

func (p Policy) multiplier() float64 {
	if p.Multiplier <= 1 {
		return 2.0
	}
	return p.Multiplier
}

func (p Policy) maxDelay() time.Duration {
	if p.MaxDelay <= 0 {
		return 60 * time.Second
	}
	return p.MaxDelay
}

// Do runs fn under the policy. op names the call site for the terminal error.
func (p Policy) Do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	_, err := DoValue(ctx, p, op, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// DoValue is the generic form of Do for operations that produce a value.
func DoValue[T any](ctx context.Context, p Policy, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	sleep := p.Sleep
	if sleep == nil {
		sleep = defaultSleep
	}

	var lastErr error
	for attempt := 1; attempt <= p.maxAttempts(); attempt++ {
		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		if p.Retryable == nil || !p.Retryable(err) {
			return zero, err
		}
		lastErr = err
		if attempt == p.maxAttempts() {
			break
		}
		if serr := sleep(ctx, p.Delay(attempt)); serr != nil {
			return zero, serr
		}
	}
	return zero, fmt.Errorf("%s: retries exhausted after %d attempts: %w", op, p.maxAttempts(), lastErr)
}
