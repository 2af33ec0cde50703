package retry

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

var errLimited = errors.New("rate limited")

func limitedOnly(err error) bool { return errors.Is(err, errLimited) }

func noSleep() (SleepFunc, *[]time.Duration) {
	var delays []time.Duration
	return func(ctx context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}, &delays
}

func TestDo_SucceedsFirstTry(t *testing.T) {
	sleep, delays := noSleep()
	p := DefaultPolicy(limitedOnly).WithSleep(sleep)

	calls := 0
	err := p.Do(context.Background(), "test.op", func(ctx context.Context) error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 || len(*delays) != 0 {
		t.Fatalf("expected single call with no sleeps, got calls=%d sleeps=%d", calls, len(*delays))
	}
}

func TestDo_NonRetryablePropagatesImmediately(t *testing.T) {
	sleep, delays := noSleep()
	p := DefaultPolicy(limitedOnly).WithSleep(sleep)

	boom := errors.New("parse failure")
	calls := 0
	err := p.Do(context.Background(), "test.op", func(ctx context.Context) error {
		calls++
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected original error, got %v", err)
	}
	if calls != 1 || len(*delays) != 0 {
		t.Fatalf("non-retryable error must not retry: calls=%d sleeps=%d", calls, len(*delays))
	}
}

func TestDo_ExhaustionNamesOperation(t *testing.T) {
	sleep, delays := noSleep()
	p := Policy{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		Multiplier:  2,
		MaxDelay:    time.Minute,
		Retryable:   limitedOnly,
	}.WithSleep(sleep)

	calls := 0
	err := p.Do(context.Background(), "places.search", func(ctx context.Context) error {
		calls++
		return errLimited
	})
	if err == nil {
		t.Fatal("expected terminal error")
	}
	if !strings.Contains(err.Error(), "places.search") {
		t.Fatalf("terminal error must name the operation, got %q", err)
	}
	if !errors.Is(err, errLimited) {
		t.Fatalf("terminal error must wrap the cause, got %v", err)
	}
	if calls != 3 || len(*delays) != 2 {
		t.Fatalf("expected 3 attempts with 2 sleeps, got calls=%d sleeps=%d", calls, len(*delays))
	}
}

func TestDelay_ExponentialWithCapAndJitter(t *testing.T) {
	p := Policy{
		MaxAttempts: 5,
		BaseDelay:   time.Second,
		Multiplier:  2,
		MaxDelay:    5 * time.Second,
		Jitter:      0.5,
		Retryable:   limitedOnly,
	}.WithRand(func() float64 { return 1.0 }) // maximal jitter, deterministic

	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 1500 * time.Millisecond}, // 1s + 0.5*1s
		{2, 3 * time.Second},         // 2s + 1s
		{3, 6 * time.Second},         // 4s + 2s
		{4, 7500 * time.Millisecond}, // capped at 5s + 2.5s
	}
	for _, tc := range cases {
		if got := p.Delay(tc.attempt); got != tc.want {
			t.Fatalf("attempt %d: expected %v, got %v", tc.attempt, tc.want, got)
		}
	}
}

func TestDoValue_RecoversAfterRateLimits(t *testing.T) {
	sleep, _ := noSleep()
	p := DefaultPolicy(limitedOnly).WithSleep(sleep)

	calls := 0
	v, err := DoValue(context.Background(), p, "test.op", func(ctx context.Context) (int, error) {
		calls++
		if calls < 3 {
			return 0, errLimited
		}
		return 42, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 42 || calls != 3 {
		t.Fatalf("expected recovery on third call, got v=%d calls=%d", v, calls)
	}
}

func TestDo_ContextCancelledDuringSleep(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := DefaultPolicy(limitedOnly).WithSleep(func(ctx context.Context, d time.Duration) error {
		cancel()
		return ctx.Err()
	})

	err := p.Do(ctx, "test.op", func(ctx context.Context) error { return errLimited })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
