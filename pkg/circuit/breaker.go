// Package circuit provides a small circuit breaker for flaky sidecar
// services. The transcript fetcher wraps its calls with one so a dead
// sidecar short-circuits to the description-fallback path instead of
// burning the full timeout on every mention.
package circuit

import (
	"context"
	"errors"
	"sync"
	"time"

	"foodmap-video-importer/pkg/logging"
)

// State: Closed is normal operation, Open fails fast, HalfOpen probes.
type State int

const (
	Closed State = iota
	Open
	HalfOpen
)

type Config struct {
	Name string

	OperationTimeout  time.Duration // per-call timeout
	OpenFor           time.Duration // how long to stay open before probing
	MaxConsecFailures int           // consecutive failures to open
	WindowSize        int           // sliding window of recent calls
	FailureRate       float64       // 0..1 fraction in window to open
}

// ErrOpen indicates the breaker is open and calls are short-circuited.
var ErrOpen = errors.New("circuit open")

type Breaker struct {
	cfg        Config
	mu         sync.Mutex
	st         State
	nextProbe  time.Time
	consecFail int

	win  []bool // success samples, ring buffer
	idx  int
	used int

	log *logging.Logger
}

func New(cfg Config, log *logging.Logger) *Breaker {
	if cfg.WindowSize <= 0 {
		cfg.WindowSize = 20
	}
	if cfg.MaxConsecFailures <= 0 {
		cfg.MaxConsecFailures = 5
	}
	if cfg.OpenFor <= 0 {
		cfg.OpenFor = 30 * time.Second
	}
	return &Breaker{cfg: cfg, st: Closed, win: make([]bool, cfg.WindowSize), log: log}
}

func (b *Breaker) setStateLocked(st State) {
	if b.st == st {
		return
	}
	b.st = st
	if b.log != nil {
		b.log.WithComponent("circuit").Info("breaker state change",
			logging.String("name", b.cfg.Name), logging.Int("state", int(st)))
	}
}

func (b *Breaker) record(success bool) {
	b.win[b.idx] = success
	if b.used < len(b.win) {
		b.used++
	}
	b.idx = (b.idx + 1) % len(b.win)

	if b.st != Closed {
		return
	}
	if b.consecFail >= b.cfg.MaxConsecFailures {
		b.setStateLocked(Open)
		b.nextProbe = time.Now().Add(b.cfg.OpenFor)
		return
	}
	if b.cfg.FailureRate > 0 && b.used == len(b.win) {
		fail := 0
		for _, ok := range b.win {
			if !ok {
				fail++
			}
		}
		if float64(fail)/float64(b.used) >= b.cfg.FailureRate {
			b.setStateLocked(Open)
			b.nextProbe = time.Now().Add(b.cfg.OpenFor)
		}
	}
}

// Do runs op under the breaker. When open, fallback runs if provided,
// otherwise ErrOpen is returned. Outputs are captured via closure vars.
func (b *Breaker) Do(ctx context.Context, op func(ctx context.Context) error, fallback func(ctx context.Context, cause error) error) error {
	b.mu.Lock()
	if b.st == Open {
		if time.Now().Before(b.nextProbe) {
			b.mu.Unlock()
			if fallback != nil {
				return fallback(ctx, ErrOpen)
			}
			return ErrOpen
		}
		b.setStateLocked(HalfOpen)
	}
	b.mu.Unlock()

	if b.cfg.OperationTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.cfg.OperationTimeout)
		defer cancel()
	}

	err := op(ctx)

	b.mu.Lock()
	defer b.mu.Unlock()
	if err != nil {
		b.consecFail++
		b.record(false)
		if b.st == HalfOpen {
			b.setStateLocked(Open)
			b.nextProbe = time.Now().Add(b.cfg.OpenFor)
		}
		if fallback != nil {
			return fallback(ctx, err)
		}
		return err
	}

	b.consecFail = 0
	b.record(true)
	if b.st == HalfOpen {
		b.setStateLocked(Closed)
	}
	return nil
}
