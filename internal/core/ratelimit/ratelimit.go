// Package ratelimit bounds outbound call rate with a sliding one second window
package ratelimit

import (
	"context"
	"time"

	perr "idcardocr/internal/platform/errors"
	"idcardocr/internal/platform/logger"
)

// DefaultLimit matches the provider's default QPS quota for IDCardOCR
const DefaultLimit = 20

// Limiter admits at most limit calls per trailing window
// Admission and recording happen under one lock, so concurrent callers cannot overshoot
type Limiter struct {
	limit  int
	window time.Duration

	// lock is a one-slot semaphore so waiters can also watch ctx
	lock   chan struct{}
	stamps []time.Time

	now   func() time.Time
	after func(time.Duration) <-chan time.Time
	log   *logger.Logger
}

// Option tweaks a Limiter at construction
type Option func(*Limiter)

// WithWindow overrides the one second window
func WithWindow(d time.Duration) Option {
	return func(l *Limiter) {
		if d > 0 {
			l.window = d
		}
	}
}

// WithClock swaps the time source and timer, for tests
func WithClock(now func() time.Time, after func(time.Duration) <-chan time.Time) Option {
	return func(l *Limiter) {
		if now != nil {
			l.now = now
		}
		if after != nil {
			l.after = after
		}
	}
}

// WithLogger injects the logger used for throttle events
func WithLogger(log *logger.Logger) Option {
	return func(l *Limiter) { l.log = log }
}

// New returns a Limiter admitting n calls per second; n < 1 is a config error
func New(n int, opts ...Option) (*Limiter, error) {
	if n < 1 {
		return nil, perr.WithField(perr.Configf("rate limit must be >= 1, got %d", n), "rate_limit")
	}
	l := &Limiter{
		limit:  n,
		window: time.Second,
		lock:   make(chan struct{}, 1),
		stamps: make([]time.Time, 0, n),
		now:    time.Now,
		after:  time.After,
	}
	for _, o := range opts {
		o(l)
	}
	l.log = logger.OrNamed(l.log, "ratelimit")
	return l, nil
}

// Limit returns the configured calls per window
func (l *Limiter) Limit() int { return l.limit }

// Admit blocks until one more call fits in the window, then records it
// A cancelled ctx returns a Cancelled error and records nothing
func (l *Limiter) Admit(ctx context.Context) error {
	select {
	case l.lock <- struct{}{}:
	case <-ctx.Done():
		return perr.Cancelled(ctx.Err())
	}
	defer func() { <-l.lock }()

	now := l.now()
	l.prune(now)
	for len(l.stamps) >= l.limit {
		wait := l.window - now.Sub(l.stamps[0])
		if wait > 0 {
			l.log.Debug().Dur("wait", wait).Int("limit", l.limit).Msg("rate limit reached, waiting")
			select {
			case <-l.after(wait):
			case <-ctx.Done():
				return perr.Cancelled(ctx.Err())
			}
		}
		now = l.now()
		l.prune(now)
	}
	l.stamps = append(l.stamps, now)
	return nil
}

// Len reports how many calls are currently inside the window
func (l *Limiter) Len() int {
	l.lock <- struct{}{}
	defer func() { <-l.lock }()
	l.prune(l.now())
	return len(l.stamps)
}

// prune drops stamps that have aged out; stamps are time ordered so only the head is checked
func (l *Limiter) prune(now time.Time) {
	i := 0
	for i < len(l.stamps) && now.Sub(l.stamps[i]) >= l.window {
		i++
	}
	if i == 0 {
		return
	}
	if i == len(l.stamps) {
		l.stamps = l.stamps[:0]
		return
	}
	l.stamps = l.stamps[i:]
}
