package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ericfisherdev/homeworkbot/internal/logging"
	"github.com/ericfisherdev/homeworkbot/internal/metrics"
)

// sleepFunc blocks for d or until ctx is canceled.
type sleepFunc func(ctx context.Context, d time.Duration) error

// sleepContext is the production sleepFunc.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Backoff holds the failure delay of the poll loop. The delay doubles after
// every failed iteration and returns to the initial value on success. When
// doubling would exceed the cap, the delay wraps back to the initial value and
// a critical event is logged: the process has been failing for a long time.
//
// Backoff is owned by a single goroutine and is not safe for concurrent use.
type Backoff struct {
	initial time.Duration
	max     time.Duration
	delay   time.Duration
	sleep   sleepFunc
}

// NewBackoff creates a Backoff starting at initial and capped at max.
func NewBackoff(initial, max time.Duration) (*Backoff, error) {
	if initial <= 0 {
		return nil, fmt.Errorf("backoff initial delay must be positive, got %s", initial)
	}
	if max < initial {
		return nil, fmt.Errorf("backoff cap %s is below initial delay %s", max, initial)
	}

	metrics.BackoffDelay.Set(initial.Seconds())

	return &Backoff{
		initial: initial,
		max:     max,
		delay:   initial,
		sleep:   sleepContext,
	}, nil
}

// Delay returns the duration the next OnFailure call will sleep for.
func (b *Backoff) Delay() time.Duration {
	return b.delay
}

// OnFailure sleeps for the current delay, then doubles it. It returns the
// duration slept, or ctx.Err() if the sleep was interrupted; the delay is left
// unchanged in that case.
func (b *Backoff) OnFailure(ctx context.Context) (time.Duration, error) {
	slept := b.delay
	slog.Debug("backing off after failure", "delay", slept)

	if err := b.sleep(ctx, slept); err != nil {
		return 0, err
	}

	b.delay *= 2
	if b.delay > b.max {
		b.delay = b.initial
		metrics.BackoffWraps.Inc()
		logging.Critical(ctx, "too many consecutive failures, backoff delay reset",
			"cap", b.max,
			"delay", b.delay,
		)
	}
	metrics.BackoffDelay.Set(b.delay.Seconds())

	return slept, nil
}

// OnSuccess resets the delay to its initial value.
func (b *Backoff) OnSuccess() {
	b.delay = b.initial
	metrics.BackoffDelay.Set(b.delay.Seconds())
}
