package application

import (
	"context"
	"time"
)

// SetSleep replaces the backoff sleeper so tests do not wait in real time.
func (b *Backoff) SetSleep(fn func(ctx context.Context, d time.Duration) error) {
	b.sleep = fn
}

// SetClock replaces the notifier's clock.
func (n *Notifier) SetClock(fn func() time.Time) {
	n.now = fn
}
