package app

import (
	"context"
	"math/rand/v2"
	"time"
)

// Accept retry delays. File descriptor exhaustion clears as sessions close,
// so the ceiling stays short.
const (
	DefaultBackoffInitial = 5 * time.Millisecond
	DefaultBackoffMax     = 1 * time.Second
)

// backoff doubles its delay after each Wait up to a ceiling and adds ±20%
// jitter to every sleep.
type backoff struct {
	floor, ceiling time.Duration
	next           time.Duration
}

func newBackoff(floor, ceiling time.Duration) *backoff {
	return &backoff{floor: floor, ceiling: ceiling, next: floor}
}

// Wait sleeps for the next delay, then doubles it. It returns ctx.Err() if
// the context ends first.
func (b *backoff) Wait(ctx context.Context) error {
	d := jitter(b.next)
	b.next = min(2*b.next, b.ceiling)

	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func jitter(d time.Duration) time.Duration {
	spread := int64(d) / 5
	if spread <= 0 {
		return d
	}
	return d + time.Duration(rand.Int64N(2*spread+1)-spread)
}

// Reset returns the delay to its floor after a successful accept.
func (b *backoff) Reset() { b.next = b.floor }

// Current returns the delay the next Wait will use, before jitter.
func (b *backoff) Current() time.Duration { return b.next }
