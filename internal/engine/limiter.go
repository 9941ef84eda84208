package engine

import (
	"context"
	"time"
)

// spinWindow is the stretch before a deadline that Wait spins instead of
// sleeping.
const spinWindow = 200 * time.Microsecond

// Limiter paces the scheduler to a target rate.
type Limiter struct {
	next time.Time
	fps  func() int
}

// NewLimiter returns a limiter asking fps for the current rate on every
// wait, so rate changes apply immediately. A rate <= 0 disables waiting.
func NewLimiter(fps func() int) *Limiter {
	return &Limiter{fps: fps}
}

// Wait blocks until the next tick is due or ctx is done and returns the
// interval it paced to, 0 when unlimited.
func (l *Limiter) Wait(ctx context.Context) time.Duration {
	target := l.Interval()
	if target == 0 {
		l.next = time.Time{}
		return 0
	}

	if l.next.IsZero() {
		l.next = time.Now().Add(target)
	} else {
		l.next = l.next.Add(target)
	}

	if remaining := time.Until(l.next); remaining > spinWindow {
		t := time.NewTimer(remaining - spinWindow)
		select {
		case <-ctx.Done():
			t.Stop()
			return target
		case <-t.C:
		}
	}
	for time.Until(l.next) > 0 && ctx.Err() == nil {
	}

	// resync after a hitch instead of bursting to catch up
	if late := -time.Until(l.next); late > target {
		l.next = time.Now().Add(target)
	}
	return target
}

// Interval returns the current tick interval, or 0 when unlimited.
func (l *Limiter) Interval() time.Duration {
	limit := l.fps()
	if limit <= 0 {
		return 0
	}
	return time.Second / time.Duration(limit)
}
