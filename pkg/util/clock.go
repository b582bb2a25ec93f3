package util

import (
	"context"
	"time"
)

// Clock is the time source for trade timestamps, the background matcher and
// the price sampler. Tests substitute a manual clock.
type Clock interface {
	After(d time.Duration) <-chan time.Time
	Now() time.Time
}

type RealClock struct{}

func (RealClock) After(d time.Duration) <-chan time.Time { return time.After(d) }
func (RealClock) Now() time.Time                         { return time.Now() }

// Sleep waits for d on the given clock or until ctx is done.
// It never blocks the calling goroutine past cancellation.
func Sleep(ctx context.Context, c Clock, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-c.After(d):
		return nil
	}
}
