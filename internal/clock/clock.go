package clock

import (
	"context"
	"time"
)

// Clock abstracts time so pacing can run against real or virtual time.
// Everything in rewind that waits or measures lag goes through this interface.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
	// Since returns the duration elapsed since t.
	Since(t time.Time) time.Duration
	// After returns a channel that receives the current time after duration d.
	After(d time.Duration) <-chan time.Time
}

// RealClock delegates to the standard time package.
type RealClock struct{}

func NewRealClock() *RealClock {
	return &RealClock{}
}

func (c *RealClock) Now() time.Time {
	return time.Now()
}

func (c *RealClock) Since(t time.Time) time.Duration {
	return time.Since(t)
}

func (c *RealClock) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}

// Sleep blocks on c for d or until ctx is done. Non-positive durations
// return immediately.
func Sleep(ctx context.Context, c Clock, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-c.After(d):
		return nil
	}
}
