package clock

import (
	"context"
	"time"

	internalclock "github.com/SmitUplenchwar2687/rewind/internal/clock"
)

// Clock abstracts time so replays can run on real or virtual time.
type Clock = internalclock.Clock

// RealClock delegates to the standard time package.
type RealClock = internalclock.RealClock

// VirtualClock is a controllable clock for tests and dry runs.
type VirtualClock = internalclock.VirtualClock

// NewRealClock creates a real wall-clock implementation.
func NewRealClock() *RealClock {
	return internalclock.NewRealClock()
}

// NewVirtualClock creates a virtual clock starting at the given time.
func NewVirtualClock(start time.Time) *VirtualClock {
	return internalclock.NewVirtualClock(start)
}

// NewAutoClock creates a virtual clock that jumps to every deadline it is
// asked to wait for.
func NewAutoClock(start time.Time) *VirtualClock {
	return internalclock.NewAutoClock(start)
}

// Sleep waits d on c or until ctx is done.
func Sleep(ctx context.Context, c Clock, d time.Duration) error {
	return internalclock.Sleep(ctx, c, d)
}
