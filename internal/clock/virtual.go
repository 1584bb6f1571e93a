package clock

import (
	"sync"
	"time"
)

// VirtualClock is a controllable clock for dry runs and deterministic tests.
//
// In manual mode time only moves through Advance or Set, and After waiters
// fire once the clock passes their deadline. In auto mode every After call
// jumps the clock straight to its deadline, so a paced replay finishes
// instantly while still observing the exact waits it asked for.
//
// Thread-safe for concurrent use.
type VirtualClock struct {
	mu      sync.RWMutex
	current time.Time
	auto    bool
	waiters []waiter
	slept   time.Duration
}

type waiter struct {
	deadline time.Time
	ch       chan time.Time
}

// NewVirtualClock creates a manual VirtualClock starting at the given time.
func NewVirtualClock(start time.Time) *VirtualClock {
	return &VirtualClock{
		current: start,
	}
}

// NewAutoClock creates a VirtualClock that advances itself on every After call.
func NewAutoClock(start time.Time) *VirtualClock {
	return &VirtualClock{
		current: start,
		auto:    true,
	}
}

// Now returns the current virtual time.
func (c *VirtualClock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

// Since returns the virtual duration elapsed since t.
func (c *VirtualClock) Since(t time.Time) time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current.Sub(t)
}

// After returns a channel that receives the virtual time once the clock
// reaches the current time plus d.
func (c *VirtualClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := make(chan time.Time, 1)
	if d <= 0 {
		ch <- c.current
		return ch
	}

	if c.auto {
		c.current = c.current.Add(d)
		c.slept += d
		c.drainWaiters()
		ch <- c.current
		return ch
	}

	c.waiters = append(c.waiters, waiter{
		deadline: c.current.Add(d),
		ch:       ch,
	})
	return ch
}

// Slept returns the total duration an auto clock has skipped through After.
func (c *VirtualClock) Slept() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.slept
}

// Advance moves the virtual clock forward by the given duration.
// Panics if d is negative.
func (c *VirtualClock) Advance(d time.Duration) {
	if d < 0 {
		panic("clock: cannot advance by negative duration")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.current = c.current.Add(d)
	c.drainWaiters()
}

// Set moves the virtual clock to an exact time.
// Panics if t is before the current time.
func (c *VirtualClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if t.Before(c.current) {
		panic("clock: cannot set time to the past")
	}

	c.current = t
	c.drainWaiters()
}

// Pending returns the number of waiters that have not fired yet.
func (c *VirtualClock) Pending() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.waiters)
}

// drainWaiters fires all waiters whose deadline is at or before the current time.
// Must be called with c.mu held.
func (c *VirtualClock) drainWaiters() {
	remaining := c.waiters[:0]
	for _, w := range c.waiters {
		if !w.deadline.After(c.current) {
			w.ch <- c.current
		} else {
			remaining = append(remaining, w)
		}
	}
	c.waiters = remaining
}
