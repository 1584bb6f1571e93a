package limiter

import (
	"context"
	"fmt"
	"time"
)

// Limiter decides whether a request identified by key may proceed.
// The target server keys requests by event type, so every endpoint has its
// own budget.
type Limiter interface {
	Allow(ctx context.Context, key string) Decision
}

// Decision captures the result of a rate limit check.
type Decision struct {
	Allowed   bool      `json:"allowed"`
	Remaining int       `json:"remaining"` // Tokens remaining after this check
	Limit     int       `json:"limit"`     // Bucket capacity
	ResetAt   time.Time `json:"reset_at"`  // When the bucket is full again
	RetryAt   time.Time `json:"retry_at"`  // Earliest time to retry (if denied)
}

// RetryAfter returns how long a denied caller should wait, rounded up to
// whole seconds for the Retry-After header.
func (d Decision) RetryAfter(now time.Time) int {
	if d.Allowed || d.RetryAt.IsZero() {
		return 0
	}
	wait := d.RetryAt.Sub(now)
	secs := int(wait / time.Second)
	if wait%time.Second > 0 {
		secs++
	}
	if secs < 1 {
		secs = 1
	}
	return secs
}

// Config holds the token bucket parameters. A zero Rate disables limiting.
type Config struct {
	Rate   int           `mapstructure:"rate" json:"rate"`     // Requests allowed per window
	Window time.Duration `mapstructure:"window" json:"window"` // Refill window
	Burst  int           `mapstructure:"burst" json:"burst"`   // Max burst, 0 means Rate
}

// Enabled reports whether the config asks for limiting at all.
func (c Config) Enabled() bool { return c.Rate > 0 }

// Validate checks that the config describes a usable bucket.
func (c Config) Validate() error {
	if c.Rate <= 0 {
		return fmt.Errorf("rate must be positive, got %d", c.Rate)
	}
	if c.Window <= 0 {
		return fmt.Errorf("window must be positive, got %s", c.Window)
	}
	if c.Burst < 0 {
		return fmt.Errorf("burst must not be negative, got %d", c.Burst)
	}
	return nil
}
