package limiter

import (
	internallimiter "github.com/SmitUplenchwar2687/rewind/internal/limiter"
	"github.com/SmitUplenchwar2687/rewind/pkg/clock"
)

// NewTokenBucket creates a token bucket limiter.
func NewTokenBucket(cfg Config, c clock.Clock) *TokenBucket {
	return internallimiter.NewTokenBucket(cfg, c)
}
