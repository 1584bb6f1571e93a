package limiter

import (
	"context"
	"sync"
	"time"

	"github.com/SmitUplenchwar2687/rewind/internal/clock"
)

// TokenBucket is the target server's per-endpoint throttle.
//
// Tokens refill at Rate per Window and each request takes one. A denied
// request makes the server answer 429, which the dispatcher counts as a
// failure because only 200 is a success.
type TokenBucket struct {
	clock    clock.Clock
	rate     float64 // tokens per second
	capacity int     // max tokens (burst)
	mu       sync.Mutex
	buckets  map[string]*bucket
}

type bucket struct {
	tokens   float64
	lastFill time.Time
}

// NewTokenBucket creates a limiter from cfg. The config must be valid.
func NewTokenBucket(cfg Config, c clock.Clock) *TokenBucket {
	burst := cfg.Burst
	if burst <= 0 {
		burst = cfg.Rate
	}
	tokensPerSec := float64(cfg.Rate) / cfg.Window.Seconds()
	return &TokenBucket{
		clock:    c,
		rate:     tokensPerSec,
		capacity: burst,
		buckets:  make(map[string]*bucket),
	}
}

// Allow takes one token from the bucket of key, usually an event type.
func (tb *TokenBucket) Allow(_ context.Context, key string) Decision {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := tb.clock.Now()
	b := tb.buckets[key]
	if b == nil {
		b = &bucket{tokens: float64(tb.capacity), lastFill: now}
		tb.buckets[key] = b
	}
	b.refill(now, tb.rate, float64(tb.capacity))

	d := Decision{
		Limit:   tb.capacity,
		ResetAt: now.Add(tb.timeFor(float64(tb.capacity) - b.tokens)),
	}
	if b.tokens < 1 {
		d.RetryAt = now.Add(tb.timeFor(1 - b.tokens))
		return d
	}
	b.tokens--
	d.Allowed = true
	d.Remaining = int(b.tokens)
	return d
}

func (b *bucket) refill(now time.Time, perSec, limit float64) {
	b.tokens = min(limit, b.tokens+now.Sub(b.lastFill).Seconds()*perSec)
	b.lastFill = now
}

// timeFor is how long the bucket takes to gain n tokens.
func (tb *TokenBucket) timeFor(n float64) time.Duration {
	if n <= 0 {
		return 0
	}
	return time.Duration(n / tb.rate * float64(time.Second))
}
