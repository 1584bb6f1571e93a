package limiter

import internallimiter "github.com/SmitUplenchwar2687/rewind/internal/limiter"

// Limiter decides whether a request for a key may proceed.
type Limiter = internallimiter.Limiter

// Decision captures the result of a rate limit check.
type Decision = internallimiter.Decision

// Config holds parameters for creating a limiter.
type Config = internallimiter.Config

// TokenBucket implements the token bucket rate limiting algorithm.
type TokenBucket = internallimiter.TokenBucket
