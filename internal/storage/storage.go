package storage

import (
	"context"
	"fmt"
	"time"
)

// Backend names accepted in server.storage.backend.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Counter keeps named groups of int64 counters, e.g. events received per
// event type and status on the target server.
// Implementations must be safe for concurrent use.
type Counter interface {
	// Incr adds delta to field within key and returns the new value.
	// Missing keys and fields start at zero.
	Incr(ctx context.Context, key, field string, delta int64) (int64, error)

	// Snapshot returns a copy of every field of key. A missing key yields an
	// empty map.
	Snapshot(ctx context.Context, key string) (map[string]int64, error)

	// Reset removes key and all its fields.
	Reset(ctx context.Context, key string) error

	Close() error
}

// Config selects and configures a Counter backend.
type Config struct {
	Backend string      `mapstructure:"backend"`
	Redis   RedisConfig `mapstructure:"redis"`
}

// RedisConfig configures the Redis backend.
type RedisConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	Cluster      bool          `mapstructure:"cluster"`
	ClusterNodes []string      `mapstructure:"cluster_nodes"`
	PoolSize     int           `mapstructure:"pool_size"`
	MaxRetries   int           `mapstructure:"max_retries"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
}

// DefaultConfig returns the memory backend with Redis defaults filled in.
func DefaultConfig() Config {
	return Config{
		Backend: BackendMemory,
		Redis: RedisConfig{
			Host:        "localhost",
			Port:        6379,
			PoolSize:    defaultRedisPoolSize,
			MaxRetries:  defaultRedisMaxRetries,
			DialTimeout: defaultRedisDialTimeout,
		},
	}
}

// Validate checks the backend name and, for Redis, its connection settings.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendMemory:
		return nil
	case BackendRedis:
		_, err := normalizeRedisConfig(&c.Redis)
		return err
	default:
		return fmt.Errorf("unknown backend %q, must be one of: memory, redis", c.Backend)
	}
}

// New builds the Counter selected by cfg.Backend.
func New(cfg Config) (Counter, error) {
	switch cfg.Backend {
	case "", BackendMemory:
		return NewMemoryCounter(), nil
	case BackendRedis:
		return NewRedisCounter(&cfg.Redis)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
