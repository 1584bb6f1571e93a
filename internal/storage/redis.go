package storage

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultRedisPoolSize    = 20
	defaultRedisMaxRetries  = 3
	defaultRedisDialTimeout = 5 * time.Second

	redisCounterPrefix = "rewind:counter:"
)

// RedisCounter is a Redis-backed Counter. Each key is a hash and each
// field a HINCRBY counter, so several target servers can share totals.
type RedisCounter struct {
	client redis.UniversalClient

	closeOnce sync.Once
	closeErr  error
}

// NewRedisCounter connects to Redis and verifies the connection.
func NewRedisCounter(cfg *RedisConfig) (*RedisCounter, error) {
	conf, err := normalizeRedisConfig(cfg)
	if err != nil {
		return nil, err
	}

	s := &RedisCounter{client: newRedisClient(conf)}

	if err := s.pingWithRetry(context.Background(), conf.MaxRetries); err != nil {
		_ = s.client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return s, nil
}

func (s *RedisCounter) Incr(ctx context.Context, key, field string, delta int64) (int64, error) {
	if key == "" || field == "" {
		return 0, fmt.Errorf("key and field are required")
	}
	n, err := s.client.HIncrBy(ctx, redisCounterPrefix+key, field, delta).Result()
	if err != nil {
		return 0, fmt.Errorf("incrementing %s/%s: %w", key, field, err)
	}
	return n, nil
}

func (s *RedisCounter) Snapshot(ctx context.Context, key string) (map[string]int64, error) {
	raw, err := s.client.HGetAll(ctx, redisCounterPrefix+key).Result()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", key, err)
	}
	out := make(map[string]int64, len(raw))
	for f, v := range raw {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse counter %s/%s from %q: %w", key, f, v, err)
		}
		out[f] = n
	}
	return out, nil
}

func (s *RedisCounter) Reset(ctx context.Context, key string) error {
	return s.client.Del(ctx, redisCounterPrefix+key).Err()
}

// Close releases Redis resources. It is idempotent.
func (s *RedisCounter) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.client.Close()
	})
	return s.closeErr
}

func (s *RedisCounter) pingWithRetry(ctx context.Context, maxRetries int) error {
	attempts := maxRetries + 1
	if attempts < 1 {
		attempts = 1
	}

	backoff := 100 * time.Millisecond
	var lastErr error
	for i := 0; i < attempts; i++ {
		err := s.client.Ping(ctx).Err()
		if err == nil {
			return nil
		}
		lastErr = err

		if i == attempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}

	if lastErr == nil {
		lastErr = errors.New("ping failed with unknown error")
	}
	return lastErr
}

func normalizeRedisConfig(cfg *RedisConfig) (*RedisConfig, error) {
	if cfg == nil {
		return nil, fmt.Errorf("redis config is required")
	}

	conf := *cfg
	if conf.PoolSize <= 0 {
		conf.PoolSize = defaultRedisPoolSize
	}
	if conf.MaxRetries <= 0 {
		conf.MaxRetries = defaultRedisMaxRetries
	}
	if conf.DialTimeout <= 0 {
		conf.DialTimeout = defaultRedisDialTimeout
	}

	if conf.Cluster {
		if len(conf.ClusterNodes) == 0 {
			return nil, fmt.Errorf("cluster_nodes is required when cluster=true")
		}
	} else {
		if conf.Host == "" {
			return nil, fmt.Errorf("host is required when cluster=false")
		}
		if conf.Port <= 0 {
			return nil, fmt.Errorf("port must be positive when cluster=false, got %d", conf.Port)
		}
	}
	return &conf, nil
}

func newRedisClient(cfg *RedisConfig) redis.UniversalClient {
	if cfg.Cluster {
		return redis.NewClusterClient(&redis.ClusterOptions{
			Addrs:       cfg.ClusterNodes,
			Password:    cfg.Password,
			PoolSize:    cfg.PoolSize,
			MaxRetries:  cfg.MaxRetries,
			DialTimeout: cfg.DialTimeout,
		})
	}

	return redis.NewClient(&redis.Options{
		Addr:        cfg.Host + ":" + strconv.Itoa(cfg.Port),
		Password:    cfg.Password,
		DB:          cfg.DB,
		PoolSize:    cfg.PoolSize,
		MaxRetries:  cfg.MaxRetries,
		DialTimeout: cfg.DialTimeout,
	})
}
