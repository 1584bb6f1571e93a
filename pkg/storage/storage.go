package storage

import internalstorage "github.com/SmitUplenchwar2687/rewind/internal/storage"

// Backend names accepted in Config.Backend.
const (
	BackendMemory = internalstorage.BackendMemory
	BackendRedis  = internalstorage.BackendRedis
)

// Counter keeps named groups of int64 counters for the target server.
type Counter = internalstorage.Counter

// Config selects and configures a Counter backend.
type Config = internalstorage.Config

// RedisConfig configures the Redis backend.
type RedisConfig = internalstorage.RedisConfig

// MemoryCounter is an in-memory Counter.
type MemoryCounter = internalstorage.MemoryCounter

// RedisCounter is a Counter backed by Redis hashes.
type RedisCounter = internalstorage.RedisCounter

// DefaultConfig returns the memory backend with Redis defaults filled in.
func DefaultConfig() Config {
	return internalstorage.DefaultConfig()
}

// New builds the Counter selected by cfg.Backend.
func New(cfg Config) (Counter, error) {
	return internalstorage.New(cfg)
}

// NewMemoryCounter creates an empty in-memory counter.
func NewMemoryCounter() *MemoryCounter {
	return internalstorage.NewMemoryCounter()
}

// NewRedisCounter connects to Redis and verifies the connection.
func NewRedisCounter(cfg *RedisConfig) (*RedisCounter, error) {
	return internalstorage.NewRedisCounter(cfg)
}
