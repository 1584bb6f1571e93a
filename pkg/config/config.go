package config

import internalconfig "github.com/SmitUplenchwar2687/rewind/internal/config"

// Config is the top-level configuration for a rewind session.
type Config = internalconfig.Config

// TargetConfig describes the API events are sent to.
type TargetConfig = internalconfig.TargetConfig

// ReplayConfig holds paced replay settings.
type ReplayConfig = internalconfig.ReplayConfig

// BulkConfig holds fast bulk settings.
type BulkConfig = internalconfig.BulkConfig

// ServerConfig holds target server settings.
type ServerConfig = internalconfig.ServerConfig

// Record orderings accepted in replay.order.
const (
	OrderRaw  = internalconfig.OrderRaw
	OrderTime = internalconfig.OrderTime
)

// Default returns a Config with sensible defaults.
func Default() Config {
	return internalconfig.Default()
}

// LoadFile reads a YAML, JSON or TOML config file and merges it with
// defaults and REWIND_* environment variables.
func LoadFile(path string) (Config, error) {
	return internalconfig.LoadFile(path)
}

// FromEnv returns defaults with REWIND_* environment overrides applied.
func FromEnv() (Config, error) {
	return internalconfig.FromEnv()
}

// WriteExample writes an example config file to the given path.
func WriteExample(path string) error {
	return internalconfig.WriteExample(path)
}
