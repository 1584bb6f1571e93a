package config

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/SmitUplenchwar2687/rewind/internal/schedule"
	"github.com/SmitUplenchwar2687/rewind/internal/storage"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Target.BaseURL != "http://localhost:8080" {
		t.Errorf("default base url = %q, want %q", cfg.Target.BaseURL, "http://localhost:8080")
	}
	if cfg.Replay.Speed != 1.0 {
		t.Errorf("default speed = %v, want 1.0", cfg.Replay.Speed)
	}
	if cfg.Replay.Order != OrderRaw {
		t.Errorf("default order = %q, want %q", cfg.Replay.Order, OrderRaw)
	}
	if cfg.Bulk.Workers != 1 {
		t.Errorf("default workers = %d, want 1", cfg.Bulk.Workers)
	}
	if cfg.Server.Storage.Backend != storage.BackendMemory {
		t.Errorf("default storage backend = %q, want memory", cfg.Server.Storage.Backend)
	}
	if cfg.Server.RateLimit.Enabled() {
		t.Error("rate limiting should be off by default")
	}
}

func TestValidate_Valid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("default config should be valid, got %v", err)
	}
}

func TestValidate_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"relative base url", func(c *Config) { c.Target.BaseURL = "localhost" }},
		{"zero timeout", func(c *Config) { c.Target.Timeout = 0 }},
		{"unknown endpoint type", func(c *Config) { c.Target.Endpoints = map[string]string{"refund": "http://x/r"} }},
		{"zero speed", func(c *Config) { c.Replay.Speed = 0 }},
		{"negative speed", func(c *Config) { c.Replay.Speed = -2 }},
		{"unknown order", func(c *Config) { c.Replay.Order = "random" }},
		{"no workers", func(c *Config) { c.Bulk.Workers = 0 }},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }},
		{"rate limit without window", func(c *Config) {
			c.Server.RateLimit.Rate = 5
			c.Server.RateLimit.Window = 0
		}},
		{"negative latency", func(c *Config) { c.Server.Latency = -time.Second }},
		{"unknown storage", func(c *Config) { c.Server.Storage.Backend = "crdt" }},
	}
	for _, tt := range tests {
		cfg := Default()
		tt.mutate(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: expected error", tt.name)
		}
	}
}

func TestValidate_ReplayErrorsMatchInvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero speed", func(c *Config) { c.Replay.Speed = 0 }},
		{"negative speed", func(c *Config) { c.Replay.Speed = -2 }},
		{"NaN speed", func(c *Config) { c.Replay.Speed = math.NaN() }},
		{"infinite speed", func(c *Config) { c.Replay.Speed = math.Inf(1) }},
		{"unknown order", func(c *Config) { c.Replay.Order = "random" }},
	}
	for _, tt := range tests {
		cfg := Default()
		tt.mutate(&cfg)
		err := cfg.Validate()
		if !errors.Is(err, schedule.ErrInvalidConfig) {
			t.Errorf("%s: Validate() error = %v, want schedule.ErrInvalidConfig", tt.name, err)
		}
	}
}

func TestValidate_EndpointOverride(t *testing.T) {
	cfg := Default()
	cfg.Target.Endpoints = map[string]string{"purchase": "http://localhost:9090/checkout"}
	if err := cfg.Validate(); err != nil {
		t.Errorf("override for known type should be valid, got %v", err)
	}
}

func TestLoadFile_YAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rewind.yaml")

	content := `target:
  base_url: http://shop.local:9000
  timeout: 3s
  endpoints:
    purchase: http://shop.local:9000/checkout
replay:
  speed: 10
server:
  rate_limit:
    rate: 50
    window: 2s
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if cfg.Target.BaseURL != "http://shop.local:9000" {
		t.Errorf("base url = %q", cfg.Target.BaseURL)
	}
	if cfg.Target.Timeout != 3*time.Second {
		t.Errorf("timeout = %s, want 3s", cfg.Target.Timeout)
	}
	if got := cfg.Target.Endpoints["purchase"]; got != "http://shop.local:9000/checkout" {
		t.Errorf("purchase override = %q", got)
	}
	if cfg.Replay.Speed != 10 {
		t.Errorf("speed = %v, want 10", cfg.Replay.Speed)
	}
	if cfg.Server.RateLimit.Rate != 50 || cfg.Server.RateLimit.Window != 2*time.Second {
		t.Errorf("rate limit = %+v, want rate 50 window 2s", cfg.Server.RateLimit)
	}
	// Unspecified fields keep defaults.
	if cfg.Replay.Order != OrderRaw {
		t.Errorf("order = %q, want default %q", cfg.Replay.Order, OrderRaw)
	}
	if cfg.Bulk.Workers != 1 {
		t.Errorf("workers = %d, want default 1", cfg.Bulk.Workers)
	}
}

func TestLoadFile_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rewind.json")
	content := `{"bulk": {"workers": 8}, "log": {"format": "json"}}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if cfg.Bulk.Workers != 8 {
		t.Errorf("workers = %d, want 8", cfg.Bulk.Workers)
	}
	if cfg.Log.Format != "json" {
		t.Errorf("log format = %q, want json", cfg.Log.Format)
	}
}

func TestLoadFile_EnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rewind.yaml")
	if err := os.WriteFile(path, []byte("replay:\n  speed: 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("REWIND_TARGET_BASE_URL", "http://env.local:7000")
	t.Setenv("REWIND_REPLAY_SPEED", "4")

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if cfg.Target.BaseURL != "http://env.local:7000" {
		t.Errorf("base url = %q, want env override", cfg.Target.BaseURL)
	}
	if cfg.Replay.Speed != 4 {
		t.Errorf("speed = %v, want env override 4", cfg.Replay.Speed)
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv("REWIND_BULK_WORKERS", "3")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv() error = %v", err)
	}
	if cfg.Bulk.Workers != 3 {
		t.Errorf("workers = %d, want 3", cfg.Bulk.Workers)
	}
}

func TestLoadFile_Missing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := LoadFile(""); err == nil {
		t.Error("expected error for empty path")
	}
}

func TestWriteExample_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "example.yaml")
	if err := WriteExample(path); err != nil {
		t.Fatalf("WriteExample() error = %v", err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile(example) error = %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("example config should be valid, got %v", err)
	}
	if cfg.Target.Timeout != 10*time.Second {
		t.Errorf("example timeout = %s, want 10s", cfg.Target.Timeout)
	}
}
