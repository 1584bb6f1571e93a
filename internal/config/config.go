package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/SmitUplenchwar2687/rewind/internal/event"
	"github.com/SmitUplenchwar2687/rewind/internal/limiter"
	"github.com/SmitUplenchwar2687/rewind/internal/logging"
	"github.com/SmitUplenchwar2687/rewind/internal/schedule"
	"github.com/SmitUplenchwar2687/rewind/internal/storage"
	"github.com/SmitUplenchwar2687/rewind/internal/tracing"
)

// EnvPrefix is the prefix for environment overrides, e.g. REWIND_TARGET_BASE_URL.
const EnvPrefix = "REWIND"

// Replay orders accepted in replay.order.
const (
	OrderRaw  = "raw"
	OrderTime = "time"
)

// Config is the top-level configuration for a rewind session.
type Config struct {
	Target  TargetConfig   `mapstructure:"target"`
	Replay  ReplayConfig   `mapstructure:"replay"`
	Bulk    BulkConfig     `mapstructure:"bulk"`
	Log     logging.Config `mapstructure:"log"`
	Metrics MetricsConfig  `mapstructure:"metrics"`
	Tracing tracing.Config `mapstructure:"tracing"`
	Server  ServerConfig   `mapstructure:"server"`
}

// TargetConfig describes where events are sent.
type TargetConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
	// Endpoints overrides the URL of individual event types.
	Endpoints map[string]string `mapstructure:"endpoints"`
}

type ReplayConfig struct {
	Speed float64 `mapstructure:"speed"`
	Order string  `mapstructure:"order"` // raw or time
}

type BulkConfig struct {
	Workers int  `mapstructure:"workers"`
	Stats   bool `mapstructure:"stats"`
}

// MetricsConfig enables the Prometheus endpoint when Addr is set.
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// ServerConfig holds settings for the local target server.
type ServerConfig struct {
	Addr       string         `mapstructure:"addr"`
	Latency    time.Duration  `mapstructure:"latency"`
	RecordFile string         `mapstructure:"record_file"`
	RateLimit  limiter.Config `mapstructure:"rate_limit"`
	Storage    storage.Config `mapstructure:"storage"`
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		Target: TargetConfig{
			BaseURL: "http://localhost:8080",
			Timeout: 10 * time.Second,
		},
		Replay: ReplayConfig{
			Speed: 1.0,
			Order: OrderRaw,
		},
		Bulk: BulkConfig{
			Workers: 1,
			Stats:   true,
		},
		Log: logging.Config{
			Level:      "info",
			Format:     "text",
			MaxSizeMB:  logging.DefaultMaxSizeMB,
			MaxBackups: logging.DefaultMaxBackups,
			MaxAgeDays: logging.DefaultMaxAgeDays,
		},
		Tracing: tracing.Config{
			Endpoint:    tracing.DefaultEndpoint,
			ServiceName: "rewind",
		},
		Server: ServerConfig{
			Addr: ":8080",
			RateLimit: limiter.Config{
				Window: time.Second,
			},
			Storage: storage.DefaultConfig(),
		},
	}
}

// Validate checks that the config is valid.
func (c Config) Validate() error {
	u, err := url.Parse(c.Target.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("target.base_url must be an absolute URL, got %q", c.Target.BaseURL)
	}
	if c.Target.Timeout <= 0 {
		return fmt.Errorf("target.timeout must be positive, got %s", c.Target.Timeout)
	}
	for k := range c.Target.Endpoints {
		if !event.Type(k).Valid() {
			return fmt.Errorf("target.endpoints: unknown event type %q", k)
		}
	}
	if err := schedule.ValidateSpeed(c.Replay.Speed); err != nil {
		return fmt.Errorf("replay.speed: %w", err)
	}
	switch c.Replay.Order {
	case OrderRaw, OrderTime:
	default:
		return fmt.Errorf("%w: unknown replay.order %q, must be one of: raw, time", schedule.ErrInvalidConfig, c.Replay.Order)
	}
	if c.Bulk.Workers < 1 {
		return fmt.Errorf("bulk.workers must be at least 1, got %d", c.Bulk.Workers)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if c.Server.RateLimit.Rate > 0 {
		if err := c.Server.RateLimit.Validate(); err != nil {
			return fmt.Errorf("server.rate_limit: %w", err)
		}
	}
	if c.Server.Latency < 0 {
		return fmt.Errorf("server.latency must not be negative, got %s", c.Server.Latency)
	}
	if err := c.Server.Storage.Validate(); err != nil {
		return fmt.Errorf("server.storage: %w", err)
	}
	return nil
}

// LoadFile reads a YAML, JSON or TOML config file and merges it with
// defaults and REWIND_* environment overrides. Fields not specified keep
// their default values.
func LoadFile(path string) (Config, error) {
	if path == "" {
		return Default(), errors.New("config path is required")
	}
	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return Default(), fmt.Errorf("reading config file: %w", err)
	}
	return decode(v)
}

// FromEnv returns defaults merged with REWIND_* environment overrides.
func FromEnv() (Config, error) {
	return decode(newViper())
}

func decode(v *viper.Viper) (Config, error) {
	cfg := Default()
	if err := v.Unmarshal(&cfg); err != nil {
		return Default(), fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Env overrides only apply to keys viper knows about.
	d := Default()
	v.SetDefault("target.base_url", d.Target.BaseURL)
	v.SetDefault("target.timeout", d.Target.Timeout)
	v.SetDefault("replay.speed", d.Replay.Speed)
	v.SetDefault("replay.order", d.Replay.Order)
	v.SetDefault("bulk.workers", d.Bulk.Workers)
	v.SetDefault("bulk.stats", d.Bulk.Stats)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("metrics.addr", d.Metrics.Addr)
	v.SetDefault("tracing.enabled", d.Tracing.Enabled)
	v.SetDefault("tracing.endpoint", d.Tracing.Endpoint)
	v.SetDefault("tracing.service_name", d.Tracing.ServiceName)
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.latency", d.Server.Latency)
	v.SetDefault("server.record_file", d.Server.RecordFile)
	v.SetDefault("server.rate_limit.rate", d.Server.RateLimit.Rate)
	v.SetDefault("server.rate_limit.window", d.Server.RateLimit.Window)
	v.SetDefault("server.rate_limit.burst", d.Server.RateLimit.Burst)
	v.SetDefault("server.storage.backend", d.Server.Storage.Backend)
	v.SetDefault("server.storage.redis.host", d.Server.Storage.Redis.Host)
	v.SetDefault("server.storage.redis.port", d.Server.Storage.Redis.Port)
	v.SetDefault("server.storage.redis.password", d.Server.Storage.Redis.Password)
	v.SetDefault("server.storage.redis.db", d.Server.Storage.Redis.DB)
	return v
}

// WriteExample writes an example YAML config file to the given path.
func WriteExample(path string) error {
	example := `# rewind configuration. Every key can be overridden with REWIND_<SECTION>_<KEY>.
target:
  base_url: http://localhost:8080
  timeout: 10s
  # endpoints:
  #   purchase: http://localhost:9090/checkout

replay:
  speed: 1.0
  order: raw        # raw (timestamp text) or time (parsed event time)

bulk:
  workers: 1
  stats: true

log:
  level: info
  format: text      # text or json
  # file: rewind.log

metrics:
  addr: ""          # e.g. :9100 to expose /metrics

tracing:
  enabled: false
  endpoint: localhost:4318
  service_name: rewind

server:
  addr: ":8080"
  latency: 0s
  record_file: ""
  rate_limit:
    rate: 0         # requests per window, 0 disables limiting
    window: 1s
    burst: 0
  storage:
    backend: memory # memory or redis
    redis:
      host: localhost
      port: 6379
      db: 0
`
	return os.WriteFile(path, []byte(example), 0o644)
}
