package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/SmitUplenchwar2687/rewind/internal/clock"
	"github.com/SmitUplenchwar2687/rewind/internal/config"
	"github.com/SmitUplenchwar2687/rewind/internal/dispatch"
	"github.com/SmitUplenchwar2687/rewind/internal/event"
	"github.com/SmitUplenchwar2687/rewind/internal/loader"
	"github.com/SmitUplenchwar2687/rewind/internal/logging"
	"github.com/SmitUplenchwar2687/rewind/internal/metrics"
	"github.com/SmitUplenchwar2687/rewind/internal/replay"
	"github.com/SmitUplenchwar2687/rewind/internal/tracing"
)

// rootOptions are the persistent flags shared by every command.
type rootOptions struct {
	configPath  string
	logLevel    string
	logFormat   string
	logFile     string
	metricsAddr string
	tracing     bool
	baseURL     string
	timeout     time.Duration
}

func (o *rootOptions) addFlags(cmd *cobra.Command) {
	f := cmd.PersistentFlags()
	f.StringVar(&o.configPath, "config", "", "path to config file (YAML, JSON or TOML)")
	f.StringVar(&o.logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	f.StringVar(&o.logFormat, "log-format", "text", "log format (text, json)")
	f.StringVar(&o.logFile, "log-file", "", "also write logs to this rotating file")
	f.StringVar(&o.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9100")
	f.BoolVar(&o.tracing, "tracing", false, "export spans to an OTLP/HTTP collector")
	f.StringVar(&o.baseURL, "base-url", "http://localhost:8080", "base URL of the target API")
	f.DurationVar(&o.timeout, "timeout", 10*time.Second, "per-request timeout")
}

// loadConfig reads the config file, or defaults plus REWIND_* environment
// overrides without one. Flags win only when explicitly set.
func (o *rootOptions) loadConfig(cmd *cobra.Command) (config.Config, error) {
	var (
		cfg config.Config
		err error
	)
	if o.configPath != "" {
		cfg, err = config.LoadFile(o.configPath)
	} else {
		cfg, err = config.FromEnv()
	}
	if err != nil {
		return cfg, err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Log.Level = o.logLevel
	}
	if flags.Changed("log-format") {
		cfg.Log.Format = o.logFormat
	}
	if flags.Changed("log-file") {
		cfg.Log.File = o.logFile
	}
	if flags.Changed("metrics-addr") {
		cfg.Metrics.Addr = o.metricsAddr
	}
	if flags.Changed("tracing") {
		cfg.Tracing.Enabled = o.tracing
	}
	if flags.Changed("base-url") {
		cfg.Target.BaseURL = o.baseURL
	}
	if flags.Changed("timeout") {
		cfg.Target.Timeout = o.timeout
	}
	return cfg, nil
}

// session holds what a command needs once config is resolved.
type session struct {
	cfg     config.Config
	logger  *slog.Logger
	out     io.Writer
	closers []func()
}

// start resolves config, builds the logger and starts the optional metrics
// endpoint and tracer. mutate may adjust command-specific settings before
// validation. Callers must Close the session.
func (o *rootOptions) start(cmd *cobra.Command, mutate func(*config.Config)) (*session, error) {
	cfg, err := o.loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	if mutate != nil {
		mutate(&cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logger, closer, err := logging.NewTo(cfg.Log, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	s := &session{cfg: cfg, logger: logger, out: cmd.OutOrStdout()}
	s.closers = append(s.closers, func() { closer.Close() })

	if cfg.Metrics.Addr != "" {
		if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
			s.Close()
			return nil, fmt.Errorf("registering metrics: %w", err)
		}
		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			if err := metrics.Serve(ctx, cfg.Metrics.Addr, logger); err != nil {
				logger.Error("metrics endpoint failed", "error", err)
			}
		}()
		s.closers = append(s.closers, cancel)
	}

	if cfg.Tracing.Enabled {
		if err := tracing.Init(cmd.Context(), cfg.Tracing, logger); err != nil {
			s.Close()
			return nil, fmt.Errorf("initializing tracing: %w", err)
		}
		s.closers = append(s.closers, func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			tracing.Shutdown(ctx, logger)
		})
	}
	return s, nil
}

// Close releases everything start acquired, in reverse order.
func (s *session) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}

// runner builds a Runner aimed at the configured target. A nil transport
// means real HTTP with the configured timeout.
func (s *session) runner(transport dispatch.Transport, clk clock.Clock, opts ...replay.Option) (*replay.Runner, error) {
	endpoints, err := dispatch.NewEndpoints(s.cfg.Target.BaseURL, s.cfg.Target.Endpoints)
	if err != nil {
		return nil, err
	}
	if transport == nil {
		transport = dispatch.NewHTTPTransport(dispatch.WithTimeout(s.cfg.Target.Timeout))
	}
	d := dispatch.New(endpoints, transport,
		dispatch.WithLogger(s.logger),
		dispatch.WithClock(clk),
	)
	opts = append([]replay.Option{
		replay.WithClock(clk),
		replay.WithLogger(s.logger),
	}, opts...)
	return replay.New(d, opts...), nil
}

// inputOptions select which recorded rows a command works on.
type inputOptions struct {
	skip   int
	limit  int
	types  []string
	after  string
	before string
}

func (o *inputOptions) addFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&o.skip, "skip", 0, "skip this many rows from the start of the input")
	cmd.Flags().IntVar(&o.limit, "limit", 0, "use at most this many rows (0 = all)")
	cmd.Flags().StringSliceVar(&o.types, "types", nil, "only these event types (comma-separated)")
	cmd.Flags().StringVar(&o.after, "after", "", "only events after this time, e.g. \"2019-10-01 00:00:00 UTC\"")
	cmd.Flags().StringVar(&o.before, "before", "", "only events before this time")
}

func (o *inputOptions) filter() (*replay.Filter, error) {
	f := &replay.Filter{}
	for _, raw := range o.types {
		t := event.Type(strings.TrimSpace(raw))
		if !t.Valid() {
			return nil, fmt.Errorf("unknown event type %q, must be one of: %s", raw, typeList())
		}
		if !slices.Contains(f.Types, t) {
			f.Types = append(f.Types, t)
		}
	}
	var err error
	if o.after != "" {
		if f.After, err = event.ParseTime(o.after); err != nil {
			return nil, fmt.Errorf("--after: %w", err)
		}
	}
	if o.before != "" {
		if f.Before, err = event.ParseTime(o.before); err != nil {
			return nil, fmt.Errorf("--before: %w", err)
		}
	}
	return f, nil
}

// load reads files, cuts the --skip/--limit window over the raw rows and
// then applies the filter.
func (o *inputOptions) load(files []string) ([]event.Record, error) {
	f, err := o.filter()
	if err != nil {
		return nil, err
	}
	if o.skip < 0 || o.limit < 0 {
		return nil, fmt.Errorf("--skip and --limit must not be negative")
	}
	records, err := loader.LoadFiles(files, loader.Options{Skip: o.skip, Limit: o.limit})
	if err != nil {
		return nil, err
	}
	return f.Apply(records), nil
}

func typeList() string {
	names := make([]string, 0, len(event.Types()))
	for _, t := range event.Types() {
		names = append(names, string(t))
	}
	return strings.Join(names, ", ")
}
