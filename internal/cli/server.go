package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/SmitUplenchwar2687/rewind/internal/clock"
	"github.com/SmitUplenchwar2687/rewind/internal/config"
	"github.com/SmitUplenchwar2687/rewind/internal/limiter"
	"github.com/SmitUplenchwar2687/rewind/internal/recorder"
	"github.com/SmitUplenchwar2687/rewind/internal/server"
	"github.com/SmitUplenchwar2687/rewind/internal/storage"
)

func newServerCmd(root *rootOptions) *cobra.Command {
	var (
		addr       string
		latency    time.Duration
		recordFile string
		rate       int
		window     time.Duration
		burst      int
		store      = defaultStorageOptions()
	)

	cmd := &cobra.Command{
		Use:     "serve",
		Aliases: []string{"server"},
		Short:   "Start a local target server that accepts replayed events",
		Long: `Starts an HTTP server that stands in for the shop API, so replays can be
tried without a real backend.

Endpoints:
  POST /view, /cart, /remove_from_cart, /purchase
                         Accept one event (200, 400 on bad JSON)
  GET  /                 Server info
  GET  /health           Health check
  GET  /stats            Events received per type and status
  GET  /dashboard/       Live visual dashboard
  WS   /ws               WebSocket stream of received events

With --rate each event type gets its own token bucket; requests over the
budget get 429, which rewind counts as a failure.`,
		Example: `  rewind serve
  rewind serve --addr :9090 --latency 20ms
  rewind serve --rate 100 --window 1s --burst 20
  rewind serve --record received.csv --storage redis --redis-host localhost:6379`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := root.start(cmd, func(cfg *config.Config) {
				applyServerFlags(cmd, &cfg.Server, addr, latency, recordFile, rate, window, burst)
				store.applyConfigIfUnset(cmd, &cfg.Server.Storage)
				cfg.Server.Storage = store.toConfig()
			})
			if err != nil {
				return err
			}
			defer s.Close()

			if err := store.normalize(); err != nil {
				return err
			}
			sc := s.cfg.Server
			sc.Storage = store.toConfig()

			counter, err := storage.New(sc.Storage)
			if err != nil {
				return fmt.Errorf("opening %s counter store: %w", sc.Storage.Backend, err)
			}
			defer counter.Close()

			clk := clock.NewRealClock()
			opts := server.Options{
				Counter: counter,
				Hub:     server.NewHub(s.logger),
				Latency: sc.Latency,
				Logger:  s.logger,
			}
			if sc.RateLimit.Enabled() {
				opts.Limiter = limiter.NewTokenBucket(sc.RateLimit, clk)
			}
			if sc.RecordFile != "" {
				rec, err := recorder.Create(sc.RecordFile)
				if err != nil {
					return fmt.Errorf("opening record file: %w", err)
				}
				defer rec.Close()
				opts.Recorder = rec
			}

			srv := server.New(sc.Addr, clk, opts)

			fmt.Fprintf(s.out, "\n  rewind target server\n")
			fmt.Fprintf(s.out, "  ────────────────────────────────────\n")
			fmt.Fprintf(s.out, "  Events:     http://localhost%s/{view,cart,remove_from_cart,purchase}\n", sc.Addr)
			fmt.Fprintf(s.out, "  Dashboard:  http://localhost%s/dashboard/\n", sc.Addr)
			fmt.Fprintf(s.out, "  Stats:      http://localhost%s/stats\n", sc.Addr)
			fmt.Fprintf(s.out, "  Storage:    %s\n", sc.Storage.Backend)
			if sc.RecordFile != "" {
				fmt.Fprintf(s.out, "  Recording:  %s\n", sc.RecordFile)
			}
			if sc.RateLimit.Enabled() {
				fmt.Fprintf(s.out, "  Rate limit: %d req/%s per event type\n", sc.RateLimit.Rate, sc.RateLimit.Window)
			}
			fmt.Fprintf(s.out, "  ────────────────────────────────────\n\n")

			// Graceful shutdown on SIGINT/SIGTERM.
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.Start()
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
				s.logger.Info("shutting down")
				if opts.Recorder != nil {
					s.logger.Info("recorded received events", "count", opts.Recorder.Len(), "file", sc.RecordFile)
				}
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			}
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "address to listen on")
	cmd.Flags().DurationVar(&latency, "latency", 0, "artificial delay before answering each accepted event")
	cmd.Flags().StringVar(&recordFile, "record", "", "record received events to this CSV file as they arrive")
	cmd.Flags().IntVar(&rate, "rate", 0, "requests allowed per window and event type (0 = no limit)")
	cmd.Flags().DurationVar(&window, "window", time.Second, "rate limit window duration")
	cmd.Flags().IntVar(&burst, "burst", 0, "max burst size (0 = same as rate)")
	store.addFlags(cmd)

	return cmd
}

// applyServerFlags copies explicitly set flags over the config values.
func applyServerFlags(cmd *cobra.Command, sc *config.ServerConfig, addr string, latency time.Duration, recordFile string, rate int, window time.Duration, burst int) {
	flags := cmd.Flags()
	if flags.Changed("addr") {
		sc.Addr = addr
	}
	if flags.Changed("latency") {
		sc.Latency = latency
	}
	if flags.Changed("record") {
		sc.RecordFile = recordFile
	}
	if flags.Changed("rate") {
		sc.RateLimit.Rate = rate
	}
	if flags.Changed("window") {
		sc.RateLimit.Window = window
	}
	if flags.Changed("burst") {
		sc.RateLimit.Burst = burst
	}
}
