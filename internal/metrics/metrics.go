package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Package-level Prometheus collectors. They are registered via Register.
var (
	regOK atomic.Bool

	dispatchRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rewind",
			Subsystem: "dispatch",
			Name:      "requests_total",
			Help:      "Dispatched events by type and result (success, failure, error).",
		}, []string{"event_type", "result"},
	)
	dispatchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "rewind",
			Subsystem: "dispatch",
			Name:      "duration_seconds",
			Help:      "Observed request latency per event type.",
			Buckets:   []float64{0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"event_type"},
	)
	replayLag = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "rewind",
			Subsystem: "replay",
			Name:      "lag_seconds",
			Help:      "How late each paced dispatch started relative to its target offset.",
			Buckets:   prometheus.DefBuckets,
		},
	)
	recordsSkipped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rewind",
			Subsystem: "replay",
			Name:      "records_skipped_total",
			Help:      "Records not dispatched, by reason.",
		}, []string{"reason"},
	)
	targetEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rewind",
			Subsystem: "target",
			Name:      "events_total",
			Help:      "Events received by the target server.",
		}, []string{"event_type", "status"},
	)
)

// Register registers all metrics with the provided registerer.
// It is safe to call multiple times; subsequent calls after success are no-ops.
func Register(r prometheus.Registerer) error {
	if regOK.Load() {
		return nil
	}
	cs := []prometheus.Collector{dispatchRequests, dispatchDuration, replayLag, recordsSkipped, targetEvents}
	for _, c := range cs {
		if err := r.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	regOK.Store(true)
	return nil
}

// Handler returns an http.Handler that serves Prometheus metrics for the DefaultGatherer.
func Handler() http.Handler { return promhttp.Handler() }

// Serve exposes /metrics on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string, logger *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("metrics endpoint listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// Helpers below no-op until Register has been called.

// ObserveDispatch records one dispatch attempt.
func ObserveDispatch(eventType, result string, d time.Duration) {
	if regOK.Load() {
		dispatchRequests.WithLabelValues(eventType, result).Inc()
		dispatchDuration.WithLabelValues(eventType).Observe(d.Seconds())
	}
}

func ObserveLag(d time.Duration) {
	if regOK.Load() {
		replayLag.Observe(d.Seconds())
	}
}

func IncSkipped(reason string) {
	if regOK.Load() {
		recordsSkipped.WithLabelValues(reason).Inc()
	}
}

func IncTargetEvent(eventType, status string) {
	if regOK.Load() {
		targetEvents.WithLabelValues(eventType, status).Inc()
	}
}
