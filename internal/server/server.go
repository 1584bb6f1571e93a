package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/SmitUplenchwar2687/rewind/internal/clock"
	"github.com/SmitUplenchwar2687/rewind/internal/dispatch"
	"github.com/SmitUplenchwar2687/rewind/internal/event"
	"github.com/SmitUplenchwar2687/rewind/internal/limiter"
	"github.com/SmitUplenchwar2687/rewind/internal/logging"
	"github.com/SmitUplenchwar2687/rewind/internal/metrics"
	"github.com/SmitUplenchwar2687/rewind/internal/recorder"
	"github.com/SmitUplenchwar2687/rewind/internal/storage"
)

// Statuses counted per event type.
const (
	StatusAccepted    = "accepted"
	StatusRateLimited = "rate_limited"
	StatusInvalid     = "invalid"
)

const maxBodyBytes = 1 << 20

// Options configures optional server features.
type Options struct {
	Limiter  limiter.Limiter    // nil disables rate limiting
	Counter  storage.Counter    // nil uses an in-memory counter
	Recorder *recorder.Recorder // nil disables recording
	Hub      *Hub               // nil disables the dashboard stream
	Latency  time.Duration      // artificial delay before answering an accepted event
	Logger   *slog.Logger
}

// Server is a local stand-in for the shop API that replays are aimed at.
type Server struct {
	httpServer *http.Server
	clock      clock.Clock
	mux        *http.ServeMux
	opts       Options
	logger     *slog.Logger
}

// New creates a new target server.
func New(addr string, clk clock.Clock, opts Options) *Server {
	if opts.Counter == nil {
		opts.Counter = storage.NewMemoryCounter()
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	s := &Server{
		clock:  clk,
		mux:    http.NewServeMux(),
		opts:   opts,
		logger: logger,
	}
	s.routes()
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           LoggingMiddleware(s.mux, logger, clk),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /{$}", s.handleRoot)
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /stats", s.handleStats)
	for _, t := range event.Types() {
		s.mux.HandleFunc("POST "+dispatch.Path(t), s.handleEvent(t))
	}
	if s.opts.Hub != nil {
		s.mux.HandleFunc("GET /dashboard/", s.handleDashboard)
		s.mux.HandleFunc("GET /ws", s.opts.Hub.HandleWebSocket)
	}
}

// Handler returns the server's routes wrapped in request logging, for use
// with httptest.
func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

// handleRoot serves a welcome message.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	endpoints := make([]string, 0, len(event.Types()))
	for _, t := range event.Types() {
		endpoints = append(endpoints, "POST "+dispatch.Path(t))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"service":   "rewind",
		"status":    "running",
		"time":      s.clock.Now().Format(time.RFC3339),
		"endpoints": endpoints,
	})
}

// handleHealth returns server health status.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(DashboardHTML))
}

// Stats is the body of GET /stats: per event type, a count per status.
type Stats struct {
	Total  int64                       `json:"total"`
	Events map[string]map[string]int64 `json:"events"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.Stats(r.Context())
	if err != nil {
		s.logger.Error("reading counters failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "counters unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// Stats reads the per-type counters from the counter store.
func (s *Server) Stats(ctx context.Context) (Stats, error) {
	st := Stats{Events: make(map[string]map[string]int64, len(event.Types()))}
	for _, t := range event.Types() {
		snap, err := s.opts.Counter.Snapshot(ctx, counterKey(t))
		if err != nil {
			return Stats{}, err
		}
		for _, n := range snap {
			st.Total += n
		}
		st.Events[string(t)] = snap
	}
	return st, nil
}

// ResetStats clears every per-type counter.
func (s *Server) ResetStats(ctx context.Context) error {
	for _, t := range event.Types() {
		if err := s.opts.Counter.Reset(ctx, counterKey(t)); err != nil {
			return err
		}
	}
	return nil
}

func counterKey(t event.Type) string { return "events:" + string(t) }

// handleEvent accepts one event of type t. The body must be a JSON payload.
// With a limiter configured each event type has its own budget, and a
// denied request gets 429 with Retry-After.
func (s *Server) handleEvent(t event.Type) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var p event.Payload
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err := dec.Decode(&p); err != nil {
			s.count(ctx, t, StatusInvalid)
			s.logger.Warn("invalid payload", "event_type", t, "error", err)
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON payload"})
			return
		}

		var decision *limiter.Decision
		if s.opts.Limiter != nil {
			d := s.opts.Limiter.Allow(ctx, string(t))
			decision = &d
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
			w.Header().Set("X-RateLimit-Reset", d.ResetAt.Format(time.RFC3339))
		}

		now := s.clock.Now()
		rec := p.ToRecord(event.FormatTime(now), t)

		if decision != nil && !decision.Allowed {
			s.count(ctx, t, StatusRateLimited)
			s.broadcast(rec, http.StatusTooManyRequests, decision, now)
			w.Header().Set("Retry-After", strconv.Itoa(decision.RetryAfter(now)))
			writeJSON(w, http.StatusTooManyRequests, map[string]any{
				"error":    "rate limit exceeded",
				"decision": decision,
			})
			return
		}

		if s.opts.Latency > 0 {
			if err := clock.Sleep(ctx, s.clock, s.opts.Latency); err != nil {
				return
			}
		}

		if s.opts.Recorder != nil {
			if err := s.opts.Recorder.Record(rec); err != nil {
				s.logger.Error("record error", "error", err)
			}
		}
		s.count(ctx, t, StatusAccepted)
		s.broadcast(rec, http.StatusOK, decision, now)
		s.logger.Debug("event accepted", "event_type", t, "user_id", p.UserID, "product_id", p.ProductID)

		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "event_type": string(t)})
	}
}

func (s *Server) count(ctx context.Context, t event.Type, status string) {
	metrics.IncTargetEvent(string(t), status)
	if _, err := s.opts.Counter.Incr(ctx, counterKey(t), status, 1); err != nil {
		s.logger.Warn("counter update failed", "event_type", t, "status", status, "error", err)
	}
}

func (s *Server) broadcast(rec event.Record, status int, d *limiter.Decision, at time.Time) {
	if s.opts.Hub == nil {
		return
	}
	s.opts.Hub.Broadcast(&recorder.Received{Record: rec, Status: status, Decision: d, Time: at})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// Start begins listening. It blocks until the server is shut down.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	return s.StartOnListener(ln)
}

// StartOnListener begins serving on the provided listener.
// Useful for tests that need to pick an ephemeral port.
func (s *Server) StartOnListener(ln net.Listener) error {
	s.logger.Info("target server listening", "addr", ln.Addr().String())
	if err := s.httpServer.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
