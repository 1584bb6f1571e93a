package replay

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/SmitUplenchwar2687/rewind/internal/clock"
	"github.com/SmitUplenchwar2687/rewind/internal/dispatch"
	"github.com/SmitUplenchwar2687/rewind/internal/event"
	"github.com/SmitUplenchwar2687/rewind/internal/logging"
	"github.com/SmitUplenchwar2687/rewind/internal/perf"
	"github.com/SmitUplenchwar2687/rewind/internal/schedule"
)

// ErrBusy is returned when a run is started while another is in progress.
var ErrBusy = errors.New("a run is already in progress")

// State is the lifecycle of a Runner.
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateDone
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// Modes reported in Event.Mode.
const (
	ModeSend   = "send"
	ModeReplay = "replay"
	ModeBulk   = "bulk"
)

// Event is published to the Observer after every dispatch.
type Event struct {
	RunID     string            `json:"run_id"`
	Mode      string            `json:"mode"`
	Seq       int               `json:"seq"`
	EventType event.Type        `json:"event_type"`
	Time      time.Time         `json:"time"`
	Outcome   *dispatch.Outcome `json:"outcome,omitempty"`
}

// Observer receives run events. It is called from worker goroutines and
// must not block.
type Observer func(Event)

// BulkOptions configures FastBulk.
type BulkOptions struct {
	// Workers bounds concurrent requests. Values below 2 dispatch
	// sequentially in input order.
	Workers int
}

// BulkResult is the outcome of a FastBulk run.
type BulkResult struct {
	RunID     string             `json:"run_id"`
	Stats     perf.Stats         `json:"stats"`
	Outcomes  []dispatch.Outcome `json:"outcomes"`
	Attempted int                `json:"attempted"`
	Skipped   int                `json:"skipped"`
	Wall      time.Duration      `json:"wall_ns"`
}

// Runner drives the three dispatch modes: a single unmeasured send, a paced
// replay and an unpaced measured bulk run. One run at a time.
type Runner struct {
	dispatcher *dispatch.Dispatcher
	agg        *perf.Aggregator
	clock      clock.Clock
	logger     *slog.Logger
	order      schedule.Order
	observer   Observer

	mu    sync.Mutex
	state State
	runID string
}

// Option customises a Runner.
type Option func(*Runner)

// WithClock sets the clock used for pacing and wall-time measurement.
func WithClock(c clock.Clock) Option {
	return func(r *Runner) { r.clock = c }
}

func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// WithOrder sets the record ordering used by Replay.
func WithOrder(o schedule.Order) Option {
	return func(r *Runner) { r.order = o }
}

func WithObserver(o Observer) Option {
	return func(r *Runner) { r.observer = o }
}

// WithAggregator shares an aggregator, e.g. with a live dashboard.
func WithAggregator(a *perf.Aggregator) Option {
	return func(r *Runner) { r.agg = a }
}

// New creates a Runner around d.
func New(d *dispatch.Dispatcher, opts ...Option) *Runner {
	r := &Runner{
		dispatcher: d,
		agg:        perf.New(),
		clock:      clock.NewRealClock(),
		logger:     logging.Discard(),
		order:      schedule.ByRawTimestamp,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// State returns the current lifecycle state.
func (r *Runner) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// RunID returns the id of the current or last run.
func (r *Runner) RunID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.runID
}

// Aggregator exposes the outcomes of the last bulk run.
func (r *Runner) Aggregator() *perf.Aggregator { return r.agg }

func (r *Runner) begin() (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == StateRunning {
		return "", ErrBusy
	}
	r.state = StateRunning
	r.runID = uuid.NewString()
	return r.runID, nil
}

func (r *Runner) end() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = StateDone
}

func (r *Runner) notify(ev Event) {
	if r.observer == nil {
		return
	}
	ev.Time = r.clock.Now()
	r.observer(ev)
}

// SendOne dispatches a single record without measurement. A record that
// cannot be dispatched yields dispatch.ErrNotDispatchable.
func (r *Runner) SendOne(ctx context.Context, rec event.Record) error {
	id, err := r.begin()
	if err != nil {
		return err
	}
	defer r.end()

	if _, err := r.dispatcher.Dispatch(ctx, rec, false); err != nil {
		return err
	}
	r.notify(Event{RunID: id, Mode: ModeSend, EventType: rec.Type()})
	return nil
}

// Replay sends records paced by their event times divided by speed.
// An invalid speed fails with schedule.ErrInvalidConfig before anything is
// sent. Replay collects no statistics.
func (r *Runner) Replay(ctx context.Context, records []event.Record, speed float64) (*schedule.Summary, error) {
	pacer, err := schedule.New(speed,
		schedule.WithClock(r.clock),
		schedule.WithOrder(r.order),
		schedule.WithLogger(r.logger),
	)
	if err != nil {
		return nil, err
	}

	id, err := r.begin()
	if err != nil {
		return nil, err
	}
	defer r.end()

	log := r.logger.With("run_id", id)
	log.Info("replay started", "records", len(records), "speed", speed)

	sum, err := pacer.Run(ctx, records, func(ctx context.Context, seq int, rec event.Record) error {
		if _, err := r.dispatcher.DispatchSeq(ctx, seq, rec, false); err != nil {
			return err
		}
		r.notify(Event{RunID: id, Mode: ModeReplay, Seq: seq, EventType: rec.Type()})
		return nil
	})

	log.Info("replay finished",
		"dispatched", sum.Dispatched,
		"skipped", sum.Skipped,
		"parse_errors", sum.ParseErrors,
		"wall", sum.WallDuration,
		"max_lag", sum.MaxLag)
	return sum, err
}

// FastBulk dispatches every record as fast as possible with measurement and
// returns the statistics. The aggregator is cleared first. Records that are
// not dispatchable are skipped. On cancellation in-flight requests finish
// and the partial result is returned with ctx.Err().
func (r *Runner) FastBulk(ctx context.Context, records []event.Record, opts BulkOptions) (*BulkResult, error) {
	id, err := r.begin()
	if err != nil {
		return nil, err
	}
	defer r.end()

	log := r.logger.With("run_id", id)
	workers := max(opts.Workers, 1)
	log.Info("bulk run started", "records", len(records), "workers", workers)

	r.agg.Clear()
	var attempted, skipped atomic.Int64
	start := r.clock.Now()

	var g errgroup.Group
	g.SetLimit(workers)
	var runErr error
	for seq, rec := range records {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
		if !rec.Dispatchable() {
			skipped.Add(1)
			continue
		}
		g.Go(func() error {
			o, err := r.dispatcher.DispatchSeq(ctx, seq, rec, true)
			if err != nil {
				// Only a payload encoding failure gets here.
				log.Warn("dispatch failed", "seq", seq, "error", err)
				return nil
			}
			attempted.Add(1)
			r.agg.Add(*o)
			r.notify(Event{RunID: id, Mode: ModeBulk, Seq: seq, EventType: o.EventType, Outcome: o})
			return nil
		})
	}
	_ = g.Wait()

	res := &BulkResult{
		RunID:     id,
		Stats:     r.agg.Statistics(),
		Outcomes:  r.agg.Outcomes(),
		Attempted: int(attempted.Load()),
		Skipped:   int(skipped.Load()),
		Wall:      r.clock.Since(start),
	}
	log.Info("bulk run finished",
		"attempted", res.Attempted,
		"skipped", res.Skipped,
		"success_rate", res.Stats.SuccessRate,
		"wall", res.Wall)
	return res, runErr
}
