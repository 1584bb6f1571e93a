package schedule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/SmitUplenchwar2687/rewind/internal/clock"
	"github.com/SmitUplenchwar2687/rewind/internal/event"
	"github.com/SmitUplenchwar2687/rewind/internal/logging"
	"github.com/SmitUplenchwar2687/rewind/internal/metrics"
)

// ErrInvalidConfig is returned before any dispatch when the pacing
// parameters are unusable.
var ErrInvalidConfig = errors.New("invalid replay configuration")

// Skip reasons reported to metrics.
const (
	SkipNotDispatchable = "not_dispatchable"
	SkipParseError      = "parse_error"
)

// DispatchFunc sends one record. seq is the record's input position.
type DispatchFunc func(ctx context.Context, seq int, rec event.Record) error

// ParseErrorFunc is told about every record whose timestamp cannot be parsed.
type ParseErrorFunc func(seq int, raw string, err error)

// Summary describes a finished (or cancelled) paced run.
type Summary struct {
	Total       int `json:"total"`
	Dispatched  int `json:"dispatched"`
	Skipped     int `json:"skipped"`
	ParseErrors int `json:"parse_errors"`
	Failed      int `json:"failed"`
	// EventSpan is the largest event-time offset from the first dispatched record.
	EventSpan    time.Duration `json:"event_span_ns"`
	WallDuration time.Duration `json:"wall_duration_ns"`
	// MaxLag is the worst delay behind a record's target offset.
	MaxLag time.Duration `json:"max_lag_ns"`
}

// Pacer replays records so that the gaps between their event times are
// reproduced on the clock, divided by the speed factor.
type Pacer struct {
	speed        float64
	clock        clock.Clock
	order        Order
	logger       *slog.Logger
	onParseError ParseErrorFunc
}

// Option customises a Pacer.
type Option func(*Pacer)

// WithClock sets the clock used for waiting. Defaults to the real clock.
func WithClock(c clock.Clock) Option {
	return func(p *Pacer) { p.clock = c }
}

// WithOrder sets the ordering strategy. Defaults to ByRawTimestamp.
func WithOrder(o Order) Option {
	return func(p *Pacer) {
		if o != nil {
			p.order = o
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(p *Pacer) { p.logger = l }
}

// OnParseError registers a hook for unparseable timestamps.
func OnParseError(fn ParseErrorFunc) Option {
	return func(p *Pacer) { p.onParseError = fn }
}

// New creates a Pacer. speed must be positive and finite.
func New(speed float64, opts ...Option) (*Pacer, error) {
	if err := ValidateSpeed(speed); err != nil {
		return nil, err
	}
	p := &Pacer{
		speed:  speed,
		clock:  clock.NewRealClock(),
		order:  ByRawTimestamp,
		logger: logging.Discard(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// ValidateSpeed reports ErrInvalidConfig for zero, negative, NaN or
// infinite speed factors.
func ValidateSpeed(speed float64) error {
	if speed <= 0 || math.IsNaN(speed) || math.IsInf(speed, 0) {
		return fmt.Errorf("%w: speed factor must be positive and finite, got %v", ErrInvalidConfig, speed)
	}
	return nil
}

// Speed returns the configured speed factor.
func (p *Pacer) Speed() float64 { return p.speed }

// Run dispatches records one at a time in the configured order.
//
// The first dispatchable record with a valid timestamp anchors event time
// and clock time. Every later record waits until its event-time offset,
// divided by the speed factor, has elapsed on the clock. Records that are
// already late go out immediately and the lag is not made up.
//
// Cancellation is honoured between records and while waiting, never while
// fn runs. On cancellation Run returns the partial summary and ctx.Err().
func (p *Pacer) Run(ctx context.Context, records []event.Record, fn DispatchFunc) (*Summary, error) {
	items := make([]Item, len(records))
	for i, r := range records {
		items[i] = Item{Seq: i, Record: r}
	}
	p.order(items)

	sum := &Summary{Total: len(records)}
	start := p.clock.Now()
	finish := func(err error) (*Summary, error) {
		sum.WallDuration = p.clock.Since(start)
		return sum, err
	}

	var (
		anchored bool
		t0, r0   time.Time
	)
	for _, it := range items {
		if err := ctx.Err(); err != nil {
			return finish(err)
		}

		rec := it.Record
		if !rec.Dispatchable() {
			sum.Skipped++
			metrics.IncSkipped(SkipNotDispatchable)
			continue
		}

		at, err := event.ParseTime(rec.EventTime)
		if err != nil {
			sum.ParseErrors++
			metrics.IncSkipped(SkipParseError)
			p.logger.Warn("skipping record with unparseable timestamp", "seq", it.Seq, "raw", rec.EventTime, "error", err)
			if p.onParseError != nil {
				p.onParseError(it.Seq, rec.EventTime, err)
			}
			continue
		}

		if !anchored {
			anchored = true
			t0 = at
			r0 = p.clock.Now()
			p.logger.Info("starting replay", "event_time", rec.EventTime, "speed", p.speed)
		} else {
			offset := at.Sub(t0)
			if offset > sum.EventSpan {
				sum.EventSpan = offset
			}
			target := time.Duration(float64(offset) / p.speed)
			if wait := target - p.clock.Since(r0); wait > 0 {
				if err := clock.Sleep(ctx, p.clock, wait); err != nil {
					return finish(err)
				}
			}
			if lag := p.clock.Since(r0) - target; lag > 0 {
				metrics.ObserveLag(lag)
				if lag > sum.MaxLag {
					sum.MaxLag = lag
				}
			}
		}

		sum.Dispatched++
		p.logger.Debug("replaying event", "seq", it.Seq, "event_type", rec.EventType, "event_time", rec.EventTime)
		if err := fn(ctx, it.Seq, rec); err != nil {
			sum.Failed++
			p.logger.Warn("dispatch failed", "seq", it.Seq, "event_type", rec.EventType, "error", err)
		}
	}
	return finish(nil)
}
