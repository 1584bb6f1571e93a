package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/SmitUplenchwar2687/rewind/internal/clock"
	"github.com/SmitUplenchwar2687/rewind/internal/event"
	"github.com/SmitUplenchwar2687/rewind/internal/logging"
	"github.com/SmitUplenchwar2687/rewind/internal/metrics"
	"github.com/SmitUplenchwar2687/rewind/internal/tracing"
)

// ErrNotDispatchable is returned for records that are too short or carry an
// empty or unknown event type. No request is made for them.
var ErrNotDispatchable = errors.New("record is not dispatchable")

// Result labels used for metrics.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
	ResultError   = "error"
)

// Outcome is the measured result of one dispatch.
type Outcome struct {
	Seq       int           `json:"seq"`
	Endpoint  string        `json:"endpoint"`
	EventType event.Type    `json:"event_type"`
	Duration  time.Duration `json:"duration_ns"`
	Success   bool          `json:"success"`
	// StatusCode is nil when no response was received.
	StatusCode *int   `json:"status_code"`
	Error      string `json:"error,omitempty"`
}

// Result classifies the outcome as success, failure (non-200 response) or
// error (no response).
func (o Outcome) Result() string {
	switch {
	case o.Success:
		return ResultSuccess
	case o.StatusCode == nil:
		return ResultError
	default:
		return ResultFailure
	}
}

// Dispatcher turns records into POST requests against an endpoint table.
type Dispatcher struct {
	endpoints Endpoints
	transport Transport
	clock     clock.Clock
	logger    *slog.Logger
	tracer    trace.Tracer
}

// DispatcherOption customises a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithClock sets the clock used to time requests.
func WithClock(c clock.Clock) DispatcherOption {
	return func(d *Dispatcher) { d.clock = c }
}

// WithLogger sets the logger for trace lines of unmeasured dispatches.
func WithLogger(l *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) { d.logger = l }
}

// New creates a Dispatcher.
func New(endpoints Endpoints, transport Transport, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		endpoints: endpoints,
		transport: transport,
		clock:     clock.NewRealClock(),
		logger:    logging.Discard(),
		tracer:    tracing.Tracer("rewind/dispatch"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Endpoints returns the dispatcher's endpoint table.
func (d *Dispatcher) Endpoints() Endpoints { return d.endpoints }

// Dispatch sends rec to its endpoint. See DispatchSeq.
func (d *Dispatcher) Dispatch(ctx context.Context, rec event.Record, measure bool) (*Outcome, error) {
	return d.DispatchSeq(ctx, 0, rec, measure)
}

// DispatchSeq sends rec and tags the outcome with its input position seq.
//
// With measure set it returns the Outcome and logs nothing. Without it, it
// logs a "sending" line and a "response" or "error" line and returns nil.
// Transport failures are folded into the Outcome, never returned.
// The request itself is not cut short by ctx cancellation; the transport
// timeout bounds it instead.
func (d *Dispatcher) DispatchSeq(ctx context.Context, seq int, rec event.Record, measure bool) (*Outcome, error) {
	if !rec.Dispatchable() {
		return nil, ErrNotDispatchable
	}
	t := rec.Type()
	url, ok := d.endpoints.URL(t)
	if !ok {
		return nil, ErrNotDispatchable
	}

	payload := rec.Payload()
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}

	ctx, span := d.tracer.Start(ctx, "dispatch."+string(t),
		trace.WithAttributes(
			attribute.String("event.type", string(t)),
			attribute.String("http.url", url),
			attribute.Int("rewind.seq", seq),
		))
	defer span.End()

	if !measure {
		d.logger.Info("sending event", "event_type", t, "event_time", rec.EventTime, "endpoint", url, "payload", string(body))
	}

	start := d.clock.Now()
	status, postErr := d.transport.Post(context.WithoutCancel(ctx), url, body)
	elapsed := d.clock.Since(start)

	o := &Outcome{
		Seq:       seq,
		Endpoint:  url,
		EventType: t,
		Duration:  elapsed,
	}
	if postErr != nil {
		o.Error = postErr.Error()
		span.RecordError(postErr)
		span.SetStatus(codes.Error, "transport error")
	} else {
		code := status
		o.StatusCode = &code
		o.Success = status == http.StatusOK
		span.SetAttributes(attribute.Int("http.status_code", status))
		if !o.Success {
			span.SetStatus(codes.Error, http.StatusText(status))
		}
	}
	metrics.ObserveDispatch(string(t), o.Result(), elapsed)

	if measure {
		return o, nil
	}
	if postErr != nil {
		d.logger.Error("error", "event_type", t, "endpoint", url, "error", postErr)
	} else {
		d.logger.Info("response", "event_type", t, "status", status, "duration", elapsed)
	}
	return nil, nil
}
