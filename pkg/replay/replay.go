package replay

import (
	"time"

	"github.com/SmitUplenchwar2687/rewind/internal/dispatch"
	"github.com/SmitUplenchwar2687/rewind/internal/event"
	"github.com/SmitUplenchwar2687/rewind/internal/loader"
	internalreplay "github.com/SmitUplenchwar2687/rewind/internal/replay"
	"github.com/SmitUplenchwar2687/rewind/internal/schedule"
)

// Record is one recorded event as read from a CSV row.
type Record = event.Record

// EventType names one of the four dispatchable event types.
type EventType = event.Type

// Dispatchable event types.
const (
	TypeView           = event.TypeView
	TypeCart           = event.TypeCart
	TypeRemoveFromCart = event.TypeRemoveFromCart
	TypePurchase       = event.TypePurchase
)

// Runner sends records to a target API one at a time, paced or in bulk.
type Runner = internalreplay.Runner

// Option configures a Runner.
type Option = internalreplay.Option

// Filter defines criteria for selecting records before a run.
type Filter = internalreplay.Filter

// BulkOptions tunes FastBulk.
type BulkOptions = internalreplay.BulkOptions

// BulkResult is what FastBulk measured.
type BulkResult = internalreplay.BulkResult

// Summary describes a paced replay.
type Summary = schedule.Summary

// Outcome is the measured result of one request.
type Outcome = dispatch.Outcome

// Runner options.
var (
	WithClock      = internalreplay.WithClock
	WithLogger     = internalreplay.WithLogger
	WithObserver   = internalreplay.WithObserver
	WithAggregator = internalreplay.WithAggregator
)

// WithEventTimeOrder sorts records by parsed event time instead of by
// timestamp text before a paced replay.
func WithEventTimeOrder() Option {
	return internalreplay.WithOrder(schedule.ByEventTime)
}

// NewHTTP creates a Runner that posts events under baseURL over HTTP.
// overrides maps event types to full endpoint URLs; it may be nil.
func NewHTTP(baseURL string, overrides map[string]string, timeout time.Duration, opts ...Option) (*Runner, error) {
	endpoints, err := dispatch.NewEndpoints(baseURL, overrides)
	if err != nil {
		return nil, err
	}
	d := dispatch.New(endpoints, dispatch.NewHTTPTransport(dispatch.WithTimeout(timeout)))
	return internalreplay.New(d, opts...), nil
}

// FromRow binds a raw CSV row to a Record. Short rows leave trailing
// fields empty.
func FromRow(row []string) Record {
	return event.FromRow(row)
}

// LoadFiles reads CSV files in order, skipping each header row.
func LoadFiles(paths ...string) ([]Record, error) {
	return loader.LoadFiles(paths, loader.Options{})
}
