package replay

import (
	"slices"
	"time"

	"github.com/SmitUplenchwar2687/rewind/internal/event"
)

// Filter selects records before a run.
type Filter struct {
	Types  []event.Type // Only include these event types (empty = all)
	After  time.Time    // Only include records after this time (zero = no limit)
	Before time.Time    // Only include records before this time (zero = no limit)
}

// Empty reports whether the filter lets everything through.
func (f *Filter) Empty() bool {
	return len(f.Types) == 0 && f.After.IsZero() && f.Before.IsZero()
}

// Match returns true if the record passes the filter. With a time bound
// set, records whose timestamp cannot be parsed are dropped.
func (f *Filter) Match(r event.Record) bool {
	if len(f.Types) > 0 && !slices.Contains(f.Types, r.Type()) {
		return false
	}
	if f.After.IsZero() && f.Before.IsZero() {
		return true
	}
	at, err := event.ParseTime(r.EventTime)
	if err != nil {
		return false
	}
	if !f.After.IsZero() && !at.After(f.After) {
		return false
	}
	if !f.Before.IsZero() && !at.Before(f.Before) {
		return false
	}
	return true
}

// Apply returns the matching records in their original order.
func (f *Filter) Apply(records []event.Record) []event.Record {
	if f == nil || f.Empty() {
		return records
	}
	out := make([]event.Record, 0, len(records))
	for _, r := range records {
		if f.Match(r) {
			out = append(out, r)
		}
	}
	return out
}
