package schedule

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	"github.com/SmitUplenchwar2687/rewind/internal/event"
)

// Item is a record together with its position in the input.
type Item struct {
	Seq    int
	Record event.Record
}

// Order sorts items in place. Implementations must be stable so records
// with equal keys keep their input order.
type Order func(items []Item)

// ByRawTimestamp orders records by the raw event_time text. This is only
// chronological when every timestamp uses the same zero-padded format.
func ByRawTimestamp(items []Item) {
	slices.SortStableFunc(items, func(a, b Item) int {
		return cmp.Compare(a.Record.EventTime, b.Record.EventTime)
	})
}

// ByEventTime orders records by their parsed instant. Unparseable
// timestamps sort first, in input order; the pacer skips them anyway.
func ByEventTime(items []Item) {
	type keyed struct {
		Item
		at time.Time
		ok bool
	}
	ks := make([]keyed, len(items))
	for i, it := range items {
		at, err := event.ParseTime(it.Record.EventTime)
		ks[i] = keyed{Item: it, at: at, ok: err == nil}
	}
	slices.SortStableFunc(ks, func(a, b keyed) int {
		switch {
		case !a.ok && !b.ok:
			return 0
		case !a.ok:
			return -1
		case !b.ok:
			return 1
		}
		return a.at.Compare(b.at)
	})
	for i := range ks {
		items[i] = ks[i].Item
	}
}

// OrderByName maps a configured order name to its strategy.
func OrderByName(name string) (Order, error) {
	switch name {
	case "", "raw":
		return ByRawTimestamp, nil
	case "time":
		return ByEventTime, nil
	default:
		return nil, fmt.Errorf("%w: unknown order %q", ErrInvalidConfig, name)
	}
}
