package generate

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/SmitUplenchwar2687/rewind/internal/event"
)

const (
	// PatternSteady generates evenly distributed events.
	PatternSteady = "steady"
	// PatternBurst generates clustered bursts with quiet gaps.
	PatternBurst = "burst"
	// PatternRamp generates event density that increases over time.
	PatternRamp = "ramp"
)

// Product is one catalog entry events can refer to.
type Product struct {
	ID           string
	CategoryID   string
	CategoryCode string
	Brand        string
	Price        string
}

// DefaultCatalog is the product pool used when Options.Catalog is empty.
var DefaultCatalog = []Product{
	{"5802432", "1487580009286598681", "", "runail", "0.32"},
	{"5844397", "1487580006317032337", "", "irisk", "2.38"},
	{"5837166", "1783999064103190764", "", "pnb", "22.22"},
	{"5877454", "1487580013841613016", "", "freedecor", "3.16"},
	{"5649236", "1487580008145748965", "appliances.personal.hair_cutter", "kinetics", "13.65"},
	{"5820745", "1487580009286598681", "", "grattol", "4.76"},
	{"5850281", "1487580011970953351", "", "marathon", "137.78"},
	{"5824148", "1487580005511725929", "apparel.glove", "masura", "1.27"},
}

// DefaultMix weights event types roughly like a real storefront funnel.
var DefaultMix = map[event.Type]int{
	event.TypeView:           70,
	event.TypeCart:           15,
	event.TypeRemoveFromCart: 7,
	event.TypePurchase:       8,
}

// Options controls how synthetic events are generated.
type Options struct {
	Count    int
	Users    int
	Duration time.Duration
	Pattern  string
	Start    time.Time
	Seed     int64
	Catalog  []Product
	Mix      map[event.Type]int
	// NoSession leaves user_session empty on every tenth event, the way
	// the recorded datasets sometimes do.
	NoSession bool
}

// DefaultOptions returns defaults aligned with the rewind CLI.
func DefaultOptions() Options {
	return Options{
		Count:    100,
		Users:    5,
		Duration: 5 * time.Minute,
		Pattern:  PatternSteady,
	}
}

type user struct {
	id      string
	session string
}

// Events creates synthetic event records ordered by event time.
func Events(opts *Options) ([]event.Record, error) {
	if opts == nil {
		return nil, errors.New("options are required")
	}
	o := *opts
	if o.Count <= 0 {
		return nil, fmt.Errorf("count must be positive, got %d", o.Count)
	}
	if o.Users <= 0 {
		return nil, fmt.Errorf("users must be positive, got %d", o.Users)
	}
	if o.Duration <= 0 {
		return nil, fmt.Errorf("duration must be positive, got %s", o.Duration)
	}
	if o.Pattern == "" {
		o.Pattern = PatternSteady
	}
	if o.Start.IsZero() {
		o.Start = time.Now().UTC().Truncate(time.Second)
	}
	if len(o.Catalog) == 0 {
		o.Catalog = DefaultCatalog
	}
	if len(o.Mix) == 0 {
		o.Mix = DefaultMix
	}
	if o.Seed == 0 {
		o.Seed = time.Now().UnixNano()
	}

	rng := rand.New(rand.NewSource(o.Seed))
	users, err := makeUsers(rng, o.Users)
	if err != nil {
		return nil, err
	}
	pick, err := typePicker(o.Mix)
	if err != nil {
		return nil, err
	}

	var times []time.Time
	switch o.Pattern {
	case PatternBurst:
		times = burstTimes(rng, o.Start, o.Count, o.Duration)
	case PatternRamp:
		times = rampTimes(o.Start, o.Count, o.Duration)
	default: // steady and unknown patterns default to steady behavior.
		times = steadyTimes(o.Start, o.Count, o.Duration)
	}
	slices.SortStableFunc(times, func(a, b time.Time) int { return a.Compare(b) })

	records := make([]event.Record, len(times))
	for i, at := range times {
		u := users[rng.Intn(len(users))]
		p := o.Catalog[rng.Intn(len(o.Catalog))]
		payload := event.Payload{
			ProductID:    p.ID,
			CategoryID:   p.CategoryID,
			CategoryCode: p.CategoryCode,
			Brand:        p.Brand,
			Price:        p.Price,
			UserID:       u.id,
		}
		if !o.NoSession || i%10 != 9 {
			s := u.session
			payload.UserSession = &s
		}
		records[i] = payload.ToRecord(event.FormatTime(at), pick(rng))
	}
	return records, nil
}

func makeUsers(rng *rand.Rand, n int) ([]user, error) {
	users := make([]user, n)
	for i := range users {
		session, err := uuid.NewRandomFromReader(rng)
		if err != nil {
			return nil, fmt.Errorf("generating session id: %w", err)
		}
		users[i] = user{
			id:      fmt.Sprintf("5%08d", 10000000+rng.Intn(89999999)),
			session: session.String(),
		}
	}
	return users, nil
}

// typePicker returns a weighted sampler over mix. Weights must be
// non-negative and sum to more than zero.
func typePicker(mix map[event.Type]int) (func(*rand.Rand) event.Type, error) {
	var (
		types  []event.Type
		bounds []int
		total  int
	)
	// Iterate in canonical order so a seed always yields the same output.
	for _, t := range event.Types() {
		w, ok := mix[t]
		if !ok || w == 0 {
			continue
		}
		if w < 0 {
			return nil, fmt.Errorf("weight for %s must not be negative, got %d", t, w)
		}
		total += w
		types = append(types, t)
		bounds = append(bounds, total)
	}
	for t := range mix {
		if !t.Valid() {
			return nil, fmt.Errorf("unknown event type %q in mix", t)
		}
	}
	if total == 0 {
		return nil, errors.New("event mix has no positive weight")
	}
	return func(rng *rand.Rand) event.Type {
		n := rng.Intn(total)
		i, _ := slices.BinarySearch(bounds, n+1)
		return types[i]
	}, nil
}

func steadyTimes(start time.Time, count int, dur time.Duration) []time.Time {
	interval := dur / time.Duration(count)
	times := make([]time.Time, count)
	for i := range times {
		times[i] = start.Add(time.Duration(i) * interval)
	}
	return times
}

func burstTimes(rng *rand.Rand, start time.Time, count int, dur time.Duration) []time.Time {
	times := make([]time.Time, 0, count)
	numBursts := 4
	burstSize := count / numBursts
	burstGap := dur / time.Duration(numBursts)

	for b := 0; b < numBursts; b++ {
		burstStart := start.Add(time.Duration(b) * burstGap)
		for i := 0; i < burstSize; i++ {
			// Timestamps have second resolution, so a burst spans a few seconds.
			offset := time.Duration(rng.Intn(3)) * time.Second
			times = append(times, burstStart.Add(offset))
		}
	}

	for len(times) < count {
		times = append(times, start.Add(time.Duration(rng.Int63n(int64(dur)))).Truncate(time.Second))
	}
	return times
}

func rampTimes(start time.Time, count int, dur time.Duration) []time.Time {
	times := make([]time.Time, 0, count)
	for i := 0; i < count; i++ {
		// Gaps shrink as i grows, so the rate climbs towards the end.
		frac := math.Sqrt(float64(i) / float64(count))
		times = append(times, start.Add(time.Duration(frac*float64(dur))))
	}
	return times
}
