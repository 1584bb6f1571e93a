package perf

import (
	"math"
	"slices"
	"time"

	"github.com/SmitUplenchwar2687/rewind/internal/dispatch"
	"github.com/SmitUplenchwar2687/rewind/internal/event"
)

// Stats summarises a set of outcomes. With no outcomes every numeric field
// is zero and Endpoints is empty.
type Stats struct {
	TotalRequests int           `json:"total_requests"`
	TotalDuration time.Duration `json:"total_duration_ns"`
	AvgDuration   time.Duration `json:"avg_duration_ns"`
	MinDuration   time.Duration `json:"min_duration_ns"`
	MaxDuration   time.Duration `json:"max_duration_ns"`
	P50           time.Duration `json:"p50_ns"`
	P90           time.Duration `json:"p90_ns"`
	P95           time.Duration `json:"p95_ns"`
	P99           time.Duration `json:"p99_ns"`
	// SuccessRate is the percentage of outcomes with status exactly 200.
	SuccessRate float64                      `json:"success_rate"`
	Endpoints   map[event.Type]EndpointStats `json:"endpoint_stats"`
}

// EndpointStats is the breakdown for one event type.
type EndpointStats struct {
	Endpoint        string        `json:"endpoint"`
	Count           int           `json:"count"`
	AvgDuration     time.Duration `json:"avg_duration_ns"`
	MinDuration     time.Duration `json:"min_duration_ns"`
	MaxDuration     time.Duration `json:"max_duration_ns"`
	SuccessRate     float64       `json:"success_rate"`
	StatusCodes     map[int]int   `json:"status_codes"`
	TransportErrors int           `json:"transport_errors"`
}

// Types returns the event types present in the breakdown in their
// canonical order.
func (s Stats) Types() []event.Type {
	var out []event.Type
	for _, t := range event.Types() {
		if _, ok := s.Endpoints[t]; ok {
			out = append(out, t)
		}
	}
	return out
}

// Compute derives Stats from outcomes.
func Compute(outcomes []dispatch.Outcome) Stats {
	st := Stats{Endpoints: map[event.Type]EndpointStats{}}
	if len(outcomes) == 0 {
		return st
	}

	durations := make([]float64, 0, len(outcomes))
	successes := 0
	st.MinDuration = time.Duration(math.MaxInt64)

	type acc struct {
		EndpointStats
		total     time.Duration
		successes int
	}
	groups := make(map[event.Type]*acc)

	for _, o := range outcomes {
		durations = append(durations, float64(o.Duration))
		st.TotalDuration += o.Duration
		st.MinDuration = min(st.MinDuration, o.Duration)
		st.MaxDuration = max(st.MaxDuration, o.Duration)
		if o.Success {
			successes++
		}

		g, ok := groups[o.EventType]
		if !ok {
			g = &acc{EndpointStats: EndpointStats{
				Endpoint:    o.Endpoint,
				MinDuration: o.Duration,
				StatusCodes: map[int]int{},
			}}
			groups[o.EventType] = g
		}
		g.Count++
		g.total += o.Duration
		g.MinDuration = min(g.MinDuration, o.Duration)
		g.MaxDuration = max(g.MaxDuration, o.Duration)
		if o.Success {
			g.successes++
		}
		if o.StatusCode != nil {
			g.StatusCodes[*o.StatusCode]++
		} else {
			g.TransportErrors++
		}
	}

	n := len(outcomes)
	st.TotalRequests = n
	st.AvgDuration = st.TotalDuration / time.Duration(n)
	st.SuccessRate = float64(successes) / float64(n) * 100

	slices.Sort(durations)
	st.P50 = time.Duration(percentile(durations, 0.50))
	st.P90 = time.Duration(percentile(durations, 0.90))
	st.P95 = time.Duration(percentile(durations, 0.95))
	st.P99 = time.Duration(percentile(durations, 0.99))

	for t, g := range groups {
		g.AvgDuration = g.total / time.Duration(g.Count)
		g.SuccessRate = float64(g.successes) / float64(g.Count) * 100
		st.Endpoints[t] = g.EndpointStats
	}
	return st
}

// percentile expects sorted values and interpolates linearly between ranks.
func percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	if p <= 0 {
		return values[0]
	}
	if p >= 1 {
		return values[len(values)-1]
	}
	pos := p * float64(len(values)-1)
	lower := int(math.Floor(pos))
	upper := int(math.Ceil(pos))
	if lower == upper {
		return values[lower]
	}
	weight := pos - float64(lower)
	return values[lower]*(1-weight) + values[upper]*weight
}
