package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/SmitUplenchwar2687/rewind/internal/dispatch"
	"github.com/SmitUplenchwar2687/rewind/internal/event"
	"github.com/SmitUplenchwar2687/rewind/internal/perf"
)

func sample() []dispatch.Outcome {
	code := func(c int) *int { return &c }
	return []dispatch.Outcome{
		{Seq: 0, EventType: event.TypeView, Endpoint: "http://localhost:8080/view", Duration: 10 * time.Millisecond, Success: true, StatusCode: code(200)},
		{Seq: 1, EventType: event.TypeCart, Endpoint: "http://localhost:8080/cart", Duration: 40 * time.Millisecond, StatusCode: code(429)},
		{Seq: 2, EventType: event.TypeView, Endpoint: "http://localhost:8080/view", Duration: 20 * time.Millisecond, Success: true, StatusCode: code(200)},
		{Seq: 3, EventType: event.TypeCart, Endpoint: "http://localhost:8080/cart", Error: "connection refused"},
	}
}

func assertContains(t *testing.T, s string, wants ...string) {
	t.Helper()
	for _, want := range wants {
		if !strings.Contains(s, want) {
			t.Errorf("output missing %q:\n%s", want, s)
		}
	}
}

func TestConsole(t *testing.T) {
	out := sample()
	var buf bytes.Buffer
	Console(&buf, perf.Compute(out), 2*time.Second)

	s := buf.String()
	assertContains(t, s,
		"Total requests:   4",
		"Success rate:     50.0%",
		"Throughput:       2.0 req/s",
		"VIEW:",
		"CART:",
		"Status codes:     429=1",
		"Transport errors: 1",
	)
	if strings.Index(s, "VIEW:") > strings.Index(s, "CART:") {
		t.Error("VIEW section should come before CART")
	}
}

func TestConsole_Empty(t *testing.T) {
	var buf bytes.Buffer
	Console(&buf, perf.Compute(nil), 0)

	assertContains(t, buf.String(), "Total requests:   0")
	if strings.Contains(buf.String(), "Per event type") {
		t.Errorf("empty report should have no breakdown:\n%s", buf.String())
	}
}

func TestCharts(t *testing.T) {
	out := sample()
	var buf bytes.Buffer
	Charts(&buf, out, perf.Compute(out))

	assertContains(t, buf.String(),
		"Response time distribution",
		"Response time over requests",
		"Average duration per event type",
		"Success rate per event type",
		"<- avg",
		"requests 1..4",
		"100.0%",
	)
}

func TestCharts_NoData(t *testing.T) {
	var buf bytes.Buffer
	Charts(&buf, nil, perf.Compute(nil))
	if got := buf.String(); got != "No data available for charts\n" {
		t.Errorf("Charts() = %q", got)
	}
}

func TestCharts_ZeroDurations(t *testing.T) {
	out := []dispatch.Outcome{{EventType: event.TypeView, Success: true}, {Seq: 1, EventType: event.TypeView, Success: true}}
	var buf bytes.Buffer
	// Must not divide by a zero maximum.
	Charts(&buf, out, perf.Compute(out))
	if buf.Len() == 0 {
		t.Error("Charts() wrote nothing")
	}
}

func TestDownsample(t *testing.T) {
	out := make([]dispatch.Outcome, 120)
	for i := range out {
		out[i].Duration = time.Duration(i)
	}
	cols := downsample(out, 60)
	if len(cols) != 60 {
		t.Fatalf("columns = %d, want 60", len(cols))
	}
	if cols[0] != 0.5 || cols[59] != 118.5 {
		t.Errorf("cols[0], cols[59] = %v, %v, want 0.5, 118.5", cols[0], cols[59])
	}
}

func TestJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := JSON(&buf, perf.Compute(sample())); err != nil {
		t.Fatal(err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded["total_requests"] != float64(4) {
		t.Errorf("total_requests = %v, want 4", decoded["total_requests"])
	}
	if _, ok := decoded["endpoint_stats"]; !ok {
		t.Error("endpoint_stats missing")
	}
}
