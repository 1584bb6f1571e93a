package replay

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/SmitUplenchwar2687/rewind/pkg/clock"
)

func TestReplayBasic(t *testing.T) {
	var hits atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer ts.Close()

	start := time.Date(2019, 10, 1, 0, 0, 0, 0, time.UTC)
	r, err := NewHTTP(ts.URL, nil, time.Second, WithClock(clock.NewAutoClock(start)))
	if err != nil {
		t.Fatalf("NewHTTP() failed: %v", err)
	}

	records := []Record{
		FromRow([]string{"2019-10-01 00:00:00 UTC", "view", "1", "2", "", "b", "1.00", "3", "s"}),
		FromRow([]string{"2019-10-01 00:00:30 UTC", "purchase", "1", "2", "", "b", "1.00", "3", "s"}),
		FromRow([]string{"2019-10-01 00:01:00 UTC", "refund", "1", "2", "", "b", "1.00", "3", "s"}),
	}

	summary, err := r.Replay(context.Background(), records, 10)
	if err != nil {
		t.Fatalf("Replay() failed: %v", err)
	}
	if summary.Dispatched != 2 || summary.Skipped != 1 {
		t.Fatalf("Dispatched/Skipped = %d/%d, want 2/1", summary.Dispatched, summary.Skipped)
	}
	if hits.Load() != 2 {
		t.Fatalf("target hits = %d, want 2", hits.Load())
	}
}

func TestFastBulkLiteralRecord(t *testing.T) {
	var hits atomic.Int32
	var path atomic.Value
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		path.Store(r.URL.Path)
	}))
	defer ts.Close()

	r, err := NewHTTP(ts.URL, nil, time.Second)
	if err != nil {
		t.Fatalf("NewHTTP() failed: %v", err)
	}

	records := []Record{{
		EventTime: "2019-10-06 19:42:21 UTC",
		EventType: "view",
		ProductID: "44600062",
		Brand:     "shiseido",
		Price:     "35.79",
		UserID:    "541312140",
	}}
	res, err := r.FastBulk(context.Background(), records, BulkOptions{})
	if err != nil {
		t.Fatalf("FastBulk() failed: %v", err)
	}
	if res.Attempted != 1 || res.Skipped != 0 {
		t.Fatalf("Attempted/Skipped = %d/%d, want 1/0", res.Attempted, res.Skipped)
	}
	if hits.Load() != 1 {
		t.Fatalf("target hits = %d, want 1", hits.Load())
	}
	if p := path.Load(); p != "/view" {
		t.Errorf("target path = %v, want /view", p)
	}
	if res.Stats.SuccessRate != 100 {
		t.Errorf("SuccessRate = %v, want 100", res.Stats.SuccessRate)
	}
}

func TestNewHTTPRejectsRelativeURL(t *testing.T) {
	if _, err := NewHTTP("localhost", nil, time.Second); err == nil {
		t.Fatal("expected error for relative base URL")
	}
}
