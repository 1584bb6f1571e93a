package schedule

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"math"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/SmitUplenchwar2687/rewind/internal/clock"
	"github.com/SmitUplenchwar2687/rewind/internal/event"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func rec(ts, typ string) event.Record {
	return event.FromRow([]string{ts, typ, "P1", "C1", "cat", "brandA", "9.99", "U1", "S1"})
}

type call struct {
	seq int
	at  time.Duration
	typ string
}

// recorder returns a DispatchFunc that notes the clock offset of each call.
func recorder(c clock.Clock, calls *[]call) DispatchFunc {
	return func(_ context.Context, seq int, r event.Record) error {
		*calls = append(*calls, call{seq: seq, at: c.Since(epoch), typ: r.EventType})
		return nil
	}
}

func TestNew_InvalidSpeed(t *testing.T) {
	for _, s := range []float64{0, -1, math.NaN(), math.Inf(1), math.Inf(-1)} {
		if _, err := New(s); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("New(%v) error = %v, want ErrInvalidConfig", s, err)
		}
	}
	p, err := New(0.5)
	if err != nil {
		t.Fatal(err)
	}
	if p.Speed() != 0.5 {
		t.Errorf("Speed() = %v, want 0.5", p.Speed())
	}
}

func TestRun_TenSecondGapAtSpeedOne(t *testing.T) {
	vc := clock.NewAutoClock(epoch)
	p, err := New(1.0, WithClock(vc))
	if err != nil {
		t.Fatal(err)
	}

	var calls []call
	sum, err := p.Run(context.Background(), []event.Record{
		rec("2019-10-06 19:42:21 UTC", "view"),
		rec("2019-10-06 19:42:31 UTC", "cart"),
	}, recorder(vc, &calls))
	if err != nil {
		t.Fatal(err)
	}

	if len(calls) != 2 {
		t.Fatalf("calls = %d, want 2", len(calls))
	}
	if calls[0].at != 0 {
		t.Errorf("first call at %v, want 0", calls[0].at)
	}
	if calls[1].at != 10*time.Second {
		t.Errorf("second call at %v, want 10s", calls[1].at)
	}
	if vc.Slept() != 10*time.Second {
		t.Errorf("Slept() = %v, want 10s waited on the clock", vc.Slept())
	}
	if sum.Dispatched != 2 {
		t.Errorf("Dispatched = %d, want 2", sum.Dispatched)
	}
	if sum.EventSpan != 10*time.Second {
		t.Errorf("EventSpan = %v, want 10s", sum.EventSpan)
	}
	if sum.WallDuration != 10*time.Second {
		t.Errorf("WallDuration = %v, want 10s", sum.WallDuration)
	}
}

func TestRun_SpeedCompressesGap(t *testing.T) {
	vc := clock.NewAutoClock(epoch)
	p, err := New(10.0, WithClock(vc))
	if err != nil {
		t.Fatal(err)
	}

	var calls []call
	_, err = p.Run(context.Background(), []event.Record{
		rec("2019-10-06 19:42:21 UTC", "view"),
		rec("2019-10-06 19:42:31 UTC", "cart"),
	}, recorder(vc, &calls))
	if err != nil {
		t.Fatal(err)
	}

	if len(calls) != 2 {
		t.Fatalf("calls = %d, want 2", len(calls))
	}
	if gap := calls[1].at - calls[0].at; gap != time.Second {
		t.Errorf("gap = %v, want 1s", gap)
	}
}

func TestRun_RealClockWaits(t *testing.T) {
	p, err := New(100.0)
	if err != nil {
		t.Fatal(err)
	}

	var stamps []time.Time
	_, err = p.Run(context.Background(), []event.Record{
		rec("2019-10-06 19:42:21 UTC", "view"),
		rec("2019-10-06 19:42:22 UTC", "cart"),
	}, func(context.Context, int, event.Record) error {
		stamps = append(stamps, time.Now())
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(stamps) != 2 {
		t.Fatalf("stamps = %d, want 2", len(stamps))
	}
	if gap := stamps[1].Sub(stamps[0]); gap < 9*time.Millisecond {
		t.Errorf("gap = %v, want >= 9ms", gap)
	}
}

func TestRun_EmptyAndSingle(t *testing.T) {
	vc := clock.NewAutoClock(epoch)
	p, _ := New(1.0, WithClock(vc))

	sum, err := p.Run(context.Background(), nil, recorder(vc, &[]call{}))
	if err != nil {
		t.Fatal(err)
	}
	if *sum != (Summary{}) {
		t.Errorf("empty summary = %+v, want zero", *sum)
	}

	var calls []call
	sum, err = p.Run(context.Background(), []event.Record{rec("2019-10-06 19:42:21 UTC", "purchase")}, recorder(vc, &calls))
	if err != nil {
		t.Fatal(err)
	}
	if len(calls) != 1 {
		t.Errorf("calls = %d, want 1", len(calls))
	}
	if sum.Dispatched != 1 {
		t.Errorf("Dispatched = %d, want 1", sum.Dispatched)
	}
	if vc.Slept() != 0 {
		t.Errorf("Slept() = %v, want 0", vc.Slept())
	}
}

func TestRun_SortsByRawTimestampStably(t *testing.T) {
	vc := clock.NewAutoClock(epoch)
	p, _ := New(1.0, WithClock(vc))

	var calls []call
	_, err := p.Run(context.Background(), []event.Record{
		rec("2019-10-06 19:42:25 UTC", "purchase"),
		rec("2019-10-06 19:42:21 UTC", "view"),
		rec("2019-10-06 19:42:21 UTC", "cart"),
	}, recorder(vc, &calls))
	if err != nil {
		t.Fatal(err)
	}

	if len(calls) != 3 {
		t.Fatalf("calls = %d, want 3", len(calls))
	}
	got := []int{calls[0].seq, calls[1].seq, calls[2].seq}
	if want := []int{1, 2, 0}; !reflect.DeepEqual(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}
	if calls[2].at != 4*time.Second {
		t.Errorf("last call at %v, want 4s", calls[2].at)
	}
}

func TestRun_ByEventTimeDiffersFromRaw(t *testing.T) {
	records := []event.Record{
		rec("2019-10-01 00:00:05 UTC", "view"),
		rec("2019-10-01T00:00:01Z", "cart"),
	}

	raw, _ := New(1.0, WithClock(clock.NewAutoClock(epoch)))
	var rawCalls []call
	if _, err := raw.Run(context.Background(), records, recorder(clock.NewAutoClock(epoch), &rawCalls)); err != nil {
		t.Fatal(err)
	}
	// Space sorts before T.
	if rawCalls[0].typ != "view" {
		t.Errorf("raw order starts with %q, want view", rawCalls[0].typ)
	}

	vc := clock.NewAutoClock(epoch)
	byTime, _ := New(1.0, WithClock(vc), WithOrder(ByEventTime))
	var calls []call
	if _, err := byTime.Run(context.Background(), records, recorder(vc, &calls)); err != nil {
		t.Fatal(err)
	}
	if calls[0].typ != "cart" {
		t.Errorf("event-time order starts with %q, want cart", calls[0].typ)
	}
	if calls[1].at != 4*time.Second {
		t.Errorf("second call at %v, want 4s", calls[1].at)
	}
}

func TestRun_ParseErrorSkippedWithoutAnchoring(t *testing.T) {
	vc := clock.NewAutoClock(epoch)
	var bad []string
	p, _ := New(1.0, WithClock(vc), OnParseError(func(_ int, raw string, err error) {
		if !errors.Is(err, event.ErrParse) {
			t.Errorf("hook error = %v, want ErrParse", err)
		}
		bad = append(bad, raw)
	}))

	var calls []call
	sum, err := p.Run(context.Background(), []event.Record{
		rec("0000-garbage", "view"),
		rec("2019-10-06 19:42:21 UTC", "view"),
		rec("2019-10-06 19:42:26 UTC", "cart"),
	}, recorder(vc, &calls))
	if err != nil {
		t.Fatal(err)
	}

	if want := []string{"0000-garbage"}; !reflect.DeepEqual(bad, want) {
		t.Errorf("parse errors = %v, want %v", bad, want)
	}
	if sum.ParseErrors != 1 {
		t.Errorf("ParseErrors = %d, want 1", sum.ParseErrors)
	}
	if len(calls) != 2 {
		t.Fatalf("calls = %d, want 2", len(calls))
	}
	if calls[0].at != 0 || calls[1].at != 5*time.Second {
		t.Errorf("call offsets = %v, %v, want 0s, 5s", calls[0].at, calls[1].at)
	}
}

func TestRun_NonDispatchableDoesNotAnchor(t *testing.T) {
	vc := clock.NewAutoClock(epoch)
	p, _ := New(1.0, WithClock(vc))

	var calls []call
	sum, err := p.Run(context.Background(), []event.Record{
		rec("2019-10-06 19:40:00 UTC", ""),
		rec("2019-10-06 19:42:21 UTC", "view"),
		rec("2019-10-06 19:42:23 UTC", "cart"),
		event.FromRow([]string{"2019-10-06 19:42:24 UTC"}),
	}, recorder(vc, &calls))
	if err != nil {
		t.Fatal(err)
	}

	if sum.Skipped != 2 {
		t.Errorf("Skipped = %d, want 2", sum.Skipped)
	}
	if sum.Dispatched != 2 {
		t.Errorf("Dispatched = %d, want 2", sum.Dispatched)
	}
	if vc.Slept() != 2*time.Second {
		t.Errorf("Slept() = %v, want 2s", vc.Slept())
	}
}

func TestRun_LagIsTolerated(t *testing.T) {
	vc := clock.NewAutoClock(epoch)
	p, _ := New(1.0, WithClock(vc))

	var calls []call
	slow := func(ctx context.Context, seq int, r event.Record) error {
		calls = append(calls, call{seq: seq, at: vc.Since(epoch)})
		vc.Advance(5 * time.Second)
		return nil
	}
	sum, err := p.Run(context.Background(), []event.Record{
		rec("2019-10-06 19:42:21 UTC", "view"),
		rec("2019-10-06 19:42:23 UTC", "cart"),
		rec("2019-10-06 19:42:40 UTC", "purchase"),
	}, slow)
	if err != nil {
		t.Fatal(err)
	}

	if len(calls) != 3 {
		t.Fatalf("calls = %d, want 3", len(calls))
	}
	// A late record goes out immediately.
	if calls[1].at != 5*time.Second {
		t.Errorf("second call at %v, want 5s", calls[1].at)
	}
	if sum.MaxLag != 3*time.Second {
		t.Errorf("MaxLag = %v, want 3s", sum.MaxLag)
	}
	// Third record is due at 19s; the clock is at 10s, so it waits 9s.
	if calls[2].at != 19*time.Second {
		t.Errorf("third call at %v, want 19s", calls[2].at)
	}
	if vc.Slept() != 9*time.Second {
		t.Errorf("Slept() = %v, want 9s", vc.Slept())
	}
}

func TestRun_DispatchErrorsAreCounted(t *testing.T) {
	vc := clock.NewAutoClock(epoch)
	p, _ := New(1.0, WithClock(vc))

	n := 0
	sum, err := p.Run(context.Background(), []event.Record{
		rec("2019-10-06 19:42:21 UTC", "view"),
		rec("2019-10-06 19:42:22 UTC", "cart"),
	}, func(context.Context, int, event.Record) error {
		n++
		if n == 1 {
			return errors.New("boom")
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("dispatch calls = %d, want 2", n)
	}
	if sum.Failed != 1 {
		t.Errorf("Failed = %d, want 1", sum.Failed)
	}
	if sum.Dispatched != 2 {
		t.Errorf("Dispatched = %d, want 2", sum.Dispatched)
	}
}

func TestRun_LogsEventTimes(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	vc := clock.NewAutoClock(epoch)
	p, _ := New(1.0, WithClock(vc), WithLogger(logger))

	_, err := p.Run(context.Background(), []event.Record{
		rec("2019-10-06 19:42:21 UTC", "view"),
		rec("2019-10-06 19:42:26 UTC", "cart"),
	}, recorder(vc, &[]call{}))
	if err != nil {
		t.Fatal(err)
	}

	out := buf.String()
	for _, want := range []string{
		`msg="starting replay" event_time="2019-10-06 19:42:21 UTC"`,
		`msg="replaying event" seq=0 event_type=view event_time="2019-10-06 19:42:21 UTC"`,
		`msg="replaying event" seq=1 event_type=cart event_time="2019-10-06 19:42:26 UTC"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("log missing %q:\n%s", want, out)
		}
	}
}

func TestRun_CancelBetweenRecords(t *testing.T) {
	vc := clock.NewAutoClock(epoch)
	p, _ := New(1.0, WithClock(vc))

	ctx, cancel := context.WithCancel(context.Background())
	sum, err := p.Run(ctx, []event.Record{
		rec("2019-10-06 19:42:21 UTC", "view"),
		rec("2019-10-06 19:42:22 UTC", "cart"),
	}, func(context.Context, int, event.Record) error {
		cancel()
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
	if sum.Dispatched != 1 {
		t.Errorf("Dispatched = %d, want 1", sum.Dispatched)
	}
}

func TestRun_CancelDuringWait(t *testing.T) {
	vc := clock.NewVirtualClock(epoch)
	p, _ := New(1.0, WithClock(vc))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	dispatched := make(chan int, 2)
	go func() {
		_, err := p.Run(ctx, []event.Record{
			rec("2019-10-06 19:42:21 UTC", "view"),
			rec("2019-10-06 20:42:21 UTC", "cart"),
		}, func(_ context.Context, seq int, _ event.Record) error {
			dispatched <- seq
			return nil
		})
		done <- err
	}()

	<-dispatched
	deadline := time.Now().Add(2 * time.Second)
	for vc.Pending() != 1 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if vc.Pending() != 1 {
		t.Fatalf("Pending() = %d, want 1 waiter", vc.Pending())
	}
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run() error = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	if len(dispatched) != 0 {
		t.Errorf("%d records dispatched after cancel, want 0", len(dispatched))
	}
}

func TestOrderByName(t *testing.T) {
	o, err := OrderByName("time")
	if err != nil {
		t.Fatal(err)
	}
	if o == nil {
		t.Error("OrderByName(time) returned nil")
	}

	if _, err := OrderByName("random"); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("OrderByName(random) error = %v, want ErrInvalidConfig", err)
	}
}
