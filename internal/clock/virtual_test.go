package clock

import (
	"context"
	"sync"
	"testing"
	"time"
)

var epoch = time.Date(2019, 10, 6, 19, 42, 21, 0, time.UTC)

func TestVirtualClock_AdvanceAndSince(t *testing.T) {
	vc := NewVirtualClock(epoch)
	vc.Advance(90 * time.Minute)

	if got, want := vc.Now(), epoch.Add(90*time.Minute); !got.Equal(want) {
		t.Errorf("Now() = %v, want %v", got, want)
	}
	if got := vc.Since(epoch); got != 90*time.Minute {
		t.Errorf("Since() = %v, want %v", got, 90*time.Minute)
	}
}

func TestVirtualClock_AdvanceNegativePanics(t *testing.T) {
	vc := NewVirtualClock(epoch)

	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic on negative advance")
		}
	}()
	vc.Advance(-time.Second)
}

func TestVirtualClock_SetPastPanics(t *testing.T) {
	vc := NewVirtualClock(epoch)

	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic on setting time to the past")
		}
	}()
	vc.Set(epoch.Add(-time.Hour))
}

func TestVirtualClock_After_FiresOnAdvance(t *testing.T) {
	vc := NewVirtualClock(epoch)
	ch := vc.After(5 * time.Second)

	select {
	case <-ch:
		t.Fatal("After() fired before advance")
	default:
	}
	if vc.Pending() != 1 {
		t.Fatalf("Pending() = %d, want 1", vc.Pending())
	}

	vc.Advance(5 * time.Second)

	select {
	case got := <-ch:
		if want := epoch.Add(5 * time.Second); !got.Equal(want) {
			t.Errorf("After() sent %v, want %v", got, want)
		}
	default:
		t.Fatal("After() did not fire after advance")
	}
	if vc.Pending() != 0 {
		t.Errorf("Pending() = %d, want 0", vc.Pending())
	}
}

func TestVirtualClock_After_FiresOnSet(t *testing.T) {
	vc := NewVirtualClock(epoch)
	ch := vc.After(time.Hour)

	vc.Set(epoch.Add(2 * time.Hour))

	select {
	case <-ch:
	default:
		t.Fatal("After() did not fire after Set()")
	}
}

func TestVirtualClock_After_ZeroDuration(t *testing.T) {
	vc := NewVirtualClock(epoch)

	select {
	case <-vc.After(0):
	default:
		t.Fatal("After(0) should fire immediately")
	}
}

func TestAutoClock_AfterJumpsToDeadline(t *testing.T) {
	vc := NewAutoClock(epoch)

	select {
	case got := <-vc.After(10 * time.Second):
		if want := epoch.Add(10 * time.Second); !got.Equal(want) {
			t.Errorf("After() sent %v, want %v", got, want)
		}
	default:
		t.Fatal("auto clock should fire immediately")
	}

	<-vc.After(time.Second)
	if got := vc.Slept(); got != 11*time.Second {
		t.Errorf("Slept() = %v, want 11s", got)
	}
	if got := vc.Since(epoch); got != 11*time.Second {
		t.Errorf("Since() = %v, want 11s", got)
	}
}

func TestSleep_UsesClock(t *testing.T) {
	vc := NewAutoClock(epoch)
	if err := Sleep(context.Background(), vc, 3*time.Second); err != nil {
		t.Fatalf("Sleep() error = %v", err)
	}
	if got := vc.Since(epoch); got != 3*time.Second {
		t.Errorf("clock advanced %v, want 3s", got)
	}
}

func TestSleep_NonPositiveReturnsImmediately(t *testing.T) {
	vc := NewVirtualClock(epoch)
	if err := Sleep(context.Background(), vc, -time.Second); err != nil {
		t.Fatalf("Sleep() error = %v", err)
	}
	if vc.Pending() != 0 {
		t.Error("negative sleep should not register a waiter")
	}
}

func TestSleep_Cancelled(t *testing.T) {
	vc := NewVirtualClock(epoch)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- Sleep(ctx, vc, time.Hour)
	}()
	cancel()

	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("Sleep() error = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Sleep() did not return after cancel")
	}
}

func TestSleep_RealClock(t *testing.T) {
	start := time.Now()
	if err := Sleep(context.Background(), NewRealClock(), 20*time.Millisecond); err != nil {
		t.Fatal(err)
	}
	if elapsed := time.Since(start); elapsed < 20*time.Millisecond {
		t.Errorf("slept %v, want >= 20ms", elapsed)
	}
}

func TestVirtualClock_ConcurrentAccess(t *testing.T) {
	vc := NewVirtualClock(epoch)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = vc.Now()
			_ = vc.Since(epoch)
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			vc.Advance(time.Millisecond)
		}
	}()
	wg.Wait()

	if got, want := vc.Now(), epoch.Add(100*time.Millisecond); !got.Equal(want) {
		t.Errorf("after concurrent ops, Now() = %v, want %v", got, want)
	}
}

func TestClocks_ImplementClock(t *testing.T) {
	var _ Clock = NewRealClock()
	var _ Clock = NewVirtualClock(epoch)
	var _ Clock = NewAutoClock(epoch)
}
