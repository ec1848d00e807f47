package timeutil

import (
	"testing"
	"time"
)

func TestRealClock_Now(t *testing.T) {
	clock := RealClock{}
	before := time.Now()
	now := clock.Now()
	after := time.Now()

	if now.Before(before) || now.After(after) {
		t.Errorf("Now() = %v, expected between %v and %v", now, before, after)
	}
}

func TestRealClock_Since(t *testing.T) {
	clock := RealClock{}
	d := clock.Since(time.Now().Add(-time.Second))
	if d < time.Second {
		t.Errorf("Since() returned %v, expected >= 1s", d)
	}
}

func TestRealClock_NewTicker(t *testing.T) {
	ticker := RealClock{}.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	select {
	case <-ticker.C():
	case <-time.After(time.Second):
		t.Error("ticker did not fire")
	}
}

func TestMockClock_AdvanceFiresDueTicker(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := NewMockClock(start)
	ticker := clock.NewTicker(100 * time.Millisecond)

	clock.Advance(50 * time.Millisecond)
	select {
	case <-ticker.C():
		t.Fatal("ticker fired early")
	default:
	}

	clock.Advance(50 * time.Millisecond)
	select {
	case got := <-ticker.C():
		if !got.Equal(start.Add(100 * time.Millisecond)) {
			t.Errorf("tick time = %v", got)
		}
	default:
		t.Fatal("ticker did not fire when due")
	}

	if got := clock.Since(start); got != 100*time.Millisecond {
		t.Errorf("Since = %v, want 100ms", got)
	}
}

func TestMockClock_StoppedTickerDoesNotFire(t *testing.T) {
	clock := NewMockClock(time.Unix(0, 0))
	ticker := clock.NewTicker(time.Millisecond)
	ticker.Stop()

	clock.Advance(time.Second)
	select {
	case <-ticker.C():
		t.Fatal("stopped ticker fired")
	default:
	}
}

func TestMockClock_WaitForTicker(t *testing.T) {
	clock := NewMockClock(time.Unix(0, 0))

	if got := clock.WaitForTicker(10 * time.Millisecond); got != nil {
		t.Fatal("expected nil before any ticker exists")
	}

	go clock.NewTicker(250 * time.Millisecond)
	mt := clock.WaitForTicker(time.Second)
	if mt == nil {
		t.Fatal("expected ticker")
	}
	if mt.Period() != 250*time.Millisecond {
		t.Errorf("Period = %v", mt.Period())
	}
}

func TestMockTicker_Fire(t *testing.T) {
	clock := NewMockClock(time.Unix(0, 0))
	mt := clock.NewTicker(time.Second).(*MockTicker)

	if !mt.Fire(time.Unix(1, 0), time.Second) {
		t.Fatal("first Fire should fill the buffer")
	}
	if mt.Fire(time.Unix(2, 0), 10*time.Millisecond) {
		t.Fatal("second Fire should time out while buffer is full")
	}
	<-mt.C()
}
