package timectrl

import (
	"context"
	"testing"
	"time"
)

var start = time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)

func TestTimeControllerSetTime(t *testing.T) {
	tc := NewTimeController(start, time.Second, RealTime)

	newNow := start.Add(42 * time.Second)
	tc.SetTime(newNow)

	if got := tc.Now(); !got.Equal(newNow) {
		t.Fatalf("Now() = %v, want %v", got, newNow)
	}
}

func TestTimeControllerStartUpdatesNow(t *testing.T) {
	tc := NewTimeController(start, 5*time.Millisecond, Accelerated)

	var calls int
	tc.AddListener(func(time.Time) { calls++ })
	<-tc.Start(context.Background(), 15*time.Millisecond)

	expected := start.Add(15 * time.Millisecond)
	if got := tc.Now(); !got.Equal(expected) {
		t.Fatalf("Now() = %v, want %v", got, expected)
	}
	if calls != 3 {
		t.Fatalf("listener called %d times, want 3", calls)
	}
}

func TestTimeControllerStartContinuesFromNow(t *testing.T) {
	tc := NewTimeController(start, time.Second, Accelerated)
	tc.SetTime(start.Add(time.Minute))

	<-tc.Start(context.Background(), 2*time.Second)

	if got, want := tc.Now(), start.Add(62*time.Second); !got.Equal(want) {
		t.Fatalf("Now() = %v, want %v", got, want)
	}
}

func TestTimeControllerStartStopsOnCancel(t *testing.T) {
	tc := NewTimeController(start, time.Hour, RealTime)
	ctx, cancel := context.WithCancel(context.Background())
	done := tc.Start(ctx, 0)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("controller did not stop after cancel")
	}
}

func TestAfterFiresOnSimulatedTime(t *testing.T) {
	tc := NewTimeController(start, time.Second, Accelerated)
	ch := tc.After(30 * time.Second)

	tc.Advance(10 * time.Second)
	select {
	case <-ch:
		t.Fatalf("timer fired early")
	default:
	}

	tc.Advance(25 * time.Second)
	select {
	case got := <-ch:
		if want := start.Add(35 * time.Second); !got.Equal(want) {
			t.Fatalf("timer fired at %v, want %v", got, want)
		}
	default:
		t.Fatalf("timer did not fire")
	}
}

func TestAfterNonPositiveFiresImmediately(t *testing.T) {
	tc := NewTimeController(start, time.Second, Accelerated)
	select {
	case got := <-tc.After(0):
		if !got.Equal(start) {
			t.Fatalf("After(0) = %v, want %v", got, start)
		}
	default:
		t.Fatalf("After(0) did not fire")
	}
}
