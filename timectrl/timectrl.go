// Package timectrl drives the simulated observing clock used when replaying
// an alignment run against a mount simulator.
package timectrl

import (
	"context"
	"sync"
	"time"
)

// SimClock is the clock the alignment run reads. Components depend on it
// rather than on a concrete controller so tests can drive time directly.
type SimClock interface {
	// Now returns the current simulated time.
	Now() time.Time
	// After returns a channel that receives the simulated time once d has
	// elapsed on the simulated clock.
	After(d time.Duration) <-chan time.Time
}

// Mode describes how the TimeController advances simulated time.
type Mode int

const (
	// RealTime advances according to wall-clock time.
	RealTime Mode = iota
	// Accelerated steps by Tick as fast as listeners allow.
	Accelerated
)

func (m Mode) String() string {
	if m == Accelerated {
		return "accelerated"
	}
	return "realtime"
}

type timer struct {
	at time.Time
	ch chan time.Time
}

// TimeController owns simulated time and notifies listeners on every step.
// It implements SimClock.
type TimeController struct {
	mu        sync.RWMutex
	StartTime time.Time
	Tick      time.Duration
	Mode      Mode

	currentTime time.Time
	timers      []timer
	listeners   []func(time.Time)
}

// NewTimeController constructs a controller at start.
func NewTimeController(start time.Time, tick time.Duration, mode Mode) *TimeController {
	return &TimeController{
		StartTime:   start,
		Tick:        tick,
		Mode:        mode,
		currentTime: start,
	}
}

// Now returns the current simulated time. Implements SimClock.
func (tc *TimeController) Now() time.Time {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	return tc.currentTime
}

// After returns a channel that fires once simulated time reaches Now()+d.
// Implements SimClock.
func (tc *TimeController) After(d time.Duration) <-chan time.Time {
	ch := make(chan time.Time, 1)
	tc.mu.Lock()
	defer tc.mu.Unlock()
	at := tc.currentTime.Add(d)
	if d <= 0 {
		ch <- tc.currentTime
		return ch
	}
	tc.timers = append(tc.timers, timer{at: at, ch: ch})
	return ch
}

// AddListener registers a callback invoked after every step.
func (tc *TimeController) AddListener(fn func(time.Time)) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.listeners = append(tc.listeners, fn)
}

// SetTime jumps the clock to t without notifying listeners. Due timers fire.
func (tc *TimeController) SetTime(t time.Time) {
	tc.mu.Lock()
	tc.currentTime = t
	tc.fireTimersLocked()
	tc.mu.Unlock()
}

// Advance moves the clock forward by d and notifies listeners once.
func (tc *TimeController) Advance(d time.Duration) time.Time {
	tc.mu.Lock()
	tc.currentTime = tc.currentTime.Add(d)
	now := tc.currentTime
	tc.fireTimersLocked()
	listeners := append([]func(time.Time){}, tc.listeners...)
	tc.mu.Unlock()

	for _, fn := range listeners {
		fn(now)
	}
	return now
}

func (tc *TimeController) fireTimersLocked() {
	pending := tc.timers[:0]
	for _, tm := range tc.timers {
		if tm.at.After(tc.currentTime) {
			pending = append(pending, tm)
			continue
		}
		tm.ch <- tc.currentTime
	}
	tc.timers = pending
}

// Start advances the clock by Tick until duration has elapsed or ctx is
// done, continuing from the current time. A zero duration runs until ctx is
// cancelled. The returned channel is closed when the run ends.
func (tc *TimeController) Start(ctx context.Context, duration time.Duration) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)

		var tick <-chan time.Time
		if tc.Mode == RealTime {
			ticker := time.NewTicker(tc.Tick)
			defer ticker.Stop()
			tick = ticker.C
		}

		elapsed := time.Duration(0)
		for {
			if duration > 0 && elapsed >= duration {
				return
			}
			if tick != nil {
				select {
				case <-ctx.Done():
					return
				case <-tick:
				}
			} else if ctx.Err() != nil {
				return
			}
			tc.Advance(tc.Tick)
			elapsed += tc.Tick
		}
	}()
	return done
}
