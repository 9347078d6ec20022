package nav

import (
	"fmt"
	"sync"
	"time"
)

// Watchdog is a resettable deadline timer guarding against stale velocity
// commands. It is created disarmed; Start arms it, and every accepted
// command must Touch it before the deadline passes.
//
// The watchdog only reports staleness. Deciding what to do about an expiry
// (forcing an emergency stop) is the Boundary's job, on its own monitoring
// cadence.
type Watchdog struct {
	clock Clock

	mu       sync.Mutex
	armed    bool
	period   time.Duration
	deadline time.Time
}

// NewWatchdog creates a disarmed watchdog. A nil clock means SystemClock.
func NewWatchdog(clock Clock) *Watchdog {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Watchdog{clock: clock}
}

// Start arms the watchdog with the given period and sets the first deadline.
func (w *Watchdog) Start(period time.Duration) error {
	if period <= 0 {
		return fmt.Errorf("nav: watchdog period must be positive, got %v", period)
	}
	w.mu.Lock()
	w.armed = true
	w.period = period
	w.deadline = w.clock.Now().Add(period)
	w.mu.Unlock()
	return nil
}

// Stop disarms the watchdog.
func (w *Watchdog) Stop() {
	w.mu.Lock()
	w.armed = false
	w.mu.Unlock()
}

// Touch pushes the deadline one period into the future. Called for every
// accepted velocity command, including the no-op refresh. Touching a
// disarmed watchdog does nothing.
func (w *Watchdog) Touch() {
	w.mu.Lock()
	if w.armed {
		w.deadline = w.clock.Now().Add(w.period)
	}
	w.mu.Unlock()
}

// Expired reports whether the deadline has passed. Always false while
// disarmed.
func (w *Watchdog) Expired() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.armed && w.clock.Now().After(w.deadline)
}

// Armed reports whether the watchdog is currently armed.
func (w *Watchdog) Armed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.armed
}
