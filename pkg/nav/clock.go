package nav

import (
	"sync"
	"time"
)

// Clock is the time source capability used by the navigation core. Injecting
// it lets the same lifecycle logic run against wall-clock time on hardware
// and simulated time in a simulator, with identical call sites.
type Clock interface {
	Now() time.Time
}

// SystemClock is the wall-clock Clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// NavTimer measures elapsed time since an epoch: navigation start, or the
// last Reset. One NavTimer is owned by one Boundary.
type NavTimer struct {
	clock Clock

	mu    sync.Mutex
	epoch time.Time
}

// NewNavTimer creates a timer with its epoch at now. A nil clock means
// SystemClock.
func NewNavTimer(clock Clock) *NavTimer {
	if clock == nil {
		clock = SystemClock{}
	}
	t := &NavTimer{clock: clock}
	t.Reset()
	return t
}

// Reset moves the epoch to now.
func (t *NavTimer) Reset() {
	t.mu.Lock()
	t.epoch = t.clock.Now()
	t.mu.Unlock()
}

// Elapsed returns the time since the epoch.
func (t *NavTimer) Elapsed() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.clock.Now().Sub(t.epoch)
}
