package nav

import (
	"fmt"
	"time"
)

// EventKind enumerates the lifecycle notifications a navigation episode
// emits.
type EventKind int

const (
	// EventNavigationStart fires once when an episode leaves Idle.
	EventNavigationStart EventKind = iota
	// EventNavigationEnd fires once when the final waypoint is reached or an
	// operator requests a normal stop.
	EventNavigationEnd
	// EventWaypointReached fires for every intermediate waypoint passed,
	// whether physically reached or skipped.
	EventWaypointReached
	// EventNewWaypointTarget fires when the navigator starts heading toward
	// a waypoint.
	EventNewWaypointTarget
	// EventNavigationEndDueToError fires once when the episode aborts on an
	// unrecoverable failure.
	EventNavigationEndDueToError
	// EventWaySeemsBlocked fires when no progress was made toward the
	// current target for the configured stall period.
	EventWaySeemsBlocked
)

func (k EventKind) String() string {
	switch k {
	case EventNavigationStart:
		return "navigation_start"
	case EventNavigationEnd:
		return "navigation_end"
	case EventWaypointReached:
		return "waypoint_reached"
	case EventNewWaypointTarget:
		return "new_waypoint_target"
	case EventNavigationEndDueToError:
		return "navigation_end_due_to_error"
	case EventWaySeemsBlocked:
		return "way_seems_blocked"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// MarshalText encodes the kind as its string name, so events serialize
// readably for telemetry clients.
func (k EventKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Event is one lifecycle notification as a value, for listeners that fan
// events out (telemetry, logs) rather than act on individual callbacks.
type Event struct {
	Kind     EventKind `json:"kind"`
	Episode  string    `json:"episode"`
	Waypoint int       `json:"waypoint,omitempty"`
	// Reached distinguishes a waypoint physically entered (true) from one
	// skipped by the stall heuristic (false). Only meaningful for
	// EventWaypointReached.
	Reached bool      `json:"reached,omitempty"`
	Time    time.Time `json:"time"`
}

// Listener receives lifecycle notifications. All methods are fire-and-forget:
// they are called synchronously from the lifecycle goroutine and must not
// block; panics are contained by the navigator and never propagate back into
// the state machine.
type Listener interface {
	OnNavigationStart()
	OnNavigationEnd()
	// OnWaypointReached: reached is true if the waypoint was physically
	// entered, false if it was skipped as unreachable within tolerance.
	OnWaypointReached(index int, reached bool)
	OnNewWaypointTarget(index int)
	OnNavigationEndDueToError()
	OnWaySeemsBlocked()
}

// NopListener implements Listener with no-ops. Embed it to observe only the
// notifications you care about.
type NopListener struct{}

func (NopListener) OnNavigationStart()                {}
func (NopListener) OnNavigationEnd()                  {}
func (NopListener) OnWaypointReached(int, bool)       {}
func (NopListener) OnNewWaypointTarget(int)           {}
func (NopListener) OnNavigationEndDueToError()        {}
func (NopListener) OnWaySeemsBlocked()                {}

// EventFunc receives lifecycle notifications as Event values, for sinks that
// forward the whole stream (telemetry hubs, logs) rather than act on
// individual callbacks. Registered with Navigator.AddEventFunc; the same
// non-blocking and panic-containment rules as Listener apply.
type EventFunc func(Event)
