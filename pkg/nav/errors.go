package nav

import (
	"errors"
	"fmt"
)

// ErrUnsupportedCommand is returned (possibly wrapped) when a velocity
// command's kinematic model is not accepted by the backend. This is a
// contract violation by the caller, not a transient fault.
var ErrUnsupportedCommand = errors.New("velocity command model not supported by this robot")

// ErrWatchdogExpired is reported by the boundary when the watchdog deadline
// passed without a fresh command and an emergency stop was forced.
var ErrWatchdogExpired = errors.New("watchdog expired, emergency stop forced")

// SensorError reports a sensing call that could not produce a valid, fresh
// value. The lifecycle treats it as a candidate blocked/error condition.
type SensorError struct {
	Op  string // "pose", "obstacles"
	Err error
}

func (e *SensorError) Error() string {
	return fmt.Sprintf("sensor read failed (%s): %v", e.Op, e.Err)
}

func (e *SensorError) Unwrap() error { return e.Err }

// ActuationError reports a velocity command that was rejected or could not
// be physically dispatched. No physical action is guaranteed to have been
// taken.
type ActuationError struct {
	Op  string // "changeSpeeds", "changeSpeedsNOP", "stop"
	Err error
}

func (e *ActuationError) Error() string {
	return fmt.Sprintf("actuation failed (%s): %v", e.Op, e.Err)
}

func (e *ActuationError) Unwrap() error { return e.Err }
