// Package nav is the control boundary and lifecycle engine for reactive
// navigation: the contract between a navigation algorithm and a physical or
// simulated robot, plus the watchdog and timing discipline that keeps that
// contract safe in real time.
//
// This package follows the Interface Segregation Principle: the Robot
// interface carries only the capabilities every backend must provide, and
// optional capabilities (rotate-in-place, command refresh) live in separate
// interfaces that the Boundary probes for at runtime. A backend implements
// only what it truly supports.
package nav

import (
	"time"

	"github.com/StatML/mrpt/pkg/geom"
	"github.com/StatML/mrpt/pkg/kinematics"
)

// ObstacleSet is a snapshot of sensed obstacle points in the robot-local
// frame, paired with the sensing instant. It is freshly constructed on every
// sensing call; the receiver owns it.
type ObstacleSet struct {
	Points []geom.Point2D
	Stamp  time.Time
}

// Robot is the required capability set every robot or simulator backend must
// provide. It makes no assumption about the kinematic model of the platform;
// the model shows in which kinematics.Cmd variants ChangeSpeeds accepts.
type Robot interface {
	// CurrentPoseAndSpeeds returns the latest robot pose (world frame,
	// metres/radians), velocity (world frame), and the timestamp both are
	// valid at. The pair must be atomically consistent.
	//
	// Implementations must return promptly (~10ms); if asking the hardware
	// takes longer, serve the latest values from a cache refreshed by a
	// background goroutine instead of blocking the caller.
	CurrentPoseAndSpeeds() (geom.Pose2D, geom.Twist2D, time.Time, error)

	// ChangeSpeeds dispatches a velocity command. It fails with
	// ErrUnsupportedCommand (possibly wrapped) if the command's kinematic
	// model is not accepted, or with the underlying fault if dispatch fails.
	ChangeSpeeds(cmd kinematics.Cmd) error

	// Stop commands zero velocity right now. emergency marks an abnormal
	// halt, distinguished in telemetry from a planned stop at a goal. It
	// must succeed even if prior commands failed.
	Stop(emergency bool) error

	// StopCmd returns the canonical stop command for the active kinematic
	// model. Never fails.
	StopCmd() kinematics.Cmd

	// EmergencyStopCmd returns the canonical emergency-stop command for the
	// active kinematic model. Never fails.
	EmergencyStopCmd() kinematics.Cmd

	// SenseObstacles returns the current obstacle points as seen from the
	// robot-local frame, with their sensing timestamp.
	SenseObstacles() (ObstacleSet, error)
}

// SpeedRefresher is the optional capability of re-asserting the last
// accepted command without issuing new motion parameters, purely so the
// platform registers a fresh command. Backends without it still get
// watchdog refresh semantics from the Boundary's default no-op.
type SpeedRefresher interface {
	ChangeSpeedsNOP() error
}

// Aligner is the optional capability of rotating in place toward a relative
// heading (radians). AlignCmd returns ok=false when the platform cannot turn
// with zero radius; that is a capability answer, not an error.
type Aligner interface {
	AlignCmd(relHeading float64) (cmd kinematics.Cmd, ok bool)
}
