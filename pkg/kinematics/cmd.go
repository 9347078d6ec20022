// Package kinematics defines the velocity-command values exchanged between
// the navigation core and a robot backend.
//
// A command is an immutable value, variant-typed by the kinematic model of
// the platform it drives. One backend may accept one or more models; sending
// a command of an unsupported model is reported as a failure by the boundary,
// never silently coerced. The set of models is closed: new variants belong in
// this package.
package kinematics

import (
	"fmt"
	"math"
)

// Model identifies the kinematic model a command is shaped for.
type Model int

const (
	// Differential is a differential-drive platform: linear speed plus
	// rotation about the robot center.
	Differential Model = iota
	// Ackermann is a car-like platform: linear speed plus steering angle.
	Ackermann
	// Holonomic is a platform that can translate in any local direction
	// while rotating.
	Holonomic
)

func (m Model) String() string {
	switch m {
	case Differential:
		return "differential"
	case Ackermann:
		return "ackermann"
	case Holonomic:
		return "holonomic"
	default:
		return fmt.Sprintf("Model(%d)", int(m))
	}
}

// Cmd is one actuation intent. Concrete command types are value types; a Cmd
// is replaced, never mutated.
type Cmd interface {
	// Model reports which kinematic model this command is shaped for.
	Model() Model
	// IsStop reports whether every motion component is zero.
	IsStop() bool

	sealed()
}

// DiffDriveCmd drives a differential platform: V in m/s, W in rad/s.
type DiffDriveCmd struct {
	V float64
	W float64
}

// AckermannCmd drives a car-like platform: Speed in m/s, Steer in radians
// (front-wheel steering angle).
type AckermannCmd struct {
	Speed float64
	Steer float64
}

// HoloCmd drives a holonomic platform: Speed in m/s along Dir (radians,
// robot-local), with RotSpeed in rad/s.
type HoloCmd struct {
	Speed    float64
	Dir      float64
	RotSpeed float64
}

func (DiffDriveCmd) Model() Model { return Differential }
func (AckermannCmd) Model() Model { return Ackermann }
func (HoloCmd) Model() Model      { return Holonomic }

func (c DiffDriveCmd) IsStop() bool { return c.V == 0 && c.W == 0 }
func (c AckermannCmd) IsStop() bool { return c.Speed == 0 }
func (c HoloCmd) IsStop() bool      { return c.Speed == 0 && c.RotSpeed == 0 }

func (DiffDriveCmd) sealed() {}
func (AckermannCmd) sealed() {}
func (HoloCmd) sealed()      {}

// NewDiffDrive validates and builds a differential-drive command.
func NewDiffDrive(v, w float64) (DiffDriveCmd, error) {
	if err := finite("v", v); err != nil {
		return DiffDriveCmd{}, err
	}
	if err := finite("w", w); err != nil {
		return DiffDriveCmd{}, err
	}
	return DiffDriveCmd{V: v, W: w}, nil
}

// NewAckermann validates and builds an Ackermann command. The steering angle
// must lie strictly inside (-pi/2, pi/2); a wheel cannot point sideways.
func NewAckermann(speed, steer float64) (AckermannCmd, error) {
	if err := finite("speed", speed); err != nil {
		return AckermannCmd{}, err
	}
	if err := finite("steer", steer); err != nil {
		return AckermannCmd{}, err
	}
	if math.Abs(steer) >= math.Pi/2 {
		return AckermannCmd{}, fmt.Errorf("kinematics: steer angle %.3f rad out of range (-pi/2, pi/2)", steer)
	}
	return AckermannCmd{Speed: speed, Steer: steer}, nil
}

// NewHolo validates and builds a holonomic command. Speed must be
// non-negative; direction carries the sign.
func NewHolo(speed, dir, rotSpeed float64) (HoloCmd, error) {
	if err := finite("speed", speed); err != nil {
		return HoloCmd{}, err
	}
	if err := finite("dir", dir); err != nil {
		return HoloCmd{}, err
	}
	if err := finite("rotSpeed", rotSpeed); err != nil {
		return HoloCmd{}, err
	}
	if speed < 0 {
		return HoloCmd{}, fmt.Errorf("kinematics: holonomic speed %.3f must be >= 0", speed)
	}
	return HoloCmd{Speed: speed, Dir: dir, RotSpeed: rotSpeed}, nil
}

// StopCmd returns the canonical all-zero command for a model.
func StopCmd(m Model) Cmd {
	switch m {
	case Ackermann:
		return AckermannCmd{}
	case Holonomic:
		return HoloCmd{}
	default:
		return DiffDriveCmd{}
	}
}

func finite(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("kinematics: %s must be finite, got %v", name, v)
	}
	return nil
}
