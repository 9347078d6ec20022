// Package sim provides a simulated differential-drive robot implementing the
// full navigation boundary capability set. It serves the navsim command and
// the lifecycle tests, and doubles as the reference for writing a hardware
// backend: same interfaces, same timing discipline, swappable clock.
package sim

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/StatML/mrpt/pkg/geom"
	"github.com/StatML/mrpt/pkg/kinematics"
	"github.com/StatML/mrpt/pkg/nav"
)

// Robot is a kinematically-ideal differential-drive robot. Pose integration
// happens lazily on every access from the elapsed time of the injected
// clock, so it runs identically under wall-clock and simulated time.
//
// Fault injection (Freeze, FailPoseReads) exists for exercising the
// blocked/error paths of the lifecycle.
type Robot struct {
	clock nav.Clock

	mu        sync.Mutex
	pose      geom.Pose2D
	cmd       kinematics.DiffDriveCmd
	lastStep  time.Time
	frozen    bool
	poseErr   error
	obstacles []geom.Point2D // world frame

	stops          int
	emergencyStops int
}

var (
	_ nav.Robot          = (*Robot)(nil)
	_ nav.SpeedRefresher = (*Robot)(nil)
	_ nav.Aligner        = (*Robot)(nil)
)

// NewRobot creates a simulated robot at the given start pose. A nil clock
// means wall-clock time.
func NewRobot(clock nav.Clock, start geom.Pose2D) *Robot {
	if clock == nil {
		clock = nav.SystemClock{}
	}
	return &Robot{
		clock:    clock,
		pose:     start,
		lastStep: clock.Now(),
	}
}

// CurrentPoseAndSpeeds returns the integrated pose and the current velocity
// in the world frame. Always prompt: the integration is a few float ops.
func (r *Robot) CurrentPoseAndSpeeds() (geom.Pose2D, geom.Twist2D, time.Time, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.advance()
	if r.poseErr != nil {
		return geom.Pose2D{}, geom.Twist2D{}, time.Time{}, r.poseErr
	}
	v := r.cmd.V
	if r.frozen {
		v = 0
	}
	vel := geom.Twist2D{
		Vx:    v * math.Cos(r.pose.Phi),
		Vy:    v * math.Sin(r.pose.Phi),
		Omega: r.cmd.W,
	}
	return r.pose, vel, now, nil
}

// ChangeSpeeds accepts differential-drive commands only.
func (r *Robot) ChangeSpeeds(cmd kinematics.Cmd) error {
	dd, ok := cmd.(kinematics.DiffDriveCmd)
	if !ok {
		return fmt.Errorf("sim: %s command: %w", cmd.Model(), nav.ErrUnsupportedCommand)
	}
	r.mu.Lock()
	r.advance()
	r.cmd = dd
	r.mu.Unlock()
	return nil
}

// ChangeSpeedsNOP keeps the last accepted command active.
func (r *Robot) ChangeSpeedsNOP() error {
	r.mu.Lock()
	r.advance()
	r.mu.Unlock()
	return nil
}

// Stop zeroes velocity immediately. Emergency stops are counted separately
// for telemetry and tests.
func (r *Robot) Stop(emergency bool) error {
	r.mu.Lock()
	r.advance()
	r.cmd = kinematics.DiffDriveCmd{}
	if emergency {
		r.emergencyStops++
	} else {
		r.stops++
	}
	r.mu.Unlock()
	return nil
}

// StopCmd returns the canonical stop command for a differential platform.
func (r *Robot) StopCmd() kinematics.Cmd {
	return kinematics.StopCmd(kinematics.Differential)
}

// EmergencyStopCmd returns the canonical emergency-stop command.
func (r *Robot) EmergencyStopCmd() kinematics.Cmd {
	return kinematics.StopCmd(kinematics.Differential)
}

// AlignCmd rotates in place toward the relative heading. A differential
// platform turns with zero radius, so this is always supported.
func (r *Robot) AlignCmd(relHeading float64) (kinematics.Cmd, bool) {
	w := relHeading
	if w > 1 {
		w = 1
	}
	if w < -1 {
		w = -1
	}
	return kinematics.DiffDriveCmd{W: w}, true
}

// SenseObstacles returns the configured obstacles transformed into the
// robot-local frame. The slice is freshly built on every call.
func (r *Robot) SenseObstacles() (nav.ObstacleSet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.advance()

	cosP, sinP := math.Cos(r.pose.Phi), math.Sin(r.pose.Phi)
	points := make([]geom.Point2D, 0, len(r.obstacles))
	for _, o := range r.obstacles {
		dx, dy := o.X-r.pose.X, o.Y-r.pose.Y
		points = append(points, geom.Point2D{
			X: dx*cosP + dy*sinP,
			Y: -dx*sinP + dy*cosP,
		})
	}
	return nav.ObstacleSet{Points: points, Stamp: now}, nil
}

// SetObstacles replaces the world-frame obstacle points.
func (r *Robot) SetObstacles(points []geom.Point2D) {
	r.mu.Lock()
	r.obstacles = append([]geom.Point2D(nil), points...)
	r.mu.Unlock()
}

// Freeze makes the motors ignore motion without rejecting commands, to
// simulate a physically stuck robot.
func (r *Robot) Freeze(stuck bool) {
	r.mu.Lock()
	r.advance()
	r.frozen = stuck
	r.mu.Unlock()
}

// FailPoseReads injects a pose sensor failure; pass nil to heal.
func (r *Robot) FailPoseReads(err error) {
	r.mu.Lock()
	r.poseErr = err
	r.mu.Unlock()
}

// Pose returns the current integrated pose.
func (r *Robot) Pose() geom.Pose2D {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.advance()
	return r.pose
}

// StopCount returns the number of planned stops received.
func (r *Robot) StopCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stops
}

// EmergencyStopCount returns the number of emergency stops received.
func (r *Robot) EmergencyStopCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.emergencyStops
}

// advance integrates the pose up to now under the active command.
// Caller holds r.mu.
func (r *Robot) advance() time.Time {
	now := r.clock.Now()
	dt := now.Sub(r.lastStep).Seconds()
	r.lastStep = now
	if dt <= 0 || r.frozen {
		return now
	}

	v, w := r.cmd.V, r.cmd.W
	if math.Abs(w) < 1e-9 {
		r.pose.X += v * dt * math.Cos(r.pose.Phi)
		r.pose.Y += v * dt * math.Sin(r.pose.Phi)
	} else {
		// Exact arc integration.
		phi2 := r.pose.Phi + w*dt
		r.pose.X += v / w * (math.Sin(phi2) - math.Sin(r.pose.Phi))
		r.pose.Y -= v / w * (math.Cos(phi2) - math.Cos(r.pose.Phi))
		r.pose.Phi = geom.WrapToPi(phi2)
	}
	return now
}
