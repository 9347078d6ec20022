package nav

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/StatML/mrpt/internal/log"
	"github.com/StatML/mrpt/pkg/geom"
	"github.com/StatML/mrpt/pkg/kinematics"
)

// Boundary couples one Robot backend with the watchdog and navigation timer
// that supervise it. All command traffic from the lifecycle flows through
// here so that every accepted command touches the watchdog, and a backend
// that stops receiving fresh commands is forced to an emergency stop.
//
// A Boundary owns its Watchdog and NavTimer exclusively. Two concurrent
// navigators must not share one Boundary without external mutual exclusion;
// this package does not provide it.
type Boundary struct {
	robot Robot
	clock Clock
	wd    *Watchdog
	timer *NavTimer

	mu         sync.Mutex
	stopForced bool // emergency stop already issued for the current expiry
}

// NewBoundary wraps a robot backend. A nil clock means SystemClock; pass a
// simulated clock to run the same logic under simulation time.
func NewBoundary(robot Robot, clock Clock) *Boundary {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Boundary{
		robot: robot,
		clock: clock,
		wd:    NewWatchdog(clock),
		timer: NewNavTimer(clock),
	}
}

// CurrentPoseAndSpeeds reads the robot's pose and velocity snapshot.
// Failures are reported as *SensorError.
func (b *Boundary) CurrentPoseAndSpeeds() (geom.Pose2D, geom.Twist2D, time.Time, error) {
	pose, vel, stamp, err := b.robot.CurrentPoseAndSpeeds()
	if err != nil {
		return geom.Pose2D{}, geom.Twist2D{}, time.Time{}, &SensorError{Op: "pose", Err: err}
	}
	return pose, vel, stamp, nil
}

// SenseObstacles reads the current obstacle snapshot. Failures are reported
// as *SensorError.
func (b *Boundary) SenseObstacles() (ObstacleSet, error) {
	obs, err := b.robot.SenseObstacles()
	if err != nil {
		return ObstacleSet{}, &SensorError{Op: "obstacles", Err: err}
	}
	return obs, nil
}

// ChangeSpeeds dispatches a velocity command. On success the watchdog is
// touched and a pending forced-stop condition is cleared. Failures are
// reported as *ActuationError.
func (b *Boundary) ChangeSpeeds(cmd kinematics.Cmd) error {
	if err := b.robot.ChangeSpeeds(cmd); err != nil {
		return &ActuationError{Op: "changeSpeeds", Err: err}
	}
	b.commandAccepted()
	return nil
}

// ChangeSpeedsNOP re-asserts the last accepted command purely to refresh the
// watchdog. If the backend implements SpeedRefresher that is used; otherwise
// this is a no-op toward the hardware that still touches the watchdog.
func (b *Boundary) ChangeSpeedsNOP() error {
	if r, ok := b.robot.(SpeedRefresher); ok {
		if err := r.ChangeSpeedsNOP(); err != nil {
			return &ActuationError{Op: "changeSpeedsNOP", Err: err}
		}
	}
	b.commandAccepted()
	return nil
}

// Stop commands zero velocity. A successful stop counts as an accepted
// command for watchdog purposes.
func (b *Boundary) Stop(emergency bool) error {
	if err := b.robot.Stop(emergency); err != nil {
		return &ActuationError{Op: "stop", Err: err}
	}
	b.commandAccepted()
	return nil
}

// StopCmd returns the backend's canonical stop command.
func (b *Boundary) StopCmd() kinematics.Cmd { return b.robot.StopCmd() }

// EmergencyStopCmd returns the backend's canonical emergency-stop command.
func (b *Boundary) EmergencyStopCmd() kinematics.Cmd { return b.robot.EmergencyStopCmd() }

// AlignCmd asks the backend for a rotate-in-place command toward the given
// relative heading. ok is false when the platform cannot rotate in place.
func (b *Boundary) AlignCmd(relHeading float64) (kinematics.Cmd, bool) {
	if a, ok := b.robot.(Aligner); ok {
		return a.AlignCmd(relHeading)
	}
	return nil, false
}

// StartWatchdog arms the watchdog for the maximum expected delay between
// consecutive commands.
func (b *Boundary) StartWatchdog(period time.Duration) error {
	b.mu.Lock()
	b.stopForced = false
	b.mu.Unlock()
	return b.wd.Start(period)
}

// StopWatchdog disarms the watchdog.
func (b *Boundary) StopWatchdog() { b.wd.Stop() }

// CheckWatchdog verifies command freshness and, on expiry, forces exactly
// one emergency stop until a command is accepted again. It returns
// ErrWatchdogExpired on the expiry that triggered the stop, nil otherwise.
func (b *Boundary) CheckWatchdog() error {
	if !b.wd.Expired() {
		return nil
	}
	b.mu.Lock()
	if b.stopForced {
		b.mu.Unlock()
		return nil
	}
	b.stopForced = true
	b.mu.Unlock()

	log.Warn("watchdog expired, forcing emergency stop")
	if err := b.robot.Stop(true); err != nil {
		log.Error("emergency stop failed after watchdog expiry", "error", err)
	}
	return ErrWatchdogExpired
}

// RunWatchdogMonitor checks the watchdog every interval until ctx is done,
// invoking onExpired for each expiry that forced a stop. It runs on its own
// cadence, independent of the control loop, so a hung control loop cannot
// suppress the emergency stop. Call in a goroutine.
func (b *Boundary) RunWatchdogMonitor(ctx context.Context, interval time.Duration, onExpired func(error)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := b.CheckWatchdog(); errors.Is(err, ErrWatchdogExpired) {
				if onExpired != nil {
					onExpired(err)
				}
			}
		}
	}
}

// NavigationTime returns the elapsed time since navigation start or the last
// timer reset. Simulation time under a simulated clock.
func (b *Boundary) NavigationTime() time.Duration { return b.timer.Elapsed() }

// ResetNavigationTimer moves the navigation timer epoch to now.
func (b *Boundary) ResetNavigationTimer() { b.timer.Reset() }

// Clock exposes the boundary's time source for components that must stay on
// the same notion of time (the lifecycle's stall detection, tests).
func (b *Boundary) Clock() Clock { return b.clock }

func (b *Boundary) commandAccepted() {
	b.wd.Touch()
	b.mu.Lock()
	b.stopForced = false
	b.mu.Unlock()
}
