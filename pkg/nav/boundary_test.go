package nav_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/StatML/mrpt/pkg/geom"
	"github.com/StatML/mrpt/pkg/kinematics"
	"github.com/StatML/mrpt/pkg/nav"
	"github.com/StatML/mrpt/pkg/sim"
)

// bareRobot is a minimal backend without the optional capabilities.
type bareRobot struct{}

func (b *bareRobot) CurrentPoseAndSpeeds() (geom.Pose2D, geom.Twist2D, time.Time, error) {
	return geom.Pose2D{}, geom.Twist2D{}, time.Now(), nil
}

func (b *bareRobot) ChangeSpeeds(cmd kinematics.Cmd) error { return nil }

func (b *bareRobot) Stop(emergency bool) error { return nil }

func (b *bareRobot) StopCmd() kinematics.Cmd {
	return kinematics.StopCmd(kinematics.Differential)
}

func (b *bareRobot) EmergencyStopCmd() kinematics.Cmd {
	return kinematics.StopCmd(kinematics.Differential)
}

func (b *bareRobot) SenseObstacles() (nav.ObstacleSet, error) {
	return nav.ObstacleSet{Stamp: time.Now()}, nil
}

func TestBoundary_CommandScenario_NoGaps(t *testing.T) {
	// Watchdog armed at 200ms, command stream every 50ms for 1s:
	// zero forced stops.
	clock := sim.NewClock(time.Unix(0, 0))
	robot := sim.NewRobot(clock, geom.Pose2D{})
	b := nav.NewBoundary(robot, clock)
	require.NoError(t, b.StartWatchdog(200*time.Millisecond))

	cmd, err := kinematics.NewDiffDrive(0.2, 0)
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		clock.Advance(50 * time.Millisecond)
		require.NoError(t, b.CheckWatchdog())
		require.NoError(t, b.ChangeSpeeds(cmd))
	}
	assert.Equal(t, 0, robot.EmergencyStopCount())
}

func TestBoundary_CommandScenario_OneGap(t *testing.T) {
	// Same stream with one 250ms gap: exactly one forced emergency stop,
	// not one per check.
	clock := sim.NewClock(time.Unix(0, 0))
	robot := sim.NewRobot(clock, geom.Pose2D{})
	b := nav.NewBoundary(robot, clock)
	require.NoError(t, b.StartWatchdog(200*time.Millisecond))

	cmd, err := kinematics.NewDiffDrive(0.2, 0)
	require.NoError(t, err)
	require.NoError(t, b.ChangeSpeeds(cmd))

	clock.Advance(250 * time.Millisecond)
	assert.ErrorIs(t, b.CheckWatchdog(), nav.ErrWatchdogExpired)
	assert.Equal(t, 1, robot.EmergencyStopCount())

	// Repeated checks while still untouched do not stop again.
	clock.Advance(50 * time.Millisecond)
	assert.NoError(t, b.CheckWatchdog())
	assert.NoError(t, b.CheckWatchdog())
	assert.Equal(t, 1, robot.EmergencyStopCount())

	// After a fresh command the cycle can trigger again.
	require.NoError(t, b.ChangeSpeeds(cmd))
	clock.Advance(250 * time.Millisecond)
	assert.ErrorIs(t, b.CheckWatchdog(), nav.ErrWatchdogExpired)
	assert.Equal(t, 2, robot.EmergencyStopCount())
}

func TestBoundary_NOPStillTouchesWatchdog(t *testing.T) {
	// A backend without SpeedRefresher: the NOP is a no-op toward the
	// hardware but must still refresh the watchdog.
	clock := sim.NewClock(time.Unix(0, 0))
	b := nav.NewBoundary(&bareRobot{}, clock)
	require.NoError(t, b.StartWatchdog(100*time.Millisecond))

	for i := 0; i < 10; i++ {
		clock.Advance(80 * time.Millisecond)
		require.NoError(t, b.ChangeSpeedsNOP())
		require.NoError(t, b.CheckWatchdog())
	}
}

func TestBoundary_UnsupportedCommand(t *testing.T) {
	robot := sim.NewRobot(nil, geom.Pose2D{})
	b := nav.NewBoundary(robot, nil)

	ack, err := kinematics.NewAckermann(0.5, 0.1)
	require.NoError(t, err)
	err = b.ChangeSpeeds(ack)
	require.Error(t, err)

	var ae *nav.ActuationError
	assert.ErrorAs(t, err, &ae)
	assert.ErrorIs(t, err, nav.ErrUnsupportedCommand)
}

func TestBoundary_AlignCapability(t *testing.T) {
	// The sim robot turns in place; the bare backend does not.
	withAlign := nav.NewBoundary(sim.NewRobot(nil, geom.Pose2D{}), nil)
	cmd, ok := withAlign.AlignCmd(0.5)
	assert.True(t, ok)
	assert.Equal(t, kinematics.Differential, cmd.Model())

	without := nav.NewBoundary(&bareRobot{}, nil)
	_, ok = without.AlignCmd(0.5)
	assert.False(t, ok)
}

func TestBoundary_SensorErrorWrapping(t *testing.T) {
	robot := sim.NewRobot(nil, geom.Pose2D{})
	robot.FailPoseReads(errors.New("encoder glitch"))
	b := nav.NewBoundary(robot, nil)

	_, _, _, err := b.CurrentPoseAndSpeeds()
	require.Error(t, err)
	var se *nav.SensorError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "pose", se.Op)
}

func TestBoundary_NavigationTimer(t *testing.T) {
	clock := sim.NewClock(time.Unix(0, 0))
	b := nav.NewBoundary(sim.NewRobot(clock, geom.Pose2D{}), clock)

	clock.Advance(700 * time.Millisecond)
	assert.Equal(t, 700*time.Millisecond, b.NavigationTime())
	b.ResetNavigationTimer()
	assert.Equal(t, time.Duration(0), b.NavigationTime())
}
