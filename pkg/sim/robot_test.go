package sim

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/StatML/mrpt/pkg/geom"
	"github.com/StatML/mrpt/pkg/kinematics"
	"github.com/StatML/mrpt/pkg/nav"
)

func TestRobot_StraightLineIntegration(t *testing.T) {
	clock := NewClock(time.Unix(0, 0))
	r := NewRobot(clock, geom.Pose2D{})

	cmd, err := kinematics.NewDiffDrive(1.0, 0)
	require.NoError(t, err)
	require.NoError(t, r.ChangeSpeeds(cmd))

	clock.Advance(2 * time.Second)
	pose, vel, stamp, err := r.CurrentPoseAndSpeeds()
	require.NoError(t, err)
	assert.InDelta(t, 2.0, pose.X, 1e-9)
	assert.InDelta(t, 0.0, pose.Y, 1e-9)
	assert.InDelta(t, 1.0, vel.Vx, 1e-9)
	assert.Equal(t, clock.Now(), stamp)
}

func TestRobot_RotateInPlace(t *testing.T) {
	clock := NewClock(time.Unix(0, 0))
	r := NewRobot(clock, geom.Pose2D{})

	cmd, ok := r.AlignCmd(0.5)
	require.True(t, ok)
	require.NoError(t, r.ChangeSpeeds(cmd))

	clock.Advance(time.Second)
	pose := r.Pose()
	assert.InDelta(t, 0.5, pose.Phi, 1e-9)
	assert.InDelta(t, 0.0, pose.X, 1e-9)
}

func TestRobot_ArcIntegration(t *testing.T) {
	clock := NewClock(time.Unix(0, 0))
	r := NewRobot(clock, geom.Pose2D{})

	// Quarter circle: v = pi/2 m/s, w = pi/2 rad/s for 1s on a unit radius.
	cmd, err := kinematics.NewDiffDrive(math.Pi/2, math.Pi/2)
	require.NoError(t, err)
	require.NoError(t, r.ChangeSpeeds(cmd))

	clock.Advance(time.Second)
	pose := r.Pose()
	assert.InDelta(t, 1.0, pose.X, 1e-9)
	assert.InDelta(t, 1.0, pose.Y, 1e-9)
	assert.InDelta(t, math.Pi/2, pose.Phi, 1e-9)
}

func TestRobot_RejectsForeignModels(t *testing.T) {
	r := NewRobot(nil, geom.Pose2D{})

	holo, err := kinematics.NewHolo(0.5, 0, 0)
	require.NoError(t, err)
	err = r.ChangeSpeeds(holo)
	assert.ErrorIs(t, err, nav.ErrUnsupportedCommand)
}

func TestRobot_FrozenIgnoresMotion(t *testing.T) {
	clock := NewClock(time.Unix(0, 0))
	r := NewRobot(clock, geom.Pose2D{})
	r.Freeze(true)

	cmd, err := kinematics.NewDiffDrive(1.0, 0)
	require.NoError(t, err)
	require.NoError(t, r.ChangeSpeeds(cmd))

	clock.Advance(time.Second)
	assert.Equal(t, geom.Pose2D{}, r.Pose())
}

func TestRobot_ObstaclesInLocalFrame(t *testing.T) {
	clock := NewClock(time.Unix(0, 0))
	// Robot at (1,1) facing +y: a world obstacle at (1,3) is 2m straight
	// ahead, i.e. local (2,0).
	r := NewRobot(clock, geom.Pose2D{X: 1, Y: 1, Phi: math.Pi / 2})
	r.SetObstacles([]geom.Point2D{{X: 1, Y: 3}})

	obs, err := r.SenseObstacles()
	require.NoError(t, err)
	require.Len(t, obs.Points, 1)
	assert.InDelta(t, 2.0, obs.Points[0].X, 1e-9)
	assert.InDelta(t, 0.0, obs.Points[0].Y, 1e-9)
	assert.Equal(t, clock.Now(), obs.Stamp)

	// Each call returns a fresh snapshot, not a shared cache.
	obs2, err := r.SenseObstacles()
	require.NoError(t, err)
	obs.Points[0].X = 99
	assert.InDelta(t, 2.0, obs2.Points[0].X, 1e-9)
}

func TestRobot_StopCounters(t *testing.T) {
	r := NewRobot(nil, geom.Pose2D{})
	require.NoError(t, r.Stop(false))
	require.NoError(t, r.Stop(true))
	require.NoError(t, r.Stop(true))
	assert.Equal(t, 1, r.StopCount())
	assert.Equal(t, 2, r.EmergencyStopCount())
}
