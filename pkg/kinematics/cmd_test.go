package kinematics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDiffDrive(t *testing.T) {
	cmd, err := NewDiffDrive(0.4, -0.2)
	require.NoError(t, err)
	assert.Equal(t, Differential, cmd.Model())
	assert.False(t, cmd.IsStop())

	_, err = NewDiffDrive(math.NaN(), 0)
	assert.Error(t, err)
	_, err = NewDiffDrive(0, math.Inf(1))
	assert.Error(t, err)
}

func TestNewAckermann_SteerRange(t *testing.T) {
	_, err := NewAckermann(1.0, 0.6)
	require.NoError(t, err)

	_, err = NewAckermann(1.0, math.Pi/2)
	assert.Error(t, err, "sideways wheel must be rejected")
	_, err = NewAckermann(1.0, -2.0)
	assert.Error(t, err)
}

func TestNewHolo_NegativeSpeed(t *testing.T) {
	_, err := NewHolo(-0.1, 0, 0)
	assert.Error(t, err)

	cmd, err := NewHolo(0.5, math.Pi/4, 0.1)
	require.NoError(t, err)
	assert.Equal(t, Holonomic, cmd.Model())
}

func TestStopCmd(t *testing.T) {
	for _, m := range []Model{Differential, Ackermann, Holonomic} {
		cmd := StopCmd(m)
		assert.Equal(t, m, cmd.Model())
		assert.True(t, cmd.IsStop())
	}
}

func TestModelString(t *testing.T) {
	assert.Equal(t, "differential", Differential.String())
	assert.Equal(t, "ackermann", Ackermann.String())
	assert.Equal(t, "holonomic", Holonomic.String())
}
