package sensor

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
)

func TestNormalizeTheta(t *testing.T) {
	assert.InDelta(t, 0, NormalizeTheta(0), 1e-5)
	assert.InDelta(t, math32.Pi, NormalizeTheta(math32.Pi), 1e-5)
	assert.InDelta(t, 0.1, NormalizeTheta(2*math32.Pi+0.1), 1e-4)
	assert.InDelta(t, 2*math32.Pi-0.1, NormalizeTheta(-0.1), 1e-4)
}

func TestPoseNormalized(t *testing.T) {
	p := Pose{Theta: -0.1}.Normalized()
	assert.InDelta(t, 2*math32.Pi-0.1, p.Theta, 1e-4)
}

func TestNewDescriptorDefaults(t *testing.T) {
	d := NewDescriptor("front", 1, 0, 0)
	assert.Equal(t, "front", d.Name)
	assert.Equal(t, float32(defaultNoiseSigma), d.NoiseSigma)
	assert.Equal(t, float32(defaultMaxRange), d.MaxRange)
	assert.False(t, d.Cone)
}

func TestNewDescriptorOptions(t *testing.T) {
	d := NewDescriptor("front", 1, 0, 0,
		WithNoiseSigma(0.2),
		WithMaxRange(50),
		WithCone(0.3, 5),
	)
	assert.Equal(t, float32(0.2), d.NoiseSigma)
	assert.Equal(t, float32(50), d.MaxRange)
	assert.True(t, d.Cone)
	assert.Equal(t, float32(0.3), d.ConeHalfAngle)
	assert.Equal(t, 5, d.ConeSamples)
}

func TestWorldPoseAtZeroHeading(t *testing.T) {
	d := NewDescriptor("front", 2, 3, 0.5)
	robot := Pose{X: 10, Y: 20, Theta: 0}
	w := d.WorldPose(robot)
	assert.InDelta(t, 12, w.X, 1e-4)
	assert.InDelta(t, 23, w.Y, 1e-4)
	assert.InDelta(t, 0.5, w.Theta, 1e-4)
}

func TestWorldPoseRotatesOffsetWithHeading(t *testing.T) {
	d := NewDescriptor("left", 1, 0, 0)
	robot := Pose{X: 0, Y: 0, Theta: math32.Pi / 2}
	w := d.WorldPose(robot)
	// Facing +90deg, the +X offset rotates to +Y.
	assert.InDelta(t, 0, w.X, 1e-3)
	assert.InDelta(t, 1, w.Y, 1e-3)
}

func TestDefaultMotionNoise(t *testing.T) {
	n := DefaultMotionNoise()
	assert.Greater(t, n.NoiseTurn, float32(0))
	assert.Greater(t, n.NoiseMove, float32(0))
}
