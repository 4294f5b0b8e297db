package particle

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gomath "github.com/NCSUhardware/high-level/pkg/core/math"
	"github.com/NCSUhardware/high-level/pkg/core/math/grid"
	"github.com/NCSUhardware/high-level/pkg/sensor"
)

func buildOpenRoom(t *testing.T, size int, scale float32) *grid.Map {
	t.Helper()
	cells := make([][]grid.Cell, size)
	for r := range cells {
		row := make([]grid.Cell, size)
		for c := range row {
			if r == 0 || c == 0 || r == size-1 || c == size-1 {
				row[c] = grid.Cell{Desc: grid.DescWall}
			}
		}
		cells[r] = row
	}
	m, err := grid.NewFromDescriptors(cells, scale)
	require.NoError(t, err)
	return m
}

func testSensors() []sensor.Descriptor {
	return []sensor.Descriptor{
		sensor.NewDescriptor("front", 0, 0, 0, sensor.WithMaxRange(50)),
	}
}

func buildAllFreeMap(t *testing.T, size int, scale float32) *grid.Map {
	t.Helper()
	cells := make([][]grid.Cell, size)
	for r := range cells {
		cells[r] = make([]grid.Cell, size)
	}
	m, err := grid.NewFromDescriptors(cells, scale)
	require.NoError(t, err)
	return m
}

// TestUpdateSensedSentinelMatchesS1 pins down spec.md §8 S1: on a 10x10
// map with no walls at all, every sensor's predicted reading on a miss is
// the map's diagonal (sqrt(200) =~ 14.14), not any sensor's own max range.
func TestUpdateSensedSentinelMatchesS1(t *testing.T) {
	m := buildAllFreeMap(t, 10, 1)
	sensors := []sensor.Descriptor{
		sensor.NewDescriptor("front", 0, 0, 0, sensor.WithMaxRange(200)),
		sensor.NewDescriptor("back", 0, 0, 3.14159265, sensor.WithMaxRange(200)),
		sensor.NewDescriptor("left", 0, 0, 1.57079633, sensor.WithMaxRange(200)),
		sensor.NewDescriptor("right", 0, 0, -1.57079633, sensor.WithMaxRange(200)),
	}
	seed := sensor.Pose{X: 5, Y: 5, Theta: 0}
	s := New(seed, sensors, sensor.DefaultMotionNoise(), m, 1, false, rand.New(rand.NewSource(1)))

	sentinel := m.Diagonal()
	measured := map[string]float32{
		"front": sentinel, "back": sentinel, "left": sentinel, "right": sentinel,
	}
	s.Update(measured)

	for si := range sensors {
		assert.InDelta(t, sentinel, s.sensed[si][0], 1e-3)
	}
}

func TestNewSeedsAllParticlesAtSeedPose(t *testing.T) {
	m := buildOpenRoom(t, 20, 1)
	seed := sensor.Pose{X: 10, Y: 10, Theta: 0}
	s := New(seed, testSensors(), sensor.DefaultMotionNoise(), m, 10, false, rand.New(rand.NewSource(1)))

	require.Equal(t, 10, s.Len())
	for _, p := range s.Poses {
		assert.Equal(t, seed, p)
	}
	for _, w := range s.Weights {
		assert.InDelta(t, 0.1, w, 1e-6)
	}
}

func TestNewUniformSpreadsParticlesAcrossMap(t *testing.T) {
	m := buildOpenRoom(t, 20, 1)
	s := New(sensor.Pose{}, testSensors(), sensor.DefaultMotionNoise(), m, 50, true, rand.New(rand.NewSource(1)))

	width, height := m.DimsMetric()
	for _, p := range s.Poses {
		assert.GreaterOrEqual(t, p.X, float32(0))
		assert.LessOrEqual(t, p.X, width)
		assert.GreaterOrEqual(t, p.Y, float32(0))
		assert.LessOrEqual(t, p.Y, height)
	}
}

func TestWithWeightSigmaOverridesDefault(t *testing.T) {
	m := buildOpenRoom(t, 20, 1)
	s := New(sensor.Pose{}, testSensors(), sensor.DefaultMotionNoise(), m, 5, false, rand.New(rand.NewSource(1)), WithWeightSigma(3))
	assert.Equal(t, float32(3), s.weightSigma)
}

func TestMovePerturbsEveryParticle(t *testing.T) {
	m := buildOpenRoom(t, 20, 1)
	seed := sensor.Pose{X: 10, Y: 10, Theta: 0}
	s := New(seed, testSensors(), sensor.DefaultMotionNoise(), m, 20, false, rand.New(rand.NewSource(1)))

	s.Move(0, 2)

	distinct := map[sensor.Pose]bool{}
	for _, p := range s.Poses {
		distinct[p] = true
	}
	assert.Greater(t, len(distinct), 1, "motion noise should diversify particles")
}

func TestUpdateConcentratesWeightNearTruePose(t *testing.T) {
	m := buildOpenRoom(t, 20, 1)
	sensors := testSensors()

	// Both hypotheses face east; the one closer to the east wall predicts a
	// much shorter reading. Measuring that short reading should favor it.
	matching := sensor.Pose{X: 17, Y: 10, Theta: 0}
	mismatched := sensor.Pose{X: 2, Y: 10, Theta: 0}
	s := New(matching, sensors, sensor.DefaultMotionNoise(), m, 2, false, rand.New(rand.NewSource(1)))
	s.Poses[0] = matching
	s.Poses[1] = mismatched

	measured := map[string]float32{"front": 2.5}

	// Weight manually without resampling to inspect which hypothesis wins.
	for si, sd := range sensors {
		for pi, pose := range s.Poses {
			world := sd.WorldPose(pose)
			s.sensed[si][pi] = m.RayCastDistance(world.X, world.Y, world.Theta, sd.MaxRange)
		}
	}
	for pi := range s.Poses {
		w := float32(1)
		for si, sd := range sensors {
			mv := measured[sd.Name]
			w *= gomath.GaussianPDF(s.sensed[si][pi], s.weightSigma, mv)
		}
		s.Weights[pi] = w
	}

	assert.Greater(t, s.Weights[0], s.Weights[1])
}

func TestResampleFallsBackToUniformOnZeroWeights(t *testing.T) {
	m := buildOpenRoom(t, 20, 1)
	s := New(sensor.Pose{X: 10, Y: 10}, testSensors(), sensor.DefaultMotionNoise(), m, 8, false, rand.New(rand.NewSource(1)))
	s.Weights.Fill(0)

	s.Resample()

	for _, w := range s.Weights {
		assert.InDelta(t, 1.0/8, w, 1e-6)
	}
}

func TestResamplePreservesParticleCount(t *testing.T) {
	m := buildOpenRoom(t, 20, 1)
	s := New(sensor.Pose{X: 10, Y: 10}, testSensors(), sensor.DefaultMotionNoise(), m, 8, false, rand.New(rand.NewSource(1)))
	for i := range s.Weights {
		s.Weights[i] = float32(i + 1)
	}

	s.Resample()
	assert.Equal(t, 8, s.Len())
}

func TestGuessAveragesPosition(t *testing.T) {
	m := buildOpenRoom(t, 20, 1)
	s := New(sensor.Pose{}, testSensors(), sensor.DefaultMotionNoise(), m, 2, false, rand.New(rand.NewSource(1)))
	s.Poses[0] = sensor.Pose{X: 0, Y: 0, Theta: 0}
	s.Poses[1] = sensor.Pose{X: 10, Y: 10, Theta: 0}

	g := s.Guess()
	assert.InDelta(t, 5, g.X, 1e-4)
	assert.InDelta(t, 5, g.Y, 1e-4)
}

func TestGuessAveragesHeadingAcrossWrap(t *testing.T) {
	m := buildOpenRoom(t, 20, 1)
	s := New(sensor.Pose{}, testSensors(), sensor.DefaultMotionNoise(), m, 2, false, rand.New(rand.NewSource(1)))
	// Headings near 0 and near 2*Pi should average close to 0, not Pi.
	s.Poses[0] = sensor.Pose{Theta: 0.05}
	s.Poses[1] = sensor.Pose{Theta: 6.23} // ~ -0.05 mod 2*Pi

	g := s.Guess()
	wrapped := g.Theta
	if wrapped > 3.14159 {
		wrapped -= 2 * 3.14159265
	}
	assert.InDelta(t, 0, wrapped, 0.05)
}

func TestGuessOfEmptySetIsZero(t *testing.T) {
	s := &Set{}
	assert.Equal(t, sensor.Pose{}, s.Guess())
}
