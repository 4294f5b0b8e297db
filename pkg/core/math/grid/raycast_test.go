package grid

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRayCastHitsBorderWall(t *testing.T) {
	m := buildSquareMap(t, 10, 1)

	hx, hy, ok := m.RayCast(5.5, 5.5, 0, 100)
	require.True(t, ok)
	assert.InDelta(t, 9.5, hx, 1e-3)
	assert.InDelta(t, 5.5, hy, 1e-3)
}

func TestRayCastOppositeDirection(t *testing.T) {
	m := buildSquareMap(t, 10, 1)

	hx, hy, ok := m.RayCast(5.5, 5.5, math32.Pi, 100)
	require.True(t, ok)
	assert.InDelta(t, 0.5, hx, 1e-3)
	assert.InDelta(t, 5.5, hy, 1e-3)
}

func TestRayCastMissesWhenMaxRangeTooShort(t *testing.T) {
	m := buildSquareMap(t, 10, 1)

	_, _, ok := m.RayCast(5.5, 5.5, 0, 1)
	assert.False(t, ok)
}

func TestRayCastImmediateHitWhenStartingInWall(t *testing.T) {
	m := buildSquareMap(t, 10, 1)

	hx, hy, ok := m.RayCast(0.5, 0.5, 0, 100)
	require.True(t, ok)
	assert.Equal(t, float32(0.5), hx)
	assert.Equal(t, float32(0.5), hy)
}

func TestRayCastLeavingMapWithoutHittingWall(t *testing.T) {
	cells := [][]Cell{
		{{Desc: DescDriving}, {Desc: DescDriving}},
		{{Desc: DescDriving}, {Desc: DescDriving}},
	}
	m, err := NewFromDescriptors(cells, 1)
	require.NoError(t, err)

	_, _, ok := m.RayCast(1, 1, 0, 100)
	assert.False(t, ok)
}

func TestRayCastDiagonalIsDeterministic(t *testing.T) {
	// A ray along the 45-degree diagonal passes at or near a cell corner
	// every step; repeating the same cast must report the same hit.
	m := buildSquareMap(t, 10, 1)

	hx1, hy1, ok1 := m.RayCast(1.0, 1.0, math32.Pi/4, 100)
	hx2, hy2, ok2 := m.RayCast(1.0, 1.0, math32.Pi/4, 100)
	require.Equal(t, ok1, ok2)
	assert.Equal(t, hx1, hx2)
	assert.Equal(t, hy1, hy2)
}

func TestRayCastDistanceFallsBackToDiagonalOnMiss(t *testing.T) {
	// A miss (including one forced by a too-short maxRange) reports the
	// map's diagonal, the sentinel max reading, never maxRange itself.
	m := buildSquareMap(t, 10, 1)
	d := m.RayCastDistance(5.5, 5.5, 0, 1)
	assert.InDelta(t, m.Diagonal(), d, 1e-3)
}

func TestRayCastDistanceMatchesHitpointDistance(t *testing.T) {
	m := buildSquareMap(t, 10, 1)
	d := m.RayCastDistance(5.5, 5.5, 0, 100)
	assert.InDelta(t, 4.0, d, 1e-3)
}

// TestRayCastDistanceSentinelMatchesS6 pins down spec.md §8 S6: a ray cast
// from (0.5, 0.5) heading Pi/4 across a 5x5 all-free map misses every wall
// and reports the map's diagonal, sqrt(5^2+5^2).
func TestRayCastDistanceSentinelMatchesS6(t *testing.T) {
	cells := make([][]Cell, 5)
	for r := range cells {
		cells[r] = make([]Cell, 5)
	}
	m, err := NewFromDescriptors(cells, 1)
	require.NoError(t, err)

	d := m.RayCastDistance(0.5, 0.5, math32.Pi/4, 100)
	assert.InDelta(t, math32.Sqrt(50), d, 1e-3)
}

func TestRayCastMonotoneInMaxRange(t *testing.T) {
	m := buildSquareMap(t, 20, 1)
	hx1, hy1, ok1 := m.RayCast(10.5, 10.5, 0.37, 50)
	hx2, hy2, ok2 := m.RayCast(10.5, 10.5, 0.37, 500)
	require.True(t, ok1)
	require.True(t, ok2)
	assert.Equal(t, hx1, hx2)
	assert.Equal(t, hy1, hy2)
}
