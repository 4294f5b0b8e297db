package course

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NCSUhardware/high-level/pkg/serialcomm"
)

const testCourseYAML = `
map:
  csv: map.csv
  inchesPerCell: 12
start:
  x: 60
  y: 60
  theta: 0
noise:
  turn: 0.2
  move: 0.15
sensors:
  - name: front
    offsetX: 6
    offsetY: 0
    bearing: 0
    noiseSigma: 0.05
    maxRange: 200
  - name: left
    offsetX: 0
    offsetY: 6
    bearing: 1.5707963
    cone: true
    coneHalfAngle: 0.2
    coneSamples: 5
serial:
  port: /dev/ttyUSB0
  baud: 57600
  timeoutMs: 500
  prefixId: false
`

const testCourseCSV = "1,1,1,1\n1,0,0,1\n1,0,0,1\n1,1,1,1\n"

func writeCourse(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "course.yaml"), []byte(testCourseYAML), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "map.csv"), []byte(testCourseCSV), 0o644))
	return filepath.Join(dir, "course.yaml")
}

func TestLoadFileParsesAllSections(t *testing.T) {
	path := writeCourse(t)
	c, err := LoadFile(path)
	require.NoError(t, err)

	start := c.StartPose()
	assert.Equal(t, float32(60), start.X)
	assert.Equal(t, float32(60), start.Y)

	noise := c.MotionNoise()
	assert.Equal(t, float32(0.2), noise.NoiseTurn)
	assert.Equal(t, float32(0.15), noise.NoiseMove)

	sensors := c.Sensors()
	require.Len(t, sensors, 2)
	assert.Equal(t, "front", sensors[0].Name)
	assert.False(t, sensors[0].Cone)
	assert.Equal(t, "left", sensors[1].Name)
	assert.True(t, sensors[1].Cone)
	assert.Equal(t, 5, sensors[1].ConeSamples)
}

func TestBuildMapResolvesRelativeCSV(t *testing.T) {
	path := writeCourse(t)
	c, err := LoadFile(path)
	require.NoError(t, err)

	m, err := c.BuildMap()
	require.NoError(t, err)

	cols, rows := m.Dims()
	assert.Equal(t, 4, cols)
	assert.Equal(t, 4, rows)
	assert.True(t, m.IsWall(0, 0))
	assert.False(t, m.IsWall(1, 1))
}

func TestSerialConfigOverridesOnlySetFields(t *testing.T) {
	path := writeCourse(t)
	c, err := LoadFile(path)
	require.NoError(t, err)

	base := serialcomm.NewConfig()
	merged := c.SerialConfig(base)

	assert.Equal(t, "/dev/ttyUSB0", merged.Port)
	assert.Equal(t, 57600, merged.Baud)
	assert.False(t, merged.PrefixID)
	// QueueCapacity omitted in the file: keeps base's default.
	assert.Equal(t, base.QueueCapacity, merged.QueueCapacity)
}

func TestSerialConfigNilBlockReturnsBaseUnchanged(t *testing.T) {
	c := &Course{raw: file{}}
	base := serialcomm.NewConfig()
	assert.Equal(t, base, c.SerialConfig(base))
}
