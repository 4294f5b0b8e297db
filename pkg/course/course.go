// Package course loads the on-disk description of a run: the occupancy
// map, the sensor rig mounted on the robot, the motion-noise model, the
// starting pose, and the serial multiplexer's settings, all from one YAML
// file. This replaces the source's process-wide Python module constants
// (spec §9, "Global mutable defaults") with a single loadable value.
package course

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/NCSUhardware/high-level/pkg/core/math/grid"
	"github.com/NCSUhardware/high-level/pkg/sensor"
	"github.com/NCSUhardware/high-level/pkg/serialcomm"
)

// mapConfig describes the occupancy map's backing CSV file and scale.
type mapConfig struct {
	CSV           string  `yaml:"csv"`
	InchesPerCell float32 `yaml:"inchesPerCell"`
}

// poseConfig is a YAML-friendly pose in length units and radians.
type poseConfig struct {
	X     float32 `yaml:"x"`
	Y     float32 `yaml:"y"`
	Theta float32 `yaml:"theta"`
}

// noiseConfig mirrors sensor.MotionNoise.
type noiseConfig struct {
	Turn float32 `yaml:"turn"`
	Move float32 `yaml:"move"`
}

// sensorConfig mirrors sensor.Descriptor's constructor arguments.
type sensorConfig struct {
	Name          string  `yaml:"name"`
	OffsetX       float32 `yaml:"offsetX"`
	OffsetY       float32 `yaml:"offsetY"`
	Bearing       float32 `yaml:"bearing"`
	NoiseSigma    float32 `yaml:"noiseSigma"`
	MaxRange      float32 `yaml:"maxRange"`
	Cone          bool    `yaml:"cone"`
	ConeHalfAngle float32 `yaml:"coneHalfAngle"`
	ConeSamples   int     `yaml:"coneSamples"`
}

// serialConfig mirrors the fields of serialcomm.Config that make sense to
// set from a file rather than a flag.
type serialConfig struct {
	Port          string `yaml:"port"`
	Baud          int    `yaml:"baud"`
	TimeoutMS     int    `yaml:"timeoutMs"`
	QueueCapacity int    `yaml:"queueCapacity"`
	Sequential    bool   `yaml:"sequential"`
	PrefixID      *bool  `yaml:"prefixId"`
	ServoDelayMS  int    `yaml:"servoDelayMs"`
}

// file is the raw YAML shape of a course description.
type file struct {
	Map     mapConfig      `yaml:"map"`
	Start   poseConfig     `yaml:"start"`
	Noise   noiseConfig    `yaml:"noise"`
	Sensors []sensorConfig `yaml:"sensors"`
	Serial  *serialConfig  `yaml:"serial"`
}

// Course is a fully-loaded, ready-to-build run description.
type Course struct {
	dir     string
	raw     file
	baseCfg serialcomm.Config
}

// LoadFile reads and parses a course YAML file. Relative CSV paths inside
// it are resolved against the YAML file's own directory.
func LoadFile(path string) (*Course, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("course: read %s: %w", path, err)
	}
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("course: parse %s: %w", path, err)
	}
	if f.Map.InchesPerCell <= 0 {
		f.Map.InchesPerCell = 12
	}
	dir := "."
	if idx := lastSlash(path); idx >= 0 {
		dir = path[:idx]
	}
	return &Course{dir: dir, raw: f}, nil
}

func lastSlash(path string) int {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return i
		}
	}
	return -1
}

// BuildMap constructs the occupancy map from the course's CSV file.
func (c *Course) BuildMap() (*grid.Map, error) {
	if c.raw.Map.CSV == "" {
		return nil, fmt.Errorf("course: no map.csv configured")
	}
	path := c.raw.Map.CSV
	if !isAbs(path) {
		path = c.dir + "/" + path
	}
	return grid.LoadCSVFile(path, c.raw.Map.InchesPerCell)
}

func isAbs(path string) bool {
	return len(path) > 0 && path[0] == '/'
}

// StartPose returns the configured starting pose.
func (c *Course) StartPose() sensor.Pose {
	return sensor.Pose{X: c.raw.Start.X, Y: c.raw.Start.Y, Theta: c.raw.Start.Theta}.Normalized()
}

// MotionNoise returns the configured motion-noise model, or the package
// default if the file omits one.
func (c *Course) MotionNoise() sensor.MotionNoise {
	if c.raw.Noise.Turn == 0 && c.raw.Noise.Move == 0 {
		return sensor.DefaultMotionNoise()
	}
	return sensor.MotionNoise{NoiseTurn: c.raw.Noise.Turn, NoiseMove: c.raw.Noise.Move}
}

// Sensors builds the sensor rig's descriptor list.
func (c *Course) Sensors() []sensor.Descriptor {
	out := make([]sensor.Descriptor, 0, len(c.raw.Sensors))
	for _, s := range c.raw.Sensors {
		var opts []sensor.Option
		if s.NoiseSigma > 0 {
			opts = append(opts, sensor.WithNoiseSigma(s.NoiseSigma))
		}
		if s.MaxRange > 0 {
			opts = append(opts, sensor.WithMaxRange(s.MaxRange))
		}
		if s.Cone {
			halfAngle := s.ConeHalfAngle
			if halfAngle == 0 {
				halfAngle = 0.1
			}
			samples := s.ConeSamples
			if samples == 0 {
				samples = 3
			}
			opts = append(opts, sensor.WithCone(halfAngle, samples))
		}
		out = append(out, sensor.NewDescriptor(s.Name, s.OffsetX, s.OffsetY, s.Bearing, opts...))
	}
	return out
}

// SerialConfig applies the course file's optional serial block on top of
// base, returning the merged serialcomm.Config. Fields the file omits keep
// base's value.
func (c *Course) SerialConfig(base serialcomm.Config) serialcomm.Config {
	s := c.raw.Serial
	if s == nil {
		return base
	}
	if s.Port != "" {
		base.Port = s.Port
	}
	if s.Baud != 0 {
		base.Baud = s.Baud
	}
	if s.TimeoutMS != 0 {
		base.Timeout = time.Duration(s.TimeoutMS) * time.Millisecond
	}
	if s.QueueCapacity != 0 {
		base.QueueCapacity = s.QueueCapacity
	}
	if s.Sequential {
		base.Sequential = true
	}
	if s.PrefixID != nil {
		base.PrefixID = *s.PrefixID
	}
	if s.ServoDelayMS != 0 {
		base.ServoDelay = time.Duration(s.ServoDelayMS) * time.Millisecond
	}
	return base
}
