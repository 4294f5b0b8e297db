// Package sensor declares the immutable descriptors the localizer and the
// simulated robot share: robot/sensor poses, per-sensor noise and mount
// geometry, and the motion-noise model applied on every predict step.
package sensor

import (
	"github.com/chewxy/math32"

	"github.com/NCSUhardware/high-level/pkg/options"
)

const twoPi = 2 * math32.Pi

// Pose is a robot or sensor pose in length units and radians. Theta is
// always kept in [0, 2*Pi).
type Pose struct {
	X, Y, Theta float32
}

// NormalizeTheta wraps theta into [0, 2*Pi).
func NormalizeTheta(theta float32) float32 {
	theta = math32.Mod(theta, twoPi)
	if theta < 0 {
		theta += twoPi
	}
	return theta
}

// Normalized returns p with Theta wrapped into [0, 2*Pi).
func (p Pose) Normalized() Pose {
	p.Theta = NormalizeTheta(p.Theta)
	return p
}

// Descriptor is an immutable ultrasonic sensor mount: its name, its offset
// and bearing relative to the robot frame, its reading noise, and whether
// it integrates over a cone of rays rather than a single ray.
type Descriptor struct {
	Name string

	// OffsetX, OffsetY, Bearing place the sensor in the robot frame:
	// the sensor's world pose is the robot pose composed with this offset.
	OffsetX, OffsetY, Bearing float32

	// NoiseSigma is the standard deviation of this sensor's own reading
	// noise. It is a descriptor attribute only: neither the simulated
	// robot's Sense nor the filter's weighting reads it.
	NoiseSigma float32

	// MaxRange bounds how far the ray cast searches for a wall. A ray
	// that finds nothing within MaxRange reports the map's diagonal (the
	// sentinel max reading), not MaxRange itself.
	MaxRange float32

	// Cone, when true, makes sense() return the minimum over ConeSamples
	// rays evenly spread across +/- ConeHalfAngle instead of a single ray.
	Cone          bool
	ConeHalfAngle float32
	ConeSamples   int
}

type descOptions struct {
	d *Descriptor
}

// Option configures a Descriptor at construction time.
type Option = options.Option

// WithNoiseSigma overrides the default reading-noise standard deviation.
func WithNoiseSigma(sigma float32) Option {
	return func(cfg interface{}) {
		if o, ok := cfg.(*descOptions); ok {
			o.d.NoiseSigma = sigma
		}
	}
}

// WithMaxRange overrides the default sensor max range.
func WithMaxRange(maxRange float32) Option {
	return func(cfg interface{}) {
		if o, ok := cfg.(*descOptions); ok {
			o.d.MaxRange = maxRange
		}
	}
}

// WithCone enables cone integration with the given half-angle (radians)
// and sample count. Exposing these as sensor attributes, rather than a
// fixed program-wide constant, resolves the cone-spread open question.
func WithCone(halfAngle float32, samples int) Option {
	return func(cfg interface{}) {
		if o, ok := cfg.(*descOptions); ok {
			o.d.Cone = true
			o.d.ConeHalfAngle = halfAngle
			o.d.ConeSamples = samples
		}
	}
}

const (
	defaultNoiseSigma    = 0.05
	defaultMaxRange      = 200.0
	defaultConeHalfAngle = 0.1
	defaultConeSamples   = 3
)

// NewDescriptor builds a sensor Descriptor mounted at (offsetX, offsetY)
// with the given bearing relative to the robot heading.
func NewDescriptor(name string, offsetX, offsetY, bearing float32, opts ...Option) Descriptor {
	d := Descriptor{
		Name:          name,
		OffsetX:       offsetX,
		OffsetY:       offsetY,
		Bearing:       bearing,
		NoiseSigma:    defaultNoiseSigma,
		MaxRange:      defaultMaxRange,
		ConeHalfAngle: defaultConeHalfAngle,
		ConeSamples:   defaultConeSamples,
	}
	cfg := &descOptions{d: &d}
	options.Apply(cfg, opts...)
	return d
}

// WorldPose returns the sensor's world-frame pose given the robot pose.
func (d Descriptor) WorldPose(robot Pose) Pose {
	cosH := math32.Cos(robot.Theta)
	sinH := math32.Sin(robot.Theta)
	return Pose{
		X:     robot.X + d.OffsetX*cosH - d.OffsetY*sinH,
		Y:     robot.Y + d.OffsetX*sinH + d.OffsetY*cosH,
		Theta: NormalizeTheta(robot.Theta + d.Bearing),
	}.Normalized()
}

// MotionNoise scales the Gaussian perturbation applied to commanded
// rotation and translation on every move/predict step.
type MotionNoise struct {
	// NoiseTurn scales sigma of angular drift per radian commanded.
	NoiseTurn float32
	// NoiseMove scales sigma of linear drift per unit commanded.
	NoiseMove float32
}

// DefaultMotionNoise returns a conservative noise model suitable for bench
// testing; callers tune it per-robot.
func DefaultMotionNoise() MotionNoise {
	return MotionNoise{NoiseTurn: 0.1, NoiseMove: 0.1}
}
