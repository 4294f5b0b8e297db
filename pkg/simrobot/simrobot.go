// Package simrobot implements the forward kinematic and sensor model used
// to advance a single pose under the same stochastic motion law the
// particle filter applies to every hypothesis, and to stand in for the
// real robot (and its ultrasonic sensors) during offline testing.
package simrobot

import (
	"math/rand"

	"github.com/chewxy/math32"

	"github.com/NCSUhardware/high-level/pkg/core/math/grid"
	"github.com/NCSUhardware/high-level/pkg/sensor"
)

// Robot holds a single pose, its sensor rig and motion noise model, and
// advances/sense against an occupancy map. All methods are total: poses
// that would leave the map are clipped, never rejected.
type Robot struct {
	Pose    sensor.Pose
	Sensors []sensor.Descriptor
	Noise   sensor.MotionNoise
	Map     *grid.Map
	Rand    *rand.Rand
}

// New constructs a Robot at the given starting pose.
func New(pose sensor.Pose, sensors []sensor.Descriptor, noise sensor.MotionNoise, m *grid.Map, rng *rand.Rand) *Robot {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	return &Robot{
		Pose:    pose.Normalized(),
		Sensors: sensors,
		Noise:   noise,
		Map:     m,
		Rand:    rng,
	}
}

// Move advances the pose by a commanded turn dTheta and forward distance d,
// perturbed by zero-mean Gaussian noise scaled by the motion-noise model,
// then clips the result to the map's bounding box.
func (r *Robot) Move(dTheta, d float32) {
	r.Pose = Move(r.Pose, dTheta, d, r.Noise, r.Rand)
	if r.Map != nil {
		x, y := r.Map.Clamp(r.Pose.X, r.Pose.Y)
		r.Pose.X, r.Pose.Y = x, y
	}
}

// Move is the pure motion-model step shared by the simulated robot and the
// particle filter's predict step: theta <- normalize(theta + dTheta +
// N(0, |dTheta|*noiseTurn)); dx = d*cos(theta), dy = d*sin(theta); x <- x +
// dx + N(0, |dx|*noiseMove); y <- y + dy + N(0, |dy|*noiseMove).
func Move(p sensor.Pose, dTheta, d float32, noise sensor.MotionNoise, rng *rand.Rand) sensor.Pose {
	theta := sensor.NormalizeTheta(p.Theta + dTheta)
	theta = gauss(rng, theta, math32.Abs(dTheta)*noise.NoiseTurn)
	theta = sensor.NormalizeTheta(theta)

	dx := d * math32.Cos(theta)
	dy := d * math32.Sin(theta)

	x := gauss(rng, p.X+dx, math32.Abs(dx)*noise.NoiseMove)
	y := gauss(rng, p.Y+dy, math32.Abs(dy)*noise.NoiseMove)

	return sensor.Pose{X: x, Y: y, Theta: theta}
}

// Sense returns, for every mounted sensor, the observed distance: the
// Euclidean distance to the first wall the sensor's ray hits, or the
// map's diagonal (the sentinel max reading) if it hits nothing within the
// sensor's max range. Cone sensors report the minimum across ConeSamples
// rays evenly spread across +/- ConeHalfAngle.
func (r *Robot) Sense() map[string]float32 {
	return Sense(r.Pose, r.Sensors, r.Map)
}

// Sense is the pure sensor model behind Robot.Sense: it ray-casts each
// sensor's mount from the given pose against m and returns observed
// distances keyed by sensor name. The particle filter's weighting step does
// not call it; it casts one ray per sensor, without cone integration.
func Sense(pose sensor.Pose, sensors []sensor.Descriptor, m *grid.Map) map[string]float32 {
	out := make(map[string]float32, len(sensors))
	for _, s := range sensors {
		out[s.Name] = senseOne(pose, s, m)
	}
	return out
}

func senseOne(pose sensor.Pose, s sensor.Descriptor, m *grid.Map) float32 {
	world := s.WorldPose(pose)

	if !s.Cone || s.ConeSamples <= 1 {
		return m.RayCastDistance(world.X, world.Y, world.Theta, s.MaxRange)
	}

	best := m.Diagonal()
	n := s.ConeSamples
	for i := 0; i < n; i++ {
		// Evenly spread across [-ConeHalfAngle, +ConeHalfAngle].
		frac := float32(i) / float32(n-1)
		offset := -s.ConeHalfAngle + frac*2*s.ConeHalfAngle
		d := m.RayCastDistance(world.X, world.Y, world.Theta+offset, s.MaxRange)
		if d < best {
			best = d
		}
	}
	return best
}

func gauss(rng *rand.Rand, mean, sigma float32) float32 {
	if sigma <= 0 {
		return mean
	}
	return mean + float32(rng.NormFloat64())*sigma
}
