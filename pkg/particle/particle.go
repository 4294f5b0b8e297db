// Package particle implements the Monte Carlo localization filter: a fixed
// set of weighted pose hypotheses that predict on odometry, weight against
// ray-cast sensor predictions, resample via a low-variance wheel, and
// estimate the robot's pose.
package particle

import (
	"math/rand"

	"github.com/chewxy/math32"

	gomath "github.com/NCSUhardware/high-level/pkg/core/math"
	"github.com/NCSUhardware/high-level/pkg/core/math/grid"
	"github.com/NCSUhardware/high-level/pkg/core/math/vec"
	"github.com/NCSUhardware/high-level/pkg/options"
	"github.com/NCSUhardware/high-level/pkg/sensor"
	"github.com/NCSUhardware/high-level/pkg/simrobot"
)

// DefaultWeightSigma is the filter's own weighting-noise hyperparameter: it
// is deliberately coarser than any individual sensor's noise sigma to
// avoid weight collapse under noisy readings. It does not scale with
// sensor sigma (see the weighting-sigma decision in the design notes) but
// callers may override it per Set via WithWeightSigma.
const DefaultWeightSigma = 1.5

// Option configures a Set at construction time.
type Option = options.Option

// WithWeightSigma overrides DefaultWeightSigma for one Set.
func WithWeightSigma(sigma float32) Option {
	return func(cfg interface{}) {
		if s, ok := cfg.(*Set); ok {
			s.weightSigma = sigma
		}
	}
}

// Set owns N weighted pose hypotheses plus the per-particle, per-sensor
// predicted-reading buffer used during weighting.
type Set struct {
	Poses   []sensor.Pose
	Weights vec.Vector

	sensors     []sensor.Descriptor
	noise       sensor.MotionNoise
	m           *grid.Map
	rng         *rand.Rand
	weightSigma float32

	// sensed[sensorIndex] holds, per particle, the last predicted reading.
	sensed []vec.Vector
}

// New builds a Set of n particles. If uniform is false, every particle is
// cloned to seed (tracking mode, the default). If uniform is true,
// particles are sampled uniformly across the map's bounding box and
// heading range (used for startup without a known pose).
func New(seed sensor.Pose, sensors []sensor.Descriptor, noise sensor.MotionNoise, m *grid.Map, n int, uniform bool, rng *rand.Rand, opts ...Option) *Set {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	s := &Set{
		Poses:       make([]sensor.Pose, n),
		Weights:     vec.New(n),
		sensors:     sensors,
		noise:       noise,
		m:           m,
		rng:         rng,
		weightSigma: DefaultWeightSigma,
		sensed:      make([]vec.Vector, len(sensors)),
	}
	options.Apply(s, opts...)
	for i := range s.sensed {
		s.sensed[i] = vec.New(n)
	}

	w := float32(1) / float32(n)
	if uniform && m != nil {
		width, height := m.DimsMetric()
		for i := 0; i < n; i++ {
			s.Poses[i] = sensor.Pose{
				X:     rng.Float32() * width,
				Y:     rng.Float32() * height,
				Theta: sensor.NormalizeTheta(rng.Float32() * 2 * math32.Pi),
			}
		}
		s.Weights.Fill(w)
		return s
	}

	seed = seed.Normalized()
	for i := 0; i < n; i++ {
		s.Poses[i] = seed
	}
	s.Weights.Fill(w)
	return s
}

// Len returns the particle count N.
func (s *Set) Len() int { return len(s.Poses) }

// Move applies the stochastic motion model to every particle, clipping
// position to the map bounding box. Theta is kept in [0, 2*Pi).
func (s *Set) Move(dTheta, d float32) {
	for i, p := range s.Poses {
		np := simrobot.Move(p, dTheta, d, s.noise, s.rng)
		if s.m != nil {
			np.X, np.Y = s.m.Clamp(np.X, np.Y)
		}
		s.Poses[i] = np
	}
}

// Update predicts each particle's sensor readings via ray-cast, then
// weights particle i by the product, over every sensor s, of the Gaussian
// PDF of the predicted reading against the measured reading, evaluated
// with the filter's own weightSigma. measured maps sensor name to
// observed distance; sensors absent from measured are skipped.
func (s *Set) Update(measured map[string]float32) {
	for si, sd := range s.sensors {
		if _, ok := measured[sd.Name]; !ok {
			continue
		}
		for pi, pose := range s.Poses {
			world := sd.WorldPose(pose)
			s.sensed[si][pi] = s.m.RayCastDistance(world.X, world.Y, world.Theta, sd.MaxRange)
		}
	}

	for pi := range s.Poses {
		w := float32(1)
		for si, sd := range s.sensors {
			mv, ok := measured[sd.Name]
			if !ok {
				continue
			}
			w *= gomath.GaussianPDF(s.sensed[si][pi], s.weightSigma, mv)
		}
		s.Weights[pi] = w
	}

	s.Resample()
}

// Resample replaces the particle set with a new generation drawn via the
// low-variance ("stochastic universal sampling") wheel. If every weight
// has underflowed to zero, it falls back to uniform random resampling so
// that a degenerate weighting step can never divide by zero.
func (s *Set) Resample() {
	n := len(s.Poses)
	if n == 0 {
		return
	}

	wMax := s.Weights[0]
	for _, w := range s.Weights {
		if w > wMax {
			wMax = w
		}
	}
	total := s.Weights.Sum()

	newPoses := make([]sensor.Pose, n)
	uniformWeight := float32(1) / float32(n)

	if wMax <= 0 || total == 0 {
		for i := 0; i < n; i++ {
			newPoses[i] = s.Poses[s.rng.Intn(n)]
		}
		s.Poses = newPoses
		s.Weights.Fill(uniformWeight)
		return
	}

	step := s.rng.Float32() * 2 * wMax
	if step <= 0 {
		step = 2 * wMax
	}
	c := s.rng.Intn(n)
	var beta float32

	for k := 0; k < n; k++ {
		beta += s.rng.Float32() * step
		for beta > s.Weights[c] {
			beta -= s.Weights[c]
			c = (c + 1) % n
		}
		newPoses[k] = s.Poses[c]
	}

	s.Poses = newPoses
	s.Weights.Fill(uniformWeight)
}

// Guess returns the pose estimate: the arithmetic mean of x and y, and the
// heading recovered from the mean of each particle's unit heading vector
// (atan2 of mean-sin over mean-cos) so the 0/2*Pi discontinuity never
// biases the average.
func (s *Set) Guess() sensor.Pose {
	n := float32(len(s.Poses))
	if n == 0 {
		return sensor.Pose{}
	}
	var sumX, sumY, sumSin, sumCos float32
	for _, p := range s.Poses {
		sumX += p.X
		sumY += p.Y
		sumSin += math32.Sin(p.Theta)
		sumCos += math32.Cos(p.Theta)
	}
	theta := math32.Atan2(sumSin/n, sumCos/n)
	return sensor.Pose{X: sumX / n, Y: sumY / n, Theta: sensor.NormalizeTheta(theta)}
}
