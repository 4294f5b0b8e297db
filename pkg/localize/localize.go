// Package localize binds the particle filter to the rest of the system:
// it drains the navigator's feed queue, drives the filter's predict and
// weighting steps, and publishes the resulting pose estimate to a
// single-writer, multi-reader shared record.
package localize

import (
	"context"
	"math/rand"

	"github.com/NCSUhardware/high-level/pkg/core/math/grid"
	"github.com/NCSUhardware/high-level/pkg/logger"
	"github.com/NCSUhardware/high-level/pkg/particle"
	"github.com/NCSUhardware/high-level/pkg/sensor"
)

// FeedMessage is one entry on the navigator's feed queue: an odometry
// delta plus the latest ultrasonic readings. A nil FeedMessage on the
// channel is never sent; callers signal exit by closing the channel or
// canceling the context, replacing the source's string "die" sentinel.
type FeedMessage struct {
	DTheta     float32
	DXY        float32
	Ultrasonic map[string]float32
	Timestamp  int64
}

// BotLocation is the single-writer, multi-reader pose snapshot the
// localizer publishes and the planner/track-follower read. Each snapshot is
// published whole through Location, so no reader sees a half-written one;
// Loop always publishes with Dirty false.
type BotLocation struct {
	X, Y, Theta float32
	Dirty       bool
}

// Loop owns a particle filter and republishes its pose estimate to dst
// every time a FeedMessage arrives on feed.
type Loop struct {
	filter *particle.Set
	feed   <-chan FeedMessage
	dst    *Location
}

// New builds a localizer Loop seeded at startPose, tracking N particles
// against m using sensors and noise.
func New(startPose sensor.Pose, sensors []sensor.Descriptor, noise sensor.MotionNoise, m *grid.Map, n int, feed <-chan FeedMessage, dst *Location) *Loop {
	filter := particle.New(startPose, sensors, noise, m, n, false, rand.New(rand.NewSource(1)))
	return &Loop{filter: filter, feed: feed, dst: dst}
}

// Run drains feed until it is closed or ctx is canceled. For each message
// it predicts on the odometry delta, weights on the ultrasonic readings,
// estimates the pose, and publishes it to dst.
func (l *Loop) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			logger.Log.Debug().Msg("localizer loop: context canceled")
			return nil
		case msg, ok := <-l.feed:
			if !ok {
				logger.Log.Debug().Msg("localizer loop: feed closed")
				return nil
			}
			l.filter.Move(msg.DTheta, msg.DXY)
			l.filter.Update(msg.Ultrasonic)
			guess := l.filter.Guess()
			l.dst.Store(BotLocation{X: guess.X, Y: guess.Y, Theta: guess.Theta})
		}
	}
}
