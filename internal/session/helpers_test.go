package session

import (
	"context"
	"io"
	"sync"

	"github.com/banshee-data/limbspeed/internal/pose"
)

// worldFrame places the right foot index at (x, y, z) in world space and
// bends the right knee to 90 degrees on the image plane.
func worldFrame(x, y, z float64) pose.Frame {
	return legFrame(x, y, z, 1)
}

// legFrame is worldFrame with the right ankle at (1, ankleY) on the image
// plane; ankleY == 1 gives a 90 degree knee.
func legFrame(x, y, z, ankleY float64) pose.Frame {
	points := make([]pose.Landmark, pose.NumLandmarks)
	world := make([]pose.Landmark, pose.NumLandmarks)
	for i := range points {
		points[i] = pose.Landmark{Visibility: 1}
		world[i] = pose.Landmark{Visibility: 1}
	}
	points[pose.RightHip] = pose.Landmark{X: 0, Y: 0, Visibility: 1}
	points[pose.RightKnee] = pose.Landmark{X: 0, Y: 1, Visibility: 1}
	points[pose.RightAnkle] = pose.Landmark{X: 1, Y: ankleY, Visibility: 1}
	world[pose.RightFootIndex] = pose.Landmark{X: x, Y: y, Z: z, Visibility: 1}
	world[pose.RightAnkle] = pose.Landmark{X: x, Y: y + 0.1, Z: z, Visibility: 1}
	return pose.PoseWithWorld{Points: points, World: world}
}

func obsAt(tMs, x float64) pose.Observation {
	return pose.Observation{TimestampMs: tMs, Frame: worldFrame(x, 0, 0)}
}

// sliceSource replays fixed observations, then io.EOF.
type sliceSource struct {
	mu     sync.Mutex
	obs    []pose.Observation
	err    error
	closed bool
}

func newSliceSource(obs ...pose.Observation) *sliceSource {
	return &sliceSource{obs: obs}
}

func (s *sliceSource) Next(ctx context.Context) (pose.Observation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return pose.Observation{}, err
	}
	if len(s.obs) == 0 {
		if s.err != nil {
			return pose.Observation{}, s.err
		}
		return pose.Observation{}, io.EOF
	}
	o := s.obs[0]
	s.obs = s.obs[1:]
	return o, nil
}

func (s *sliceSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *sliceSource) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// chanSource blocks on a channel, like a live camera waiting for frames.
type chanSource struct {
	ch     chan pose.Observation
	image  []byte
	mu     sync.Mutex
	closed bool
}

func newChanSource() *chanSource {
	return &chanSource{ch: make(chan pose.Observation)}
}

func (c *chanSource) Next(ctx context.Context) (pose.Observation, error) {
	select {
	case <-ctx.Done():
		return pose.Observation{}, ctx.Err()
	case o, ok := <-c.ch:
		if !ok {
			return pose.Observation{}, io.EOF
		}
		return o, nil
	}
}

func (c *chanSource) Snapshot() ([]byte, error) { return c.image, nil }

func (c *chanSource) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *chanSource) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}
