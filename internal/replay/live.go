package replay

import (
	"context"
	"errors"
	"io"

	"github.com/banshee-data/limbspeed/internal/pose"
	"github.com/banshee-data/limbspeed/internal/timeutil"
)

// LiveSource loops a recording as if it came from a camera: observations
// are restamped with the clock's wall time and the recording restarts when
// it ends. It lets the live session run without a camera or detector.
type LiveSource struct {
	open  func() (*Reader, error)
	clock timeutil.Clock
	rd    *Reader
}

// NewLiveSource loops the recording at path.
func NewLiveSource(path string, clock timeutil.Clock) (*LiveSource, error) {
	return newLiveSource(func() (*Reader, error) { return Open(path) }, clock)
}

func newLiveSource(open func() (*Reader, error), clock timeutil.Clock) (*LiveSource, error) {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	rd, err := open()
	if err != nil {
		return nil, err
	}
	return &LiveSource{open: open, clock: clock, rd: rd}, nil
}

// Next returns the next looped observation stamped with the current time.
func (l *LiveSource) Next(ctx context.Context) (pose.Observation, error) {
	obs, err := l.rd.Next(ctx)
	if errors.Is(err, io.EOF) {
		if l.rd.Count() == 0 {
			return pose.Observation{}, errors.New("recording is empty")
		}
		_ = l.rd.Close()
		var rd *Reader
		if rd, err = l.open(); err != nil {
			return pose.Observation{}, err
		}
		l.rd = rd
		obs, err = l.rd.Next(ctx)
	}
	if err != nil {
		return pose.Observation{}, err
	}
	obs.TimestampMs = timeutil.Millis(l.clock.Now())
	return obs, nil
}

// Close closes the current reader.
func (l *LiveSource) Close() error {
	return l.rd.Close()
}
