package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/banshee-data/limbspeed/internal/timeutil"
)

// CaptureEvent announces a new captured max.
type CaptureEvent struct {
	StreamID    string  `json:"stream_id"`
	Value       float64 `json:"value"`
	TimestampMs float64 `json:"t"`
	Target      string  `json:"target"`
	Image       []byte  `json:"-"`
}

// CaptureSink receives capture events. It runs on the loop goroutine.
type CaptureSink func(CaptureEvent)

// Loop steps a Stream with observations from a PoseSource.
type Loop struct {
	Source PoseSource
	Stream *Stream

	// Interval paces steps on Clock's ticker. Zero steps as fast as the
	// source delivers, which is what offline file analysis wants.
	Interval time.Duration
	Clock    timeutil.Clock

	// OnUpdate, when set, receives every step result.
	OnUpdate func(Update)

	// Captures receives capture events. Snapshots come from Snapshotter,
	// or from Source when it implements Snapshotter.
	Captures    CaptureSink
	Snapshotter Snapshotter
}

// Run starts the stream and steps it until the source returns io.EOF, the
// context is cancelled, or the source fails. Playback end returns nil;
// cancellation returns the context error. The stream is stopped on return.
func (l *Loop) Run(ctx context.Context) error {
	if l.Source == nil || l.Stream == nil {
		return errors.New("loop needs a source and a stream")
	}
	clock := l.Clock
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	snap := l.Snapshotter
	if snap == nil {
		snap, _ = l.Source.(Snapshotter)
	}

	var tick <-chan time.Time
	if l.Interval > 0 {
		ticker := clock.NewTicker(l.Interval)
		defer ticker.Stop()
		tick = ticker.C()
	}

	l.Stream.Start()
	defer l.Stream.Stop()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if tick != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-tick:
			}
		}

		obs, err := l.Source.Next(ctx)
		if errors.Is(err, io.EOF) {
			diagf("%s: source ended after %d frames", l.Stream.ID(), l.Stream.Frames())
			return nil
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return fmt.Errorf("stream %s: %w", l.Stream.ID(), err)
		}

		u := l.Stream.Step(obs)
		if u.Captured && l.Captures != nil {
			l.Captures(l.captureEvent(u, snap))
		}
		if l.OnUpdate != nil {
			l.OnUpdate(u)
		}
	}
}

func (l *Loop) captureEvent(u Update, snap Snapshotter) CaptureEvent {
	ev := CaptureEvent{
		StreamID:    l.Stream.ID(),
		Value:       u.Max.LastCapturedRounded,
		TimestampMs: u.TimestampMs,
		Target:      l.Stream.target.String(),
	}
	if snap != nil {
		img, err := snap.Snapshot()
		if err != nil {
			opsf("%s: snapshot at %.0fms: %v", ev.StreamID, ev.TimestampMs, err)
		} else {
			ev.Image = img
		}
	}
	diagf("%s: captured max %.*f at %.0fms", ev.StreamID, l.Stream.opts.Precision, ev.Value, ev.TimestampMs)
	return ev
}
