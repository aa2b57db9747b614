package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/banshee-data/limbspeed/internal/capture"
	"github.com/banshee-data/limbspeed/internal/pose"
)

// Detector runs pose detection on a single frame. A frame with nobody in
// it is pose.NoPose, not an error.
type Detector interface {
	Detect(ctx context.Context, f capture.Frame) (pose.Frame, error)
	Close() error
}

// DetectorFactory acquires a detector for one stream. The stream reuses it
// for every frame and closes it when the stream ends.
type DetectorFactory func(ctx context.Context) (Detector, error)

// PoseSource yields timestamped pose observations. Next returns io.EOF
// when a recorded source has played to the end.
type PoseSource interface {
	Next(ctx context.Context) (pose.Observation, error)
	Close() error
}

// Snapshotter produces the image bytes attached to a capture event.
type Snapshotter interface {
	Snapshot() ([]byte, error)
}

// SnapshotQuality is the JPEG quality used for capture snapshots.
const SnapshotQuality = 85

// DetectingSource turns a frame source into a pose source by running each
// frame through a detector. It keeps the most recent frame for snapshots.
type DetectingSource struct {
	frames   capture.Source
	detector Detector

	mu   sync.Mutex
	last capture.Frame
}

// NewDetectingSource acquires a detector for frames. On failure the frame
// source is left open for the caller to close.
func NewDetectingSource(ctx context.Context, frames capture.Source, newDetector DetectorFactory) (*DetectingSource, error) {
	if newDetector == nil {
		return nil, errors.New("no detector configured")
	}
	det, err := newDetector(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire detector: %w", err)
	}
	return &DetectingSource{frames: frames, detector: det}, nil
}

// Next reads one frame and detects the pose in it.
func (d *DetectingSource) Next(ctx context.Context) (pose.Observation, error) {
	f, err := d.frames.Read(ctx)
	if err != nil {
		return pose.Observation{}, err
	}
	d.mu.Lock()
	d.last = f
	d.mu.Unlock()

	pf, err := d.detector.Detect(ctx, f)
	if err != nil {
		return pose.Observation{}, fmt.Errorf("detect pose at %.0fms: %w", f.TimestampMs, err)
	}
	if pf == nil {
		pf = pose.NoPose{}
	}
	return pose.Observation{TimestampMs: f.TimestampMs, Frame: pf}, nil
}

// Snapshot encodes the most recent frame as JPEG.
func (d *DetectingSource) Snapshot() ([]byte, error) {
	d.mu.Lock()
	f := d.last
	d.mu.Unlock()
	return capture.EncodeJPEG(f, SnapshotQuality)
}

// Close releases the detector and the frame source.
func (d *DetectingSource) Close() error {
	return errors.Join(d.detector.Close(), d.frames.Close())
}
