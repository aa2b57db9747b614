package session

import (
	"context"

	"github.com/banshee-data/limbspeed/internal/kinematics"
	"github.com/banshee-data/limbspeed/internal/series"
	"github.com/google/uuid"
)

// FileOptions configure a single-file run.
type FileOptions struct {
	ID       string
	Controls ControlReader
	Stream   StreamOptions
	OnUpdate func(Update)
	Captures CaptureSink
}

// FileResult is the outcome of playing one recording to the end.
type FileResult struct {
	StreamID string                `json:"stream_id"`
	Speed    series.TimeSeries     `json:"speed"`
	Knee     series.TimeSeries     `json:"knee"`
	Max      kinematics.RunningMax `json:"max"`
	MaxAtMs  float64               `json:"max_at_ms"`
	Frames   int                   `json:"frames"`
	Samples  int                   `json:"samples"`
}

// RunFile plays src to the end through a fresh stream with history and
// returns the recorded series and peak. The caller closes src.
func RunFile(ctx context.Context, src PoseSource, opts FileOptions) (FileResult, error) {
	id := opts.ID
	if id == "" {
		id = uuid.NewString()
	}
	so := opts.Stream
	so.KeepHistory = true
	stream := NewStream(id, opts.Controls, so)

	loop := &Loop{
		Source:   src,
		Stream:   stream,
		OnUpdate: opts.OnUpdate,
		Captures: opts.Captures,
	}
	if err := loop.Run(ctx); err != nil {
		return FileResult{}, err
	}

	m := stream.Max()
	return FileResult{
		StreamID: id,
		Speed:    stream.SpeedSeries(),
		Knee:     stream.KneeSeries(),
		Max:      m,
		MaxAtMs:  m.MaxAtMs,
		Frames:   stream.Frames(),
		Samples:  stream.Samples(),
	}, nil
}
