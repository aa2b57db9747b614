package session

import (
	"sync/atomic"

	"github.com/banshee-data/limbspeed/internal/kinematics"
	"github.com/banshee-data/limbspeed/internal/pose"
	"github.com/banshee-data/limbspeed/internal/series"
)

// State is the lifecycle state of a stream.
type State string

const (
	Idle   State = "idle"
	Active State = "active"
)

// StreamOptions are the per-stream settings that do not change while the
// stream runs.
type StreamOptions struct {
	ThrottleMs    float64
	Precision     int
	MinVisibility float64
	// KeepHistory records every smoothed sample and knee angle. File and
	// compare modes need it; live sessions do not.
	KeepHistory bool
}

// DefaultStreamOptions returns the capture gate defaults without history.
func DefaultStreamOptions() StreamOptions {
	return StreamOptions{
		ThrottleMs: kinematics.DefaultThrottleMs,
		Precision:  kinematics.DefaultDisplayPrecision,
	}
}

// Update is the outcome of one step.
type Update struct {
	TimestampMs float64               `json:"t"`
	Sampled     bool                  `json:"sampled"`
	Raw         float64               `json:"raw"`
	Speed       float64               `json:"speed"`
	Max         kinematics.RunningMax `json:"max"`
	Captured    bool                  `json:"captured"`
	KneeAngle   float64               `json:"knee_angle,omitempty"`
	HasKnee     bool                  `json:"has_knee"`
	// MaxReset reports that a requested max reset was applied this step.
	MaxReset bool `json:"max_reset,omitempty"`
}

// Stream is the speed pipeline state for one tracked body point. A Stream
// is driven by a single goroutine; only RequestResetMax may be called from
// elsewhere.
type Stream struct {
	id       string
	controls ControlReader
	opts     StreamOptions
	selector pose.Selector

	state    State
	target   pose.Target
	prev     *kinematics.TimedPoint3D
	smoother kinematics.Smoother
	max      kinematics.RunningMax
	speed    *series.TimeSeries
	knee     *series.TimeSeries
	frames   int
	samples  int

	resetMax atomic.Bool
}

// NewStream returns an idle stream reading its controls from controls.
func NewStream(id string, controls ControlReader, opts StreamOptions) *Stream {
	if controls == nil {
		controls = Fixed(DefaultControls())
	}
	return &Stream{
		id:       id,
		controls: controls,
		opts:     opts,
		selector: pose.Selector{MinVisibility: opts.MinVisibility},
		state:    Idle,
		max:      kinematics.NewRunningMax(),
	}
}

// ID returns the stream identifier.
func (s *Stream) ID() string { return s.id }

// State returns the lifecycle state.
func (s *Stream) State() State { return s.state }

// Start resets the previous point, smoother, running max and history and
// makes the stream active.
func (s *Stream) Start() {
	s.prev = nil
	s.smoother.Reset()
	s.max = kinematics.NewRunningMax()
	s.resetMax.Store(false)
	s.frames, s.samples = 0, 0
	s.target = s.controls.Current().Target
	if s.opts.KeepHistory {
		s.speed = series.New(256)
		s.knee = series.New(256)
	} else {
		s.speed, s.knee = nil, nil
	}
	s.state = Active
}

// Stop returns the stream to idle. Results stay readable.
func (s *Stream) Stop() {
	s.state = Idle
}

// ResetMax clears the running max and capture gate.
func (s *Stream) ResetMax() {
	s.max.Reset()
}

// RequestResetMax asks the stream to reset its max before the next step.
// It is safe to call from any goroutine.
func (s *Stream) RequestResetMax() {
	s.resetMax.Store(true)
}

// Max returns the running max state.
func (s *Stream) Max() kinematics.RunningMax { return s.max }

// Frames returns the number of observations stepped since Start.
func (s *Stream) Frames() int { return s.frames }

// Samples returns the number of speed samples produced since Start.
func (s *Stream) Samples() int { return s.samples }

// SpeedSeries returns a copy of the recorded smoothed speed history.
func (s *Stream) SpeedSeries() series.TimeSeries {
	if s.speed == nil {
		return series.TimeSeries{}
	}
	return s.speed.Clone()
}

// KneeSeries returns a copy of the recorded knee angle history.
func (s *Stream) KneeSeries() series.TimeSeries {
	if s.knee == nil {
		return series.TimeSeries{}
	}
	return s.knee.Clone()
}

// Step folds one observation into the stream. Steps on an idle stream are
// ignored. A frame without a usable tracked point leaves the speed state
// untouched and reports Sampled false.
func (s *Stream) Step(obs pose.Observation) Update {
	if s.state != Active {
		return Update{TimestampMs: obs.TimestampMs, Max: s.max}
	}
	reset := s.resetMax.Swap(false)
	if reset {
		s.max.Reset()
	}
	s.frames++

	c := s.controls.Current()
	if c.Target != s.target {
		// A different landmark has no meaningful displacement from the old one.
		s.target = c.Target
		s.prev = nil
	}

	u := Update{TimestampMs: obs.TimestampMs, MaxReset: reset}
	if angle, ok := s.selector.KneeAngle(obs.Frame, c.Target.Side); ok {
		u.KneeAngle, u.HasKnee = angle, true
		if s.knee != nil {
			s.knee.Append(obs.TimestampMs, angle)
		}
	}

	p, ok := s.selector.SelectTrackedPoint(obs.Frame, c.Target)
	if !ok {
		u.Max = s.max
		if v, ok := s.smoother.Value(); ok {
			u.Speed = v
		}
		return u
	}

	curr := p.At(obs.TimestampMs)
	prev := s.prev
	if prev == nil {
		s.prev = &curr
		u.Max = s.max
		return u
	}

	// A frame that does not advance time carries no displacement rate; keep
	// the previous point and the smoothed state as they are.
	dt := kinematics.ElapsedSeconds(*prev, curr)
	if !(dt > 0) {
		u.Max = s.max
		if v, ok := s.smoother.Value(); ok {
			u.Speed = v
		}
		return u
	}
	s.prev = &curr

	raw := kinematics.Speed3D(prev, curr, dt)
	smoothed := s.smoother.Update(raw, c.Alpha)

	next, fire := kinematics.Observe(s.max, smoothed, obs.TimestampMs, s.opts.ThrottleMs, s.opts.Precision)
	if fire && !c.CaptureOnMax {
		next.LastCapturedRounded = s.max.LastCapturedRounded
		next.LastCaptureAtMs = s.max.LastCaptureAtMs
		fire = false
	}
	s.max = next
	s.samples++
	if s.speed != nil {
		s.speed.Append(obs.TimestampMs, smoothed)
	}
	tracef("%s t=%.0f raw=%.3f speed=%.3f max=%.3f", s.id, obs.TimestampMs, raw, smoothed, s.max.MaxValue)

	u.Sampled = true
	u.Raw = raw
	u.Speed = smoothed
	u.Max = s.max
	u.Captured = fire
	return u
}
