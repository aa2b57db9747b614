package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/banshee-data/limbspeed/internal/kinematics"
	"github.com/banshee-data/limbspeed/internal/timeutil"
	"github.com/google/uuid"
)

var (
	// ErrSessionActive is returned when starting a session that is running.
	ErrSessionActive = errors.New("live session already active")

	// ErrSessionIdle is returned by actions that need a running session.
	ErrSessionIdle = errors.New("live session not active")
)

// SourceOpener opens the pose source for a live session. For a camera this
// acquires the device (surfacing *capture.AcquireError on failure) and the
// detector.
type SourceOpener func(ctx context.Context) (PoseSource, error)

// LiveConfig configures a LiveSession.
type LiveConfig struct {
	Open     SourceOpener
	Controls ControlReader
	Stream   StreamOptions
	Clock    timeutil.Clock
	// Interval paces the frame loop; zero lets the source set the pace.
	Interval time.Duration
	Captures CaptureSink
}

// LiveSnapshot is a read-only view of a live session for the HTTP layer.
type LiveSnapshot struct {
	ID        string                `json:"id,omitempty"`
	State     State                 `json:"state"`
	Target    string                `json:"target"`
	Speed     float64               `json:"speed"`
	HasSpeed  bool                  `json:"has_speed"`
	Max       kinematics.RunningMax `json:"max"`
	Frames    int                   `json:"frames"`
	Captures  int                   `json:"captures"`
	LastError string                `json:"last_error,omitempty"`
}

// LiveSession runs one live stream at a time. The frame loop goroutine is
// the only writer of stream state; readers get copies through Snapshot.
type LiveSession struct {
	cfg LiveConfig

	mu     sync.Mutex
	stream *Stream
	cancel context.CancelFunc
	done   chan struct{}
	snap   LiveSnapshot
	// resetPending holds back updates computed before a requested reset
	// reached the stream.
	resetPending bool
}

// NewLiveSession returns an idle session.
func NewLiveSession(cfg LiveConfig) *LiveSession {
	if cfg.Controls == nil {
		cfg.Controls = Fixed(DefaultControls())
	}
	return &LiveSession{
		cfg:  cfg,
		snap: LiveSnapshot{State: Idle, Max: kinematics.NewRunningMax()},
	}
}

// Start opens the source and launches the frame loop. Acquisition errors
// are returned unchanged so callers can match *capture.AcquireError.
func (s *LiveSession) Start(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return "", ErrSessionActive
	}
	if s.cfg.Open == nil {
		return "", errors.New("live session has no source")
	}

	src, err := s.cfg.Open(ctx)
	if err != nil {
		opsf("live session start: %v", err)
		return "", err
	}

	id := uuid.NewString()
	opts := s.cfg.Stream
	opts.KeepHistory = false
	stream := NewStream(id, s.cfg.Controls, opts)

	runCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	s.stream = stream
	s.cancel = cancel
	s.done = done
	s.resetPending = false
	s.snap = LiveSnapshot{
		ID:     id,
		State:  Active,
		Target: s.cfg.Controls.Current().Target.String(),
		Max:    kinematics.NewRunningMax(),
	}

	loop := &Loop{
		Source:   src,
		Stream:   stream,
		Interval: s.cfg.Interval,
		Clock:    s.cfg.Clock,
		OnUpdate: s.record,
		Captures: s.capture,
	}
	go s.run(runCtx, loop, src, done)
	opsf("live session %s started", id)
	return id, nil
}

func (s *LiveSession) run(ctx context.Context, loop *Loop, src PoseSource, done chan struct{}) {
	defer close(done)
	err := loop.Run(ctx)
	if cerr := src.Close(); cerr != nil {
		opsf("live session %s: close source: %v", loop.Stream.ID(), cerr)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.State = Idle
	if err != nil && !errors.Is(err, context.Canceled) {
		s.snap.LastError = err.Error()
		opsf("live session %s stopped: %v", loop.Stream.ID(), err)
	} else {
		opsf("live session %s stopped", loop.Stream.ID())
	}
	if s.done == done {
		s.cancel()
		s.cancel = nil
		s.done = nil
	}
}

func (s *LiveSession) record(u Update) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.Frames++
	if u.MaxReset {
		s.resetPending = false
	}
	if !s.resetPending {
		s.snap.Max = u.Max
	}
	s.snap.Target = s.cfg.Controls.Current().Target.String()
	if u.Sampled {
		s.snap.Speed = u.Speed
		s.snap.HasSpeed = true
	}
}

func (s *LiveSession) capture(ev CaptureEvent) {
	s.mu.Lock()
	s.snap.Captures++
	s.mu.Unlock()
	if s.cfg.Captures != nil {
		s.cfg.Captures(ev)
	}
}

// Stop cancels the frame loop and waits for it to release the source.
func (s *LiveSession) Stop() error {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.mu.Unlock()
	if cancel == nil {
		return ErrSessionIdle
	}
	cancel()
	<-done
	return nil
}

// ResetMax clears the running max; the loop applies it before its next step.
func (s *LiveSession) ResetMax() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel == nil {
		return ErrSessionIdle
	}
	s.stream.RequestResetMax()
	s.snap.Max = kinematics.NewRunningMax()
	s.resetPending = true
	return nil
}

// Snapshot returns a copy of the session's current readout.
func (s *LiveSession) Snapshot() LiveSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

// Done returns a channel closed when the running loop exits, or nil when
// the session is idle.
func (s *LiveSession) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}
