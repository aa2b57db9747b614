package session

import (
	"fmt"
	"sync"

	"github.com/banshee-data/limbspeed/internal/kinematics"
	"github.com/banshee-data/limbspeed/internal/pose"
)

// Controls are the user-facing settings a stream reads on every step.
type Controls struct {
	Target       pose.Target `json:"target"`
	Alpha        float64     `json:"alpha"`
	CaptureOnMax bool        `json:"capture_on_max"`
}

// DefaultControls tracks the right foot with the default smoothing and
// captures enabled.
func DefaultControls() Controls {
	return Controls{
		Target:       pose.DefaultTarget,
		Alpha:        kinematics.DefaultAlpha,
		CaptureOnMax: true,
	}
}

// Validate checks the target and that alpha lies in [0, 1].
func (c Controls) Validate() error {
	if err := c.Target.Validate(); err != nil {
		return err
	}
	if c.Alpha < 0 || c.Alpha > 1 || c.Alpha != c.Alpha {
		return fmt.Errorf("alpha must be between 0 and 1, got %v", c.Alpha)
	}
	return nil
}

// ControlReader supplies the current controls.
type ControlReader interface {
	Current() Controls
}

// Fixed is a ControlReader whose controls never change.
type Fixed Controls

// Current returns c.
func (c Fixed) Current() Controls { return Controls(c) }

// ControlStore holds controls shared between the HTTP layer, which writes
// them, and running streams, which read them each frame.
type ControlStore struct {
	mu       sync.RWMutex
	controls Controls
	onChange []func(Controls)
}

// NewControlStore returns a store holding c.
func NewControlStore(c Controls) *ControlStore {
	return &ControlStore{controls: c}
}

// Current returns a copy of the controls.
func (s *ControlStore) Current() Controls {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.controls
}

// Set replaces the controls after validating them.
func (s *ControlStore) Set(c Controls) error {
	if err := c.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	s.controls = c
	callbacks := append([]func(Controls){}, s.onChange...)
	s.mu.Unlock()

	for _, fn := range callbacks {
		fn(c)
	}
	return nil
}

// Update applies fn to a copy of the controls and stores the result if it
// validates.
func (s *ControlStore) Update(fn func(*Controls)) (Controls, error) {
	s.mu.Lock()
	c := s.controls
	fn(&c)
	if err := c.Validate(); err != nil {
		current := s.controls
		s.mu.Unlock()
		return current, err
	}
	s.controls = c
	callbacks := append([]func(Controls){}, s.onChange...)
	s.mu.Unlock()

	for _, fn := range callbacks {
		fn(c)
	}
	return c, nil
}

// OnChange registers fn to run after every successful Set.
func (s *ControlStore) OnChange(fn func(Controls)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = append(s.onChange, fn)
}
