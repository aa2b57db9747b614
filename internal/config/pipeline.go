package config

import (
	"github.com/banshee-data/limbspeed/internal/capture"
	"github.com/banshee-data/limbspeed/internal/session"
)

// StreamOptions returns the per-stream settings derived from the config.
func (c *TuningConfig) StreamOptions() session.StreamOptions {
	return session.StreamOptions{
		ThrottleMs:    float64(c.GetCaptureThrottle().Milliseconds()),
		Precision:     c.GetDisplayPrecision(),
		MinVisibility: c.GetMinVisibility(),
	}
}

// Controls returns the initial user controls.
func (c *TuningConfig) Controls() session.Controls {
	return session.Controls{
		Target:       c.GetTarget(),
		Alpha:        c.GetSmoothingAlpha(),
		CaptureOnMax: c.GetCaptureOnNewMax(),
	}
}

// ReconnectPolicy returns the live capture retry policy.
func (c *TuningConfig) ReconnectPolicy() capture.ReconnectPolicy {
	return capture.ReconnectPolicy{
		MaxAttempts: c.GetReconnectAttempts(),
		Backoff:     c.GetReconnectBackoff(),
	}
}
