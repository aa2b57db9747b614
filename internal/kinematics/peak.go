package kinematics

import (
	"encoding/json"
	"math"
)

// Capture gate defaults.
const (
	DefaultThrottleMs       = 800.0
	DefaultDisplayPrecision = 2
)

// RunningMax tracks the peak of a smoothed signal and the last value that
// triggered a capture.
//
// MaxValue never decreases within a session. LastCapturedRounded is the
// display-rounded value of the last capture, or -Inf when nothing has been
// captured since the last reset.
type RunningMax struct {
	MaxValue            float64 `json:"max_value"`
	MaxAtMs             float64 `json:"max_at_ms"`
	LastCapturedRounded float64 `json:"-"`
	LastCaptureAtMs     float64 `json:"last_capture_at_ms"`
}

// NewRunningMax returns a tracker in its reset state.
func NewRunningMax() RunningMax {
	return RunningMax{LastCapturedRounded: math.Inf(-1)}
}

// Reset clears the tracker so the next positive value qualifies for capture.
func (r *RunningMax) Reset() {
	*r = NewRunningMax()
}

// MarshalJSON encodes the never-captured sentinel as a null
// last_captured_rounded, since JSON has no infinities.
func (r RunningMax) MarshalJSON() ([]byte, error) {
	type plain RunningMax
	out := struct {
		plain
		LastCaptured *float64 `json:"last_captured_rounded"`
	}{plain: plain(r)}
	if r.HasCaptured() {
		v := r.LastCapturedRounded
		out.LastCaptured = &v
	}
	return json.Marshal(out)
}

// HasCaptured reports whether a capture has fired since the last reset.
func (r RunningMax) HasCaptured() bool {
	return !math.IsInf(r.LastCapturedRounded, -1)
}

// Observe folds value into state.
//
// A value above the current max always raises the max. It requests a
// capture only when its display-rounded form exceeds the last captured
// rounded value and the throttle window since the previous capture has
// elapsed. The first capture after a reset is never throttled.
func Observe(state RunningMax, value, nowMs, throttleMs float64, precision int) (RunningMax, bool) {
	if !isFinite(value) || value <= state.MaxValue {
		return state, false
	}

	state.MaxValue = value
	state.MaxAtMs = nowMs

	rounded := RoundTo(value, precision)
	if rounded <= state.LastCapturedRounded {
		return state, false
	}
	if state.HasCaptured() && nowMs-state.LastCaptureAtMs < throttleMs {
		return state, false
	}

	state.LastCapturedRounded = rounded
	state.LastCaptureAtMs = nowMs
	return state, true
}

// RoundTo rounds v to the given number of decimal digits. Negative
// precision is treated as 0.
func RoundTo(v float64, precision int) float64 {
	if precision < 0 {
		precision = 0
	}
	scale := math.Pow(10, float64(precision))
	return math.Round(v*scale) / scale
}
