package kinematics

// DefaultAlpha is the default EMA smoothing factor.
const DefaultAlpha = 0.3

// EMA applies one step of a single-pole low-pass filter.
//
// A nil prev means the filter has not seen a sample yet and sample is
// returned unchanged. alpha=1 passes samples through; alpha=0 holds the
// first value forever.
func EMA(prev *float64, sample, alpha float64) float64 {
	if prev == nil {
		return sample
	}
	return *prev*(1-alpha) + sample*alpha
}

// Smoother holds the EMA state for one stream. The zero value is an
// uninitialised smoother.
type Smoother struct {
	value       float64
	initialized bool
}

// Update feeds sample through the filter and returns the new smoothed value.
func (s *Smoother) Update(sample, alpha float64) float64 {
	var prev *float64
	if s.initialized {
		prev = &s.value
	}
	s.value = EMA(prev, sample, alpha)
	s.initialized = true
	return s.value
}

// Value returns the current smoothed value and whether any sample has been
// seen since the last reset.
func (s *Smoother) Value() (float64, bool) {
	return s.value, s.initialized
}

// Reset returns the smoother to its uninitialised state.
func (s *Smoother) Reset() {
	*s = Smoother{}
}
