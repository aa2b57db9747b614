package series

import "gonum.org/v1/gonum/floats"

// DefaultPoints is the default resampled length.
const DefaultPoints = 200

// Resampled is a fixed-length, uniformly spaced view of a TimeSeries.
type Resampled struct {
	T []float64 `json:"t"`
	V []float64 `json:"v"`
}

// Len returns the number of points.
func (r Resampled) Len() int {
	return len(r.T)
}

// Empty reports whether the resampled series has no points; no comparison
// is possible against an empty series.
func (r Resampled) Empty() bool {
	return len(r.T) == 0
}

// Progress returns the sample times relative to the first point.
func (r Resampled) Progress() []float64 {
	out := make([]float64, len(r.T))
	if len(r.T) == 0 {
		return out
	}
	for i, t := range r.T {
		out[i] = t - r.T[0]
	}
	return out
}

// Resample linearly interpolates s onto n evenly spaced timestamps spanning
// its first and last sample. n <= 0 selects DefaultPoints. Targets outside
// the input span clamp to the boundary value.
func Resample(s TimeSeries, n int) Resampled {
	if s.Len() == 0 {
		return Resampled{T: []float64{}, V: []float64{}}
	}
	if n <= 0 {
		n = DefaultPoints
	}

	first, last := s.Span()
	out := Resampled{
		T: make([]float64, n),
		V: make([]float64, n),
	}
	if n == 1 {
		out.T[0] = first
	} else {
		floats.Span(out.T, first, last)
	}
	for i, t := range out.T {
		out.V[i] = interpolate(s, t)
	}
	return out
}

// interpolate finds the first sample at or after t by linear scan and
// interpolates against its predecessor.
func interpolate(s TimeSeries, t float64) float64 {
	i := -1
	for j, tt := range s.T {
		if tt >= t {
			i = j
			break
		}
	}
	switch {
	case i == -1:
		return s.V[len(s.V)-1]
	case i == 0:
		return s.V[0]
	}

	t0, t1 := s.T[i-1], s.T[i]
	v0, v1 := s.V[i-1], s.V[i]
	if t1 == t0 {
		return v1
	}
	r := (t - t0) / (t1 - t0)
	return v0 + (v1-v0)*r
}
