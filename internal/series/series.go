package series

import "gonum.org/v1/gonum/floats"

// TimeSeries is an append-only sequence of (t, value) samples with
// non-decreasing t. The zero value is an empty series.
type TimeSeries struct {
	T []float64 `json:"t"`
	V []float64 `json:"v"`
}

// New returns an empty series with room for capacity samples.
func New(capacity int) *TimeSeries {
	return &TimeSeries{
		T: make([]float64, 0, capacity),
		V: make([]float64, 0, capacity),
	}
}

// FromSlices builds a series from parallel slices. The shorter length wins.
func FromSlices(t, v []float64) TimeSeries {
	n := min(len(t), len(v))
	return TimeSeries{
		T: append([]float64(nil), t[:n]...),
		V: append([]float64(nil), v[:n]...),
	}
}

// Append adds one sample.
func (s *TimeSeries) Append(t, v float64) {
	s.T = append(s.T, t)
	s.V = append(s.V, v)
}

// Len returns the number of samples.
func (s TimeSeries) Len() int {
	return len(s.T)
}

// Reset drops all samples, keeping the backing storage.
func (s *TimeSeries) Reset() {
	s.T = s.T[:0]
	s.V = s.V[:0]
}

// Span returns the first and last timestamps, or zeros for an empty series.
func (s TimeSeries) Span() (first, last float64) {
	if len(s.T) == 0 {
		return 0, 0
	}
	return s.T[0], s.T[len(s.T)-1]
}

// Max returns the largest value and its timestamp. ok is false for an
// empty series.
func (s TimeSeries) Max() (t, v float64, ok bool) {
	if len(s.V) == 0 {
		return 0, 0, false
	}
	i := floats.MaxIdx(s.V)
	return s.T[i], s.V[i], true
}

// Clone returns a deep copy.
func (s TimeSeries) Clone() TimeSeries {
	return FromSlices(s.T, s.V)
}
