package series

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var approx = cmpopts.EquateApprox(0, 1e-9)

func TestResampleEmpty(t *testing.T) {
	t.Parallel()

	r := Resample(TimeSeries{}, 200)
	assert.True(t, r.Empty())
	assert.NotNil(t, r.T)
	assert.NotNil(t, r.V)
}

func TestResampleSinglePoint(t *testing.T) {
	t.Parallel()

	s := FromSlices([]float64{2, 3, 4}, []float64{10, 20, 30})
	r := Resample(s, 1)
	require.Equal(t, 1, r.Len())
	assert.Equal(t, 2.0, r.T[0])
	assert.Equal(t, 10.0, r.V[0])
}

func TestResampleDefaultCount(t *testing.T) {
	t.Parallel()

	s := FromSlices([]float64{0, 1}, []float64{0, 1})
	r := Resample(s, 0)
	assert.Equal(t, DefaultPoints, r.Len())
	assert.InDelta(t, 1.0, r.T[DefaultPoints-1], 1e-12)
}

func TestResampleRoundTrip(t *testing.T) {
	t.Parallel()

	const n = 50
	ts := make([]float64, n)
	vs := make([]float64, n)
	for i := range ts {
		ts[i] = float64(i) * 0.04
		vs[i] = math.Sin(float64(i) / 5)
	}
	r := Resample(FromSlices(ts, vs), n)

	if diff := cmp.Diff(ts, r.T, approx); diff != "" {
		t.Errorf("timestamps mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(vs, r.V, approx); diff != "" {
		t.Errorf("values mismatch (-want +got):\n%s", diff)
	}
}

func TestResampleInterpolates(t *testing.T) {
	t.Parallel()

	s := FromSlices([]float64{0, 10}, []float64{0, 100})
	r := Resample(s, 5)
	want := []float64{0, 25, 50, 75, 100}
	if diff := cmp.Diff(want, r.V, approx); diff != "" {
		t.Errorf("values mismatch (-want +got):\n%s", diff)
	}
}

func TestResampleDuplicateTimestamps(t *testing.T) {
	t.Parallel()

	s := FromSlices([]float64{0, 1, 1, 2}, []float64{0, 5, 7, 9})
	r := Resample(s, 3)
	// Target t=1 matches the first duplicate, bracketed by (0,0) and (1,5).
	want := []float64{0, 5, 9}
	if diff := cmp.Diff(want, r.V, approx); diff != "" {
		t.Errorf("values mismatch (-want +got):\n%s", diff)
	}
	for _, v := range r.V {
		assert.False(t, math.IsNaN(v))
	}
}

func TestResampleDoesNotMutateInput(t *testing.T) {
	t.Parallel()

	s := FromSlices([]float64{0, 1, 2}, []float64{3, 4, 5})
	before := s.Clone()
	_ = Resample(s, 10)
	assert.Equal(t, before, s)
}

func TestPearson(t *testing.T) {
	t.Parallel()

	x := []float64{1, 3, 2, 5, 4}

	t.Run("self correlation", func(t *testing.T) {
		assert.InDelta(t, 1.0, Pearson(x, x), 1e-12)
	})

	t.Run("anti correlation", func(t *testing.T) {
		neg := make([]float64, len(x))
		for i, v := range x {
			neg[i] = -2 * v
		}
		assert.InDelta(t, -1.0, Pearson(x, neg), 1e-12)
	})

	t.Run("constant series", func(t *testing.T) {
		flat := []float64{90, 90, 90, 90, 90}
		assert.Equal(t, 0.0, Pearson(flat, flat))
		assert.Equal(t, 0.0, Pearson(flat, x))
		assert.Equal(t, 0.0, Pearson(x, flat))
	})

	t.Run("too short", func(t *testing.T) {
		assert.Equal(t, 0.0, Pearson([]float64{1, 2}, []float64{1, 2}))
		assert.Equal(t, 0.0, Pearson(nil, nil))
	})

	t.Run("mismatched lengths use common prefix", func(t *testing.T) {
		y := []float64{2, 6, 4, 10, 8, 1000, -1000}
		assert.InDelta(t, 1.0, Pearson(x, y), 1e-12)
	})

	t.Run("sums formula agreement", func(t *testing.T) {
		a := []float64{0.2, 1.7, 2.9, 3.1, 2.2, 0.4}
		b := []float64{0.1, 1.2, 3.3, 2.8, 2.0, 0.9}
		assert.InDelta(t, sumsPearson(a, b), Pearson(a, b), 1e-12)
	})
}

// sumsPearson is the textbook single-pass formula over Σx, Σy, Σx², Σy², Σxy.
func sumsPearson(x, y []float64) float64 {
	n := float64(len(x))
	var sx, sy, sxx, syy, sxy float64
	for i := range x {
		sx += x[i]
		sy += y[i]
		sxx += x[i] * x[i]
		syy += y[i] * y[i]
		sxy += x[i] * y[i]
	}
	cov := sxy - sx*sy/n
	vx := sxx - sx*sx/n
	vy := syy - sy*sy/n
	return cov / math.Sqrt(vx*vy)
}

func TestHalfSpeedPlaybackCorrelates(t *testing.T) {
	t.Parallel()

	ref := FromSlices([]float64{0, 1, 2, 3, 4}, []float64{1, 2, 3, 4, 5})
	usr := FromSlices([]float64{0, 2, 4, 6, 8}, []float64{1, 2, 3, 4, 5})

	rr := Resample(ref, DefaultPoints)
	ur := Resample(usr, DefaultPoints)
	require.Equal(t, rr.Len(), ur.Len())
	assert.InDelta(t, 1.0, Pearson(rr.V, ur.V), 1e-9)
}

func TestFlatKneeAngleScoresZero(t *testing.T) {
	t.Parallel()

	ref := FromSlices([]float64{0, 1, 2, 3}, []float64{90, 90, 90, 90})
	usr := FromSlices([]float64{0, 1, 2, 3}, []float64{80, 95, 120, 100})

	r := Pearson(Resample(ref, 20).V, Resample(usr, 20).V)
	assert.Equal(t, 0.0, r)
	assert.False(t, math.IsNaN(r))
}

func TestTimeSeries(t *testing.T) {
	t.Parallel()

	s := New(4)
	_, _, ok := s.Max()
	assert.False(t, ok)

	s.Append(0, 1)
	s.Append(10, 4)
	s.Append(20, 2)
	assert.Equal(t, 3, s.Len())

	first, last := s.Span()
	assert.Equal(t, 0.0, first)
	assert.Equal(t, 20.0, last)

	at, v, ok := s.Max()
	require.True(t, ok)
	assert.Equal(t, 10.0, at)
	assert.Equal(t, 4.0, v)

	s.Reset()
	assert.Equal(t, 0, s.Len())
}

func TestProgress(t *testing.T) {
	t.Parallel()

	r := Resample(FromSlices([]float64{5, 7}, []float64{0, 1}), 3)
	if diff := cmp.Diff([]float64{0, 1, 2}, r.Progress(), approx); diff != "" {
		t.Errorf("progress mismatch (-want +got):\n%s", diff)
	}
}
