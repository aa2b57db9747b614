package session

import (
	"context"
	"errors"
	"image"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/banshee-data/limbspeed/internal/capture"
	"github.com/banshee-data/limbspeed/internal/pose"
	"github.com/banshee-data/limbspeed/internal/timeutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoopRunsToEOF(t *testing.T) {
	src := newSliceSource(obsAt(0, 0), obsAt(500, 1), obsAt(1000, 1.5))
	stream := NewStream("eof", nil, DefaultStreamOptions())

	var updates []Update
	var events []CaptureEvent
	loop := &Loop{
		Source:      src,
		Stream:      stream,
		OnUpdate:    func(u Update) { updates = append(updates, u) },
		Captures:    func(ev CaptureEvent) { events = append(events, ev) },
		Snapshotter: snapshotFunc(func() ([]byte, error) { return []byte("jpeg"), nil }),
	}

	require.NoError(t, loop.Run(context.Background()))
	assert.Len(t, updates, 3)
	assert.Equal(t, Idle, stream.State())
	require.Len(t, events, 1)
	assert.Equal(t, "eof", events[0].StreamID)
	assert.Equal(t, 2.0, events[0].Value)
	assert.Equal(t, 500.0, events[0].TimestampMs)
	assert.Equal(t, "right foot", events[0].Target)
	assert.Equal(t, []byte("jpeg"), events[0].Image)
}

type snapshotFunc func() ([]byte, error)

func (f snapshotFunc) Snapshot() ([]byte, error) { return f() }

func TestLoopSnapshotFailureStillEmitsCapture(t *testing.T) {
	src := newSliceSource(obsAt(0, 0), obsAt(500, 1))
	var events []CaptureEvent
	loop := &Loop{
		Source:      src,
		Stream:      NewStream("snap", nil, DefaultStreamOptions()),
		Captures:    func(ev CaptureEvent) { events = append(events, ev) },
		Snapshotter: snapshotFunc(func() ([]byte, error) { return nil, errors.New("no frame") }),
	}
	require.NoError(t, loop.Run(context.Background()))
	require.Len(t, events, 1)
	assert.Nil(t, events[0].Image)
}

func TestLoopSourceError(t *testing.T) {
	src := newSliceSource(obsAt(0, 0))
	src.err = errors.New("decoder crashed")

	err := (&Loop{Source: src, Stream: NewStream("bad", nil, DefaultStreamOptions())}).Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, src.err)
	assert.Contains(t, err.Error(), "stream bad")
}

func TestLoopCancelledBetweenSteps(t *testing.T) {
	src := newChanSource()
	stream := NewStream("cancel", nil, DefaultStreamOptions())
	ctx, cancel := context.WithCancel(context.Background())

	stepped := make(chan Update)
	done := make(chan error, 1)
	go func() {
		done <- (&Loop{Source: src, Stream: stream, OnUpdate: func(u Update) { stepped <- u }}).Run(ctx)
	}()

	src.ch <- obsAt(0, 0)
	<-stepped
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not stop")
	}
	assert.Equal(t, 1, stream.Frames())
}

func TestLoopPacedByTicker(t *testing.T) {
	src := newSliceSource(obsAt(0, 0), obsAt(500, 1), obsAt(1000, 2))
	loop := &Loop{
		Source:   src,
		Stream:   NewStream("paced", nil, DefaultStreamOptions()),
		Interval: time.Millisecond,
		Clock:    timeutil.RealClock{},
	}
	require.NoError(t, loop.Run(context.Background()))
	assert.Equal(t, 3, loop.Stream.Frames())
}

func TestLoopRequiresSourceAndStream(t *testing.T) {
	assert.Error(t, (&Loop{}).Run(context.Background()))
}

func TestRunFile(t *testing.T) {
	src := newSliceSource(
		obsAt(0, 0),
		obsAt(1000, 1),
		pose.Observation{TimestampMs: 1500, Frame: pose.NoPose{}},
		obsAt(2000, 4),
		obsAt(3000, 4.5),
	)
	res, err := RunFile(context.Background(), src, FileOptions{
		Controls: Fixed(Controls{Target: pose.DefaultTarget, Alpha: 1}),
		Stream:   DefaultStreamOptions(),
	})
	require.NoError(t, err)

	assert.NotEmpty(t, res.StreamID)
	assert.Equal(t, 5, res.Frames)
	assert.Equal(t, 3, res.Samples)
	assert.Equal(t, []float64{1000, 2000, 3000}, res.Speed.T)
	assert.InDeltaSlice(t, []float64{1, 3, 0.5}, res.Speed.V, 1e-12)
	assert.Equal(t, 4, res.Knee.Len())
	assert.InDelta(t, 3.0, res.Max.MaxValue, 1e-12)
	assert.Equal(t, 2000.0, res.MaxAtMs)
	assert.False(t, src.isClosed(), "caller owns the source")
}

// motion returns observations whose per-interval speeds are speeds when
// played with stepMs between frames.
func motion(stepMs float64, speeds []float64, ankleY func(i int) float64) []pose.Observation {
	out := []pose.Observation{{TimestampMs: 0, Frame: legFrame(0, 0, 0, ankleY(0))}}
	x := 0.0
	for i, v := range speeds {
		x += v
		t := float64(i+1) * stepMs
		out = append(out, pose.Observation{TimestampMs: t, Frame: legFrame(x, 0, 0, ankleY(i+1))})
	}
	return out
}

func TestCompareHalfSpeedPlaybackCorrelates(t *testing.T) {
	speeds := []float64{1, 2, 3, 4, 5, 4, 3}
	flat := func(int) float64 { return 1 }
	bending := func(i int) float64 { return 1 + 0.1*float64(i) }

	ref := newSliceSource(motion(1000, speeds, flat)...)
	user := newSliceSource(motion(2000, speeds, bending)...)

	res, err := Compare(context.Background(), ref, user, CompareOptions{
		Controls: Fixed(DefaultControls()),
		Stream:   DefaultStreamOptions(),
		Points:   50,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, res.ID)
	assert.InDelta(t, 1.0, res.SpeedCorrelation, 1e-9)
	assert.Zero(t, res.KneeCorrelation, "flat reference knee angle is degenerate")
	assert.Equal(t, 50, res.ReferenceSpeed.Len())
	assert.Equal(t, 50, res.UserSpeed.Len())
	assert.Equal(t, 50, res.UserKnee.Len())
	assert.InDelta(t, 2*res.UserMax, res.ReferenceMax, 1e-9)
}

func TestCompareShortRecordingScoresZero(t *testing.T) {
	ref := newSliceSource(obsAt(0, 0), obsAt(1000, 1))
	user := newSliceSource(obsAt(0, 0), obsAt(1000, 2))

	res, err := Compare(context.Background(), ref, user, CompareOptions{})
	require.NoError(t, err)
	assert.Equal(t, 200, res.ReferenceSpeed.Len())
	assert.Zero(t, res.SpeedCorrelation)
}

func TestCompareFailsWhenEitherSourceFails(t *testing.T) {
	ref := newSliceSource(obsAt(0, 0))
	user := newChanSource()
	ref.err = errors.New("corrupt recording")

	_, err := Compare(context.Background(), ref, user, CompareOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ref.err)
	assert.Contains(t, err.Error(), "reference")
}

func TestControlStore(t *testing.T) {
	store := NewControlStore(DefaultControls())

	var seen []Controls
	var mu sync.Mutex
	store.OnChange(func(c Controls) {
		mu.Lock()
		seen = append(seen, c)
		mu.Unlock()
	})

	err := store.Set(Controls{Target: pose.Target{Side: "middle", Part: pose.Foot}, Alpha: 0.5})
	assert.Error(t, err)
	_, err = store.Update(func(c *Controls) { c.Alpha = 1.5 })
	assert.Error(t, err)
	assert.Equal(t, DefaultControls(), store.Current())

	next, err := store.Update(func(c *Controls) { c.Target.Part = pose.Hand })
	require.NoError(t, err)
	assert.Equal(t, pose.Hand, next.Target.Part)
	assert.Equal(t, next, store.Current())
	assert.Equal(t, []Controls{next}, seen)
}

func TestLiveSessionLifecycle(t *testing.T) {
	src := newChanSource()
	src.image = []byte{0xFF, 0xD8}

	var mu sync.Mutex
	var events []CaptureEvent
	live := NewLiveSession(LiveConfig{
		Open:   func(ctx context.Context) (PoseSource, error) { return src, nil },
		Stream: DefaultStreamOptions(),
		Captures: func(ev CaptureEvent) {
			mu.Lock()
			events = append(events, ev)
			mu.Unlock()
		},
	})
	assert.Equal(t, Idle, live.Snapshot().State)
	assert.ErrorIs(t, live.Stop(), ErrSessionIdle)
	assert.ErrorIs(t, live.ResetMax(), ErrSessionIdle)

	id, err := live.Start(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	_, err = live.Start(context.Background())
	assert.ErrorIs(t, err, ErrSessionActive)

	src.ch <- obsAt(0, 0)
	src.ch <- obsAt(500, 1)
	require.Eventually(t, func() bool { return live.Snapshot().Frames == 2 }, 2*time.Second, time.Millisecond)

	snap := live.Snapshot()
	assert.Equal(t, id, snap.ID)
	assert.Equal(t, Active, snap.State)
	assert.True(t, snap.HasSpeed)
	assert.InDelta(t, 2.0, snap.Speed, 1e-12)
	assert.InDelta(t, 2.0, snap.Max.MaxValue, 1e-12)
	assert.Equal(t, 1, snap.Captures)

	require.NoError(t, live.ResetMax())
	assert.Zero(t, live.Snapshot().Max.MaxValue)

	require.NoError(t, live.Stop())
	assert.Equal(t, Idle, live.Snapshot().State)
	assert.Empty(t, live.Snapshot().LastError)
	assert.True(t, src.isClosed())
	assert.Nil(t, live.Done())

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, events, 1)
	assert.Equal(t, []byte{0xFF, 0xD8}, events[0].Image)
}

func TestLiveSessionResetIgnoresStepInFlight(t *testing.T) {
	src := newChanSource()
	live := NewLiveSession(LiveConfig{
		Open:   func(ctx context.Context) (PoseSource, error) { return src, nil },
		Stream: DefaultStreamOptions(),
	})
	_, err := live.Start(context.Background())
	require.NoError(t, err)
	defer live.Stop()

	src.ch <- obsAt(0, 0)
	src.ch <- obsAt(500, 1)
	require.Eventually(t, func() bool { return live.Snapshot().Frames == 2 }, 2*time.Second, time.Millisecond)
	stale := live.Snapshot().Max
	require.InDelta(t, 2.0, stale.MaxValue, 1e-12)

	require.NoError(t, live.ResetMax())
	// An update computed before the stream saw the reset must not restore
	// the old max.
	live.record(Update{Sampled: true, Speed: 2, Max: stale})
	assert.Zero(t, live.Snapshot().Max.MaxValue)

	src.ch <- obsAt(1000, 1)
	require.Eventually(t, func() bool { return live.Snapshot().Frames == 4 }, 2*time.Second, time.Millisecond)
	got := live.Snapshot().Max.MaxValue
	assert.Greater(t, got, 0.0)
	assert.Less(t, got, 2.0)
}

func TestLiveSessionSourceEnds(t *testing.T) {
	src := newChanSource()
	live := NewLiveSession(LiveConfig{
		Open: func(ctx context.Context) (PoseSource, error) { return src, nil },
	})
	_, err := live.Start(context.Background())
	require.NoError(t, err)

	done := live.Done()
	close(src.ch)
	<-done
	assert.Equal(t, Idle, live.Snapshot().State)

	// A finished session can be restarted with a fresh source.
	src = newChanSource()
	_, err = live.Start(context.Background())
	require.NoError(t, err)
	require.NoError(t, live.Stop())
}

func TestLiveSessionPropagatesAcquireError(t *testing.T) {
	cause := errors.New("permission denied")
	live := NewLiveSession(LiveConfig{
		Open: func(ctx context.Context) (PoseSource, error) {
			return nil, &capture.AcquireError{Devices: []string{"0"}, Attempts: 2, Err: cause}
		},
	})

	_, err := live.Start(context.Background())
	var acqErr *capture.AcquireError
	require.ErrorAs(t, err, &acqErr)
	assert.ErrorIs(t, err, capture.ErrCaptureUnavailable)
	assert.Equal(t, Idle, live.Snapshot().State)
}

// fakeFrames yields one frame per timestamp, then io.EOF.
type fakeFrames struct {
	ts     []float64
	closed bool
}

func (f *fakeFrames) Read(ctx context.Context) (capture.Frame, error) {
	if len(f.ts) == 0 {
		return capture.Frame{}, io.EOF
	}
	t := f.ts[0]
	f.ts = f.ts[1:]
	return capture.Frame{TimestampMs: t, Image: image.NewGray(image.Rect(0, 0, 2, 2))}, nil
}

func (f *fakeFrames) Close() error {
	f.closed = true
	return nil
}

type fakeDetector struct {
	calls  int
	closed bool
}

func (d *fakeDetector) Detect(ctx context.Context, f capture.Frame) (pose.Frame, error) {
	d.calls++
	if d.calls == 2 {
		return nil, nil
	}
	return worldFrame(f.TimestampMs/1000, 0, 0), nil
}

func (d *fakeDetector) Close() error {
	d.closed = true
	return nil
}

func TestDetectingSource(t *testing.T) {
	frames := &fakeFrames{ts: []float64{0, 500, 1000}}
	det := &fakeDetector{}
	factoryCalls := 0
	src, err := NewDetectingSource(context.Background(), frames, func(ctx context.Context) (Detector, error) {
		factoryCalls++
		return det, nil
	})
	require.NoError(t, err)

	_, err = src.Snapshot()
	assert.Error(t, err, "no frame read yet")

	res, err := RunFile(context.Background(), src, FileOptions{Controls: Fixed(Controls{Target: pose.DefaultTarget, Alpha: 1})})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Frames)
	assert.Equal(t, 1, res.Samples, "the middle frame has no pose")
	assert.Equal(t, 1, factoryCalls)
	assert.Equal(t, 3, det.calls)

	img, err := src.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, []byte{0xFF, 0xD8}, img[:2])

	require.NoError(t, src.Close())
	assert.True(t, det.closed)
	assert.True(t, frames.closed)
}

func TestDetectingSourceFactoryError(t *testing.T) {
	_, err := NewDetectingSource(context.Background(), &fakeFrames{}, func(ctx context.Context) (Detector, error) {
		return nil, errors.New("model missing")
	})
	assert.ErrorContains(t, err, "model missing")

	_, err = NewDetectingSource(context.Background(), &fakeFrames{}, nil)
	assert.Error(t, err)
}
