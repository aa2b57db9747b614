package pose

import (
	"math"
	"testing"

	"github.com/banshee-data/limbspeed/internal/kinematics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// body returns a full landmark list where landmark i sits at (i, i*10, i*100).
func body() []Landmark {
	lms := make([]Landmark, NumLandmarks)
	for i := range lms {
		f := float64(i)
		lms[i] = Landmark{X: f, Y: f * 10, Z: f * 100, Visibility: 0.9}
	}
	return lms
}

func TestIndices(t *testing.T) {
	t.Parallel()

	tests := []struct {
		target            Target
		primary, fallback int
	}{
		{Target{Left, Foot}, 31, 27},
		{Target{Right, Foot}, 32, 28},
		{Target{Left, Hand}, 19, 15},
		{Target{Right, Hand}, 20, 16},
	}
	for _, tt := range tests {
		p, f, ok := Indices(tt.target)
		require.True(t, ok, tt.target.String())
		assert.Equal(t, tt.primary, p, tt.target.String())
		assert.Equal(t, tt.fallback, f, tt.target.String())
	}

	_, _, ok := Indices(Target{Side: "up", Part: Foot})
	assert.False(t, ok)
}

func TestSelectTrackedPoint(t *testing.T) {
	t.Parallel()

	t.Run("no pose", func(t *testing.T) {
		_, ok := SelectTrackedPoint(NoPose{}, DefaultTarget)
		assert.False(t, ok)
	})

	t.Run("2D only has no world point", func(t *testing.T) {
		_, ok := SelectTrackedPoint(Pose2D{Points: body()}, DefaultTarget)
		assert.False(t, ok)
	})

	t.Run("primary landmark", func(t *testing.T) {
		f := PoseWithWorld{Points: body(), World: body()}
		p, ok := SelectTrackedPoint(f, Target{Left, Hand})
		require.True(t, ok)
		assert.Equal(t, kinematics.Point3D{X: 19, Y: 190, Z: 1900}, p)
	})

	t.Run("fallback when primary missing", func(t *testing.T) {
		world := body()[:RightFootIndex] // drops index 32
		f := PoseWithWorld{Points: body(), World: world}
		p, ok := SelectTrackedPoint(f, Target{Right, Foot})
		require.True(t, ok)
		assert.Equal(t, float64(RightAnkle), p.X)
	})

	t.Run("fallback when primary not finite", func(t *testing.T) {
		world := body()
		world[LeftIndex].X = math.NaN()
		p, ok := SelectTrackedPoint(PoseWithWorld{Points: body(), World: world}, Target{Left, Hand})
		require.True(t, ok)
		assert.Equal(t, float64(LeftWrist), p.X)
	})

	t.Run("neither landmark present", func(t *testing.T) {
		world := body()[:10]
		_, ok := SelectTrackedPoint(PoseWithWorld{Points: body(), World: world}, DefaultTarget)
		assert.False(t, ok)
	})
}

func TestSelectorVisibilityFloor(t *testing.T) {
	t.Parallel()

	world := body()
	world[RightFootIndex].Visibility = 0.2
	f := PoseWithWorld{Points: body(), World: world}

	p, ok := Selector{}.SelectTrackedPoint(f, DefaultTarget)
	require.True(t, ok)
	assert.Equal(t, float64(RightFootIndex), p.X)

	p, ok = Selector{MinVisibility: 0.5}.SelectTrackedPoint(f, DefaultTarget)
	require.True(t, ok)
	assert.Equal(t, float64(RightAnkle), p.X)
}

func TestSelectImagePoint(t *testing.T) {
	t.Parallel()

	p, ok := Selector{}.SelectImagePoint(Pose2D{Points: body()}, Target{Left, Foot})
	require.True(t, ok)
	assert.Equal(t, float64(LeftFootIndex), p.X)
}

func TestKneeAngle(t *testing.T) {
	t.Parallel()

	pts := body()
	pts[RightHip] = Landmark{X: 0.5, Y: 0.2}
	pts[RightKnee] = Landmark{X: 0.5, Y: 0.5}
	pts[RightAnkle] = Landmark{X: 0.8, Y: 0.5}

	deg, ok := Selector{}.KneeAngle(Pose2D{Points: pts}, Right)
	require.True(t, ok)
	assert.InDelta(t, 90.0, deg, 1e-9)

	_, ok = Selector{}.KneeAngle(NoPose{}, Right)
	assert.False(t, ok)
}

func TestNewFrame(t *testing.T) {
	t.Parallel()

	assert.IsType(t, NoPose{}, NewFrame(nil, body()))
	assert.IsType(t, Pose2D{}, NewFrame(body(), nil))
	assert.IsType(t, PoseWithWorld{}, NewFrame(body(), body()))
}

func TestParseTarget(t *testing.T) {
	t.Parallel()

	s, err := ParseSide(" Left ")
	require.NoError(t, err)
	assert.Equal(t, Left, s)

	_, err = ParseSide("middle")
	assert.Error(t, err)

	p, err := ParsePart("HAND")
	require.NoError(t, err)
	assert.Equal(t, Hand, p)

	assert.NoError(t, DefaultTarget.Validate())
	assert.Error(t, Target{Side: Left, Part: "knee"}.Validate())
}
