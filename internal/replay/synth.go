package replay

import (
	"math"

	"github.com/banshee-data/limbspeed/internal/pose"
)

// Motion describes a synthetic kicking motion: the tracked leg swings
// back and forth along X with a sinusoidal profile.
type Motion struct {
	Side       pose.Side
	DurationMs float64
	FPS        float64
	// Amplitude is the peak foot displacement in metres.
	Amplitude float64
	// PeriodMs is the time for one full swing.
	PeriodMs float64
	// Tempo scales playback; 0.5 replays the same motion at half speed.
	Tempo float64
	// DropEvery blanks every nth frame to NoPose; zero keeps all frames.
	DropEvery int
}

// DefaultMotion is a two second swing at 30 fps.
func DefaultMotion() Motion {
	return Motion{
		Side:       pose.Right,
		DurationMs: 4000,
		FPS:        30,
		Amplitude:  0.4,
		PeriodMs:   2000,
		Tempo:      1,
	}
}

// Synthesize renders m into observations. The peak foot speed is
// 2*pi*Amplitude/PeriodMs*1000*Tempo metres per second.
func Synthesize(m Motion) []pose.Observation {
	if m.FPS <= 0 || m.DurationMs <= 0 || m.PeriodMs <= 0 {
		return nil
	}
	tempo := m.Tempo
	if tempo <= 0 {
		tempo = 1
	}
	hip, knee, ankle, foot := pose.RightHip, pose.RightKnee, pose.RightAnkle, pose.RightFootIndex
	if m.Side == pose.Left {
		hip, knee, ankle, foot = pose.LeftHip, pose.LeftKnee, pose.LeftAnkle, pose.LeftFootIndex
	}

	step := 1000 / m.FPS
	total := m.DurationMs / tempo
	frames := int(math.Floor(total/step + 1e-9))
	out := make([]pose.Observation, 0, frames+1)
	for i := 0; i <= frames; i++ {
		t := float64(i) * step
		if m.DropEvery > 0 && i%m.DropEvery == m.DropEvery-1 {
			out = append(out, pose.Observation{TimestampMs: t, Frame: pose.NoPose{}})
			continue
		}
		phase := 2 * math.Pi * t * tempo / m.PeriodMs
		x := m.Amplitude * math.Sin(phase)

		points := make([]pose.Landmark, pose.NumLandmarks)
		world := make([]pose.Landmark, pose.NumLandmarks)
		for j := range points {
			points[j] = pose.Landmark{X: 0.5, Y: 0.5, Visibility: 0.9}
			world[j] = pose.Landmark{Visibility: 0.9}
		}
		// Image plane: the shin swings about the knee.
		points[hip] = pose.Landmark{X: 0.5, Y: 0.4, Visibility: 0.99}
		points[knee] = pose.Landmark{X: 0.5, Y: 0.6, Visibility: 0.99}
		points[ankle] = pose.Landmark{X: 0.5 + x/2, Y: 0.8, Visibility: 0.99}
		points[foot] = pose.Landmark{X: 0.52 + x/2, Y: 0.82, Visibility: 0.95}

		world[hip] = pose.Landmark{X: 0, Y: 0, Z: 0, Visibility: 0.99}
		world[knee] = pose.Landmark{X: 0, Y: 0.45, Z: 0, Visibility: 0.99}
		world[ankle] = pose.Landmark{X: x * 0.9, Y: 0.85, Z: 0, Visibility: 0.99}
		world[foot] = pose.Landmark{X: x, Y: 0.9, Z: 0.05, Visibility: 0.95}

		out = append(out, pose.Observation{TimestampMs: t, Frame: pose.PoseWithWorld{Points: points, World: world}})
	}
	return out
}
