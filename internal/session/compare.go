package session

import (
	"context"
	"fmt"

	"github.com/banshee-data/limbspeed/internal/series"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// CompareOptions configure a two-recording comparison. Both streams read
// the same controls but keep separate state.
type CompareOptions struct {
	Controls ControlReader
	Stream   StreamOptions
	// Points is the resampled length; zero selects series.DefaultPoints.
	Points int
}

// ComparisonResult scores how closely the user recording follows the
// reference once both are stretched onto the same number of points.
type ComparisonResult struct {
	ID               string           `json:"id"`
	SpeedCorrelation float64          `json:"speed_correlation"`
	KneeCorrelation  float64          `json:"knee_correlation"`
	Reference        FileResult       `json:"-"`
	User             FileResult       `json:"-"`
	ReferenceMax     float64          `json:"reference_max"`
	UserMax          float64          `json:"user_max"`
	ReferenceSpeed   series.Resampled `json:"reference_speed"`
	UserSpeed        series.Resampled `json:"user_speed"`
	ReferenceKnee    series.Resampled `json:"reference_knee"`
	UserKnee         series.Resampled `json:"user_knee"`
}

// Compare runs the reference and user sources to completion concurrently,
// then resamples and correlates their smoothed speed and knee angle series.
// The caller closes both sources.
func Compare(ctx context.Context, ref, user PoseSource, opts CompareOptions) (ComparisonResult, error) {
	id := uuid.NewString()
	var refResult, userResult FileResult

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		refResult, err = RunFile(gctx, ref, FileOptions{ID: id + "/reference", Controls: opts.Controls, Stream: opts.Stream})
		if err != nil {
			return fmt.Errorf("reference: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		userResult, err = RunFile(gctx, user, FileOptions{ID: id + "/user", Controls: opts.Controls, Stream: opts.Stream})
		if err != nil {
			return fmt.Errorf("user: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return ComparisonResult{}, err
	}

	res := Score(refResult, userResult, opts.Points)
	res.ID = id
	diagf("comparison %s: speed r=%.3f knee r=%.3f (%d/%d samples)",
		id, res.SpeedCorrelation, res.KneeCorrelation, refResult.Samples, userResult.Samples)
	return res, nil
}

// Score resamples two finished runs to n points and correlates them.
func Score(ref, user FileResult, n int) ComparisonResult {
	res := ComparisonResult{
		Reference:      ref,
		User:           user,
		ReferenceMax:   ref.Max.MaxValue,
		UserMax:        user.Max.MaxValue,
		ReferenceSpeed: series.Resample(ref.Speed, n),
		UserSpeed:      series.Resample(user.Speed, n),
		ReferenceKnee:  series.Resample(ref.Knee, n),
		UserKnee:       series.Resample(user.Knee, n),
	}
	res.SpeedCorrelation = series.Pearson(res.ReferenceSpeed.V, res.UserSpeed.V)
	res.KneeCorrelation = series.Pearson(res.ReferenceKnee.V, res.UserKnee.V)
	return res
}
