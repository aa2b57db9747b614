//go:build !opencv
// +build !opencv

package capture

import (
	"context"
	"fmt"

	"github.com/banshee-data/limbspeed/internal/timeutil"
)

// OpenCamera is unavailable without the opencv build tag.
func OpenCamera(ctx context.Context, device string, clock timeutil.Clock) (Source, error) {
	return nil, fmt.Errorf("open camera %s: %w", device, ErrOpenCVUnavailable)
}

// CameraOpener adapts OpenCamera to an Acquirer.
func CameraOpener(clock timeutil.Clock) OpenFunc {
	return func(ctx context.Context, device string) (Source, error) {
		return OpenCamera(ctx, device, clock)
	}
}

// OpenFile is unavailable without the opencv build tag.
func OpenFile(path string) (Source, error) {
	return nil, fmt.Errorf("open video file %s: %w", path, ErrOpenCVUnavailable)
}
