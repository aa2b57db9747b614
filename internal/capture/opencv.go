//go:build opencv
// +build opencv

package capture

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/banshee-data/limbspeed/internal/timeutil"
	"gocv.io/x/gocv"
)

// videoSource reads frames from an OpenCV VideoCapture.
type videoSource struct {
	mu    sync.Mutex
	name  string
	vc    *gocv.VideoCapture
	mat   gocv.Mat
	live  bool
	clock timeutil.Clock
}

// OpenCamera opens a camera by index ("0") or device path. Frames are
// stamped with clock time.
func OpenCamera(ctx context.Context, device string, clock timeutil.Clock) (Source, error) {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	vc, err := gocv.OpenVideoCapture(device)
	if err != nil {
		return nil, fmt.Errorf("open camera %s: %w", device, err)
	}
	if !vc.IsOpened() {
		_ = vc.Close()
		return nil, fmt.Errorf("open camera %s: device not opened", device)
	}
	return &videoSource{name: device, vc: vc, mat: gocv.NewMat(), live: true, clock: clock}, nil
}

// CameraOpener adapts OpenCamera to an Acquirer.
func CameraOpener(clock timeutil.Clock) OpenFunc {
	return func(ctx context.Context, device string) (Source, error) {
		return OpenCamera(ctx, device, clock)
	}
}

// OpenFile opens a video file. Frames are stamped with their playback
// position and Read returns io.EOF at the end of the file.
func OpenFile(path string) (Source, error) {
	vc, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return nil, fmt.Errorf("open video file %s: %w", path, err)
	}
	return &videoSource{name: path, vc: vc, mat: gocv.NewMat()}, nil
}

func (s *videoSource) Read(ctx context.Context) (Frame, error) {
	if err := ctx.Err(); err != nil {
		return Frame{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if ok := s.vc.Read(&s.mat); !ok || s.mat.Empty() {
		if s.live {
			return Frame{}, ErrTrackEnded
		}
		return Frame{}, io.EOF
	}

	ts := s.vc.Get(gocv.VideoCapturePosMsec)
	if s.live {
		ts = timeutil.Millis(s.clock.Now())
	}

	img, err := s.mat.ToImage()
	if err != nil {
		return Frame{}, fmt.Errorf("convert frame from %s: %w", s.name, err)
	}
	tracef("%s frame at %.1fms", s.name, ts)
	return Frame{TimestampMs: ts, Image: img}, nil
}

func (s *videoSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.mat.Close()
	return s.vc.Close()
}
