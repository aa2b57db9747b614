// Package capture adapts cameras and video files into frame sources for the
// speed pipeline and owns the reconnect policy for live devices.
//
// Device access itself is delegated: OpenCV-backed sources are compiled
// with the "opencv" build tag; without it the openers report
// ErrOpenCVUnavailable.
package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"strings"
)

var (
	// ErrCaptureUnavailable reports that no capture device could be opened.
	ErrCaptureUnavailable = errors.New("capture source unavailable")

	// ErrTrackEnded reports that a live device stopped delivering frames.
	// Sources wrapped in a ReconnectingSource reacquire on this error.
	ErrTrackEnded = errors.New("capture track ended")

	// ErrOpenCVUnavailable is returned by the device openers in builds
	// without the opencv tag.
	ErrOpenCVUnavailable = errors.New("built without opencv support")
)

// Frame is one decoded video frame with the stream timestamp it was
// captured at: wall-clock milliseconds for cameras, playback position for
// files.
type Frame struct {
	TimestampMs float64
	Image       image.Image
}

// Source delivers frames. Read blocks until the next frame is ready and
// returns io.EOF once a file source has played to the end.
type Source interface {
	Read(ctx context.Context) (Frame, error)
	Close() error
}

// AcquireError reports a failed attempt to open a live capture device. It
// matches ErrCaptureUnavailable under errors.Is.
type AcquireError struct {
	Devices  []string
	Attempts int
	Err      error
}

func (e *AcquireError) Error() string {
	return fmt.Sprintf("acquire capture device [%s] after %d attempt(s): %v",
		strings.Join(e.Devices, ", "), e.Attempts, e.Err)
}

func (e *AcquireError) Unwrap() error { return e.Err }

// Is reports whether target is ErrCaptureUnavailable.
func (e *AcquireError) Is(target error) bool {
	return target == ErrCaptureUnavailable
}

// EncodeJPEG renders the frame image as JPEG bytes for capture snapshots.
func EncodeJPEG(f Frame, quality int) ([]byte, error) {
	if f.Image == nil {
		return nil, errors.New("frame has no image")
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, f.Image, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return buf.Bytes(), nil
}
