package capture

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/banshee-data/limbspeed/internal/timeutil"
)

// ReconnectPolicy bounds how hard a live source tries to (re)open its
// device. Attempt n (1-based, after the first) waits Backoff*n.
type ReconnectPolicy struct {
	MaxAttempts int
	Backoff     time.Duration
}

// DefaultReconnectPolicy retries once after half a second.
func DefaultReconnectPolicy() ReconnectPolicy {
	return ReconnectPolicy{MaxAttempts: 1, Backoff: 500 * time.Millisecond}
}

// OpenFunc opens a named device.
type OpenFunc func(ctx context.Context, device string) (Source, error)

// Acquirer opens live capture devices. Devices lists the preferred device
// first followed by alternates; each round tries them all in order before
// backing off.
type Acquirer struct {
	Open    OpenFunc
	Devices []string
	Policy  ReconnectPolicy
	Clock   timeutil.Clock
}

// Acquire opens the first device that responds. Failure after the policy's
// retries yields an *AcquireError.
func (a *Acquirer) Acquire(ctx context.Context) (Source, error) {
	clock := a.Clock
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	if len(a.Devices) == 0 {
		return nil, &AcquireError{Err: errors.New("no capture devices configured")}
	}

	var lastErr error
	rounds := a.Policy.MaxAttempts + 1
	for round := 0; round < rounds; round++ {
		if round > 0 {
			wait := a.Policy.Backoff * time.Duration(round)
			diagf("retrying capture devices in %v (attempt %d/%d)", wait, round+1, rounds)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-clock.After(wait):
			}
		}
		for _, dev := range a.Devices {
			src, err := a.Open(ctx, dev)
			if err == nil {
				diagf("opened capture device %s", dev)
				return src, nil
			}
			opsf("open capture device %s: %v", dev, err)
			lastErr = err
		}
	}

	return nil, &AcquireError{
		Devices:  append([]string(nil), a.Devices...),
		Attempts: rounds,
		Err:      lastErr,
	}
}

// ReconnectingSource wraps a live device and reacquires it through its
// Acquirer when the device reports ErrTrackEnded.
type ReconnectingSource struct {
	acq *Acquirer

	mu  sync.Mutex
	src Source
}

// OpenReconnecting acquires a device and wraps it.
func OpenReconnecting(ctx context.Context, acq *Acquirer) (*ReconnectingSource, error) {
	src, err := acq.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return &ReconnectingSource{acq: acq, src: src}, nil
}

// Read returns the next frame, reacquiring the device once per ended track.
func (r *ReconnectingSource) Read(ctx context.Context) (Frame, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.src == nil {
		return Frame{}, ErrCaptureUnavailable
	}
	f, err := r.src.Read(ctx)
	if !errors.Is(err, ErrTrackEnded) {
		return f, err
	}

	opsf("capture track ended, reacquiring")
	_ = r.src.Close()
	r.src = nil
	src, err := r.acq.Acquire(ctx)
	if err != nil {
		return Frame{}, err
	}
	r.src = src
	return r.src.Read(ctx)
}

// Close releases the underlying device.
func (r *ReconnectingSource) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.src == nil {
		return nil
	}
	err := r.src.Close()
	r.src = nil
	return err
}
