// Package detector talks to an out-of-process pose estimation service.
//
// The service accepts a JPEG frame in the body of a POST and answers with
// the detected landmarks:
//
//	{"points": [{"x":..,"y":..,"z":..,"visibility":..}, ...], "world": [...]}
//
// An empty or missing points list means nobody was found. A missing world
// list means the model only produced image-plane landmarks.
package detector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/banshee-data/limbspeed/internal/capture"
	"github.com/banshee-data/limbspeed/internal/pose"
	"github.com/banshee-data/limbspeed/internal/session"
)

// Doer sends HTTP requests; *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// JPEGQuality is the encoding quality of frames sent for detection.
const JPEGQuality = 80

// maxResponseBytes bounds a detection response.
const maxResponseBytes = 1 << 20

type response struct {
	Points []pose.Landmark `json:"points"`
	World  []pose.Landmark `json:"world"`
}

// HTTP is a session.Detector backed by a pose service at URL.
type HTTP struct {
	URL    string
	Client Doer
}

// Factory returns a DetectorFactory producing HTTP detectors for url. A nil
// client uses an http.Client with a five second timeout.
func Factory(url string, client Doer) session.DetectorFactory {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	return func(ctx context.Context) (session.Detector, error) {
		if url == "" {
			return nil, fmt.Errorf("detector url is empty")
		}
		return &HTTP{URL: url, Client: client}, nil
	}
}

// Detect sends f to the service and decodes the landmarks it returns.
func (d *HTTP) Detect(ctx context.Context, f capture.Frame) (pose.Frame, error) {
	img, err := capture.EncodeJPEG(f, JPEGQuality)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.URL, bytes.NewReader(img))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "image/jpeg")

	resp, err := d.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("detect: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("detect: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("detect: %s: %s", resp.Status, bytes.TrimSpace(body))
	}

	var out response
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("detect: decode response: %w", err)
	}
	return pose.NewFrame(out.Points, out.World), nil
}

// Close releases nothing; the HTTP client is shared.
func (d *HTTP) Close() error { return nil }
