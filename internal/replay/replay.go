// Package replay reads and writes landmark recordings: one JSON object per
// line holding a timestamp and the detector output for that frame.
//
// A recording stands in for a video plus detector, which makes it the
// source for offline analysis, tests and the command-line tools.
package replay

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/banshee-data/limbspeed/internal/pose"
)

// Record is one line of a recording. An empty Points list is a frame with
// no pose; an empty World list is a 2D-only detection.
type Record struct {
	TimestampMs float64         `json:"t"`
	Points      []pose.Landmark `json:"points,omitempty"`
	World       []pose.Landmark `json:"world,omitempty"`
}

// RecordOf converts an observation into its recorded form.
func RecordOf(obs pose.Observation) Record {
	return Record{
		TimestampMs: obs.TimestampMs,
		Points:      pose.ImagePoints(obs.Frame),
		World:       pose.WorldPoints(obs.Frame),
	}
}

// Observation converts the record back into a pose observation.
func (r Record) Observation() pose.Observation {
	return pose.Observation{
		TimestampMs: r.TimestampMs,
		Frame:       pose.NewFrame(r.Points, r.World),
	}
}

// Reader yields the observations of a recording in order.
type Reader struct {
	dec    *json.Decoder
	closer io.Closer
	n      int
	lastT  float64
}

// NewReader reads a recording from r.
func NewReader(r io.Reader) *Reader {
	return &Reader{dec: json.NewDecoder(bufio.NewReader(r))}
}

// Open reads the recording stored at path.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open recording: %w", err)
	}
	rd := NewReader(f)
	rd.closer = f
	return rd, nil
}

// Next returns the next observation, or io.EOF after the last one.
// Timestamps must not go backwards.
func (r *Reader) Next(ctx context.Context) (pose.Observation, error) {
	if err := ctx.Err(); err != nil {
		return pose.Observation{}, err
	}
	var rec Record
	if err := r.dec.Decode(&rec); err != nil {
		if errors.Is(err, io.EOF) {
			return pose.Observation{}, io.EOF
		}
		return pose.Observation{}, fmt.Errorf("recording record %d: %w", r.n+1, err)
	}
	if r.n > 0 && rec.TimestampMs < r.lastT {
		return pose.Observation{}, fmt.Errorf("recording record %d: timestamp %.1f before %.1f", r.n+1, rec.TimestampMs, r.lastT)
	}
	r.n++
	r.lastT = rec.TimestampMs
	return rec.Observation(), nil
}

// Count returns the number of records read so far.
func (r *Reader) Count() int { return r.n }

// Close closes the underlying file, if the reader opened one.
func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

// ReadAll decodes every observation from r.
func ReadAll(r io.Reader) ([]pose.Observation, error) {
	rd := NewReader(r)
	var out []pose.Observation
	for {
		obs, err := rd.Next(context.Background())
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, obs)
	}
}

// Writer appends observations to a recording.
type Writer struct {
	buf    *bufio.Writer
	enc    *json.Encoder
	closer io.Closer
}

// NewWriter writes a recording to w. Call Flush or Close when done.
func NewWriter(w io.Writer) *Writer {
	buf := bufio.NewWriter(w)
	return &Writer{buf: buf, enc: json.NewEncoder(buf)}
}

// Create truncates or creates the recording at path.
func Create(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create recording: %w", err)
	}
	w := NewWriter(f)
	w.closer = f
	return w, nil
}

// Write appends one observation.
func (w *Writer) Write(obs pose.Observation) error {
	return w.enc.Encode(RecordOf(obs))
}

// Flush writes buffered records.
func (w *Writer) Flush() error {
	return w.buf.Flush()
}

// Close flushes and closes the underlying file, if the writer created one.
func (w *Writer) Close() error {
	err := w.Flush()
	if w.closer != nil {
		err = errors.Join(err, w.closer.Close())
	}
	return err
}
