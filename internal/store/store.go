// Package store keeps the records of one server run in an in-memory SQLite
// database: finished sessions, their capture snapshots, and comparison
// results. Nothing outlives the process.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/banshee-data/limbspeed/internal/monitoring"
	"github.com/banshee-data/limbspeed/internal/session"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// MemoryDSN is the connection string for a private in-memory database.
const MemoryDSN = ":memory:"

// Store wraps the database handle.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open creates the database at dsn and applies the schema. An empty dsn
// opens a private in-memory database.
func Open(dsn string) (*Store, error) {
	if dsn == "" {
		dsn = MemoryDSN
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// Every connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, now: time.Now}
	if err := s.migrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// DB exposes the handle for the admin SQL console.
func (s *Store) DB() *sql.DB { return s.db }

// Close closes the database; in-memory contents are discarded.
func (s *Store) Close() error { return s.db.Close() }

// Mode names the pipeline mode a session ran in.
type Mode string

const (
	ModeLive Mode = "live"
	ModeFile Mode = "file"
)

// Session is the stored summary of one stream run.
type Session struct {
	ID        string     `json:"id"`
	Mode      Mode       `json:"mode"`
	Target    string     `json:"target"`
	Source    string     `json:"source,omitempty"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
	MaxSpeed  float64    `json:"max_speed"`
	MaxAtMs   float64    `json:"max_at_ms"`
	Frames    int        `json:"frames"`
	Samples   int        `json:"samples"`
}

// SaveSession inserts or replaces a session summary.
func (s *Store) SaveSession(ctx context.Context, sess Session) error {
	if sess.ID == "" {
		return errors.New("session id is required")
	}
	if sess.StartedAt.IsZero() {
		sess.StartedAt = s.now()
	}
	var ended any
	if sess.EndedAt != nil {
		ended = *sess.EndedAt
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (
			session_id, mode, target, source, started_at, ended_at,
			max_speed, max_at_ms, frames, samples
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			target = excluded.target,
			ended_at = excluded.ended_at,
			max_speed = excluded.max_speed,
			max_at_ms = excluded.max_at_ms,
			frames = excluded.frames,
			samples = excluded.samples`,
		sess.ID, string(sess.Mode), sess.Target, sess.Source, sess.StartedAt, ended,
		sess.MaxSpeed, sess.MaxAtMs, sess.Frames, sess.Samples,
	)
	if err != nil {
		return fmt.Errorf("save session %s: %w", sess.ID, err)
	}
	return nil
}

// GetSession returns one session.
func (s *Store) GetSession(ctx context.Context, id string) (Session, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT session_id, mode, target, source, started_at, ended_at,
		       max_speed, max_at_ms, frames, samples
		FROM sessions WHERE session_id = ?`, id)
	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, ErrNotFound
	}
	return sess, err
}

// ListSessions returns sessions newest first.
func (s *Store) ListSessions(ctx context.Context, limit int) ([]Session, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT session_id, mode, target, source, started_at, ended_at,
		       max_speed, max_at_ms, frames, samples
		FROM sessions ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Session{}
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sess)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (Session, error) {
	var sess Session
	var mode string
	var ended sql.NullTime
	err := row.Scan(&sess.ID, &mode, &sess.Target, &sess.Source, &sess.StartedAt, &ended,
		&sess.MaxSpeed, &sess.MaxAtMs, &sess.Frames, &sess.Samples)
	if err != nil {
		return Session{}, err
	}
	sess.Mode = Mode(mode)
	if ended.Valid {
		t := ended.Time
		sess.EndedAt = &t
	}
	return sess, nil
}

// Capture is a stored capture event.
type Capture struct {
	ID          string    `json:"id"`
	SessionID   string    `json:"session_id"`
	Value       float64   `json:"value"`
	TimestampMs float64   `json:"t"`
	Target      string    `json:"target"`
	HasImage    bool      `json:"has_image"`
	CreatedAt   time.Time `json:"created_at"`
}

// AddCapture stores a capture event and its snapshot.
func (s *Store) AddCapture(ctx context.Context, ev session.CaptureEvent) (Capture, error) {
	c := Capture{
		ID:          uuid.NewString(),
		SessionID:   ev.StreamID,
		Value:       ev.Value,
		TimestampMs: ev.TimestampMs,
		Target:      ev.Target,
		HasImage:    len(ev.Image) > 0,
		CreatedAt:   s.now(),
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO captures (capture_id, session_id, value, t_ms, target, image, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.SessionID, c.Value, c.TimestampMs, c.Target, ev.Image, c.CreatedAt)
	if err != nil {
		return Capture{}, fmt.Errorf("add capture: %w", err)
	}
	monitoring.Logf("stored capture %s for session %s: %.2f", c.ID, c.SessionID, c.Value)
	return c, nil
}

// ListCaptures returns captures in stream order. An empty sessionID lists
// every session's captures.
func (s *Store) ListCaptures(ctx context.Context, sessionID string) ([]Capture, error) {
	query := `SELECT capture_id, session_id, value, t_ms, target, image IS NOT NULL AND length(image) > 0, created_at
		FROM captures`
	var args []any
	if sessionID != "" {
		query += ` WHERE session_id = ?`
		args = append(args, sessionID)
	}
	query += ` ORDER BY created_at, t_ms`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Capture{}
	for rows.Next() {
		var c Capture
		if err := rows.Scan(&c.ID, &c.SessionID, &c.Value, &c.TimestampMs, &c.Target, &c.HasImage, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// CaptureImage returns the snapshot bytes of a capture.
func (s *Store) CaptureImage(ctx context.Context, id string) ([]byte, error) {
	var img []byte
	err := s.db.QueryRowContext(ctx, `SELECT image FROM captures WHERE capture_id = ?`, id).Scan(&img)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if len(img) == 0 {
		return nil, ErrNotFound
	}
	return img, nil
}

// Comparison is a stored comparison with the names of its inputs.
type Comparison struct {
	session.ComparisonResult
	ReferenceSource string    `json:"reference_source"`
	UserSource      string    `json:"user_source"`
	CreatedAt       time.Time `json:"created_at"`
}

// SaveComparison stores a comparison result under its ID.
func (s *Store) SaveComparison(ctx context.Context, c Comparison) error {
	if c.ID == "" {
		return errors.New("comparison id is required")
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = s.now()
	}
	body, err := json.Marshal(c.ComparisonResult)
	if err != nil {
		return fmt.Errorf("encode comparison: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO comparisons (
			comparison_id, reference_source, user_source, speed_correlation,
			knee_correlation, reference_max, user_max, result_json, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.ReferenceSource, c.UserSource, c.SpeedCorrelation,
		c.KneeCorrelation, c.ReferenceMax, c.UserMax, string(body), c.CreatedAt)
	if err != nil {
		return fmt.Errorf("save comparison %s: %w", c.ID, err)
	}
	return nil
}

// GetComparison loads a stored comparison.
func (s *Store) GetComparison(ctx context.Context, id string) (Comparison, error) {
	var c Comparison
	var body string
	err := s.db.QueryRowContext(ctx, `
		SELECT reference_source, user_source, result_json, created_at
		FROM comparisons WHERE comparison_id = ?`, id).
		Scan(&c.ReferenceSource, &c.UserSource, &body, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Comparison{}, ErrNotFound
	}
	if err != nil {
		return Comparison{}, err
	}
	if err := json.Unmarshal([]byte(body), &c.ComparisonResult); err != nil {
		return Comparison{}, fmt.Errorf("decode comparison %s: %w", id, err)
	}
	return c, nil
}
