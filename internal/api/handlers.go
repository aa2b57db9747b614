package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/banshee-data/limbspeed/internal/capture"
	"github.com/banshee-data/limbspeed/internal/httputil"
	"github.com/banshee-data/limbspeed/internal/kinematics"
	"github.com/banshee-data/limbspeed/internal/pose"
	"github.com/banshee-data/limbspeed/internal/replay"
	"github.com/banshee-data/limbspeed/internal/report"
	"github.com/banshee-data/limbspeed/internal/security"
	"github.com/banshee-data/limbspeed/internal/series"
	"github.com/banshee-data/limbspeed/internal/session"
	"github.com/banshee-data/limbspeed/internal/store"
	"github.com/banshee-data/limbspeed/internal/units"
)

func (s *Server) showConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	t := s.cfg.GetTarget()
	httputil.WriteJSONOK(w, map[string]interface{}{
		"smoothing_alpha":    s.cfg.GetSmoothingAlpha(),
		"capture_throttle":   s.cfg.GetCaptureThrottle().String(),
		"display_precision":  s.cfg.GetDisplayPrecision(),
		"capture_on_new_max": s.cfg.GetCaptureOnNewMax(),
		"min_visibility":     s.cfg.GetMinVisibility(),
		"side":               t.Side,
		"part":               t.Part,
		"resample_points":    s.cfg.GetResamplePoints(),
		"units":              s.units,
		"frame_interval":     s.cfg.GetFrameInterval().String(),
		"reconnect_attempts": s.cfg.GetReconnectAttempts(),
		"reconnect_backoff":  s.cfg.GetReconnectBackoff().String(),
	})
}

// controlsRequest is a partial update; omitted fields keep their value.
type controlsRequest struct {
	Side         *string  `json:"side"`
	Part         *string  `json:"part"`
	Alpha        *float64 `json:"alpha"`
	CaptureOnMax *bool    `json:"capture_on_max"`
}

func (s *Server) handleControls(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		httputil.WriteJSONOK(w, s.controls.Current())
	case http.MethodPut:
		var req controlsRequest
		if err := httputil.DecodeJSON(r, &req, maxBodyBytes); err != nil {
			httputil.BadRequest(w, err.Error())
			return
		}
		var side pose.Side
		var part pose.Part
		var err error
		if req.Side != nil {
			if side, err = pose.ParseSide(*req.Side); err != nil {
				httputil.BadRequest(w, err.Error())
				return
			}
		}
		if req.Part != nil {
			if part, err = pose.ParsePart(*req.Part); err != nil {
				httputil.BadRequest(w, err.Error())
				return
			}
		}
		next, err := s.controls.Update(func(c *session.Controls) {
			if req.Side != nil {
				c.Target.Side = side
			}
			if req.Part != nil {
				c.Target.Part = part
			}
			if req.Alpha != nil {
				c.Alpha = *req.Alpha
			}
			if req.CaptureOnMax != nil {
				c.CaptureOnMax = *req.CaptureOnMax
			}
		})
		if err != nil {
			httputil.BadRequest(w, err.Error())
			return
		}
		diagf("controls updated: %s alpha=%.2f capture=%t", next.Target, next.Alpha, next.CaptureOnMax)
		httputil.WriteJSONOK(w, next)
	default:
		httputil.MethodNotAllowed(w)
	}
}

// liveView is the live readout with display strings in the configured units.
type liveView struct {
	session.LiveSnapshot
	Units        string `json:"units"`
	SpeedDisplay string `json:"speed_display"`
	MaxDisplay   string `json:"max_display"`
}

func (s *Server) liveView(snap session.LiveSnapshot) liveView {
	p := s.cfg.GetDisplayPrecision()
	return liveView{
		LiveSnapshot: snap,
		Units:        s.units,
		SpeedDisplay: units.Format(snap.Speed, s.units, p),
		MaxDisplay:   units.Format(snap.Max.MaxValue, s.units, p),
	}
}

func (s *Server) requireLive(w http.ResponseWriter) bool {
	if s.live == nil {
		httputil.ServiceUnavailable(w, "live capture is not configured")
		return false
	}
	return true
}

func (s *Server) showLive(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	if !s.requireLive(w) {
		return
	}
	httputil.WriteJSONOK(w, s.liveView(s.live.Snapshot()))
}

func (s *Server) startLive(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	if !s.requireLive(w) {
		return
	}

	id, err := s.live.Start(r.Context())
	var acqErr *capture.AcquireError
	switch {
	case errors.Is(err, session.ErrSessionActive):
		httputil.Conflict(w, err.Error())
		return
	case errors.As(err, &acqErr), errors.Is(err, capture.ErrCaptureUnavailable):
		opsf("live start: %v", err)
		httputil.ServiceUnavailable(w, err.Error())
		return
	case err != nil:
		opsf("live start: %v", err)
		httputil.InternalServerError(w, err.Error())
		return
	}

	started := time.Now()
	s.mu.Lock()
	s.liveStarted = started
	s.mu.Unlock()
	if s.store != nil {
		if err := s.store.SaveSession(r.Context(), store.Session{
			ID:        id,
			Mode:      store.ModeLive,
			Target:    s.controls.Current().Target.String(),
			StartedAt: started,
		}); err != nil {
			opsf("save live session %s: %v", id, err)
		}
	}
	diagf("live session %s started", id)
	httputil.WriteJSONOK(w, s.liveView(s.live.Snapshot()))
}

func (s *Server) stopLive(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	if !s.requireLive(w) {
		return
	}
	if err := s.live.Stop(); err != nil {
		httputil.Conflict(w, err.Error())
		return
	}

	snap := s.live.Snapshot()
	if s.store != nil {
		s.mu.Lock()
		started := s.liveStarted
		s.mu.Unlock()
		ended := time.Now()
		if err := s.store.SaveSession(r.Context(), store.Session{
			ID:        snap.ID,
			Mode:      store.ModeLive,
			Target:    snap.Target,
			StartedAt: started,
			EndedAt:   &ended,
			MaxSpeed:  snap.Max.MaxValue,
			MaxAtMs:   snap.Max.MaxAtMs,
			Frames:    snap.Frames,
		}); err != nil {
			opsf("save live session %s: %v", snap.ID, err)
		}
	}
	httputil.WriteJSONOK(w, s.liveView(snap))
}

func (s *Server) resetLive(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	if !s.requireLive(w) {
		return
	}
	if err := s.live.ResetMax(); err != nil {
		httputil.Conflict(w, err.Error())
		return
	}
	httputil.WriteJSONOK(w, s.liveView(s.live.Snapshot()))
}

type fileRequest struct {
	Path string `json:"path"`
}

type fileResponse struct {
	SessionID  string                `json:"session_id"`
	Source     string                `json:"source"`
	Units      string                `json:"units"`
	Max        kinematics.RunningMax `json:"max"`
	MaxAtMs    float64               `json:"max_at_ms"`
	MaxDisplay string                `json:"max_display"`
	Frames     int                   `json:"frames"`
	Samples    int                   `json:"samples"`
	Captures   int                   `json:"captures"`
	Speed      series.TimeSeries     `json:"speed"`
	Knee       series.TimeSeries     `json:"knee"`
}

// openRecording resolves name inside the recordings directory.
func (s *Server) openRecording(name string) (*replay.Reader, error) {
	path, err := security.ResolveWithin(s.recordingsDir, name)
	if err != nil {
		return nil, err
	}
	return replay.Open(path)
}

func (s *Server) analyseFile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	var req fileRequest
	if err := httputil.DecodeJSON(r, &req, maxBodyBytes); err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	rd, err := s.openRecording(req.Path)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	defer rd.Close()

	started := time.Now()
	captures := 0
	res, err := session.RunFile(r.Context(), rd, session.FileOptions{
		Controls: s.controls,
		Stream:   s.cfg.StreamOptions(),
		Captures: func(ev session.CaptureEvent) {
			captures++
			if s.store == nil {
				return
			}
			if _, err := s.store.AddCapture(context.WithoutCancel(r.Context()), ev); err != nil {
				opsf("store capture: %v", err)
			}
		},
	})
	if err != nil {
		httputil.BadRequest(w, fmt.Sprintf("analyse %s: %v", req.Path, err))
		return
	}

	if s.store != nil {
		ended := time.Now()
		if err := s.store.SaveSession(r.Context(), store.Session{
			ID:        res.StreamID,
			Mode:      store.ModeFile,
			Target:    s.controls.Current().Target.String(),
			Source:    req.Path,
			StartedAt: started,
			EndedAt:   &ended,
			MaxSpeed:  res.Max.MaxValue,
			MaxAtMs:   res.MaxAtMs,
			Frames:    res.Frames,
			Samples:   res.Samples,
		}); err != nil {
			opsf("save file session %s: %v", res.StreamID, err)
		}
	}
	diagf("analysed %s: %d frames, max %.3f", req.Path, res.Frames, res.Max.MaxValue)

	if r.URL.Query().Get("format") == "html" {
		var buf bytes.Buffer
		if err := report.SpeedChartHTML(&buf, req.Path, res, s.units); err != nil {
			httputil.InternalServerError(w, err.Error())
			return
		}
		httputil.WriteBytes(w, "text/html; charset=utf-8", buf.Bytes())
		return
	}

	httputil.WriteJSONOK(w, fileResponse{
		SessionID:  res.StreamID,
		Source:     req.Path,
		Units:      s.units,
		Max:        res.Max,
		MaxAtMs:    res.MaxAtMs,
		MaxDisplay: units.Format(res.Max.MaxValue, s.units, s.cfg.GetDisplayPrecision()),
		Frames:     res.Frames,
		Samples:    res.Samples,
		Captures:   captures,
		Speed:      res.Speed,
		Knee:       res.Knee,
	})
}

type compareRequest struct {
	Reference string `json:"reference"`
	User      string `json:"user"`
	Points    int    `json:"points"`
}

func (s *Server) compare(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	var req compareRequest
	if err := httputil.DecodeJSON(r, &req, maxBodyBytes); err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	if req.Points < 0 {
		httputil.BadRequest(w, "points must not be negative")
		return
	}
	points := req.Points
	if points == 0 {
		points = s.cfg.GetResamplePoints()
	}

	ref, err := s.openRecording(req.Reference)
	if err != nil {
		httputil.BadRequest(w, "reference: "+err.Error())
		return
	}
	defer ref.Close()
	user, err := s.openRecording(req.User)
	if err != nil {
		httputil.BadRequest(w, "user: "+err.Error())
		return
	}
	defer user.Close()

	res, err := session.Compare(r.Context(), ref, user, session.CompareOptions{
		Controls: s.controls,
		Stream:   s.cfg.StreamOptions(),
		Points:   points,
	})
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	if s.store != nil {
		if err := s.store.SaveComparison(r.Context(), store.Comparison{
			ComparisonResult: res,
			ReferenceSource:  req.Reference,
			UserSource:       req.User,
		}); err != nil {
			opsf("save comparison %s: %v", res.ID, err)
		}
	}
	diagf("comparison %s: speed r=%.3f knee r=%.3f", res.ID, res.SpeedCorrelation, res.KneeCorrelation)
	httputil.WriteJSON(w, http.StatusCreated, res)
}

func (s *Server) requireStore(w http.ResponseWriter) bool {
	if s.store == nil {
		httputil.ServiceUnavailable(w, "session store is not configured")
		return false
	}
	return true
}

// loadComparison fetches the comparison named in the path and writes the
// error response itself when it cannot.
func (s *Server) loadComparison(w http.ResponseWriter, r *http.Request) (store.Comparison, bool) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return store.Comparison{}, false
	}
	if !s.requireStore(w) {
		return store.Comparison{}, false
	}
	id := r.PathValue("id")
	c, err := s.store.GetComparison(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		httputil.NotFound(w, "comparison not found")
		return store.Comparison{}, false
	}
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return store.Comparison{}, false
	}
	return c, true
}

func (s *Server) showComparison(w http.ResponseWriter, r *http.Request) {
	if c, ok := s.loadComparison(w, r); ok {
		httputil.WriteJSONOK(w, c)
	}
}

func (s *Server) comparisonChart(w http.ResponseWriter, r *http.Request) {
	c, ok := s.loadComparison(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := report.ComparisonChartHTML(&buf, c.ComparisonResult); err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	httputil.WriteBytes(w, "text/html; charset=utf-8", buf.Bytes())
}

func (s *Server) comparisonPlot(w http.ResponseWriter, r *http.Request) {
	c, ok := s.loadComparison(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := report.ComparisonPNG(&buf, c.ComparisonResult); err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	httputil.WriteBytes(w, "image/png", buf.Bytes())
}

func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	if !s.requireStore(w) {
		return
	}
	list, err := s.store.ListSessions(r.Context(), 0)
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	httputil.WriteJSONOK(w, list)
}

func (s *Server) listCaptures(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	if !s.requireStore(w) {
		return
	}
	list, err := s.store.ListCaptures(r.Context(), r.URL.Query().Get("session"))
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	httputil.WriteJSONOK(w, list)
}

func (s *Server) captureImage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	if !s.requireStore(w) {
		return
	}
	img, err := s.store.CaptureImage(r.Context(), r.PathValue("id"))
	if errors.Is(err, store.ErrNotFound) {
		httputil.NotFound(w, "capture image not found")
		return
	}
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	httputil.WriteBytes(w, "image/jpeg", img)
}
