// Package api serves the limb speed pipeline over HTTP: live session
// control and readout, single-recording analysis, recording comparison and
// the charts for stored comparisons.
package api

import (
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/banshee-data/limbspeed/internal/config"
	"github.com/banshee-data/limbspeed/internal/session"
	"github.com/banshee-data/limbspeed/internal/store"
)

// ANSI escape codes for access log colouring
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// Options wires a Server to its collaborators.
type Options struct {
	Config   *config.TuningConfig
	Controls *session.ControlStore
	Live     *session.LiveSession
	Store    *store.Store
	// RecordingsDir is the directory recording paths are resolved against.
	RecordingsDir string
}

// Server holds the handlers' shared state.
type Server struct {
	cfg           *config.TuningConfig
	controls      *session.ControlStore
	live          *session.LiveSession
	store         *store.Store
	recordingsDir string
	units         string

	// liveStarted records when the current live session began so the
	// stored summary carries it.
	mu          sync.Mutex
	liveStarted time.Time
}

// NewServer builds a server. A nil Config uses the defaults.
func NewServer(opts Options) *Server {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultTuningConfig()
	}
	controls := opts.Controls
	if controls == nil {
		controls = session.NewControlStore(cfg.Controls())
	}
	dir := opts.RecordingsDir
	if dir == "" {
		dir = "."
	}
	return &Server{
		cfg:           cfg,
		controls:      controls,
		live:          opts.Live,
		store:         opts.Store,
		recordingsDir: dir,
		units:         cfg.GetUnits(),
	}
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Flush() {
	if flusher, ok := lrw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, query, status, and duration
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		log.Printf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

// ServeMux returns the API routes.
func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/config", s.showConfig)
	mux.HandleFunc("/api/controls", s.handleControls)
	mux.HandleFunc("/api/live", s.showLive)
	mux.HandleFunc("/api/live/start", s.startLive)
	mux.HandleFunc("/api/live/stop", s.stopLive)
	mux.HandleFunc("/api/live/reset", s.resetLive)
	mux.HandleFunc("/api/file", s.analyseFile)
	mux.HandleFunc("/api/compare", s.compare)
	mux.HandleFunc("/api/comparisons/{id}", s.showComparison)
	mux.HandleFunc("/api/comparisons/{id}/chart", s.comparisonChart)
	mux.HandleFunc("/api/comparisons/{id}/plot.png", s.comparisonPlot)
	mux.HandleFunc("/api/sessions", s.listSessions)
	mux.HandleFunc("/api/captures", s.listCaptures)
	mux.HandleFunc("/api/captures/{id}/image", s.captureImage)
	return mux
}
