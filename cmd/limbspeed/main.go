package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/banshee-data/limbspeed/internal/api"
	"github.com/banshee-data/limbspeed/internal/capture"
	"github.com/banshee-data/limbspeed/internal/config"
	"github.com/banshee-data/limbspeed/internal/detector"
	"github.com/banshee-data/limbspeed/internal/monitoring"
	"github.com/banshee-data/limbspeed/internal/replay"
	"github.com/banshee-data/limbspeed/internal/session"
	"github.com/banshee-data/limbspeed/internal/store"
	"github.com/banshee-data/limbspeed/internal/version"
)

var (
	configPath    = flag.String("config", "", "Tuning config JSON (defaults are built in)")
	listen        = flag.String("listen", ":8080", "Listen address")
	recordingsDir = flag.String("recordings", ".", "Directory recording paths are resolved against")
	devices       = flag.String("devices", "0", "Comma-separated capture devices, preferred first")
	detectorURL   = flag.String("detector-url", "", "Pose service URL for live camera capture")
	liveRecording = flag.String("live-recording", "", "Loop this recording as the live source instead of a camera")
	logLevel      = flag.String("log-level", "diag", "Log streams to enable: ops, diag or trace")
	admin         = flag.Bool("admin", true, "Mount the debug and SQL admin routes")
	showVersion   = flag.Bool("version", false, "Print the version and exit")
)

// logWriters maps a level name to the ops, diag and trace writers.
func logWriters(level string, w io.Writer) (ops, diag, trace io.Writer, err error) {
	switch level {
	case "ops":
		return w, nil, nil, nil
	case "diag":
		return w, w, nil, nil
	case "trace":
		return w, w, w, nil
	}
	return nil, nil, nil, fmt.Errorf("unknown log level %q", level)
}

func splitDevices(s string) []string {
	var out []string
	for _, d := range strings.Split(s, ",") {
		if d = strings.TrimSpace(d); d != "" {
			out = append(out, d)
		}
	}
	return out
}

// liveOpener picks the live source: a looped recording when one is given,
// otherwise a reconnecting camera feeding the pose service.
func liveOpener(cfg *config.TuningConfig) (session.SourceOpener, error) {
	if *liveRecording != "" {
		return func(ctx context.Context) (session.PoseSource, error) {
			src, err := replay.NewLiveSource(*liveRecording, nil)
			if err != nil {
				return nil, err
			}
			return src, nil
		}, nil
	}
	if *detectorURL == "" {
		return nil, nil
	}
	devs := splitDevices(*devices)
	if len(devs) == 0 {
		return nil, errors.New("at least one capture device is required")
	}
	newDetector := detector.Factory(*detectorURL, nil)
	return func(ctx context.Context) (session.PoseSource, error) {
		frames, err := capture.OpenReconnecting(ctx, &capture.Acquirer{
			Open:    capture.CameraOpener(nil),
			Devices: devs,
			Policy:  cfg.ReconnectPolicy(),
		})
		if err != nil {
			return nil, err
		}
		src, err := session.NewDetectingSource(ctx, frames, newDetector)
		if err != nil {
			frames.Close()
			return nil, err
		}
		return src, nil
	}, nil
}

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}
	if *listen == "" {
		log.Fatal("Listen address is required")
	}

	ops, diag, trace, err := logWriters(*logLevel, os.Stderr)
	if err != nil {
		log.Fatal(err)
	}
	session.SetLogWriters(ops, diag, trace)
	capture.SetLogWriters(ops, diag, trace)
	api.SetLogWriters(ops, diag, trace)
	monitoring.SetLogger(monitoring.WriterLogf(diag, "[store] "))

	cfg := config.DefaultTuningConfig()
	if *configPath != "" {
		if cfg, err = config.LoadTuningConfig(*configPath); err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
	}

	st, err := store.Open(store.MemoryDSN)
	if err != nil {
		log.Fatalf("failed to open session store: %v", err)
	}
	defer st.Close()

	controls := session.NewControlStore(cfg.Controls())
	controls.OnChange(func(c session.Controls) {
		log.Printf("controls: target=%s alpha=%.2f capture_on_max=%t", c.Target, c.Alpha, c.CaptureOnMax)
	})

	open, err := liveOpener(cfg)
	if err != nil {
		log.Fatal(err)
	}
	var live *session.LiveSession
	if open != nil {
		live = session.NewLiveSession(session.LiveConfig{
			Open:     open,
			Controls: controls,
			Stream:   cfg.StreamOptions(),
			Interval: cfg.GetFrameInterval(),
			Captures: func(ev session.CaptureEvent) {
				if _, err := st.AddCapture(context.Background(), ev); err != nil {
					log.Printf("failed to store capture: %v", err)
				}
			},
		})
	} else {
		log.Print("live capture disabled: pass -detector-url or -live-recording to enable it")
	}

	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	wg.Add(1)
	go func() {
		defer wg.Done()

		mux := api.NewServer(api.Options{
			Config:        cfg,
			Controls:      controls,
			Live:          live,
			Store:         st,
			RecordingsDir: *recordingsDir,
		}).ServeMux()
		if *admin {
			if err := st.AttachAdminRoutes(mux); err != nil {
				log.Printf("admin routes unavailable: %v", err)
			}
		}

		server := &http.Server{
			Addr:              *listen,
			Handler:           api.LoggingMiddleware(mux),
			ReadHeaderTimeout: 10 * time.Second,
		}

		go func() {
			log.Printf("%s listening on %s", version.String(), *listen)
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("failed to start server: %v", err)
			}
		}()

		<-ctx.Done()
		log.Println("shutting down HTTP server...")

		if live != nil {
			if err := live.Stop(); err != nil && !errors.Is(err, session.ErrSessionIdle) {
				log.Printf("live session stop: %v", err)
			}
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
			if err := server.Close(); err != nil {
				log.Printf("HTTP server force close error: %v", err)
			}
		}
		log.Printf("HTTP server routine stopped")
	}()

	wg.Wait()
	log.Printf("Graceful shutdown complete")
}
