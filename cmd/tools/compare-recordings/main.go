// Command compare-recordings scores a user recording against a reference
// offline and writes the comparison charts next to each other:
//
//	<out>/<id>.json        the comparison result
//	<out>/<id>.html        interactive speed and knee angle charts
//	<out>/<id>.png         static speed plot
//	<out>/<name>-speed.html per-recording speed chart
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/banshee-data/limbspeed/internal/config"
	"github.com/banshee-data/limbspeed/internal/replay"
	"github.com/banshee-data/limbspeed/internal/report"
	"github.com/banshee-data/limbspeed/internal/security"
	"github.com/banshee-data/limbspeed/internal/session"
	"github.com/banshee-data/limbspeed/internal/units"
)

func writeFile(path string, write func(f *os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

func baseName(path string) string {
	return security.SanitizeFilename(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
}

func main() {
	reference := flag.String("reference", "", "reference recording")
	user := flag.String("user", "", "user recording")
	outDir := flag.String("out", ".", "output directory")
	configPath := flag.String("config", "", "tuning config JSON")
	points := flag.Int("points", 0, "resample point count (default from config)")
	flag.Parse()

	if *reference == "" || *user == "" {
		log.Fatal("-reference and -user are required")
	}

	cfg := config.DefaultTuningConfig()
	if *configPath != "" {
		var err error
		if cfg, err = config.LoadTuningConfig(*configPath); err != nil {
			log.Fatalf("load config: %v", err)
		}
	}
	n := *points
	if n <= 0 {
		n = cfg.GetResamplePoints()
	}

	ref, err := replay.Open(*reference)
	if err != nil {
		log.Fatal(err)
	}
	defer ref.Close()
	usr, err := replay.Open(*user)
	if err != nil {
		log.Fatal(err)
	}
	defer usr.Close()

	res, err := session.Compare(context.Background(), ref, usr, session.CompareOptions{
		Controls: session.Fixed(cfg.Controls()),
		Stream:   cfg.StreamOptions(),
		Points:   n,
	})
	if err != nil {
		log.Fatal(err)
	}

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		log.Fatal(err)
	}
	id := security.SanitizeFilename(res.ID)
	out := func(name string) string { return filepath.Join(*outDir, name) }

	steps := []struct {
		path  string
		write func(f *os.File) error
	}{
		{out(id + ".json"), func(f *os.File) error {
			enc := json.NewEncoder(f)
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		}},
		{out(id + ".html"), func(f *os.File) error { return report.ComparisonChartHTML(f, res) }},
		{out(id + ".png"), func(f *os.File) error { return report.ComparisonPNG(f, res) }},
		{out(baseName(*reference) + "-speed.html"), func(f *os.File) error {
			return report.SpeedChartHTML(f, *reference, res.Reference, cfg.GetUnits())
		}},
		{out(baseName(*user) + "-speed.html"), func(f *os.File) error {
			return report.SpeedChartHTML(f, *user, res.User, cfg.GetUnits())
		}},
	}
	for _, s := range steps {
		if err := writeFile(s.path, s.write); err != nil {
			log.Fatal(err)
		}
		log.Printf("✓ Created: %s", s.path)
	}

	p := cfg.GetDisplayPrecision()
	fmt.Printf("speed correlation: %.3f\n", res.SpeedCorrelation)
	fmt.Printf("knee correlation:  %.3f\n", res.KneeCorrelation)
	fmt.Printf("reference max:     %s\n", units.Format(res.ReferenceMax, cfg.GetUnits(), p))
	fmt.Printf("user max:          %s\n", units.Format(res.UserMax, cfg.GetUnits(), p))
}
