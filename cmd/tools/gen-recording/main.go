// Command gen-recording writes a synthetic kick recording for exercising
// file and compare mode without a camera or pose model.
package main

import (
	"flag"
	"log"

	"github.com/banshee-data/limbspeed/internal/pose"
	"github.com/banshee-data/limbspeed/internal/replay"
)

func main() {
	def := replay.DefaultMotion()
	output := flag.String("o", "kick.jsonl", "output path")
	side := flag.String("side", string(def.Side), "leg that moves: left or right")
	duration := flag.Float64("duration", def.DurationMs, "recording length in ms")
	fps := flag.Float64("fps", def.FPS, "frames per second")
	amplitude := flag.Float64("amplitude", def.Amplitude, "peak foot displacement in metres")
	period := flag.Float64("period", def.PeriodMs, "swing period in ms")
	tempo := flag.Float64("tempo", def.Tempo, "playback tempo; 0.5 is half speed")
	dropEvery := flag.Int("drop-every", 0, "blank every nth frame to no pose")
	flag.Parse()

	s, err := pose.ParseSide(*side)
	if err != nil {
		log.Fatal(err)
	}
	obs := replay.Synthesize(replay.Motion{
		Side:       s,
		DurationMs: *duration,
		FPS:        *fps,
		Amplitude:  *amplitude,
		PeriodMs:   *period,
		Tempo:      *tempo,
		DropEvery:  *dropEvery,
	})
	if len(obs) == 0 {
		log.Fatal("duration, fps and period must be positive")
	}

	w, err := replay.Create(*output)
	if err != nil {
		log.Fatalf("create %s: %v", *output, err)
	}
	for i, o := range obs {
		if err := w.Write(o); err != nil {
			log.Fatalf("write frame %d: %v", i, err)
		}
	}
	if err := w.Close(); err != nil {
		log.Fatalf("close %s: %v", *output, err)
	}
	log.Printf("✓ Created: %s (%d frames)", *output, len(obs))
}
