package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/banshee-data/limbspeed/internal/pose"
	"github.com/banshee-data/limbspeed/internal/units"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
const DefaultConfigPath = "config/tuning.defaults.json"

// TuningConfig is the root configuration for the speed pipeline. The schema
// matches the /api/config endpoint so the same JSON serves for startup
// configuration and inspection.
type TuningConfig struct {
	// Signal params
	SmoothingAlpha   *float64 `json:"smoothing_alpha,omitempty"`
	CaptureThrottle  *string  `json:"capture_throttle,omitempty"` // duration string like "800ms"
	DisplayPrecision *int     `json:"display_precision,omitempty"`
	CaptureOnNewMax  *bool    `json:"capture_on_new_max,omitempty"`
	MinVisibility    *float64 `json:"min_visibility,omitempty"`

	// Target
	Side *string `json:"side,omitempty"`
	Part *string `json:"part,omitempty"`

	// Comparison
	ResamplePoints *int `json:"resample_points,omitempty"`

	// Output
	Units *string `json:"units,omitempty"`

	// Live capture
	FrameInterval     *string `json:"frame_interval,omitempty"` // duration string, "0s" disables pacing
	ReconnectAttempts *int    `json:"reconnect_attempts,omitempty"`
	ReconnectBackoff  *string `json:"reconnect_backoff,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// DefaultTuningConfig returns a TuningConfig with every field populated
// from the built-in defaults.
func DefaultTuningConfig() *TuningConfig {
	return &TuningConfig{
		SmoothingAlpha:    ptrFloat64(0.3),
		CaptureThrottle:   ptrString("800ms"),
		DisplayPrecision:  ptrInt(2),
		CaptureOnNewMax:   ptrBool(true),
		MinVisibility:     ptrFloat64(0),
		Side:              ptrString(string(pose.Right)),
		Part:              ptrString(string(pose.Foot)),
		ResamplePoints:    ptrInt(200),
		Units:             ptrString(units.MPS),
		FrameInterval:     ptrString("0s"),
		ReconnectAttempts: ptrInt(1),
		ReconnectBackoff:  ptrString("500ms"),
	}
}

// LoadTuningConfig loads a TuningConfig from a JSON file.
// Fields omitted from the file fall back to defaults through the Get*
// accessors, so partial configs are safe.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical defaults from DefaultConfigPath,
// searching the current directory and its parents. Panics if the file
// cannot be loaded; intended for test setup.
func MustLoadDefaultConfig() *TuningConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,
		"../../" + DefaultConfigPath,    // from internal/config/
		"../../../" + DefaultConfigPath, // from cmd/tools/*
	}
	for _, path := range candidates {
		if cfg, err := LoadTuningConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid.
func (c *TuningConfig) Validate() error {
	if c.SmoothingAlpha != nil {
		if *c.SmoothingAlpha < 0 || *c.SmoothingAlpha > 1 {
			return fmt.Errorf("smoothing_alpha must be between 0 and 1, got %f", *c.SmoothingAlpha)
		}
	}

	for name, v := range map[string]*string{
		"capture_throttle":  c.CaptureThrottle,
		"frame_interval":    c.FrameInterval,
		"reconnect_backoff": c.ReconnectBackoff,
	} {
		if v == nil || *v == "" {
			continue
		}
		d, err := time.ParseDuration(*v)
		if err != nil {
			return fmt.Errorf("invalid %s '%s': %w", name, *v, err)
		}
		if d < 0 {
			return fmt.Errorf("%s must be non-negative, got %s", name, *v)
		}
	}

	if c.DisplayPrecision != nil {
		if *c.DisplayPrecision < 0 || *c.DisplayPrecision > 6 {
			return fmt.Errorf("display_precision must be between 0 and 6, got %d", *c.DisplayPrecision)
		}
	}

	if c.MinVisibility != nil {
		if *c.MinVisibility < 0 || *c.MinVisibility > 1 {
			return fmt.Errorf("min_visibility must be between 0 and 1, got %f", *c.MinVisibility)
		}
	}

	if c.Side != nil {
		if _, err := pose.ParseSide(*c.Side); err != nil {
			return err
		}
	}

	if c.Part != nil {
		if _, err := pose.ParsePart(*c.Part); err != nil {
			return err
		}
	}

	if c.ResamplePoints != nil {
		if *c.ResamplePoints < 1 {
			return fmt.Errorf("resample_points must be positive, got %d", *c.ResamplePoints)
		}
	}

	if c.Units != nil {
		if !units.IsValid(*c.Units) {
			return fmt.Errorf("invalid units %q: must be one of %s", *c.Units, units.GetValidUnitsString())
		}
	}

	if c.ReconnectAttempts != nil {
		if *c.ReconnectAttempts < 0 {
			return fmt.Errorf("reconnect_attempts must be non-negative, got %d", *c.ReconnectAttempts)
		}
	}

	return nil
}

func parseDurationOr(v *string, def time.Duration) time.Duration {
	if v == nil || *v == "" {
		return def
	}
	d, err := time.ParseDuration(*v)
	if err != nil {
		return def // default on parse error
	}
	return d
}

func (c *TuningConfig) GetSmoothingAlpha() float64 {
	if c.SmoothingAlpha == nil {
		return 0.3
	}
	return *c.SmoothingAlpha
}

func (c *TuningConfig) GetCaptureThrottle() time.Duration {
	return parseDurationOr(c.CaptureThrottle, 800*time.Millisecond)
}

func (c *TuningConfig) GetDisplayPrecision() int {
	if c.DisplayPrecision == nil {
		return 2
	}
	return *c.DisplayPrecision
}

func (c *TuningConfig) GetCaptureOnNewMax() bool {
	if c.CaptureOnNewMax == nil {
		return true
	}
	return *c.CaptureOnNewMax
}

func (c *TuningConfig) GetMinVisibility() float64 {
	if c.MinVisibility == nil {
		return 0 // disabled
	}
	return *c.MinVisibility
}

// GetTarget returns the configured tracked body point.
func (c *TuningConfig) GetTarget() pose.Target {
	t := pose.DefaultTarget
	if c.Side != nil {
		if s, err := pose.ParseSide(*c.Side); err == nil {
			t.Side = s
		}
	}
	if c.Part != nil {
		if p, err := pose.ParsePart(*c.Part); err == nil {
			t.Part = p
		}
	}
	return t
}

func (c *TuningConfig) GetResamplePoints() int {
	if c.ResamplePoints == nil {
		return 200
	}
	return *c.ResamplePoints
}

func (c *TuningConfig) GetUnits() string {
	if c.Units == nil || !units.IsValid(*c.Units) {
		return units.MPS
	}
	return *c.Units
}

func (c *TuningConfig) GetFrameInterval() time.Duration {
	return parseDurationOr(c.FrameInterval, 0)
}

func (c *TuningConfig) GetReconnectAttempts() int {
	if c.ReconnectAttempts == nil {
		return 1
	}
	return *c.ReconnectAttempts
}

func (c *TuningConfig) GetReconnectBackoff() time.Duration {
	return parseDurationOr(c.ReconnectBackoff, 500*time.Millisecond)
}
