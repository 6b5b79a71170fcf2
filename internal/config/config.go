// Package config holds the pipeline configuration and its layered loader.
package config

import (
	"fmt"
	"runtime"

	"github.com/pable/courtvision/internal/possession"
)

// Config contains process configuration.
type Config struct {
	// SpeedThreshold is the ball displacement per frame, in feet, below which
	// the ball counts as held.
	SpeedThreshold float64 `koanf:"speed_threshold"`

	// RadiusThreshold is the ball radius below which the ball counts as low
	// enough to be held.
	RadiusThreshold float64 `koanf:"radius_threshold"`

	// OutcomesPath is the play-by-play outcome CSV (plain or .gz).
	OutcomesPath string `koanf:"outcomes_path"`

	// TrackingDir holds the raw tracking logs processed by batch.
	TrackingDir string `koanf:"tracking_dir"`

	// PassesDir caches segmented passes per game so plays can be re-aligned
	// without re-reading tracking data.
	PassesDir string `koanf:"passes_dir"`

	OutputAllDir      string `koanf:"output_all_dir"`
	OutputFilteredDir string `koanf:"output_filtered_dir"`

	// Workers bounds concurrent games in batch.
	Workers int `koanf:"workers"`

	LogLevel  string `koanf:"log_level"`
	LogFormat string `koanf:"log_format"`

	// Strict fails a game on a chain invariant violation instead of logging it.
	Strict bool `koanf:"strict"`

	// MetricsFile, when set, receives a Prometheus textfile dump after batch.
	MetricsFile string `koanf:"metrics_file"`

	// ListenAddr is the address of the read-only HTTP API.
	ListenAddr string `koanf:"listen_addr"`
}

// New returns a Config holding the defaults.
func New() *Config {
	return &Config{
		SpeedThreshold:    possession.DefaultSpeedThreshold,
		RadiusThreshold:   possession.DefaultRadiusThreshold,
		OutcomesPath:      "data/outcomes.csv",
		TrackingDir:       "data/tracking",
		PassesDir:         "data/passes",
		OutputAllDir:      "out/all_plays",
		OutputFilteredDir: "out/filtered_plays",
		Workers:           runtime.NumCPU(),
		LogLevel:          "info",
		LogFormat:         "text",
		ListenAddr:        ":8080",
	}
}

// Thresholds returns the possession gating thresholds.
func (c *Config) Thresholds() possession.Thresholds {
	return possession.Thresholds{Speed: c.SpeedThreshold, Radius: c.RadiusThreshold}
}

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	switch {
	case c.SpeedThreshold <= 0:
		return fmt.Errorf("%w: speed_threshold must be positive", ErrInvalidConfig)
	case c.RadiusThreshold <= 0:
		return fmt.Errorf("%w: radius_threshold must be positive", ErrInvalidConfig)
	case c.Workers < 1:
		return fmt.Errorf("%w: workers must be at least 1", ErrInvalidConfig)
	case c.OutputAllDir == "" || c.OutputFilteredDir == "":
		return fmt.Errorf("%w: output directories must not be empty", ErrInvalidConfig)
	case c.OutputAllDir == c.OutputFilteredDir:
		return fmt.Errorf("%w: output_all_dir and output_filtered_dir must differ", ErrInvalidConfig)
	}
	return nil
}
