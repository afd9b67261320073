// Package config provides configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"image/color"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/user/movieview/pkg/lifecycle"
	"github.com/user/movieview/pkg/ports"
)

// ErrInvalid is returned by Validate for out-of-range settings.
var ErrInvalid = errors.New("config: invalid value")

// Config represents the full configuration for movieview.
type Config struct {
	// Source
	Source    string `yaml:"source"`
	AssetsDir string `yaml:"assets_dir"`

	// Playback
	Loop            bool `yaml:"loop"`
	CadenceMs       int  `yaml:"cadence_ms"`
	DetachOnDestroy bool `yaml:"detach_on_destroy"`
	PlayMs          int  `yaml:"play_ms"`

	// Surface
	SurfaceWidth    int    `yaml:"surface_width"`
	SurfaceHeight   int    `yaml:"surface_height"`
	BackgroundColor string `yaml:"background_color"`
	FitLarger       bool   `yaml:"fit_larger"`

	// Decoding
	FFmpegPath string `yaml:"ffmpeg_path"`

	// Logging
	LogLevel string `yaml:"log_level"`

	// Debug
	Debug     bool   `yaml:"debug"`
	DebugDir  string `yaml:"debug_dir"`
	DumpEvery int    `yaml:"dump_every"`
}

// Defaults returns a Config with default values.
func Defaults() Config {
	return Config{
		// Source
		AssetsDir: ".",

		// Playback
		Loop:      true,
		CadenceMs: 10,
		PlayMs:    5000,

		// Surface
		SurfaceWidth:    1280,
		SurfaceHeight:   720,
		BackgroundColor: "#000000",

		// Logging
		LogLevel: "info",

		// Debug
		DebugDir:  "./debug",
		DumpEvery: 30,
	}
}

// LoadFromFile loads configuration from a YAML file over the defaults.
func LoadFromFile(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if c.CadenceMs < 1 {
		return fmt.Errorf("%w: cadence_ms must be at least 1, got %d", ErrInvalid, c.CadenceMs)
	}
	if c.SurfaceWidth < 1 || c.SurfaceHeight < 1 {
		return fmt.Errorf("%w: surface size %dx%d", ErrInvalid, c.SurfaceWidth, c.SurfaceHeight)
	}
	if c.PlayMs < 0 {
		return fmt.Errorf("%w: play_ms must not be negative, got %d", ErrInvalid, c.PlayMs)
	}
	if c.DumpEvery < 0 {
		return fmt.Errorf("%w: dump_every must not be negative, got %d", ErrInvalid, c.DumpEvery)
	}
	if _, err := ports.ParseLogLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// Cadence returns the pump interval.
func (c Config) Cadence() time.Duration {
	return time.Duration(c.CadenceMs) * time.Millisecond
}

// PlayDuration returns how long the play command keeps the surface alive.
// Zero means until playback ends or the run is interrupted.
func (c Config) PlayDuration() time.Duration {
	return time.Duration(c.PlayMs) * time.Millisecond
}

// Level returns the configured log level, defaulting to info.
func (c Config) Level() ports.LogLevel {
	level, err := ports.ParseLogLevel(c.LogLevel)
	if err != nil {
		return ports.LevelInfo
	}
	return level
}

// ToControllerOptions converts Config to lifecycle.Options.
func (c Config) ToControllerOptions() lifecycle.Options {
	opts := lifecycle.Options{
		Source:          c.Source,
		Loop:            c.Loop,
		Cadence:         c.Cadence(),
		DetachOnDestroy: c.DetachOnDestroy,
	}
	if c.Debug {
		opts.DumpEvery = c.DumpEvery
	}
	return opts
}

// ParseColor parses a hex color string to color.Color.
// Both #rgb and #rrggbb forms are accepted; anything else yields black.
func ParseColor(hex string) color.Color {
	if len(hex) > 0 && hex[0] == '#' {
		hex = hex[1:]
	}

	switch len(hex) {
	case 3:
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	case 6:
	default:
		return color.Black
	}

	return color.RGBA{
		R: hexValue(hex[0])<<4 | hexValue(hex[1]),
		G: hexValue(hex[2])<<4 | hexValue(hex[3]),
		B: hexValue(hex[4])<<4 | hexValue(hex[5]),
		A: 255,
	}
}

func hexValue(c byte) uint8 {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10
	default:
		return 0
	}
}
