package config

import (
	"errors"
	"image/color"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/user/movieview/pkg/ports"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if !cfg.Loop {
		t.Error("loop should default to true")
	}
	if cfg.Cadence() != 10*time.Millisecond {
		t.Errorf("expected 10ms cadence, got %v", cfg.Cadence())
	}
	if cfg.DetachOnDestroy {
		t.Error("teardown should join the pump by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "movieview.yaml")
	yamlData := `
source: video/clip.mp4
loop: false
cadence_ms: 16
detach_on_destroy: true
surface_width: 640
background_color: "#102030"
log_level: debug
`
	if err := os.WriteFile(path, []byte(yamlData), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}

	if cfg.Source != "video/clip.mp4" || cfg.Loop || cfg.CadenceMs != 16 || !cfg.DetachOnDestroy {
		t.Errorf("unexpected config %+v", cfg)
	}
	if cfg.SurfaceWidth != 640 {
		t.Errorf("expected width 640, got %d", cfg.SurfaceWidth)
	}
	// Unset keys keep their defaults.
	if cfg.SurfaceHeight != 720 {
		t.Errorf("expected default height 720, got %d", cfg.SurfaceHeight)
	}
	if cfg.Level() != ports.LevelDebug {
		t.Errorf("expected debug level, got %s", cfg.Level())
	}
}

func TestLoadFromFile_Errors(t *testing.T) {
	if _, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	os.WriteFile(path, []byte("cadence_ms: [oops"), 0644)
	if _, err := LoadFromFile(path); err == nil {
		t.Error("expected error for malformed YAML")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero cadence", func(c *Config) { c.CadenceMs = 0 }},
		{"zero width", func(c *Config) { c.SurfaceWidth = 0 }},
		{"negative play", func(c *Config) { c.PlayMs = -1 }},
		{"negative dump", func(c *Config) { c.DumpEvery = -5 }},
		{"bad level", func(c *Config) { c.LogLevel = "loud" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalid) {
				t.Errorf("expected ErrInvalid, got %v", err)
			}
		})
	}
}

func TestToControllerOptions(t *testing.T) {
	cfg := Defaults()
	cfg.Source = "clip.mp4"
	cfg.CadenceMs = 20

	opts := cfg.ToControllerOptions()
	if opts.Source != "clip.mp4" || !opts.Loop || opts.Cadence != 20*time.Millisecond {
		t.Errorf("unexpected options %+v", opts)
	}
	if opts.DumpEvery != 0 {
		t.Error("frames are only dumped in debug mode")
	}

	cfg.Debug = true
	if cfg.ToControllerOptions().DumpEvery != 30 {
		t.Error("expected dump interval in debug mode")
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in   string
		want color.Color
	}{
		{"#ff8000", color.RGBA{R: 255, G: 128, A: 255}},
		{"FF8000", color.RGBA{R: 255, G: 128, A: 255}},
		{"#fff", color.RGBA{R: 255, G: 255, B: 255, A: 255}},
		{"", color.Black},
		{"#12345", color.Black},
	}

	for _, tt := range tests {
		if got := ParseColor(tt.in); got != tt.want {
			t.Errorf("ParseColor(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
