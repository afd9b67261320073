// Package main provides the CLI entry point for movieview.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ideamans/go-l10n"
	"github.com/urfave/cli/v2"

	"github.com/user/movieview/pkg/adapters/clipsession"
	"github.com/user/movieview/pkg/adapters/codecdetect"
	"github.com/user/movieview/pkg/adapters/filesink"
	"github.com/user/movieview/pkg/adapters/ggsurface"
	"github.com/user/movieview/pkg/adapters/logger"
	"github.com/user/movieview/pkg/adapters/nullsink"
	"github.com/user/movieview/pkg/adapters/osfilesystem"
	"github.com/user/movieview/pkg/adapters/smartdecoder"
	"github.com/user/movieview/pkg/config"
	"github.com/user/movieview/pkg/lifecycle"
	"github.com/user/movieview/pkg/ports"
	"github.com/user/movieview/pkg/summarizer"
)

var version = "dev"

// formatRGBA8888 is the surface pixel format reported to the controller.
const formatRGBA8888 = 1

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "movieview",
		Usage:   l10n.T("Play decoded video onto a display surface"),
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: l10n.T("YAML configuration file")},
			&cli.StringFlag{Name: "log-level", Aliases: []string{"l"}, Usage: l10n.T("Log level (debug, info, warn, error)")},
			&cli.BoolFlag{Name: "quiet", Aliases: []string{"Q"}, Usage: l10n.T("Suppress all log output")},
		},
		Commands: []*cli.Command{
			playCommand(),
			probeCommand(),
			{
				Name:  "version",
				Usage: l10n.T("Show version information"),
				Action: func(c *cli.Context) error {
					fmt.Fprintln(c.App.Writer, l10n.F("movieview version %s", version))
					return nil
				},
			},
		},
	}
}

func playCommand() *cli.Command {
	return &cli.Command{
		Name:      "play",
		Usage:     l10n.T("Play a clip on an offscreen surface"),
		ArgsUsage: "[source]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "assets-dir", Aliases: []string{"a"}, Usage: l10n.T("Directory that source names are resolved in")},
			&cli.BoolFlag{Name: "no-loop", Usage: l10n.T("Stop at the end of the clip")},
			&cli.IntFlag{Name: "cadence-ms", Usage: l10n.T("Render pump interval in milliseconds")},
			&cli.BoolFlag{Name: "detach-on-destroy", Usage: l10n.T("Do not wait for the render pump when the surface is destroyed")},
			&cli.IntFlag{Name: "width", Aliases: []string{"W"}, Usage: l10n.T("Surface width in pixels")},
			&cli.IntFlag{Name: "height", Aliases: []string{"H"}, Usage: l10n.T("Surface height in pixels")},
			&cli.StringFlag{Name: "background", Usage: l10n.T("Background color (hex, e.g., #000000)")},
			&cli.BoolFlag{Name: "fit", Usage: l10n.T("Scale frames larger than the surface down to fit")},
			&cli.IntFlag{Name: "play-ms", Usage: l10n.T("How long to keep the surface alive (0 = until playback ends)")},
			&cli.StringFlag{Name: "ffmpeg-path", EnvVars: []string{"FFMPEG_PATH"}, Usage: l10n.T("Path to ffmpeg executable")},
			&cli.BoolFlag{Name: "debug", Aliases: []string{"d"}, Usage: l10n.T("Enable debug output")},
			&cli.StringFlag{Name: "debug-dir", Usage: l10n.T("Directory for debug output")},
			&cli.StringFlag{Name: "summary", Usage: l10n.T("Output playback summary to file (Markdown format)")},
		},
		Action: runPlay,
	}
}

func probeCommand() *cli.Command {
	return &cli.Command{
		Name:      "probe",
		Usage:     l10n.T("Print the video format of an MP4 file"),
		ArgsUsage: "<file>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "json", Usage: l10n.T("Print as JSON")},
		},
		Action: runProbe,
	}
}

// loadConfig reads the config file, if any, and applies flag overrides.
func loadConfig(c *cli.Context) (config.Config, error) {
	cfg := config.Defaults()
	if path := c.String("config"); path != "" {
		var err error
		if cfg, err = config.LoadFromFile(path); err != nil {
			return cfg, err
		}
	}

	if c.Args().Present() {
		cfg.Source = c.Args().First()
	}
	if c.IsSet("assets-dir") {
		cfg.AssetsDir = c.String("assets-dir")
	}
	if c.Bool("no-loop") {
		cfg.Loop = false
	}
	if c.IsSet("cadence-ms") {
		cfg.CadenceMs = c.Int("cadence-ms")
	}
	if c.Bool("detach-on-destroy") {
		cfg.DetachOnDestroy = true
	}
	if c.IsSet("width") {
		cfg.SurfaceWidth = c.Int("width")
	}
	if c.IsSet("height") {
		cfg.SurfaceHeight = c.Int("height")
	}
	if c.IsSet("background") {
		cfg.BackgroundColor = c.String("background")
	}
	if c.Bool("fit") {
		cfg.FitLarger = true
	}
	if c.IsSet("play-ms") {
		cfg.PlayMs = c.Int("play-ms")
	}
	if c.IsSet("ffmpeg-path") {
		cfg.FFmpegPath = c.String("ffmpeg-path")
	}
	if c.Bool("debug") {
		cfg.Debug = true
	}
	if c.IsSet("debug-dir") {
		cfg.DebugDir = c.String("debug-dir")
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}

	return cfg, cfg.Validate()
}

func newLogger(c *cli.Context, cfg config.Config) ports.Logger {
	if c.Bool("quiet") {
		return logger.NewNoop()
	}
	return logger.NewConsole(cfg.Level())
}

func runPlay(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if cfg.Source == "" {
		return cli.Exit(l10n.T("Source argument is required"), 2)
	}
	log := newLogger(c, cfg)

	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			log.Warn(l10n.T("Interrupted, shutting down..."))
			cancel()
		case <-ctx.Done():
		}
	}()

	fs := osfilesystem.New()
	assets := osfilesystem.NewAssetDir(cfg.AssetsDir, fs)
	decoder := smartdecoder.New(smartdecoder.Options{
		FFmpegPath: cfg.FFmpegPath,
		Context:    ctx,
		Logger:     log,
	})
	sess := clipsession.New(assets, decoder, clipsession.WithLogger(log))

	surface := ggsurface.New(cfg.SurfaceWidth, cfg.SurfaceHeight, ggsurface.Options{
		Background: config.ParseColor(cfg.BackgroundColor),
		FitLarger:  cfg.FitLarger,
	})

	var sink ports.DebugSink
	if cfg.Debug {
		if err := fs.MkdirAll(cfg.DebugDir); err != nil {
			return fmt.Errorf("create debug directory: %w", err)
		}
		sink = filesink.New(cfg.DebugDir, fs, surface)
	} else {
		sink = nullsink.New()
	}

	ctrl := lifecycle.New(sess, cfg.ToControllerOptions(), sink, log)
	defer ctrl.Release()

	if err := ctrl.SurfaceCreated(ctx, surface); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}
	ctrl.SurfaceChanged(formatRGBA8888, cfg.SurfaceWidth, cfg.SurfaceHeight)

	started := time.Now()
	var deadline <-chan time.Time
	if d := cfg.PlayDuration(); d > 0 {
		timer := time.NewTimer(d)
		defer timer.Stop()
		deadline = timer.C
	}

	select {
	case <-ctx.Done():
	case <-ctrl.Done():
	case <-deadline:
	}

	position, duration := ctrl.Position(), ctrl.Duration()
	ctrl.SurfaceDestroyed()
	ctrl.Release()

	stats := ctrl.Stats()
	log.Info(l10n.F("Played %d of %d ms: %d frames presented in %d cycles", position, duration, stats.Presents, stats.Cycles))
	if cfg.Debug {
		log.Info(l10n.F("Debug output saved to %s", cfg.DebugDir))
	}

	if path := c.String("summary"); path != "" {
		summary := summarizer.NewBuilder().
			WithSource(sourceInfo(assets, cfg.Source)).
			WithSettings(summarizer.Settings{
				Loop:            cfg.Loop,
				CadenceMs:       cfg.CadenceMs,
				DetachOnDestroy: cfg.DetachOnDestroy,
				SurfaceWidth:    cfg.SurfaceWidth,
				SurfaceHeight:   cfg.SurfaceHeight,
				FitLarger:       cfg.FitLarger,
			}).
			WithPlayback(summarizer.PlaybackInfo{
				PositionMs: position,
				WallMs:     time.Since(started).Milliseconds(),
				Cycles:     stats.Cycles,
				Updates:    stats.Updates,
				Presents:   stats.Presents,
				Skipped:    stats.Skipped,
			}).
			Build()
		formatter := summarizer.NewMarkdownFormatter(summarizer.WithTranslator(l10n.T), summarizer.WithVersion(version))
		if err := summarizer.NewWriter(formatter, fs).Write(path, summary); err != nil {
			log.Error(l10n.F("Failed to write summary: %s", err))
		} else {
			log.Info(l10n.F("Summary saved to %s", path))
		}
	}
	return nil
}

// sourceInfo probes the played asset for the summary. Probe failures leave
// the format fields empty.
func sourceInfo(assets ports.AssetProvider, name string) summarizer.SourceInfo {
	info := summarizer.SourceInfo{Name: name}
	r, err := assets.Open(name)
	if err != nil {
		return info
	}
	defer r.Close()

	if size, err := r.Seek(0, io.SeekEnd); err == nil {
		info.SizeBytes = size
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return info
	}
	if format, err := codecdetect.Probe(r); err == nil {
		info.Codec = format.Codec
		info.Width = format.Width
		info.Height = format.Height
		info.DurationMs = format.DurationMs
		info.FrameRate = format.FrameRate
	}
	return info
}

// probeResult is the JSON shape printed by probe --json.
type probeResult struct {
	File       string  `json:"file"`
	Codec      string  `json:"codec"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	DurationMs int64   `json:"duration_ms"`
	FrameRate  float64 `json:"frame_rate"`
}

func runProbe(c *cli.Context) error {
	if !c.Args().Present() {
		return cli.Exit(l10n.T("File argument is required"), 2)
	}
	path := c.Args().First()

	format, err := codecdetect.ProbeFile(path)
	if err != nil {
		if errors.Is(err, codecdetect.ErrNoVideoTrack) {
			return cli.Exit(l10n.F("%s has no video track", path), 1)
		}
		return err
	}

	if c.Bool("json") {
		enc := json.NewEncoder(c.App.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(probeResult{
			File:       path,
			Codec:      format.Codec,
			Width:      format.Width,
			Height:     format.Height,
			DurationMs: format.DurationMs,
			FrameRate:  format.FrameRate,
		})
	}

	fmt.Fprintln(c.App.Writer, l10n.F("%s: %s %dx%d, %d ms, %.2f fps", path, format.Codec, format.Width, format.Height, format.DurationMs, format.FrameRate))
	return nil
}
