// Package h264decoder decodes H.264 elementary streams by piping them
// through an external ffmpeg process.
package h264decoder

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"sync"
)

var (
	// ErrDecodeFailed is returned when ffmpeg rejects the stream.
	ErrDecodeFailed = errors.New("h264decoder: decode failed")

	// ErrFFmpegNotFound is returned when no ffmpeg binary can be located.
	ErrFFmpegNotFound = errors.New("h264decoder: ffmpeg not found in PATH")
)

var (
	pathMu           sync.RWMutex
	customFFmpegPath string
)

// SetFFmpegPath overrides ffmpeg discovery. An empty path restores the default search.
func SetFFmpegPath(path string) {
	pathMu.Lock()
	defer pathMu.Unlock()
	customFFmpegPath = path
}

// IsAvailable reports whether an ffmpeg binary can be found.
func IsAvailable() bool {
	_, err := FindFFmpeg()
	return err == nil
}

// FindFFmpeg searches for ffmpeg.
// Priority: 1) SetFFmpegPath, 2) FFMPEG_PATH env, 3) PATH, 4) common locations
func FindFFmpeg() (string, error) {
	pathMu.RLock()
	custom := customFFmpegPath
	pathMu.RUnlock()

	if custom != "" {
		if _, err := os.Stat(custom); err == nil {
			return custom, nil
		}
		return "", fmt.Errorf("%w: custom path %s not found", ErrFFmpegNotFound, custom)
	}

	if envPath := os.Getenv("FFMPEG_PATH"); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath, nil
		}
		return "", fmt.Errorf("%w: FFMPEG_PATH %s not found", ErrFFmpegNotFound, envPath)
	}

	execName := "ffmpeg"
	if runtime.GOOS == "windows" {
		execName = "ffmpeg.exe"
	}
	if path, err := exec.LookPath(execName); err == nil {
		return path, nil
	}

	var commonPaths []string
	switch runtime.GOOS {
	case "windows":
		commonPaths = []string{
			`C:\ffmpeg\bin\ffmpeg.exe`,
			`C:\Program Files\ffmpeg\bin\ffmpeg.exe`,
		}
	case "darwin":
		commonPaths = []string{
			"/opt/homebrew/bin/ffmpeg",
			"/usr/local/bin/ffmpeg",
		}
	default:
		commonPaths = []string{
			"/usr/bin/ffmpeg",
			"/usr/local/bin/ffmpeg",
			"/snap/bin/ffmpeg",
		}
	}
	for _, p := range commonPaths {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", ErrFFmpegNotFound
}

// Decoder turns an Annex B byte stream into RGBA pictures.
type Decoder struct {
	ffmpegPath string
}

// New locates ffmpeg and returns a decoder that uses it.
func New() (*Decoder, error) {
	path, err := FindFFmpeg()
	if err != nil {
		return nil, err
	}
	return &Decoder{ffmpegPath: path}, nil
}

// DecodeStream decodes a whole Annex B stream of width×height pictures.
// Pictures come back in presentation order.
func (d *Decoder) DecodeStream(ctx context.Context, stream []byte, width, height int) ([]*image.RGBA, error) {
	if len(stream) == 0 || width <= 0 || height <= 0 {
		return nil, ErrDecodeFailed
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, d.ffmpegPath,
		"-hide_banner",
		"-loglevel", "error",
		"-f", "h264",
		"-i", "pipe:0",
		"-vsync", "passthrough",
		"-s", strconv.Itoa(width)+"x"+strconv.Itoa(height),
		"-pix_fmt", "rgba",
		"-f", "rawvideo",
		"pipe:1",
	)
	cmd.Stdin = bytes.NewReader(stream)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%w: %w", ErrDecodeFailed, ctxErr)
		}
		return nil, fmt.Errorf("%w: %v\nstderr: %s", ErrDecodeFailed, err, stderr.String())
	}

	return splitFrames(stdout.Bytes(), width, height)
}

// splitFrames cuts raw RGBA output into pictures.
func splitFrames(raw []byte, width, height int) ([]*image.RGBA, error) {
	frameLen := width * height * 4
	if len(raw) == 0 || len(raw)%frameLen != 0 {
		return nil, fmt.Errorf("%w: %d bytes is not a whole number of %dx%d frames", ErrDecodeFailed, len(raw), width, height)
	}

	n := len(raw) / frameLen
	frames := make([]*image.RGBA, n)
	for i := range frames {
		img := image.NewRGBA(image.Rect(0, 0, width, height))
		copy(img.Pix, raw[i*frameLen:(i+1)*frameLen])
		frames[i] = img
	}
	return frames, nil
}
