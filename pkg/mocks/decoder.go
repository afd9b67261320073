package mocks

import (
	"errors"
	"image"
	"image/color"
	"io"
	"sync"

	"github.com/user/movieview/pkg/ports"
)

// VideoDecoder is a mock implementation of ports.VideoDecoder.
type VideoDecoder struct {
	mu sync.Mutex

	Frames []ports.VideoFrame
	Err    error

	ReadFunc func(reader io.ReadSeeker) ([]ports.VideoFrame, error)

	reads  int
	closed bool
}

func (m *VideoDecoder) ReadFramesFromReader(reader io.ReadSeeker) ([]ports.VideoFrame, error) {
	m.mu.Lock()
	m.reads++
	fn := m.ReadFunc
	m.mu.Unlock()
	if fn != nil {
		return fn(reader)
	}
	if m.Err != nil {
		return nil, m.Err
	}
	if len(m.Frames) == 0 {
		return nil, errors.New("no frames")
	}
	return m.Frames, nil
}

func (m *VideoDecoder) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
}

// Reads returns the number of decode calls.
func (m *VideoDecoder) Reads() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reads
}

// Closed reports whether Close was called.
func (m *VideoDecoder) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

var _ ports.VideoDecoder = (*VideoDecoder)(nil)

// SolidFrames builds n frames of the given size, each filled with a distinct
// grey level, spaced durationMs apart.
func SolidFrames(n, width, height, durationMs int) []ports.VideoFrame {
	frames := make([]ports.VideoFrame, n)
	for i := range frames {
		img := image.NewRGBA(image.Rect(0, 0, width, height))
		c := color.RGBA{R: uint8(i * 10), G: uint8(i * 10), B: uint8(i * 10), A: 255}
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				img.SetRGBA(x, y, c)
			}
		}
		frames[i] = ports.VideoFrame{
			Image:       img,
			TimestampMs: i * durationMs,
			Duration:    durationMs,
		}
	}
	return frames
}
