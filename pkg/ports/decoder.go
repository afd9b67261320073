package ports

import (
	"image"
	"io"
)

// VideoFrame represents a decoded video frame with timing information.
type VideoFrame struct {
	Image       image.Image
	TimestampMs int
	Duration    int // Duration in milliseconds
}

// VideoFormat describes the video track of a media source.
type VideoFormat struct {
	Codec      string
	Width      int
	Height     int
	DurationMs int64
	FrameRate  float64
}

// VideoDecoder abstracts video decoding operations.
type VideoDecoder interface {
	// ReadFramesFromReader reads and decodes all frames from an io.ReadSeeker.
	ReadFramesFromReader(reader io.ReadSeeker) ([]VideoFrame, error)

	// Close releases decoder resources.
	Close()
}
