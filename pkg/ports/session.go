package ports

import (
	"errors"
	"io"
)

// ErrSourceOpen is returned when a media source cannot be opened or decoded.
var ErrSourceOpen = errors.New("session: source open failed")

// DecoderSession abstracts a decode engine that renders frames on its own
// schedule and hands them out on request.
//
// Create must precede every other call. Stop and Shutdown are idempotent and
// Shutdown is safe even if Create never succeeded.
type DecoderSession interface {
	// Create opens the named source. Failures wrap ErrSourceOpen.
	Create(source string) error

	// Start begins decoding. With loop set, end of stream restarts from the beginning.
	Start(loop bool)

	// Stop halts decoding without releasing resources.
	Stop()

	// Shutdown releases all resources and invalidates the handle.
	Shutdown()

	// IsPlaying reports whether decoding is active and not finished.
	IsPlaying() bool

	// PullFrame returns the pixels of the most recent frame if one became
	// available since the previous call. It never blocks.
	PullFrame() ([]byte, bool)

	// Width returns the frame width. Valid after a successful Create.
	Width() int

	// Height returns the frame height. Valid after a successful Create.
	Height() int

	// Position returns the playback position in milliseconds.
	Position() int64

	// Duration returns the stream duration in milliseconds.
	Duration() int64
}

// AssetProvider resolves source names to readable media.
type AssetProvider interface {
	// Open returns a seekable stream for the named asset.
	Open(name string) (io.ReadSeekCloser, error)
}
