package ports

import (
	"image"
)

// DebugSink abstracts debug output for intermediate results.
// It allows saving session metadata and presented frames for inspection.
type DebugSink interface {
	// Enabled returns true if debug output is enabled.
	Enabled() bool

	// SaveSessionJSON saves the session summary as JSON.
	SaveSessionJSON(data []byte) error

	// SavePresentedFrame saves a frame as it was presented on the surface.
	SavePresentedFrame(index int, img image.Image) error
}
