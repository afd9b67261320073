// Package framebuffer provides the fixed-size pixel buffer that decoded
// frames are copied into before presentation.
//
// Pixels are packed 4 bytes each in R,G,B,A memory order, which reads as
// 0xAABBGGRR on a little-endian load. This matches image.RGBA.Pix, so the
// buffer can be drawn without conversion.
package framebuffer

import (
	"errors"
	"fmt"
	"image"
)

// BytesPerPixel is the size of one packed pixel.
const BytesPerPixel = 4

// ErrInvalidSize is returned when a buffer is requested with a non-positive dimension.
var ErrInvalidSize = errors.New("framebuffer: invalid size")

// FrameSource yields freshly rendered frames. It is satisfied by ports.DecoderSession.
type FrameSource interface {
	PullFrame() ([]byte, bool)
}

// FrameBuffer holds one frame. Its dimensions are fixed at construction.
type FrameBuffer struct {
	width  int
	height int
	img    *image.RGBA
}

// New allocates a buffer of width*height pixels.
func New(width, height int) (*FrameBuffer, error) {
	if width < 1 || height < 1 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	return &FrameBuffer{
		width:  width,
		height: height,
		img:    image.NewRGBA(image.Rect(0, 0, width, height)),
	}, nil
}

// Width returns the buffer width in pixels.
func (fb *FrameBuffer) Width() int { return fb.width }

// Height returns the buffer height in pixels.
func (fb *FrameBuffer) Height() int { return fb.height }

// Len returns the buffer size in bytes.
func (fb *FrameBuffer) Len() int { return len(fb.img.Pix) }

// Pix returns the backing pixel slice. Callers must not retain it across updates.
func (fb *FrameBuffer) Pix() []byte { return fb.img.Pix }

// Image returns an image view sharing the buffer's pixels.
func (fb *FrameBuffer) Image() *image.RGBA { return fb.img }

// Update pulls one frame from src and copies it into the buffer.
// It reports whether new content arrived. When nothing is ready the
// buffer is left untouched. The source slice is not retained.
func (fb *FrameBuffer) Update(src FrameSource) bool {
	data, ok := src.PullFrame()
	if !ok || data == nil {
		return false
	}
	copy(fb.img.Pix, data)
	return true
}
