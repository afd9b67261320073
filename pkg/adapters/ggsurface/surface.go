// Package ggsurface provides an offscreen display surface drawn with the gg library.
package ggsurface

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"sync"

	"github.com/fogleman/gg"
	"golang.org/x/image/draw"

	"github.com/user/movieview/pkg/ports"
)

// Options configures a Surface.
type Options struct {
	// Background fills the canvas before every frame.
	Background color.Color

	// FitLarger scales frames that exceed the canvas down to fit, keeping
	// their aspect ratio.
	FitLarger bool

	// OnPresent is called after each present with the presented canvas.
	// The image is only valid for the duration of the call.
	OnPresent func(n int, img image.Image)
}

// Surface implements ports.DisplaySurface on an in-memory gg.Context.
type Surface struct {
	opts Options

	mu        sync.Mutex
	dc        *gg.Context
	available bool
	locked    bool
	presents  int
	last      *image.RGBA
}

// New creates a width×height surface.
func New(width, height int, opts Options) *Surface {
	if opts.Background == nil {
		opts.Background = color.Black
	}
	return &Surface{
		opts:      opts,
		dc:        gg.NewContext(width, height),
		available: true,
	}
}

// Canvas is the locked target of a Surface.
type Canvas struct {
	dc *gg.Context
}

// Size returns the canvas dimensions.
func (c *Canvas) Size() (int, int) {
	return c.dc.Width(), c.dc.Height()
}

// SetAvailable toggles whether Lock hands out the canvas.
func (s *Surface) SetAvailable(available bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.available = available
}

// Lock clears the canvas to the background colour and returns it.
func (s *Surface) Lock() (ports.DrawTarget, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.available || s.locked {
		return nil, false
	}
	s.locked = true
	s.dc.SetColor(s.opts.Background)
	s.dc.Clear()
	return &Canvas{dc: s.dc}, true
}

// Draw draws img onto the canvas at (x, y).
func (s *Surface) Draw(target ports.DrawTarget, img image.Image, x, y int) {
	c, ok := target.(*Canvas)
	if !ok {
		return
	}

	w, h := c.Size()
	b := img.Bounds()
	if s.opts.FitLarger && (b.Dx() > w || b.Dy() > h) {
		img = fit(img, w, h)
		b = img.Bounds()
		x, y = (w-b.Dx())/2, (h-b.Dy())/2
	}
	c.dc.DrawImage(img, x, y)
}

// UnlockAndPresent publishes the canvas.
func (s *Surface) UnlockAndPresent(target ports.DrawTarget) {
	s.mu.Lock()
	if !s.locked {
		s.mu.Unlock()
		return
	}
	s.locked = false
	s.presents++
	n := s.presents

	src := s.dc.Image()
	if s.last == nil {
		s.last = image.NewRGBA(src.Bounds())
	}
	draw.Draw(s.last, s.last.Bounds(), src, src.Bounds().Min, draw.Src)
	hook := s.opts.OnPresent
	last := s.last
	s.mu.Unlock()

	if hook != nil {
		hook(n, last)
	}
}

// Presents returns the number of presented frames.
func (s *Surface) Presents() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.presents
}

// Snapshot returns a copy of the last presented canvas, or nil before the first present.
func (s *Surface) Snapshot() *image.RGBA {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return nil
	}
	out := image.NewRGBA(s.last.Bounds())
	copy(out.Pix, s.last.Pix)
	return out
}

// EncodePNG encodes img as PNG.
func (s *Surface) EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := gg.NewContextForImage(img).EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode PNG: %w", err)
	}
	return buf.Bytes(), nil
}

// fit scales img down to fit within w×h.
func fit(img image.Image, w, h int) image.Image {
	b := img.Bounds()
	scale := float64(w) / float64(b.Dx())
	if sy := float64(h) / float64(b.Dy()); sy < scale {
		scale = sy
	}
	dw := int(float64(b.Dx()) * scale)
	dh := int(float64(b.Dy()) * scale)
	if dw < 1 {
		dw = 1
	}
	if dh < 1 {
		dh = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

var (
	_ ports.DisplaySurface = (*Surface)(nil)
	_ ports.ImageEncoder   = (*Surface)(nil)
)
