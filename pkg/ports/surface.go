package ports

import "image"

// DrawTarget is a locked backing buffer of a display surface.
type DrawTarget interface {
	// Size returns the target dimensions in pixels.
	Size() (width, height int)
}

// DisplaySurface abstracts a surface that frames are presented on.
type DisplaySurface interface {
	// Lock acquires the backing buffer for drawing.
	// It returns false when the surface is temporarily unavailable.
	Lock() (DrawTarget, bool)

	// Draw draws img onto the target with its top-left corner at (x, y).
	Draw(target DrawTarget, img image.Image, x, y int)

	// UnlockAndPresent releases the target and shows its contents.
	UnlockAndPresent(target DrawTarget)
}

// ImageEncoder encodes images for storage.
type ImageEncoder interface {
	// EncodePNG encodes img as PNG.
	EncodePNG(img image.Image) ([]byte, error)
}
