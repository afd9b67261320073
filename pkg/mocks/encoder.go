package mocks

import (
	"image"
	"sync"

	"github.com/user/movieview/pkg/ports"
)

// ImageEncoder is a mock implementation of ports.ImageEncoder.
type ImageEncoder struct {
	mu sync.Mutex

	EncodePNGFunc func(img image.Image) ([]byte, error)

	encoded []image.Image
}

func (m *ImageEncoder) EncodePNG(img image.Image) ([]byte, error) {
	m.mu.Lock()
	m.encoded = append(m.encoded, img)
	fn := m.EncodePNGFunc
	m.mu.Unlock()
	if fn != nil {
		return fn(img)
	}
	return []byte("png"), nil
}

// Encoded returns the images passed to EncodePNG.
func (m *ImageEncoder) Encoded() []image.Image {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]image.Image(nil), m.encoded...)
}

var _ ports.ImageEncoder = (*ImageEncoder)(nil)
