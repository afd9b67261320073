package mocks

import (
	"image"
	"sync"

	"github.com/user/movieview/pkg/ports"
)

// Target is a mock implementation of ports.DrawTarget.
type Target struct {
	W, H int
}

func (t *Target) Size() (int, int) { return t.W, t.H }

var _ ports.DrawTarget = (*Target)(nil)

// DrawCall records one Draw invocation.
type DrawCall struct {
	X, Y int
	Pix  []byte
}

// Surface is a counting mock implementation of ports.DisplaySurface.
type Surface struct {
	mu sync.Mutex

	W, H        int
	unavailable bool

	locks    int
	draws    []DrawCall
	presents int

	// OnPresent runs after each UnlockAndPresent, outside the mock's lock.
	OnPresent func(n int)
}

// NewSurface creates an available mock surface of the given size.
func NewSurface(width, height int) *Surface {
	return &Surface{W: width, H: height}
}

// SetAvailable toggles whether Lock yields a target.
func (m *Surface) SetAvailable(available bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unavailable = !available
}

func (m *Surface) Lock() (ports.DrawTarget, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locks++
	if m.unavailable {
		return nil, false
	}
	return &Target{W: m.W, H: m.H}, true
}

func (m *Surface) Draw(target ports.DrawTarget, img image.Image, x, y int) {
	var pix []byte
	if rgba, ok := img.(*image.RGBA); ok {
		pix = append([]byte(nil), rgba.Pix...)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.draws = append(m.draws, DrawCall{X: x, Y: y, Pix: pix})
}

func (m *Surface) UnlockAndPresent(target ports.DrawTarget) {
	m.mu.Lock()
	m.presents++
	n := m.presents
	hook := m.OnPresent
	m.mu.Unlock()
	if hook != nil {
		hook(n)
	}
}

// Locks returns the number of Lock calls.
func (m *Surface) Locks() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.locks
}

// Draws returns a copy of the recorded draw calls.
func (m *Surface) Draws() []DrawCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]DrawCall(nil), m.draws...)
}

// Presents returns the number of UnlockAndPresent calls.
func (m *Surface) Presents() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.presents
}

var _ ports.DisplaySurface = (*Surface)(nil)
