// Package session serialises access to a decoder session shared by the
// lifecycle thread and the render pump, and enforces handle validity.
package session

import (
	"fmt"
	"sync"

	"github.com/user/movieview/pkg/ports"
)

// HandleState is the validity state of a guarded session handle.
type HandleState int

const (
	// StateFresh means Create has not succeeded yet.
	StateFresh HandleState = iota
	// StateOpen means the source is open and every operation is allowed.
	StateOpen
	// StateShut means Shutdown was issued and the handle is dead.
	StateShut
)

func (s HandleState) String() string {
	switch s {
	case StateFresh:
		return "fresh"
	case StateOpen:
		return "open"
	case StateShut:
		return "shut"
	default:
		return "unknown"
	}
}

// StaleHandleError is the panic value raised when an operation is issued
// on a handle that is not open.
type StaleHandleError struct {
	Op    string
	State HandleState
}

func (e *StaleHandleError) Error() string {
	return fmt.Sprintf("session: %s on %s handle", e.Op, e.State)
}

// Guard wraps a ports.DecoderSession with a mutex so that Stop cannot
// interleave with IsPlaying or PullFrame.
type Guard struct {
	mu    sync.Mutex
	inner ports.DecoderSession
	state HandleState
}

// NewGuard wraps inner.
func NewGuard(inner ports.DecoderSession) *Guard {
	return &Guard{inner: inner}
}

// State returns the current handle state.
func (g *Guard) State() HandleState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// mustOpen panics unless the handle is open. Callers hold g.mu.
func (g *Guard) mustOpen(op string) {
	if g.state != StateOpen {
		panic(&StaleHandleError{Op: op, State: g.state})
	}
}

// Create opens source. It may be called again to reopen the handle.
// On failure the handle falls back to StateFresh.
func (g *Guard) Create(source string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.inner.Create(source); err != nil {
		g.state = StateFresh
		return err
	}
	g.state = StateOpen
	return nil
}

func (g *Guard) Start(loop bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.mustOpen("Start")
	g.inner.Start(loop)
}

func (g *Guard) Stop() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.mustOpen("Stop")
	g.inner.Stop()
}

// Shutdown releases the inner session. Repeated calls are no-ops.
func (g *Guard) Shutdown() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state == StateShut {
		return
	}
	g.inner.Shutdown()
	g.state = StateShut
}

func (g *Guard) IsPlaying() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.mustOpen("IsPlaying")
	return g.inner.IsPlaying()
}

func (g *Guard) PullFrame() ([]byte, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.mustOpen("PullFrame")
	return g.inner.PullFrame()
}

func (g *Guard) Width() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.mustOpen("Width")
	return g.inner.Width()
}

func (g *Guard) Height() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.mustOpen("Height")
	return g.inner.Height()
}

func (g *Guard) Position() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.mustOpen("Position")
	return g.inner.Position()
}

func (g *Guard) Duration() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.mustOpen("Duration")
	return g.inner.Duration()
}

var _ ports.DecoderSession = (*Guard)(nil)
