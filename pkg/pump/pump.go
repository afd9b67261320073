// Package pump implements the render pump: a goroutine that polls a decoder
// session for new frames and presents them on a display surface.
//
// Each cycle checks IsPlaying, then pulls a frame into the frame buffer, then
// presents it if a draw target is available. The order never changes. The
// pump exits when the session stops playing or when it is cancelled.
package pump

import (
	"context"
	"errors"
	"image"
	"sync"
	"sync/atomic"
	"time"

	"github.com/user/movieview/pkg/framebuffer"
	"github.com/user/movieview/pkg/ports"
)

// DefaultCadence is the interval between cycles.
const DefaultCadence = 10 * time.Millisecond

// ErrAlreadyStarted is returned when Start is called on a pump that left Idle.
var ErrAlreadyStarted = errors.New("pump: already started")

// State is the pump's lifecycle state.
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Session is the part of a decoder session the pump uses.
type Session interface {
	IsPlaying() bool
	PullFrame() ([]byte, bool)
}

// Options configures a Pump.
type Options struct {
	// Cadence is the wait between cycles. Zero means DefaultCadence.
	Cadence time.Duration
	// Logger receives debug output. Nil disables logging.
	Logger ports.Logger
	// OnPresent is called after each successful present with the present count.
	OnPresent func(n int64, img image.Image)
}

// Stats counts pump activity.
type Stats struct {
	Cycles   int64
	Updates  int64
	Presents int64
	Skipped  int64 // updates dropped because the surface was unavailable
}

// Pump drives one session onto one surface.
type Pump struct {
	session Session
	fb      *framebuffer.FrameBuffer
	surface ports.DisplaySurface
	cadence time.Duration
	logger  ports.Logger
	onPres  func(int64, image.Image)

	state atomic.Int32

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}

	cycles, updates, presents, skipped atomic.Int64
}

// New creates an idle pump.
func New(session Session, fb *framebuffer.FrameBuffer, surface ports.DisplaySurface, opts Options) *Pump {
	cadence := opts.Cadence
	if cadence <= 0 {
		cadence = DefaultCadence
	}
	p := &Pump{
		session: session,
		fb:      fb,
		surface: surface,
		cadence: cadence,
		onPres:  opts.OnPresent,
		done:    make(chan struct{}),
	}
	if opts.Logger != nil {
		p.logger = opts.Logger.WithComponent("pump")
	}
	return p
}

// Start moves the pump to Running and spawns its goroutine.
// The goroutine exits when ctx is cancelled, Cancel is called, or the
// session stops playing.
func (p *Pump) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.state.CompareAndSwap(int32(StateIdle), int32(StateRunning)) {
		return ErrAlreadyStarted
	}
	ctx, p.cancel = context.WithCancel(ctx)

	go p.run(ctx)
	return nil
}

// Cancel signals the pump to stop. It does not wait for the goroutine.
// Safe to call in any state and more than once.
func (p *Pump) Cancel() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		p.cancel()
		return
	}
	// Never started: go straight to Stopped so Wait returns.
	if p.state.CompareAndSwap(int32(StateIdle), int32(StateStopped)) {
		close(p.done)
	}
}

// Wait blocks until the pump goroutine has exited.
func (p *Pump) Wait() {
	<-p.done
}

// Done returns a channel that is closed when the pump has exited.
func (p *Pump) Done() <-chan struct{} {
	return p.done
}

// State returns the current state.
func (p *Pump) State() State {
	return State(p.state.Load())
}

// Stats returns a snapshot of the activity counters.
func (p *Pump) Stats() Stats {
	return Stats{
		Cycles:   p.cycles.Load(),
		Updates:  p.updates.Load(),
		Presents: p.presents.Load(),
		Skipped:  p.skipped.Load(),
	}
}

func (p *Pump) run(ctx context.Context) {
	defer func() {
		p.state.Store(int32(StateStopped))
		close(p.done)
		p.debug("Render pump stopped after %d cycles", p.cycles.Load())
	}()

	p.debug("Render pump started at %v cadence", p.cadence)

	timer := time.NewTimer(p.cadence)
	defer timer.Stop()

	for {
		if ctx.Err() != nil {
			return
		}
		if !p.session.IsPlaying() {
			return
		}
		p.cycle()

		timer.Reset(p.cadence)
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
	}
}

// cycle performs one pull and, if a new frame arrived, one present.
func (p *Pump) cycle() {
	p.cycles.Add(1)
	if !p.fb.Update(p.session) {
		return
	}
	p.updates.Add(1)

	target, ok := p.surface.Lock()
	if !ok {
		p.skipped.Add(1)
		return
	}
	x, y := Center(target, p.fb.Width(), p.fb.Height())
	img := p.fb.Image()
	p.surface.Draw(target, img, x, y)
	p.surface.UnlockAndPresent(target)

	n := p.presents.Add(1)
	if p.onPres != nil {
		p.onPres(n, img)
	}
}

// Center returns the offset that centres a w×h frame on target.
// Offsets are negative when the frame is larger than the target.
func Center(target ports.DrawTarget, w, h int) (int, int) {
	tw, th := target.Size()
	return (tw - w) / 2, (th - h) / 2
}

func (p *Pump) debug(msg string, args ...interface{}) {
	if p.logger != nil {
		p.logger.Debug(msg, args...)
	}
}
