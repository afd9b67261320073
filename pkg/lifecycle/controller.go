// Package lifecycle binds a decoder session and a render pump to the
// lifecycle of a display surface.
//
// Surface creation opens the session, latches the frame size, starts
// playback and launches one pump. Surface destruction cancels the pump and
// stops the session. The session is shut down only by Release.
package lifecycle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/ideamans/go-l10n"
	"github.com/user/movieview/pkg/framebuffer"
	"github.com/user/movieview/pkg/ports"
	"github.com/user/movieview/pkg/pump"
	"github.com/user/movieview/pkg/session"
)

var (
	// ErrSurfaceActive is returned when a surface is created while another is live.
	ErrSurfaceActive = errors.New("lifecycle: surface already active")
	// ErrReleased is returned when the controller is used after Release.
	ErrReleased = errors.New("lifecycle: controller released")
	// ErrInvalidFormat is returned when the session reports unusable frame dimensions.
	ErrInvalidFormat = errors.New("lifecycle: invalid video format")
	// ErrSurfaceLost is returned when the surface is destroyed while the session opens.
	ErrSurfaceLost = errors.New("lifecycle: surface destroyed during create")
)

// State is the surface state seen by the controller.
type State int

const (
	StateNoSurface State = iota
	StateSurfaceReady
	StateDestroyed
)

func (s State) String() string {
	switch s {
	case StateNoSurface:
		return "no-surface"
	case StateSurfaceReady:
		return "surface-ready"
	case StateDestroyed:
		return "destroyed"
	default:
		return "unknown"
	}
}

// Options configures a Controller.
type Options struct {
	// Source is the asset name passed to DecoderSession.Create.
	Source string
	// Loop restarts playback at end of stream.
	Loop bool
	// Cadence is the pump interval. Zero uses pump.DefaultCadence.
	Cadence time.Duration
	// DetachOnDestroy makes SurfaceDestroyed return without waiting for the
	// pump to exit before stopping the session.
	DetachOnDestroy bool
	// DumpEvery saves every Nth presented frame to the debug sink (0 = never).
	DumpEvery int
}

// SessionInfo is written to the debug sink when a session opens.
type SessionInfo struct {
	Source     string `json:"source"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	DurationMs int64  `json:"duration_ms"`
	Loop       bool   `json:"loop"`
	CadenceMs  int64  `json:"cadence_ms"`
}

// Controller owns one decoder session and at most one running pump.
type Controller struct {
	session *session.Guard
	opts    Options
	sink    ports.DebugSink
	logger  ports.Logger

	mu       sync.Mutex
	state    State
	creating bool
	opened   bool
	released bool
	fb       *framebuffer.FrameBuffer
	pump     *pump.Pump
	last     pump.Stats

	// detached pumps were cancelled but not yet observed to exit.
	detached []*pump.Pump
}

// New creates a controller for sess. The session is wrapped in a
// session.Guard and must not be used directly afterwards.
func New(sess ports.DecoderSession, opts Options, sink ports.DebugSink, logger ports.Logger) *Controller {
	return &Controller{
		session: session.NewGuard(sess),
		opts:    opts,
		sink:    sink,
		logger:  logger.WithComponent("lifecycle"),
	}
}

// State returns the current surface state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SurfaceCreated opens the session and starts rendering onto surface.
// If the source cannot be opened the error wraps ports.ErrSourceOpen and no
// pump is started.
//
// The session is opened without holding the controller lock, so state and
// position queries answer while a long decode runs. A surface destroyed or a
// controller released meanwhile leaves the session open but not started.
func (c *Controller) SurfaceCreated(ctx context.Context, surface ports.DisplaySurface) error {
	c.mu.Lock()
	if c.released {
		c.mu.Unlock()
		return ErrReleased
	}
	if c.pump != nil || c.creating {
		c.mu.Unlock()
		return ErrSurfaceActive
	}
	c.reapLocked()
	c.state = StateSurfaceReady
	c.opened = false
	c.creating = true
	c.mu.Unlock()

	c.logger.Info(l10n.F("Opening %s", c.opts.Source))
	err := c.session.Create(c.opts.Source)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.creating = false
	if err != nil {
		c.logger.Error(l10n.F("Failed to open %s: %s", c.opts.Source, err))
		return fmt.Errorf("create session: %w", err)
	}
	if c.released {
		return ErrReleased
	}
	c.opened = true
	if c.state != StateSurfaceReady {
		return ErrSurfaceLost
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("create session: %w", err)
	}

	width, height := c.session.Width(), c.session.Height()
	fb, err := framebuffer.New(width, height)
	if err != nil {
		c.logger.Error(l10n.F("Failed to open %s: %s", c.opts.Source, err))
		return fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	c.fb = fb
	c.logger.Debug("Frame buffer allocated: %dx%d (%d bytes)", width, height, fb.Len())

	c.saveSessionInfo(width, height)

	c.session.Start(c.opts.Loop)

	p := pump.New(c.session, fb, surface, pump.Options{
		Cadence:   c.opts.Cadence,
		Logger:    c.logger,
		OnPresent: c.dumpFrame,
	})
	if err := p.Start(ctx); err != nil {
		return fmt.Errorf("start pump: %w", err)
	}
	c.pump = p

	c.logger.Info(l10n.F("Playback started: %dx%d, loop=%t", width, height, c.opts.Loop))
	return nil
}

// SurfaceChanged records a surface size or format change. Rendering adapts
// on the next lock, so nothing else happens here.
func (c *Controller) SurfaceChanged(format, width, height int) {
	c.logger.Debug("Surface changed: format=%d %dx%d", format, width, height)
}

// SurfaceDestroyed cancels the pump and stops the session. Unless
// DetachOnDestroy is set, it waits for the pump to exit before Stop, so no
// pull or present can follow it.
func (c *Controller) SurfaceDestroyed() {
	c.mu.Lock()
	p := c.pump
	c.pump = nil
	opened := c.opened
	if c.state == StateSurfaceReady {
		c.state = StateDestroyed
	}
	c.mu.Unlock()

	if p != nil {
		p.Cancel()
		if !c.opts.DetachOnDestroy {
			p.Wait()
		}
		stats := p.Stats()
		c.mu.Lock()
		c.last = stats
		if c.opts.DetachOnDestroy {
			c.detached = append(c.detached, p)
		}
		c.mu.Unlock()
		c.logger.Info(l10n.F("Render pump stopped: %d frames presented, %d skipped", stats.Presents, stats.Skipped))
	}

	if opened {
		c.session.Stop()
	}
}

// Release tears down any live surface and shuts the session down.
// Subsequent calls are no-ops.
func (c *Controller) Release() {
	c.mu.Lock()
	if c.released {
		c.mu.Unlock()
		return
	}
	live := c.pump != nil
	c.mu.Unlock()

	if live {
		c.SurfaceDestroyed()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.reapLocked()
	c.released = true
	c.opened = false
	c.session.Shutdown()
	c.logger.Info(l10n.T("Session released"))
}

// Done returns a channel closed when the current pump exits, or nil if none runs.
func (c *Controller) Done() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pump == nil {
		return nil
	}
	return c.pump.Done()
}

// Stats returns the counters of the running pump, or of the last one.
func (c *Controller) Stats() pump.Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pump != nil {
		return c.pump.Stats()
	}
	return c.last
}

// Position returns the playback position, or 0 when no session is open.
func (c *Controller) Position() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.opened {
		return 0
	}
	return c.session.Position()
}

// Duration returns the stream duration, or 0 when no session is open.
func (c *Controller) Duration() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.opened {
		return 0
	}
	return c.session.Duration()
}

// reapLocked waits for detached pumps so that a new pump or Shutdown never
// overlaps an old pump. Pumps never take c.mu, so waiting under it is safe.
func (c *Controller) reapLocked() {
	for _, p := range c.detached {
		p.Wait()
	}
	c.detached = nil
}

func (c *Controller) saveSessionInfo(width, height int) {
	if c.sink == nil || !c.sink.Enabled() {
		return
	}
	cadence := c.opts.Cadence
	if cadence <= 0 {
		cadence = pump.DefaultCadence
	}
	info := SessionInfo{
		Source:     c.opts.Source,
		Width:      width,
		Height:     height,
		DurationMs: c.session.Duration(),
		Loop:       c.opts.Loop,
		CadenceMs:  cadence.Milliseconds(),
	}
	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return
	}
	if err := c.sink.SaveSessionJSON(data); err != nil {
		c.logger.Warn(l10n.F("Failed to save debug output: %s", err))
	}
}

// dumpFrame runs on the pump goroutine, which is the only writer of the
// frame buffer, so the image is stable for the duration of the call.
func (c *Controller) dumpFrame(n int64, img image.Image) {
	if c.opts.DumpEvery <= 0 || c.sink == nil || !c.sink.Enabled() {
		return
	}
	if n%int64(c.opts.DumpEvery) != 0 {
		return
	}
	if err := c.sink.SavePresentedFrame(int(n), cloneImage(img)); err != nil {
		c.logger.Warn(l10n.F("Failed to save debug output: %s", err))
	}
}

func cloneImage(img image.Image) image.Image {
	src, ok := img.(*image.RGBA)
	if !ok {
		return img
	}
	dst := image.NewRGBA(src.Rect)
	copy(dst.Pix, src.Pix)
	return dst
}
