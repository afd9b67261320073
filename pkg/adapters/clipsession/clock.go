package clipsession

import (
	"sync"
	"time"
)

// Clock maps wall time to media time. A running clock advances media time
// from an anchor pair (media, real); a paused clock holds it still.
type Clock struct {
	mu      sync.Mutex
	now     func() time.Time
	running bool
	anchorM time.Duration
	anchorR time.Time
	rate    float64
}

// NewClock creates a paused clock at media time zero. A nil now uses time.Now.
func NewClock(now func() time.Time) *Clock {
	if now == nil {
		now = time.Now
	}
	return &Clock{now: now, rate: 1}
}

// Start anchors media time at and starts the clock.
func (c *Clock) Start(at time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.anchorM = at
	c.anchorR = c.now()
	c.running = true
}

// Pause freezes media time.
func (c *Clock) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running {
		return
	}
	c.anchorM = c.mediaLocked()
	c.running = false
}

// Resume continues from the frozen media time.
func (c *Clock) Resume() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return
	}
	c.anchorR = c.now()
	c.running = true
}

// Seek moves media time to at, keeping the running state.
func (c *Clock) Seek(at time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.anchorM = at
	c.anchorR = c.now()
}

// SetRate sets the playback rate. Non-positive rates are ignored.
func (c *Clock) SetRate(rate float64) {
	if rate <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.anchorM = c.mediaLocked()
	c.anchorR = c.now()
	c.rate = rate
}

// Running reports whether media time is advancing.
func (c *Clock) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// MediaTime returns the current media time.
func (c *Clock) MediaTime() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mediaLocked()
}

func (c *Clock) mediaLocked() time.Duration {
	if !c.running {
		return c.anchorM
	}
	elapsed := c.now().Sub(c.anchorR)
	return c.anchorM + time.Duration(float64(elapsed)*c.rate)
}
