package mocks

import (
	"sync"

	"github.com/user/movieview/pkg/ports"
)

// DecoderSession is a recording mock implementation of ports.DecoderSession.
// Every call is appended to a log so tests can assert ordering.
type DecoderSession struct {
	mu sync.Mutex

	W, H       int
	PositionMs int64
	DurationMs int64

	// Frames are handed out one per PullFrame. A nil entry means "nothing new".
	Frames [][]byte
	// Repeat is returned by PullFrame once Frames is exhausted, if non-nil.
	Repeat []byte
	// PlayingPulls makes IsPlaying turn false once this many pulls happened (0 = never).
	PlayingPulls int

	CreateFunc    func(source string) error
	PullHook      func(pull int)
	IsPlayingFunc func() bool

	calls   []string
	pulls   int
	playing bool
	loop    bool
}

// NewDecoderSession creates a mock session reporting the given dimensions.
func NewDecoderSession(width, height int) *DecoderSession {
	return &DecoderSession{W: width, H: height}
}

func (m *DecoderSession) record(op string) {
	m.calls = append(m.calls, op)
}

func (m *DecoderSession) Create(source string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("Create")
	if m.CreateFunc != nil {
		return m.CreateFunc(source)
	}
	return nil
}

func (m *DecoderSession) Start(loop bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("Start")
	m.playing = true
	m.loop = loop
}

func (m *DecoderSession) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("Stop")
	m.playing = false
}

func (m *DecoderSession) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("Shutdown")
	m.playing = false
}

func (m *DecoderSession) IsPlaying() bool {
	m.mu.Lock()
	m.record("IsPlaying")
	fn := m.IsPlayingFunc
	playing := m.playing && (m.PlayingPulls == 0 || m.pulls < m.PlayingPulls)
	m.mu.Unlock()
	if fn != nil {
		return fn()
	}
	return playing
}

func (m *DecoderSession) PullFrame() ([]byte, bool) {
	m.mu.Lock()
	m.record("PullFrame")
	m.pulls++
	n := m.pulls
	hook := m.PullHook

	var frame []byte
	if len(m.Frames) > 0 {
		frame = m.Frames[0]
		m.Frames = m.Frames[1:]
	} else {
		frame = m.Repeat
	}
	m.mu.Unlock()

	if hook != nil {
		hook(n)
	}
	if frame == nil {
		return nil, false
	}
	return frame, true
}

func (m *DecoderSession) Width() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("Width")
	return m.W
}

func (m *DecoderSession) Height() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("Height")
	return m.H
}

func (m *DecoderSession) Position() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("Position")
	return m.PositionMs
}

func (m *DecoderSession) Duration() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("Duration")
	return m.DurationMs
}

// Calls returns a copy of the recorded call log.
func (m *DecoderSession) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// Count returns how many times op was called.
func (m *DecoderSession) Count(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c == op {
			n++
		}
	}
	return n
}

// Pulls returns the number of PullFrame calls.
func (m *DecoderSession) Pulls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pulls
}

// Loop returns the loop flag passed to the last Start.
func (m *DecoderSession) Loop() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loop
}

var _ ports.DecoderSession = (*DecoderSession)(nil)
