// Package clipsession implements ports.DecoderSession over a clip that is
// decoded up front by a ports.VideoDecoder and played back against a media
// clock. Frames become available as media time reaches their timestamps,
// and PullFrame hands each one out once.
package clipsession

import (
	"fmt"
	"image"
	"sort"
	"sync"
	"time"

	"golang.org/x/image/draw"

	"github.com/user/movieview/pkg/ports"
)

// DefaultFrameDuration is assumed for a trailing frame without a duration.
const DefaultFrameDuration = 40 * time.Millisecond

// State is the playback state of a session.
type State int

const (
	StateUninit State = iota
	StateOpen
	StatePlay
	StatePause
	StateStop
	StateFinish
)

func (s State) String() string {
	switch s {
	case StateUninit:
		return "uninit"
	case StateOpen:
		return "open"
	case StatePlay:
		return "play"
	case StatePause:
		return "pause"
	case StateStop:
		return "stop"
	case StateFinish:
		return "finish"
	default:
		return "unknown"
	}
}

type frame struct {
	start time.Duration
	pix   []byte
}

// Session plays a decoded clip.
type Session struct {
	assets  ports.AssetProvider
	decoder ports.VideoDecoder
	clock   *Clock
	logger  ports.Logger

	mu       sync.Mutex
	frames   []frame
	width    int
	height   int
	duration time.Duration
	state    State
	loop     bool
	last     int
	position time.Duration
}

// Option configures a Session.
type Option func(*Session)

// WithClock replaces the wall clock, mainly for tests.
func WithClock(c *Clock) Option {
	return func(s *Session) { s.clock = c }
}

// WithLogger sets the logger.
func WithLogger(l ports.Logger) Option {
	return func(s *Session) { s.logger = l.WithComponent("clipsession") }
}

// New creates a session that resolves sources through assets and decodes
// them with decoder.
func New(assets ports.AssetProvider, decoder ports.VideoDecoder, opts ...Option) *Session {
	s := &Session{
		assets:  assets,
		decoder: decoder,
		last:    -1,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.clock == nil {
		s.clock = NewClock(nil)
	}
	return s
}

// Create opens and decodes source. Any previously opened clip is discarded.
func (s *Session) Create(source string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.resetLocked()

	r, err := s.assets.Open(source)
	if err != nil {
		return fmt.Errorf("%w: open %s: %v", ports.ErrSourceOpen, source, err)
	}
	defer r.Close()

	decoded, err := s.decoder.ReadFramesFromReader(r)
	if err != nil {
		return fmt.Errorf("%w: decode %s: %w", ports.ErrSourceOpen, source, err)
	}
	if len(decoded) == 0 {
		return fmt.Errorf("%w: %s has no video frames", ports.ErrSourceOpen, source)
	}

	bounds := decoded[0].Image.Bounds()
	s.width, s.height = bounds.Dx(), bounds.Dy()
	if s.width < 1 || s.height < 1 {
		return fmt.Errorf("%w: %s has empty frames", ports.ErrSourceOpen, source)
	}

	base := decoded[0].TimestampMs
	s.frames = make([]frame, len(decoded))
	for i, f := range decoded {
		s.frames[i] = frame{
			start: time.Duration(f.TimestampMs-base) * time.Millisecond,
			pix:   toRGBA(f.Image, s.width, s.height),
		}
	}
	sort.SliceStable(s.frames, func(i, j int) bool { return s.frames[i].start < s.frames[j].start })

	tail := time.Duration(decoded[len(decoded)-1].Duration) * time.Millisecond
	if tail <= 0 {
		tail = DefaultFrameDuration
	}
	s.duration = s.frames[len(s.frames)-1].start + tail
	s.state = StateOpen

	s.debug("Opened %s: %dx%d, %d frames, %v", source, s.width, s.height, len(s.frames), s.duration)
	return nil
}

// Start plays from the beginning.
func (s *Session) Start(loop bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateUninit {
		return
	}
	s.loop = loop
	s.last = -1
	s.position = 0
	s.clock.Start(0)
	s.state = StatePlay
}

// Stop halts playback and keeps the last position.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case StatePlay, StatePause:
		s.position = s.mediaLocked()
		s.clock.Pause()
		s.state = StateStop
	case StateFinish:
		s.state = StateStop
	}
}

// Shutdown discards the clip.
func (s *Session) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
}

// Pause freezes playback. The session still reports playing.
func (s *Session) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StatePlay {
		s.clock.Pause()
		s.state = StatePause
	}
}

// Resume continues a paused session.
func (s *Session) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StatePause {
		s.clock.Resume()
		s.state = StatePlay
	}
}

// Seek moves playback to pos, clamped to the clip.
func (s *Session) Seek(pos time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateUninit {
		return
	}
	if pos < 0 {
		pos = 0
	}
	if pos > s.duration {
		pos = s.duration
	}
	s.clock.Seek(pos)
	s.position = pos
	s.last = -1
	if s.state == StateFinish {
		s.state = StateStop
	}
}

// SetLoop changes the loop flag of a running session. Turning looping off
// lets the current pass play out to the clip end.
func (s *Session) SetLoop(loop bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loop && !loop && s.duration > 0 {
		s.clock.Seek(s.mediaLocked())
	}
	s.loop = loop
}

// State returns the playback state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshLocked()
	return s.state
}

// IsPlaying reports whether the session is playing or paused.
func (s *Session) IsPlaying() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshLocked()
	return s.state == StatePlay || s.state == StatePause
}

// PullFrame returns the frame due at the current media time if it was not
// handed out by the previous call.
func (s *Session) PullFrame() ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshLocked()
	if s.state != StatePlay && s.state != StatePause {
		return nil, false
	}
	idx := s.indexAt(s.mediaLocked())
	if idx == s.last {
		return nil, false
	}
	s.last = idx
	return s.frames[idx].pix, true
}

func (s *Session) Width() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.width
}

func (s *Session) Height() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.height
}

// Position returns the playback position in milliseconds.
func (s *Session) Position() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshLocked()
	if s.state == StatePlay || s.state == StatePause {
		return s.mediaLocked().Milliseconds()
	}
	return s.position.Milliseconds()
}

// Duration returns the clip duration in milliseconds.
func (s *Session) Duration() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.duration.Milliseconds()
}

func (s *Session) resetLocked() {
	s.frames = nil
	s.width, s.height = 0, 0
	s.duration = 0
	s.position = 0
	s.last = -1
	s.loop = false
	s.state = StateUninit
	s.clock.Pause()
}

// refreshLocked moves a non-looping session that ran past the end to Finish.
func (s *Session) refreshLocked() {
	if s.state != StatePlay || s.loop {
		return
	}
	if s.clock.MediaTime() >= s.duration {
		s.state = StateFinish
		s.position = s.duration
		s.clock.Pause()
		s.debug("Playback finished at %v", s.duration)
	}
}

// mediaLocked returns the media time folded into the clip.
func (s *Session) mediaLocked() time.Duration {
	t := s.clock.MediaTime()
	if t < 0 {
		return 0
	}
	if s.duration <= 0 {
		return 0
	}
	if s.loop {
		return t % s.duration
	}
	if t > s.duration {
		return s.duration
	}
	return t
}

func (s *Session) indexAt(t time.Duration) int {
	i := sort.Search(len(s.frames), func(i int) bool { return s.frames[i].start > t })
	if i == 0 {
		return 0
	}
	return i - 1
}

func (s *Session) debug(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}

// toRGBA converts img into packed RGBA pixels of exactly w×h, scaling when
// the frame size differs from the clip size.
func toRGBA(img image.Image, w, h int) []byte {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	b := img.Bounds()
	if b.Dx() == w && b.Dy() == h {
		draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	} else {
		draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	}
	return dst.Pix
}

var _ ports.DecoderSession = (*Session)(nil)
