package clipsession

import (
	"context"
	"errors"
	"image"
	"image/color"
	"sync"
	"testing"
	"time"

	"github.com/user/movieview/pkg/mocks"
	"github.com/user/movieview/pkg/ports"
)

// fakeTime is a manually advanced time source.
type fakeTime struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeTime() *fakeTime {
	return &fakeTime{t: time.Unix(1700000000, 0)}
}

func (f *fakeTime) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.t
}

func (f *fakeTime) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.t = f.t.Add(d)
}

func newTestSession(t *testing.T, frames []ports.VideoFrame) (*Session, *fakeTime) {
	t.Helper()
	fs := mocks.NewFileSystem()
	fs.AddFile("clip.mp4", []byte("mp4"))
	ft := newFakeTime()
	s := New(fs, &mocks.VideoDecoder{Frames: frames}, WithClock(NewClock(ft.Now)))
	if err := s.Create("clip.mp4"); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	return s, ft
}

func TestSession_CreateMissingSource(t *testing.T) {
	s := New(mocks.NewFileSystem(), &mocks.VideoDecoder{})

	err := s.Create("missing.webm")
	if !errors.Is(err, ports.ErrSourceOpen) {
		t.Fatalf("expected ErrSourceOpen, got %v", err)
	}
	if s.IsPlaying() {
		t.Error("failed session must not play")
	}
	if s.Position() != 0 || s.Duration() != 0 {
		t.Error("failed session must report zero position and duration")
	}
}

func TestSession_CreateDecodeFailure(t *testing.T) {
	fs := mocks.NewFileSystem()
	fs.AddFile("corrupt.mp4", []byte("junk"))
	s := New(fs, &mocks.VideoDecoder{Err: errors.New("bad box")})

	if err := s.Create("corrupt.mp4"); !errors.Is(err, ports.ErrSourceOpen) {
		t.Fatalf("expected ErrSourceOpen, got %v", err)
	}
	if s.State() != StateUninit {
		t.Errorf("expected uninit, got %s", s.State())
	}
}

func TestSession_CreateInterrupted(t *testing.T) {
	fs := mocks.NewFileSystem()
	fs.AddFile("clip.mp4", []byte("mp4"))
	s := New(fs, &mocks.VideoDecoder{Err: context.Canceled})

	err := s.Create("clip.mp4")
	if !errors.Is(err, ports.ErrSourceOpen) {
		t.Errorf("expected ErrSourceOpen, got %v", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected the decoder error to be kept, got %v", err)
	}
}

func TestSession_Format(t *testing.T) {
	s, _ := newTestSession(t, mocks.SolidFrames(10, 64, 36, 100))

	if s.Width() != 64 || s.Height() != 36 {
		t.Errorf("expected 64x36, got %dx%d", s.Width(), s.Height())
	}
	if s.Duration() != 1000 {
		t.Errorf("expected 1000 ms, got %d", s.Duration())
	}
	if s.State() != StateOpen {
		t.Errorf("expected open, got %s", s.State())
	}
}

func TestSession_PullFollowsClock(t *testing.T) {
	s, ft := newTestSession(t, mocks.SolidFrames(5, 2, 2, 100))
	s.Start(false)

	pix, ok := s.PullFrame()
	if !ok || len(pix) != 16 || pix[0] != 0 {
		t.Fatalf("expected frame 0, got %v %v", pix, ok)
	}
	if _, ok := s.PullFrame(); ok {
		t.Error("same frame must not be delivered twice")
	}

	ft.Advance(50 * time.Millisecond)
	if _, ok := s.PullFrame(); ok {
		t.Error("no new frame is due at 50 ms")
	}

	ft.Advance(60 * time.Millisecond)
	pix, ok = s.PullFrame()
	if !ok || pix[0] != 10 {
		t.Errorf("expected frame 1 at 110 ms, got %v %v", pix, ok)
	}
	if s.Position() != 110 {
		t.Errorf("expected position 110, got %d", s.Position())
	}

	// Late polling skips straight to the frame that is due.
	ft.Advance(250 * time.Millisecond)
	pix, ok = s.PullFrame()
	if !ok || pix[0] != 30 {
		t.Errorf("expected frame 3 at 360 ms, got %v %v", pix, ok)
	}
}

func TestSession_FinishWithoutLoop(t *testing.T) {
	s, ft := newTestSession(t, mocks.SolidFrames(3, 1, 1, 100))
	s.Start(false)

	ft.Advance(299 * time.Millisecond)
	if !s.IsPlaying() {
		t.Fatal("expected playing before the end")
	}
	ft.Advance(time.Millisecond)
	if s.IsPlaying() {
		t.Error("expected playback to finish at the clip end")
	}
	if s.State() != StateFinish {
		t.Errorf("expected finish, got %s", s.State())
	}
	if s.Position() != 300 {
		t.Errorf("expected position 300, got %d", s.Position())
	}
	if _, ok := s.PullFrame(); ok {
		t.Error("finished session must not yield frames")
	}
}

func TestSession_Loop(t *testing.T) {
	s, ft := newTestSession(t, mocks.SolidFrames(3, 1, 1, 100))
	s.Start(true)

	s.PullFrame()
	ft.Advance(250 * time.Millisecond)
	pix, _ := s.PullFrame()
	if pix[0] != 20 {
		t.Fatalf("expected frame 2, got %d", pix[0])
	}

	ft.Advance(100 * time.Millisecond) // 350 ms wraps to 50 ms
	if !s.IsPlaying() {
		t.Fatal("looping session must keep playing")
	}
	pix, ok := s.PullFrame()
	if !ok || pix[0] != 0 {
		t.Errorf("expected wrap to frame 0, got %v %v", pix, ok)
	}
	if s.Position() != 50 {
		t.Errorf("expected position 50, got %d", s.Position())
	}
}

func TestSession_SetLoop(t *testing.T) {
	t.Run("disable before the end", func(t *testing.T) {
		s, ft := newTestSession(t, mocks.SolidFrames(3, 1, 1, 100))
		s.Start(true)

		ft.Advance(250 * time.Millisecond)
		s.SetLoop(false)
		if !s.IsPlaying() {
			t.Fatal("expected playing before the end")
		}
		ft.Advance(100 * time.Millisecond)
		if s.IsPlaying() {
			t.Error("expected playback to finish at the clip end")
		}
		if s.Position() != 300 {
			t.Errorf("expected position 300, got %d", s.Position())
		}
	})

	t.Run("disable after a wrap", func(t *testing.T) {
		s, ft := newTestSession(t, mocks.SolidFrames(3, 1, 1, 100))
		s.Start(true)

		ft.Advance(350 * time.Millisecond)
		s.SetLoop(false)
		if !s.IsPlaying() {
			t.Fatal("a wrapped session must play out the current pass")
		}
		if s.Position() != 50 {
			t.Errorf("expected position 50, got %d", s.Position())
		}
		ft.Advance(250 * time.Millisecond)
		if s.State() != StateFinish {
			t.Errorf("expected finish, got %s", s.State())
		}
	})

	t.Run("enable before the end", func(t *testing.T) {
		s, ft := newTestSession(t, mocks.SolidFrames(3, 1, 1, 100))
		s.Start(false)

		ft.Advance(250 * time.Millisecond)
		s.SetLoop(true)
		ft.Advance(100 * time.Millisecond)
		if !s.IsPlaying() {
			t.Fatal("looping session must keep playing")
		}
		if s.Position() != 50 {
			t.Errorf("expected position 50, got %d", s.Position())
		}
	})
}

func TestSession_StopKeepsPosition(t *testing.T) {
	s, ft := newTestSession(t, mocks.SolidFrames(10, 1, 1, 100))
	s.Start(true)
	ft.Advance(420 * time.Millisecond)

	s.Stop()
	s.Stop()
	ft.Advance(time.Second)

	if s.IsPlaying() {
		t.Error("stopped session must not play")
	}
	if s.Position() != 420 {
		t.Errorf("expected position 420, got %d", s.Position())
	}
	if _, ok := s.PullFrame(); ok {
		t.Error("stopped session must not yield frames")
	}

	// Restart begins from zero.
	s.Start(true)
	pix, ok := s.PullFrame()
	if !ok || pix[0] != 0 {
		t.Errorf("expected frame 0 after restart, got %v %v", pix, ok)
	}
}

func TestSession_PauseResume(t *testing.T) {
	s, ft := newTestSession(t, mocks.SolidFrames(10, 1, 1, 100))
	s.Start(false)
	ft.Advance(150 * time.Millisecond)

	s.Pause()
	if !s.IsPlaying() {
		t.Error("paused session still counts as playing")
	}
	ft.Advance(time.Second)
	if s.Position() != 150 {
		t.Errorf("expected frozen position 150, got %d", s.Position())
	}

	s.Resume()
	ft.Advance(100 * time.Millisecond)
	if s.Position() != 250 {
		t.Errorf("expected position 250, got %d", s.Position())
	}
}

func TestSession_Seek(t *testing.T) {
	s, _ := newTestSession(t, mocks.SolidFrames(10, 1, 1, 100))
	s.Start(false)
	s.PullFrame()

	s.Seek(730 * time.Millisecond)
	pix, ok := s.PullFrame()
	if !ok || pix[0] != 70 {
		t.Errorf("expected frame 7 after seek, got %v %v", pix, ok)
	}

	s.Seek(time.Hour)
	if s.Position() > s.Duration() {
		t.Errorf("seek beyond the end must clamp, got %d", s.Position())
	}
}

func TestSession_Shutdown(t *testing.T) {
	s, _ := newTestSession(t, mocks.SolidFrames(2, 4, 4, 100))
	s.Start(true)

	s.Shutdown()
	s.Shutdown()

	if s.IsPlaying() {
		t.Error("shut down session must not play")
	}
	if s.Width() != 0 || s.Duration() != 0 {
		t.Error("shut down session must drop its format")
	}
	s.Start(true)
	if s.IsPlaying() {
		t.Error("Start after Shutdown must be ignored")
	}
}

func TestSession_ScalesMismatchedFrames(t *testing.T) {
	frames := mocks.SolidFrames(2, 4, 4, 100)
	big := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for i := range big.Pix {
		big.Pix[i] = 200
	}
	frames[1].Image = big
	s, ft := newTestSession(t, frames)
	s.Start(false)

	s.PullFrame()
	ft.Advance(100 * time.Millisecond)
	pix, ok := s.PullFrame()
	if !ok || len(pix) != 4*4*4 {
		t.Fatalf("expected 64-byte frame, got %d bytes", len(pix))
	}
	if pix[0] != 200 {
		t.Errorf("expected scaled content, got %d", pix[0])
	}
}

func TestToRGBA_ConvertsYCbCr(t *testing.T) {
	src := image.NewYCbCr(image.Rect(0, 0, 2, 2), image.YCbCrSubsampleRatio420)
	for i := range src.Y {
		src.Y[i] = 235
	}
	for i := range src.Cb {
		src.Cb[i] = 128
		src.Cr[i] = 128
	}

	pix := toRGBA(src, 2, 2)
	want := color.RGBAModel.Convert(src.At(0, 0)).(color.RGBA)
	if pix[0] != want.R || pix[1] != want.G || pix[2] != want.B || pix[3] != 255 {
		t.Errorf("unexpected pixel %v, want %+v", pix[:4], want)
	}
}

func TestClock(t *testing.T) {
	ft := newFakeTime()
	c := NewClock(ft.Now)

	if c.Running() || c.MediaTime() != 0 {
		t.Fatal("new clock must be paused at zero")
	}
	c.Start(time.Second)
	ft.Advance(500 * time.Millisecond)
	if c.MediaTime() != 1500*time.Millisecond {
		t.Errorf("expected 1.5s, got %v", c.MediaTime())
	}

	c.SetRate(2)
	ft.Advance(500 * time.Millisecond)
	if c.MediaTime() != 2500*time.Millisecond {
		t.Errorf("expected 2.5s at double rate, got %v", c.MediaTime())
	}

	c.Pause()
	ft.Advance(time.Second)
	if c.MediaTime() != 2500*time.Millisecond {
		t.Errorf("paused clock moved to %v", c.MediaTime())
	}
	c.Resume()
	c.Seek(0)
	ft.Advance(10 * time.Millisecond)
	if c.MediaTime() != 20*time.Millisecond {
		t.Errorf("expected 20ms after seek, got %v", c.MediaTime())
	}
}
