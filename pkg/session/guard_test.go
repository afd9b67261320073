package session

import (
	"errors"
	"sync"
	"testing"

	"github.com/user/movieview/pkg/mocks"
	"github.com/user/movieview/pkg/ports"
)

func expectStale(t *testing.T, op string, fn func()) {
	t.Helper()
	defer func() {
		r := recover()
		if r == nil {
			t.Fatalf("%s: expected panic", op)
		}
		stale, ok := r.(*StaleHandleError)
		if !ok {
			t.Fatalf("%s: expected *StaleHandleError, got %T", op, r)
		}
		if stale.Op != op {
			t.Errorf("expected op %s, got %s", op, stale.Op)
		}
	}()
	fn()
}

func TestGuard_UseBeforeCreatePanics(t *testing.T) {
	g := NewGuard(mocks.NewDecoderSession(4, 4))

	expectStale(t, "IsPlaying", func() { g.IsPlaying() })
	expectStale(t, "PullFrame", func() { g.PullFrame() })
	expectStale(t, "Start", func() { g.Start(true) })
	expectStale(t, "Width", func() { g.Width() })
}

func TestGuard_UseAfterShutdownPanics(t *testing.T) {
	inner := mocks.NewDecoderSession(4, 4)
	g := NewGuard(inner)

	if err := g.Create("clip.mp4"); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	g.Shutdown()

	expectStale(t, "PullFrame", func() { g.PullFrame() })
	expectStale(t, "Stop", func() { g.Stop() })
	expectStale(t, "Position", func() { g.Position() })

	if inner.Count("PullFrame") != 0 {
		t.Error("stale call reached the inner session")
	}
}

func TestGuard_ShutdownIdempotent(t *testing.T) {
	inner := mocks.NewDecoderSession(4, 4)
	g := NewGuard(inner)

	g.Shutdown()
	g.Shutdown()

	if inner.Count("Shutdown") != 1 {
		t.Errorf("expected one inner Shutdown, got %d", inner.Count("Shutdown"))
	}
	if g.State() != StateShut {
		t.Errorf("expected shut state, got %s", g.State())
	}
}

func TestGuard_CreateFailure(t *testing.T) {
	inner := mocks.NewDecoderSession(4, 4)
	inner.CreateFunc = func(source string) error {
		return ports.ErrSourceOpen
	}
	g := NewGuard(inner)

	err := g.Create("missing.mp4")
	if !errors.Is(err, ports.ErrSourceOpen) {
		t.Fatalf("expected ErrSourceOpen, got %v", err)
	}
	if g.State() != StateFresh {
		t.Errorf("expected fresh state after failed create, got %s", g.State())
	}
	expectStale(t, "Start", func() { g.Start(true) })
}

func TestGuard_Forwarding(t *testing.T) {
	inner := mocks.NewDecoderSession(640, 360)
	inner.PositionMs = 1500
	inner.DurationMs = 10000
	inner.Frames = [][]byte{{1, 2, 3, 4}}
	g := NewGuard(inner)

	g.Create("clip.mp4")
	g.Start(true)

	if !inner.Loop() {
		t.Error("loop flag not forwarded")
	}
	if g.Width() != 640 || g.Height() != 360 {
		t.Errorf("unexpected size %dx%d", g.Width(), g.Height())
	}
	if g.Position() != 1500 || g.Duration() != 10000 {
		t.Errorf("unexpected position/duration %d/%d", g.Position(), g.Duration())
	}
	if !g.IsPlaying() {
		t.Error("expected playing")
	}
	if data, ok := g.PullFrame(); !ok || len(data) != 4 {
		t.Errorf("unexpected pull result %v %v", data, ok)
	}
	g.Stop()
	if g.IsPlaying() {
		t.Error("expected stopped")
	}
}

func TestGuard_ConcurrentStopAndPoll(t *testing.T) {
	inner := mocks.NewDecoderSession(2, 2)
	inner.Repeat = make([]byte, 16)
	g := NewGuard(inner)
	g.Create("clip.mp4")
	g.Start(true)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			if g.IsPlaying() {
				g.PullFrame()
			}
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			g.Stop()
			g.Start(true)
		}
	}()
	wg.Wait()
}

func TestStaleHandleError_Message(t *testing.T) {
	err := &StaleHandleError{Op: "PullFrame", State: StateShut}
	if err.Error() != "session: PullFrame on shut handle" {
		t.Errorf("unexpected message %q", err.Error())
	}
}
