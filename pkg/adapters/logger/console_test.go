package logger

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	"github.com/user/movieview/pkg/ports"
)

func TestConsoleLogger_LevelFiltering(t *testing.T) {
	var out, errOut bytes.Buffer
	l := NewWriters(ports.LevelInfo, &out, &errOut)

	l.Debug("debug line %d", 1)
	l.Info("info line %d", 2)
	l.Warn("warn line %d", 3)
	l.Error("error line %d", 4)

	if strings.Contains(out.String(), "debug line") {
		t.Error("debug message should be filtered at info level")
	}
	if !strings.Contains(out.String(), "info line 2") {
		t.Errorf("expected info on stdout, got %q", out.String())
	}
	if !strings.Contains(errOut.String(), "warn line 3") || !strings.Contains(errOut.String(), "error line 4") {
		t.Errorf("expected warn and error on stderr, got %q", errOut.String())
	}
	if strings.Contains(out.String(), "warn line") {
		t.Error("warn must not go to stdout")
	}
}

func TestConsoleLogger_Quiet(t *testing.T) {
	var out, errOut bytes.Buffer
	l := NewWriters(ports.LevelQuiet, &out, &errOut)

	l.Error("should not appear")
	if out.Len() != 0 || errOut.Len() != 0 {
		t.Error("quiet level must suppress everything")
	}
}

func TestConsoleLogger_WithComponent(t *testing.T) {
	var out bytes.Buffer
	l := NewWriters(ports.LevelDebug, &out, &out)

	l.WithComponent("lifecycle").WithComponent("pump").Debug("tick")

	if got := strings.TrimSpace(out.String()); got != "[lifecycle/pump] tick" {
		t.Errorf("unexpected output %q", got)
	}
}

func TestConsoleLogger_ConcurrentUse(t *testing.T) {
	var out bytes.Buffer
	l := NewWriters(ports.LevelDebug, &out, &out)
	pump := l.WithComponent("pump")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				pump.Debug("cycle %d/%d", i, j)
			}
		}(i)
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 400 {
		t.Errorf("expected 400 lines, got %d", len(lines))
	}
}

func TestParseLogLevel(t *testing.T) {
	for _, name := range []string{"debug", "info", "warn", "error", "quiet"} {
		level, err := ports.ParseLogLevel(name)
		if err != nil {
			t.Fatalf("ParseLogLevel(%q) failed: %v", name, err)
		}
		if level.String() != name {
			t.Errorf("round trip of %q gave %q", name, level.String())
		}
	}
	if _, err := ports.ParseLogLevel("verbose"); err == nil {
		t.Error("expected error for unknown level")
	}
}
