package observe

import (
	"bytes"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
)

func TestEntriesBeforeWrap(t *testing.T) {
	l := New(4, zerolog.Nop())
	l.Infof("tmdb", "one")
	l.Warnf("gemini", "two %d", 2)

	got := l.Entries()
	if len(got) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(got))
	}
	if got[0].Message != "one" || got[0].Service != "tmdb" || got[0].Level != "info" {
		t.Errorf("entry[0] = %+v", got[0])
	}
	if got[1].Message != "two 2" || got[1].Level != "warn" {
		t.Errorf("entry[1] = %+v", got[1])
	}
}

func TestRingDropsOldest(t *testing.T) {
	l := New(3, zerolog.Nop())
	for i := 1; i <= 5; i++ {
		l.Debugf("test", "event %d", i)
	}

	got := l.Entries()
	if len(got) != 3 {
		t.Fatalf("expected capacity 3 to be retained, got %d", len(got))
	}
	for i, want := range []string{"event 3", "event 4", "event 5"} {
		if got[i].Message != want {
			t.Errorf("entry[%d] = %q, want %q", i, got[i].Message, want)
		}
	}
}

func TestRingExactlyFull(t *testing.T) {
	l := New(2, zerolog.Nop())
	l.Infof("a", "first")
	l.Infof("a", "second")

	got := l.Entries()
	if len(got) != 2 || got[0].Message != "first" || got[1].Message != "second" {
		t.Errorf("unexpected entries: %+v", got)
	}
}

func TestZeroCapacityUsesDefault(t *testing.T) {
	l := New(0, zerolog.Nop())
	if len(l.buf) != DefaultCapacity {
		t.Errorf("capacity = %d, want %d", len(l.buf), DefaultCapacity)
	}
}

func TestMirrorsToZerolog(t *testing.T) {
	var out bytes.Buffer
	l := New(10, zerolog.New(&out))
	l.Errorf("omdb", "status %d", 401)

	line := out.String()
	if !strings.Contains(line, `"service":"omdb"`) {
		t.Errorf("missing service field in %q", line)
	}
	if !strings.Contains(line, `"level":"error"`) {
		t.Errorf("missing level in %q", line)
	}
	if !strings.Contains(line, "status 401") {
		t.Errorf("missing message in %q", line)
	}
}

func TestConcurrentRecord(t *testing.T) {
	l := New(50, zerolog.Nop())
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				l.Infof("worker", "%d-%d", i, j)
			}
		}(i)
	}
	wg.Wait()

	if got := len(l.Entries()); got != 50 {
		t.Errorf("expected full buffer of 50, got %d", got)
	}
}

func TestNewLoggerWithoutWritersIsNop(t *testing.T) {
	logger := NewLogger(Options{})
	if logger.GetLevel() != zerolog.Disabled {
		t.Errorf("expected disabled logger, got level %v", logger.GetLevel())
	}
}

func TestLevelString(t *testing.T) {
	tests := map[Level]string{
		LevelDebug: "debug",
		LevelInfo:  "info",
		LevelWarn:  "warn",
		LevelError: "error",
		Level(42):  "unknown",
	}
	for lvl, want := range tests {
		if got := lvl.String(); got != want {
			t.Errorf("%s: got %q, want %q", fmt.Sprint(int(lvl)), got, want)
		}
	}
}
