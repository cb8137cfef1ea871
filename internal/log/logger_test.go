package log

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	prev := GetLevel()
	t.Cleanup(func() {
		SetOutput(os.Stderr)
		SetLevel(prev)
	})
	return &buf
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
		ok   bool
	}{
		{"debug", LevelDebug, true},
		{"INFO", LevelInfo, true},
		{"Warning", LevelWarn, true},
		{" error ", LevelError, true},
		{"fatal", LevelFatal, true},
		{"verbose", LevelInfo, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseLevel(tt.in)
			if got != tt.want || ok != tt.ok {
				t.Errorf("ParseLevel(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestLevelFiltering(t *testing.T) {
	buf := capture(t)
	SetLevel(LevelWarn)

	Debugf("hidden %d", 1)
	Infof("hidden %d", 2)
	Warnf("shown %d", 3)
	Errorf("shown %d", 4)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("messages below level were logged:\n%s", out)
	}
	if !strings.Contains(out, "[WARN]  shown 3") || !strings.Contains(out, "[ERROR] shown 4") {
		t.Errorf("expected warn and error lines, got:\n%s", out)
	}
}

func TestComponentLogger(t *testing.T) {
	buf := capture(t)
	SetLevel(LevelDebug)

	l := With("engine")
	l.Debugf("frames=%d", 256)
	l.Infof("started")

	out := buf.String()
	if !strings.Contains(out, "[DEBUG] engine: frames=256") {
		t.Errorf("missing debug line, got:\n%s", out)
	}
	if !strings.Contains(out, "[INFO]  engine: started") {
		t.Errorf("missing info line, got:\n%s", out)
	}
}

func TestLevelString(t *testing.T) {
	if LogLevel(99).String() != "UNKNOWN" {
		t.Errorf("unexpected name for unknown level: %s", LogLevel(99))
	}
}
