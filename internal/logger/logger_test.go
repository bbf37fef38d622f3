package logger

import (
	"bytes"
	"strings"
	"testing"
)

func TestLevels(t *testing.T) {
	tests := []struct {
		name      string
		level     Level
		wantDebug bool
		wantInfo  bool
	}{
		{"off", LevelOff, false, false},
		{"normal", LevelNormal, false, true},
		{"verbose", LevelVerbose, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			log := New(tt.level, &buf)
			log.Debug("debug %d", 1)
			log.Info("info %s", "two")

			out := buf.String()
			if got := strings.Contains(out, "debug 1"); got != tt.wantDebug {
				t.Errorf("debug present = %v, want %v (out=%q)", got, tt.wantDebug, out)
			}
			if got := strings.Contains(out, "info two"); got != tt.wantInfo {
				t.Errorf("info present = %v, want %v (out=%q)", got, tt.wantInfo, out)
			}
		})
	}
}

func TestSetLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(LevelOff, &buf)
	log.Warn("hidden")
	log.SetLevel(LevelNormal)
	log.Warn("shown")

	if log.GetLevel() != LevelNormal {
		t.Fatalf("level = %v, want normal", log.GetLevel())
	}
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Fatalf("unexpected output %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]Level{"off": LevelOff, "normal": LevelNormal, "VERBOSE": LevelVerbose, "": LevelNormal} {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Errorf("ParseLevel(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Error("expected error for unknown level")
	}
}
