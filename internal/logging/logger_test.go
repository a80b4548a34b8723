package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/backmassage/muxgraph/internal/config"
)

func testConfig() config.Config {
	cfg := config.DefaultConfig()
	cfg.ColorMode = config.ColorNever
	return cfg
}

func TestNewWriter_Levels(t *testing.T) {
	tests := []struct {
		name    string
		level   string
		logFunc func(*Logger)
		wantLog bool
	}{
		{"info at info", "info", func(l *Logger) { l.Info("hello") }, true},
		{"verbose at info", "info", func(l *Logger) { l.Verbose("hello") }, false},
		{"verbose at debug", "debug", func(l *Logger) { l.Verbose("hello") }, true},
		{"warn at error", "error", func(l *Logger) { l.Warn("hello") }, false},
		{"error at error", "error", func(l *Logger) { l.Error("hello") }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			cfg := testConfig()
			cfg.LogLevel = tt.level
			l, err := NewWriter(&buf, &cfg)
			if err != nil {
				t.Fatal(err)
			}
			tt.logFunc(l)
			if got := strings.Contains(buf.String(), "hello"); got != tt.wantLog {
				t.Errorf("logged = %v, want %v (output %q)", got, tt.wantLog, buf.String())
			}
		})
	}
}

func TestNewWriter_BadLevel(t *testing.T) {
	cfg := testConfig()
	cfg.LogLevel = "loud"
	if _, err := NewWriter(new(bytes.Buffer), &cfg); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestWithTrace(t *testing.T) {
	var buf bytes.Buffer
	cfg := testConfig()
	l, err := NewWriter(&buf, &cfg)
	if err != nil {
		t.Fatal(err)
	}
	l.WithTrace("abc123").Warn("stream %d dropped", 2)
	out := buf.String()
	if !strings.Contains(out, "stream 2 dropped") || !strings.Contains(out, "tid=abc123") {
		t.Errorf("output %q", out)
	}
}

func TestLogFile(t *testing.T) {
	cfg := testConfig()
	cfg.ColorMode = config.ColorAlways
	cfg.LogFile = filepath.Join(t.TempDir(), "logs", "muxgraph.log")
	l, err := NewWriter(new(bytes.Buffer), &cfg)
	if err != nil {
		t.Fatal(err)
	}
	l.Success("to file")
	l.Error("broken")
	if err := l.Close(); err != nil {
		t.Fatal(err)
	}
	b, err := os.ReadFile(cfg.LogFile)
	if err != nil {
		t.Fatal(err)
	}
	s := string(b)
	if !strings.Contains(s, "INFO") || !strings.Contains(s, "to file") || !strings.Contains(s, "broken") {
		t.Errorf("log file content: %s", s)
	}
	if strings.Contains(s, "\x1b[") {
		t.Errorf("log file has escape sequences: %q", s)
	}
}
