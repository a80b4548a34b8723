package job

import (
	"fmt"
	"strings"
	"sync"
)

// Logger is the sink for policy warnings and progress messages. The
// resolver never writes to stdout or stderr directly.
type Logger interface {
	Verbose(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Level names a MemoryLogger record level.
type Level string

const (
	LevelVerbose Level = "verbose"
	LevelInfo    Level = "info"
	LevelWarn    Level = "warn"
	LevelError   Level = "error"
)

// Record is one captured log line.
type Record struct {
	Level Level
	Msg   string
}

// MemoryLogger captures records in memory. Tests and the YAML report use it.
type MemoryLogger struct {
	mu      sync.Mutex
	Records []Record
}

func (m *MemoryLogger) add(l Level, format string, args []any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Records = append(m.Records, Record{Level: l, Msg: fmt.Sprintf(format, args...)})
}

func (m *MemoryLogger) Verbose(format string, args ...any) { m.add(LevelVerbose, format, args) }
func (m *MemoryLogger) Info(format string, args ...any)    { m.add(LevelInfo, format, args) }
func (m *MemoryLogger) Warn(format string, args ...any)    { m.add(LevelWarn, format, args) }
func (m *MemoryLogger) Error(format string, args ...any)   { m.add(LevelError, format, args) }

// Messages returns the messages logged at level l.
func (m *MemoryLogger) Messages(l Level) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, r := range m.Records {
		if r.Level == l {
			out = append(out, r.Msg)
		}
	}
	return out
}

// Contains reports whether any record at level l contains substr.
func (m *MemoryLogger) Contains(l Level, substr string) bool {
	for _, msg := range m.Messages(l) {
		if strings.Contains(msg, substr) {
			return true
		}
	}
	return false
}

// Tee forwards every record to each of the loggers.
type Tee []Logger

func (t Tee) Verbose(format string, args ...any) {
	for _, l := range t {
		l.Verbose(format, args...)
	}
}

func (t Tee) Info(format string, args ...any) {
	for _, l := range t {
		l.Info(format, args...)
	}
}

func (t Tee) Warn(format string, args ...any) {
	for _, l := range t {
		l.Warn(format, args...)
	}
}

func (t Tee) Error(format string, args ...any) {
	for _, l := range t {
		l.Error(format, args...)
	}
}
