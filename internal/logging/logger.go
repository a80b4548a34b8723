// Package logging adapts charmbracelet/log to the resolver's job.Logger
// sink, with an optional uncolored file copy.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/muesli/termenv"

	"github.com/backmassage/muxgraph/internal/config"
	"github.com/backmassage/muxgraph/internal/job"
	"github.com/backmassage/muxgraph/internal/term"
)

const (
	termTimeFormat = "15:04:05.00"
	fileTimeFormat = "2006-01-02 15:04:05"
)

// Logger writes leveled records to the terminal and, when configured, to
// a log file. It implements job.Logger; Verbose maps to debug.
type Logger struct {
	term *log.Logger
	file *log.Logger
	f    *os.File
	mu   *sync.Mutex
}

var _ job.Logger = (*Logger)(nil)

// NewLogger logs to stderr. Call Close when done if LogFile was set.
func NewLogger(cfg *config.Config) (*Logger, error) {
	return NewWriter(os.Stderr, cfg)
}

// NewWriter logs to w using the level and color mode from cfg.
func NewWriter(w io.Writer, cfg *config.Config) (*Logger, error) {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	term.Configure(cfg.ColorMode)

	l := &Logger{mu: new(sync.Mutex)}
	l.term = log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      termTimeFormat,
		Level:           level,
	})
	l.term.SetColorProfile(term.Profile())

	if cfg.LogFile != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0o755); err != nil {
			return nil, err
		}
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, err
		}
		l.f = f
		l.file = log.NewWithOptions(f, log.Options{
			ReportTimestamp: true,
			TimeFormat:      fileTimeFormat,
			Level:           level,
		})
		l.file.SetColorProfile(termenv.Ascii)
	}
	return l, nil
}

// WithTrace returns a logger that tags every record with the trace id.
// The copy shares the file handle; Close it through the parent only.
func (l *Logger) WithTrace(id string) *Logger {
	c := *l
	c.term = l.term.With("tid", id)
	if l.file != nil {
		c.file = l.file.With("tid", id)
	}
	return &c
}

// Close closes the log file if one was opened.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.f == nil {
		return nil
	}
	err := l.f.Close()
	l.f = nil
	l.file = nil
	return err
}

func (l *Logger) emit(level log.Level, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.term.Log(level, msg)
	if l.file != nil {
		l.file.Log(level, msg)
	}
}

func (l *Logger) Verbose(format string, args ...any) {
	l.emit(log.DebugLevel, fmt.Sprintf(format, args...))
}

// Debug is Verbose under the name the commands use.
func (l *Logger) Debug(format string, args ...any) {
	l.emit(log.DebugLevel, fmt.Sprintf(format, args...))
}

func (l *Logger) Info(format string, args ...any) {
	l.emit(log.InfoLevel, fmt.Sprintf(format, args...))
}

func (l *Logger) Warn(format string, args ...any) {
	l.emit(log.WarnLevel, fmt.Sprintf(format, args...))
}

func (l *Logger) Error(format string, args ...any) {
	l.emit(log.ErrorLevel, fmt.Sprintf(format, args...))
}

// Success logs at info level, green on the terminal.
func (l *Logger) Success(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	l.mu.Lock()
	defer l.mu.Unlock()
	l.term.Info(term.Paint(term.Green, msg))
	if l.file != nil {
		l.file.Info(msg)
	}
}
