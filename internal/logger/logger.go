package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
)

// Logger defines the logging interface used throughout the application
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	SetLevel(level slog.Level)
	GetLevel() slog.Level
	EnableHTTPLogging()
	DisableHTTPLogging()
	IsHTTPLoggingEnabled() bool
	With(args ...any) Logger
}

// Options configures a SlogLogger
type Options struct {
	Level slog.Level
	// Output receives text records; os.Stdout when nil
	Output io.Writer
	// Mirror, when set, receives a copy of every record (a GELFWriter in production)
	Mirror io.Writer
}

// controls is the runtime state shared by a logger and every child made with With
type controls struct {
	level       slog.LevelVar
	httpLogging atomic.Bool
}

// SlogLogger is the slog-backed Logger. Children created with With share
// the parent's level and HTTP logging toggle, so the keyboard shortcuts
// reach every component.
type SlogLogger struct {
	logger *slog.Logger
	ctl    *controls
}

// New returns an info-level logger writing to stdout
func New() *SlogLogger {
	return NewWithOptions(Options{Level: slog.LevelInfo})
}

// NewWithLevel returns a logger writing to stdout at level
func NewWithLevel(level slog.Level) *SlogLogger {
	return NewWithOptions(Options{Level: level})
}

// NewWithWriter returns a logger writing text records to w
func NewWithWriter(w io.Writer, level slog.Level) *SlogLogger {
	return NewWithOptions(Options{Level: level, Output: w})
}

// NewWithOptions builds a logger from o
func NewWithOptions(o Options) *SlogLogger {
	out := o.Output
	if out == nil {
		out = os.Stdout
	}
	if o.Mirror != nil {
		out = io.MultiWriter(out, o.Mirror)
	}

	ctl := &controls{}
	ctl.level.Set(o.Level)
	return &SlogLogger{
		logger: slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: &ctl.level})),
		ctl:    ctl,
	}
}

// Discard returns a logger that drops everything
func Discard() *SlogLogger {
	return NewWithWriter(io.Discard, slog.LevelError)
}

// levelCycle is the order the l shortcut steps through
var levelCycle = []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn, slog.LevelError}

var levelNames = map[string]slog.Level{
	"debug":   slog.LevelDebug,
	"info":    slog.LevelInfo,
	"warn":    slog.LevelWarn,
	"warning": slog.LevelWarn,
	"error":   slog.LevelError,
}

// ParseLevel maps a level name (case-insensitive) to a slog.Level.
// Unknown names give slog.LevelInfo.
func ParseLevel(level string) slog.Level {
	if l, ok := levelNames[strings.ToLower(strings.TrimSpace(level))]; ok {
		return l
	}
	return slog.LevelInfo
}

// NextLevel returns the level after current in levelCycle, wrapping to debug
func NextLevel(current slog.Level) slog.Level {
	for i, l := range levelCycle {
		if l == current {
			return levelCycle[(i+1)%len(levelCycle)]
		}
	}
	return levelCycle[0]
}

func (l *SlogLogger) Debug(msg string, args ...any) {
	l.logger.Debug(msg, args...)
}

func (l *SlogLogger) Info(msg string, args ...any) {
	l.logger.Info(msg, args...)
}

func (l *SlogLogger) Warn(msg string, args ...any) {
	l.logger.Warn(msg, args...)
}

func (l *SlogLogger) Error(msg string, args ...any) {
	l.logger.Error(msg, args...)
}

func (l *SlogLogger) SetLevel(level slog.Level) {
	l.ctl.level.Set(level)
}

func (l *SlogLogger) GetLevel() slog.Level {
	return l.ctl.level.Level()
}

// EnableHTTPLogging turns on per-request lines from the router middleware
func (l *SlogLogger) EnableHTTPLogging() {
	l.ctl.httpLogging.Store(true)
}

func (l *SlogLogger) DisableHTTPLogging() {
	l.ctl.httpLogging.Store(false)
}

func (l *SlogLogger) IsHTTPLoggingEnabled() bool {
	return l.ctl.httpLogging.Load()
}

// With returns a child logger that adds args to every record
func (l *SlogLogger) With(args ...any) Logger {
	return &SlogLogger{logger: l.logger.With(args...), ctl: l.ctl}
}
