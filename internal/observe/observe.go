// Package observe collects diagnostics from the resolution pipeline.
//
// Components receive an Observer through their constructors. The Log
// implementation keeps the most recent entries in a fixed-size ring buffer
// (oldest dropped first) and mirrors every entry to a zerolog logger.
package observe

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Level is the severity of an entry.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "unknown"
	}
}

func (l Level) zerolog() zerolog.Level {
	switch l {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelInfo:
		return zerolog.InfoLevel
	case LevelWarn:
		return zerolog.WarnLevel
	default:
		return zerolog.ErrorLevel
	}
}

// Entry is one recorded event.
type Entry struct {
	Time    time.Time `json:"time"`
	Level   string    `json:"level"`
	Service string    `json:"service"`
	Message string    `json:"message"`
}

// Observer receives leveled events tagged with the originating service.
type Observer interface {
	Debugf(service, format string, args ...any)
	Infof(service, format string, args ...any)
	Warnf(service, format string, args ...any)
	Errorf(service, format string, args ...any)
	// Entries returns the retained entries, oldest first.
	Entries() []Entry
}

// DefaultCapacity is the ring buffer size used when none is configured.
const DefaultCapacity = 200

// Log is a ring-buffered Observer. It is safe for concurrent use.
type Log struct {
	mu      sync.Mutex
	buf     []Entry
	next    int
	full    bool
	logger  zerolog.Logger
	nowFunc func() time.Time
}

// New creates a Log retaining up to capacity entries and writing to logger.
func New(capacity int, logger zerolog.Logger) *Log {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Log{
		buf:     make([]Entry, capacity),
		logger:  logger,
		nowFunc: time.Now,
	}
}

// Nop returns a Log that retains entries but writes nowhere.
func Nop() *Log {
	return New(DefaultCapacity, zerolog.Nop())
}

func (l *Log) Debugf(service, format string, args ...any) {
	l.record(LevelDebug, service, format, args...)
}

func (l *Log) Infof(service, format string, args ...any) {
	l.record(LevelInfo, service, format, args...)
}

func (l *Log) Warnf(service, format string, args ...any) {
	l.record(LevelWarn, service, format, args...)
}

func (l *Log) Errorf(service, format string, args ...any) {
	l.record(LevelError, service, format, args...)
}

func (l *Log) record(level Level, service, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)

	l.mu.Lock()
	l.buf[l.next] = Entry{
		Time:    l.nowFunc(),
		Level:   level.String(),
		Service: service,
		Message: msg,
	}
	l.next = (l.next + 1) % len(l.buf)
	if l.next == 0 {
		l.full = true
	}
	l.mu.Unlock()

	l.logger.WithLevel(level.zerolog()).Str("service", service).Msg(msg)
}

// Entries returns a copy of the retained entries, oldest first.
func (l *Log) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.full {
		return append([]Entry(nil), l.buf[:l.next]...)
	}
	out := make([]Entry, 0, len(l.buf))
	out = append(out, l.buf[l.next:]...)
	out = append(out, l.buf[:l.next]...)
	return out
}

// Options configures the zerolog logger behind a Log.
type Options struct {
	Debug   bool   // Emit debug entries to the console
	Console bool   // Human-readable stderr output
	File    string // Optional JSON log file, rotated by lumberjack
}

// NewLogger builds the zerolog logger used by the CLI and the addon server.
func NewLogger(opts Options) zerolog.Logger {
	var writers []io.Writer
	if opts.Console {
		writers = append(writers, zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
	if opts.File != "" {
		writers = append(writers, &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
		})
	}
	if len(writers) == 0 {
		return zerolog.Nop()
	}

	level := zerolog.InfoLevel
	if opts.Debug {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(level).
		With().Timestamp().Logger()
}
