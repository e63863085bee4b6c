package logger

import (
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Log file rotation defaults
const (
	DefaultMaxSizeMB  = 100
	DefaultMaxBackups = 3
	DefaultMaxAgeDays = 28
)

// Logger wraps zap's sugared logger with additional functionality
type Logger struct {
	*zap.SugaredLogger
	level zap.AtomicLevel
}

// Options controls where and how much a Logger writes
type Options struct {
	Level string // debug, info, warn, error
	File  string // rotate JSON logs into this file instead of stdout
}

// New creates a console logger writing to stdout at info level
func New() *Logger {
	return NewWriter(os.Stdout)
}

// NewWriter creates a console logger that writes to the provided writer
func NewWriter(w io.Writer) *Logger {
	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	core := zapcore.NewCore(consoleEncoder(), zapcore.AddSync(w), level)
	return &Logger{
		SugaredLogger: zap.New(core).Sugar(),
		level:         level,
	}
}

// NewWithOptions creates a logger from options. With a File set, entries
// are JSON encoded and rotated by size.
func NewWithOptions(opts Options) *Logger {
	level := zap.NewAtomicLevelAt(ParseLevel(opts.Level))

	var core zapcore.Core
	if opts.File != "" {
		sink := zapcore.AddSync(&lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    DefaultMaxSizeMB,
			MaxBackups: DefaultMaxBackups,
			MaxAge:     DefaultMaxAgeDays,
			Compress:   true,
		})
		core = zapcore.NewCore(zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()), sink, level)
	} else {
		core = zapcore.NewCore(consoleEncoder(), zapcore.AddSync(os.Stdout), level)
	}

	return &Logger{
		SugaredLogger: zap.New(core).Sugar(),
		level:         level,
	}
}

// NewNop returns a logger that discards everything
func NewNop() *Logger {
	return &Logger{
		SugaredLogger: zap.NewNop().Sugar(),
		level:         zap.NewAtomicLevelAt(zapcore.FatalLevel),
	}
}

// WithComponent returns a logger with a component field
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{
		SugaredLogger: l.With("component", component),
		level:         l.level,
	}
}

// SetLevel changes the minimum level of this logger and all loggers derived from it
func (l *Logger) SetLevel(level string) {
	l.level.SetLevel(ParseLevel(level))
}

// DebugEnabled reports whether debug entries are written
func (l *Logger) DebugEnabled() bool {
	return l.level.Enabled(zapcore.DebugLevel)
}

// ParseLevel maps a level name to a zap level, defaulting to info
func ParseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func consoleEncoder() zapcore.Encoder {
	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006/01/02 15:04:05")
	return zapcore.NewConsoleEncoder(cfg)
}
