package log

import (
	"io"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Level represents log severity levels
type Level int

const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

func (l Level) String() string {
	switch l {
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a config string such as "debug" into a Level.
func ParseLevel(s string) (Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DebugLevel, true
	case "info", "":
		return InfoLevel, true
	case "warn", "warning":
		return WarnLevel, true
	case "error":
		return ErrorLevel, true
	}
	return InfoLevel, false
}

func (l Level) zap() zapcore.Level {
	switch l {
	case DebugLevel:
		return zapcore.DebugLevel
	case WarnLevel:
		return zapcore.WarnLevel
	case ErrorLevel:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Logger interface defines structured logging methods.
// args are alternating key/value pairs.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	// With returns a logger that adds args to every entry.
	With(args ...interface{}) Logger
	SetLevel(level Level)
	SetJSONOutput(enabled bool)
}

// LoggerConfig holds configuration for the logger
type LoggerConfig struct {
	Level      Level
	JSONOutput bool
	Name       string
	Stderr     io.Writer
	// File, when set, receives the log instead of Stderr. It is rotated
	// once it grows past MaxSizeMB.
	File      string
	MaxSizeMB int
}

// ZapLogger is the zap backed implementation of Logger.
type ZapLogger struct {
	mu     *sync.Mutex
	level  zap.AtomicLevel
	out    zapcore.WriteSyncer
	name   string
	fields []interface{}
	sugar  *zap.SugaredLogger
	closer io.Closer
}

var (
	defaultLogger *ZapLogger
	once          sync.Once
)

// New creates a new logger with the given configuration
func New(cfg LoggerConfig) *ZapLogger {
	w := cfg.Stderr
	if w == nil {
		w = os.Stderr
	}
	var closer io.Closer
	if cfg.File != "" {
		size := cfg.MaxSizeMB
		if size <= 0 {
			size = 10
		}
		f := &lumberjack.Logger{Filename: cfg.File, MaxSize: size, MaxBackups: 3}
		w, closer = f, f
	}
	l := &ZapLogger{
		mu:     &sync.Mutex{},
		level:  zap.NewAtomicLevelAt(cfg.Level.zap()),
		out:    zapcore.Lock(zapcore.AddSync(w)),
		name:   cfg.Name,
		closer: closer,
	}
	l.build(cfg.JSONOutput)
	return l
}

// Default returns the process wide logger.
func Default() *ZapLogger {
	once.Do(func() {
		defaultLogger = New(LoggerConfig{Level: InfoLevel, Name: "jflow"})
	})
	return defaultLogger
}

// Nop returns a logger that discards everything.
func Nop() Logger {
	return &ZapLogger{
		mu:    &sync.Mutex{},
		level: zap.NewAtomicLevelAt(zapcore.FatalLevel),
		sugar: zap.NewNop().Sugar(),
	}
}

func encoder(jsonOutput bool) zapcore.Encoder {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05")
	if jsonOutput {
		return zapcore.NewJSONEncoder(cfg)
	}
	cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	if os.Getenv("NO_COLOR") != "" {
		cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	}
	return zapcore.NewConsoleEncoder(cfg)
}

func (l *ZapLogger) build(jsonOutput bool) {
	if l.out == nil {
		return
	}
	core := zapcore.NewCore(encoder(jsonOutput), l.out, l.level)
	logger := zap.New(core)
	if l.name != "" {
		logger = logger.Named(l.name)
	}
	l.sugar = logger.Sugar().With(l.fields...)
}

// Debug logs a debug message
func (l *ZapLogger) Debug(msg string, args ...interface{}) {
	l.sugar.Debugw(msg, args...)
}

// Info logs an info message
func (l *ZapLogger) Info(msg string, args ...interface{}) {
	l.sugar.Infow(msg, args...)
}

// Warn logs a warning message
func (l *ZapLogger) Warn(msg string, args ...interface{}) {
	l.sugar.Warnw(msg, args...)
}

// Error logs an error message
func (l *ZapLogger) Error(msg string, args ...interface{}) {
	l.sugar.Errorw(msg, args...)
}

// With returns a child logger sharing level and output.
func (l *ZapLogger) With(args ...interface{}) Logger {
	l.mu.Lock()
	defer l.mu.Unlock()
	fields := make([]interface{}, 0, len(l.fields)+len(args))
	fields = append(fields, l.fields...)
	fields = append(fields, args...)
	return &ZapLogger{
		mu:     l.mu,
		level:  l.level,
		out:    l.out,
		name:   l.name,
		fields: fields,
		sugar:  l.sugar.With(args...),
	}
}

// SetLevel sets the minimum log level
func (l *ZapLogger) SetLevel(level Level) {
	l.level.SetLevel(level.zap())
}

// SetJSONOutput switches between console and JSON encoding.
func (l *ZapLogger) SetJSONOutput(enabled bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.build(enabled)
}

// Sync flushes buffered entries.
func (l *ZapLogger) Sync() error {
	return l.sugar.Sync()
}

// Close flushes the logger and closes its log file, if any.
func (l *ZapLogger) Close() error {
	_ = l.Sync()
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}
