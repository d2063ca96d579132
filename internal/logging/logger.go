package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"meshsend/config"
)

// Logger wraps slog.Logger.
type Logger struct {
	*slog.Logger
}

// New creates a Logger from cfg writing to stdout or stderr.
func New(cfg config.LoggingConfig) *Logger {
	var output io.Writer
	switch strings.ToLower(cfg.Output) {
	case "stdout":
		output = os.Stdout
	default:
		output = os.Stderr
	}
	return NewWithWriter(cfg, output)
}

// NewWithWriter creates a Logger writing to w.
func NewWithWriter(cfg config.LoggingConfig, w io.Writer) *Logger {
	opts := &slog.HandlerOptions{
		Level: ParseLevel(cfg.Level),
	}

	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	default:
		handler = slog.NewTextHandler(w, opts)
	}

	return &Logger{Logger: slog.New(handler)}
}

// ParseLevel converts a string log level to slog.Level.
// Unrecognised levels map to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// With returns a new Logger with additional default attributes.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...)}
}

// Default returns the logger used before the config file is read:
// text on stderr at info level.
func Default() *Logger {
	return New(config.LoggingConfig{Level: "info", Format: "text", Output: "stderr"})
}

// Printer adapts a Logger to the Println/Printf interface paho uses for its
// package-level ERROR, CRITICAL, WARN and DEBUG loggers.
type Printer struct {
	logger *Logger
	level  slog.Level
}

// Printer returns a paho-compatible logger that logs at level.
func (l *Logger) Printer(level slog.Level) Printer {
	return Printer{logger: l, level: level}
}

func (p Printer) Println(v ...interface{}) {
	p.log(strings.TrimSuffix(fmt.Sprintln(v...), "\n"))
}

func (p Printer) Printf(format string, v ...interface{}) {
	p.log(fmt.Sprintf(format, v...))
}

func (p Printer) log(msg string) {
	p.logger.Log(context.Background(), p.level, msg, "component", "paho")
}
