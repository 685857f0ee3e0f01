// README: slog logger construction from level, format and output settings.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

type Config struct {
	Level        Level  `mapstructure:"level"`
	Format       string `mapstructure:"format"` // "json", "text"
	Output       string `mapstructure:"output"` // "stdout", "stderr", file path
	EnableCaller bool   `mapstructure:"enable_caller"`
	Component    string `mapstructure:"component"`
}

func DefaultConfig() Config {
	return Config{
		Level:     LevelInfo,
		Format:    "json",
		Output:    "stdout",
		Component: "courier-agent",
	}
}

// New builds the process logger. The returned closer releases a log file
// when Output names one and is a no-op otherwise.
func New(cfg Config) (*slog.Logger, io.Closer) {
	out, closer := openOutput(cfg.Output)
	return build(cfg, out), closer
}

func build(cfg Config, out io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:     ParseLevel(cfg.Level),
		AddSource: cfg.EnableCaller,
	}
	var h slog.Handler
	if strings.EqualFold(cfg.Format, "text") {
		h = slog.NewTextHandler(out, opts)
	} else {
		h = slog.NewJSONHandler(out, opts)
	}
	l := slog.New(h)
	if cfg.Component != "" {
		l = l.With("component", cfg.Component)
	}
	return l
}

func ParseLevel(l Level) slog.Level {
	switch Level(strings.ToLower(string(l))) {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	}
	return slog.LevelInfo
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func openOutput(output string) (io.Writer, io.Closer) {
	switch output {
	case "", "stdout":
		return os.Stdout, nopCloser{}
	case "stderr":
		return os.Stderr, nopCloser{}
	}
	f, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return os.Stdout, nopCloser{}
	}
	return f, f
}
