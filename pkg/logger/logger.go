package logger

import (
	"fmt"
	"log/slog"
	"os"

	"keydepot/config"
)

type Logger struct {
	l *slog.Logger
}

func NewLogger(cfg *config.Config) (*Logger, error) {
	level := slog.LevelInfo
	if err := level.UnmarshalText([]byte(cfg.LoggerMode.Level)); cfg.LoggerMode.Level != "" && err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.LoggerMode.Level, err)
	}

	var handler slog.Handler
	if cfg.LoggerMode.Development {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}
	return &Logger{l: slog.New(handler)}, nil
}

// slog returns the underlying logger, falling back to the process default so
// the zero value is usable in tests.
func (lg *Logger) slog() *slog.Logger {
	if lg == nil || lg.l == nil {
		return slog.Default()
	}
	return lg.l
}

func (lg Logger) Debug(msg string, kv ...any) { lg.slog().Debug(msg, kv...) }
func (lg Logger) Info(msg string, kv ...any)  { lg.slog().Info(msg, kv...) }
func (lg Logger) Warn(msg string, kv ...any)  { lg.slog().Warn(msg, kv...) }
func (lg Logger) Error(msg string, kv ...any) { lg.slog().Error(msg, kv...) }

func (lg Logger) Infof(format string, args ...any) {
	lg.slog().Info(fmt.Sprintf(format, args...))
}

func (lg Logger) Errorf(format string, args ...any) {
	lg.slog().Error(fmt.Sprintf(format, args...))
}
