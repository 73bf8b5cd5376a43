// Package logger provides structured logging built on log/slog with a
// text handler over an io.Writer. A Logger is a value threaded through
// constructors rather than a package-level global, so components take
// their dependencies explicitly instead of reaching for hidden global
// state.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger wraps a *slog.Logger with printf-style convenience methods.
type Logger struct {
	base *slog.Logger
}

// New builds a Logger writing to w at the given level ("debug", "info",
// "warn", "error"; unrecognized levels default to info).
func New(w io.Writer, level string) *Logger {
	if w == nil {
		w = os.Stdout
	}
	var lv slog.LevelVar
	lv.Set(parseLevel(level))
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: &lv})
	return &Logger{base: slog.New(handler)}
}

// Nop returns a Logger that discards everything, useful in tests.
func Nop() *Logger {
	return New(io.Discard, "error")
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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

// With returns a child Logger carrying the given structured attributes
// on every subsequent line (e.g. symbol, run id).
func (l *Logger) With(args ...any) *Logger {
	return &Logger{base: l.base.With(args...)}
}

func (l *Logger) Debugf(format string, v ...any) { l.base.Debug(fmt.Sprintf(format, v...)) }
func (l *Logger) Infof(format string, v ...any)  { l.base.Info(fmt.Sprintf(format, v...)) }
func (l *Logger) Warnf(format string, v ...any)  { l.base.Warn(fmt.Sprintf(format, v...)) }
func (l *Logger) Errorf(format string, v ...any) { l.base.Error(fmt.Sprintf(format, v...)) }

// Log implements context-aware logging for call sites that already carry
// a context.Context (e.g. exchange/store calls under a deadline).
func (l *Logger) Log(ctx context.Context, level slog.Level, msg string, args ...any) {
	l.base.Log(ctx, level, msg, args...)
}
