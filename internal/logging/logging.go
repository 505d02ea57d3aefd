// Package logging wraps zerolog with the Infof/Warnf/Errorf calling
// convention used throughout this codebase.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

var base zerolog.Logger

func init() {
	zerolog.TimeFieldFormat = time.RFC3339
	base = zerolog.New(consoleWriter(os.Stdout)).With().Timestamp().Logger()
}

func consoleWriter(w io.Writer) io.Writer {
	return zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
}

// SetLevel adjusts the global minimum log level, e.g. "debug", "info", "warn".
func SetLevel(level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}

// Logger is a component-scoped logger. Components hold one of these rather
// than calling the package-level functions directly so that log lines carry
// a "component" field.
type Logger struct {
	z zerolog.Logger
}

// For returns a Logger scoped to the named component.
func For(component string) Logger {
	return Logger{z: base.With().Str("component", component).Logger()}
}

func (l Logger) Infof(format string, args ...any) {
	l.z.Info().Msgf(format, args...)
}

func (l Logger) Warnf(format string, args ...any) {
	l.z.Warn().Msgf(format, args...)
}

func (l Logger) Errorf(format string, args ...any) {
	l.z.Error().Msgf(format, args...)
}

func (l Logger) Debugf(format string, args ...any) {
	l.z.Debug().Msgf(format, args...)
}

// Critical logs at error level with a "critical" marker field, for
// incidents that must surface via log aggregation even without metrics.
func (l Logger) Critical(msg string, fields map[string]any) {
	ev := l.z.Error().Bool("critical", true)
	for k, v := range fields {
		ev = ev.Interface(k, v)
	}
	ev.Msg(msg)
}
