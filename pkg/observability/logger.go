// Package observability wires the log, metrics and tracing collaborators.
package observability

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/zen-systems/taskgate/pkg/executor"
)

// LogConfig selects the level and format of the process logger.
type LogConfig struct {
	Level  string // debug, info, warn, error (default info)
	Format string // console or json (default console)
	Output io.Writer
}

// NewLogger builds a zerolog logger from cfg.
func NewLogger(cfg LogConfig) zerolog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	if strings.EqualFold(cfg.Format, "console") || cfg.Format == "" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}
	}
	return zerolog.New(out).Level(parseLevel(cfg.Level)).With().Timestamp().Logger()
}

func parseLevel(s string) zerolog.Level {
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil || s == "" {
		return zerolog.InfoLevel
	}
	return level
}

// Logger adapts zerolog to the executor's log collaborator.
type Logger struct {
	log zerolog.Logger
}

// NewExecutionLogger tags every event with component=executor.
func NewExecutionLogger(log zerolog.Logger) *Logger {
	return &Logger{log: log.With().Str("component", "executor").Logger()}
}

// Log writes one structured event.
func (l *Logger) Log(level executor.Level, msg string, fields map[string]any) {
	l.log.WithLevel(zerologLevel(level)).Fields(fields).Msg(msg)
}

func zerologLevel(level executor.Level) zerolog.Level {
	switch level {
	case executor.LevelDebug:
		return zerolog.DebugLevel
	case executor.LevelWarn:
		return zerolog.WarnLevel
	case executor.LevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
