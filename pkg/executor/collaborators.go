package executor

import (
	"time"

	"github.com/zen-systems/taskgate/pkg/task"
)

// Level is a log severity.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Logger receives lifecycle events.
type Logger interface {
	Log(level Level, msg string, fields map[string]any)
}

// ExecutionRecord is one execution reported to a Recorder.
type ExecutionRecord struct {
	Executor   string
	Duration   time.Duration
	Tokens     int
	Success    bool
	TaskType   task.Kind
	Complexity *int
	Error      string
}

// Recorder receives per-execution metrics.
type Recorder interface {
	RecordExecution(ExecutionRecord)
}

type nopLogger struct{}

func (nopLogger) Log(Level, string, map[string]any) {}

type nopRecorder struct{}

func (nopRecorder) RecordExecution(ExecutionRecord) {}
