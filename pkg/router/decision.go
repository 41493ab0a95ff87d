package router

import "github.com/zen-systems/taskgate/pkg/task"

// Executor names where a task should run.
type Executor string

const (
	ExecutorRemote Executor = "remote"
	ExecutorLocal  Executor = "local"
)

// Lane is the routing band a complexity score falls into.
type Lane string

const (
	LaneRemoteOnly         Lane = "remote-only"
	LaneRemoteWithFallback Lane = "remote-with-fallback"
	LaneLocal              Lane = "local"
)

// Decision captures routing decision details.
type Decision struct {
	Executor    Executor   `json:"executor"`
	CanFallback bool       `json:"canFallback"`
	Lane        Lane       `json:"lane"`
	Complexity  int        `json:"complexity"`
	Task        *task.Task `json:"task"`
	Reasoning   string     `json:"reasoning"`
	Timestamp   string     `json:"timestamp"`
}

// Stats counts decisions per lane since the router was created.
type Stats struct {
	RemoteOnly         int64 `json:"remote_only"`
	RemoteWithFallback int64 `json:"remote_with_fallback"`
	Local              int64 `json:"local"`
}
