package router

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zen-systems/taskgate/pkg/scorer"
	"github.com/zen-systems/taskgate/pkg/task"
)

// fixedScorer scores every task with exactly n.
func fixedScorer(n int) *scorer.Scorer {
	return scorer.New(scorer.Weights{DefaultType: float64(n)})
}

func TestRouteBoundaries(t *testing.T) {
	tests := []struct {
		name        string
		score       int
		executor    Executor
		canFallback bool
		lane        Lane
		phrase      string
	}{
		{"zero", 0, ExecutorRemote, false, LaneRemoteOnly, "low complexity, remote-only"},
		{"below low", 29, ExecutorRemote, false, LaneRemoteOnly, "low complexity, remote-only"},
		{"at low", 30, ExecutorRemote, true, LaneRemoteWithFallback, "medium complexity, remote with fallback"},
		{"above low", 31, ExecutorRemote, true, LaneRemoteWithFallback, "medium complexity, remote with fallback"},
		{"below high", 59, ExecutorRemote, true, LaneRemoteWithFallback, "medium complexity, remote with fallback"},
		{"at high", 60, ExecutorRemote, true, LaneRemoteWithFallback, "medium complexity, remote with fallback"},
		{"above high", 61, ExecutorLocal, false, LaneLocal, "high complexity, local execution"},
		{"max", 100, ExecutorLocal, false, LaneLocal, "high complexity, local execution"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New(WithScorer(fixedScorer(tt.score)))
			d, err := r.Route(&task.Task{Type: task.KindTask, Prompt: "x"})
			require.NoError(t, err)

			assert.Equal(t, tt.score, d.Complexity)
			assert.Equal(t, tt.executor, d.Executor)
			assert.Equal(t, tt.canFallback, d.CanFallback)
			assert.Equal(t, tt.lane, d.Lane)
			assert.Contains(t, d.Reasoning, tt.phrase)
			assert.Contains(t, d.Reasoning, itoa(tt.score))
		})
	}
}

func TestRouteCustomThresholds(t *testing.T) {
	r := New(WithThresholds(10, 20))
	low, high := r.Thresholds()
	assert.Equal(t, 10, low)
	assert.Equal(t, 20, high)

	assert.Equal(t, LaneRemoteOnly, r.Lane(9))
	assert.Equal(t, LaneRemoteWithFallback, r.Lane(10))
	assert.Equal(t, LaneRemoteWithFallback, r.Lane(20))
	assert.Equal(t, LaneLocal, r.Lane(21))
}

func TestRouteScenarios(t *testing.T) {
	r := New()

	d, err := r.Route(&task.Task{Type: task.KindExplore, Prompt: "Find login component"})
	require.NoError(t, err)
	assert.Less(t, d.Complexity, 30)
	assert.Equal(t, ExecutorRemote, d.Executor)
	assert.False(t, d.CanFallback)

	d, err = r.Route(&task.Task{
		Type:     task.KindTask,
		Prompt:   "Run tests and analyze failures with detailed error messages",
		Metadata: task.Metadata{RequiresContext: true},
	})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, d.Complexity, 30)
	assert.LessOrEqual(t, d.Complexity, 60)
	assert.Equal(t, ExecutorRemote, d.Executor)
	assert.True(t, d.CanFallback)

	d, err = r.Route(&task.Task{
		Type:     task.KindGeneralPurpose,
		Prompt:   "Refactor authentication system across multiple modules with comprehensive testing and documentation updates",
		Metadata: task.Metadata{RequiresMultipleSteps: true, RequiresReasoning: true},
	})
	require.NoError(t, err)
	assert.Greater(t, d.Complexity, 60)
	assert.Equal(t, ExecutorLocal, d.Executor)
	assert.False(t, d.CanFallback)

	assert.Equal(t, Stats{RemoteOnly: 1, RemoteWithFallback: 1, Local: 1}, r.Stats())
}

func TestRouteRejectsMissingTask(t *testing.T) {
	r := New()
	_, err := r.Route(nil)
	assert.ErrorIs(t, err, task.ErrInvalidInput)

	_, err = r.RouteJSON([]byte("null"))
	assert.ErrorIs(t, err, task.ErrInvalidInput)

	_, err = r.RouteJSON(nil)
	assert.ErrorIs(t, err, task.ErrInvalidInput)
}

func TestRouteJSONRejectsNonObjects(t *testing.T) {
	r := New()
	for _, raw := range []string{`"x"`, `123`, `[]`, `false`} {
		_, err := r.RouteJSON([]byte(raw))
		assert.ErrorIs(t, err, task.ErrTypeMismatch, raw)
	}
	assert.Equal(t, Stats{}, r.Stats())
}

func TestRouteDoesNotMutateTask(t *testing.T) {
	in := &task.Task{Type: task.KindCodeReview, Prompt: "review the design"}
	d, err := New().Route(in)
	require.NoError(t, err)

	assert.Nil(t, in.Complexity)
	require.NotNil(t, d.Task.Complexity)
	assert.Equal(t, d.Complexity, *d.Task.Complexity)
	assert.Equal(t, in.Prompt, d.Task.Prompt)
	assert.NotSame(t, in, d.Task)
}

func TestRouteTimestampFromClock(t *testing.T) {
	at := time.Date(2026, 3, 4, 5, 6, 7, 0, time.FixedZone("X", 3600))
	r := New(WithClock(func() time.Time { return at }))

	d, err := r.Route(&task.Task{})
	require.NoError(t, err)
	assert.Equal(t, "2026-03-04T04:06:07Z", d.Timestamp)

	parsed, err := time.Parse(time.RFC3339Nano, d.Timestamp)
	require.NoError(t, err)
	assert.True(t, parsed.Equal(at))
}

func TestRouteFreshDecisionEachCall(t *testing.T) {
	r := New()
	tk := &task.Task{Type: task.KindExplore}
	a, err := r.Route(tk)
	require.NoError(t, err)
	b, err := r.Route(tk)
	require.NoError(t, err)
	assert.NotSame(t, a, b)
	assert.NotSame(t, a.Task, b.Task)
}

func TestRouteDebugLog(t *testing.T) {
	var buf bytes.Buffer
	r := New(WithLogger(zerolog.New(&buf).Level(zerolog.DebugLevel)))
	_, err := r.Route(&task.Task{Type: task.KindExplore, Prompt: "find"})
	require.NoError(t, err)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "router", line["component"])
	assert.Equal(t, "remote-only", line["lane"])
	assert.Equal(t, "explore", line["task_type"])
}

func TestDecisionJSON(t *testing.T) {
	d, err := New().Route(&task.Task{Type: task.KindExplore, Prompt: "find"})
	require.NoError(t, err)

	data, err := json.Marshal(d)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, "remote", out["executor"])
	assert.Equal(t, false, out["canFallback"])
	assert.Contains(t, out, "timestamp")
	assert.Contains(t, out["task"], "complexity")
}

func itoa(n int) string {
	b, _ := json.Marshal(n)
	return string(b)
}
