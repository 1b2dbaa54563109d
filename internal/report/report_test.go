package report

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mattmre/taskgrid/internal/result"
	"github.com/mattmre/taskgrid/internal/task"
)

func sampleResults() *result.Results {
	return &result.Results{
		RunID: "run-42",
		Mode:  task.ModeDependencyAware,
		Total: 4,
		Succeeded: []task.Result{
			{TaskID: "fetch", Status: task.StatusSuccess, Duration: 120 * time.Millisecond},
			{TaskID: "gen", Status: task.StatusSuccess, Duration: 80 * time.Millisecond},
		},
		Failed: []task.Result{
			{TaskID: "build", Status: task.StatusTimeout, Duration: time.Second, Err: errors.New("timed out after 1s")},
		},
		Cancelled: []task.Result{
			{TaskID: "test", Status: task.StatusCancelled},
		},
		Duration:    1310 * time.Millisecond,
		SuccessRate: 0.5,
		Outcome:     result.OutcomeFailed,
	}
}

func TestRender_Plain(t *testing.T) {
	out := Renderer{}.Render(sampleResults())

	assert.Contains(t, out, "run run-42 (dependency-aware) failed in 1.31s")
	assert.Contains(t, out, "total 4")
	assert.Contains(t, out, "succeeded 2")
	assert.Contains(t, out, "failed 1")
	assert.Contains(t, out, "cancelled 1")
	assert.Contains(t, out, "success rate 50.0%")
	assert.Contains(t, out, "build (timeout, 1s): timed out after 1s")
	assert.Contains(t, out, "- test")
	assert.NotContains(t, out, "\x1b[", "plain mode must not emit escape sequences")
}

func TestRender_EmptyRun(t *testing.T) {
	out := Renderer{}.Render(&result.Results{
		RunID:   "run-0",
		Mode:    task.ModeSequential,
		Outcome: result.OutcomeCompleted,
	})

	assert.Contains(t, out, "total 0")
	assert.Contains(t, out, "success rate 0.0%")
	assert.False(t, strings.Contains(out, "failed:"), "no failed section for a clean run")
	assert.False(t, strings.Contains(out, "cancelled:"), "no cancelled section for a clean run")
}
