package app

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattmre/taskgrid/internal/executor"
	"github.com/mattmre/taskgrid/internal/graph"
	"github.com/mattmre/taskgrid/internal/result"
	"github.com/mattmre/taskgrid/internal/task"
)

func writeGrid(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "main.hcl")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func testConfig(t *testing.T, gridPath string, run task.RunConfig) *Config {
	t.Helper()
	cfg, err := NewConfig(Config{
		GridPath:  gridPath,
		LogFormat: "text",
		LogLevel:  "error",
		NoColor:   true,
		Run:       run,
	})
	require.NoError(t, err)
	return cfg
}

func TestNewConfig(t *testing.T) {
	t.Run("grid path is required", func(t *testing.T) {
		_, err := NewConfig(Config{Run: task.RunConfig{ParallelLimit: 1}})
		assert.ErrorContains(t, err, "grid path")
	})

	t.Run("parallel limit must be positive", func(t *testing.T) {
		_, err := NewConfig(Config{GridPath: "x.hcl"})
		assert.ErrorContains(t, err, "parallel limit")
	})

	t.Run("empty log options get defaults", func(t *testing.T) {
		cfg, err := NewConfig(Config{GridPath: "x.hcl", Run: task.RunConfig{ParallelLimit: 1}})
		require.NoError(t, err)
		assert.Equal(t, "text", cfg.LogFormat)
		assert.Equal(t, "info", cfg.LogLevel)
	})

	t.Run("unknown log format is rejected", func(t *testing.T) {
		_, err := NewConfig(Config{GridPath: "x.hcl", LogFormat: "xml", Run: task.RunConfig{ParallelLimit: 1}})
		assert.ErrorContains(t, err, "unsupported log format")
	})

	t.Run("unknown log level is rejected", func(t *testing.T) {
		_, err := NewConfig(Config{GridPath: "x.hcl", LogLevel: "loud", Run: task.RunConfig{ParallelLimit: 1}})
		assert.ErrorContains(t, err, "unsupported log level")
	})
}

func TestConfig_NewLogger(t *testing.T) {
	cfg, err := NewConfig(Config{
		GridPath:  "x.hcl",
		LogFormat: "json",
		LogLevel:  "warn",
		Run:       task.RunConfig{ParallelLimit: 1},
	})
	require.NoError(t, err)

	out := &bytes.Buffer{}
	logger := cfg.newLogger(out)
	logger.Info("below the configured level")
	logger.Warn("at the configured level")

	assert.NotContains(t, out.String(), "below the configured level")
	assert.Contains(t, out.String(), "at the configured level")
	assert.Contains(t, out.String(), `"level":"WARN"`, "json format emits JSON records")
}

func TestApp_Run_DependencyAwarePipeline(t *testing.T) {
	gridPath := writeGrid(t, `
task "one" {
  runner = "sleep"
  arguments {
    duration = "10ms"
  }
}

task "two" {
  runner     = "sleep"
  depends_on = ["one"]
  arguments {
    duration = "10ms"
  }
}

task "three" {
  runner     = "sleep"
  depends_on = ["one"]
  arguments {
    duration = "10ms"
  }
}
`)

	out := &bytes.Buffer{}
	a := NewApp(out, testConfig(t, gridPath, task.RunConfig{
		Parallel:            true,
		ParallelLimit:       2,
		Timeout:             5 * time.Second,
		RespectDependencies: true,
	}))

	res, err := a.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, result.OutcomeCompleted, res.Outcome)
	assert.Len(t, res.Succeeded, 3)
	assert.InDelta(t, 1.0, res.SuccessRate, 1e-9)
	assert.Contains(t, out.String(), "succeeded 3")
}

func TestApp_Run_GridDefaultsApply(t *testing.T) {
	gridPath := writeGrid(t, `
defaults {
  continue_on_error = true
}

task "boom" {
  runner = "shell"
  arguments {
    command = "exit 1"
  }
}

task "fine" {
  runner = "shell"
  arguments {
    command = "true"
  }
}
`)

	out := &bytes.Buffer{}
	a := NewApp(out, testConfig(t, gridPath, task.RunConfig{ParallelLimit: 1, Timeout: 5 * time.Second}))

	res, err := a.Run(context.Background())
	require.NoError(t, err)

	// continue_on_error from the file keeps the run going past the failure.
	assert.Equal(t, result.OutcomeCompleted, res.Outcome)
	assert.Len(t, res.Failed, 1)
	assert.Len(t, res.Succeeded, 1)
}

func TestApp_Run_FailFastRun(t *testing.T) {
	gridPath := writeGrid(t, `
task "boom" {
  runner = "shell"
  arguments {
    command = "exit 7"
  }
}

task "never" {
  runner = "shell"
  arguments {
    command = "true"
  }
}
`)

	out := &bytes.Buffer{}
	a := NewApp(out, testConfig(t, gridPath, task.RunConfig{ParallelLimit: 1, Timeout: 5 * time.Second, FailFast: true}))

	res, err := a.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, result.OutcomeFailed, res.Outcome)
	require.Len(t, res.Failed, 1)
	assert.Equal(t, "boom", res.Failed[0].TaskID)
	require.Len(t, res.Cancelled, 1)
	assert.Equal(t, "never", res.Cancelled[0].TaskID)
}

func TestApp_Run_DryRun(t *testing.T) {
	gridPath := writeGrid(t, `
task "danger" {
  runner = "shell"
  arguments {
    command = "rm -rf /this/never/runs"
  }
}
`)

	out := &bytes.Buffer{}
	a := NewApp(out, testConfig(t, gridPath, task.RunConfig{ParallelLimit: 1, DryRun: true}))

	res, err := a.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Succeeded, 1)
	assert.Equal(t, task.StatusDryRun, res.Succeeded[0].Status)
	assert.Zero(t, res.Succeeded[0].Duration)
}

func TestApp_Run_StructuralErrors(t *testing.T) {
	t.Run("cycle aborts before execution", func(t *testing.T) {
		gridPath := writeGrid(t, `
task "a" {
  runner     = "sleep"
  depends_on = ["b"]
  arguments {
    duration = "1ms"
  }
}

task "b" {
  runner     = "sleep"
  depends_on = ["a"]
  arguments {
    duration = "1ms"
  }
}
`)

		a := NewApp(&bytes.Buffer{}, testConfig(t, gridPath, task.RunConfig{ParallelLimit: 1}))
		res, err := a.Run(context.Background())
		assert.Nil(t, res)
		var cycleErr *graph.CycleError
		require.ErrorAs(t, err, &cycleErr)
		assert.ElementsMatch(t, []string{"a", "b"}, cycleErr.IDs)
	})

	t.Run("unknown dependency aborts", func(t *testing.T) {
		gridPath := writeGrid(t, `
task "a" {
  runner     = "sleep"
  depends_on = ["ghost"]
  arguments {
    duration = "1ms"
  }
}
`)

		a := NewApp(&bytes.Buffer{}, testConfig(t, gridPath, task.RunConfig{ParallelLimit: 1}))
		_, err := a.Run(context.Background())
		var depErr *graph.UnknownDependencyError
		require.ErrorAs(t, err, &depErr)
		assert.Equal(t, "ghost", depErr.Missing)
	})

	t.Run("unknown runner aborts", func(t *testing.T) {
		gridPath := writeGrid(t, `
task "a" {
  runner = "teleport"
}
`)

		a := NewApp(&bytes.Buffer{}, testConfig(t, gridPath, task.RunConfig{ParallelLimit: 1}))
		_, err := a.Run(context.Background())
		var runnerErr *executor.UnknownRunnerError
		require.ErrorAs(t, err, &runnerErr)
		assert.Equal(t, "teleport", runnerErr.Runner)
	})

	t.Run("unreadable grid aborts", func(t *testing.T) {
		a := NewApp(&bytes.Buffer{}, testConfig(t, filepath.Join(t.TempDir(), "nope.hcl"), task.RunConfig{ParallelLimit: 1}))
		_, err := a.Run(context.Background())
		assert.ErrorContains(t, err, "failed to load grid")
	})
}

func TestApp_Registry_AcceptsCustomRunners(t *testing.T) {
	gridPath := writeGrid(t, `
task "custom" {
  runner = "noop"
}
`)

	a := NewApp(&bytes.Buffer{}, testConfig(t, gridPath, task.RunConfig{ParallelLimit: 1, Timeout: time.Second}))
	a.Registry().Register("noop", noopExecutor{})

	res, err := a.Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, res.Succeeded, 1)
}

type noopExecutor struct{}

func (noopExecutor) Execute(_ context.Context, _ *task.Task) (string, error) {
	return "noop", nil
}
