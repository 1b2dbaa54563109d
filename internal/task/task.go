// Package task defines the immutable descriptors and terminal artifacts of
// a run: the Task itself, the closed Status variant, the per-task Result,
// and the RunConfig that selects an execution mode.
package task

import (
	"time"

	"github.com/zclconf/go-cty/cty"
)

// Task is a single unit of work. It is input data and is never mutated
// after loading; all execution state lives in the scheduler.
type Task struct {
	// ID is the unique identifier of the task within one grid.
	ID string
	// Name is the optional human-readable description.
	Name string
	// Runner names the executor capability that runs this task ("shell",
	// "http", ...).
	Runner string
	// Arguments is the opaque payload handed to the executor.
	Arguments map[string]cty.Value
	// DependsOn lists the IDs of tasks that must terminate before this one
	// may start, in dependency-aware mode.
	DependsOn []string
	// Timeout overrides the run-wide per-task deadline when > 0.
	Timeout time.Duration
}

// Label returns the task's name when set, otherwise its ID.
func (t *Task) Label() string {
	if t.Name != "" {
		return t.Name
	}
	return t.ID
}

// Status is the terminal state of one task execution attempt.
type Status int

const (
	// StatusSuccess means the executor returned without error.
	StatusSuccess Status = iota
	// StatusFailed means the executor reported an error.
	StatusFailed
	// StatusTimeout means the per-task deadline elapsed first.
	StatusTimeout
	// StatusCancelled means the task never started, or was interrupted,
	// because fail-fast halted the run.
	StatusCancelled
	// StatusDryRun means the run simulated the task without invoking the
	// executor. Counts as succeeded.
	StatusDryRun
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusFailed:
		return "failed"
	case StatusTimeout:
		return "timeout"
	case StatusCancelled:
		return "cancelled"
	case StatusDryRun:
		return "dry-run"
	default:
		return "unknown"
	}
}

// Result records the terminal outcome of one task. Created exactly once
// per task per run and never mutated afterward.
type Result struct {
	TaskID   string
	Status   Status
	Duration time.Duration
	// Output holds the executor's output on success.
	Output string
	// Err holds the execution, timeout or cancellation error otherwise.
	Err error
}

// Succeeded reports whether the result lands in the succeeded bucket.
// Dry-run results are treated as succeeded.
func (r Result) Succeeded() bool {
	return r.Status == StatusSuccess || r.Status == StatusDryRun
}

// Defaults applied by RunConfig.Normalize.
const (
	DefaultParallelLimit = 4
	DefaultTimeout       = 300 * time.Second
)

// RunConfig holds the policy knobs for one run. It is immutable for the
// life of the run; Normalize returns the effective copy.
type RunConfig struct {
	// Parallel enables concurrent dispatch. False selects sequential mode.
	Parallel bool
	// ParallelLimit bounds the number of tasks executing simultaneously.
	ParallelLimit int
	// Timeout is the per-task deadline.
	Timeout time.Duration
	// ContinueOnError keeps dispatching after failures.
	ContinueOnError bool
	// FailFast halts dispatch of not-yet-started tasks on the first
	// failure or timeout.
	FailFast bool
	// RespectDependencies selects level-gated dispatch.
	RespectDependencies bool
	// DryRun records every task as simulated without invoking executors.
	DryRun bool
}

// Normalize applies defaults and reconciles the policy flags. Sequential
// mode is the degenerate case of a parallel limit of one. ContinueOnError
// forces FailFast off; a FailFast that is already off is left alone, so an
// explicit --fail-fast=false is honored. The fail-fast default lives where
// configuration is constructed (CLI flag default, grid file defaults).
func (c RunConfig) Normalize() RunConfig {
	if c.ParallelLimit < 1 {
		c.ParallelLimit = DefaultParallelLimit
	}
	if !c.Parallel {
		c.ParallelLimit = 1
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.ContinueOnError {
		c.FailFast = false
	}
	return c
}

// TaskTimeout returns the effective deadline for one task.
func (c RunConfig) TaskTimeout(t *Task) time.Duration {
	if t.Timeout > 0 {
		return t.Timeout
	}
	return c.Timeout
}

// Mode identifies how the scheduler composes dispatch for a run.
type Mode int

const (
	ModeSequential Mode = iota
	ModeParallel
	ModeDependencyAware
	ModeDryRun
)

func (m Mode) String() string {
	switch m {
	case ModeSequential:
		return "sequential"
	case ModeParallel:
		return "parallel"
	case ModeDependencyAware:
		return "dependency-aware"
	case ModeDryRun:
		return "dry-run"
	default:
		return "unknown"
	}
}

// Mode returns the execution mode selected by the configuration. Dry-run
// wins over everything; dependency awareness wins over free dispatch.
func (c RunConfig) Mode() Mode {
	switch {
	case c.DryRun:
		return ModeDryRun
	case c.RespectDependencies:
		return ModeDependencyAware
	case c.Parallel:
		return ModeParallel
	default:
		return ModeSequential
	}
}
