// Package executor provides the Task Executor capability: the interface the
// scheduler invokes at most once per task per run, a registry mapping runner
// type names to implementations, and the built-in runners.
package executor

import (
	"context"
	"fmt"

	"github.com/mattmre/taskgrid/internal/task"
)

// Executor runs the business logic of a single task. Implementations must
// honor ctx cancellation cooperatively; the scheduler does not wait on a
// runner that ignores it.
type Executor interface {
	Execute(ctx context.Context, t *task.Task) (string, error)
}

// UnknownRunnerError reports a task naming a runner type that is not
// registered. Structural, fatal, pre-execution.
type UnknownRunnerError struct {
	TaskID string
	Runner string
}

func (e *UnknownRunnerError) Error() string {
	return fmt.Sprintf("task %q uses unknown runner type %q", e.TaskID, e.Runner)
}

// Registry maps runner type names to executors.
type Registry struct {
	executors map[string]Executor
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{executors: make(map[string]Executor)}
}

// Register adds or replaces the executor for a runner type name.
func (r *Registry) Register(name string, e Executor) {
	r.executors[name] = e
}

// Lookup returns the executor registered under the given runner type name.
func (r *Registry) Lookup(name string) (Executor, bool) {
	e, ok := r.executors[name]
	return e, ok
}

// Validate checks that every task references a registered runner type, so
// the mismatch surfaces before anything executes.
func (r *Registry) Validate(tasks []*task.Task) error {
	for _, t := range tasks {
		if _, ok := r.executors[t.Runner]; !ok {
			return &UnknownRunnerError{TaskID: t.ID, Runner: t.Runner}
		}
	}
	return nil
}

// Builtin returns a registry with the runners shipped with the CLI.
func Builtin() *Registry {
	r := NewRegistry()
	r.Register("shell", &Shell{})
	r.Register("http", &HTTP{})
	r.Register("sleep", &Sleep{})
	return r
}
