package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mattmre/taskgrid/internal/ctxlog"
	"github.com/mattmre/taskgrid/internal/executor"
	"github.com/mattmre/taskgrid/internal/task"
)

// supervise runs exactly one task under its deadline and classifies the
// terminal status. The executor runs in its own goroutine and receives
// cancellation through the task context; if the deadline fires first the
// supervisor records Timeout immediately and leaves the late outcome to
// drain into the buffered channel, where it is ignored.
func (s *Scheduler) supervise(ctx context.Context, t *task.Task) task.Result {
	logger := ctxlog.FromContext(ctx).With("task", t.ID)

	exec, ok := s.registry.Lookup(t.Runner)
	if !ok {
		// The registry is validated before the run; reaching this means a
		// runner was deregistered mid-run.
		return task.Result{
			TaskID: t.ID,
			Status: task.StatusFailed,
			Err:    &executor.UnknownRunnerError{TaskID: t.ID, Runner: t.Runner},
		}
	}

	timeout := s.cfg.TaskTimeout(t)
	taskCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type outcome struct {
		output string
		err    error
	}
	outcomeCh := make(chan outcome, 1)

	start := time.Now()
	logger.Debug("Task started.", "runner", t.Runner, "timeout", timeout)
	go func() {
		out, err := exec.Execute(taskCtx, t)
		outcomeCh <- outcome{output: out, err: err}
	}()

	select {
	case o := <-outcomeCh:
		dur := time.Since(start)
		switch {
		case o.err == nil:
			return task.Result{TaskID: t.ID, Status: task.StatusSuccess, Duration: dur, Output: o.output}
		case ctx.Err() != nil || errors.Is(o.err, context.Canceled):
			// Interrupted by fail-fast, not by its own deadline.
			return task.Result{
				TaskID:   t.ID,
				Status:   task.StatusCancelled,
				Duration: dur,
				Err:      fmt.Errorf("interrupted: %w", o.err),
			}
		case errors.Is(o.err, context.DeadlineExceeded):
			return timeoutResult(t, dur, timeout)
		default:
			return task.Result{TaskID: t.ID, Status: task.StatusFailed, Duration: dur, Err: o.err}
		}

	case <-taskCtx.Done():
		dur := time.Since(start)
		if ctx.Err() != nil {
			return task.Result{
				TaskID:   t.ID,
				Status:   task.StatusCancelled,
				Duration: dur,
				Err:      fmt.Errorf("interrupted: %w", ctx.Err()),
			}
		}
		logger.Warn("Task deadline exceeded, cancellation signalled.", "timeout", timeout)
		return timeoutResult(t, dur, timeout)
	}
}

func timeoutResult(t *task.Task, dur, timeout time.Duration) task.Result {
	return task.Result{
		TaskID:   t.ID,
		Status:   task.StatusTimeout,
		Duration: dur,
		Err:      fmt.Errorf("timed out after %s: %w", timeout, context.DeadlineExceeded),
	}
}
