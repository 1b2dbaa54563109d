package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/mattmre/taskgrid/internal/task"
)

// Sleep waits for the task's "duration" argument. Useful for exercising
// concurrency limits and timeout behavior without side effects.
type Sleep struct{}

// Execute implements Executor.
func (s *Sleep) Execute(ctx context.Context, t *task.Task) (string, error) {
	d, present, err := durationArg(t, "duration")
	if err != nil {
		return "", err
	}
	if !present {
		return "", fmt.Errorf("task %q: sleep runner requires a 'duration' argument", t.ID)
	}

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return fmt.Sprintf("slept %s", d), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
