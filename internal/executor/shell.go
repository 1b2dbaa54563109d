package executor

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/mattmre/taskgrid/internal/ctxlog"
	"github.com/mattmre/taskgrid/internal/task"
)

// Shell runs a task's "command" argument through the system shell.
// Cancellation is delivered by killing the process via exec.CommandContext.
type Shell struct {
	// Path of the shell binary. Defaults to /bin/sh.
	Path string
}

// Execute implements Executor.
func (s *Shell) Execute(ctx context.Context, t *task.Task) (string, error) {
	command, ok := stringArg(t, "command")
	if !ok {
		return "", fmt.Errorf("task %q: shell runner requires a 'command' argument", t.ID)
	}

	shell := s.Path
	if shell == "" {
		shell = "/bin/sh"
	}

	cmd := exec.CommandContext(ctx, shell, "-c", command)
	if dir, ok := stringArg(t, "workdir"); ok {
		cmd.Dir = dir
	}

	ctxlog.FromContext(ctx).Debug("Running shell command.", "task", t.ID, "command", command)

	out, err := cmd.CombinedOutput()
	output := strings.TrimRight(string(out), "\n")
	if err != nil {
		// Surface the context error so the supervisor can classify
		// cancellation correctly; a killed process reports "signal: killed".
		if ctx.Err() != nil {
			return output, ctx.Err()
		}
		return output, fmt.Errorf("command failed: %w", err)
	}
	return output, nil
}
