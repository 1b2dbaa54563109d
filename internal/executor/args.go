package executor

import (
	"fmt"
	"time"

	"github.com/mattmre/taskgrid/internal/task"
	"github.com/zclconf/go-cty/cty"
)

// stringArg extracts a string argument from the task payload.
func stringArg(t *task.Task, key string) (string, bool) {
	v, ok := t.Arguments[key]
	if !ok || v.IsNull() || v.Type() != cty.String {
		return "", false
	}
	return v.AsString(), true
}

// intArg extracts a numeric argument, truncating to int.
func intArg(t *task.Task, key string) (int, bool) {
	v, ok := t.Arguments[key]
	if !ok || v.IsNull() || v.Type() != cty.Number {
		return 0, false
	}
	f, _ := v.AsBigFloat().Float64()
	return int(f), true
}

// durationArg parses a Go duration string argument ("250ms", "5s").
func durationArg(t *task.Task, key string) (time.Duration, bool, error) {
	s, ok := stringArg(t, key)
	if !ok {
		return 0, false, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, true, fmt.Errorf("argument %q of task %q: %w", key, t.ID, err)
	}
	return d, true, nil
}
