package scheduler

import (
	"context"

	"github.com/mattmre/taskgrid/internal/ctxlog"
)

// State is the run-level state machine position. Paused is observational:
// it is entered when a failure occurs under continue-on-error and is left
// again immediately, without blocking dispatch.
type State int32

const (
	StateInitializing State = iota
	StateReady
	StateRunning
	StatePaused
	StateCompleted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// State returns the scheduler's current state.
func (s *Scheduler) State() State {
	return State(s.state.Load())
}

func (s *Scheduler) transition(ctx context.Context, to State) {
	from := State(s.state.Swap(int32(to)))
	if from != to {
		ctxlog.FromContext(ctx).Debug("Run state transition.", "from", from.String(), "to", to.String())
	}
}
