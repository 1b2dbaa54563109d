// Package result aggregates terminal task outcomes into the run summary.
// The aggregator is deliberately not self-locking: the scheduler feeds it
// from a single goroutine consuming the results channel, so the narrowest
// possible critical section is no critical section at all.
package result

import (
	"time"

	"github.com/mattmre/taskgrid/internal/task"
)

// Outcome is the run-level terminal state.
type Outcome int

const (
	// OutcomeCompleted means every task reached a terminal status and no
	// fatal structural error occurred. Recorded failures are allowed under
	// continue-on-error.
	OutcomeCompleted Outcome = iota
	// OutcomeFailed means fail-fast halted the run.
	OutcomeFailed
)

func (o Outcome) String() string {
	if o == OutcomeFailed {
		return "failed"
	}
	return "completed"
}

// Results is the aggregate artifact of one run, finalized exactly once.
type Results struct {
	RunID string
	Mode  task.Mode

	Total     int
	Succeeded []task.Result
	Failed    []task.Result
	Cancelled []task.Result

	// Duration is wall-clock time from run start to the last terminal result.
	Duration time.Duration
	// SuccessRate is len(Succeeded)/Total, or 0.0 for an empty run.
	SuccessRate float64
	Outcome     Outcome
}

// Aggregator collects terminal results as they arrive. Timeouts land in the
// failed bucket; dry-run results count as succeeded.
type Aggregator struct {
	start     time.Time
	last      time.Time
	total     int
	succeeded []task.Result
	failed    []task.Result
	cancelled []task.Result
}

// NewAggregator starts the run clock for a run of the given size.
func NewAggregator(total int) *Aggregator {
	return &Aggregator{start: time.Now(), total: total}
}

// Add records one terminal result into its bucket.
func (a *Aggregator) Add(r task.Result) {
	a.last = time.Now()
	switch r.Status {
	case task.StatusSuccess, task.StatusDryRun:
		a.succeeded = append(a.succeeded, r)
	case task.StatusCancelled:
		a.cancelled = append(a.cancelled, r)
	default:
		a.failed = append(a.failed, r)
	}
}

// Finalize freezes the aggregate. Call exactly once, after the last result.
func (a *Aggregator) Finalize(runID string, mode task.Mode, outcome Outcome) *Results {
	end := a.last
	if end.IsZero() {
		end = time.Now()
	}

	rate := 0.0
	if a.total > 0 {
		rate = float64(len(a.succeeded)) / float64(a.total)
	}

	return &Results{
		RunID:       runID,
		Mode:        mode,
		Total:       a.total,
		Succeeded:   a.succeeded,
		Failed:      a.failed,
		Cancelled:   a.cancelled,
		Duration:    end.Sub(a.start),
		SuccessRate: rate,
		Outcome:     outcome,
	}
}
