package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/mattmre/taskgrid/internal/ctxlog"
	"github.com/mattmre/taskgrid/internal/executor"
	"github.com/mattmre/taskgrid/internal/graph"
	"github.com/mattmre/taskgrid/internal/result"
	"github.com/mattmre/taskgrid/internal/task"
)

// errHalted marks tasks that never started because fail-fast stopped
// dispatch after an earlier failure.
var errHalted = errors.New("not started: run halted by earlier failure")

// Scheduler drives one run. It is single-use: construct, Run once, discard.
type Scheduler struct {
	runID    string
	cfg      task.RunConfig
	graph    *graph.Graph
	levels   []graph.Level
	registry *executor.Registry

	// sem is the counting semaphore gating dispatch. A task holds one
	// permit from start to terminal status, released unconditionally.
	sem chan struct{}

	mu     sync.Mutex
	failed bool

	state atomic.Int32
}

// New wires a scheduler for one run. cfg must already be normalized; levels
// are only consulted in dependency-aware mode but are computed for every
// run so structural errors surface before dispatch.
func New(runID string, cfg task.RunConfig, g *graph.Graph, levels []graph.Level, reg *executor.Registry) *Scheduler {
	s := &Scheduler{
		runID:    runID,
		cfg:      cfg,
		graph:    g,
		levels:   levels,
		registry: reg,
		sem:      make(chan struct{}, cfg.ParallelLimit),
	}
	s.state.Store(int32(StateInitializing))
	return s
}

// Run executes the whole task set under the configured mode and policies
// and returns the finalized aggregate. Per-task errors are recorded, never
// returned; the caller always receives well-formed results.
func (s *Scheduler) Run(ctx context.Context) *result.Results {
	logger := ctxlog.FromContext(ctx).With("runID", s.runID, "mode", s.cfg.Mode().String())
	ctx = ctxlog.WithLogger(ctx, logger)

	s.transition(ctx, StateReady)
	mode := s.cfg.Mode()
	agg := result.NewAggregator(s.graph.Len())
	s.transition(ctx, StateRunning)

	if mode == task.ModeDryRun {
		for _, t := range s.graph.Tasks() {
			logger.Info("Dry-run: task recorded, executor not invoked.", "task", t.ID)
			agg.Add(task.Result{TaskID: t.ID, Status: task.StatusDryRun})
		}
		s.transition(ctx, StateCompleted)
		return agg.Finalize(s.runID, mode, result.OutcomeCompleted)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Results flow through a channel into one aggregating goroutine, so
	// the aggregate itself needs no lock.
	results := make(chan task.Result, s.graph.Len())
	aggDone := make(chan struct{})
	go func() {
		defer close(aggDone)
		for r := range results {
			logger.Info("Task reached terminal status.",
				"task", r.TaskID, "status", r.Status.String(), "duration", r.Duration)
			agg.Add(r)
		}
	}()

	if mode == task.ModeDependencyAware {
		for i, level := range s.levels {
			logger.Debug("Offering level to the pool.", "level", i, "tasks", level.IDs())
			s.dispatch(runCtx, cancel, level, results)
		}
	} else {
		s.dispatch(runCtx, cancel, s.graph.Tasks(), results)
	}

	close(results)
	<-aggDone

	outcome := result.OutcomeCompleted
	final := StateCompleted
	if s.cfg.FailFast && s.failureObserved() {
		outcome = result.OutcomeFailed
		final = StateFailed
	}
	s.transition(ctx, final)

	return agg.Finalize(s.runID, mode, outcome)
}

// dispatch offers one batch of tasks to the semaphore-gated pool and waits
// for every task of the batch to reach a terminal status. Permits are
// acquired in the offer loop, which both bounds concurrency and preserves
// input order when the limit is one.
func (s *Scheduler) dispatch(ctx context.Context, cancel context.CancelFunc, batch []*task.Task, results chan<- task.Result) {
	var g errgroup.Group
	for _, t := range batch {
		t := t
		if s.halted() || ctx.Err() != nil {
			results <- cancelledResult(t)
			continue
		}

		select {
		case s.sem <- struct{}{}:
		case <-ctx.Done():
			results <- cancelledResult(t)
			continue
		}

		// Re-check after the acquire: a permit freed by a failing task can
		// become available in the same instant the run context is cancelled,
		// and the select picks either case.
		if s.halted() || ctx.Err() != nil {
			<-s.sem
			results <- cancelledResult(t)
			continue
		}

		g.Go(func() error {
			defer func() { <-s.sem }()
			r := s.supervise(ctx, t)
			if r.Status == task.StatusFailed || r.Status == task.StatusTimeout {
				s.noteFailure(ctx, cancel, r.TaskID)
			}
			results <- r
			return nil
		})
	}
	g.Wait()
}

func cancelledResult(t *task.Task) task.Result {
	return task.Result{TaskID: t.ID, Status: task.StatusCancelled, Err: errHalted}
}

// noteFailure records the first failure and applies the failure policy:
// fail-fast cancels the run context, continue-on-error passes through the
// observational Paused state and resumes.
func (s *Scheduler) noteFailure(ctx context.Context, cancel context.CancelFunc, id string) {
	s.mu.Lock()
	first := !s.failed
	s.failed = true
	s.mu.Unlock()
	if !first {
		return
	}

	logger := ctxlog.FromContext(ctx)
	if s.cfg.FailFast {
		logger.Warn("Failure observed, halting further dispatch.", "task", id)
		cancel()
		return
	}
	s.transition(ctx, StatePaused)
	logger.Warn("Failure recorded, dispatch continues.", "task", id)
	s.transition(ctx, StateRunning)
}

func (s *Scheduler) failureObserved() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failed
}

// halted reports whether fail-fast has stopped the offering of tasks that
// have not yet started.
func (s *Scheduler) halted() bool {
	return s.cfg.FailFast && s.failureObserved()
}
