package app

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/mattmre/taskgrid/internal/ctxlog"
	"github.com/mattmre/taskgrid/internal/graph"
	"github.com/mattmre/taskgrid/internal/gridfile"
	"github.com/mattmre/taskgrid/internal/report"
	"github.com/mattmre/taskgrid/internal/result"
	"github.com/mattmre/taskgrid/internal/scheduler"
)

// Run executes one full run: load the grid, validate structure, dispatch,
// and render the summary. Structural errors (unknown dependency, cycle,
// unknown runner, unreadable grid) are returned in place of results;
// per-task failures are recorded inside the returned results instead.
func (a *App) Run(ctx context.Context) (*result.Results, error) {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	grid, err := gridfile.Load(a.config.GridPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load grid: %w", err)
	}
	a.logger.Debug("Grid loaded.", "tasks", len(grid.Tasks))

	cfg := grid.Defaults.Apply(a.config.Run, a.config.FlagsSet).Normalize()

	g, err := graph.New(grid.Tasks)
	if err != nil {
		return nil, fmt.Errorf("failed to build dependency graph: %w", err)
	}
	levels, err := g.Levels()
	if err != nil {
		return nil, fmt.Errorf("failed to order dependency graph: %w", err)
	}
	a.logger.Debug("Dependency graph built.", "tasks", g.Len(), "levels", len(levels))

	if err := a.registry.Validate(grid.Tasks); err != nil {
		return nil, err
	}

	if g.Len() == 0 {
		a.logger.Warn("No tasks found in grid, execution not required.")
	}

	runID := uuid.NewString()
	logger := a.logger.With("runID", runID)
	logger.Info("🚀 Starting run.",
		"mode", cfg.Mode().String(),
		"tasks", g.Len(),
		"parallelLimit", cfg.ParallelLimit,
		"timeout", cfg.Timeout)

	sched := scheduler.New(runID, cfg, g, levels, a.registry)
	res := sched.Run(ctxlog.WithLogger(ctx, logger))

	logger.Info("🏁 Run finished.",
		"outcome", res.Outcome.String(),
		"succeeded", len(res.Succeeded),
		"failed", len(res.Failed),
		"cancelled", len(res.Cancelled),
		"duration", res.Duration)

	renderer := report.Renderer{Styled: a.config.LogFormat == "text" && !a.config.NoColor}
	fmt.Fprintln(a.outW, renderer.Render(res))

	a.logger.Debug("App.Run method finished.")
	return res, nil
}
