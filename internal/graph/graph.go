// Package graph holds the read-only dependency view over a task set:
// an index-based adjacency structure with in-degree bookkeeping, structural
// validation, and Kahn leveling.
package graph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mattmre/taskgrid/internal/task"
)

// UnknownDependencyError reports a depends_on entry naming a task that does
// not exist in the grid. Structural, fatal, pre-execution.
type UnknownDependencyError struct {
	TaskID  string
	Missing string
}

func (e *UnknownDependencyError) Error() string {
	return fmt.Sprintf("task %q depends on unknown task %q", e.TaskID, e.Missing)
}

// DuplicateTaskError reports two tasks sharing one ID.
type DuplicateTaskError struct {
	ID string
}

func (e *DuplicateTaskError) Error() string {
	return fmt.Sprintf("duplicate task id %q", e.ID)
}

// CycleError reports a dependency cycle, naming every task that could never
// become satisfiable. Structural, fatal, pre-execution.
type CycleError struct {
	IDs []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle detected involving: %s", strings.Join(e.IDs, ", "))
}

// Graph is the immutable dependency view over one task set. Tasks are
// addressed by index in input order; adjacency and in-degree are plain
// slices so the acyclic invariant reduces to array bookkeeping.
type Graph struct {
	tasks []*task.Task
	index map[string]int
	// dependents[i] lists the indexes of tasks that depend on task i.
	dependents [][]int
	// inDegree[i] is the number of direct dependencies of task i.
	inDegree []int
}

// New builds and validates the graph. Duplicate IDs, unknown dependency
// references and self-references are rejected; cycle detection happens in
// Levels, which every run performs before dispatching anything.
func New(tasks []*task.Task) (*Graph, error) {
	g := &Graph{
		tasks:      tasks,
		index:      make(map[string]int, len(tasks)),
		dependents: make([][]int, len(tasks)),
		inDegree:   make([]int, len(tasks)),
	}

	for i, t := range tasks {
		if _, ok := g.index[t.ID]; ok {
			return nil, &DuplicateTaskError{ID: t.ID}
		}
		g.index[t.ID] = i
	}

	for i, t := range tasks {
		for _, dep := range t.DependsOn {
			if dep == t.ID {
				return nil, &CycleError{IDs: []string{t.ID}}
			}
			j, ok := g.index[dep]
			if !ok {
				return nil, &UnknownDependencyError{TaskID: t.ID, Missing: dep}
			}
			g.dependents[j] = append(g.dependents[j], i)
			g.inDegree[i]++
		}
	}

	return g, nil
}

// Len returns the number of tasks in the graph.
func (g *Graph) Len() int {
	return len(g.tasks)
}

// Tasks returns the task set in input order.
func (g *Graph) Tasks() []*task.Task {
	return g.tasks
}

// Task returns the task with the given ID.
func (g *Graph) Task(id string) (*task.Task, bool) {
	i, ok := g.index[id]
	if !ok {
		return nil, false
	}
	return g.tasks[i], true
}

// Dependencies returns the IDs of the tasks the given task depends on.
func (g *Graph) Dependencies(id string) ([]string, error) {
	i, ok := g.index[id]
	if !ok {
		return nil, fmt.Errorf("task not found: %s", id)
	}
	return append([]string(nil), g.tasks[i].DependsOn...), nil
}

// Dependents returns the IDs of the tasks that depend on the given task,
// sorted for determinism.
func (g *Graph) Dependents(id string) ([]string, error) {
	i, ok := g.index[id]
	if !ok {
		return nil, fmt.Errorf("task not found: %s", id)
	}
	out := make([]string, 0, len(g.dependents[i]))
	for _, j := range g.dependents[i] {
		out = append(out, g.tasks[j].ID)
	}
	sort.Strings(out)
	return out, nil
}
