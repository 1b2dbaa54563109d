package graph

import "github.com/mattmre/taskgrid/internal/task"

// Level is a batch of tasks with no dependency among them. All of their
// dependencies live in strictly earlier levels.
type Level []*task.Task

// IDs returns the task IDs of the level, in level order.
func (l Level) IDs() []string {
	out := make([]string, len(l))
	for i, t := range l {
		out[i] = t.ID
	}
	return out
}

// Levels partitions the graph with Kahn's algorithm. Each pass collects, in
// input order, every unplaced task whose dependencies are all placed; the
// pass forms one level. If a pass places nothing while tasks remain, the
// remainder is a cycle and is reported as a CycleError naming its members.
func (g *Graph) Levels() ([]Level, error) {
	remaining := make([]int, len(g.inDegree))
	copy(remaining, g.inDegree)
	placed := make([]bool, len(g.tasks))

	var levels []Level
	left := len(g.tasks)

	for left > 0 {
		var level Level
		var indexes []int
		for i, t := range g.tasks {
			if !placed[i] && remaining[i] == 0 {
				level = append(level, t)
				indexes = append(indexes, i)
			}
		}

		if len(level) == 0 {
			var stuck []string
			for i, t := range g.tasks {
				if !placed[i] {
					stuck = append(stuck, t.ID)
				}
			}
			return nil, &CycleError{IDs: stuck}
		}

		// Unlock dependents only after the full pass, so a task never
		// lands in the same level as one of its dependencies.
		for _, i := range indexes {
			placed[i] = true
			for _, j := range g.dependents[i] {
				remaining[j]--
			}
		}

		levels = append(levels, level)
		left -= len(level)
	}

	return levels, nil
}
