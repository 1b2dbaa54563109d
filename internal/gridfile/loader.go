// Package gridfile loads task definitions from grid files. Two formats are
// recognized by extension: HCL (.hcl) and YAML (.yaml/.yml). A directory
// loads every recognized file in lexical order, which fixes the input order
// the leveler uses for deterministic tie-breaking.
package gridfile

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/mattmre/taskgrid/internal/task"
)

// Defaults carries run options set in a grid file's defaults block.
// Pointer fields distinguish "unset" from an explicit false/zero.
type Defaults struct {
	Parallel            *bool
	ParallelLimit       *int
	Timeout             *time.Duration
	ContinueOnError     *bool
	FailFast            *bool
	RespectDependencies *bool
}

// Apply merges file defaults into cfg for every option the user did not set
// on the command line. userSet holds CLI flag names that were explicitly
// provided; those always win over the file.
func (d Defaults) Apply(cfg task.RunConfig, userSet map[string]bool) task.RunConfig {
	if d.Parallel != nil && !userSet["parallel"] {
		cfg.Parallel = *d.Parallel
	}
	if d.ParallelLimit != nil && !userSet["parallel-limit"] {
		cfg.ParallelLimit = *d.ParallelLimit
	}
	if d.Timeout != nil && !userSet["timeout"] {
		cfg.Timeout = *d.Timeout
	}
	if d.ContinueOnError != nil && !userSet["continue-on-error"] {
		cfg.ContinueOnError = *d.ContinueOnError
	}
	if d.FailFast != nil && !userSet["fail-fast"] {
		cfg.FailFast = *d.FailFast
	}
	if d.RespectDependencies != nil && !userSet["respect-dependencies"] {
		cfg.RespectDependencies = *d.RespectDependencies
	}
	return cfg
}

func (d *Defaults) merge(other Defaults) {
	if other.Parallel != nil {
		d.Parallel = other.Parallel
	}
	if other.ParallelLimit != nil {
		d.ParallelLimit = other.ParallelLimit
	}
	if other.Timeout != nil {
		d.Timeout = other.Timeout
	}
	if other.ContinueOnError != nil {
		d.ContinueOnError = other.ContinueOnError
	}
	if other.FailFast != nil {
		d.FailFast = other.FailFast
	}
	if other.RespectDependencies != nil {
		d.RespectDependencies = other.RespectDependencies
	}
}

// Grid is one loaded task set plus its file-level defaults.
type Grid struct {
	Tasks    []*task.Task
	Defaults Defaults
}

// Load reads a grid from a single file or from every recognized file under
// a directory. When several files carry a defaults block, later files win
// per field.
func Load(path string) (*Grid, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("grid path: %w", err)
	}

	var files []string
	if info.IsDir() {
		files, err = findGridFiles(path)
		if err != nil {
			return nil, err
		}
		if len(files) == 0 {
			return nil, fmt.Errorf("no grid files (.hcl, .yaml, .yml) under %s", path)
		}
	} else {
		files = []string{path}
	}

	grid := &Grid{}
	for _, file := range files {
		src, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", file, err)
		}

		var part *Grid
		switch strings.ToLower(filepath.Ext(file)) {
		case ".hcl":
			part, err = parseHCL(file, src)
		case ".yaml", ".yml":
			part, err = parseYAML(file, src)
		default:
			return nil, fmt.Errorf("unsupported grid file format: %s", file)
		}
		if err != nil {
			return nil, err
		}

		grid.Tasks = append(grid.Tasks, part.Tasks...)
		grid.Defaults.merge(part.Defaults)
	}

	return grid, nil
}

// findGridFiles walks root and returns every .hcl/.yaml/.yml file, sorted
// lexically by full path.
func findGridFiles(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(d.Name())) {
		case ".hcl", ".yaml", ".yml":
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

func parseTimeout(file, id, raw string) (time.Duration, error) {
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: task %q: invalid timeout: %w", file, id, err)
	}
	return d, nil
}
