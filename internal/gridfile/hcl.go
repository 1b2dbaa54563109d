package gridfile

import (
	"fmt"
	"sort"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/mattmre/taskgrid/internal/task"
)

// hclRoot decodes the top-level blocks of one grid file.
type hclRoot struct {
	Defaults *hclDefaults `hcl:"defaults,block"`
	Tasks    []*hclTask   `hcl:"task,block"`
}

type hclTask struct {
	ID        string        `hcl:"id,label"`
	Name      string        `hcl:"name,optional"`
	Runner    string        `hcl:"runner"`
	DependsOn []string      `hcl:"depends_on,optional"`
	Timeout   string        `hcl:"timeout,optional"`
	Arguments *hclArguments `hcl:"arguments,block"`
}

// hclArguments keeps the block body undecoded so arbitrary attributes can be
// evaluated into the opaque cty payload.
type hclArguments struct {
	Body hcl.Body `hcl:",remain"`
}

type hclDefaults struct {
	Parallel            *bool   `hcl:"parallel,optional"`
	ParallelLimit       *int    `hcl:"parallel_limit,optional"`
	Timeout             *string `hcl:"timeout,optional"`
	ContinueOnError     *bool   `hcl:"continue_on_error,optional"`
	FailFast            *bool   `hcl:"fail_fast,optional"`
	RespectDependencies *bool   `hcl:"respect_dependencies,optional"`
}

// parseHCL decodes one .hcl grid file into tasks and file defaults.
func parseHCL(file string, src []byte) (*Grid, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(src, file)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse %s: %w", file, diags)
	}

	var root hclRoot
	if diags := gohcl.DecodeBody(hclFile.Body, nil, &root); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode %s: %w", file, diags)
	}

	grid := &Grid{}
	for _, ht := range root.Tasks {
		t := &task.Task{
			ID:        ht.ID,
			Name:      ht.Name,
			Runner:    ht.Runner,
			DependsOn: ht.DependsOn,
		}
		if t.Runner == "" {
			return nil, fmt.Errorf("%s: task %q: runner is required", file, t.ID)
		}

		timeout, err := parseTimeout(file, ht.ID, ht.Timeout)
		if err != nil {
			return nil, err
		}
		t.Timeout = timeout

		if ht.Arguments != nil {
			args, err := evalArguments(file, ht.ID, ht.Arguments.Body)
			if err != nil {
				return nil, err
			}
			t.Arguments = args
		}

		grid.Tasks = append(grid.Tasks, t)
	}

	if root.Defaults != nil {
		d, err := translateDefaults(file, root.Defaults)
		if err != nil {
			return nil, err
		}
		grid.Defaults = d
	}

	return grid, nil
}

// evalArguments evaluates every attribute of an arguments block into a
// literal cty value. No expression context is provided: payloads are
// self-contained and may not reference other tasks.
func evalArguments(file, id string, body hcl.Body) (map[string]cty.Value, error) {
	attrs, diags := body.JustAttributes()
	if diags.HasErrors() {
		return nil, fmt.Errorf("%s: task %q: arguments: %w", file, id, diags)
	}

	names := make([]string, 0, len(attrs))
	for name := range attrs {
		names = append(names, name)
	}
	sort.Strings(names)

	args := make(map[string]cty.Value, len(attrs))
	for _, name := range names {
		val, diags := attrs[name].Expr.Value(nil)
		if diags.HasErrors() {
			return nil, fmt.Errorf("%s: task %q: argument %q: %w", file, id, name, diags)
		}
		args[name] = val
	}
	return args, nil
}

func translateDefaults(file string, hd *hclDefaults) (Defaults, error) {
	d := Defaults{
		Parallel:            hd.Parallel,
		ParallelLimit:       hd.ParallelLimit,
		ContinueOnError:     hd.ContinueOnError,
		FailFast:            hd.FailFast,
		RespectDependencies: hd.RespectDependencies,
	}
	if hd.Timeout != nil {
		timeout, err := time.ParseDuration(*hd.Timeout)
		if err != nil {
			return Defaults{}, fmt.Errorf("%s: defaults: invalid timeout: %w", file, err)
		}
		d.Timeout = &timeout
	}
	return d, nil
}
