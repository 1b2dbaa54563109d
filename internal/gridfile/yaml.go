package gridfile

import (
	"fmt"
	"time"

	"github.com/zclconf/go-cty/cty"
	"gopkg.in/yaml.v3"

	"github.com/mattmre/taskgrid/internal/task"
)

// yamlRoot decodes the document structure of one .yaml/.yml grid file.
type yamlRoot struct {
	Defaults *yamlDefaults `yaml:"defaults"`
	Tasks    []yamlTask    `yaml:"tasks"`
}

type yamlTask struct {
	ID        string         `yaml:"id"`
	Name      string         `yaml:"name"`
	Runner    string         `yaml:"runner"`
	DependsOn []string       `yaml:"depends_on"`
	Timeout   string         `yaml:"timeout"`
	Arguments map[string]any `yaml:"arguments"`
}

type yamlDefaults struct {
	Parallel            *bool   `yaml:"parallel"`
	ParallelLimit       *int    `yaml:"parallel_limit"`
	Timeout             *string `yaml:"timeout"`
	ContinueOnError     *bool   `yaml:"continue_on_error"`
	FailFast            *bool   `yaml:"fail_fast"`
	RespectDependencies *bool   `yaml:"respect_dependencies"`
}

// parseYAML decodes one YAML grid file into tasks and file defaults.
func parseYAML(file string, src []byte) (*Grid, error) {
	var root yamlRoot
	if err := yaml.Unmarshal(src, &root); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", file, err)
	}

	grid := &Grid{}
	for _, yt := range root.Tasks {
		if yt.ID == "" {
			return nil, fmt.Errorf("%s: every task needs an id", file)
		}
		if yt.Runner == "" {
			return nil, fmt.Errorf("%s: task %q: runner is required", file, yt.ID)
		}

		timeout, err := parseTimeout(file, yt.ID, yt.Timeout)
		if err != nil {
			return nil, err
		}

		t := &task.Task{
			ID:        yt.ID,
			Name:      yt.Name,
			Runner:    yt.Runner,
			DependsOn: yt.DependsOn,
			Timeout:   timeout,
		}

		if len(yt.Arguments) > 0 {
			args := make(map[string]cty.Value, len(yt.Arguments))
			for name, raw := range yt.Arguments {
				val, err := ctyFromYAML(raw)
				if err != nil {
					return nil, fmt.Errorf("%s: task %q: argument %q: %w", file, yt.ID, name, err)
				}
				args[name] = val
			}
			t.Arguments = args
		}

		grid.Tasks = append(grid.Tasks, t)
	}

	if root.Defaults != nil {
		d := Defaults{
			Parallel:            root.Defaults.Parallel,
			ParallelLimit:       root.Defaults.ParallelLimit,
			ContinueOnError:     root.Defaults.ContinueOnError,
			FailFast:            root.Defaults.FailFast,
			RespectDependencies: root.Defaults.RespectDependencies,
		}
		if root.Defaults.Timeout != nil {
			timeout, err := time.ParseDuration(*root.Defaults.Timeout)
			if err != nil {
				return nil, fmt.Errorf("%s: defaults: invalid timeout: %w", file, err)
			}
			d.Timeout = &timeout
		}
		grid.Defaults = d
	}

	return grid, nil
}

// ctyFromYAML translates a decoded YAML value into the cty payload currency,
// so both grid formats hand executors the same argument shape.
func ctyFromYAML(v any) (cty.Value, error) {
	switch x := v.(type) {
	case nil:
		return cty.NullVal(cty.DynamicPseudoType), nil
	case string:
		return cty.StringVal(x), nil
	case bool:
		return cty.BoolVal(x), nil
	case int:
		return cty.NumberIntVal(int64(x)), nil
	case int64:
		return cty.NumberIntVal(x), nil
	case float64:
		return cty.NumberFloatVal(x), nil
	case []any:
		if len(x) == 0 {
			return cty.EmptyTupleVal, nil
		}
		elems := make([]cty.Value, len(x))
		for i, raw := range x {
			val, err := ctyFromYAML(raw)
			if err != nil {
				return cty.NilVal, err
			}
			elems[i] = val
		}
		return cty.TupleVal(elems), nil
	case map[string]any:
		if len(x) == 0 {
			return cty.EmptyObjectVal, nil
		}
		attrs := make(map[string]cty.Value, len(x))
		for name, raw := range x {
			val, err := ctyFromYAML(raw)
			if err != nil {
				return cty.NilVal, err
			}
			attrs[name] = val
		}
		return cty.ObjectVal(attrs), nil
	default:
		return cty.NilVal, fmt.Errorf("unsupported value type %T", v)
	}
}
