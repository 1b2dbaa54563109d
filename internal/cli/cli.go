package cli

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/mattmre/taskgrid/internal/app"
	"github.com/mattmre/taskgrid/internal/task"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns a populated app.Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	flagSet := flag.NewFlagSet("taskgrid", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
taskgrid - a bounded-concurrency task scheduler.

Usage:
  taskgrid [options] [GRID_PATH]

Arguments:
  GRID_PATH
    Path to a grid file (.hcl, .yaml, .yml) or a directory of grid files.

Options:
`)
		flagSet.PrintDefaults()
	}

	gridFlag := flagSet.String("grid", "", "Path to the grid file or directory.")
	gFlag := flagSet.String("g", "", "Path to the grid file or directory (shorthand).")
	parallelFlag := flagSet.Bool("parallel", false, "Enable concurrent dispatch. Off selects sequential mode.")
	parallelLimitFlag := flagSet.Int("parallel-limit", task.DefaultParallelLimit, "Max tasks executing simultaneously.")
	workersFlag := flagSet.Int("workers", 0, "Alias for -parallel-limit.")
	timeoutFlag := flagSet.Duration("timeout", task.DefaultTimeout, "Per-task deadline.")
	continueOnErrorFlag := flagSet.Bool("continue-on-error", false, "Record failures but keep dispatching.")
	failFastFlag := flagSet.Bool("fail-fast", true, "Halt dispatch of not-yet-started tasks on the first failure.")
	respectDepsFlag := flagSet.Bool("respect-dependencies", false, "Run tasks level by level in dependency order.")
	dryRunFlag := flagSet.Bool("dry-run", false, "Validate and simulate without invoking any executor.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	noColorFlag := flagSet.Bool("no-color", false, "Disable styled summary output.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	path := ""
	if *gridFlag != "" {
		path = *gridFlag
	} else if *gFlag != "" {
		path = *gFlag
	} else if flagSet.NArg() > 0 {
		path = flagSet.Arg(0)
	}

	if path == "" {
		flagSet.Usage()
		return nil, true, nil
	}

	visited := map[string]bool{}
	flagSet.Visit(func(f *flag.Flag) { visited[f.Name] = true })

	// -workers is an alias; an explicit -parallel-limit wins over it.
	parallelLimit := *parallelLimitFlag
	if visited["workers"] && !visited["parallel-limit"] {
		parallelLimit = *workersFlag
	}

	// Flags the user set explicitly win over defaults blocks in grid files.
	flagsSet := map[string]bool{}
	for name := range visited {
		if name == "workers" {
			name = "parallel-limit"
		}
		flagsSet[name] = true
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	if parallelLimit < 1 {
		return nil, false, &ExitError{Code: 2, Message: "invalid parallel-limit: must be >= 1"}
	}
	if *timeoutFlag <= 0 {
		return nil, false, &ExitError{Code: 2, Message: "invalid timeout: must be positive"}
	}
	if visited["fail-fast"] && *failFastFlag && *continueOnErrorFlag {
		return nil, false, &ExitError{Code: 2, Message: "conflicting flags: -fail-fast and -continue-on-error"}
	}

	config, err := app.NewConfig(app.Config{
		GridPath:  path,
		LogFormat: logFormat,
		LogLevel:  logLevel,
		NoColor:   *noColorFlag,
		FlagsSet:  flagsSet,
		Run: task.RunConfig{
			Parallel:            *parallelFlag,
			ParallelLimit:       parallelLimit,
			Timeout:             *timeoutFlag,
			ContinueOnError:     *continueOnErrorFlag,
			FailFast:            *failFastFlag,
			RespectDependencies: *respectDepsFlag,
			DryRun:              *dryRunFlag,
		},
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	return config, false, nil
}
