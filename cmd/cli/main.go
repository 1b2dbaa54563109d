package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/mattmre/taskgrid/internal/app"
	"github.com/mattmre/taskgrid/internal/cli"
	"github.com/mattmre/taskgrid/internal/result"
)

// main is the entrypoint for the taskgrid application.
func main() {
	// Use a minimal logger until the full one is configured.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	if err := run(os.Stdout, os.Args[1:]); err != nil {
		if exitErr, ok := err.(*cli.ExitError); ok {
			if exitErr.Message != "" {
				fmt.Fprintln(os.Stderr, exitErr.Message)
			}
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run encapsulates the main application logic for easier testing and error
// handling. The exit code reflects the run's terminal state: 0 when the run
// completed, 1 when it failed, 2 for usage errors.
func run(outW io.Writer, args []string) error {
	appConfig, shouldExit, err := cli.Parse(args, outW)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	taskgridApp := app.NewApp(outW, appConfig)
	res, err := taskgridApp.Run(context.Background())
	if err != nil {
		return err
	}

	if res.Outcome == result.OutcomeFailed {
		return &cli.ExitError{Code: 1, Message: ""}
	}
	return nil
}
