package executor

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mattmre/taskgrid/internal/ctxlog"
	"github.com/mattmre/taskgrid/internal/task"
)

// HTTP performs a single request against the task's "url" argument.
// Optional arguments: "method" (default GET) and "expect_status"
// (default: any 2xx).
type HTTP struct {
	// Client is shared across tasks. A zero HTTP uses a pooled client.
	Client *http.Client
}

var defaultHTTPClient = &http.Client{
	Transport: &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	},
}

// Execute implements Executor. The per-task deadline arrives through ctx,
// so the client itself carries no timeout.
func (h *HTTP) Execute(ctx context.Context, t *task.Task) (string, error) {
	url, ok := stringArg(t, "url")
	if !ok {
		return "", fmt.Errorf("task %q: http runner requires a 'url' argument", t.ID)
	}
	method, ok := stringArg(t, "method")
	if !ok {
		method = http.MethodGet
	}

	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}

	client := h.Client
	if client == nil {
		client = defaultHTTPClient
	}

	ctxlog.FromContext(ctx).Debug("Sending HTTP request.", "task", t.ID, "method", method, "url", url)

	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if want, ok := intArg(t, "expect_status"); ok {
		if resp.StatusCode != want {
			return "", fmt.Errorf("unexpected status %d, want %d", resp.StatusCode, want)
		}
	} else if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	return resp.Status, nil
}
