package executor

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/mattmre/taskgrid/internal/task"
)

func argTask(id, runner string, args map[string]cty.Value) *task.Task {
	return &task.Task{ID: id, Runner: runner, Arguments: args}
}

func TestRegistry(t *testing.T) {
	t.Run("lookup", func(t *testing.T) {
		r := NewRegistry()
		r.Register("sleep", &Sleep{})

		_, ok := r.Lookup("sleep")
		assert.True(t, ok)
		_, ok = r.Lookup("ghost")
		assert.False(t, ok)
	})

	t.Run("validate rejects unknown runner types", func(t *testing.T) {
		r := Builtin()
		err := r.Validate([]*task.Task{
			{ID: "a", Runner: "shell"},
			{ID: "b", Runner: "ghost"},
		})

		var unknownErr *UnknownRunnerError
		require.ErrorAs(t, err, &unknownErr)
		assert.Equal(t, "b", unknownErr.TaskID)
		assert.Equal(t, "ghost", unknownErr.Runner)
	})

	t.Run("builtin ships shell http and sleep", func(t *testing.T) {
		r := Builtin()
		require.NoError(t, r.Validate([]*task.Task{
			{ID: "a", Runner: "shell"},
			{ID: "b", Runner: "http"},
			{ID: "c", Runner: "sleep"},
		}))
	})
}

func TestShell(t *testing.T) {
	t.Run("runs the command and returns trimmed output", func(t *testing.T) {
		s := &Shell{}
		out, err := s.Execute(context.Background(), argTask("echo", "shell", map[string]cty.Value{
			"command": cty.StringVal("echo hello"),
		}))
		require.NoError(t, err)
		assert.Equal(t, "hello", out)
	})

	t.Run("failing command reports the error", func(t *testing.T) {
		s := &Shell{}
		_, err := s.Execute(context.Background(), argTask("bad", "shell", map[string]cty.Value{
			"command": cty.StringVal("exit 3"),
		}))
		assert.ErrorContains(t, err, "command failed")
	})

	t.Run("missing command argument", func(t *testing.T) {
		s := &Shell{}
		_, err := s.Execute(context.Background(), argTask("none", "shell", nil))
		assert.ErrorContains(t, err, "requires a 'command' argument")
	})

	t.Run("cancellation surfaces the context error", func(t *testing.T) {
		s := &Shell{}
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		_, err := s.Execute(ctx, argTask("sleepy", "shell", map[string]cty.Value{
			"command": cty.StringVal("sleep 5"),
		}))
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestSleep(t *testing.T) {
	t.Run("sleeps for the configured duration", func(t *testing.T) {
		s := &Sleep{}
		start := time.Now()
		out, err := s.Execute(context.Background(), argTask("nap", "sleep", map[string]cty.Value{
			"duration": cty.StringVal("20ms"),
		}))
		require.NoError(t, err)
		assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
		assert.Equal(t, "slept 20ms", out)
	})

	t.Run("missing duration argument", func(t *testing.T) {
		s := &Sleep{}
		_, err := s.Execute(context.Background(), argTask("nap", "sleep", nil))
		assert.ErrorContains(t, err, "requires a 'duration' argument")
	})

	t.Run("invalid duration argument", func(t *testing.T) {
		s := &Sleep{}
		_, err := s.Execute(context.Background(), argTask("nap", "sleep", map[string]cty.Value{
			"duration": cty.StringVal("soon"),
		}))
		assert.ErrorContains(t, err, "invalid duration")
	})

	t.Run("honors cancellation", func(t *testing.T) {
		s := &Sleep{}
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		_, err := s.Execute(ctx, argTask("nap", "sleep", map[string]cty.Value{
			"duration": cty.StringVal("5s"),
		}))
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestHTTP(t *testing.T) {
	t.Run("2xx is success by default", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}))
		defer srv.Close()

		h := &HTTP{Client: srv.Client()}
		out, err := h.Execute(context.Background(), argTask("ping", "http", map[string]cty.Value{
			"url": cty.StringVal(srv.URL),
		}))
		require.NoError(t, err)
		assert.Contains(t, out, "204")
	})

	t.Run("expect_status must match exactly", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		h := &HTTP{Client: srv.Client()}
		_, err := h.Execute(context.Background(), argTask("ping", "http", map[string]cty.Value{
			"url":           cty.StringVal(srv.URL),
			"expect_status": cty.NumberIntVal(201),
		}))
		assert.ErrorContains(t, err, "unexpected status 200, want 201")
	})

	t.Run("5xx fails by default", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		h := &HTTP{Client: srv.Client()}
		_, err := h.Execute(context.Background(), argTask("ping", "http", map[string]cty.Value{
			"url": cty.StringVal(srv.URL),
		}))
		assert.ErrorContains(t, err, "unexpected status 500")
	})

	t.Run("missing url argument", func(t *testing.T) {
		h := &HTTP{}
		_, err := h.Execute(context.Background(), argTask("ping", "http", nil))
		assert.ErrorContains(t, err, "requires a 'url' argument")
	})
}

func TestArgumentHelpers(t *testing.T) {
	tk := argTask("args", "stub", map[string]cty.Value{
		"text":  cty.StringVal("hello"),
		"count": cty.NumberIntVal(7),
		"wait":  cty.StringVal("150ms"),
		"none":  cty.NullVal(cty.String),
	})

	s, ok := stringArg(tk, "text")
	assert.True(t, ok)
	assert.Equal(t, "hello", s)

	_, ok = stringArg(tk, "count")
	assert.False(t, ok, "numbers are not strings")
	_, ok = stringArg(tk, "none")
	assert.False(t, ok, "null values read as absent")
	_, ok = stringArg(tk, "missing")
	assert.False(t, ok)

	n, ok := intArg(tk, "count")
	assert.True(t, ok)
	assert.Equal(t, 7, n)

	d, present, err := durationArg(tk, "wait")
	require.NoError(t, err)
	assert.True(t, present)
	assert.Equal(t, 150*time.Millisecond, d)

	_, present, err = durationArg(tk, "missing")
	require.NoError(t, err)
	assert.False(t, present)

	_, present, err = durationArg(tk, "text")
	assert.True(t, present)
	assert.Error(t, err)
}
