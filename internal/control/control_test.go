// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package control

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/matt-FFFFFF/herd/internal/ctxlog"
	"github.com/matt-FFFFFF/herd/internal/metrics"
	"github.com/matt-FFFFFF/herd/internal/supervisor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*supervisor.Manager, *Client, string) {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("requires /bin/sh")
	}

	ctx := ctxlog.New(context.Background(), ctxlog.DefaultLogger)
	prom := metrics.NewPrometheus("herd")

	m, err := supervisor.New(ctx, supervisor.Config{LogDir: t.TempDir()},
		supervisor.WithMetrics(prom),
		supervisor.WithGraceDelay(200*time.Millisecond),
	)
	require.NoError(t, err)

	srv := httptest.NewServer(NewServer(m, prom.Handler()))

	t.Cleanup(func() {
		srv.Close()

		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		_ = m.Close(closeCtx)
	})

	return m, NewClient(srv.URL), srv.URL
}

func sleeper() supervisor.StartOptions {
	return supervisor.StartOptions{Args: []string{"-c", "echo up; exec sleep 10"}}
}

func TestClient_Lifecycle(t *testing.T) {
	m, c, _ := setup(t)
	ctx := context.Background()

	require.NoError(t, c.Health(ctx))

	list, err := c.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	inst, err := c.Start(ctx, "web", "/bin/sh", sleeper())
	require.NoError(t, err)
	assert.Equal(t, "web", inst.ID)
	assert.Positive(t, inst.Pid)

	_, err = c.Start(ctx, "web", "/bin/sh", sleeper())
	require.ErrorIs(t, err, supervisor.ErrDuplicateID)

	_, err = c.Start(ctx, "nope", "/not/there", supervisor.StartOptions{})
	require.ErrorIs(t, err, supervisor.ErrFileNotFound)

	list, err = c.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "sh", list[0].Name)

	d, ok, err := c.Get(ctx, "web")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, inst.Pid, d.Pid)

	_, ok, err = c.Get(ctx, "ghost")
	require.NoError(t, err)
	assert.False(t, ok)

	require.Eventually(t, func() bool {
		logs, ok, err := c.Logs(ctx, "web", supervisor.LogOptions{})
		return err == nil && ok && strings.Contains(logs, "[web] up")
	}, 5*time.Second, 10*time.Millisecond)

	second, err := c.Restart(ctx, "web", supervisor.RestartOptions{}, true)
	require.NoError(t, err)
	assert.True(t, second.StartedAt.After(inst.StartedAt))

	_, err = c.Restart(ctx, "ghost", supervisor.RestartOptions{}, false)
	require.ErrorIs(t, err, supervisor.ErrInstanceNotFound)

	ok, err = c.Signal(ctx, "web", "BOGUS")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = c.Signal(ctx, "ghost", "TERM")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = c.Stop(ctx, "web", true)
	require.NoError(t, err)
	assert.True(t, ok)

	waitCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	require.NoError(t, m.Wait(waitCtx, "web"))

	ok, err = c.Stop(ctx, "web", false)
	require.NoError(t, err)
	assert.False(t, ok)

	logs, ok, err := c.Logs(ctx, "web", supervisor.LogOptions{Tail: intPtr(1)})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Contains(t, logs, "Process exited with code")
}

func TestClient_StopAllAndSignal(t *testing.T) {
	m, c, _ := setup(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b"} {
		_, err := c.Start(ctx, id, "/bin/sh", sleeper())
		require.NoError(t, err)
	}

	ok, err := c.Signal(ctx, "a", "TERM")
	require.NoError(t, err)
	assert.True(t, ok)

	waitCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	require.NoError(t, m.Wait(waitCtx, "a"))

	resp, err := c.StopAll(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Count)
	assert.Empty(t, resp.Errors)
}

func TestClient_LogsErrors(t *testing.T) {
	_, c, _ := setup(t)
	ctx := context.Background()

	_, ok, err := c.Logs(ctx, "none", supervisor.LogOptions{})
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = c.Logs(ctx, "none", supervisor.LogOptions{Tail: intPtr(-1)})
	require.ErrorIs(t, err, supervisor.ErrInvalidLogRange)
}

func TestServer_Metrics(t *testing.T) {
	_, c, base := setup(t)

	_, err := c.Start(context.Background(), "m", "/bin/sh", sleeper())
	require.NoError(t, err)

	resp, err := http.Get(base + pathMetrics)
	require.NoError(t, err)

	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `herd_instance_starts_total{instance="m"} 1`)
}

func TestServer_BadRequests(t *testing.T) {
	_, _, base := setup(t)

	resp, err := http.Post(base+pathInstances, "application/json", strings.NewReader(`{"id":""}`))
	require.NoError(t, err)
	resp.Body.Close() //nolint:errcheck
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Post(base+pathInstances, "application/json", strings.NewReader(`{"bogus":1}`))
	require.NoError(t, err)
	resp.Body.Close() //nolint:errcheck
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Get(base + pathInstances + "/x/logs?tail=abc")
	require.NoError(t, err)
	resp.Body.Close() //nolint:errcheck
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestClient_Unreachable(t *testing.T) {
	c := NewClient("127.0.0.1:1")

	err := c.Health(context.Background())
	assert.ErrorIs(t, err, ErrUnreachable)
}

func TestListenAndServe_Shutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	ready := make(chan string, 1)
	done := make(chan error, 1)

	srv := NewServer(&nopSupervisor{}, nil)

	go func() {
		done <- srv.ListenAndServe(ctx, "127.0.0.1:0", ready)
	}()

	addr := <-ready
	require.NoError(t, NewClient(addr).Health(context.Background()))

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestStop_DeliveryFailureIsConflict(t *testing.T) {
	srv := httptest.NewServer(NewServer(stuckSupervisor{}, nil))
	defer srv.Close()

	c := NewClient(srv.URL)
	ctx := context.Background()

	ok, err := c.Stop(ctx, "stuck", false)
	require.ErrorIs(t, err, supervisor.ErrSignalDelivery)
	assert.False(t, ok)

	ok, err = c.Stop(ctx, "ghost", false)
	require.NoError(t, err)
	assert.False(t, ok)

	resp, err := http.Post(srv.URL+instancePath("stuck", "stop"), "application/json", strings.NewReader("{}"))
	require.NoError(t, err)

	defer resp.Body.Close() //nolint:errcheck

	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func intPtr(i int) *int { return &i }

// stuckSupervisor has one registered instance, "stuck", that never accepts a signal.
type stuckSupervisor struct{ nopSupervisor }

func (stuckSupervisor) Get(id string) (supervisor.Detail, bool) {
	if id != "stuck" {
		return supervisor.Detail{}, false
	}

	return supervisor.Detail{Instance: supervisor.Instance{ID: id}}, true
}

type nopSupervisor struct{}

func (nopSupervisor) Start(context.Context, string, string, supervisor.StartOptions) (supervisor.Instance, error) {
	return supervisor.Instance{}, nil
}

func (nopSupervisor) Stop(context.Context, string, supervisor.StopOptions) bool { return false }

func (nopSupervisor) StopAll(context.Context, supervisor.StopOptions) (int, error) { return 0, nil }

func (nopSupervisor) Restart(context.Context, string, supervisor.RestartOptions) (supervisor.Instance, error) {
	return supervisor.Instance{}, nil
}

func (nopSupervisor) RestartAndWait(context.Context, string, supervisor.RestartOptions) (supervisor.Instance, error) {
	return supervisor.Instance{}, nil
}

func (nopSupervisor) List() []supervisor.Summary { return nil }

func (nopSupervisor) Get(string) (supervisor.Detail, bool) { return supervisor.Detail{}, false }

func (nopSupervisor) SendSignal(context.Context, string, string) bool { return false }

func (nopSupervisor) GetLogs(string, supervisor.LogOptions) (string, bool, error) {
	return "", false, nil
}
