// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheus_StartsAndExits(t *testing.T) {
	p := NewPrometheus("test")

	p.InstanceStarted("web")
	p.InstanceStarted("web")
	p.InstanceExited("web", 0, 2*time.Second)
	p.InstanceExited("web", 1, time.Second)

	expected := `
		# HELP test_instance_starts_total Total number of instances spawned
		# TYPE test_instance_starts_total counter
		test_instance_starts_total{instance="web"} 2
	`
	require.NoError(t, testutil.GatherAndCompare(p.Registry(), strings.NewReader(expected), "test_instance_starts_total"))

	expected = `
		# HELP test_instance_exits_total Total number of observed instance terminations by exit code
		# TYPE test_instance_exits_total counter
		test_instance_exits_total{code="0",instance="web"} 1
		test_instance_exits_total{code="1",instance="web"} 1
	`
	require.NoError(t, testutil.GatherAndCompare(p.Registry(), strings.NewReader(expected), "test_instance_exits_total"))

	count, err := testutil.GatherAndCount(p.Registry(), "test_instance_uptime_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestPrometheus_SignalsByStatus(t *testing.T) {
	p := NewPrometheus("test")

	p.SignalSent("db", "terminated", nil)
	p.SignalSent("db", "terminated", errors.New("gone"))

	assert.InDelta(t, 1, testutil.ToFloat64(p.signals.WithLabelValues("db", "terminated", "success")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(p.signals.WithLabelValues("db", "terminated", "error")), 0)
}

func TestPrometheus_GaugesAndBytes(t *testing.T) {
	p := NewPrometheus("")

	p.Running(3)
	p.Running(2)
	p.LogBytes("api", 100)
	p.LogBytes("api", 50)
	p.InstanceRestarted("api")
	p.StartFailed("api", "file_not_found")

	assert.InDelta(t, 2, testutil.ToFloat64(p.running), 0)
	assert.InDelta(t, 150, testutil.ToFloat64(p.logBytes.WithLabelValues("api")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(p.restarts.WithLabelValues("api")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(p.startFails.WithLabelValues("api", "file_not_found")), 0)
}

func TestPrometheus_Handler(t *testing.T) {
	p := NewPrometheus("herd")
	p.Running(1)

	srv := httptest.NewServer(p.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)

	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "herd_instances_running 1")
}

func TestNoop(t *testing.T) {
	c := NewNoop()

	assert.NotPanics(t, func() {
		c.InstanceStarted("a")
		c.StartFailed("a", "x")
		c.InstanceExited("a", 0, time.Second)
		c.InstanceRestarted("a")
		c.SignalSent("a", "kill", nil)
		c.LogBytes("a", 1)
		c.Running(0)
	})
}
