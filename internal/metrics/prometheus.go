// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Prometheus implements Collector using Prometheus metrics on a private registry.
type Prometheus struct {
	starts     *prometheus.CounterVec
	startFails *prometheus.CounterVec
	exits      *prometheus.CounterVec
	uptime     *prometheus.HistogramVec
	restarts   *prometheus.CounterVec
	signals    *prometheus.CounterVec
	logBytes   *prometheus.CounterVec
	running    prometheus.Gauge
	registry   *prometheus.Registry
}

// NewPrometheus creates a Prometheus collector. An empty namespace means "herd".
func NewPrometheus(namespace string) *Prometheus {
	if namespace == "" {
		namespace = "herd"
	}

	p := &Prometheus{
		registry: prometheus.NewRegistry(),
	}

	p.starts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "instance_starts_total",
			Help:      "Total number of instances spawned",
		},
		[]string{"instance"},
	)

	p.startFails = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "instance_start_failures_total",
			Help:      "Total number of failed instance starts",
		},
		[]string{"instance", "reason"},
	)

	p.exits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "instance_exits_total",
			Help:      "Total number of observed instance terminations by exit code",
		},
		[]string{"instance", "code"},
	)

	p.uptime = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "instance_uptime_seconds",
			Help:      "Lifetime of instances at termination",
			Buckets:   []float64{0.1, 1, 10, 60, 600, 3600, 86400},
		},
		[]string{"instance"},
	)

	p.restarts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "instance_restarts_total",
			Help:      "Total number of restart requests",
		},
		[]string{"instance"},
	)

	p.signals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "instance_signals_total",
			Help:      "Total number of signal deliveries attempted",
		},
		[]string{"instance", "signal", "status"},
	)

	p.logBytes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "instance_log_bytes_total",
			Help:      "Total bytes appended to instance logs",
		},
		[]string{"instance"},
	)

	p.running = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "instances_running",
			Help:      "Number of currently registered instances",
		},
	)

	p.registry.MustRegister(
		p.starts,
		p.startFails,
		p.exits,
		p.uptime,
		p.restarts,
		p.signals,
		p.logBytes,
		p.running,
	)

	return p
}

// InstanceStarted implements Collector.
func (p *Prometheus) InstanceStarted(id string) {
	p.starts.WithLabelValues(id).Inc()
}

// StartFailed implements Collector.
func (p *Prometheus) StartFailed(id, reason string) {
	p.startFails.WithLabelValues(id, reason).Inc()
}

// InstanceExited implements Collector.
func (p *Prometheus) InstanceExited(id string, code int, uptime time.Duration) {
	p.exits.WithLabelValues(id, strconv.Itoa(code)).Inc()
	p.uptime.WithLabelValues(id).Observe(uptime.Seconds())
}

// InstanceRestarted implements Collector.
func (p *Prometheus) InstanceRestarted(id string) {
	p.restarts.WithLabelValues(id).Inc()
}

// SignalSent implements Collector.
func (p *Prometheus) SignalSent(id, signal string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	p.signals.WithLabelValues(id, signal, status).Inc()
}

// LogBytes implements Collector.
func (p *Prometheus) LogBytes(id string, n int) {
	p.logBytes.WithLabelValues(id).Add(float64(n))
}

// Running implements Collector.
func (p *Prometheus) Running(n int) {
	p.running.Set(float64(n))
}

// Registry returns the Prometheus registry for HTTP handler setup.
func (p *Prometheus) Registry() *prometheus.Registry {
	return p.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

var _ Collector = (*Prometheus)(nil)
