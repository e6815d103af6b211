// SPDX-License-Identifier: MPL-2.0

package devserver

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mochi/mochi-cli/internal/report"
)

// MetricsPath serves the Prometheus exposition of the dev server.
const MetricsPath = "/__mochi/metrics"

// Metrics collects request and build statistics. It implements
// report.Reporter so pipeline stage events can be fed to it directly.
type Metrics struct {
	registry *prometheus.Registry

	requests      *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
	builds        *prometheus.CounterVec
	lastSuccess   prometheus.Gauge
	modules       prometheus.Gauge
}

// NewMetrics registers the dev server collectors on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mochi_dev_requests_total",
			Help: "Requests served by the dev server, by status code.",
		}, []string{"code"}),
		stageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "mochi_build_stage_seconds",
			Help:    "Time spent in each build stage.",
			Buckets: prometheus.DefBuckets,
		}, []string{"stage"}),
		builds: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mochi_builds_total",
			Help: "Completed builds, by result.",
		}, []string{"result"}),
		lastSuccess: factory.NewGauge(prometheus.GaugeOpts{
			Name: "mochi_build_last_success_timestamp_seconds",
			Help: "Unix time of the last successful commit.",
		}),
		modules: factory.NewGauge(prometheus.GaugeOpts{
			Name: "mochi_build_modules",
			Help: "Modules in the last committed manifest.",
		}),
	}
}

// Report consumes stage events.
func (m *Metrics) Report(e report.Event) {
	if e.Kind != report.KindStage {
		return
	}
	switch e.Status {
	case report.StatusDone:
		m.stageDuration.WithLabelValues(string(e.Stage)).Observe(e.Elapsed.Seconds())
		if e.Stage == report.StageCommit {
			m.builds.WithLabelValues("success").Inc()
			m.lastSuccess.SetToCurrentTime()
		}
	case report.StatusError:
		m.stageDuration.WithLabelValues(string(e.Stage)).Observe(e.Elapsed.Seconds())
		if e.Stage != report.StageSite {
			m.builds.WithLabelValues("failure").Inc()
		}
	}
}

// SetModules records the module count of the last committed manifest.
func (m *Metrics) SetModules(n int) {
	m.modules.Set(float64(n))
}

func (m *Metrics) observeRequest(status int) {
	m.requests.WithLabelValues(strconv.Itoa(status)).Inc()
}

// Handler serves the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for tests and embedding.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
