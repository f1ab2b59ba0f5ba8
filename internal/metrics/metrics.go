// Package metrics holds the Prometheus collectors of the patterns server.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics uses its own registry so tests can create as many instances as
// they need.
type Metrics struct {
	Registry *prometheus.Registry

	// Site builds
	BuildsTotal          *prometheus.CounterVec
	BuildDurationSeconds prometheus.Histogram
	Pages                prometheus.Gauge
	SidebarEntries       prometheus.Gauge
	LastBuildTimestamp   prometheus.Gauge

	// HTTP
	RequestsTotal          *prometheus.CounterVec
	RequestDurationSeconds *prometheus.HistogramVec
	PageViewsTotal         *prometheus.CounterVec

	// Watcher
	WatchEventsTotal prometheus.Counter

	BuildInfo *prometheus.GaugeVec
}

// New registers every collector. version and goVersion are exposed as
// labels of patterns_info.
func New(version, goVersion string) *Metrics {
	reg := prometheus.NewRegistry()

	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		Registry: reg,

		BuildsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "patterns_builds_total",
				Help: "Total number of site builds by result.",
			},
			[]string{"result"},
		),
		BuildDurationSeconds: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "patterns_build_duration_seconds",
				Help:    "Duration of site builds in seconds.",
				Buckets: prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to ~8s
			},
		),
		Pages: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "patterns_pages",
				Help: "Number of pages in the served snapshot.",
			},
		),
		SidebarEntries: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "patterns_sidebar_entries",
				Help: "Number of top-level sidebar entries in the served snapshot.",
			},
		),
		LastBuildTimestamp: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "patterns_last_build_timestamp_seconds",
				Help: "Unix time of the last successful build.",
			},
		),

		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "patterns_http_requests_total",
				Help: "Total number of HTTP requests.",
			},
			[]string{"method", "route", "status"},
		),
		RequestDurationSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "patterns_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		PageViewsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "patterns_page_views_total",
				Help: "Total number of rendered page views.",
			},
			[]string{"page"},
		),

		WatchEventsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "patterns_watch_events_total",
				Help: "Filesystem events seen by the content watcher.",
			},
		),

		BuildInfo: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "patterns_info",
				Help: "Build information for the running patterns server.",
			},
			[]string{"version", "go_version"},
		),
	}

	reg.MustRegister(
		m.BuildsTotal,
		m.BuildDurationSeconds,
		m.Pages,
		m.SidebarEntries,
		m.LastBuildTimestamp,
		m.RequestsTotal,
		m.RequestDurationSeconds,
		m.PageViewsTotal,
		m.WatchEventsTotal,
		m.BuildInfo,
	)

	m.BuildInfo.WithLabelValues(version, goVersion).Set(1)

	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
