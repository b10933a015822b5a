// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "gatherfun"

// Recorder holds the service's Prometheus collectors. A nil *Recorder is valid
// and records nothing, so packages can take one without requiring it.
type Recorder struct {
	registry *prometheus.Registry

	transitions       *prometheus.CounterVec
	finalizations     *prometheus.CounterVec
	providerFallbacks *prometheus.CounterVec
	deadlineFires     prometheus.Counter
	activeWatches     prometheus.Gauge
	httpRequests      *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
}

// New creates a Recorder on its own registry, with Go runtime and process collectors.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return newRecorder(reg)
}

// NewForTest creates a Recorder without runtime collectors.
func NewForTest() *Recorder {
	return newRecorder(prometheus.NewRegistry())
}

func newRecorder(reg *prometheus.Registry) *Recorder {
	auto := promauto.With(reg)
	return &Recorder{
		registry: reg,
		transitions: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "transitions_total",
			Help:      "Session status transitions by source, target and trigger",
		}, []string{"from", "to", "trigger"}),
		finalizations: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "finalizations_total",
			Help:      "Finished sessions by the rule that picked the winner",
		}, []string{"rule"}),
		providerFallbacks: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "places",
			Name:      "fallbacks_total",
			Help:      "Place searches answered from the static pool",
		}, []string{"reason"}),
		deadlineFires: auto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "monitor",
			Name:      "deadline_fires_total",
			Help:      "Deadline timers that fired",
		}),
		activeWatches: auto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "monitor",
			Name:      "active_watches",
			Help:      "Sessions currently tracked by the deadline monitor",
		}),
		httpRequests: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route, method and status code",
		}, []string{"route", "method", "status_code"}),
		httpDuration: auto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}
}

func (r *Recorder) Transition(from, to, trigger string) {
	if r == nil {
		return
	}
	r.transitions.WithLabelValues(from, to, trigger).Inc()
}

func (r *Recorder) Finalized(rule string) {
	if r == nil {
		return
	}
	r.finalizations.WithLabelValues(rule).Inc()
}

func (r *Recorder) ProviderFallback(reason string) {
	if r == nil {
		return
	}
	r.providerFallbacks.WithLabelValues(reason).Inc()
}

func (r *Recorder) DeadlineFired() {
	if r == nil {
		return
	}
	r.deadlineFires.Inc()
}

func (r *Recorder) WatchStarted() {
	if r == nil {
		return
	}
	r.activeWatches.Inc()
}

func (r *Recorder) WatchStopped() {
	if r == nil {
		return
	}
	r.activeWatches.Dec()
}

func (r *Recorder) HTTPRequest(route, method string, status int, d time.Duration) {
	if r == nil {
		return
	}
	r.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	r.httpDuration.WithLabelValues(route, method).Observe(d.Seconds())
}

// Handler serves the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry, for tests.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}
