/*
 * Copyright (c) 2026, the KeyReg authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or
 * implied. See the License for the specific language governing
 * permissions and limitations under the License.
 */

package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const (
	namespace = "key_registry"
)

// Enabled indicates whether metrics collection is enabled.
// Set once at startup via SetEnabled() and not modified after.
var Enabled bool

var (
	once     sync.Once
	registry *prometheus.Registry

	VerificationsTotal          CounterVec
	RefreshesTotal              CounterVec
	RegistryKeys                Gauge
	RegistryLoadDurationSeconds Histogram

	HTTPRequestsTotal          CounterVec
	HTTPRequestDurationSeconds HistogramVec
	ConcurrentRequests         Gauge

	StorageErrorsTotal CounterVec

	Up Gauge
)

// The metric vars must be usable the moment the package loads: consumers
// like the HTTP middleware touch them on every request, with or without a
// prior Init(). They start as noops and Init() replaces them with
// registered collectors when metrics are enabled.
func init() {
	initMetrics()
}

// SetEnabled sets the metrics enabled state. Must be called before Init().
func SetEnabled(enabled bool) {
	Enabled = enabled
}

// Counter wraps prometheus.Counter with a noop implementation when disabled
type Counter interface {
	Inc()
	Add(float64)
}

// CounterVec wraps prometheus.CounterVec with a noop implementation when disabled
type CounterVec interface {
	WithLabelValues(labels ...string) Counter
}

// Histogram wraps prometheus.Histogram with a noop implementation when disabled
type Histogram interface {
	Observe(float64)
}

// HistogramVec wraps prometheus.HistogramVec with a noop implementation when disabled
type HistogramVec interface {
	WithLabelValues(labels ...string) Histogram
}

// Gauge wraps prometheus.Gauge with a noop implementation when disabled
type Gauge interface {
	Set(float64)
	Inc()
	Dec()
}

type noopCounter struct{}

func (noopCounter) Inc()        {}
func (noopCounter) Add(float64) {}

type noopCounterVec struct{}

func (noopCounterVec) WithLabelValues(...string) Counter { return noopCounter{} }

type noopHistogram struct{}

func (noopHistogram) Observe(float64) {}

type noopHistogramVec struct{}

func (noopHistogramVec) WithLabelValues(...string) Histogram { return noopHistogram{} }

type noopGauge struct{}

func (noopGauge) Set(float64) {}
func (noopGauge) Inc()        {}
func (noopGauge) Dec()        {}

type counterVecWrapper struct {
	*prometheus.CounterVec
}

func (c *counterVecWrapper) WithLabelValues(labels ...string) Counter {
	return c.CounterVec.WithLabelValues(labels...)
}

type histogramVecWrapper struct {
	*prometheus.HistogramVec
}

func (h *histogramVecWrapper) WithLabelValues(labels ...string) Histogram {
	return h.HistogramVec.WithLabelValues(labels...)
}

func newCounterVec(opts prometheus.CounterOpts, labels []string) CounterVec {
	if !Enabled {
		return noopCounterVec{}
	}
	return &counterVecWrapper{prometheus.NewCounterVec(opts, labels)}
}

func newHistogramVec(opts prometheus.HistogramOpts, labels []string) HistogramVec {
	if !Enabled {
		return noopHistogramVec{}
	}
	return &histogramVecWrapper{prometheus.NewHistogramVec(opts, labels)}
}

func newHistogram(opts prometheus.HistogramOpts) Histogram {
	if !Enabled {
		return noopHistogram{}
	}
	return prometheus.NewHistogram(opts)
}

func newGauge(opts prometheus.GaugeOpts) Gauge {
	if !Enabled {
		return noopGauge{}
	}
	return prometheus.NewGauge(opts)
}

func initMetrics() {
	VerificationsTotal = newCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "verifications_total",
			Help:      "Total number of credential verification attempts",
		},
		[]string{"result"},
	)

	RefreshesTotal = newCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refreshes_total",
			Help:      "Total number of registry cache refreshes",
		},
		[]string{"trigger", "status"},
	)

	RegistryKeys = newGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "registry_keys",
			Help:      "Number of keys in the current registry snapshot",
		},
	)

	RegistryLoadDurationSeconds = newHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "registry_load_duration_seconds",
			Help:      "Duration of registry loads from the object store in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		},
	)

	HTTPRequestsTotal = newCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	HTTPRequestDurationSeconds = newHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		},
		[]string{"method", "endpoint"},
	)

	ConcurrentRequests = newGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "concurrent_requests",
			Help:      "Number of HTTP requests currently in flight",
		},
	)

	StorageErrorsTotal = newCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "storage_errors_total",
			Help:      "Total number of object store errors",
		},
		[]string{"operation", "error_type"},
	)

	Up = newGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "up",
			Help:      "Whether the server is up (always 1 when scraped)",
		},
	)
}

func registerCounterVec(v CounterVec) {
	if wrapper, ok := v.(*counterVecWrapper); ok {
		registry.MustRegister(wrapper.CounterVec)
	}
}

func registerHistogramVec(v HistogramVec) {
	if wrapper, ok := v.(*histogramVecWrapper); ok {
		registry.MustRegister(wrapper.HistogramVec)
	}
}

func registerHistogram(v Histogram) {
	if h, ok := v.(prometheus.Histogram); ok {
		registry.MustRegister(h)
	}
}

func registerGauge(v Gauge) {
	if g, ok := v.(prometheus.Gauge); ok {
		registry.MustRegister(g)
	}
}

func initRegistry() {
	registry = prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	registerCounterVec(VerificationsTotal)
	registerCounterVec(RefreshesTotal)
	registerGauge(RegistryKeys)
	registerHistogram(RegistryLoadDurationSeconds)

	registerCounterVec(HTTPRequestsTotal)
	registerHistogramVec(HTTPRequestDurationSeconds)
	registerGauge(ConcurrentRequests)

	registerCounterVec(StorageErrorsTotal)

	registerGauge(Up)

	Up.Set(1)
}

// Init initializes the metrics registry with all collectors.
// Must be called after SetEnabled().
func Init() *prometheus.Registry {
	once.Do(func() {
		initMetrics()

		if !Enabled {
			registry = prometheus.NewRegistry()
			return
		}
		initRegistry()
	})

	return registry
}

// GetRegistry returns the prometheus registry, initializing it if needed
func GetRegistry() *prometheus.Registry {
	if registry == nil {
		return Init()
	}
	return registry
}
