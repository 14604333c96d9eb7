// Package metrics exposes the registry's Prometheus metrics.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsServer serves /metrics from its own registry.
type MetricsServer struct {
	registry  *prometheus.Registry
	srv       *http.Server
	Artefacts *ArtefactMetrics
}

// New creates the registry, registers the artefact and process collectors
// under namespace and prepares a server listening on addr.
func New(namespace, addr string) (*MetricsServer, error) {
	registry := prometheus.NewRegistry()

	if err := registry.Register(collectors.NewGoCollector()); err != nil {
		return nil, err
	}
	if err := registry.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
		return nil, err
	}

	artefacts, err := NewArtefactMetrics(namespace, registry)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))

	return &MetricsServer{
		registry:  registry,
		Artefacts: artefacts,
		srv: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}, nil
}

// Handler returns the /metrics handler, for embedding in tests or other muxes.
func (m *MetricsServer) Handler() http.Handler {
	return m.srv.Handler
}

func (m *MetricsServer) ListenAndServe() error {
	return m.srv.ListenAndServe()
}

func (m *MetricsServer) Shutdown(ctx context.Context) error {
	return m.srv.Shutdown(ctx)
}

// ArtefactMetrics counts artefact requests and transferred bytes.
// A nil *ArtefactMetrics discards all observations.
type ArtefactMetrics struct {
	requests *prometheus.CounterVec
	bytes    *prometheus.CounterVec
}

func NewArtefactMetrics(namespace string, reg prometheus.Registerer) (*ArtefactMetrics, error) {
	m := &ArtefactMetrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "artefact_requests_total",
			Help:      "Artefact requests by method and response status code.",
		}, []string{"method", "code"}),
		bytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "artefact_bytes_total",
			Help:      "Artefact bytes transferred, by direction (served or stored).",
		}, []string{"direction"}),
	}

	if err := reg.Register(m.requests); err != nil {
		return nil, err
	}
	if err := reg.Register(m.bytes); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *ArtefactMetrics) ObserveRequest(method string, code int) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, strconv.Itoa(code)).Inc()
}

func (m *ArtefactMetrics) AddServed(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.bytes.WithLabelValues("served").Add(float64(n))
}

func (m *ArtefactMetrics) AddStored(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.bytes.WithLabelValues("stored").Add(float64(n))
}
