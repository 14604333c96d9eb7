package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArtefactMetrics(t *testing.T) {
	m, err := NewArtefactMetrics("test", prometheus.NewRegistry())
	require.NoError(t, err)

	m.ObserveRequest(http.MethodGet, http.StatusOK)
	m.ObserveRequest(http.MethodGet, http.StatusOK)
	m.ObserveRequest(http.MethodPut, http.StatusUnauthorized)
	m.AddServed(5000)
	m.AddStored(12)
	m.AddStored(0)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("PUT", "401")))
	assert.Equal(t, 5000.0, testutil.ToFloat64(m.bytes.WithLabelValues("served")))
	assert.Equal(t, 12.0, testutil.ToFloat64(m.bytes.WithLabelValues("stored")))
}

func TestArtefactMetrics_Nil(t *testing.T) {
	var m *ArtefactMetrics
	assert.NotPanics(t, func() {
		m.ObserveRequest(http.MethodGet, http.StatusOK)
		m.AddServed(1)
		m.AddStored(1)
	})
}

func TestMetricsServer_Handler(t *testing.T) {
	srv, err := New("artefact_registry", "127.0.0.1:0")
	require.NoError(t, err)

	srv.Artefacts.ObserveRequest(http.MethodGet, http.StatusNotFound)

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	resp := w.Result()
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `artefact_registry_artefact_requests_total{code="404",method="GET"} 1`)
}
