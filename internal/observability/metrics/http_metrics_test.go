package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

func TestHTTPMetricsMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	registry := prometheus.NewRegistry()
	m := newHTTPMetrics(registry, Config{ServiceName: "etabridge", Environment: "test"})

	router := gin.New()
	router.Use(m.GinMiddleware())
	router.GET("/v1/logs/:id", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/logs/42", nil))
	}

	got := testutil.ToFloat64(m.requests.WithLabelValues(http.MethodGet, "/v1/logs/:id", "404"))
	require.Equal(t, float64(2), got)
}

func TestObserveUpstream(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := newHTTPMetrics(registry, Config{})

	m.ObserveUpstream("documentsubmissions", 0, 2*time.Second)
	m.ObserveUpstream("documentsubmissions", 202, time.Second)

	families, err := registry.Gather()
	require.NoError(t, err)

	var upstream *dto.MetricFamily
	for _, family := range families {
		if family.GetName() == "etabridge_eta_request_duration_seconds" {
			upstream = family
		}
	}
	require.NotNil(t, upstream)
	require.Len(t, upstream.GetMetric(), 2)

	codes := map[string]uint64{}
	for _, metric := range upstream.GetMetric() {
		for _, label := range metric.GetLabel() {
			if label.GetName() == "status_code" {
				codes[label.GetValue()] = metric.GetHistogram().GetSampleCount()
			}
		}
	}
	require.Equal(t, uint64(1), codes["transport_error"])
	require.Equal(t, uint64(1), codes["202"])
}
