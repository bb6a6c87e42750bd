package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestMetrics(t *testing.T) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	m, err := NewMetrics(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)).Meter("test"))
	require.NoError(t, err)

	return m, reader
}

func collectByName(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := map[string]metricdata.Aggregation{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m.Data
		}
	}
	return out
}

func TestRecordRequest(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordRequest(ctx, http.MethodPost, "/orders", http.StatusOK, 0.7)
	m.RecordRequest(ctx, http.MethodPost, "/orders", http.StatusOK, 0.2)
	m.RecordRequest(ctx, http.MethodPost, "/orders", http.StatusBadRequest, 0.01)
	m.RecordRequest(ctx, http.MethodGet, "/orders", http.StatusOK, 0.5)

	data := collectByName(t, reader)

	total := data["http_requests_total"].(metricdata.Sum[int64])
	assert.Len(t, total.DataPoints, 3)
	for _, dp := range total.DataPoints {
		class, _ := dp.Attributes.Value("status_class")
		code, _ := dp.Attributes.Value("status_code")
		assert.Equal(t, code.AsInt64()/100, int64(class.AsString()[0]-'0'))
	}

	// Duration is not split by status.
	duration := data["http_request_duration_seconds"].(metricdata.Histogram[float64])
	assert.Len(t, duration.DataPoints, 2)
}

func TestWithMetrics(t *testing.T) {
	m, reader := newTestMetrics(t)

	var inFlightDuringRequest int64
	r := chi.NewRouter()
	r.Use(WithMetrics(m))
	r.Get("/orders/{id}", func(w http.ResponseWriter, _ *http.Request) {
		gauge := collectByName(t, reader)["http_requests_in_flight"].(metricdata.Sum[int64])
		inFlightDuringRequest = gauge.DataPoints[0].Value
		w.WriteHeader(http.StatusTeapot)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/orders/123", nil))

	data := collectByName(t, reader)

	total := data["http_requests_total"].(metricdata.Sum[int64])
	require.Len(t, total.DataPoints, 1)
	attrs := total.DataPoints[0].Attributes
	route, _ := attrs.Value("route")
	status, _ := attrs.Value("status_code")
	assert.Equal(t, "/orders/{id}", route.AsString())
	assert.Equal(t, int64(http.StatusTeapot), status.AsInt64())

	assert.Equal(t, int64(1), inFlightDuringRequest)
	gauge := data["http_requests_in_flight"].(metricdata.Sum[int64])
	assert.Equal(t, int64(0), gauge.DataPoints[0].Value)
}

func TestRoutePatternFallsBackToPath(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/unknown", nil)
	assert.Equal(t, "/unknown", routePattern(req))
}
