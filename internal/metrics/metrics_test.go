package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.OrdersPlaced.Inc()
	m.BidAccepts.WithLabelValues("accepted").Inc()
	m.BidAccepts.WithLabelValues("conflict").Add(2)
	m.Requests.WithLabelValues("/api/v1/orders", "201").Inc()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.OrdersPlaced))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.BidAccepts.WithLabelValues("conflict")))

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.True(t, strings.Contains(body, "agromarket_orders_placed_total 1"), body)
	assert.Contains(t, body, `agromarket_http_requests_total{handler="/api/v1/orders",status="201"} 1`)
}
