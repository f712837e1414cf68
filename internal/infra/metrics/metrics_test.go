package metrics_test

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkrupp/underwritepro/internal/infra/metrics"
)

func TestGatewayMetrics(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := metrics.NewGatewayMetrics(reg)

	m.ObserveResponse("GET", 200, 10*time.Millisecond)
	m.ObserveResponse("GET", 204, 10*time.Millisecond)
	m.ObserveResponse("POST", 401, 10*time.Millisecond)
	m.ObserveResponse("POST", 0, time.Second)
	m.ObserveForcedLogout()

	expected := `
# HELP underwritepro_gateway_requests_total Backend requests by method and status class.
# TYPE underwritepro_gateway_requests_total counter
underwritepro_gateway_requests_total{method="GET",status="2xx"} 2
underwritepro_gateway_requests_total{method="POST",status="4xx"} 1
underwritepro_gateway_requests_total{method="POST",status="error"} 1
# HELP underwritepro_gateway_forced_logouts_total Responses with status 401 that cleared the session.
# TYPE underwritepro_gateway_forced_logouts_total counter
underwritepro_gateway_forced_logouts_total 1
`

	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"underwritepro_gateway_requests_total",
		"underwritepro_gateway_forced_logouts_total",
	))
}

func TestWebMetrics(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := metrics.NewWebMetrics(reg)

	m.ObserveResponse("asset")
	m.ObserveResponse("index")
	m.ObserveResponse("index")

	count, err := testutil.GatherAndCount(reg, "underwritepro_webapp_responses_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestNilMetricsAreNoops(t *testing.T) {
	t.Parallel()

	var gm *metrics.GatewayMetrics
	var wm *metrics.WebMetrics

	assert.NotPanics(t, func() {
		gm.ObserveResponse("GET", 200, time.Millisecond)
		gm.ObserveForcedLogout()
		wm.ObserveResponse("asset")
	})
}
