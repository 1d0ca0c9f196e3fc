package prometrics

import (
	"testing"

	"github.com/Zhima-Mochi/storefront/internal/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounterRegisteredOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(reg, "storefront", "")

	first := r.Counter("usecase_requests_total", "help", "use_case", "outcome")
	second := r.Counter("usecase_requests_total", "help", "use_case", "outcome")

	first.Add(1, observability.L("use_case", "order.create"), observability.L("outcome", "success"))
	second.Add(2, observability.L("use_case", "order.create"), observability.L("outcome", "success"))

	count, err := testutil.GatherAndCount(reg, "storefront_usecase_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	cv, _ := r.(*registry).counters.Load("usecase_requests_total")
	got := testutil.ToFloat64(cv.(*prometheus.CounterVec).WithLabelValues("order.create", "success"))
	assert.Equal(t, 3.0, got)
}

func TestStandardRegistersEveryKey(t *testing.T) {
	counters, histograms := Standard(New(prometheus.NewRegistry(), "", ""))

	for _, k := range []observability.MetricKey{
		observability.MUsecaseRequests,
		observability.MHTTPRequests,
		observability.MExternalRequests,
		observability.MEventPublishFailures,
		observability.MStockRejections,
		observability.MChargesUnapplied,
	} {
		assert.Contains(t, counters, k)
	}
	for _, k := range []observability.MetricKey{
		observability.MUsecaseDuration,
		observability.MHTTPRequestDuration,
		observability.MExternalRequestDuration,
	} {
		assert.Contains(t, histograms, k)
	}
}
