package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegisterSearchMetrics_Idempotent(t *testing.T) {
	RegisterSearchMetrics()
	RegisterSearchMetrics()

	SearchRequestsTotal.WithLabelValues("product", BackendIndex).Inc()
	if v := testutil.ToFloat64(SearchRequestsTotal.WithLabelValues("product", BackendIndex)); v < 1 {
		t.Errorf("search_requests_total = %f, want >= 1", v)
	}

	SearchFallbackTotal.WithLabelValues("product", ReasonEngineError).Inc()
	if v := testutil.ToFloat64(SearchFallbackTotal.WithLabelValues("product", ReasonEngineError)); v < 1 {
		t.Errorf("search_fallback_total = %f, want >= 1", v)
	}
}
