package observability

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Observe(t *testing.T) {
	m := NewMetrics("test")

	m.ObserveBalance("devnet", 1, 1_000_000_000, true)
	m.ObserveBalance("devnet", 2, 0, false)
	m.ObserveTransfer("devnet", true)
	m.ObserveTransfer("devnet", false)
	m.ObserveTransfer("devnet", true)
	m.ObserveDistribution("devnet", "success")

	assert.Equal(t, float64(1_000_000_000), testutil.ToFloat64(m.WalletBalance.WithLabelValues("devnet", "1")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.BalanceRefreshErrors.WithLabelValues("devnet")))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.TransfersTotal.WithLabelValues("devnet", "success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.TransfersTotal.WithLabelValues("devnet", "failure")))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "test_fleet_transfers_total")
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveBalance("devnet", 1, 1, true)
		m.ObserveTransfer("devnet", true)
		m.ObserveDistribution("devnet", "success")
		m.ObserveSession("manual_launch", "started")
		m.ObserveTokenCreated("devnet")
	})
}
