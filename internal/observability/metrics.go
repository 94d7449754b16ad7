// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
// All methods are safe to call on a nil *Metrics.
type Metrics struct {
	registry *prometheus.Registry

	// Fleet metrics
	WalletBalance        *prometheus.GaugeVec
	BalanceRefreshErrors *prometheus.CounterVec
	TransfersTotal       *prometheus.CounterVec
	DistributionsTotal   *prometheus.CounterVec

	// Ledger metrics
	LedgerCallLatency *prometheus.HistogramVec

	// Wizard metrics
	WizardSessionsTotal *prometheus.CounterVec
	TokensCreated       *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance on its own registry.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "launchpad"
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		WalletBalance: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "fleet",
			Name:      "wallet_balance_lamports",
			Help:      "Last refreshed wallet balance in lamports",
		}, []string{"network", "wallet"}),
		BalanceRefreshErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fleet",
			Name:      "balance_refresh_errors_total",
			Help:      "Total number of failed per-wallet balance queries",
		}, []string{"network"}),
		TransfersTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fleet",
			Name:      "transfers_total",
			Help:      "Total number of SOL transfers by outcome",
		}, []string{"network", "outcome"}),
		DistributionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fleet",
			Name:      "distributions_total",
			Help:      "Total number of reserve distribution runs by outcome",
		}, []string{"network", "outcome"}),

		LedgerCallLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "call_duration_seconds",
			Help:      "Solana RPC call latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"network", "method"}),

		WizardSessionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "wizard",
			Name:      "sessions_total",
			Help:      "Wizard sessions by kind and outcome",
		}, []string{"kind", "outcome"}),
		TokensCreated: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "launch",
			Name:      "tokens_created_total",
			Help:      "Total number of tokens minted",
		}, []string{"network"}),
	}
}

// Handler returns the /metrics handler for this registry.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveBalance records a wallet balance or a failed refresh.
func (m *Metrics) ObserveBalance(network string, walletID int, lamports uint64, known bool) {
	if m == nil {
		return
	}
	if !known {
		m.BalanceRefreshErrors.WithLabelValues(network).Inc()
		return
	}
	m.WalletBalance.WithLabelValues(network, strconv.Itoa(walletID)).Set(float64(lamports))
}

// ObserveTransfer counts one transfer outcome.
func (m *Metrics) ObserveTransfer(network string, ok bool) {
	if m == nil {
		return
	}
	m.TransfersTotal.WithLabelValues(network, outcome(ok)).Inc()
}

// ObserveDistribution counts one distribution run.
func (m *Metrics) ObserveDistribution(network, result string) {
	if m == nil {
		return
	}
	m.DistributionsTotal.WithLabelValues(network, result).Inc()
}

// ObserveLedgerCall records RPC latency since start.
func (m *Metrics) ObserveLedgerCall(network, method string, start time.Time) {
	if m == nil {
		return
	}
	m.LedgerCallLatency.WithLabelValues(network, method).Observe(time.Since(start).Seconds())
}

// ObserveSession counts a wizard session transition (started, created, cancelled, failed).
func (m *Metrics) ObserveSession(kind, result string) {
	if m == nil {
		return
	}
	m.WizardSessionsTotal.WithLabelValues(kind, result).Inc()
}

// ObserveTokenCreated counts one minted token.
func (m *Metrics) ObserveTokenCreated(network string) {
	if m == nil {
		return
	}
	m.TokensCreated.WithLabelValues(network).Inc()
}

func outcome(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}
