// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Discovery metrics
	TokensDiscovered   *prometheus.CounterVec
	TokensSkippedOld   prometheus.Counter
	TokensDeduplicated prometheus.Counter
	DedupSetSize       prometheus.Gauge

	// Analysis metrics
	VerdictsTotal   *prometheus.CounterVec
	SecurityScore   prometheus.Histogram
	ProviderLatency *prometheus.HistogramVec
	ProviderErrors  *prometheus.CounterVec

	// Trading metrics
	PurchasesTotal   *prometheus.CounterVec
	ProfitTakesTotal *prometheus.CounterVec
	OpenPositions    prometheus.Gauge

	// Chain metrics
	BlocksProcessed prometheus.Counter
	RPCCallLatency  *prometheus.HistogramVec
	WSReconnects    prometheus.Counter

	// Health metrics
	LastBlockTimestamp prometheus.Gauge
	UptimeSeconds      prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "bsc_token_sniper"
	}

	return &Metrics{
		// Discovery metrics
		TokensDiscovered: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "discovery",
			Name:      "tokens_discovered_total",
			Help:      "Total number of token candidates discovered by event type",
		}, []string{"type"}),
		TokensSkippedOld: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "discovery",
			Name:      "tokens_skipped_old_total",
			Help:      "Total number of candidates rejected by the freshness gate",
		}),
		TokensDeduplicated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "discovery",
			Name:      "tokens_deduplicated_total",
			Help:      "Total number of candidates dropped as already processed",
		}),
		DedupSetSize: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "discovery",
			Name:      "dedup_set_size",
			Help:      "Current number of addresses in the processed-token set",
		}),

		// Analysis metrics
		VerdictsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "verdicts_total",
			Help:      "Total number of security verdicts by result",
		}, []string{"result"}),
		SecurityScore: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "security_score",
			Help:      "Distribution of weighted security scores",
			Buckets:   []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		}),
		ProviderLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "provider_latency_seconds",
			Help:      "External provider call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"provider"}),
		ProviderErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "provider_errors_total",
			Help:      "Total number of external provider call failures",
		}, []string{"provider"}),

		// Trading metrics
		PurchasesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "trading",
			Name:      "purchases_total",
			Help:      "Total number of buy attempts by status",
		}, []string{"status"}),
		ProfitTakesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "trading",
			Name:      "profit_takes_total",
			Help:      "Total number of fired profit targets by target label",
		}, []string{"target"}),
		OpenPositions: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "trading",
			Name:      "open_positions",
			Help:      "Current number of monitored positions",
		}),

		// Chain metrics
		BlocksProcessed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "chain",
			Name:      "blocks_processed_total",
			Help:      "Total number of block heads processed",
		}),
		RPCCallLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "chain",
			Name:      "rpc_call_latency_seconds",
			Help:      "BSC RPC call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		WSReconnects: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "chain",
			Name:      "ws_reconnects_total",
			Help:      "Total number of WebSocket reconnections",
		}),

		// Health metrics
		LastBlockTimestamp: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_block_timestamp",
			Help:      "Unix timestamp of the newest processed block",
		}),
		UptimeSeconds: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "uptime_seconds_total",
			Help:      "Total uptime in seconds",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordDiscovery increments the discovered counter for an event type.
func RecordDiscovery(eventType string) {
	DefaultMetrics.TokensDiscovered.WithLabelValues(eventType).Inc()
}

// RecordSkippedOld increments the freshness-gate rejection counter.
func RecordSkippedOld() {
	DefaultMetrics.TokensSkippedOld.Inc()
}

// RecordDeduplicated increments the already-processed counter.
func RecordDeduplicated() {
	DefaultMetrics.TokensDeduplicated.Inc()
}

// UpdateDedupSetSize updates the processed-token set gauge.
func UpdateDedupSetSize(size int) {
	DefaultMetrics.DedupSetSize.Set(float64(size))
}

// RecordVerdict records one security verdict.
func RecordVerdict(safe bool, score int) {
	result := "rejected"
	if safe {
		result = "passed"
	}
	DefaultMetrics.VerdictsTotal.WithLabelValues(result).Inc()
	DefaultMetrics.SecurityScore.Observe(float64(score))
}

// RecordProviderCall records one external provider round trip.
func RecordProviderCall(provider string, seconds float64, err error) {
	DefaultMetrics.ProviderLatency.WithLabelValues(provider).Observe(seconds)
	if err != nil {
		DefaultMetrics.ProviderErrors.WithLabelValues(provider).Inc()
	}
}

// RecordPurchase records one buy attempt.
func RecordPurchase(status string) {
	DefaultMetrics.PurchasesTotal.WithLabelValues(status).Inc()
}

// RecordProfitTake records one fired profit target.
func RecordProfitTake(target string) {
	DefaultMetrics.ProfitTakesTotal.WithLabelValues(target).Inc()
}

// UpdateOpenPositions updates the monitored positions gauge.
func UpdateOpenPositions(count int) {
	DefaultMetrics.OpenPositions.Set(float64(count))
}

// RecordBlock records one processed block head.
func RecordBlock(timestamp int64) {
	DefaultMetrics.BlocksProcessed.Inc()
	DefaultMetrics.LastBlockTimestamp.Set(float64(timestamp))
}

// RecordRPCLatency records RPC call latency.
func RecordRPCLatency(method string, seconds float64) {
	DefaultMetrics.RPCCallLatency.WithLabelValues(method).Observe(seconds)
}

// RecordWSReconnect increments the WebSocket reconnect counter.
func RecordWSReconnect() {
	DefaultMetrics.WSReconnects.Inc()
}
