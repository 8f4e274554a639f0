package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// UpstreamRequestsTotal tracks Solscan API requests by endpoint and status
	UpstreamRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stakewatch_upstream_requests_total",
			Help: "The total number of upstream API requests",
		},
		[]string{"endpoint", "status"},
	)

	// PagesFetchedTotal tracks stake account pages by status
	PagesFetchedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stakewatch_pages_fetched_total",
			Help: "The total number of stake account pages fetched",
		},
		[]string{"status"}, // success, failed
	)

	// RewardExportsTotal tracks reward export downloads by status
	RewardExportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stakewatch_reward_exports_total",
			Help: "The total number of reward export downloads",
		},
		[]string{"status"}, // success, empty, failed
	)

	// CacheOperationsTotal tracks cache store operations
	CacheOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stakewatch_cache_operations_total",
			Help: "The total number of cache store operations",
		},
		[]string{"operation", "status"}, // replace_all/get_all/upsert_rewards, success/failed
	)

	// WalletRefreshSeconds tracks time taken for a full wallet refresh
	WalletRefreshSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "stakewatch_wallet_refresh_seconds",
		Help:    "Time taken to fully refresh a wallet in seconds",
		Buckets: prometheus.ExponentialBuckets(1, 2, 10), // 1s to ~17min
	})

	// AggregatedRewardPoints tracks the size of the last aggregated reward series
	AggregatedRewardPoints = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "stakewatch_aggregated_reward_points",
		Help: "Number of (epoch, timestamp) points in the last reward aggregation",
	})
)

// RecordUpstreamRequest records an upstream API request with the given status
func RecordUpstreamRequest(endpoint, status string) {
	UpstreamRequestsTotal.WithLabelValues(endpoint, status).Inc()
}

// RecordPageFetched records a stake account page fetch
func RecordPageFetched(status string) {
	PagesFetchedTotal.WithLabelValues(status).Inc()
}

// RecordRewardExport records a reward export download
func RecordRewardExport(status string) {
	RewardExportsTotal.WithLabelValues(status).Inc()
}

// RecordCacheOperation records a cache store operation
func RecordCacheOperation(operation, status string) {
	CacheOperationsTotal.WithLabelValues(operation, status).Inc()
}

// RecordWalletRefresh records the time taken to refresh a wallet
func RecordWalletRefresh(duration float64) {
	WalletRefreshSeconds.Observe(duration)
}

// SetAggregatedRewardPoints records the size of the last aggregation
func SetAggregatedRewardPoints(count int) {
	AggregatedRewardPoints.Set(float64(count))
}
