package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP Metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameHTTPRequestsTotal,
			Help: HelpTextHTTPRequestsTotal,
		},
		[]string{LabelMethod, LabelPath, LabelStatus},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    MetricNameHTTPRequestDuration,
			Help:    HelpTextHTTPRequestDuration,
			Buckets: HTTPLatencyBuckets,
		},
		[]string{LabelMethod, LabelPath},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: MetricNameHTTPRequestsInFlight,
			Help: HelpTextHTTPRequestsInFlight,
		},
	)
)

// Business Metrics
var (
	MarketsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameMarketsCreated,
			Help: HelpTextMarketsCreated,
		},
		[]string{LabelToken},
	)

	BetsPlaced = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameBetsPlaced,
			Help: HelpTextBetsPlaced,
		},
		[]string{LabelToken},
	)

	StakeAccepted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameStakeAccepted,
			Help: HelpTextStakeAccepted,
		},
		[]string{LabelToken},
	)

	MarketsResolved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameMarketsResolved,
			Help: HelpTextMarketsResolved,
		},
		[]string{LabelSource},
	)

	MarketsCancelled = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameMarketsCancelled,
			Help: HelpTextMarketsCancelled,
		},
	)

	PayoutsDistributed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNamePayoutsDistributed,
			Help: HelpTextPayoutsDistributed,
		},
		[]string{LabelToken},
	)

	PayoutTransferFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNamePayoutTransferFailures,
			Help: HelpTextPayoutTransferFailures,
		},
	)

	FeesCollected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameFeesCollected,
			Help: HelpTextFeesCollected,
		},
		[]string{LabelToken},
	)

	FeesWithdrawn = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameFeesWithdrawn,
			Help: HelpTextFeesWithdrawn,
		},
		[]string{LabelToken},
	)
)
