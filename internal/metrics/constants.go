package metrics

// ============================================================================
// Metric Names
// ============================================================================

// HTTP metric names
const (
	MetricNameHTTPRequestsTotal    = "http_requests_total"
	MetricNameHTTPRequestDuration  = "http_request_duration_seconds"
	MetricNameHTTPRequestsInFlight = "http_requests_in_flight"
)

// Business metric names
const (
	MetricNameMarketsCreated         = "markets_created_total"
	MetricNameBetsPlaced             = "bets_placed_total"
	MetricNameStakeAccepted          = "stake_accepted_units_total"
	MetricNameMarketsResolved        = "markets_resolved_total"
	MetricNameMarketsCancelled       = "markets_cancelled_total"
	MetricNamePayoutsDistributed     = "payouts_distributed_units_total"
	MetricNamePayoutTransferFailures = "payout_transfer_failures_total"
	MetricNameFeesCollected          = "fees_collected_units_total"
	MetricNameFeesWithdrawn          = "fees_withdrawn_units_total"
)

// ============================================================================
// Metric Help Text
// ============================================================================

// HTTP metric help text
const (
	HelpTextHTTPRequestsTotal    = "Total number of HTTP requests"
	HelpTextHTTPRequestDuration  = "HTTP request latency in seconds"
	HelpTextHTTPRequestsInFlight = "Current number of HTTP requests being served"
)

// Business metric help text
const (
	HelpTextMarketsCreated         = "Total number of markets created"
	HelpTextBetsPlaced             = "Total number of bets accepted"
	HelpTextStakeAccepted          = "Total stake accepted, in token units"
	HelpTextMarketsResolved        = "Total number of markets resolved"
	HelpTextMarketsCancelled       = "Total number of markets cancelled"
	HelpTextPayoutsDistributed     = "Total payout value distributed, in token units"
	HelpTextPayoutTransferFailures = "Total payout transfers that failed and were recorded for retry"
	HelpTextFeesCollected          = "Total protocol fees collected, in token units"
	HelpTextFeesWithdrawn          = "Total fees withdrawn from the vault, in token units"
)

// Metric labels
const (
	LabelMethod = "method"
	LabelPath   = "path"
	LabelStatus = "status"
	LabelToken  = "token"
	LabelSource = "source" // "manual" or "oracle" for resolutions
)

// PathLabelUnmatched is the path label for requests no route claimed
const PathLabelUnmatched = "unmatched"

// HTTPLatencyBuckets are the histogram buckets for request latency
var HTTPLatencyBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5}
