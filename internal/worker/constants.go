package worker

// Log messages
const (
	LogMsgFailedToRescanOnStartup   = "Failed to rescan markets on startup"
	LogMsgSchedulingResolution      = "Scheduling market resolution"
	LogMsgSchedulingDistribution    = "Scheduling payout distribution"
	LogMsgResolvingScheduledMarket  = "Resolving scheduled market"
	LogMsgDistributingScheduled     = "Distributing scheduled payouts"
	LogMsgFailedToResolveMarket     = "Failed to resolve market"
	LogMsgFailedToDistribute        = "Failed to distribute payouts"
	LogMsgOracleRetryScheduled      = "Oracle unavailable, retry scheduled"
	LogMsgCancelledPendingRun       = "Cancelled pending settlement run"
	LogMsgShuttingDown              = "Shutting down settlement worker"
	LogMsgShutdownComplete          = "Settlement worker shutdown complete"
	LogMsgShutdownTimeout           = "Settlement worker shutdown timeout, some runs may still be in flight"
)
