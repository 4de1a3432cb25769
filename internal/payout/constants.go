package payout

// Error context strings for wrapped errors
const (
	ErrContextFailedToGetMarket    = "failed to get market"
	ErrContextFailedToGetPositions = "failed to get positions"
	ErrContextFeeCollectionFailed  = "fee collection failed"
	ErrContextResidualSweepFailed  = "residual sweep failed"
	ErrContextPayoutTransferFailed = "payout transfer failed"
)

// Log messages
const (
	LogMsgDistributeCalled     = "Distribute called"
	LogMsgRetryPayoutCalled    = "RetryPayout called"
	LogMsgPayoutTransferFailed = "Payout transfer failed, recorded for retry"
	LogMsgNoWinningStake       = "No stake on winning outcomes, net pool swept to vault"
)

// Operation names used in InvalidStateError
const (
	OpDistribute  = "distribute_payouts"
	OpRetryPayout = "retry_payout"
)
