package market

import "time"

// Fee rates are expressed in basis points
const BasisPointDenominator = 10000

// Snapshot cache sizing
const (
	SnapshotCacheSize = 512
	SnapshotCacheTTL  = 2 * time.Second
)

// Error context strings for wrapped errors
const (
	ErrContextFailedToGetMarket    = "failed to get market"
	ErrContextFailedToCreateMarket = "failed to create market"
	ErrContextFailedToApplyBet     = "failed to record bet"
	ErrContextFailedToListMarkets  = "failed to list markets"
	ErrContextFailedToGetPositions = "failed to get positions"
	ErrContextTransferFailed       = "stake transfer failed"
	ErrContextRefundFailed         = "refund transfer failed"
)

// Log messages
const (
	LogMsgCreateMarketCalled  = "CreateMarket called"
	LogMsgPlaceBetCalled      = "PlaceBet called"
	LogMsgResolveManualCalled = "ResolveManual called"
	LogMsgResolveOracleCalled = "ResolveOracle called"
	LogMsgCancelMarketCalled  = "CancelMarket called"
	LogMsgRetryRefundsCalled  = "RetryRefunds called"
	LogMsgBetCompensated      = "Bet ledger update failed, stake returned to bettor"
	LogMsgRefundTransferError = "Refund transfer failed, position retained for retry"
)

// Operation names used in InvalidStateError
const (
	OpPlaceBet     = "place_bet"
	OpResolve      = "resolve_market"
	OpCancel       = "cancel_market"
	OpRetryRefunds = "retry_refunds"
)
