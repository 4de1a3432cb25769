package postgres

// Error context strings for wrapped repository errors
const (
	ErrMsgFailedToCreateMarket    = "failed to create market"
	ErrMsgFailedToGetMarket       = "failed to get market"
	ErrMsgFailedToListMarkets     = "failed to list markets"
	ErrMsgFailedToApplyBet        = "failed to apply bet"
	ErrMsgFailedToApplyRefund     = "failed to apply refund"
	ErrMsgFailedToUpdateState     = "failed to update market state"
	ErrMsgFailedToRecordResolve   = "failed to record resolution"
	ErrMsgFailedToMarkFees        = "failed to mark fees collected"
	ErrMsgFailedToAddDistributed  = "failed to add distributed amount"
	ErrMsgFailedToGetPositions    = "failed to get positions"
	ErrMsgFailedToSaveFailure     = "failed to save payout failure"
	ErrMsgFailedToListFailures    = "failed to list payout failures"
	ErrMsgFailedToDeleteFailure   = "failed to delete payout failure"
	ErrMsgFailedToBeginTx         = "failed to begin transaction"
	ErrMsgFailedToCreditVault     = "failed to credit vault"
	ErrMsgFailedToDebitVault      = "failed to debit vault"
	ErrMsgFailedToGetVaultBalance = "failed to get vault balance"
	ErrMsgFailedToTransfer        = "failed to transfer tokens"
	ErrMsgFailedToGetBalance      = "failed to get token balance"
)

// PostgreSQL error codes
const pgUniqueViolation = "23505"
