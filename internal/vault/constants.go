package vault

// Error context strings for wrapped errors
const (
	ErrContextFailedToGetMarket   = "failed to get market"
	ErrContextFeeTransferFailed   = "fee transfer failed"
	ErrContextWithdrawalFailed    = "withdrawal transfer failed"
	ErrContextFailedToCreditVault = "failed to credit vault"
	ErrContextFailedToReadBalance = "failed to read vault balance"
)

// Log messages
const (
	LogMsgCollectFeesCalled = "CollectFees called"
	LogMsgWithdrawCalled    = "Withdraw called"
	LogMsgFeeCreditFailed   = "Fee transferred to vault account but ledger credit failed"
	LogMsgFeeReturnFailed   = "Failed to return fee to market custody after guard loss"
)

// Operation names used in InvalidStateError
const OpCollectFees = "collect_fees"
