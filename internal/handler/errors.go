package handler

// Generic HTTP error messages for client responses.
// These messages intentionally do not expose internal error details.
const (
	ErrMsgMethodNotAllowed      = "Method not allowed"
	ErrMsgInvalidRequest        = "Invalid request body"
	ErrMsgInvalidRequestSummary = "Invalid request"

	ErrMsgMissingQueryParam = "Missing %s query parameter"

	ErrMsgInvalidMarketID    = "Invalid market ID"
	ErrMsgInvalidMarketState = "Invalid market state filter"
	ErrMsgMarketNotFoundHTTP = "Market not found"
)

// Success messages for API responses
const (
	MsgBetPlacedSuccess      = "Bet placed successfully"
	MsgMarketResolvedSuccess = "Market resolved successfully"
	MsgFeesWithdrawnSuccess  = "Fees withdrawn successfully"
)
