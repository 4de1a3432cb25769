package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/predictify/predictify/internal/domain"
	"github.com/predictify/predictify/internal/logger"
)

// Standard response types for consistent API responses

// SuccessResponse represents a simple successful operation message
type SuccessResponse struct {
	Message string `json:"message"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// DataResponse represents a response with data payload
type DataResponse struct {
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data"`
}

// respondJSON sends a JSON response with the given status code and payload
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	// Encode through a pooled buffer to reduce allocations
	buf := getBuffer()
	defer putBuffer(buf)

	if err := json.NewEncoder(buf).Encode(payload); err != nil {
		// Headers are already sent at this point
		slog.Error("Failed to encode JSON response", "error", err)
		return
	}

	if _, err := buf.WriteTo(w); err != nil {
		slog.Error("Failed to write response buffer", "error", err)
	}
}

// respondError sends a JSON error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{Error: message})
}

// User-facing error messages for service errors
const (
	ErrMsgGenericServerError  = "Something went wrong"
	ErrMsgUnknownError        = "Unknown error"
	ErrMsgInvalidRequestError = "Invalid request. Please check your inputs."

	// Market messages
	ErrMsgMarketNotFoundError    = "Market not found"
	ErrMsgInvalidStateError      = "Operation not allowed in the market's current state"
	ErrMsgTooFewOutcomesError    = "A market needs at least two outcomes"
	ErrMsgDuplicateOutcomeError  = "Outcome labels must be unique"
	ErrMsgInvalidTimeBoundsError = "Market times are invalid"
	ErrMsgAlreadyResolvedError   = "Market is already resolved"
	ErrMsgDeadlinePassedError    = "Too late, the deadline has passed"
	ErrMsgDeadlineNotReachedErr  = "Too early, the deadline has not been reached"

	// Bet messages
	ErrMsgZeroAmountError       = "Amount must be positive"
	ErrMsgUnknownOutcomeError   = "That outcome does not exist on this market"
	ErrMsgBelowMinimumPoolError = "Pool has not reached the market's minimum size"
	ErrMsgNotEnoughFundsError   = "Not enough funds"

	// Auth messages
	ErrMsgUnauthorizedError = "You are not authorized to perform this action"

	// Oracle messages
	ErrMsgOracleUnavailableError = "Oracle data is unavailable. Try again later or resolve manually."

	// Vault messages
	ErrMsgFeesAlreadyCollectedErr = "Fees were already collected for this market"
	ErrMsgVaultBalanceError       = "Vault balance is too low"
	ErrMsgNothingToRetryError     = "No failed payout recorded for that bettor"
	ErrMsgNoRefundsError          = "No refunds outstanding"
)

// mapServiceErrorToUserMessage maps domain errors to user-friendly HTTP
// responses with appropriate status codes
func mapServiceErrorToUserMessage(err error) (int, string) {
	if err == nil {
		return http.StatusInternalServerError, ErrMsgUnknownError
	}

	switch {
	case errors.Is(err, domain.ErrMarketNotFound):
		return http.StatusNotFound, ErrMsgMarketNotFoundError
	case errors.Is(err, domain.ErrInvalidMarketState):
		return http.StatusConflict, ErrMsgInvalidStateError
	case errors.Is(err, domain.ErrTooFewOutcomes):
		return http.StatusBadRequest, ErrMsgTooFewOutcomesError
	case errors.Is(err, domain.ErrDuplicateOutcome):
		return http.StatusBadRequest, ErrMsgDuplicateOutcomeError
	case errors.Is(err, domain.ErrInvalidTimeBounds):
		return http.StatusBadRequest, ErrMsgInvalidTimeBoundsError
	case errors.Is(err, domain.ErrAlreadyResolved):
		return http.StatusConflict, ErrMsgAlreadyResolvedError
	case errors.Is(err, domain.ErrDeadlinePassed):
		return http.StatusBadRequest, ErrMsgDeadlinePassedError
	case errors.Is(err, domain.ErrDeadlineNotReached):
		return http.StatusBadRequest, ErrMsgDeadlineNotReachedErr
	case errors.Is(err, domain.ErrZeroAmount):
		return http.StatusBadRequest, ErrMsgZeroAmountError
	case errors.Is(err, domain.ErrUnknownOutcome):
		return http.StatusBadRequest, ErrMsgUnknownOutcomeError
	case errors.Is(err, domain.ErrBelowMinimumPool):
		return http.StatusBadRequest, ErrMsgBelowMinimumPoolError
	case errors.Is(err, domain.ErrInsufficientFunds):
		return http.StatusBadRequest, ErrMsgNotEnoughFundsError
	case errors.Is(err, domain.ErrUnauthorizedCaller):
		return http.StatusForbidden, ErrMsgUnauthorizedError
	case errors.Is(err, domain.ErrOracleUnavailable):
		return http.StatusServiceUnavailable, ErrMsgOracleUnavailableError
	case errors.Is(err, domain.ErrFeesAlreadyCollected):
		return http.StatusConflict, ErrMsgFeesAlreadyCollectedErr
	case errors.Is(err, domain.ErrInsufficientVaultBalance):
		return http.StatusBadRequest, ErrMsgVaultBalanceError
	case errors.Is(err, domain.ErrNothingToRetry):
		return http.StatusNotFound, ErrMsgNothingToRetryError
	case errors.Is(err, domain.ErrNoRefundsOutstanding):
		return http.StatusBadRequest, ErrMsgNoRefundsError
	}

	// For wrapped errors with domain errors as the base, try unwrapping
	unwrapped := errors.Unwrap(err)
	if unwrapped != nil && unwrapped != err {
		return mapServiceErrorToUserMessage(unwrapped)
	}

	errMsg := err.Error()
	if errMsg != "" && len(errMsg) < 200 {
		return http.StatusInternalServerError, errMsg
	}

	return http.StatusInternalServerError, ErrMsgGenericServerError
}

// respondServiceError logs a failed service call and writes the mapped
// error response
func respondServiceError(w http.ResponseWriter, r *http.Request, opName string, err error) {
	logger.FromContext(r.Context()).Error("Service call failed", "op", opName, "error", err)
	statusCode, userMsg := mapServiceErrorToUserMessage(err)
	respondError(w, statusCode, userMsg)
}
