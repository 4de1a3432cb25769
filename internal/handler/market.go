package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/predictify/predictify/internal/domain"
	"github.com/predictify/predictify/internal/market"
	"github.com/predictify/predictify/internal/payout"
)

// MarketHandler exposes the market lifecycle over HTTP
type MarketHandler struct {
	service     market.Service
	distributor payout.Distributor
}

// NewMarketHandler creates a new MarketHandler
func NewMarketHandler(service market.Service, distributor payout.Distributor) *MarketHandler {
	return &MarketHandler{
		service:     service,
		distributor: distributor,
	}
}

// OracleConfigRequest mirrors domain.OracleConfig with validation tags
type OracleConfigRequest struct {
	Provider   string `json:"provider" validate:"required"`
	FeedID     string `json:"feed_id" validate:"required"`
	Comparison string `json:"comparison" validate:"required,comparison"`
	Threshold  int64  `json:"threshold"`
	Address    string `json:"address"`
}

func (o *OracleConfigRequest) toDomain() domain.OracleConfig {
	return domain.OracleConfig{
		Provider:   o.Provider,
		FeedID:     o.FeedID,
		Comparison: domain.ComparisonOp(o.Comparison),
		Threshold:  o.Threshold,
		Address:    o.Address,
	}
}

type CreateMarketRequest struct {
	Admin                    string               `json:"admin" validate:"required"`
	Question                 string               `json:"question" validate:"required,max=500"`
	Outcomes                 []string             `json:"outcomes" validate:"required,min=2"`
	Token                    string               `json:"token" validate:"required"`
	EndTime                  time.Time            `json:"end_time" validate:"required"`
	BetDeadline              *time.Time           `json:"bet_deadline"`
	Oracle                   OracleConfigRequest  `json:"oracle" validate:"required"`
	FallbackOracle           *OracleConfigRequest `json:"fallback_oracle"`
	ResolutionTimeoutSeconds int64                `json:"resolution_timeout_seconds" validate:"gte=0"`
	DisputeWindowSeconds     int64                `json:"dispute_window_seconds" validate:"gte=0"`
	MinPoolSize              int64                `json:"min_pool_size" validate:"gte=0"`
	FeeRateBps               int64                `json:"fee_rate_bps" validate:"gte=0,max=10000"`
}

func (h *MarketHandler) HandleCreateMarket(w http.ResponseWriter, r *http.Request) {
	var req CreateMarketRequest
	if err := DecodeAndValidateRequest(r, w, &req, "Create market"); err != nil {
		return
	}

	params := market.CreateParams{
		Question:          req.Question,
		Outcomes:          req.Outcomes,
		Token:             req.Token,
		EndTime:           req.EndTime,
		Oracle:            req.Oracle.toDomain(),
		ResolutionTimeout: time.Duration(req.ResolutionTimeoutSeconds) * time.Second,
		DisputeWindow:     time.Duration(req.DisputeWindowSeconds) * time.Second,
		MinPoolSize:       req.MinPoolSize,
		FeeRateBps:        req.FeeRateBps,
	}
	if req.BetDeadline != nil {
		params.BetDeadline = *req.BetDeadline
	}
	if req.FallbackOracle != nil {
		fallback := req.FallbackOracle.toDomain()
		params.FallbackOracle = &fallback
	}

	m, err := h.service.CreateMarket(r.Context(), req.Admin, params)
	if err != nil {
		respondServiceError(w, r, "Create market", err)
		return
	}

	respondJSON(w, http.StatusCreated, m)
}

type PlaceBetRequest struct {
	Bettor  string `json:"bettor" validate:"required"`
	Outcome string `json:"outcome" validate:"required"`
	Amount  int64  `json:"amount" validate:"required,gt=0"`
}

func (h *MarketHandler) HandlePlaceBet(w http.ResponseWriter, r *http.Request) {
	marketID, ok := marketIDParam(w, r)
	if !ok {
		return
	}

	var req PlaceBetRequest
	if err := DecodeAndValidateRequest(r, w, &req, "Place bet"); err != nil {
		return
	}

	if err := h.service.PlaceBet(r.Context(), marketID, req.Bettor, req.Outcome, req.Amount); err != nil {
		respondServiceError(w, r, "Place bet", err)
		return
	}

	respondJSON(w, http.StatusOK, SuccessResponse{Message: MsgBetPlacedSuccess})
}

type ResolveMarketRequest struct {
	Admin    string   `json:"admin" validate:"required"`
	Outcomes []string `json:"outcomes" validate:"required,min=1"`
}

func (h *MarketHandler) HandleResolveMarket(w http.ResponseWriter, r *http.Request) {
	marketID, ok := marketIDParam(w, r)
	if !ok {
		return
	}

	var req ResolveMarketRequest
	if err := DecodeAndValidateRequest(r, w, &req, "Resolve market"); err != nil {
		return
	}

	if err := h.service.ResolveManual(r.Context(), req.Admin, marketID, req.Outcomes); err != nil {
		respondServiceError(w, r, "Resolve market", err)
		return
	}

	respondJSON(w, http.StatusOK, SuccessResponse{Message: MsgMarketResolvedSuccess})
}

func (h *MarketHandler) HandleResolveMarketOracle(w http.ResponseWriter, r *http.Request) {
	marketID, ok := marketIDParam(w, r)
	if !ok {
		return
	}

	winning, err := h.service.ResolveOracle(r.Context(), marketID)
	if err != nil {
		respondServiceError(w, r, "Resolve market via oracle", err)
		return
	}

	respondJSON(w, http.StatusOK, DataResponse{
		Message: MsgMarketResolvedSuccess,
		Data:    map[string][]string{"winning_outcomes": winning},
	})
}

type CancelMarketRequest struct {
	Admin string `json:"admin" validate:"required"`
}

func (h *MarketHandler) HandleCancelMarket(w http.ResponseWriter, r *http.Request) {
	marketID, ok := marketIDParam(w, r)
	if !ok {
		return
	}

	var req CancelMarketRequest
	if err := DecodeAndValidateRequest(r, w, &req, "Cancel market"); err != nil {
		return
	}

	result, err := h.service.CancelMarket(r.Context(), req.Admin, marketID)
	if err != nil {
		respondServiceError(w, r, "Cancel market", err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

func (h *MarketHandler) HandleRetryRefunds(w http.ResponseWriter, r *http.Request) {
	marketID, ok := marketIDParam(w, r)
	if !ok {
		return
	}

	result, err := h.service.RetryRefunds(r.Context(), marketID)
	if err != nil {
		respondServiceError(w, r, "Retry refunds", err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

func (h *MarketHandler) HandleDistributePayouts(w http.ResponseWriter, r *http.Request) {
	marketID, ok := marketIDParam(w, r)
	if !ok {
		return
	}

	result, err := h.distributor.Distribute(r.Context(), marketID)
	if err != nil {
		respondServiceError(w, r, "Distribute payouts", err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

type RetryPayoutRequest struct {
	Bettor string `json:"bettor" validate:"required"`
}

func (h *MarketHandler) HandleRetryPayout(w http.ResponseWriter, r *http.Request) {
	marketID, ok := marketIDParam(w, r)
	if !ok {
		return
	}

	var req RetryPayoutRequest
	if err := DecodeAndValidateRequest(r, w, &req, "Retry payout"); err != nil {
		return
	}

	amount, err := h.distributor.RetryPayout(r.Context(), marketID, req.Bettor)
	if err != nil {
		respondServiceError(w, r, "Retry payout", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]int64{"amount": amount})
}

func (h *MarketHandler) HandleGetMarket(w http.ResponseWriter, r *http.Request) {
	marketID, ok := marketIDParam(w, r)
	if !ok {
		return
	}

	m, err := h.service.GetMarket(r.Context(), marketID)
	if err != nil {
		respondServiceError(w, r, "Get market", err)
		return
	}
	if m == nil {
		http.Error(w, ErrMsgMarketNotFoundHTTP, http.StatusNotFound)
		return
	}

	// Clients see the lifecycle state as of now, not the stored one
	snapshot := *m
	snapshot.State = m.EffectiveState(time.Now())
	respondJSON(w, http.StatusOK, &snapshot)
}

func (h *MarketHandler) HandleListMarkets(w http.ResponseWriter, r *http.Request) {
	state := GetOptionalQueryParam(r, "state", string(domain.MarketStateOpen))
	switch domain.MarketState(state) {
	case domain.MarketStateOpen, domain.MarketStateResolved,
		domain.MarketStateDistributed, domain.MarketStateCancelled:
	default:
		http.Error(w, ErrMsgInvalidMarketState, http.StatusBadRequest)
		return
	}

	markets, err := h.service.ListMarkets(r.Context(), domain.MarketState(state))
	if err != nil {
		respondServiceError(w, r, "List markets", err)
		return
	}

	respondJSON(w, http.StatusOK, DataResponse{Data: markets})
}

// marketIDParam extracts and parses the market ID query parameter
func marketIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	idStr, ok := GetQueryParam(r, w, "id")
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		http.Error(w, ErrMsgInvalidMarketID, http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}
