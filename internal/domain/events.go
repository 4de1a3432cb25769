package domain

import "github.com/google/uuid"

// Event types published on the in-process bus
const (
	EventMarketCreated      = "market.created"
	EventBetPlaced          = "market.bet_placed"
	EventMarketResolved     = "market.resolved"
	EventMarketCancelled    = "market.cancelled"
	EventPayoutsDistributed = "market.payouts_distributed"
	EventFeesCollected      = "vault.fees_collected"
	EventFeesWithdrawn      = "vault.fees_withdrawn"
)

// BetPlacedPayload is the typed payload for bet events
type BetPlacedPayload struct {
	MarketID  uuid.UUID `json:"market_id"`
	Bettor    string    `json:"bettor"`
	Outcome   string    `json:"outcome"`
	Amount    int64     `json:"amount"`
	TotalPool int64     `json:"total_pool"`
	Timestamp int64     `json:"timestamp"`
}

// MarketResolvedPayload is the typed payload for resolution events
type MarketResolvedPayload struct {
	MarketID        uuid.UUID `json:"market_id"`
	WinningOutcomes []string  `json:"winning_outcomes"`
	ResolvedAt      int64     `json:"resolved_at"`
	Method          string    `json:"method"` // "manual" or "oracle"
}

// FeesWithdrawnPayload is the typed payload for vault withdrawal events
type FeesWithdrawnPayload struct {
	Admin  string `json:"admin"`
	Token  string `json:"token"`
	Amount int64  `json:"amount"`
}
