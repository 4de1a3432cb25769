package domain

import (
	"time"

	"github.com/google/uuid"
)

// MarketState represents the current lifecycle state of a market
type MarketState string

const (
	MarketStateCreated     MarketState = "Created"
	MarketStateOpen        MarketState = "Open"
	MarketStateEnded       MarketState = "Ended"
	MarketStateResolved    MarketState = "Resolved"
	MarketStateDisputed    MarketState = "Disputed"
	MarketStatePayoutReady MarketState = "PayoutReady"
	MarketStateDistributed MarketState = "Distributed"
	MarketStateCancelled   MarketState = "Cancelled"
)

// ComparisonOp is the operator an oracle observation is compared with
type ComparisonOp string

const (
	ComparisonGreaterThan ComparisonOp = "gt"
	ComparisonLessThan    ComparisonOp = "lt"
	ComparisonEqual       ComparisonOp = "eq"
)

// OracleConfig describes how a raw feed observation maps to a resolution
type OracleConfig struct {
	Provider   string       `json:"provider"`
	FeedID     string       `json:"feed_id"`
	Comparison ComparisonOp `json:"comparison"`
	Threshold  int64        `json:"threshold"`
	Address    string       `json:"address,omitempty"` // optional on-chain oracle address
}

// Market represents a single prediction market with a pooled-stake
// settlement cycle. Ended, Disputed and PayoutReady are derived states:
// storage only ever holds Open, Resolved, Distributed or Cancelled.
type Market struct {
	ID                uuid.UUID        `json:"id"`
	Question          string           `json:"question"`
	Outcomes          []string         `json:"outcomes"`
	Token             string           `json:"token"` // value token, immutable for the market's lifetime
	CreatedAt         time.Time        `json:"created_at"`
	EndTime           time.Time        `json:"end_time"`
	BetDeadline       time.Time        `json:"bet_deadline"`
	Oracle            OracleConfig     `json:"oracle"`
	FallbackOracle    *OracleConfig    `json:"fallback_oracle,omitempty"`
	ResolutionTimeout time.Duration    `json:"resolution_timeout"`
	DisputeWindow     time.Duration    `json:"dispute_window"`
	MinPoolSize       int64            `json:"min_pool_size"`
	FeeRateBps        int64            `json:"fee_rate_bps"`
	State             MarketState      `json:"state"`
	WinningOutcomes   []string         `json:"winning_outcomes,omitempty"`
	ResolvedAt        *time.Time       `json:"resolved_at,omitempty"`
	TotalPool         int64            `json:"total_pool"`
	OutcomePools      map[string]int64 `json:"outcome_pools"`
	FeeCollected      int64            `json:"fee_collected"`
	FeesCollected     bool             `json:"fees_collected"`
	Distributed       int64            `json:"distributed"`
}

// EffectiveState derives the lifecycle state visible at a given instant.
// Open becomes Ended once end_time passes; Resolved becomes PayoutReady
// once the dispute window has elapsed.
func (m *Market) EffectiveState(now time.Time) MarketState {
	switch m.State {
	case MarketStateOpen:
		if !now.Before(m.EndTime) {
			return MarketStateEnded
		}
		return MarketStateOpen
	case MarketStateResolved:
		if m.ResolvedAt != nil && !now.Before(m.ResolvedAt.Add(m.DisputeWindow)) {
			return MarketStatePayoutReady
		}
		return MarketStateResolved
	default:
		return m.State
	}
}

// HasOutcome reports whether label is one of the market's declared outcomes
func (m *Market) HasOutcome(label string) bool {
	for _, o := range m.Outcomes {
		if o == label {
			return true
		}
	}
	return false
}

// IsWinning reports whether label is in the winning-outcome set
func (m *Market) IsWinning(label string) bool {
	for _, o := range m.WinningOutcomes {
		if o == label {
			return true
		}
	}
	return false
}

// WinningStake sums the outcome pools over the winning-outcome set
func (m *Market) WinningStake() int64 {
	var total int64
	for _, o := range m.WinningOutcomes {
		total += m.OutcomePools[o]
	}
	return total
}

// LosingStake sums the outcome pools outside the winning-outcome set
func (m *Market) LosingStake() int64 {
	return m.TotalPool - m.WinningStake()
}

// Position is a bettor's accumulated stake on one outcome of one market.
// Repeated bets by the same bettor on the same outcome accumulate here
// rather than forming unbounded bet records.
type Position struct {
	MarketID  uuid.UUID `json:"market_id"`
	Bettor    string    `json:"bettor"`
	Outcome   string    `json:"outcome"`
	Stake     int64     `json:"stake"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PendingPayout is a payout transfer that failed during distribution and
// is retryable by an explicit caller action
type PendingPayout struct {
	MarketID  uuid.UUID `json:"market_id"`
	Bettor    string    `json:"bettor"`
	Amount    int64     `json:"amount"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"created_at"`
}

// PayoutEntry is the per-bettor line of a distribution result
type PayoutEntry struct {
	Bettor string `json:"bettor"`
	Amount int64  `json:"amount"`
	Failed bool   `json:"failed,omitempty"`
	Error  string `json:"error,omitempty"`
}

// DistributionResult is the aggregate outcome of distribute_payouts
type DistributionResult struct {
	MarketID         uuid.UUID     `json:"market_id"`
	NetPool          int64         `json:"net_pool"`
	Fee              int64         `json:"fee"`
	Residual         int64         `json:"residual"`
	TotalDistributed int64         `json:"total_distributed"`
	Payouts          []PayoutEntry `json:"payouts,omitempty"`
}

// RefundResult is the aggregate outcome of a cancellation refund pass
type RefundResult struct {
	MarketID    uuid.UUID `json:"market_id"`
	Refunded    int64     `json:"refunded"`
	Outstanding int64     `json:"outstanding"`
	Failures    int       `json:"failures"`
}
