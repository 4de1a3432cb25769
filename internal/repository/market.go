package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/predictify/predictify/internal/domain"
)

// Market defines the interface for data access required by the market,
// payout and vault services. Mutating operations embed their lifecycle
// guard in the same atomic statement or transaction so a check can never
// be split from its write by another call.
type Market interface {
	CreateMarket(ctx context.Context, market *domain.Market) error
	GetMarket(ctx context.Context, id uuid.UUID) (*domain.Market, error)
	ListMarketsByState(ctx context.Context, state domain.MarketState) ([]*domain.Market, error)

	// ApplyBet atomically increments the outcome pool, the bettor's
	// accumulated position and the total pool, guarded on state=Open and
	// now < bet_deadline. It must only be called after the stake transfer
	// into market custody has been confirmed.
	ApplyBet(ctx context.Context, id uuid.UUID, bettor, outcome string, amount int64, now time.Time) error

	// ApplyRefund zeroes a position and decrements the pools by its stake.
	// Called per position, after the refund transfer has been confirmed.
	ApplyRefund(ctx context.Context, id uuid.UUID, bettor, outcome string) error

	// UpdateMarketStateIfMatches performs a compare-and-swap on the stored
	// state, returning the number of rows affected (0 if state didn't match)
	UpdateMarketStateIfMatches(ctx context.Context, id uuid.UUID, expectedState, newState domain.MarketState) (int64, error)

	// RecordResolution CASes Open -> Resolved while setting the
	// winning-outcome set and resolution time in the same statement
	RecordResolution(ctx context.Context, id uuid.UUID, winning []string, resolvedAt time.Time) (int64, error)

	// MarkFeesCollected flips the fee flag and records the amount, guarded
	// on the flag being unset; returns rows affected (0 when already set)
	MarkFeesCollected(ctx context.Context, id uuid.UUID, fee int64) (int64, error)

	// AddDistributed accumulates the total amount paid out for the market
	AddDistributed(ctx context.Context, id uuid.UUID, amount int64) error

	GetPositions(ctx context.Context, id uuid.UUID) ([]domain.Position, error)

	// Retryable payout bookkeeping
	SavePayoutFailure(ctx context.Context, failure domain.PendingPayout) error
	ListPayoutFailures(ctx context.Context, id uuid.UUID) ([]domain.PendingPayout, error)
	DeletePayoutFailure(ctx context.Context, id uuid.UUID, bettor string) (int64, error)
}
