package market

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/cases"

	"github.com/predictify/predictify/internal/auth"
	"github.com/predictify/predictify/internal/domain"
	"github.com/predictify/predictify/internal/event"
	"github.com/predictify/predictify/internal/logger"
	"github.com/predictify/predictify/internal/metrics"
	"github.com/predictify/predictify/internal/oracle"
	"github.com/predictify/predictify/internal/repository"
	"github.com/predictify/predictify/internal/token"
)

// Service defines the interface for market lifecycle operations
type Service interface {
	CreateMarket(ctx context.Context, admin string, params CreateParams) (*domain.Market, error)
	PlaceBet(ctx context.Context, marketID uuid.UUID, bettor, outcome string, amount int64) error
	ResolveManual(ctx context.Context, admin string, marketID uuid.UUID, outcomes []string) error
	ResolveOracle(ctx context.Context, marketID uuid.UUID) ([]string, error)
	CancelMarket(ctx context.Context, admin string, marketID uuid.UUID) (*domain.RefundResult, error)
	RetryRefunds(ctx context.Context, marketID uuid.UUID) (*domain.RefundResult, error)
	GetMarket(ctx context.Context, marketID uuid.UUID) (*domain.Market, error)
	ListMarkets(ctx context.Context, state domain.MarketState) ([]*domain.Market, error)
}

// CreateParams carries the caller-supplied fields of a new market
type CreateParams struct {
	Question          string
	Outcomes          []string
	Token             string
	EndTime           time.Time
	BetDeadline       time.Time // zero value defaults to EndTime
	Oracle            domain.OracleConfig
	FallbackOracle    *domain.OracleConfig
	ResolutionTimeout time.Duration
	DisputeWindow     time.Duration
	MinPoolSize       int64
	FeeRateBps        int64
}

type service struct {
	repo       repository.Market
	transferor token.Transferor
	authorizer auth.Authorizer
	adapter    *oracle.Adapter
	eventBus   event.Bus
	cache      *snapshotCache
	fold       cases.Caser
}

// NewService creates a new market service
func NewService(repo repository.Market, transferor token.Transferor, authorizer auth.Authorizer, adapter *oracle.Adapter, eventBus event.Bus) Service {
	return &service{
		repo:       repo,
		transferor: transferor,
		authorizer: authorizer,
		adapter:    adapter,
		eventBus:   eventBus,
		cache:      newSnapshotCache(SnapshotCacheSize, SnapshotCacheTTL),
		fold:       cases.Fold(),
	}
}

// CreateMarket validates the parameters and opens a new market. There is no
// separate activation step: a market is Open as soon as creation succeeds.
// The value token is bound immutably at creation for the market's lifetime.
func (s *service) CreateMarket(ctx context.Context, admin string, params CreateParams) (*domain.Market, error) {
	log := logger.FromContext(ctx)
	log.Info(LogMsgCreateMarketCalled, "admin", admin, "question", params.Question, "token", params.Token)

	if err := s.authorizer.RequireAdmin(admin); err != nil {
		return nil, err
	}
	if err := s.validateCreateParams(params); err != nil {
		return nil, err
	}

	betDeadline := params.BetDeadline
	if betDeadline.IsZero() {
		betDeadline = params.EndTime
	}

	market := &domain.Market{
		ID:                uuid.New(),
		Question:          params.Question,
		Outcomes:          params.Outcomes,
		Token:             params.Token,
		CreatedAt:         time.Now(),
		EndTime:           params.EndTime,
		BetDeadline:       betDeadline,
		Oracle:            params.Oracle,
		FallbackOracle:    params.FallbackOracle,
		ResolutionTimeout: params.ResolutionTimeout,
		DisputeWindow:     params.DisputeWindow,
		MinPoolSize:       params.MinPoolSize,
		FeeRateBps:        params.FeeRateBps,
		State:             domain.MarketStateOpen,
		OutcomePools:      make(map[string]int64, len(params.Outcomes)),
	}
	for _, o := range params.Outcomes {
		market.OutcomePools[o] = 0
	}

	if err := s.repo.CreateMarket(ctx, market); err != nil {
		return nil, fmt.Errorf("%s: %w", ErrContextFailedToCreateMarket, err)
	}

	metrics.MarketsCreated.WithLabelValues(market.Token).Inc()
	s.publish(ctx, domain.EventMarketCreated, market)

	return market, nil
}

// PlaceBet moves the stake into market custody and records it in the pool
// ledger. The ledger is only mutated after the transfer is confirmed; if
// the ledger write is refused the stake is returned to the bettor, so a
// failed bet never leaves partial state.
func (s *service) PlaceBet(ctx context.Context, marketID uuid.UUID, bettor, outcome string, amount int64) error {
	log := logger.FromContext(ctx)
	log.Info(LogMsgPlaceBetCalled, "market_id", marketID, "bettor", bettor, "outcome", outcome, "amount", amount)

	if amount <= 0 {
		return domain.ErrZeroAmount
	}

	market, err := s.getMarket(ctx, marketID)
	if err != nil {
		return err
	}

	now := time.Now()
	if err := requireState(OpPlaceBet, market.EffectiveState(now), domain.MarketStateOpen); err != nil {
		return err
	}
	if !now.Before(market.BetDeadline) {
		return fmt.Errorf("%w: bet deadline %s", domain.ErrDeadlinePassed, market.BetDeadline.Format(time.RFC3339))
	}

	label, err := s.matchOutcome(market, outcome)
	if err != nil {
		return err
	}

	custody := token.MarketAccount(market.ID)
	if err := s.transferor.Transfer(ctx, market.Token, bettor, custody, amount); err != nil {
		return fmt.Errorf("%s: %w", ErrContextTransferFailed, err)
	}

	if err := s.repo.ApplyBet(ctx, market.ID, bettor, label, amount, now); err != nil {
		// The stake is already in custody; send it back before failing
		if rerr := s.transferor.Transfer(ctx, market.Token, custody, bettor, amount); rerr != nil {
			log.Error(LogMsgBetCompensated, "market_id", market.ID, "bettor", bettor, "error", rerr)
		} else {
			log.Warn(LogMsgBetCompensated, "market_id", market.ID, "bettor", bettor)
		}
		return fmt.Errorf("%s: %w", ErrContextFailedToApplyBet, err)
	}

	s.cache.Invalidate(market.ID)
	metrics.BetsPlaced.WithLabelValues(market.Token).Inc()
	metrics.StakeAccepted.WithLabelValues(market.Token).Add(float64(amount))

	s.publish(ctx, domain.EventBetPlaced, domain.BetPlacedPayload{
		MarketID:  market.ID,
		Bettor:    bettor,
		Outcome:   label,
		Amount:    amount,
		TotalPool: market.TotalPool + amount,
		Timestamp: now.Unix(),
	})

	return nil
}

// ResolveManual records an admin-supplied winning-outcome set, bypassing
// the oracle entirely. Only legal once the market has ended and before any
// winning outcome has been recorded.
func (s *service) ResolveManual(ctx context.Context, admin string, marketID uuid.UUID, outcomes []string) error {
	log := logger.FromContext(ctx)
	log.Info(LogMsgResolveManualCalled, "admin", admin, "market_id", marketID, "outcomes", outcomes)

	if err := s.authorizer.RequireAdmin(admin); err != nil {
		return err
	}

	market, err := s.getMarket(ctx, marketID)
	if err != nil {
		return err
	}

	if len(outcomes) == 0 {
		return domain.ErrUnknownOutcome
	}
	winning := make([]string, 0, len(outcomes))
	seen := make(map[string]struct{}, len(outcomes))
	for _, o := range outcomes {
		label, err := s.matchOutcome(market, o)
		if err != nil {
			return err
		}
		if _, dup := seen[label]; dup {
			return fmt.Errorf("%w: %s", domain.ErrDuplicateOutcome, label)
		}
		seen[label] = struct{}{}
		winning = append(winning, label)
	}

	if err := s.resolve(ctx, market, winning, "manual"); err != nil {
		return err
	}
	return nil
}

// ResolveOracle resolves the market from its configured data feed(s)
func (s *service) ResolveOracle(ctx context.Context, marketID uuid.UUID) ([]string, error) {
	log := logger.FromContext(ctx)
	log.Info(LogMsgResolveOracleCalled, "market_id", marketID)

	market, err := s.getMarket(ctx, marketID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if err := s.checkResolvable(market, now); err != nil {
		return nil, err
	}

	winning, err := s.adapter.Resolve(ctx, market, now)
	if err != nil {
		return nil, err
	}

	if err := s.resolve(ctx, market, winning, "oracle"); err != nil {
		return nil, err
	}
	return winning, nil
}

func (s *service) resolve(ctx context.Context, market *domain.Market, winning []string, method string) error {
	now := time.Now()
	if err := s.checkResolvable(market, now); err != nil {
		return err
	}

	rows, err := s.repo.RecordResolution(ctx, market.ID, winning, now)
	if err != nil {
		return err
	}
	if rows == 0 {
		// Lost a cross-call race; report against the current stored state
		fresh, gerr := s.repo.GetMarket(ctx, market.ID)
		if gerr != nil {
			return fmt.Errorf("%s: %w", ErrContextFailedToGetMarket, gerr)
		}
		if len(fresh.WinningOutcomes) > 0 {
			return domain.ErrAlreadyResolved
		}
		return domain.NewInvalidStateError(OpResolve, fresh.EffectiveState(now), domain.MarketStateEnded)
	}

	s.cache.Invalidate(market.ID)
	metrics.MarketsResolved.WithLabelValues(method).Inc()
	s.publish(ctx, domain.EventMarketResolved, domain.MarketResolvedPayload{
		MarketID:        market.ID,
		WinningOutcomes: winning,
		ResolvedAt:      now.Unix(),
		Method:          method,
	})

	return nil
}

// checkResolvable enforces the Ended -> Resolved preconditions: the end
// time has passed, no winning outcome is recorded yet, and the pool has
// met its configured minimum (an under-minimum market stays Ended so it
// can still be cancelled and refunded).
func (s *service) checkResolvable(market *domain.Market, now time.Time) error {
	effective := market.EffectiveState(now)
	if effective == domain.MarketStateOpen {
		return fmt.Errorf("%w: market ends at %s", domain.ErrDeadlineNotReached, market.EndTime.Format(time.RFC3339))
	}
	if err := requireState(OpResolve, effective, domain.MarketStateEnded); err != nil {
		return err
	}
	if len(market.WinningOutcomes) > 0 {
		return domain.ErrAlreadyResolved
	}
	if market.TotalPool < market.MinPoolSize {
		return fmt.Errorf("%w: pool %d below minimum %d", domain.ErrBelowMinimumPool, market.TotalPool, market.MinPoolSize)
	}
	return nil
}

// CancelMarket cancels an Open or Ended market and refunds every recorded
// stake. Cancellation from Resolved onward is disallowed so already-decided
// payouts can never be clawed back. Individual refund transfer failures
// leave their position intact for RetryRefunds.
func (s *service) CancelMarket(ctx context.Context, admin string, marketID uuid.UUID) (*domain.RefundResult, error) {
	log := logger.FromContext(ctx)
	log.Info(LogMsgCancelMarketCalled, "admin", admin, "market_id", marketID)

	if err := s.authorizer.RequireAdmin(admin); err != nil {
		return nil, err
	}

	market, err := s.getMarket(ctx, marketID)
	if err != nil {
		return nil, err
	}

	effective := market.EffectiveState(time.Now())
	if !CanTransition(effective, domain.MarketStateCancelled) {
		return nil, domain.NewInvalidStateError(OpCancel, effective,
			domain.MarketStateOpen, domain.MarketStateEnded)
	}

	rows, err := s.repo.UpdateMarketStateIfMatches(ctx, market.ID, domain.MarketStateOpen, domain.MarketStateCancelled)
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		fresh, gerr := s.repo.GetMarket(ctx, market.ID)
		if gerr != nil {
			return nil, fmt.Errorf("%s: %w", ErrContextFailedToGetMarket, gerr)
		}
		return nil, domain.NewInvalidStateError(OpCancel, fresh.EffectiveState(time.Now()),
			domain.MarketStateOpen, domain.MarketStateEnded)
	}

	s.cache.Invalidate(market.ID)
	metrics.MarketsCancelled.Inc()
	s.publish(ctx, domain.EventMarketCancelled, market)

	return s.runRefunds(ctx, market)
}

// RetryRefunds re-attempts outstanding refund transfers on a cancelled market
func (s *service) RetryRefunds(ctx context.Context, marketID uuid.UUID) (*domain.RefundResult, error) {
	log := logger.FromContext(ctx)
	log.Info(LogMsgRetryRefundsCalled, "market_id", marketID)

	market, err := s.getMarket(ctx, marketID)
	if err != nil {
		return nil, err
	}
	if err := requireState(OpRetryRefunds, market.State, domain.MarketStateCancelled); err != nil {
		return nil, err
	}
	if market.TotalPool == 0 {
		return nil, domain.ErrNoRefundsOutstanding
	}

	return s.runRefunds(ctx, market)
}

// runRefunds returns each nonzero position's stake to its bettor, zeroing
// the ledger entry only after the transfer is confirmed. The market's
// total pool reaches zero only once every refund has succeeded.
func (s *service) runRefunds(ctx context.Context, market *domain.Market) (*domain.RefundResult, error) {
	log := logger.FromContext(ctx)

	positions, err := s.repo.GetPositions(ctx, market.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrContextFailedToGetPositions, err)
	}

	result := &domain.RefundResult{MarketID: market.ID}
	custody := token.MarketAccount(market.ID)

	for _, pos := range positions {
		if pos.Stake <= 0 {
			continue
		}
		if err := s.transferor.Transfer(ctx, market.Token, custody, pos.Bettor, pos.Stake); err != nil {
			log.Warn(LogMsgRefundTransferError,
				"market_id", market.ID, "bettor", pos.Bettor, "stake", pos.Stake, "error", err)
			result.Outstanding += pos.Stake
			result.Failures++
			continue
		}
		if err := s.repo.ApplyRefund(ctx, market.ID, pos.Bettor, pos.Outcome); err != nil {
			// Funds are back with the bettor but the ledger write failed;
			// surface the error so the operator reconciles before retrying
			return result, err
		}
		result.Refunded += pos.Stake
	}

	s.cache.Invalidate(market.ID)
	return result, nil
}

// GetMarket retrieves a market snapshot, served from a short-lived cache
func (s *service) GetMarket(ctx context.Context, marketID uuid.UUID) (*domain.Market, error) {
	if m, ok := s.cache.Get(marketID); ok {
		return m, nil
	}
	m, err := s.getMarket(ctx, marketID)
	if err != nil {
		return nil, err
	}
	s.cache.Set(m)
	return m, nil
}

// ListMarkets retrieves all markets in a given stored state
func (s *service) ListMarkets(ctx context.Context, state domain.MarketState) ([]*domain.Market, error) {
	markets, err := s.repo.ListMarketsByState(ctx, state)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrContextFailedToListMarkets, err)
	}
	return markets, nil
}

func (s *service) getMarket(ctx context.Context, marketID uuid.UUID) (*domain.Market, error) {
	market, err := s.repo.GetMarket(ctx, marketID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrContextFailedToGetMarket, err)
	}
	if market == nil {
		return nil, domain.ErrMarketNotFound
	}
	return market, nil
}

// matchOutcome resolves a caller-supplied label to the market's declared
// label, comparing case-folded forms
func (s *service) matchOutcome(market *domain.Market, outcome string) (string, error) {
	folded := s.fold.String(outcome)
	for _, o := range market.Outcomes {
		if s.fold.String(o) == folded {
			return o, nil
		}
	}
	return "", fmt.Errorf("%w: %s", domain.ErrUnknownOutcome, outcome)
}

func (s *service) validateCreateParams(params CreateParams) error {
	if len(params.Outcomes) < 2 {
		return domain.ErrTooFewOutcomes
	}
	seen := make(map[string]struct{}, len(params.Outcomes))
	for _, o := range params.Outcomes {
		folded := s.fold.String(o)
		if o == "" {
			return fmt.Errorf("%w: empty label", domain.ErrUnknownOutcome)
		}
		if _, dup := seen[folded]; dup {
			return fmt.Errorf("%w: %s", domain.ErrDuplicateOutcome, o)
		}
		seen[folded] = struct{}{}
	}

	now := time.Now()
	if !params.EndTime.After(now) {
		return fmt.Errorf("%w: end time must be in the future", domain.ErrInvalidTimeBounds)
	}
	if !params.BetDeadline.IsZero() && params.BetDeadline.After(params.EndTime) {
		return domain.ErrInvalidTimeBounds
	}
	if params.Token == "" {
		return fmt.Errorf("%w: value token is required", domain.ErrZeroAmount)
	}
	if params.FeeRateBps < 0 || params.FeeRateBps > BasisPointDenominator {
		return fmt.Errorf("fee rate %d out of range [0, %d]", params.FeeRateBps, BasisPointDenominator)
	}
	if params.MinPoolSize < 0 {
		return fmt.Errorf("%w: minimum pool size", domain.ErrZeroAmount)
	}
	if params.ResolutionTimeout < 0 || params.DisputeWindow < 0 {
		return fmt.Errorf("%w: negative duration", domain.ErrInvalidTimeBounds)
	}
	return nil
}

func (s *service) publish(ctx context.Context, eventType string, payload interface{}) {
	if s.eventBus == nil {
		return
	}
	err := s.eventBus.Publish(ctx, event.Event{
		Version: event.EventSchemaVersion,
		Type:    event.Type(eventType),
		Payload: payload,
	})
	if err != nil {
		logger.FromContext(ctx).Error("Failed to publish event", "type", eventType, "error", err)
	}
}
