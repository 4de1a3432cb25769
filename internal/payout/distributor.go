package payout

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/predictify/predictify/internal/domain"
	"github.com/predictify/predictify/internal/event"
	"github.com/predictify/predictify/internal/logger"
	"github.com/predictify/predictify/internal/market"
	"github.com/predictify/predictify/internal/metrics"
	"github.com/predictify/predictify/internal/repository"
	"github.com/predictify/predictify/internal/token"
	"github.com/predictify/predictify/internal/vault"
)

// Distributor settles a resolved market: it skims the fee, pays every
// winning position its pro-rata share of the net pool, and sweeps the
// rounding remainder to the vault so fee + payouts + residual always
// equals the total pool.
type Distributor interface {
	// Distribute runs settlement once the dispute window has elapsed.
	// Calling it on an already-Distributed market returns an empty result
	// and no error.
	Distribute(ctx context.Context, marketID uuid.UUID) (*domain.DistributionResult, error)

	// RetryPayout re-attempts one recorded payout transfer failure
	RetryPayout(ctx context.Context, marketID uuid.UUID, bettor string) (int64, error)
}

type distributor struct {
	repo       repository.Market
	vaultSvc   vault.Service
	transferor token.Transferor
	eventBus   event.Bus
}

// NewDistributor creates a new payout distributor
func NewDistributor(repo repository.Market, vaultSvc vault.Service, transferor token.Transferor, eventBus event.Bus) Distributor {
	return &distributor{
		repo:       repo,
		vaultSvc:   vaultSvc,
		transferor: transferor,
		eventBus:   eventBus,
	}
}

func (d *distributor) Distribute(ctx context.Context, marketID uuid.UUID) (*domain.DistributionResult, error) {
	log := logger.FromContext(ctx)
	log.Info(LogMsgDistributeCalled, "market_id", marketID)

	m, err := d.repo.GetMarket(ctx, marketID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrContextFailedToGetMarket, err)
	}
	if m == nil {
		return nil, domain.ErrMarketNotFound
	}

	if m.State == domain.MarketStateDistributed {
		return &domain.DistributionResult{MarketID: m.ID}, nil
	}

	effective := m.EffectiveState(time.Now())
	if !market.CanTransition(effective, domain.MarketStateDistributed) {
		return nil, domain.NewInvalidStateError(OpDistribute, effective, domain.MarketStatePayoutReady)
	}

	// Fee comes off the top before any share is computed
	fee := m.FeeCollected
	if !m.FeesCollected {
		fee, err = d.vaultSvc.CollectFees(ctx, m.ID)
		if err != nil {
			if !errors.Is(err, domain.ErrFeesAlreadyCollected) {
				return nil, fmt.Errorf("%s: %w", ErrContextFeeCollectionFailed, err)
			}
			// Collected concurrently; re-read for the recorded amount
			fresh, gerr := d.repo.GetMarket(ctx, m.ID)
			if gerr != nil {
				return nil, fmt.Errorf("%s: %w", ErrContextFailedToGetMarket, gerr)
			}
			fee = fresh.FeeCollected
		}
	}

	// Positions are read before the state swap so a failed read leaves the
	// market Resolved and the distribution retryable
	winningStake := m.WinningStake()
	var positions []domain.Position
	if winningStake > 0 {
		positions, err = d.repo.GetPositions(ctx, m.ID)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", ErrContextFailedToGetPositions, err)
		}
	}

	rows, err := d.repo.UpdateMarketStateIfMatches(ctx, m.ID, domain.MarketStateResolved, domain.MarketStateDistributed)
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		// A concurrent call won the swap and owns the payout pass
		return &domain.DistributionResult{MarketID: m.ID}, nil
	}

	netPool := m.TotalPool - fee
	result := &domain.DistributionResult{
		MarketID: m.ID,
		NetPool:  netPool,
		Fee:      fee,
	}

	if winningStake == 0 {
		// Nobody backed a winning outcome; the whole net pool is residual
		log.Warn(LogMsgNoWinningStake, "market_id", m.ID, "net_pool", netPool)
		if err := d.vaultSvc.CreditResidual(ctx, m, netPool); err != nil {
			return result, fmt.Errorf("%s: %w", ErrContextResidualSweepFailed, err)
		}
		result.Residual = netPool
		d.finish(ctx, m, result)
		return result, nil
	}

	custody := token.MarketAccount(m.ID)
	var paid int64
	var allocated int64

	for _, pos := range positions {
		if pos.Stake <= 0 || !m.IsWinning(pos.Outcome) {
			continue
		}
		share := proRataShare(pos.Stake, netPool, winningStake)
		allocated += share
		if share == 0 {
			continue
		}

		entry := domain.PayoutEntry{Bettor: pos.Bettor, Amount: share}
		if terr := d.transferor.Transfer(ctx, m.Token, custody, pos.Bettor, share); terr != nil {
			// Record and carry on; one unreachable bettor must not block
			// the rest of the payouts
			log.Warn(LogMsgPayoutTransferFailed,
				"market_id", m.ID, "bettor", pos.Bettor, "amount", share, "error", terr)
			metrics.PayoutTransferFailures.Inc()
			entry.Failed = true
			entry.Error = terr.Error()
			if serr := d.repo.SavePayoutFailure(ctx, domain.PendingPayout{
				MarketID:  m.ID,
				Bettor:    pos.Bettor,
				Amount:    share,
				Reason:    terr.Error(),
				CreatedAt: time.Now(),
			}); serr != nil {
				log.Error("Failed to record payout failure", "market_id", m.ID, "bettor", pos.Bettor, "error", serr)
			}
		} else {
			paid += share
		}
		result.Payouts = append(result.Payouts, entry)
	}

	// Floor division leaves netPool - allocated unassigned; it goes to the
	// vault so the pool ledger closes at exactly zero
	residual := netPool - allocated
	if residual > 0 {
		if err := d.vaultSvc.CreditResidual(ctx, m, residual); err != nil {
			log.Error("Failed to sweep residual to vault", "market_id", m.ID, "residual", residual, "error", err)
		} else {
			result.Residual = residual
		}
	}

	result.TotalDistributed = paid
	if paid > 0 {
		if err := d.repo.AddDistributed(ctx, m.ID, paid); err != nil {
			log.Error("Failed to record distributed total", "market_id", m.ID, "error", err)
		}
	}

	d.finish(ctx, m, result)
	return result, nil
}

// RetryPayout replays one failed transfer from market custody. The amount
// was fixed at distribution time, so retries never recompute shares.
func (d *distributor) RetryPayout(ctx context.Context, marketID uuid.UUID, bettor string) (int64, error) {
	log := logger.FromContext(ctx)
	log.Info(LogMsgRetryPayoutCalled, "market_id", marketID, "bettor", bettor)

	m, err := d.repo.GetMarket(ctx, marketID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", ErrContextFailedToGetMarket, err)
	}
	if m == nil {
		return 0, domain.ErrMarketNotFound
	}
	if m.State != domain.MarketStateDistributed {
		return 0, domain.NewInvalidStateError(OpRetryPayout, m.State, domain.MarketStateDistributed)
	}

	failures, err := d.repo.ListPayoutFailures(ctx, m.ID)
	if err != nil {
		return 0, err
	}
	var pending *domain.PendingPayout
	for i := range failures {
		if failures[i].Bettor == bettor {
			pending = &failures[i]
			break
		}
	}
	if pending == nil {
		return 0, domain.ErrNothingToRetry
	}

	if err := d.transferor.Transfer(ctx, m.Token, token.MarketAccount(m.ID), bettor, pending.Amount); err != nil {
		return 0, fmt.Errorf("%s: %w", ErrContextPayoutTransferFailed, err)
	}

	rows, err := d.repo.DeletePayoutFailure(ctx, m.ID, bettor)
	if err != nil {
		return pending.Amount, err
	}
	if rows == 0 {
		// A concurrent retry already cleared it; the transfer above
		// double-paid and needs operator attention
		log.Error("Payout failure row vanished during retry", "market_id", m.ID, "bettor", bettor)
	}

	if err := d.repo.AddDistributed(ctx, m.ID, pending.Amount); err != nil {
		log.Error("Failed to record distributed total", "market_id", m.ID, "error", err)
	}

	metrics.PayoutsDistributed.WithLabelValues(m.Token).Add(float64(pending.Amount))
	return pending.Amount, nil
}

func (d *distributor) finish(ctx context.Context, m *domain.Market, result *domain.DistributionResult) {
	metrics.PayoutsDistributed.WithLabelValues(m.Token).Add(float64(result.TotalDistributed))
	if d.eventBus == nil {
		return
	}
	err := d.eventBus.Publish(ctx, event.Event{
		Version: event.EventSchemaVersion,
		Type:    event.Type(domain.EventPayoutsDistributed),
		Payload: result,
	})
	if err != nil {
		logger.FromContext(ctx).Error("Failed to publish event", "type", domain.EventPayoutsDistributed, "error", err)
	}
}

// proRataShare computes stake * netPool / winningStake with floor division,
// widened through big.Int so the intermediate product cannot overflow int64
func proRataShare(stake, netPool, winningStake int64) int64 {
	product := new(big.Int).Mul(big.NewInt(stake), big.NewInt(netPool))
	share := product.Quo(product, big.NewInt(winningStake))
	return share.Int64()
}
