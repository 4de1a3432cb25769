package vault

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/predictify/predictify/internal/auth"
	"github.com/predictify/predictify/internal/domain"
	"github.com/predictify/predictify/internal/event"
	"github.com/predictify/predictify/internal/logger"
	"github.com/predictify/predictify/internal/market"
	"github.com/predictify/predictify/internal/metrics"
	"github.com/predictify/predictify/internal/repository"
	"github.com/predictify/predictify/internal/token"
)

// Service defines the interface for protocol fee custody. Fees are skimmed
// from resolved markets at the market's bound rate, accumulate per value
// token, and leave only through authorized withdrawals.
type Service interface {
	// CollectFees skims the market's fee into the vault. Idempotent per
	// market: a second call returns domain.ErrFeesAlreadyCollected.
	CollectFees(ctx context.Context, marketID uuid.UUID) (int64, error)

	// Withdraw moves collected fees out of the vault to the calling admin
	Withdraw(ctx context.Context, admin, tokenID string, amount int64) error

	Balance(ctx context.Context, tokenID string) (int64, error)

	// CreditResidual moves a settlement remainder from market custody into
	// the vault so the pool ledger stays conserved
	CreditResidual(ctx context.Context, m *domain.Market, amount int64) error
}

type service struct {
	marketRepo repository.Market
	vaultRepo  repository.Vault
	transferor token.Transferor
	authorizer auth.Authorizer
	eventBus   event.Bus
}

// NewService creates a new vault service
func NewService(marketRepo repository.Market, vaultRepo repository.Vault, transferor token.Transferor, authorizer auth.Authorizer, eventBus event.Bus) Service {
	return &service{
		marketRepo: marketRepo,
		vaultRepo:  vaultRepo,
		transferor: transferor,
		authorizer: authorizer,
		eventBus:   eventBus,
	}
}

// CollectFees computes fee = total_pool * fee_rate_bps / 10000 with floor
// division and moves it from market custody to the vault. The collected
// flag is flipped under a guard so the fee can only ever be taken once.
func (s *service) CollectFees(ctx context.Context, marketID uuid.UUID) (int64, error) {
	log := logger.FromContext(ctx)
	log.Info(LogMsgCollectFeesCalled, "market_id", marketID)

	m, err := s.marketRepo.GetMarket(ctx, marketID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", ErrContextFailedToGetMarket, err)
	}
	if m == nil {
		return 0, domain.ErrMarketNotFound
	}

	effective := m.EffectiveState(time.Now())
	switch effective {
	case domain.MarketStateResolved, domain.MarketStatePayoutReady, domain.MarketStateDistributed:
	default:
		return 0, domain.NewInvalidStateError(OpCollectFees, effective,
			domain.MarketStateResolved, domain.MarketStatePayoutReady, domain.MarketStateDistributed)
	}
	if m.FeesCollected {
		return 0, domain.ErrFeesAlreadyCollected
	}

	fee := feeAmount(m.TotalPool, m.FeeRateBps)
	custody := token.MarketAccount(m.ID)

	// Tokens move before the collected flag flips; a failed transfer must
	// leave the market retryable
	if fee > 0 {
		if err := s.transferor.Transfer(ctx, m.Token, custody, token.VaultAccount, fee); err != nil {
			return 0, fmt.Errorf("%s: %w", ErrContextFeeTransferFailed, err)
		}
	}

	rows, err := s.marketRepo.MarkFeesCollected(ctx, m.ID, fee)
	if err != nil || rows == 0 {
		// The flag stayed down, so return the tokens to custody
		if fee > 0 {
			if terr := s.transferor.Transfer(ctx, m.Token, token.VaultAccount, custody, fee); terr != nil {
				log.Error(LogMsgFeeReturnFailed, "market_id", m.ID, "token", m.Token, "fee", fee, "error", terr)
			}
		}
		if err != nil {
			return 0, err
		}
		return 0, domain.ErrFeesAlreadyCollected
	}

	if fee > 0 {
		if err := s.vaultRepo.Credit(ctx, m.Token, fee); err != nil {
			// Tokens sit in the vault account either way; the balance row
			// needs manual reconciliation before withdrawal
			log.Error(LogMsgFeeCreditFailed, "market_id", m.ID, "token", m.Token, "fee", fee, "error", err)
			return fee, fmt.Errorf("%s: %w", ErrContextFailedToCreditVault, err)
		}
	}

	metrics.FeesCollected.WithLabelValues(m.Token).Add(float64(fee))
	s.publish(ctx, domain.EventFeesCollected, map[string]interface{}{
		"market_id": m.ID,
		"token":     m.Token,
		"fee":       fee,
	})

	return fee, nil
}

// Withdraw debits the vault balance first; the guarded debit is what
// prevents overdraw, the transfer then settles the tokens
func (s *service) Withdraw(ctx context.Context, admin, tokenID string, amount int64) error {
	log := logger.FromContext(ctx)
	log.Info(LogMsgWithdrawCalled, "admin", admin, "token", tokenID, "amount", amount)

	if err := s.authorizer.RequireAdmin(admin); err != nil {
		return err
	}
	if amount <= 0 {
		return domain.ErrZeroAmount
	}

	if err := s.vaultRepo.Debit(ctx, tokenID, amount); err != nil {
		return err
	}

	if err := s.transferor.Transfer(ctx, tokenID, token.VaultAccount, admin, amount); err != nil {
		// Restore the balance row so the vault still matches its holdings
		if cerr := s.vaultRepo.Credit(ctx, tokenID, amount); cerr != nil {
			log.Error("Failed to restore vault balance after withdrawal transfer error",
				"token", tokenID, "amount", amount, "error", cerr)
		}
		return fmt.Errorf("%s: %w", ErrContextWithdrawalFailed, err)
	}

	metrics.FeesWithdrawn.WithLabelValues(tokenID).Add(float64(amount))
	s.publish(ctx, domain.EventFeesWithdrawn, domain.FeesWithdrawnPayload{
		Admin:  admin,
		Token:  tokenID,
		Amount: amount,
	})

	return nil
}

// Balance returns the unwithdrawn fee balance for a value token
func (s *service) Balance(ctx context.Context, tokenID string) (int64, error) {
	balance, err := s.vaultRepo.Balance(ctx, tokenID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", ErrContextFailedToReadBalance, err)
	}
	return balance, nil
}

// CreditResidual absorbs a rounding or unclaimable remainder into the vault
func (s *service) CreditResidual(ctx context.Context, m *domain.Market, amount int64) error {
	if amount <= 0 {
		return nil
	}
	if err := s.transferor.Transfer(ctx, m.Token, token.MarketAccount(m.ID), token.VaultAccount, amount); err != nil {
		return fmt.Errorf("%s: %w", ErrContextFeeTransferFailed, err)
	}
	if err := s.vaultRepo.Credit(ctx, m.Token, amount); err != nil {
		return fmt.Errorf("%s: %w", ErrContextFailedToCreditVault, err)
	}
	return nil
}

// feeAmount computes totalPool * feeRateBps / 10000 with floor division,
// widened through big.Int so the intermediate product cannot overflow int64
func feeAmount(totalPool, feeRateBps int64) int64 {
	product := new(big.Int).Mul(big.NewInt(totalPool), big.NewInt(feeRateBps))
	fee := product.Quo(product, big.NewInt(market.BasisPointDenominator))
	return fee.Int64()
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
