package vault

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/predictify/predictify/internal/auth"
	"github.com/predictify/predictify/internal/domain"
	"github.com/predictify/predictify/internal/token"
)

const testAdmin = "admin1"

func newTestService(marketRepo *MockMarketRepository, vaultRepo *MockVaultRepository, transferor *MockTransferor) Service {
	return NewService(marketRepo, vaultRepo, transferor, auth.NewAllowList([]string{testAdmin}), nil)
}

// resolvedMarket builds a Resolved market with fees still uncollected
func resolvedMarket() *domain.Market {
	resolvedAt := time.Now().Add(-time.Minute)
	return &domain.Market{
		ID:              uuid.New(),
		Outcomes:        []string{"yes", "no"},
		Token:           "USDC",
		EndTime:         time.Now().Add(-time.Hour),
		State:           domain.MarketStateResolved,
		WinningOutcomes: []string{"yes"},
		ResolvedAt:      &resolvedAt,
		DisputeWindow:   24 * time.Hour,
		FeeRateBps:      200,
		TotalPool:       20_000_000,
		OutcomePools:    map[string]int64{"yes": 8_000_000, "no": 12_000_000},
	}
}

func TestCollectFees_Success(t *testing.T) {
	marketRepo := new(MockMarketRepository)
	vaultRepo := new(MockVaultRepository)
	transferor := new(MockTransferor)
	s := newTestService(marketRepo, vaultRepo, transferor)
	ctx := context.Background()

	m := resolvedMarket()
	custody := token.MarketAccount(m.ID)

	marketRepo.On("GetMarket", ctx, m.ID).Return(m, nil)
	// 20_000_000 * 200 / 10_000
	marketRepo.On("MarkFeesCollected", ctx, m.ID, int64(400_000)).Return(int64(1), nil)
	transferor.On("Transfer", ctx, "USDC", custody, token.VaultAccount, int64(400_000)).Return(nil)
	vaultRepo.On("Credit", ctx, "USDC", int64(400_000)).Return(nil)

	fee, err := s.CollectFees(ctx, m.ID)

	assert.NoError(t, err)
	assert.Equal(t, int64(400_000), fee)
	marketRepo.AssertExpectations(t)
	vaultRepo.AssertExpectations(t)
	transferor.AssertExpectations(t)
}

func TestCollectFees_Idempotent(t *testing.T) {
	marketRepo := new(MockMarketRepository)
	s := newTestService(marketRepo, new(MockVaultRepository), new(MockTransferor))
	ctx := context.Background()

	m := resolvedMarket()
	m.FeesCollected = true
	m.FeeCollected = 400_000

	marketRepo.On("GetMarket", ctx, m.ID).Return(m, nil)

	_, err := s.CollectFees(ctx, m.ID)
	assert.ErrorIs(t, err, domain.ErrFeesAlreadyCollected)
	marketRepo.AssertNotCalled(t, "MarkFeesCollected", ctx, m.ID, int64(400_000))
}

func TestCollectFees_GuardLostRace(t *testing.T) {
	marketRepo := new(MockMarketRepository)
	transferor := new(MockTransferor)
	s := newTestService(marketRepo, new(MockVaultRepository), transferor)
	ctx := context.Background()

	m := resolvedMarket()
	custody := token.MarketAccount(m.ID)

	marketRepo.On("GetMarket", ctx, m.ID).Return(m, nil)
	transferor.On("Transfer", ctx, "USDC", custody, token.VaultAccount, int64(400_000)).Return(nil)
	marketRepo.On("MarkFeesCollected", ctx, m.ID, int64(400_000)).Return(int64(0), nil)
	// Losing the guard returns the tokens to custody
	transferor.On("Transfer", ctx, "USDC", token.VaultAccount, custody, int64(400_000)).Return(nil)

	_, err := s.CollectFees(ctx, m.ID)

	assert.ErrorIs(t, err, domain.ErrFeesAlreadyCollected)
	transferor.AssertExpectations(t)
}

func TestCollectFees_TransferFailureLeavesFeeCollectable(t *testing.T) {
	marketRepo := new(MockMarketRepository)
	vaultRepo := new(MockVaultRepository)
	transferor := new(MockTransferor)
	s := newTestService(marketRepo, vaultRepo, transferor)
	ctx := context.Background()

	m := resolvedMarket()
	custody := token.MarketAccount(m.ID)

	marketRepo.On("GetMarket", ctx, m.ID).Return(m, nil)
	transferor.On("Transfer", ctx, "USDC", custody, token.VaultAccount, int64(400_000)).
		Return(errors.New("ledger unavailable")).Once()

	_, err := s.CollectFees(ctx, m.ID)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrFeesAlreadyCollected)
	// The collected flag never flips, so a retry starts clean
	marketRepo.AssertNotCalled(t, "MarkFeesCollected", ctx, m.ID, int64(400_000))
	vaultRepo.AssertNotCalled(t, "Credit", ctx, "USDC", int64(400_000))

	transferor.On("Transfer", ctx, "USDC", custody, token.VaultAccount, int64(400_000)).Return(nil)
	marketRepo.On("MarkFeesCollected", ctx, m.ID, int64(400_000)).Return(int64(1), nil)
	vaultRepo.On("Credit", ctx, "USDC", int64(400_000)).Return(nil)

	fee, err := s.CollectFees(ctx, m.ID)
	assert.NoError(t, err)
	assert.Equal(t, int64(400_000), fee)
}

func TestCollectFees_LargePoolNoOverflow(t *testing.T) {
	marketRepo := new(MockMarketRepository)
	vaultRepo := new(MockVaultRepository)
	transferor := new(MockTransferor)
	s := newTestService(marketRepo, vaultRepo, transferor)
	ctx := context.Background()

	m := resolvedMarket()
	// pool * bps would overflow int64 without widening
	m.TotalPool = 5_000_000_000_000_000_000
	wantFee := int64(100_000_000_000_000_000)
	custody := token.MarketAccount(m.ID)

	marketRepo.On("GetMarket", ctx, m.ID).Return(m, nil)
	transferor.On("Transfer", ctx, "USDC", custody, token.VaultAccount, wantFee).Return(nil)
	marketRepo.On("MarkFeesCollected", ctx, m.ID, wantFee).Return(int64(1), nil)
	vaultRepo.On("Credit", ctx, "USDC", wantFee).Return(nil)

	fee, err := s.CollectFees(ctx, m.ID)

	assert.NoError(t, err)
	assert.Equal(t, wantFee, fee)
}

func TestCollectFees_BeforeResolution(t *testing.T) {
	marketRepo := new(MockMarketRepository)
	s := newTestService(marketRepo, new(MockVaultRepository), new(MockTransferor))
	ctx := context.Background()

	m := resolvedMarket()
	m.State = domain.MarketStateOpen
	m.EndTime = time.Now().Add(time.Hour)
	m.ResolvedAt = nil
	m.WinningOutcomes = nil

	marketRepo.On("GetMarket", ctx, m.ID).Return(m, nil)

	_, err := s.CollectFees(ctx, m.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidMarketState)
}

func TestCollectFees_ZeroRate(t *testing.T) {
	marketRepo := new(MockMarketRepository)
	vaultRepo := new(MockVaultRepository)
	transferor := new(MockTransferor)
	s := newTestService(marketRepo, vaultRepo, transferor)
	ctx := context.Background()

	m := resolvedMarket()
	m.FeeRateBps = 0

	marketRepo.On("GetMarket", ctx, m.ID).Return(m, nil)
	marketRepo.On("MarkFeesCollected", ctx, m.ID, int64(0)).Return(int64(1), nil)

	fee, err := s.CollectFees(ctx, m.ID)

	assert.NoError(t, err)
	assert.Equal(t, int64(0), fee)
	// No tokens move for a zero fee
	transferor.AssertNotCalled(t, "Transfer", ctx, "USDC", token.MarketAccount(m.ID), token.VaultAccount, int64(0))
}

func TestWithdraw_Success(t *testing.T) {
	vaultRepo := new(MockVaultRepository)
	transferor := new(MockTransferor)
	s := newTestService(new(MockMarketRepository), vaultRepo, transferor)
	ctx := context.Background()

	vaultRepo.On("Debit", ctx, "USDC", int64(300_000)).Return(nil)
	transferor.On("Transfer", ctx, "USDC", token.VaultAccount, testAdmin, int64(300_000)).Return(nil)

	err := s.Withdraw(ctx, testAdmin, "USDC", 300_000)

	assert.NoError(t, err)
	vaultRepo.AssertExpectations(t)
	transferor.AssertExpectations(t)
}

func TestWithdraw_Unauthorized(t *testing.T) {
	s := newTestService(new(MockMarketRepository), new(MockVaultRepository), new(MockTransferor))

	err := s.Withdraw(context.Background(), "rando", "USDC", 100)
	assert.ErrorIs(t, err, domain.ErrUnauthorizedCaller)
}

func TestWithdraw_InsufficientBalance(t *testing.T) {
	vaultRepo := new(MockVaultRepository)
	s := newTestService(new(MockMarketRepository), vaultRepo, new(MockTransferor))
	ctx := context.Background()

	vaultRepo.On("Debit", ctx, "USDC", int64(1_000_000)).
		Return(domain.ErrInsufficientVaultBalance)

	err := s.Withdraw(ctx, testAdmin, "USDC", 1_000_000)
	assert.ErrorIs(t, err, domain.ErrInsufficientVaultBalance)
}

func TestWithdraw_TransferFailureRestoresBalance(t *testing.T) {
	vaultRepo := new(MockVaultRepository)
	transferor := new(MockTransferor)
	s := newTestService(new(MockMarketRepository), vaultRepo, transferor)
	ctx := context.Background()

	vaultRepo.On("Debit", ctx, "USDC", int64(100)).Return(nil)
	transferor.On("Transfer", ctx, "USDC", token.VaultAccount, testAdmin, int64(100)).
		Return(errors.New("network error"))
	vaultRepo.On("Credit", ctx, "USDC", int64(100)).Return(nil)

	err := s.Withdraw(ctx, testAdmin, "USDC", 100)

	assert.Error(t, err)
	vaultRepo.AssertExpectations(t)
}

func TestBalance(t *testing.T) {
	vaultRepo := new(MockVaultRepository)
	s := newTestService(new(MockMarketRepository), vaultRepo, new(MockTransferor))
	ctx := context.Background()

	vaultRepo.On("Balance", ctx, "USDC").Return(int64(750_000), nil)

	balance, err := s.Balance(ctx, "USDC")

	assert.NoError(t, err)
	assert.Equal(t, int64(750_000), balance)
}
