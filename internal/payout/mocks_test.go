package payout

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/predictify/predictify/internal/domain"
)

// MockRepository
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) CreateMarket(ctx context.Context, market *domain.Market) error {
	args := m.Called(ctx, market)
	return args.Error(0)
}

func (m *MockRepository) GetMarket(ctx context.Context, id uuid.UUID) (*domain.Market, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Market), args.Error(1)
}

func (m *MockRepository) ListMarketsByState(ctx context.Context, state domain.MarketState) ([]*domain.Market, error) {
	args := m.Called(ctx, state)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Market), args.Error(1)
}

func (m *MockRepository) ApplyBet(ctx context.Context, id uuid.UUID, bettor, outcome string, amount int64, now time.Time) error {
	args := m.Called(ctx, id, bettor, outcome, amount, now)
	return args.Error(0)
}

func (m *MockRepository) ApplyRefund(ctx context.Context, id uuid.UUID, bettor, outcome string) error {
	args := m.Called(ctx, id, bettor, outcome)
	return args.Error(0)
}

func (m *MockRepository) UpdateMarketStateIfMatches(ctx context.Context, id uuid.UUID, expectedState, newState domain.MarketState) (int64, error) {
	args := m.Called(ctx, id, expectedState, newState)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRepository) RecordResolution(ctx context.Context, id uuid.UUID, winning []string, resolvedAt time.Time) (int64, error) {
	args := m.Called(ctx, id, winning, resolvedAt)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRepository) MarkFeesCollected(ctx context.Context, id uuid.UUID, fee int64) (int64, error) {
	args := m.Called(ctx, id, fee)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRepository) AddDistributed(ctx context.Context, id uuid.UUID, amount int64) error {
	args := m.Called(ctx, id, amount)
	return args.Error(0)
}

func (m *MockRepository) GetPositions(ctx context.Context, id uuid.UUID) ([]domain.Position, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Position), args.Error(1)
}

func (m *MockRepository) SavePayoutFailure(ctx context.Context, failure domain.PendingPayout) error {
	args := m.Called(ctx, failure)
	return args.Error(0)
}

func (m *MockRepository) ListPayoutFailures(ctx context.Context, id uuid.UUID) ([]domain.PendingPayout, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.PendingPayout), args.Error(1)
}

func (m *MockRepository) DeletePayoutFailure(ctx context.Context, id uuid.UUID, bettor string) (int64, error) {
	args := m.Called(ctx, id, bettor)
	return args.Get(0).(int64), args.Error(1)
}

// MockVaultService
type MockVaultService struct {
	mock.Mock
}

func (m *MockVaultService) CollectFees(ctx context.Context, marketID uuid.UUID) (int64, error) {
	args := m.Called(ctx, marketID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockVaultService) Withdraw(ctx context.Context, admin, tokenID string, amount int64) error {
	args := m.Called(ctx, admin, tokenID, amount)
	return args.Error(0)
}

func (m *MockVaultService) Balance(ctx context.Context, tokenID string) (int64, error) {
	args := m.Called(ctx, tokenID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockVaultService) CreditResidual(ctx context.Context, market *domain.Market, amount int64) error {
	args := m.Called(ctx, market, amount)
	return args.Error(0)
}

// MockTransferor
type MockTransferor struct {
	mock.Mock
}

func (m *MockTransferor) Transfer(ctx context.Context, token, from, to string, amount int64) error {
	args := m.Called(ctx, token, from, to, amount)
	return args.Error(0)
}

func (m *MockTransferor) BalanceOf(ctx context.Context, token, account string) (int64, error) {
	args := m.Called(ctx, token, account)
	return args.Get(0).(int64), args.Error(1)
}
