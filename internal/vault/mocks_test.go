package vault

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/predictify/predictify/internal/domain"
)

// MockMarketRepository
type MockMarketRepository struct {
	mock.Mock
}

func (m *MockMarketRepository) CreateMarket(ctx context.Context, market *domain.Market) error {
	args := m.Called(ctx, market)
	return args.Error(0)
}

func (m *MockMarketRepository) GetMarket(ctx context.Context, id uuid.UUID) (*domain.Market, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Market), args.Error(1)
}

func (m *MockMarketRepository) ListMarketsByState(ctx context.Context, state domain.MarketState) ([]*domain.Market, error) {
	args := m.Called(ctx, state)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Market), args.Error(1)
}

func (m *MockMarketRepository) ApplyBet(ctx context.Context, id uuid.UUID, bettor, outcome string, amount int64, now time.Time) error {
	args := m.Called(ctx, id, bettor, outcome, amount, now)
	return args.Error(0)
}

func (m *MockMarketRepository) ApplyRefund(ctx context.Context, id uuid.UUID, bettor, outcome string) error {
	args := m.Called(ctx, id, bettor, outcome)
	return args.Error(0)
}

func (m *MockMarketRepository) UpdateMarketStateIfMatches(ctx context.Context, id uuid.UUID, expectedState, newState domain.MarketState) (int64, error) {
	args := m.Called(ctx, id, expectedState, newState)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockMarketRepository) RecordResolution(ctx context.Context, id uuid.UUID, winning []string, resolvedAt time.Time) (int64, error) {
	args := m.Called(ctx, id, winning, resolvedAt)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockMarketRepository) MarkFeesCollected(ctx context.Context, id uuid.UUID, fee int64) (int64, error) {
	args := m.Called(ctx, id, fee)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockMarketRepository) AddDistributed(ctx context.Context, id uuid.UUID, amount int64) error {
	args := m.Called(ctx, id, amount)
	return args.Error(0)
}

func (m *MockMarketRepository) GetPositions(ctx context.Context, id uuid.UUID) ([]domain.Position, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Position), args.Error(1)
}

func (m *MockMarketRepository) SavePayoutFailure(ctx context.Context, failure domain.PendingPayout) error {
	args := m.Called(ctx, failure)
	return args.Error(0)
}

func (m *MockMarketRepository) ListPayoutFailures(ctx context.Context, id uuid.UUID) ([]domain.PendingPayout, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.PendingPayout), args.Error(1)
}

func (m *MockMarketRepository) DeletePayoutFailure(ctx context.Context, id uuid.UUID, bettor string) (int64, error) {
	args := m.Called(ctx, id, bettor)
	return args.Get(0).(int64), args.Error(1)
}

// MockVaultRepository
type MockVaultRepository struct {
	mock.Mock
}

func (m *MockVaultRepository) Credit(ctx context.Context, token string, amount int64) error {
	args := m.Called(ctx, token, amount)
	return args.Error(0)
}

func (m *MockVaultRepository) Debit(ctx context.Context, token string, amount int64) error {
	args := m.Called(ctx, token, amount)
	return args.Error(0)
}

func (m *MockVaultRepository) Balance(ctx context.Context, token string) (int64, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(int64), args.Error(1)
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
