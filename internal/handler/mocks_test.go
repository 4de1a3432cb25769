package handler

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/predictify/predictify/internal/domain"
	"github.com/predictify/predictify/internal/market"
)

// MockMarketService
type MockMarketService struct {
	mock.Mock
}

func (m *MockMarketService) CreateMarket(ctx context.Context, admin string, params market.CreateParams) (*domain.Market, error) {
	args := m.Called(ctx, admin, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Market), args.Error(1)
}

func (m *MockMarketService) PlaceBet(ctx context.Context, marketID uuid.UUID, bettor, outcome string, amount int64) error {
	args := m.Called(ctx, marketID, bettor, outcome, amount)
	return args.Error(0)
}

func (m *MockMarketService) ResolveManual(ctx context.Context, admin string, marketID uuid.UUID, outcomes []string) error {
	args := m.Called(ctx, admin, marketID, outcomes)
	return args.Error(0)
}

func (m *MockMarketService) ResolveOracle(ctx context.Context, marketID uuid.UUID) ([]string, error) {
	args := m.Called(ctx, marketID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockMarketService) CancelMarket(ctx context.Context, admin string, marketID uuid.UUID) (*domain.RefundResult, error) {
	args := m.Called(ctx, admin, marketID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RefundResult), args.Error(1)
}

func (m *MockMarketService) RetryRefunds(ctx context.Context, marketID uuid.UUID) (*domain.RefundResult, error) {
	args := m.Called(ctx, marketID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RefundResult), args.Error(1)
}

func (m *MockMarketService) GetMarket(ctx context.Context, marketID uuid.UUID) (*domain.Market, error) {
	args := m.Called(ctx, marketID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Market), args.Error(1)
}

func (m *MockMarketService) ListMarkets(ctx context.Context, state domain.MarketState) ([]*domain.Market, error) {
	args := m.Called(ctx, state)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Market), args.Error(1)
}

// MockDistributor
type MockDistributor struct {
	mock.Mock
}

func (m *MockDistributor) Distribute(ctx context.Context, marketID uuid.UUID) (*domain.DistributionResult, error) {
	args := m.Called(ctx, marketID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DistributionResult), args.Error(1)
}

func (m *MockDistributor) RetryPayout(ctx context.Context, marketID uuid.UUID, bettor string) (int64, error) {
	args := m.Called(ctx, marketID, bettor)
	return args.Get(0).(int64), args.Error(1)
}
