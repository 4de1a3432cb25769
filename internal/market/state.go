package market

import "github.com/predictify/predictify/internal/domain"

// transitions is the single authority for legal lifecycle moves. Derived
// states (Ended, PayoutReady) appear as sources because guard checks run
// against the effective state; Disputed is a pure time gate and never a
// stored transition target.
var transitions = map[domain.MarketState][]domain.MarketState{
	domain.MarketStateCreated:     {domain.MarketStateOpen},
	domain.MarketStateOpen:        {domain.MarketStateEnded, domain.MarketStateCancelled},
	domain.MarketStateEnded:       {domain.MarketStateResolved, domain.MarketStateCancelled},
	domain.MarketStateResolved:    {domain.MarketStateDisputed, domain.MarketStatePayoutReady},
	domain.MarketStateDisputed:    {domain.MarketStatePayoutReady},
	domain.MarketStatePayoutReady: {domain.MarketStateDistributed},
	domain.MarketStateDistributed: nil, // terminal
	domain.MarketStateCancelled:   nil, // terminal
}

// CanTransition reports whether the lifecycle permits moving from one
// effective state to another
func CanTransition(from, to domain.MarketState) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// requireState returns an InvalidStateError unless actual is one of want
func requireState(op string, actual domain.MarketState, want ...domain.MarketState) error {
	for _, w := range want {
		if actual == w {
			return nil
		}
	}
	return domain.NewInvalidStateError(op, actual, want...)
}
