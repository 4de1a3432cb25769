package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEffectiveState_OpenBecomesEnded(t *testing.T) {
	m := &Market{State: MarketStateOpen, EndTime: time.Now().Add(time.Hour)}

	assert.Equal(t, MarketStateOpen, m.EffectiveState(time.Now()))
	assert.Equal(t, MarketStateEnded, m.EffectiveState(m.EndTime))
	assert.Equal(t, MarketStateEnded, m.EffectiveState(m.EndTime.Add(time.Minute)))
}

func TestEffectiveState_ResolvedBecomesPayoutReady(t *testing.T) {
	resolvedAt := time.Now()
	m := &Market{
		State:         MarketStateResolved,
		ResolvedAt:    &resolvedAt,
		DisputeWindow: 24 * time.Hour,
	}

	assert.Equal(t, MarketStateResolved, m.EffectiveState(resolvedAt.Add(time.Second)))
	assert.Equal(t, MarketStateResolved, m.EffectiveState(resolvedAt.Add(24*time.Hour-time.Second)))
	assert.Equal(t, MarketStatePayoutReady, m.EffectiveState(resolvedAt.Add(24*time.Hour)))
	assert.Equal(t, MarketStatePayoutReady, m.EffectiveState(resolvedAt.Add(48*time.Hour)))
}

func TestEffectiveState_ZeroDisputeWindow(t *testing.T) {
	resolvedAt := time.Now()
	m := &Market{State: MarketStateResolved, ResolvedAt: &resolvedAt}

	// No dispute window means payouts unlock at the resolution instant
	assert.Equal(t, MarketStatePayoutReady, m.EffectiveState(resolvedAt))
}

func TestEffectiveState_TerminalStatesUnchanged(t *testing.T) {
	for _, state := range []MarketState{MarketStateDistributed, MarketStateCancelled} {
		m := &Market{State: state, EndTime: time.Now().Add(-time.Hour)}
		assert.Equal(t, state, m.EffectiveState(time.Now()))
	}
}

func TestWinningAndLosingStake(t *testing.T) {
	m := &Market{
		Outcomes:        []string{"yes", "no", "void"},
		WinningOutcomes: []string{"yes", "void"},
		TotalPool:       1000,
		OutcomePools:    map[string]int64{"yes": 500, "no": 300, "void": 200},
	}

	assert.Equal(t, int64(700), m.WinningStake())
	assert.Equal(t, int64(300), m.LosingStake())
	assert.True(t, m.IsWinning("yes"))
	assert.True(t, m.IsWinning("void"))
	assert.False(t, m.IsWinning("no"))
}

func TestInvalidStateError_MatchesSentinel(t *testing.T) {
	err := NewInvalidStateError("distribute_payouts", MarketStateResolved, MarketStatePayoutReady)

	assert.ErrorIs(t, err, ErrInvalidMarketState)
	assert.Contains(t, err.Error(), "distribute_payouts")
	assert.Contains(t, err.Error(), "PayoutReady")
	assert.Contains(t, err.Error(), "Resolved")
}
