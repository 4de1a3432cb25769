package oracle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/predictify/predictify/internal/domain"
	"github.com/predictify/predictify/internal/logger"
)

// Adapter converts raw feed observations into a resolved outcome set for a
// market. Providers are registered by name; a market's OracleConfig selects
// which provider supplies its feed.
type Adapter struct {
	providers map[string]Client
}

// NewAdapter creates an Adapter over the given providers, keyed by the
// provider identity used in OracleConfig
func NewAdapter(providers map[string]Client) *Adapter {
	return &Adapter{providers: providers}
}

// Resolve produces the winning-outcome set for the market at instant now.
// The primary oracle is consulted first; the fallback (when configured) is
// consulted only once the resolution timeout has elapsed past end time
// without a primary value. When neither yields a value the market stays
// Ended and resolution requires a manual admin call.
func (a *Adapter) Resolve(ctx context.Context, market *domain.Market, now time.Time) ([]string, error) {
	if now.Before(market.EndTime) {
		return nil, fmt.Errorf("%w: market has not ended", domain.ErrDeadlineNotReached)
	}

	log := logger.FromContext(ctx)

	value, err := a.read(ctx, market.Oracle)
	if err == nil {
		return a.outcomes(market, market.Oracle, value)
	}
	if !errors.Is(err, domain.ErrOracleUnavailable) {
		return nil, err
	}

	log.Warn("Primary oracle yielded no value",
		"market_id", market.ID,
		"provider", market.Oracle.Provider,
		"feed_id", market.Oracle.FeedID)

	fallbackDue := !now.Before(market.EndTime.Add(market.ResolutionTimeout))
	if market.FallbackOracle == nil || !fallbackDue {
		return nil, fmt.Errorf("%w: primary feed %s", domain.ErrOracleUnavailable, market.Oracle.FeedID)
	}

	value, err = a.read(ctx, *market.FallbackOracle)
	if err != nil {
		if errors.Is(err, domain.ErrOracleUnavailable) {
			return nil, fmt.Errorf("%w: primary and fallback feeds", domain.ErrOracleUnavailable)
		}
		return nil, err
	}

	return a.outcomes(market, *market.FallbackOracle, value)
}

func (a *Adapter) read(ctx context.Context, cfg domain.OracleConfig) (int64, error) {
	client, ok := a.providers[cfg.Provider]
	if !ok {
		return 0, fmt.Errorf("%w: unknown provider %q", domain.ErrOracleUnavailable, cfg.Provider)
	}
	return client.Read(ctx, cfg.FeedID)
}

// outcomes maps a comparison result onto the market's outcome labels: a
// true comparison resolves to the first declared outcome, a false one to
// the second. The result is a set to match the plural winning-outcome
// field used throughout settlement.
func (a *Adapter) outcomes(market *domain.Market, cfg domain.OracleConfig, value int64) ([]string, error) {
	matched, err := compare(cfg.Comparison, value, cfg.Threshold)
	if err != nil {
		return nil, err
	}
	if matched {
		return []string{market.Outcomes[0]}, nil
	}
	return []string{market.Outcomes[1]}, nil
}

func compare(op domain.ComparisonOp, value, threshold int64) (bool, error) {
	switch op {
	case domain.ComparisonGreaterThan:
		return value > threshold, nil
	case domain.ComparisonLessThan:
		return value < threshold, nil
	case domain.ComparisonEqual:
		return value == threshold, nil
	default:
		return false, fmt.Errorf("unsupported comparison operator %q", op)
	}
}
