package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/predictify/predictify/internal/domain"
)

// MarketRepository implements the market repository for PostgreSQL
type MarketRepository struct {
	db *pgxpool.Pool
}

// NewMarketRepository creates a new MarketRepository
func NewMarketRepository(db *pgxpool.Pool) *MarketRepository {
	return &MarketRepository{db: db}
}

const marketColumns = `id, question, outcomes, token, created_at, end_time, bet_deadline,
	oracle, fallback_oracle, resolution_timeout_seconds, dispute_window_seconds,
	min_pool_size, fee_rate_bps, state, winning_outcomes, resolved_at,
	total_pool, fee_collected, fees_collected, distributed`

// CreateMarket inserts a new market row plus a zeroed pool row per outcome
func (r *MarketRepository) CreateMarket(ctx context.Context, m *domain.Market) error {
	oracleJSON, err := json.Marshal(m.Oracle)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToCreateMarket, err)
	}
	var fallbackJSON []byte
	if m.FallbackOracle != nil {
		fallbackJSON, err = json.Marshal(m.FallbackOracle)
		if err != nil {
			return fmt.Errorf("%s: %w", ErrMsgFailedToCreateMarket, err)
		}
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToBeginTx, err)
	}
	defer rollback(ctx, tx)

	_, err = tx.Exec(ctx, `
		INSERT INTO markets (`+marketColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`,
		m.ID, m.Question, m.Outcomes, m.Token, m.CreatedAt, m.EndTime, m.BetDeadline,
		oracleJSON, fallbackJSON,
		int64(m.ResolutionTimeout/time.Second), int64(m.DisputeWindow/time.Second),
		m.MinPoolSize, m.FeeRateBps, string(m.State), m.WinningOutcomes, m.ResolvedAt,
		m.TotalPool, m.FeeCollected, m.FeesCollected, m.Distributed,
	)
	if err != nil {
		if pgErr, ok := err.(*pgconn.PgError); ok && pgErr.Code == pgUniqueViolation {
			return fmt.Errorf("%s: duplicate market id %s", ErrMsgFailedToCreateMarket, m.ID)
		}
		return fmt.Errorf("%s: %w", ErrMsgFailedToCreateMarket, err)
	}

	for _, outcome := range m.Outcomes {
		if _, err := tx.Exec(ctx,
			`INSERT INTO market_pools (market_id, outcome, amount) VALUES ($1, $2, 0)`,
			m.ID, outcome); err != nil {
			return fmt.Errorf("%s: %w", ErrMsgFailedToCreateMarket, err)
		}
	}

	return tx.Commit(ctx)
}

// GetMarket retrieves a market by ID, including its outcome pools.
// Returns nil, nil when no row exists.
func (r *MarketRepository) GetMarket(ctx context.Context, id uuid.UUID) (*domain.Market, error) {
	row := r.db.QueryRow(ctx, `SELECT `+marketColumns+` FROM markets WHERE id = $1`, id)
	m, err := scanMarket(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToGetMarket, err)
	}

	rows, err := r.db.Query(ctx,
		`SELECT outcome, amount FROM market_pools WHERE market_id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToGetMarket, err)
	}
	defer rows.Close()

	m.OutcomePools = make(map[string]int64, len(m.Outcomes))
	for rows.Next() {
		var outcome string
		var amount int64
		if err := rows.Scan(&outcome, &amount); err != nil {
			return nil, fmt.Errorf("%s: %w", ErrMsgFailedToGetMarket, err)
		}
		m.OutcomePools[outcome] = amount
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToGetMarket, err)
	}

	return m, nil
}

// ListMarketsByState retrieves all markets in a given stored state, without
// their pool breakdowns
func (r *MarketRepository) ListMarketsByState(ctx context.Context, state domain.MarketState) ([]*domain.Market, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+marketColumns+` FROM markets WHERE state = $1 ORDER BY created_at`, string(state))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToListMarkets, err)
	}
	defer rows.Close()

	var markets []*domain.Market
	for rows.Next() {
		m, err := scanMarket(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", ErrMsgFailedToListMarkets, err)
		}
		markets = append(markets, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToListMarkets, err)
	}
	return markets, nil
}

// ApplyBet atomically records a confirmed stake. The state and deadline
// guard lives in the markets UPDATE itself so a concurrent resolution or
// cancellation can never race past the check.
func (r *MarketRepository) ApplyBet(ctx context.Context, id uuid.UUID, bettor, outcome string, amount int64, now time.Time) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToBeginTx, err)
	}
	defer rollback(ctx, tx)

	tag, err := tx.Exec(ctx, `
		UPDATE markets SET total_pool = total_pool + $2
		WHERE id = $1 AND state = $3 AND bet_deadline > $4`,
		id, amount, string(domain.MarketStateOpen), now)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToApplyBet, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", ErrMsgFailedToApplyBet, domain.ErrInvalidMarketState)
	}

	if _, err := tx.Exec(ctx, `
		UPDATE market_pools SET amount = amount + $3
		WHERE market_id = $1 AND outcome = $2`,
		id, outcome, amount); err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToApplyBet, err)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO positions (market_id, bettor, outcome, stake, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (market_id, bettor, outcome)
		DO UPDATE SET stake = positions.stake + $4, updated_at = $5`,
		id, bettor, outcome, amount, now); err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToApplyBet, err)
	}

	return tx.Commit(ctx)
}

// ApplyRefund zeroes one position and backs its stake out of the pools
func (r *MarketRepository) ApplyRefund(ctx context.Context, id uuid.UUID, bettor, outcome string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToBeginTx, err)
	}
	defer rollback(ctx, tx)

	var stake int64
	err = tx.QueryRow(ctx, `
		SELECT stake FROM positions
		WHERE market_id = $1 AND bettor = $2 AND outcome = $3 FOR UPDATE`,
		id, bettor, outcome).Scan(&stake)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%s: %w", ErrMsgFailedToApplyRefund, domain.ErrNoRefundsOutstanding)
		}
		return fmt.Errorf("%s: %w", ErrMsgFailedToApplyRefund, err)
	}
	if stake == 0 {
		return tx.Commit(ctx)
	}

	if _, err := tx.Exec(ctx, `
		UPDATE positions SET stake = 0, updated_at = $4
		WHERE market_id = $1 AND bettor = $2 AND outcome = $3`,
		id, bettor, outcome, time.Now()); err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToApplyRefund, err)
	}
	if _, err := tx.Exec(ctx, `
		UPDATE market_pools SET amount = amount - $3
		WHERE market_id = $1 AND outcome = $2`,
		id, outcome, stake); err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToApplyRefund, err)
	}
	if _, err := tx.Exec(ctx, `
		UPDATE markets SET total_pool = total_pool - $2 WHERE id = $1`,
		id, stake); err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToApplyRefund, err)
	}

	return tx.Commit(ctx)
}

// UpdateMarketStateIfMatches performs a compare-and-swap operation on market state.
// Returns the number of rows affected (0 if state didn't match, 1 if updated).
func (r *MarketRepository) UpdateMarketStateIfMatches(ctx context.Context, id uuid.UUID, expectedState, newState domain.MarketState) (int64, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE markets SET state = $3 WHERE id = $1 AND state = $2`,
		id, string(expectedState), string(newState))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", ErrMsgFailedToUpdateState, err)
	}
	return tag.RowsAffected(), nil
}

// RecordResolution swaps Open -> Resolved while writing the winning-outcome
// set and resolution time in the same statement, guarded on the end time
// having passed and no prior resolution
func (r *MarketRepository) RecordResolution(ctx context.Context, id uuid.UUID, winning []string, resolvedAt time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE markets SET state = $4, winning_outcomes = $2, resolved_at = $3
		WHERE id = $1 AND state = $5 AND end_time <= $3 AND winning_outcomes IS NULL`,
		id, winning, resolvedAt, string(domain.MarketStateResolved), string(domain.MarketStateOpen))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", ErrMsgFailedToRecordResolve, err)
	}
	return tag.RowsAffected(), nil
}

// MarkFeesCollected flips the fee flag and records the amount, guarded on
// the flag being unset
func (r *MarketRepository) MarkFeesCollected(ctx context.Context, id uuid.UUID, fee int64) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE markets SET fees_collected = TRUE, fee_collected = $2
		WHERE id = $1 AND fees_collected = FALSE`,
		id, fee)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", ErrMsgFailedToMarkFees, err)
	}
	return tag.RowsAffected(), nil
}

// AddDistributed accumulates the total paid out for a market
func (r *MarketRepository) AddDistributed(ctx context.Context, id uuid.UUID, amount int64) error {
	_, err := r.db.Exec(ctx,
		`UPDATE markets SET distributed = distributed + $2 WHERE id = $1`, id, amount)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToAddDistributed, err)
	}
	return nil
}

// GetPositions retrieves every position for a market
func (r *MarketRepository) GetPositions(ctx context.Context, id uuid.UUID) ([]domain.Position, error) {
	rows, err := r.db.Query(ctx, `
		SELECT market_id, bettor, outcome, stake, updated_at
		FROM positions WHERE market_id = $1 ORDER BY bettor, outcome`, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToGetPositions, err)
	}
	defer rows.Close()

	var positions []domain.Position
	for rows.Next() {
		var p domain.Position
		if err := rows.Scan(&p.MarketID, &p.Bettor, &p.Outcome, &p.Stake, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", ErrMsgFailedToGetPositions, err)
		}
		positions = append(positions, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToGetPositions, err)
	}
	return positions, nil
}

// SavePayoutFailure records a failed payout transfer for later retry
func (r *MarketRepository) SavePayoutFailure(ctx context.Context, failure domain.PendingPayout) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO payout_failures (market_id, bettor, amount, reason, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (market_id, bettor)
		DO UPDATE SET amount = $3, reason = $4, created_at = $5`,
		failure.MarketID, failure.Bettor, failure.Amount, failure.Reason, failure.CreatedAt)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToSaveFailure, err)
	}
	return nil
}

// ListPayoutFailures retrieves the outstanding payout failures for a market
func (r *MarketRepository) ListPayoutFailures(ctx context.Context, id uuid.UUID) ([]domain.PendingPayout, error) {
	rows, err := r.db.Query(ctx, `
		SELECT market_id, bettor, amount, reason, created_at
		FROM payout_failures WHERE market_id = $1 ORDER BY created_at`, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToListFailures, err)
	}
	defer rows.Close()

	var failures []domain.PendingPayout
	for rows.Next() {
		var f domain.PendingPayout
		if err := rows.Scan(&f.MarketID, &f.Bettor, &f.Amount, &f.Reason, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", ErrMsgFailedToListFailures, err)
		}
		failures = append(failures, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToListFailures, err)
	}
	return failures, nil
}

// DeletePayoutFailure clears a retried payout record, returning rows affected
func (r *MarketRepository) DeletePayoutFailure(ctx context.Context, id uuid.UUID, bettor string) (int64, error) {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM payout_failures WHERE market_id = $1 AND bettor = $2`, id, bettor)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", ErrMsgFailedToDeleteFailure, err)
	}
	return tag.RowsAffected(), nil
}

// scanMarket reads one markets row from a pgx.Row or pgx.Rows
func scanMarket(row pgx.Row) (*domain.Market, error) {
	var m domain.Market
	var oracleJSON, fallbackJSON []byte
	var resolutionSecs, disputeSecs int64
	var state string

	err := row.Scan(
		&m.ID, &m.Question, &m.Outcomes, &m.Token, &m.CreatedAt, &m.EndTime, &m.BetDeadline,
		&oracleJSON, &fallbackJSON, &resolutionSecs, &disputeSecs,
		&m.MinPoolSize, &m.FeeRateBps, &state, &m.WinningOutcomes, &m.ResolvedAt,
		&m.TotalPool, &m.FeeCollected, &m.FeesCollected, &m.Distributed,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(oracleJSON, &m.Oracle); err != nil {
		return nil, fmt.Errorf("invalid oracle config: %w", err)
	}
	if len(fallbackJSON) > 0 {
		var fallback domain.OracleConfig
		if err := json.Unmarshal(fallbackJSON, &fallback); err != nil {
			return nil, fmt.Errorf("invalid fallback oracle config: %w", err)
		}
		m.FallbackOracle = &fallback
	}
	m.ResolutionTimeout = time.Duration(resolutionSecs) * time.Second
	m.DisputeWindow = time.Duration(disputeSecs) * time.Second
	m.State = domain.MarketState(state)

	return &m, nil
}

func rollback(ctx context.Context, tx pgx.Tx) {
	if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		slog.Default().Error("Failed to rollback transaction", "error", err)
	}
}
