package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/predictify/predictify/internal/domain"
)

// VaultRepository implements the fee-vault repository for PostgreSQL
type VaultRepository struct {
	db *pgxpool.Pool
}

// NewVaultRepository creates a new VaultRepository
func NewVaultRepository(db *pgxpool.Pool) *VaultRepository {
	return &VaultRepository{db: db}
}

// Credit adds amount to a token's balance, creating the row on first use
func (r *VaultRepository) Credit(ctx context.Context, token string, amount int64) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO fee_vault (token, balance) VALUES ($1, $2)
		ON CONFLICT (token) DO UPDATE SET balance = fee_vault.balance + $2`,
		token, amount)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToCreditVault, err)
	}
	return nil
}

// Debit subtracts amount with the balance guard in the same statement so
// concurrent withdrawals cannot overdraw
func (r *VaultRepository) Debit(ctx context.Context, token string, amount int64) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE fee_vault SET balance = balance - $2
		WHERE token = $1 AND balance >= $2`,
		token, amount)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToDebitVault, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInsufficientVaultBalance
	}
	return nil
}

// Balance returns a token's unwithdrawn balance, zero when no row exists
func (r *VaultRepository) Balance(ctx context.Context, token string) (int64, error) {
	var balance int64
	err := r.db.QueryRow(ctx,
		`SELECT balance FROM fee_vault WHERE token = $1`, token).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("%s: %w", ErrMsgFailedToGetVaultBalance, err)
	}
	return balance, nil
}
