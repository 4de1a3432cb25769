package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/predictify/predictify/internal/domain"
)

// TokenLedger implements token.Transferor over a double-entry account
// table. Every market custody account, the vault account and each bettor
// account is one row per token; a transfer debits and credits inside one
// transaction with the sender row locked.
type TokenLedger struct {
	db *pgxpool.Pool
}

// NewTokenLedger creates a new TokenLedger
func NewTokenLedger(db *pgxpool.Pool) *TokenLedger {
	return &TokenLedger{db: db}
}

// Transfer moves amount between accounts. Returns
// domain.ErrInsufficientFunds when the sender's balance cannot cover it.
func (l *TokenLedger) Transfer(ctx context.Context, token, from, to string, amount int64) error {
	if amount <= 0 {
		return domain.ErrZeroAmount
	}

	tx, err := l.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToBeginTx, err)
	}
	defer rollback(ctx, tx)

	var balance int64
	err = tx.QueryRow(ctx, `
		SELECT balance FROM token_accounts
		WHERE token = $1 AND account = $2 FOR UPDATE`,
		token, from).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%s: %w", ErrMsgFailedToTransfer, domain.ErrInsufficientFunds)
		}
		return fmt.Errorf("%s: %w", ErrMsgFailedToTransfer, err)
	}
	if balance < amount {
		return fmt.Errorf("%s: %w", ErrMsgFailedToTransfer, domain.ErrInsufficientFunds)
	}

	if _, err := tx.Exec(ctx, `
		UPDATE token_accounts SET balance = balance - $3
		WHERE token = $1 AND account = $2`,
		token, from, amount); err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToTransfer, err)
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO token_accounts (token, account, balance) VALUES ($1, $2, $3)
		ON CONFLICT (token, account) DO UPDATE SET balance = token_accounts.balance + $3`,
		token, to, amount); err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToTransfer, err)
	}

	return tx.Commit(ctx)
}

// BalanceOf returns an account's balance in a token, zero when no row exists
func (l *TokenLedger) BalanceOf(ctx context.Context, token, account string) (int64, error) {
	var balance int64
	err := l.db.QueryRow(ctx, `
		SELECT balance FROM token_accounts WHERE token = $1 AND account = $2`,
		token, account).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("%s: %w", ErrMsgFailedToGetBalance, err)
	}
	return balance, nil
}

// Deposit credits an account directly. Deposits originate outside the
// settlement flow (an exchange gateway or test fixture), so there is no
// matching debit.
func (l *TokenLedger) Deposit(ctx context.Context, token, account string, amount int64) error {
	if amount <= 0 {
		return domain.ErrZeroAmount
	}
	_, err := l.db.Exec(ctx, `
		INSERT INTO token_accounts (token, account, balance) VALUES ($1, $2, $3)
		ON CONFLICT (token, account) DO UPDATE SET balance = token_accounts.balance + $3`,
		token, account, amount)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToTransfer, err)
	}
	return nil
}
