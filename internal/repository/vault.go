package repository

import "context"

// Vault defines the interface for fee-vault balance storage. Balances are
// kept per value token; amounts in different tokens are never merged.
type Vault interface {
	// Credit adds amount to the token's unwithdrawn balance
	Credit(ctx context.Context, token string, amount int64) error

	// Debit subtracts amount, guarded on balance >= amount in the same
	// statement; returns domain.ErrInsufficientVaultBalance otherwise
	Debit(ctx context.Context, token string, amount int64) error

	Balance(ctx context.Context, token string) (int64, error)
}
