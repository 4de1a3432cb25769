package token

import (
	"context"

	"github.com/google/uuid"
)

// Transferor is the value-transfer primitive consumed by the settlement
// engine. A transfer is atomic: it either moves the full amount or fails
// with no partial state. Implementations report a source shortfall as
// domain.ErrInsufficientFunds.
type Transferor interface {
	Transfer(ctx context.Context, token, from, to string, amount int64) error
	BalanceOf(ctx context.Context, token, account string) (int64, error)
}

// VaultAccount is the custody account holding collected protocol fees
const VaultAccount = "vault"

// MarketAccount returns the custody account for a market's pooled stake
func MarketAccount(id uuid.UUID) string {
	return "market:" + id.String()
}
