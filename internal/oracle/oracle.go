package oracle

import "context"

// Client reads a raw observed value for a feed. Implementations wrap the
// external data providers; a missing, stale or unreachable feed returns
// domain.ErrOracleUnavailable.
type Client interface {
	Read(ctx context.Context, feedID string) (int64, error)
}

// ClientFunc adapts a function to the Client interface
type ClientFunc func(ctx context.Context, feedID string) (int64, error)

func (f ClientFunc) Read(ctx context.Context, feedID string) (int64, error) {
	return f(ctx, feedID)
}
