package credit

import (
	"context"
	"time"
)

// Repository defines the persistence contract for usage credits.
type Repository interface {
	Create(ctx context.Context, c *Credit) error
	GetByID(ctx context.Context, id string) (*Credit, error)
	// ListByAccount returns all published grants on a ledger account.
	ListByAccount(ctx context.Context, ledgerAccountID string) ([]*Credit, error)
	// ListExpiring returns published grants whose expiry is at or before asOf.
	ListExpiring(ctx context.Context, asOf time.Time) ([]*Credit, error)
	// Archive retires a fully expired grant.
	Archive(ctx context.Context, id string) error
}
