package purchase

import "context"

// Repository defines the persistence contract for purchases.
type Repository interface {
	Create(ctx context.Context, p *Purchase) error
	GetByID(ctx context.Context, id string) (*Purchase, error)
	Update(ctx context.Context, p *Purchase) error
}
