package price

import "context"

// Repository defines the persistence contract for prices.
type Repository interface {
	Create(ctx context.Context, p *Price) error
	GetByID(ctx context.Context, id string) (*Price, error)
}
