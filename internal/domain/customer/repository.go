package customer

import "context"

// Repository defines the persistence contract for customers.
type Repository interface {
	Create(ctx context.Context, c *Customer) error
	GetByID(ctx context.Context, id string) (*Customer, error)
	Update(ctx context.Context, c *Customer) error
}
