package organization

import "context"

// Repository defines the persistence contract for organizations.
type Repository interface {
	Create(ctx context.Context, o *Organization) error
	GetByID(ctx context.Context, id string) (*Organization, error)
	Update(ctx context.Context, o *Organization) error
}
