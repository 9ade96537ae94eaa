package checkoutsession

import "context"

type Repository interface {
	Create(ctx context.Context, session *CheckoutSession) error
	GetByID(ctx context.Context, id string) (*CheckoutSession, error)
	Update(ctx context.Context, session *CheckoutSession) error
	ListByCustomerID(ctx context.Context, customerID string) ([]*CheckoutSession, error)
}
