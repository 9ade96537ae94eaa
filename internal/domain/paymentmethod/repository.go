package paymentmethod

import "context"

// Repository defines the persistence contract for payment methods.
type Repository interface {
	Create(ctx context.Context, m *PaymentMethod) error
	GetByID(ctx context.Context, id string) (*PaymentMethod, error)
	GetByProviderMethodID(ctx context.Context, providerMethodID string) (*PaymentMethod, error)
	ListByCustomerID(ctx context.Context, customerID string) ([]*PaymentMethod, error)
}
