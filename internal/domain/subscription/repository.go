package subscription

import "context"

// Repository defines the persistence contract for subscriptions.
// GetBySetupIntentID is the reconciliation idempotency lookup; the
// setup_intent_id column carries a unique constraint so concurrent webhook
// deliveries cannot both stamp it.
type Repository interface {
	Create(ctx context.Context, s *Subscription) error
	GetByID(ctx context.Context, id string) (*Subscription, error)
	Update(ctx context.Context, s *Subscription) error
	GetBySetupIntentID(ctx context.Context, setupIntentID string) (*Subscription, error)
	ListByCustomerID(ctx context.Context, customerID string) ([]*Subscription, error)
}
