package usage

import "context"

// Repository defines the persistence contract for usage events.
type Repository interface {
	Create(ctx context.Context, e *Event) error
	GetByID(ctx context.Context, id string) (*Event, error)
	// GetByTransactionID looks up an event by its ingestion correlation id.
	GetByTransactionID(ctx context.Context, transactionID string) (*Event, error)
	ListBySubscription(ctx context.Context, subscriptionID string) ([]*Event, error)
}
