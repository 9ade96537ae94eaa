package payload

import (
	"fmt"

	"github.com/meterline/meterline/internal/types"
)

// PayloadBuilderFactory interface for getting event-specific payload builders
type PayloadBuilderFactory interface {
	GetBuilder(eventType string) (PayloadBuilder, error)
}

type payloadBuilderFactory struct {
	builders map[string]func() PayloadBuilder
	services *Services
}

// NewPayloadBuilderFactory creates a new factory with registered builders
func NewPayloadBuilderFactory(services *Services) PayloadBuilderFactory {
	f := &payloadBuilderFactory{
		builders: make(map[string]func() PayloadBuilder),
		services: services,
	}

	// Register subscription builders
	f.builders[types.WebhookEventSubscriptionCreated] = func() PayloadBuilder {
		return NewSubscriptionPayloadBuilder(f.services)
	}
	f.builders[types.WebhookEventSubscriptionActivated] = func() PayloadBuilder {
		return NewSubscriptionPayloadBuilder(f.services)
	}
	f.builders[types.WebhookEventSubscriptionCancelled] = func() PayloadBuilder {
		return NewSubscriptionPayloadBuilder(f.services)
	}
	f.builders[types.WebhookEventSubscriptionUpgraded] = func() PayloadBuilder {
		return NewSubscriptionPayloadBuilder(f.services)
	}

	// Register purchase builders
	f.builders[types.WebhookEventPurchaseCompleted] = func() PayloadBuilder {
		return NewPurchasePayloadBuilder(f.services)
	}

	// Register payment method builders
	f.builders[types.WebhookEventPaymentMethodAttached] = func() PayloadBuilder {
		return NewPaymentMethodPayloadBuilder(f.services)
	}

	// Register ledger builders
	f.builders[types.WebhookEventLedgerTransactionCreated] = func() PayloadBuilder {
		return NewLedgerTransactionPayloadBuilder(f.services)
	}
	f.builders[types.WebhookEventCreditGrantExpired] = func() PayloadBuilder {
		return NewCreditPayloadBuilder(f.services)
	}

	return f
}

// GetBuilder returns a payload builder for the given event type
func (f *payloadBuilderFactory) GetBuilder(eventType string) (PayloadBuilder, error) {
	builderFn, ok := f.builders[eventType]
	if !ok {
		return nil, fmt.Errorf("no builder registered for event type: %s", eventType)
	}

	return builderFn(), nil
}
