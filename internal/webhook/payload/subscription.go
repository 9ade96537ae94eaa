package payload

import (
	"context"
	"encoding/json"

	ierr "github.com/meterline/meterline/internal/errors"
	webhookDto "github.com/meterline/meterline/internal/webhook/dto"
)

type SubscriptionPayloadBuilder struct {
	services *Services
}

func NewSubscriptionPayloadBuilder(services *Services) PayloadBuilder {
	return SubscriptionPayloadBuilder{
		services: services,
	}
}

func (b SubscriptionPayloadBuilder) BuildPayload(ctx context.Context, eventType string, data json.RawMessage) (json.RawMessage, error) {
	var parsedPayload webhookDto.InternalSubscriptionEvent

	err := json.Unmarshal(data, &parsedPayload)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Unable to unmarshal subscription event payload").
			Mark(ierr.ErrInvalidOperation)
	}

	sub, err := b.services.SubscriptionRepo.GetByID(ctx, parsedPayload.SubscriptionID)
	if err != nil {
		return nil, err
	}

	cust, err := b.services.CustomerRepo.GetByID(ctx, sub.CustomerID)
	if err != nil {
		return nil, err
	}

	payload := webhookDto.NewSubscriptionWebhookPayload(sub, webhookDto.NewCustomerInfo(cust), eventType)

	return json.Marshal(payload)
}
