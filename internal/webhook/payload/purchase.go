package payload

import (
	"context"
	"encoding/json"

	ierr "github.com/meterline/meterline/internal/errors"
	webhookDto "github.com/meterline/meterline/internal/webhook/dto"
)

type PurchasePayloadBuilder struct {
	services *Services
}

func NewPurchasePayloadBuilder(services *Services) PayloadBuilder {
	return PurchasePayloadBuilder{
		services: services,
	}
}

func (b PurchasePayloadBuilder) BuildPayload(ctx context.Context, eventType string, data json.RawMessage) (json.RawMessage, error) {
	var parsedPayload webhookDto.InternalPurchaseEvent

	err := json.Unmarshal(data, &parsedPayload)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Unable to unmarshal purchase event payload").
			Mark(ierr.ErrInvalidOperation)
	}

	p, err := b.services.PurchaseRepo.GetByID(ctx, parsedPayload.PurchaseID)
	if err != nil {
		return nil, err
	}

	cust, err := b.services.CustomerRepo.GetByID(ctx, p.CustomerID)
	if err != nil {
		return nil, err
	}

	payload := webhookDto.NewPurchaseWebhookPayload(p, webhookDto.NewCustomerInfo(cust), eventType)

	return json.Marshal(payload)
}
