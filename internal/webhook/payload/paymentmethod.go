package payload

import (
	"context"
	"encoding/json"

	ierr "github.com/meterline/meterline/internal/errors"
	webhookDto "github.com/meterline/meterline/internal/webhook/dto"
)

type PaymentMethodPayloadBuilder struct {
	services *Services
}

func NewPaymentMethodPayloadBuilder(services *Services) PayloadBuilder {
	return PaymentMethodPayloadBuilder{
		services: services,
	}
}

func (b PaymentMethodPayloadBuilder) BuildPayload(ctx context.Context, eventType string, data json.RawMessage) (json.RawMessage, error) {
	var parsedPayload webhookDto.InternalPaymentMethodEvent

	err := json.Unmarshal(data, &parsedPayload)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Unable to unmarshal payment method event payload").
			Mark(ierr.ErrInvalidOperation)
	}

	pm, err := b.services.PaymentMethodRepo.GetByID(ctx, parsedPayload.PaymentMethodID)
	if err != nil {
		return nil, err
	}

	cust, err := b.services.CustomerRepo.GetByID(ctx, pm.CustomerID)
	if err != nil {
		return nil, err
	}

	payload := webhookDto.NewPaymentMethodWebhookPayload(pm, webhookDto.NewCustomerInfo(cust), eventType)

	return json.Marshal(payload)
}
