package dto

import (
	"github.com/meterline/meterline/internal/domain/paymentmethod"
)

type InternalPaymentMethodEvent struct {
	PaymentMethodID string `json:"payment_method_id"`
}

type PaymentMethodWebhookPayload struct {
	ID            string                       `json:"id"`
	Object        string                       `json:"object"`
	EventType     string                       `json:"event_type"`
	Customer      CustomerInfo                 `json:"customer"`
	PaymentMethod *paymentmethod.PaymentMethod `json:"payment_method"`
}

func NewPaymentMethodWebhookPayload(pm *paymentmethod.PaymentMethod, customer CustomerInfo, eventType string) *PaymentMethodWebhookPayload {
	return &PaymentMethodWebhookPayload{
		ID:            pm.ID,
		Object:        "payment_method",
		EventType:     eventType,
		Customer:      customer,
		PaymentMethod: pm,
	}
}
