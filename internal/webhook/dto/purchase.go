package dto

import (
	"github.com/meterline/meterline/internal/domain/purchase"
)

type InternalPurchaseEvent struct {
	PurchaseID string `json:"purchase_id"`
}

type PurchaseWebhookPayload struct {
	ID        string             `json:"id"`
	Object    string             `json:"object"`
	EventType string             `json:"event_type"`
	Customer  CustomerInfo       `json:"customer"`
	Purchase  *purchase.Purchase `json:"purchase"`
}

func NewPurchaseWebhookPayload(p *purchase.Purchase, customer CustomerInfo, eventType string) *PurchaseWebhookPayload {
	return &PurchaseWebhookPayload{
		ID:        p.ID,
		Object:    "purchase",
		EventType: eventType,
		Customer:  customer,
		Purchase:  p,
	}
}
