package dto

import "github.com/meterline/meterline/internal/domain/customer"

// CustomerInfo identifies the customer an event belongs to. Every outgoing
// webhook payload carries one so consumers can attribute events without a
// follow-up lookup.
type CustomerInfo struct {
	ID         string `json:"id"`
	ExternalID string `json:"external_id"`
}

func NewCustomerInfo(c *customer.Customer) CustomerInfo {
	if c == nil {
		return CustomerInfo{}
	}
	return CustomerInfo{
		ID:         c.ID,
		ExternalID: c.ExternalID,
	}
}
