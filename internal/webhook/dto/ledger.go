package dto

import (
	"github.com/meterline/meterline/internal/domain/credit"
	"github.com/meterline/meterline/internal/domain/ledger"
)

type InternalLedgerTransactionEvent struct {
	TransactionID string `json:"ledger_transaction_id"`
}

type InternalCreditEvent struct {
	CreditID string `json:"usage_credit_id"`
}

type LedgerTransactionWebhookPayload struct {
	ID          string              `json:"id"`
	Object      string              `json:"object"`
	EventType   string              `json:"event_type"`
	Customer    CustomerInfo        `json:"customer"`
	Transaction *ledger.Transaction `json:"ledger_transaction"`
	Entries     []*ledger.Entry     `json:"entries"`
}

func NewLedgerTransactionWebhookPayload(tx *ledger.Transaction, entries []*ledger.Entry, customer CustomerInfo, eventType string) *LedgerTransactionWebhookPayload {
	return &LedgerTransactionWebhookPayload{
		ID:          tx.ID,
		Object:      "ledger_transaction",
		EventType:   eventType,
		Customer:    customer,
		Transaction: tx,
		Entries:     entries,
	}
}

type CreditWebhookPayload struct {
	ID        string         `json:"id"`
	Object    string         `json:"object"`
	EventType string         `json:"event_type"`
	Customer  CustomerInfo   `json:"customer"`
	Credit    *credit.Credit `json:"usage_credit"`
}

func NewCreditWebhookPayload(c *credit.Credit, customer CustomerInfo, eventType string) *CreditWebhookPayload {
	return &CreditWebhookPayload{
		ID:        c.ID,
		Object:    "usage_credit",
		EventType: eventType,
		Customer:  customer,
		Credit:    c,
	}
}
