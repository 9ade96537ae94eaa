package payload

import (
	"context"
	"encoding/json"

	ierr "github.com/meterline/meterline/internal/errors"
	webhookDto "github.com/meterline/meterline/internal/webhook/dto"
)

type LedgerTransactionPayloadBuilder struct {
	services *Services
}

func NewLedgerTransactionPayloadBuilder(services *Services) PayloadBuilder {
	return LedgerTransactionPayloadBuilder{
		services: services,
	}
}

func (b LedgerTransactionPayloadBuilder) BuildPayload(ctx context.Context, eventType string, data json.RawMessage) (json.RawMessage, error) {
	var parsedPayload webhookDto.InternalLedgerTransactionEvent

	err := json.Unmarshal(data, &parsedPayload)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Unable to unmarshal ledger transaction event payload").
			Mark(ierr.ErrInvalidOperation)
	}

	tx, err := b.services.LedgerRepo.GetTransactionByID(ctx, parsedPayload.TransactionID)
	if err != nil {
		return nil, err
	}

	entries, err := b.services.LedgerRepo.ListEntriesByTransaction(ctx, tx.ID)
	if err != nil {
		return nil, err
	}

	sub, err := b.services.SubscriptionRepo.GetByID(ctx, tx.SubscriptionID)
	if err != nil {
		return nil, err
	}

	cust, err := b.services.CustomerRepo.GetByID(ctx, sub.CustomerID)
	if err != nil {
		return nil, err
	}

	payload := webhookDto.NewLedgerTransactionWebhookPayload(tx, entries, webhookDto.NewCustomerInfo(cust), eventType)

	return json.Marshal(payload)
}

type CreditPayloadBuilder struct {
	services *Services
}

func NewCreditPayloadBuilder(services *Services) PayloadBuilder {
	return CreditPayloadBuilder{
		services: services,
	}
}

func (b CreditPayloadBuilder) BuildPayload(ctx context.Context, eventType string, data json.RawMessage) (json.RawMessage, error) {
	var parsedPayload webhookDto.InternalCreditEvent

	err := json.Unmarshal(data, &parsedPayload)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Unable to unmarshal credit event payload").
			Mark(ierr.ErrInvalidOperation)
	}

	c, err := b.services.CreditRepo.GetByID(ctx, parsedPayload.CreditID)
	if err != nil {
		return nil, err
	}

	account, err := b.services.LedgerRepo.GetAccountByID(ctx, c.LedgerAccountID)
	if err != nil {
		return nil, err
	}

	cust, err := b.services.CustomerRepo.GetByID(ctx, account.CustomerID)
	if err != nil {
		return nil, err
	}

	payload := webhookDto.NewCreditWebhookPayload(c, webhookDto.NewCustomerInfo(cust), eventType)

	return json.Marshal(payload)
}
