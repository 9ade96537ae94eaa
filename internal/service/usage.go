package service

import (
	"context"
	"fmt"

	"github.com/meterline/meterline/internal/api/dto"
	"github.com/meterline/meterline/internal/domain/ledger"
	ierr "github.com/meterline/meterline/internal/errors"
	"github.com/meterline/meterline/internal/types"
	webhookDto "github.com/meterline/meterline/internal/webhook/dto"
)

// UsageService ingests metered usage events and books the matching
// usage_cost debit.
type UsageService interface {
	// IngestUsageEvent records a usage event and posts its usage_cost entry
	// atomically. Idempotent by the caller-supplied transaction correlation
	// id: a redelivery returns the previously committed result.
	IngestUsageEvent(ctx context.Context, req dto.IngestUsageEventRequest) (*dto.UsageEventResponse, error)

	// GetUsageEvent retrieves a usage event by ID
	GetUsageEvent(ctx context.Context, id string) (*dto.UsageEventResponse, error)
}

type usageService struct {
	ServiceParams
}

func NewUsageService(params ServiceParams) UsageService {
	return &usageService{
		ServiceParams: params,
	}
}

func (s *usageService) IngestUsageEvent(ctx context.Context, req dto.IngestUsageEventRequest) (*dto.UsageEventResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	// Replay: the correlation id identifies the event across redeliveries.
	existing, err := s.UsageRepo.GetByTransactionID(ctx, req.TransactionID)
	if err != nil && !ierr.IsNotFound(err) {
		return nil, err
	}
	if existing != nil {
		ledgerTx, err := s.LedgerRepo.GetTransactionByIdempotencyKey(ctx, usageIdempotencyKey(req.TransactionID))
		if err != nil && !ierr.IsNotFound(err) {
			return nil, err
		}
		return &dto.UsageEventResponse{
			Event:             existing,
			LedgerTransaction: ledgerTx,
			Replayed:          true,
		}, nil
	}

	account, err := s.LedgerRepo.GetAccountBySubscriptionAndMeter(ctx, req.SubscriptionID, req.UsageMeterID)
	if err != nil {
		return nil, err
	}

	event := req.ToEvent(ctx)
	if err := event.Validate(); err != nil {
		return nil, err
	}

	ledgerTx := &ledger.Transaction{
		ID:             types.GenerateUUIDWithPrefix(types.UUID_PREFIX_LEDGER_TRANSACTION),
		TxType:         types.LedgerTransactionTypeUsageEventProcessed,
		SubscriptionID: req.SubscriptionID,
		IdempotencyKey: usageIdempotencyKey(req.TransactionID),
		Description:    "usage event processed",
		Livemode:       types.GetLivemode(ctx),
		EnvironmentID:  types.GetEnvironmentID(ctx),
		BaseModel:      types.GetDefaultBaseModel(ctx),
	}

	entry := &ledger.Entry{
		ID:            types.GenerateUUIDWithPrefix(types.UUID_PREFIX_LEDGER_ENTRY),
		TransactionID: ledgerTx.ID,
		AccountID:     account.ID,
		EntryType:     types.LedgerEntryTypeUsageCost,
		Amount:        req.Amount,
		EntryStatus:   types.LedgerEntryStatusPosted,
		UsageEventID:  &event.ID,
		UsageMeterID:  req.UsageMeterID,
		Description:   "usage cost",
		EnvironmentID: types.GetEnvironmentID(ctx),
		BaseModel:     types.GetDefaultBaseModel(ctx),
	}
	if err := entry.Validate(); err != nil {
		return nil, err
	}

	err = s.DB.WithTx(ctx, func(ctx context.Context) error {
		if err := s.UsageRepo.Create(ctx, event); err != nil {
			return err
		}
		if err := s.LedgerRepo.CreateTransaction(ctx, ledgerTx); err != nil {
			return err
		}
		return s.LedgerRepo.CreateEntries(ctx, []*ledger.Entry{entry})
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("ingested usage event",
		"usage_event_id", event.ID,
		"subscription_id", req.SubscriptionID,
		"usage_meter_id", req.UsageMeterID,
		"amount", req.Amount.String(),
	)

	publishWebhookEvent(ctx, s.WebhookPublisher, s.Logger,
		types.WebhookEventLedgerTransactionCreated,
		webhookDto.InternalLedgerTransactionEvent{TransactionID: ledgerTx.ID},
	)

	return &dto.UsageEventResponse{
		Event:             event,
		LedgerTransaction: ledgerTx,
	}, nil
}

func (s *usageService) GetUsageEvent(ctx context.Context, id string) (*dto.UsageEventResponse, error) {
	event, err := s.UsageRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &dto.UsageEventResponse{Event: event}, nil
}

// usageIdempotencyKey derives the ledger transaction idempotency key from
// the ingestion correlation id.
func usageIdempotencyKey(correlationID string) string {
	return fmt.Sprintf("usage:%s", correlationID)
}
