package dto

import (
	"context"
	"time"

	"github.com/meterline/meterline/internal/domain/ledger"
	"github.com/meterline/meterline/internal/domain/usage"
	ierr "github.com/meterline/meterline/internal/errors"
	"github.com/meterline/meterline/internal/types"
	"github.com/shopspring/decimal"
)

// IngestUsageEventRequest records one metered usage occurrence.
// TransactionID is the caller-supplied correlation id; redeliveries with the
// same id are replays.
type IngestUsageEventRequest struct {
	SubscriptionID string          `json:"subscription_id" binding:"required"`
	UsageMeterID   string          `json:"usage_meter_id" binding:"required"`
	PriceID        string          `json:"price_id"`
	Amount         decimal.Decimal `json:"amount" binding:"required"`
	TransactionID  string          `json:"transaction_id" binding:"required"`
	Timestamp      time.Time       `json:"timestamp"`
	Properties     types.Metadata  `json:"properties,omitempty"`
}

func (r *IngestUsageEventRequest) Validate() error {
	if r.TransactionID == "" {
		return ierr.NewError("transaction_id is required").
			WithHint("Usage ingestion requires a correlation id").
			Mark(ierr.ErrValidation)
	}
	if !r.Amount.GreaterThan(decimal.Zero) {
		return ierr.NewError("amount must be greater than 0").
			WithHint("Usage events must carry a positive amount").
			Mark(ierr.ErrValidation)
	}
	return nil
}

func (r *IngestUsageEventRequest) ToEvent(ctx context.Context) *usage.Event {
	ts := r.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	return &usage.Event{
		ID:             types.GenerateUUIDWithPrefix(types.UUID_PREFIX_USAGE_EVENT),
		SubscriptionID: r.SubscriptionID,
		UsageMeterID:   r.UsageMeterID,
		PriceID:        r.PriceID,
		Amount:         r.Amount,
		TransactionID:  r.TransactionID,
		Timestamp:      ts,
		Properties:     r.Properties,
		Livemode:       types.GetLivemode(ctx),
		EnvironmentID:  types.GetEnvironmentID(ctx),
		BaseModel:      types.GetDefaultBaseModel(ctx),
	}
}

// UsageEventResponse carries the recorded event and the ledger transaction
// it produced.
type UsageEventResponse struct {
	Event             *usage.Event        `json:"event"`
	LedgerTransaction *ledger.Transaction `json:"ledger_transaction"`
	// Replayed marks an idempotent replay of a previously ingested event.
	Replayed bool `json:"replayed,omitempty"`
}
