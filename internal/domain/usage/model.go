package usage

import (
	"time"

	ierr "github.com/meterline/meterline/internal/errors"
	"github.com/meterline/meterline/internal/types"
	"github.com/shopspring/decimal"
)

// Event is a single metered usage occurrence. Immutable once recorded.
// TransactionID is the caller-supplied correlation id used for ingestion
// idempotency: two events with the same correlation id are the same event.
type Event struct {
	ID             string          `db:"id" json:"id"`
	SubscriptionID string          `db:"subscription_id" json:"subscription_id"`
	UsageMeterID   string          `db:"usage_meter_id" json:"usage_meter_id"`
	PriceID        string          `db:"price_id" json:"price_id"`
	Amount         decimal.Decimal `db:"amount" json:"amount"`
	TransactionID  string          `db:"transaction_id" json:"transaction_id"`
	Timestamp      time.Time       `db:"timestamp" json:"timestamp"`
	Properties     types.Metadata  `db:"properties" json:"properties"`
	Livemode       bool            `db:"livemode" json:"livemode"`
	EnvironmentID  string          `db:"environment_id" json:"environment_id"`
	types.BaseModel
}

func (e *Event) TableName() string {
	return "usage_events"
}

func (e *Event) Validate() error {
	if e.SubscriptionID == "" {
		return ierr.NewError("subscription_id is required").
			WithHint("Usage event must belong to a subscription").
			Mark(ierr.ErrValidation)
	}
	if e.UsageMeterID == "" {
		return ierr.NewError("usage_meter_id is required").
			WithHint("Usage event must belong to a usage meter").
			Mark(ierr.ErrValidation)
	}
	if e.TransactionID == "" {
		return ierr.NewError("transaction_id is required").
			WithHint("Usage events require a correlation id for idempotent ingestion").
			Mark(ierr.ErrValidation)
	}
	if !e.Amount.GreaterThan(decimal.Zero) {
		return ierr.NewError("usage amount must be greater than 0").
			WithHint("Usage events must carry a positive amount").
			WithReportableDetails(map[string]any{
				"amount": e.Amount,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}
