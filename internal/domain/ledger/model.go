package ledger

import (
	"time"

	ierr "github.com/meterline/meterline/internal/errors"
	"github.com/meterline/meterline/internal/types"
	"github.com/shopspring/decimal"
)

// Account is the accumulation scope for balances: one per
// (subscription, usage meter) pair. Created when a subscription with a
// metered price is provisioned; never deleted, only soft-retired with the
// subscription.
type Account struct {
	ID             string         `db:"id" json:"id"`
	SubscriptionID string         `db:"subscription_id" json:"subscription_id"`
	UsageMeterID   string         `db:"usage_meter_id" json:"usage_meter_id"`
	CustomerID     string         `db:"customer_id" json:"customer_id"`
	Currency       string         `db:"currency" json:"currency"`
	Livemode       bool           `db:"livemode" json:"livemode"`
	EnvironmentID  string         `db:"environment_id" json:"environment_id"`
	Metadata       types.Metadata `db:"metadata" json:"metadata"`
	types.BaseModel
}

func (a *Account) TableName() string {
	return "ledger_accounts"
}

func (a *Account) Validate() error {
	if a.SubscriptionID == "" {
		return ierr.NewError("subscription_id is required").
			WithHint("Ledger account must belong to a subscription").
			Mark(ierr.ErrValidation)
	}
	if a.UsageMeterID == "" {
		return ierr.NewError("usage_meter_id is required").
			WithHint("Ledger account must belong to a usage meter").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// Transaction groups the entries produced by one atomic business operation.
// Immutable once created.
type Transaction struct {
	ID             string                      `db:"id" json:"id"`
	TxType         types.LedgerTransactionType `db:"transaction_type" json:"transaction_type"`
	SubscriptionID string                      `db:"subscription_id" json:"subscription_id"`
	IdempotencyKey string                      `db:"idempotency_key" json:"idempotency_key"`
	Description    string                      `db:"description" json:"description"`
	Livemode       bool                        `db:"livemode" json:"livemode"`
	Metadata       types.Metadata              `db:"metadata" json:"metadata"`
	EnvironmentID  string                      `db:"environment_id" json:"environment_id"`
	types.BaseModel
}

func (t *Transaction) TableName() string {
	return "ledger_transactions"
}

func (t *Transaction) Validate() error {
	if err := t.TxType.Validate(); err != nil {
		return err
	}
	if t.SubscriptionID == "" {
		return ierr.NewError("subscription_id is required").
			WithHint("Ledger transaction must belong to a subscription").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// Entry is a single accounting posting against a ledger account. Amount is a
// positive magnitude; the entry type carries the direction. Financial fields
// are immutable after creation; only status and discarded_at may change, and
// only per the pending/posted lifecycle.
type Entry struct {
	ID            string                  `db:"id" json:"id"`
	TransactionID string                  `db:"ledger_transaction_id" json:"ledger_transaction_id"`
	AccountID     string                  `db:"ledger_account_id" json:"ledger_account_id"`
	EntryType     types.LedgerEntryType   `db:"entry_type" json:"entry_type"`
	Amount        decimal.Decimal         `db:"amount" json:"amount"`
	EntryStatus   types.LedgerEntryStatus `db:"entry_status" json:"entry_status"`
	DiscardedAt   *time.Time              `db:"discarded_at" json:"discarded_at,omitempty"`

	// Source references: exactly one must be set, determined by EntryType.
	UsageEventID               *string `db:"usage_event_id" json:"usage_event_id,omitempty"`
	UsageCreditID              *string `db:"usage_credit_id" json:"usage_credit_id,omitempty"`
	BillingPeriodCalculationID *string `db:"billing_period_calculation_id" json:"billing_period_calculation_id,omitempty"`

	UsageMeterID  string         `db:"usage_meter_id" json:"usage_meter_id"`
	Description   string         `db:"description" json:"description"`
	Metadata      types.Metadata `db:"metadata" json:"metadata"`
	EnvironmentID string         `db:"environment_id" json:"environment_id"`
	types.BaseModel
}

func (e *Entry) TableName() string {
	return "ledger_entries"
}

func (e *Entry) Validate() error {
	if e.TransactionID == "" {
		return ierr.NewError("ledger_transaction_id is required").
			WithHint("Ledger entry must belong to a ledger transaction").
			Mark(ierr.ErrValidation)
	}
	if e.AccountID == "" {
		return ierr.NewError("ledger_account_id is required").
			WithHint("Ledger entry must belong to a ledger account").
			Mark(ierr.ErrValidation)
	}
	if err := e.EntryType.Validate(); err != nil {
		return err
	}
	if err := e.EntryStatus.Validate(); err != nil {
		return err
	}
	if !e.Amount.GreaterThan(decimal.Zero) {
		return ierr.NewError("entry amount must be a positive magnitude").
			WithHint("Ledger entry amounts are positive; the entry type carries the direction").
			WithReportableDetails(map[string]any{
				"amount":     e.Amount,
				"entry_type": e.EntryType,
			}).
			Mark(ierr.ErrValidation)
	}
	if e.EntryStatus == types.LedgerEntryStatusPosted && e.DiscardedAt != nil {
		return ierr.NewError("posted entry cannot be discarded").
			WithHint("A discarded entry must never be posted").
			WithReportableDetails(map[string]any{
				"entry_id": e.ID,
			}).
			Mark(ierr.ErrValidation)
	}
	return e.validateSourceRef()
}

// validateSourceRef enforces the exactly-one-source invariant per entry type.
func (e *Entry) validateSourceRef() error {
	set := 0
	if e.UsageEventID != nil {
		set++
	}
	if e.UsageCreditID != nil {
		set++
	}
	if e.BillingPeriodCalculationID != nil {
		set++
	}
	if set != 1 {
		return ierr.NewError("ledger entry must carry exactly one source reference").
			WithHint("Exactly one of usage event, usage credit or billing period calculation must be referenced").
			WithReportableDetails(map[string]any{
				"entry_type": e.EntryType,
				"set_count":  set,
			}).
			Mark(ierr.ErrValidation)
	}

	var ok bool
	switch e.EntryType.SourceType() {
	case types.LedgerEntrySourceUsageEvent:
		ok = e.UsageEventID != nil
	case types.LedgerEntrySourceUsageCredit:
		ok = e.UsageCreditID != nil
	case types.LedgerEntrySourceBillingPeriodCalculation:
		ok = e.BillingPeriodCalculationID != nil
	}
	if !ok {
		return ierr.NewError("ledger entry source reference does not match entry type").
			WithHint("The source reference kind is determined by the entry type").
			WithReportableDetails(map[string]any{
				"entry_type":      e.EntryType,
				"expected_source": e.EntryType.SourceType(),
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// SignedAmount nets the entry into the account balance: credit types add,
// debit types subtract.
func (e *Entry) SignedAmount() decimal.Decimal {
	if e.EntryType.IsCredit() {
		return e.Amount
	}
	return e.Amount.Neg()
}

// IsDiscarded reports whether the entry was discarded before posting.
func (e *Entry) IsDiscarded() bool {
	return e.DiscardedAt != nil
}

// CountsTowards reports whether the entry contributes to a balance in the
// given mode.
func (e *Entry) CountsTowards(mode types.BalanceMode) bool {
	switch mode {
	case types.BalanceModePosted:
		return e.EntryStatus == types.LedgerEntryStatusPosted
	case types.BalanceModeAvailable:
		return e.EntryStatus == types.LedgerEntryStatusPosted ||
			(e.EntryStatus == types.LedgerEntryStatusPending && !e.IsDiscarded())
	default:
		return false
	}
}

// Discard marks a pending entry as discarded. Posted entries can never be
// discarded.
func (e *Entry) Discard(at time.Time) error {
	if e.EntryStatus == types.LedgerEntryStatusPosted {
		return ierr.NewError("cannot discard a posted ledger entry").
			WithHint("Only pending entries may be discarded").
			WithReportableDetails(map[string]any{
				"entry_id": e.ID,
			}).
			Mark(ierr.ErrInvalidOperation)
	}
	if e.IsDiscarded() {
		return nil
	}
	e.DiscardedAt = &at
	return nil
}

// Post finalizes a pending entry. Discarded entries can never post.
func (e *Entry) Post() error {
	if e.EntryStatus == types.LedgerEntryStatusPosted {
		return nil
	}
	if e.IsDiscarded() {
		return ierr.NewError("cannot post a discarded ledger entry").
			WithHint("Discarded entries are superseded and never post").
			WithReportableDetails(map[string]any{
				"entry_id": e.ID,
			}).
			Mark(ierr.ErrInvalidOperation)
	}
	e.EntryStatus = types.LedgerEntryStatusPosted
	return nil
}
