package types

import (
	ierr "github.com/meterline/meterline/internal/errors"
	"github.com/samber/lo"
)

// LedgerTransactionType identifies the business operation that produced a
// group of ledger entries.
type LedgerTransactionType string

const (
	LedgerTransactionTypeUsageEventProcessed   LedgerTransactionType = "usage_event_processed"
	LedgerTransactionTypeCreditGrantRecognized LedgerTransactionType = "credit_grant_recognized"
	LedgerTransactionTypeBillingRecalculated   LedgerTransactionType = "billing_recalculated"
	LedgerTransactionTypeCreditGrantExpired    LedgerTransactionType = "credit_grant_expired"
	LedgerTransactionTypeAdminAdjustment       LedgerTransactionType = "admin_adjustment"
)

func (t LedgerTransactionType) String() string {
	return string(t)
}

func (t LedgerTransactionType) Validate() error {
	allowed := []LedgerTransactionType{
		LedgerTransactionTypeUsageEventProcessed,
		LedgerTransactionTypeCreditGrantRecognized,
		LedgerTransactionTypeBillingRecalculated,
		LedgerTransactionTypeCreditGrantExpired,
		LedgerTransactionTypeAdminAdjustment,
	}
	if !lo.Contains(allowed, t) {
		return ierr.NewError("invalid ledger transaction type").
			WithHint("Invalid ledger transaction type").
			WithReportableDetails(map[string]any{
				"allowed": allowed,
				"type":    t,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// LedgerEntryType identifies a single accounting posting. Amounts are always
// stored as positive magnitudes; the entry type carries the direction.
type LedgerEntryType string

const (
	LedgerEntryTypeUsageCost             LedgerEntryType = "usage_cost"
	LedgerEntryTypeCreditGrantRecognized LedgerEntryType = "credit_grant_recognized"
	LedgerEntryTypeCreditAppliedToUsage  LedgerEntryType = "credit_applied_to_usage"
	LedgerEntryTypeCreditBalanceConsumed LedgerEntryType = "credit_balance_consumed"
	LedgerEntryTypeCreditGrantExpired    LedgerEntryType = "credit_grant_expired"
	LedgerEntryTypeBillingAdjustment     LedgerEntryType = "billing_adjustment"
)

func (t LedgerEntryType) String() string {
	return string(t)
}

func (t LedgerEntryType) Validate() error {
	allowed := []LedgerEntryType{
		LedgerEntryTypeUsageCost,
		LedgerEntryTypeCreditGrantRecognized,
		LedgerEntryTypeCreditAppliedToUsage,
		LedgerEntryTypeCreditBalanceConsumed,
		LedgerEntryTypeCreditGrantExpired,
		LedgerEntryTypeBillingAdjustment,
	}
	if !lo.Contains(allowed, t) {
		return ierr.NewError("invalid ledger entry type").
			WithHint("Invalid ledger entry type").
			WithReportableDetails(map[string]any{
				"allowed": allowed,
				"type":    t,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// IsCredit reports whether entries of this type increase the account balance.
// Usage costs, expirations and balance consumptions reduce it; grants and
// applications increase it. A credit application is always booked as a
// credit_applied_to_usage / credit_balance_consumed pair so that it offsets
// usage cost without growing the net balance.
func (t LedgerEntryType) IsCredit() bool {
	switch t {
	case LedgerEntryTypeCreditGrantRecognized,
		LedgerEntryTypeCreditAppliedToUsage,
		LedgerEntryTypeBillingAdjustment:
		return true
	default:
		return false
	}
}

// LedgerEntrySourceType names the entity a ledger entry must reference.
// Each entry type requires exactly one source reference.
type LedgerEntrySourceType string

const (
	LedgerEntrySourceUsageEvent               LedgerEntrySourceType = "usage_event"
	LedgerEntrySourceUsageCredit              LedgerEntrySourceType = "usage_credit"
	LedgerEntrySourceBillingPeriodCalculation LedgerEntrySourceType = "billing_period_calculation"
)

// SourceType returns the source reference an entry of this type must carry.
func (t LedgerEntryType) SourceType() LedgerEntrySourceType {
	switch t {
	case LedgerEntryTypeUsageCost:
		return LedgerEntrySourceUsageEvent
	case LedgerEntryTypeCreditGrantRecognized,
		LedgerEntryTypeCreditAppliedToUsage,
		LedgerEntryTypeCreditBalanceConsumed,
		LedgerEntryTypeCreditGrantExpired:
		return LedgerEntrySourceUsageCredit
	default:
		return LedgerEntrySourceBillingPeriodCalculation
	}
}

// LedgerEntryStatus is the lifecycle state of an entry.
// Pending entries are provisional and may be discarded; posted entries are
// final and immutable.
type LedgerEntryStatus string

const (
	LedgerEntryStatusPending LedgerEntryStatus = "pending"
	LedgerEntryStatusPosted  LedgerEntryStatus = "posted"
)

func (s LedgerEntryStatus) String() string {
	return string(s)
}

func (s LedgerEntryStatus) Validate() error {
	if s != LedgerEntryStatusPending && s != LedgerEntryStatusPosted {
		return ierr.NewError("invalid ledger entry status").
			WithHint("Invalid ledger entry status").
			WithReportableDetails(map[string]any{
				"status": s,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// BalanceMode selects the consistency mode for balance aggregation.
type BalanceMode string

const (
	// BalanceModePosted sums only posted entries.
	BalanceModePosted BalanceMode = "posted"
	// BalanceModeAvailable sums posted entries plus pending entries that have
	// not been discarded.
	BalanceModeAvailable BalanceMode = "available"
)

func (m BalanceMode) Validate() error {
	if m != BalanceModePosted && m != BalanceModeAvailable {
		return ierr.NewError("invalid balance mode").
			WithHint("Balance mode must be posted or available").
			WithReportableDetails(map[string]any{
				"mode": m,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}
