package types

import (
	ierr "github.com/meterline/meterline/internal/errors"
	"github.com/samber/lo"
)

// SubscriptionStatus is the status of a subscription
type SubscriptionStatus string

const (
	SubscriptionStatusActive      SubscriptionStatus = "active"
	SubscriptionStatusTrialing    SubscriptionStatus = "trialing"
	SubscriptionStatusCreditTrial SubscriptionStatus = "credit_trial"
	SubscriptionStatusIncomplete  SubscriptionStatus = "incomplete"
	SubscriptionStatusCancelled   SubscriptionStatus = "cancelled"
	SubscriptionStatusPastDue     SubscriptionStatus = "past_due"
	SubscriptionStatusUnpaid      SubscriptionStatus = "unpaid"
)

func (s SubscriptionStatus) String() string {
	return string(s)
}

func (s SubscriptionStatus) Validate() error {
	allowed := []SubscriptionStatus{
		SubscriptionStatusActive,
		SubscriptionStatusTrialing,
		SubscriptionStatusCreditTrial,
		SubscriptionStatusIncomplete,
		SubscriptionStatusCancelled,
		SubscriptionStatusPastDue,
		SubscriptionStatusUnpaid,
	}
	if !lo.Contains(allowed, s) {
		return ierr.NewError("invalid subscription status").
			WithHint("Invalid subscription status").
			WithReportableDetails(map[string]any{
				"allowed": allowed,
				"status":  s,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// IsActive reports whether the subscription currently entitles the customer
// to service. Trialing subscriptions count as active for uniqueness checks.
func (s SubscriptionStatus) IsActive() bool {
	return s == SubscriptionStatusActive || s == SubscriptionStatusTrialing
}

// CancellationReason records why a subscription was cancelled.
type CancellationReason string

const (
	CancellationReasonUpgradedToPaid  CancellationReason = "upgraded_to_paid"
	CancellationReasonCustomerRequest CancellationReason = "customer_request"
	CancellationReasonNonPayment      CancellationReason = "non_payment"
)

func (r CancellationReason) String() string {
	return string(r)
}

func (r CancellationReason) Validate() error {
	if r == "" {
		return nil
	}

	allowed := []CancellationReason{
		CancellationReasonUpgradedToPaid,
		CancellationReasonCustomerRequest,
		CancellationReasonNonPayment,
	}
	if !lo.Contains(allowed, r) {
		return ierr.NewError("invalid cancellation reason").
			WithHint("Invalid cancellation reason").
			WithReportableDetails(map[string]any{
				"allowed": allowed,
				"reason":  r,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}
