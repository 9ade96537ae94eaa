package types

import (
	ierr "github.com/meterline/meterline/internal/errors"
	"github.com/samber/lo"
)

// CheckoutSessionType discriminates the purpose of a checkout session and the
// shape of its payload.
type CheckoutSessionType string

const (
	CheckoutSessionTypeProduct              CheckoutSessionType = "product"
	CheckoutSessionTypePurchase             CheckoutSessionType = "purchase"
	CheckoutSessionTypeInvoice              CheckoutSessionType = "invoice"
	CheckoutSessionTypeAddPaymentMethod     CheckoutSessionType = "add_payment_method"
	CheckoutSessionTypeActivateSubscription CheckoutSessionType = "activate_subscription"
)

func (t CheckoutSessionType) String() string {
	return string(t)
}

func (t CheckoutSessionType) Validate() error {
	allowed := []CheckoutSessionType{
		CheckoutSessionTypeProduct,
		CheckoutSessionTypePurchase,
		CheckoutSessionTypeInvoice,
		CheckoutSessionTypeAddPaymentMethod,
		CheckoutSessionTypeActivateSubscription,
	}
	if !lo.Contains(allowed, t) {
		return ierr.NewError("invalid checkout session type").
			WithHint("Invalid checkout session type").
			WithReportableDetails(map[string]any{
				"allowed": allowed,
				"type":    t,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// CreatesSubscription reports whether a succeeded session of this type
// provisions a new subscription.
func (t CheckoutSessionType) CreatesSubscription() bool {
	return t == CheckoutSessionTypeProduct || t == CheckoutSessionTypePurchase
}

// CheckoutSessionStatus is the lifecycle state of a checkout session.
// Succeeded and failed are terminal; a terminal session is immutable.
type CheckoutSessionStatus string

const (
	CheckoutSessionStatusOpen      CheckoutSessionStatus = "open"
	CheckoutSessionStatusPending   CheckoutSessionStatus = "pending"
	CheckoutSessionStatusSucceeded CheckoutSessionStatus = "succeeded"
	CheckoutSessionStatusFailed    CheckoutSessionStatus = "failed"
)

func (s CheckoutSessionStatus) String() string {
	return string(s)
}

// IsTerminal reports whether the session can no longer change state.
func (s CheckoutSessionStatus) IsTerminal() bool {
	return s == CheckoutSessionStatusSucceeded || s == CheckoutSessionStatusFailed
}

// CheckoutSessionStatusFromIntentStatus maps a provider intent status to the
// checkout session status. Unknown provider statuses map to pending so a
// later webhook can still settle the session.
func CheckoutSessionStatusFromIntentStatus(status SetupIntentStatus) CheckoutSessionStatus {
	switch status {
	case SetupIntentStatusSucceeded:
		return CheckoutSessionStatusSucceeded
	case SetupIntentStatusCanceled:
		return CheckoutSessionStatusFailed
	case SetupIntentStatusProcessing, SetupIntentStatusRequiresPaymentMethod:
		return CheckoutSessionStatusPending
	default:
		return CheckoutSessionStatusPending
	}
}
