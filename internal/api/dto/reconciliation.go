package dto

import (
	"github.com/meterline/meterline/internal/domain/customer"
	"github.com/meterline/meterline/internal/domain/ledger"
	"github.com/meterline/meterline/internal/domain/organization"
	"github.com/meterline/meterline/internal/domain/paymentmethod"
	"github.com/meterline/meterline/internal/domain/purchase"
	"github.com/meterline/meterline/internal/domain/subscription"
	"github.com/meterline/meterline/internal/types"
)

// ReconciliationResult is the discriminated outcome of processing one
// provider setup intent. SessionType tags which payload fields are set;
// fields not populated by a branch stay nil.
type ReconciliationResult struct {
	SessionType   types.CheckoutSessionType   `json:"session_type"`
	SessionStatus types.CheckoutSessionStatus `json:"session_status"`

	// Replayed marks the idempotent redelivery path: the intent was already
	// processed and the previously derived outcome is returned unchanged.
	Replayed bool `json:"replayed,omitempty"`

	// TerminalNoOp marks a session that was already terminal when the
	// intent arrived; only organization and customer are populated.
	TerminalNoOp bool `json:"terminal_no_op,omitempty"`

	Organization  *organization.Organization   `json:"organization,omitempty"`
	Customer      *customer.Customer           `json:"customer,omitempty"`
	Subscription  *subscription.Subscription   `json:"subscription,omitempty"`
	PaymentMethod *paymentmethod.PaymentMethod `json:"payment_method,omitempty"`
	Purchase      *purchase.Purchase           `json:"purchase,omitempty"`

	// BillingRun is the ledger transaction produced by the first billing
	// recalculation on activation, when one ran.
	BillingRun *ledger.Transaction `json:"billing_run,omitempty"`
}
