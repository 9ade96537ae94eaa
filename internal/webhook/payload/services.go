package payload

import (
	"github.com/meterline/meterline/internal/domain/credit"
	"github.com/meterline/meterline/internal/domain/customer"
	"github.com/meterline/meterline/internal/domain/ledger"
	"github.com/meterline/meterline/internal/domain/paymentmethod"
	"github.com/meterline/meterline/internal/domain/purchase"
	"github.com/meterline/meterline/internal/domain/subscription"
)

// Services holds the lookups payload builders hydrate events with
type Services struct {
	CustomerRepo      customer.Repository
	SubscriptionRepo  subscription.Repository
	PurchaseRepo      purchase.Repository
	PaymentMethodRepo paymentmethod.Repository
	LedgerRepo        ledger.Repository
	CreditRepo        credit.Repository
}

// NewServices creates the service bundle used by payload builders
func NewServices(
	customerRepo customer.Repository,
	subscriptionRepo subscription.Repository,
	purchaseRepo purchase.Repository,
	paymentMethodRepo paymentmethod.Repository,
	ledgerRepo ledger.Repository,
	creditRepo credit.Repository,
) *Services {
	return &Services{
		CustomerRepo:      customerRepo,
		SubscriptionRepo:  subscriptionRepo,
		PurchaseRepo:      purchaseRepo,
		PaymentMethodRepo: paymentMethodRepo,
		LedgerRepo:        ledgerRepo,
		CreditRepo:        creditRepo,
	}
}
