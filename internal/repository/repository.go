package repository

import (
	goerrors "github.com/cockroachdb/errors"
	"github.com/lib/pq"
	"github.com/meterline/meterline/internal/domain/checkoutsession"
	"github.com/meterline/meterline/internal/domain/credit"
	"github.com/meterline/meterline/internal/domain/customer"
	"github.com/meterline/meterline/internal/domain/ledger"
	"github.com/meterline/meterline/internal/domain/organization"
	"github.com/meterline/meterline/internal/domain/paymentmethod"
	"github.com/meterline/meterline/internal/domain/price"
	"github.com/meterline/meterline/internal/domain/product"
	"github.com/meterline/meterline/internal/domain/purchase"
	"github.com/meterline/meterline/internal/domain/subscription"
	"github.com/meterline/meterline/internal/domain/usage"
	"github.com/meterline/meterline/internal/logger"
	"github.com/meterline/meterline/internal/postgres"
	"go.uber.org/fx"
)

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if goerrors.As(err, &pqErr) {
		return pqErr.Code == pqUniqueViolation
	}
	return false
}

func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	if goerrors.As(err, &pqErr) {
		return pqErr.Code == pqForeignKeyViolation
	}
	return false
}

// Module provides all repository implementations.
func Module() fx.Option {
	return fx.Options(
		fx.Provide(
			NewLedgerRepository,
			NewCreditRepository,
			NewUsageRepository,
			NewSubscriptionRepository,
			NewCustomerRepository,
			NewOrganizationRepository,
			NewPriceRepository,
			NewProductRepository,
			NewPurchaseRepository,
			NewPaymentMethodRepository,
			NewCheckoutSessionRepository,
		),
	)
}

type baseRepository struct {
	db     postgres.IClient
	logger *logger.Logger
}

func NewLedgerRepository(db postgres.IClient, logger *logger.Logger) ledger.Repository {
	return &ledgerRepository{baseRepository{db: db, logger: logger}}
}

func NewCreditRepository(db postgres.IClient, logger *logger.Logger) credit.Repository {
	return &creditRepository{baseRepository{db: db, logger: logger}}
}

func NewUsageRepository(db postgres.IClient, logger *logger.Logger) usage.Repository {
	return &usageRepository{baseRepository{db: db, logger: logger}}
}

func NewSubscriptionRepository(db postgres.IClient, logger *logger.Logger) subscription.Repository {
	return &subscriptionRepository{baseRepository{db: db, logger: logger}}
}

func NewCustomerRepository(db postgres.IClient, logger *logger.Logger) customer.Repository {
	return &customerRepository{baseRepository{db: db, logger: logger}}
}

func NewOrganizationRepository(db postgres.IClient, logger *logger.Logger) organization.Repository {
	return &organizationRepository{baseRepository{db: db, logger: logger}}
}

func NewPriceRepository(db postgres.IClient, logger *logger.Logger) price.Repository {
	return &priceRepository{baseRepository{db: db, logger: logger}}
}

func NewProductRepository(db postgres.IClient, logger *logger.Logger) product.Repository {
	return &productRepository{baseRepository{db: db, logger: logger}}
}

func NewPurchaseRepository(db postgres.IClient, logger *logger.Logger) purchase.Repository {
	return &purchaseRepository{baseRepository{db: db, logger: logger}}
}

func NewPaymentMethodRepository(db postgres.IClient, logger *logger.Logger) paymentmethod.Repository {
	return &paymentMethodRepository{baseRepository{db: db, logger: logger}}
}

func NewCheckoutSessionRepository(db postgres.IClient, logger *logger.Logger) checkoutsession.Repository {
	return &checkoutSessionRepository{baseRepository{db: db, logger: logger}}
}
