package repository

import (
	"context"
	"database/sql"

	goerrors "github.com/cockroachdb/errors"
	"github.com/meterline/meterline/internal/domain/paymentmethod"
	ierr "github.com/meterline/meterline/internal/errors"
	"github.com/meterline/meterline/internal/types"
)

type paymentMethodRepository struct {
	baseRepository
}

const insertPaymentMethodQuery = `
INSERT INTO payment_methods (
	id, customer_id, provider_method_id, method_type, livemode, metadata, environment_id,
	tenant_id, status, created_at, updated_at, created_by, updated_by
) VALUES (
	:id, :customer_id, :provider_method_id, :method_type, :livemode, :metadata, :environment_id,
	:tenant_id, :status, :created_at, :updated_at, :created_by, :updated_by
)`

func (r *paymentMethodRepository) Create(ctx context.Context, m *paymentmethod.PaymentMethod) error {
	_, err := r.db.Querier(ctx).NamedExecContext(ctx, insertPaymentMethodQuery, m)
	if err != nil {
		if isUniqueViolation(err) {
			return ierr.WithError(err).
				WithHint("A payment method with this provider method ID already exists").
				WithReportableDetails(map[string]any{
					"provider_method_id": m.ProviderMethodID,
				}).
				Mark(ierr.ErrAlreadyExists)
		}
		return ierr.WithError(err).
			WithHint("Failed to create payment method").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *paymentMethodRepository) GetByID(ctx context.Context, id string) (*paymentmethod.PaymentMethod, error) {
	var m paymentmethod.PaymentMethod
	query := `SELECT * FROM payment_methods WHERE id = $1 AND tenant_id = $2 AND status != $3`
	err := r.db.Querier(ctx).GetContext(ctx, &m, query, id, types.GetTenantID(ctx), types.StatusDeleted)
	if err != nil {
		if goerrors.Is(err, sql.ErrNoRows) {
			return nil, ierr.WithError(err).
				WithHintf("Payment method with ID %s was not found", id).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get payment method").
			Mark(ierr.ErrDatabase)
	}
	return &m, nil
}

func (r *paymentMethodRepository) GetByProviderMethodID(ctx context.Context, providerMethodID string) (*paymentmethod.PaymentMethod, error) {
	var m paymentmethod.PaymentMethod
	query := `SELECT * FROM payment_methods WHERE provider_method_id = $1 AND tenant_id = $2 AND status != $3`
	err := r.db.Querier(ctx).GetContext(ctx, &m, query, providerMethodID, types.GetTenantID(ctx), types.StatusDeleted)
	if err != nil {
		if goerrors.Is(err, sql.ErrNoRows) {
			return nil, ierr.WithError(err).
				WithHint("No payment method exists for this provider method ID").
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get payment method").
			Mark(ierr.ErrDatabase)
	}
	return &m, nil
}

func (r *paymentMethodRepository) ListByCustomerID(ctx context.Context, customerID string) ([]*paymentmethod.PaymentMethod, error) {
	var methods []*paymentmethod.PaymentMethod
	query := `SELECT * FROM payment_methods
		WHERE customer_id = $1 AND tenant_id = $2 AND status != $3
		ORDER BY created_at, id`
	err := r.db.Querier(ctx).SelectContext(ctx, &methods, query, customerID, types.GetTenantID(ctx), types.StatusDeleted)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list payment methods").
			Mark(ierr.ErrDatabase)
	}
	return methods, nil
}
