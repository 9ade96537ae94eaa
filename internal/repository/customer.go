package repository

import (
	"context"
	"database/sql"

	goerrors "github.com/cockroachdb/errors"
	"github.com/meterline/meterline/internal/domain/customer"
	ierr "github.com/meterline/meterline/internal/errors"
	"github.com/meterline/meterline/internal/types"
)

type customerRepository struct {
	baseRepository
}

const insertCustomerQuery = `
INSERT INTO customers (
	id, external_id, name, email, default_payment_method_id, provider_customer_id,
	metadata, environment_id, tenant_id, status, created_at, updated_at, created_by, updated_by
) VALUES (
	:id, :external_id, :name, :email, :default_payment_method_id, :provider_customer_id,
	:metadata, :environment_id, :tenant_id, :status, :created_at, :updated_at, :created_by, :updated_by
)`

func (r *customerRepository) Create(ctx context.Context, c *customer.Customer) error {
	_, err := r.db.Querier(ctx).NamedExecContext(ctx, insertCustomerQuery, c)
	if err != nil {
		if isUniqueViolation(err) {
			return ierr.WithError(err).
				WithHint("A customer with this external ID already exists").
				WithReportableDetails(map[string]any{
					"external_id": c.ExternalID,
				}).
				Mark(ierr.ErrAlreadyExists)
		}
		return ierr.WithError(err).
			WithHint("Failed to create customer").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *customerRepository) GetByID(ctx context.Context, id string) (*customer.Customer, error) {
	var c customer.Customer
	query := `SELECT * FROM customers WHERE id = $1 AND tenant_id = $2 AND status != $3`
	err := r.db.Querier(ctx).GetContext(ctx, &c, query, id, types.GetTenantID(ctx), types.StatusDeleted)
	if err != nil {
		if goerrors.Is(err, sql.ErrNoRows) {
			return nil, ierr.WithError(err).
				WithHintf("Customer with ID %s was not found", id).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get customer").
			Mark(ierr.ErrDatabase)
	}
	return &c, nil
}

const updateCustomerQuery = `
UPDATE customers SET
	name = :name,
	email = :email,
	default_payment_method_id = :default_payment_method_id,
	provider_customer_id = :provider_customer_id,
	metadata = :metadata,
	updated_at = :updated_at,
	updated_by = :updated_by
WHERE id = :id AND tenant_id = :tenant_id AND status != 'deleted'`

func (r *customerRepository) Update(ctx context.Context, c *customer.Customer) error {
	c.Touch(ctx)

	res, err := r.db.Querier(ctx).NamedExecContext(ctx, updateCustomerQuery, c)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update customer").
			Mark(ierr.ErrDatabase)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update customer").
			Mark(ierr.ErrDatabase)
	}
	if affected == 0 {
		return ierr.NewError("customer was not found").
			WithHintf("Customer with ID %s was not found", c.ID).
			Mark(ierr.ErrNotFound)
	}
	return nil
}
