package repository

import (
	"context"
	"database/sql"

	goerrors "github.com/cockroachdb/errors"
	"github.com/meterline/meterline/internal/domain/organization"
	ierr "github.com/meterline/meterline/internal/errors"
	"github.com/meterline/meterline/internal/types"
)

type organizationRepository struct {
	baseRepository
}

const insertOrganizationQuery = `
INSERT INTO organizations (
	id, name, allow_multiple_subscriptions_per_customer, fee_percentage, metadata,
	tenant_id, status, created_at, updated_at, created_by, updated_by
) VALUES (
	:id, :name, :allow_multiple_subscriptions_per_customer, :fee_percentage, :metadata,
	:tenant_id, :status, :created_at, :updated_at, :created_by, :updated_by
)`

func (r *organizationRepository) Create(ctx context.Context, o *organization.Organization) error {
	_, err := r.db.Querier(ctx).NamedExecContext(ctx, insertOrganizationQuery, o)
	if err != nil {
		if isUniqueViolation(err) {
			return ierr.WithError(err).
				WithHint("An organization with this ID already exists").
				Mark(ierr.ErrAlreadyExists)
		}
		return ierr.WithError(err).
			WithHint("Failed to create organization").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

// GetByID is not tenant scoped: the organization id is the tenant id.
func (r *organizationRepository) GetByID(ctx context.Context, id string) (*organization.Organization, error) {
	var o organization.Organization
	query := `SELECT * FROM organizations WHERE id = $1 AND status != $2`
	err := r.db.Querier(ctx).GetContext(ctx, &o, query, id, types.StatusDeleted)
	if err != nil {
		if goerrors.Is(err, sql.ErrNoRows) {
			return nil, ierr.WithError(err).
				WithHintf("Organization with ID %s was not found", id).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get organization").
			Mark(ierr.ErrDatabase)
	}
	return &o, nil
}

const updateOrganizationQuery = `
UPDATE organizations SET
	name = :name,
	allow_multiple_subscriptions_per_customer = :allow_multiple_subscriptions_per_customer,
	fee_percentage = :fee_percentage,
	metadata = :metadata,
	updated_at = :updated_at,
	updated_by = :updated_by
WHERE id = :id AND status != 'deleted'`

func (r *organizationRepository) Update(ctx context.Context, o *organization.Organization) error {
	o.Touch(ctx)

	res, err := r.db.Querier(ctx).NamedExecContext(ctx, updateOrganizationQuery, o)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update organization").
			Mark(ierr.ErrDatabase)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update organization").
			Mark(ierr.ErrDatabase)
	}
	if affected == 0 {
		return ierr.NewError("organization was not found").
			WithHintf("Organization with ID %s was not found", o.ID).
			Mark(ierr.ErrNotFound)
	}
	return nil
}
