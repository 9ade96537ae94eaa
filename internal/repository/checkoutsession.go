package repository

import (
	"context"
	"database/sql"

	goerrors "github.com/cockroachdb/errors"
	"github.com/meterline/meterline/internal/domain/checkoutsession"
	ierr "github.com/meterline/meterline/internal/errors"
	"github.com/meterline/meterline/internal/types"
)

type checkoutSessionRepository struct {
	baseRepository
}

const insertCheckoutSessionQuery = `
INSERT INTO checkout_sessions (
	id, session_type, session_status, customer_id, price_id, quantity,
	target_subscription_id, purchase_id, invoice_id, output_name, output_metadata,
	preserve_billing_cycle_anchor, automatically_update_subscriptions, expires_at,
	livemode, metadata, environment_id,
	tenant_id, status, created_at, updated_at, created_by, updated_by
) VALUES (
	:id, :session_type, :session_status, :customer_id, :price_id, :quantity,
	:target_subscription_id, :purchase_id, :invoice_id, :output_name, :output_metadata,
	:preserve_billing_cycle_anchor, :automatically_update_subscriptions, :expires_at,
	:livemode, :metadata, :environment_id,
	:tenant_id, :status, :created_at, :updated_at, :created_by, :updated_by
)`

func (r *checkoutSessionRepository) Create(ctx context.Context, s *checkoutsession.CheckoutSession) error {
	_, err := r.db.Querier(ctx).NamedExecContext(ctx, insertCheckoutSessionQuery, s)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ierr.WithError(err).
				WithHint("An entity referenced by the checkout session does not exist").
				WithReportableDetails(map[string]any{
					"checkout_session_id": s.ID,
				}).
				Mark(ierr.ErrNotFound)
		}
		return ierr.WithError(err).
			WithHint("Failed to create checkout session").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *checkoutSessionRepository) GetByID(ctx context.Context, id string) (*checkoutsession.CheckoutSession, error) {
	var s checkoutsession.CheckoutSession
	query := `SELECT * FROM checkout_sessions WHERE id = $1 AND tenant_id = $2 AND status != $3`
	err := r.db.Querier(ctx).GetContext(ctx, &s, query, id, types.GetTenantID(ctx), types.StatusDeleted)
	if err != nil {
		if goerrors.Is(err, sql.ErrNoRows) {
			return nil, ierr.WithError(err).
				WithHintf("Checkout session with ID %s was not found", id).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get checkout session").
			Mark(ierr.ErrDatabase)
	}
	return &s, nil
}

const updateCheckoutSessionQuery = `
UPDATE checkout_sessions SET
	session_status = :session_status,
	output_name = :output_name,
	output_metadata = :output_metadata,
	expires_at = :expires_at,
	metadata = :metadata,
	updated_at = :updated_at,
	updated_by = :updated_by
WHERE id = :id AND tenant_id = :tenant_id AND status != 'deleted'`

func (r *checkoutSessionRepository) Update(ctx context.Context, s *checkoutsession.CheckoutSession) error {
	s.Touch(ctx)

	res, err := r.db.Querier(ctx).NamedExecContext(ctx, updateCheckoutSessionQuery, s)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update checkout session").
			Mark(ierr.ErrDatabase)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update checkout session").
			Mark(ierr.ErrDatabase)
	}
	if affected == 0 {
		return ierr.NewError("checkout session was not found").
			WithHintf("Checkout session with ID %s was not found", s.ID).
			Mark(ierr.ErrNotFound)
	}
	return nil
}

func (r *checkoutSessionRepository) ListByCustomerID(ctx context.Context, customerID string) ([]*checkoutsession.CheckoutSession, error) {
	var sessions []*checkoutsession.CheckoutSession
	query := `SELECT * FROM checkout_sessions
		WHERE customer_id = $1 AND tenant_id = $2 AND status != $3
		ORDER BY created_at, id`
	err := r.db.Querier(ctx).SelectContext(ctx, &sessions, query, customerID, types.GetTenantID(ctx), types.StatusDeleted)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list checkout sessions").
			Mark(ierr.ErrDatabase)
	}
	return sessions, nil
}
