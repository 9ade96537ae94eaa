package repository

import (
	"context"
	"database/sql"

	goerrors "github.com/cockroachdb/errors"
	"github.com/meterline/meterline/internal/domain/subscription"
	ierr "github.com/meterline/meterline/internal/errors"
	"github.com/meterline/meterline/internal/types"
)

type subscriptionRepository struct {
	baseRepository
}

const insertSubscriptionQuery = `
INSERT INTO subscriptions (
	id, customer_id, price_id, quantity, name, subscription_status, is_free_plan,
	cancellation_reason, cancelled_at, replaced_by_subscription_id, setup_intent_id,
	default_payment_method_id, trial_end, billing_anchor, start_date,
	current_period_start, current_period_end, livemode, metadata, environment_id,
	tenant_id, status, created_at, updated_at, created_by, updated_by
) VALUES (
	:id, :customer_id, :price_id, :quantity, :name, :subscription_status, :is_free_plan,
	:cancellation_reason, :cancelled_at, :replaced_by_subscription_id, :setup_intent_id,
	:default_payment_method_id, :trial_end, :billing_anchor, :start_date,
	:current_period_start, :current_period_end, :livemode, :metadata, :environment_id,
	:tenant_id, :status, :created_at, :updated_at, :created_by, :updated_by
)`

func (r *subscriptionRepository) Create(ctx context.Context, s *subscription.Subscription) error {
	_, err := r.db.Querier(ctx).NamedExecContext(ctx, insertSubscriptionQuery, s)
	if err != nil {
		if isUniqueViolation(err) {
			return ierr.WithError(err).
				WithHint("A subscription already exists for this setup intent").
				WithReportableDetails(map[string]any{
					"subscription_id": s.ID,
				}).
				Mark(ierr.ErrAlreadyExists)
		}
		return ierr.WithError(err).
			WithHint("Failed to create subscription").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *subscriptionRepository) GetByID(ctx context.Context, id string) (*subscription.Subscription, error) {
	var s subscription.Subscription
	query := `SELECT * FROM subscriptions WHERE id = $1 AND tenant_id = $2 AND status != $3`
	err := r.db.Querier(ctx).GetContext(ctx, &s, query, id, types.GetTenantID(ctx), types.StatusDeleted)
	if err != nil {
		if goerrors.Is(err, sql.ErrNoRows) {
			return nil, ierr.WithError(err).
				WithHintf("Subscription with ID %s was not found", id).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get subscription").
			Mark(ierr.ErrDatabase)
	}
	return &s, nil
}

const updateSubscriptionQuery = `
UPDATE subscriptions SET
	subscription_status = :subscription_status,
	cancellation_reason = :cancellation_reason,
	cancelled_at = :cancelled_at,
	replaced_by_subscription_id = :replaced_by_subscription_id,
	setup_intent_id = :setup_intent_id,
	default_payment_method_id = :default_payment_method_id,
	trial_end = :trial_end,
	current_period_start = :current_period_start,
	current_period_end = :current_period_end,
	metadata = :metadata,
	updated_at = :updated_at,
	updated_by = :updated_by
WHERE id = :id AND tenant_id = :tenant_id AND status != 'deleted'`

func (r *subscriptionRepository) Update(ctx context.Context, s *subscription.Subscription) error {
	s.Touch(ctx)

	res, err := r.db.Querier(ctx).NamedExecContext(ctx, updateSubscriptionQuery, s)
	if err != nil {
		if isUniqueViolation(err) {
			return ierr.WithError(err).
				WithHint("A subscription already exists for this setup intent").
				WithReportableDetails(map[string]any{
					"subscription_id": s.ID,
				}).
				Mark(ierr.ErrAlreadyExists)
		}
		return ierr.WithError(err).
			WithHint("Failed to update subscription").
			Mark(ierr.ErrDatabase)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update subscription").
			Mark(ierr.ErrDatabase)
	}
	if affected == 0 {
		return ierr.NewError("subscription was not found").
			WithHintf("Subscription with ID %s was not found", s.ID).
			Mark(ierr.ErrNotFound)
	}
	return nil
}

func (r *subscriptionRepository) GetBySetupIntentID(ctx context.Context, setupIntentID string) (*subscription.Subscription, error) {
	var s subscription.Subscription
	query := `SELECT * FROM subscriptions WHERE setup_intent_id = $1 AND tenant_id = $2 AND status != $3`
	err := r.db.Querier(ctx).GetContext(ctx, &s, query, setupIntentID, types.GetTenantID(ctx), types.StatusDeleted)
	if err != nil {
		if goerrors.Is(err, sql.ErrNoRows) {
			return nil, ierr.WithError(err).
				WithHint("No subscription exists for this setup intent").
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get subscription").
			Mark(ierr.ErrDatabase)
	}
	return &s, nil
}

func (r *subscriptionRepository) ListByCustomerID(ctx context.Context, customerID string) ([]*subscription.Subscription, error) {
	var subs []*subscription.Subscription
	query := `SELECT * FROM subscriptions
		WHERE customer_id = $1 AND tenant_id = $2 AND status != $3
		ORDER BY created_at, id`
	err := r.db.Querier(ctx).SelectContext(ctx, &subs, query, customerID, types.GetTenantID(ctx), types.StatusDeleted)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list subscriptions").
			Mark(ierr.ErrDatabase)
	}
	return subs, nil
}
