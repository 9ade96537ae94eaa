package repository

import (
	"context"
	"database/sql"

	goerrors "github.com/cockroachdb/errors"
	"github.com/meterline/meterline/internal/domain/usage"
	ierr "github.com/meterline/meterline/internal/errors"
	"github.com/meterline/meterline/internal/types"
)

type usageRepository struct {
	baseRepository
}

const insertUsageEventQuery = `
INSERT INTO usage_events (
	id, subscription_id, usage_meter_id, price_id, amount, transaction_id,
	timestamp, properties, livemode, environment_id,
	tenant_id, status, created_at, updated_at, created_by, updated_by
) VALUES (
	:id, :subscription_id, :usage_meter_id, :price_id, :amount, :transaction_id,
	:timestamp, :properties, :livemode, :environment_id,
	:tenant_id, :status, :created_at, :updated_at, :created_by, :updated_by
)`

func (r *usageRepository) Create(ctx context.Context, e *usage.Event) error {
	_, err := r.db.Querier(ctx).NamedExecContext(ctx, insertUsageEventQuery, e)
	if err != nil {
		if isUniqueViolation(err) {
			return ierr.WithError(err).
				WithHint("A usage event with this correlation id already exists").
				WithReportableDetails(map[string]any{
					"transaction_id": e.TransactionID,
				}).
				Mark(ierr.ErrAlreadyExists)
		}
		return ierr.WithError(err).
			WithHint("Failed to create usage event").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *usageRepository) GetByID(ctx context.Context, id string) (*usage.Event, error) {
	var e usage.Event
	query := `SELECT * FROM usage_events WHERE id = $1 AND tenant_id = $2 AND status != $3`
	err := r.db.Querier(ctx).GetContext(ctx, &e, query, id, types.GetTenantID(ctx), types.StatusDeleted)
	if err != nil {
		if goerrors.Is(err, sql.ErrNoRows) {
			return nil, ierr.WithError(err).
				WithHintf("Usage event with ID %s was not found", id).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get usage event").
			Mark(ierr.ErrDatabase)
	}
	return &e, nil
}

func (r *usageRepository) GetByTransactionID(ctx context.Context, transactionID string) (*usage.Event, error) {
	var e usage.Event
	query := `SELECT * FROM usage_events WHERE transaction_id = $1 AND tenant_id = $2 AND status != $3`
	err := r.db.Querier(ctx).GetContext(ctx, &e, query, transactionID, types.GetTenantID(ctx), types.StatusDeleted)
	if err != nil {
		if goerrors.Is(err, sql.ErrNoRows) {
			return nil, ierr.WithError(err).
				WithHint("No usage event exists for this correlation id").
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get usage event").
			Mark(ierr.ErrDatabase)
	}
	return &e, nil
}

func (r *usageRepository) ListBySubscription(ctx context.Context, subscriptionID string) ([]*usage.Event, error) {
	var events []*usage.Event
	query := `SELECT * FROM usage_events
		WHERE subscription_id = $1 AND tenant_id = $2 AND status != $3
		ORDER BY timestamp, id`
	err := r.db.Querier(ctx).SelectContext(ctx, &events, query, subscriptionID, types.GetTenantID(ctx), types.StatusDeleted)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list usage events").
			Mark(ierr.ErrDatabase)
	}
	return events, nil
}
