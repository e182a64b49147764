package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/metergrid/metergrid/internal/domain/events"
	ierr "github.com/metergrid/metergrid/internal/errors"
	"github.com/metergrid/metergrid/internal/logger"
	"github.com/metergrid/metergrid/internal/postgres"
	"github.com/metergrid/metergrid/internal/types"
)

type eventRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewEventRepository(db *postgres.DB, logger *logger.Logger) events.Repository {
	return &eventRepository{db: db, logger: logger}
}

const eventColumns = `
	id, customer_id, subscription_id, usage_meter_id, billing_period_id, price_id,
	amount, usage_date, transaction_id, properties,
	organization_id, livemode, status, created_at, updated_at, created_by, updated_by
`

func (r *eventRepository) Insert(ctx context.Context, e *events.UsageEvent) error {
	if err := e.Validate(); err != nil {
		return err
	}

	query := `
	INSERT INTO usage_events (` + eventColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`

	r.logger.Debugw("inserting usage event",
		"usage_event_id", e.ID,
		"transaction_id", e.TransactionID,
		"usage_meter_id", e.UsageMeterID,
	)

	_, err := r.db.GetQuerier(ctx).ExecContext(ctx, query,
		e.ID, e.CustomerID, e.SubscriptionID, e.UsageMeterID, e.BillingPeriodID, e.PriceID,
		e.Amount, e.UsageDate, e.TransactionID, e.Properties,
		e.OrganizationID, e.Livemode, e.Status, e.CreatedAt, e.UpdatedAt, e.CreatedBy, e.UpdatedBy,
	)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return ierr.WithError(err).
				WithHint("A usage event with this transaction id already exists for the meter").
				Mark(ierr.ErrAlreadyExists)
		}
		return ierr.WithError(err).
			WithHint("Failed to insert usage event").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *eventRepository) Get(ctx context.Context, id string) (*events.UsageEvent, error) {
	query := `
	SELECT ` + eventColumns + `
	FROM usage_events
	WHERE id = $1 AND organization_id = $2 AND livemode = $3 AND status = $4
	`

	var e events.UsageEvent
	err := r.db.GetQuerier(ctx).GetContext(ctx, &e, query,
		id, types.GetOrganizationID(ctx), types.GetLivemode(ctx), types.StatusPublished)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ierr.WithError(err).
				WithHintf("Usage event %s was not found", id).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get usage event").
			Mark(ierr.ErrDatabase)
	}
	return &e, nil
}

func (r *eventRepository) GetByTransactionIDAndMeter(ctx context.Context, transactionID, usageMeterID string) (*events.UsageEvent, error) {
	query := `
	SELECT ` + eventColumns + `
	FROM usage_events
	WHERE transaction_id = $1 AND usage_meter_id = $2
		AND organization_id = $3 AND livemode = $4 AND status = $5
	`

	var e events.UsageEvent
	err := r.db.GetQuerier(ctx).GetContext(ctx, &e, query,
		transactionID, usageMeterID, types.GetOrganizationID(ctx), types.GetLivemode(ctx), types.StatusPublished)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ierr.WithError(err).
				WithHint("No usage event holds this transaction id for the meter").
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get usage event by transaction id").
			Mark(ierr.ErrDatabase)
	}
	return &e, nil
}

func (r *eventRepository) ListBySubscription(ctx context.Context, subscriptionID string) ([]*events.UsageEvent, error) {
	query := `
	SELECT ` + eventColumns + `
	FROM usage_events
	WHERE subscription_id = $1 AND organization_id = $2 AND livemode = $3 AND status = $4
	ORDER BY usage_date DESC
	`

	var items []*events.UsageEvent
	err := r.db.GetQuerier(ctx).SelectContext(ctx, &items, query,
		subscriptionID, types.GetOrganizationID(ctx), types.GetLivemode(ctx), types.StatusPublished)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list usage events").
			Mark(ierr.ErrDatabase)
	}
	return items, nil
}
