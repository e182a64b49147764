package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/metergrid/metergrid/internal/domain/billingperiod"
	ierr "github.com/metergrid/metergrid/internal/errors"
	"github.com/metergrid/metergrid/internal/logger"
	"github.com/metergrid/metergrid/internal/postgres"
	"github.com/metergrid/metergrid/internal/types"
)

type billingPeriodRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewBillingPeriodRepository(db *postgres.DB, logger *logger.Logger) billingperiod.Repository {
	return &billingPeriodRepository{db: db, logger: logger}
}

const billingPeriodColumns = `
	id, subscription_id, start_date, end_date,
	organization_id, livemode, status, created_at, updated_at, created_by, updated_by
`

func (r *billingPeriodRepository) Create(ctx context.Context, bp *billingperiod.BillingPeriod) error {
	if err := bp.Validate(); err != nil {
		return err
	}

	query := `
	INSERT INTO billing_periods (` + billingPeriodColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.db.GetQuerier(ctx).ExecContext(ctx, query,
		bp.ID, bp.SubscriptionID, bp.StartDate, bp.EndDate,
		bp.OrganizationID, bp.Livemode, bp.Status, bp.CreatedAt, bp.UpdatedAt, bp.CreatedBy, bp.UpdatedBy,
	)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to create billing period").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *billingPeriodRepository) Get(ctx context.Context, id string) (*billingperiod.BillingPeriod, error) {
	query := `
	SELECT ` + billingPeriodColumns + `
	FROM billing_periods
	WHERE id = $1 AND organization_id = $2 AND livemode = $3 AND status = $4
	`

	var bp billingperiod.BillingPeriod
	err := r.db.GetQuerier(ctx).GetContext(ctx, &bp, query,
		id, types.GetOrganizationID(ctx), types.GetLivemode(ctx), types.StatusPublished)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ierr.WithError(err).
				WithHintf("Billing period %s was not found", id).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get billing period").
			Mark(ierr.ErrDatabase)
	}
	return &bp, nil
}

func (r *billingPeriodRepository) GetBySubscriptionAndTime(ctx context.Context, subscriptionID string, at time.Time) (*billingperiod.BillingPeriod, error) {
	// Start inclusive, end exclusive
	query := `
	SELECT ` + billingPeriodColumns + `
	FROM billing_periods
	WHERE subscription_id = $1 AND start_date <= $2 AND end_date > $2
		AND organization_id = $3 AND livemode = $4 AND status = $5
	ORDER BY start_date DESC
	LIMIT 1
	`

	var bp billingperiod.BillingPeriod
	err := r.db.GetQuerier(ctx).GetContext(ctx, &bp, query,
		subscriptionID, at, types.GetOrganizationID(ctx), types.GetLivemode(ctx), types.StatusPublished)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ierr.WithError(err).
				WithHint("No billing period covers the given time").
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to resolve billing period").
			Mark(ierr.ErrDatabase)
	}
	return &bp, nil
}
