package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/metergrid/metergrid/internal/domain/usagecredit"
	ierr "github.com/metergrid/metergrid/internal/errors"
	"github.com/metergrid/metergrid/internal/logger"
	"github.com/metergrid/metergrid/internal/postgres"
	"github.com/metergrid/metergrid/internal/types"
)

type usageCreditRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewUsageCreditRepository(db *postgres.DB, logger *logger.Logger) usagecredit.Repository {
	return &usageCreditRepository{db: db, logger: logger}
}

const usageCreditColumns = `
	id, subscription_id, usage_meter_id, issued_amount,
	source_reference_type, source_reference_id, payment_id, credit_status,
	organization_id, livemode, status, created_at, updated_at, created_by, updated_by
`

func (r *usageCreditRepository) Create(ctx context.Context, c *usagecredit.UsageCredit) error {
	if err := c.Validate(); err != nil {
		return err
	}

	query := `
	INSERT INTO usage_credits (` + usageCreditColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	r.logger.Debugw("issuing usage credit",
		"usage_credit_id", c.ID,
		"source_reference_type", c.SourceReferenceType,
		"source_reference_id", c.SourceReferenceID,
	)

	_, err := r.db.GetQuerier(ctx).ExecContext(ctx, query,
		c.ID, c.SubscriptionID, c.UsageMeterID, c.IssuedAmount,
		c.SourceReferenceType, c.SourceReferenceID, c.PaymentID, c.CreditStatus,
		c.OrganizationID, c.Livemode, c.Status, c.CreatedAt, c.UpdatedAt, c.CreatedBy, c.UpdatedBy,
	)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return ierr.WithError(err).
				WithHint("A credit with this source reference is already issued for the meter").
				Mark(ierr.ErrAlreadyExists)
		}
		return ierr.WithError(err).
			WithHint("Failed to issue usage credit").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *usageCreditRepository) Get(ctx context.Context, id string) (*usagecredit.UsageCredit, error) {
	query := `
	SELECT ` + usageCreditColumns + `
	FROM usage_credits
	WHERE id = $1 AND organization_id = $2 AND livemode = $3 AND status = $4
	`

	var c usagecredit.UsageCredit
	err := r.db.GetQuerier(ctx).GetContext(ctx, &c, query,
		id, types.GetOrganizationID(ctx), types.GetLivemode(ctx), types.StatusPublished)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ierr.WithError(err).
				WithHintf("Usage credit %s was not found", id).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get usage credit").
			Mark(ierr.ErrDatabase)
	}
	return &c, nil
}

func (r *usageCreditRepository) GetBySourceReference(ctx context.Context, sourceType, sourceID, usageMeterID string) (*usagecredit.UsageCredit, error) {
	query := `
	SELECT ` + usageCreditColumns + `
	FROM usage_credits
	WHERE source_reference_type = $1 AND source_reference_id = $2 AND usage_meter_id = $3
		AND organization_id = $4 AND livemode = $5 AND status = $6
	`

	var c usagecredit.UsageCredit
	err := r.db.GetQuerier(ctx).GetContext(ctx, &c, query,
		sourceType, sourceID, usageMeterID,
		types.GetOrganizationID(ctx), types.GetLivemode(ctx), types.StatusPublished)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ierr.WithError(err).
				WithHint("No credit is issued for this source reference").
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get usage credit by source reference").
			Mark(ierr.ErrDatabase)
	}
	return &c, nil
}

func (r *usageCreditRepository) ListBySubscription(ctx context.Context, subscriptionID string) ([]*usagecredit.UsageCredit, error) {
	query := `
	SELECT ` + usageCreditColumns + `
	FROM usage_credits
	WHERE subscription_id = $1 AND organization_id = $2 AND livemode = $3 AND status = $4
	ORDER BY created_at DESC
	`

	var credits []*usagecredit.UsageCredit
	err := r.db.GetQuerier(ctx).SelectContext(ctx, &credits, query,
		subscriptionID, types.GetOrganizationID(ctx), types.GetLivemode(ctx), types.StatusPublished)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list usage credits").
			Mark(ierr.ErrDatabase)
	}
	return credits, nil
}

func (r *usageCreditRepository) CreateApplication(ctx context.Context, a *usagecredit.CreditApplication) error {
	if err := a.Validate(); err != nil {
		return err
	}

	query := `
	INSERT INTO usage_credit_applications (
		id, usage_credit_id, subscription_id, usage_meter_id, amount_applied,
		usage_event_id, calculation_run_id,
		organization_id, livemode, status, created_at, updated_at, created_by, updated_by
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := r.db.GetQuerier(ctx).ExecContext(ctx, query,
		a.ID, a.UsageCreditID, a.SubscriptionID, a.UsageMeterID, a.AmountApplied,
		a.UsageEventID, a.CalculationRunID,
		a.OrganizationID, a.Livemode, a.Status, a.CreatedAt, a.UpdatedAt, a.CreatedBy, a.UpdatedBy,
	)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to record credit application").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *usageCreditRepository) CreateBalanceAdjustment(ctx context.Context, b *usagecredit.BalanceAdjustment) error {
	if err := b.Validate(); err != nil {
		return err
	}

	query := `
	INSERT INTO usage_credit_balance_adjustments (
		id, adjusted_usage_credit_id, subscription_id, usage_meter_id, amount,
		reason, adjusted_by_user_id,
		organization_id, livemode, status, created_at, updated_at, created_by, updated_by
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := r.db.GetQuerier(ctx).ExecContext(ctx, query,
		b.ID, b.AdjustedUsageCreditID, b.SubscriptionID, b.UsageMeterID, b.Amount,
		b.Reason, b.AdjustedByUserID,
		b.OrganizationID, b.Livemode, b.Status, b.CreatedAt, b.UpdatedAt, b.CreatedBy, b.UpdatedBy,
	)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to record balance adjustment").
			Mark(ierr.ErrDatabase)
	}
	return nil
}
