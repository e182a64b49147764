package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/metergrid/metergrid/internal/domain/price"
	ierr "github.com/metergrid/metergrid/internal/errors"
	"github.com/metergrid/metergrid/internal/logger"
	"github.com/metergrid/metergrid/internal/postgres"
	"github.com/metergrid/metergrid/internal/types"
)

type priceRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewPriceRepository(db *postgres.DB, logger *logger.Logger) price.Repository {
	return &priceRepository{db: db, logger: logger}
}

const priceColumns = `
	id, type, slug, unit_amount, currency, is_default,
	product_id, usage_meter_id, interval_unit, interval_count, trial_days,
	usage_events_per_unit, metadata,
	organization_id, livemode, status, created_at, updated_at, created_by, updated_by
`

func (r *priceRepository) Create(ctx context.Context, p *price.Price) error {
	if err := p.Validate(); err != nil {
		return err
	}

	query := `
	INSERT INTO prices (` + priceColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
	`

	r.logger.Debugw("creating price", "price_id", p.ID, "type", p.Type, "slug", p.Slug)

	_, err := r.db.GetQuerier(ctx).ExecContext(ctx, query,
		p.ID, p.Type, p.Slug, p.UnitAmount, p.Currency, p.IsDefault,
		p.ProductID, p.UsageMeterID, p.IntervalUnit, p.IntervalCount, p.TrialDays,
		p.UsageEventsPerUnit, p.Metadata,
		p.OrganizationID, p.Livemode, p.Status, p.CreatedAt, p.UpdatedAt, p.CreatedBy, p.UpdatedBy,
	)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return ierr.WithError(err).
				WithHint("A conflicting price already exists").
				Mark(ierr.ErrAlreadyExists)
		}
		return ierr.WithError(err).
			WithHint("Failed to create price").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *priceRepository) Get(ctx context.Context, id string) (*price.Price, error) {
	query := `
	SELECT ` + priceColumns + `
	FROM prices
	WHERE id = $1 AND organization_id = $2 AND livemode = $3 AND status = $4
	`

	var p price.Price
	err := r.db.GetQuerier(ctx).GetContext(ctx, &p, query,
		id, types.GetOrganizationID(ctx), types.GetLivemode(ctx), types.StatusPublished)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ierr.WithError(err).
				WithHintf("Price %s was not found", id).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get price").
			Mark(ierr.ErrDatabase)
	}
	return &p, nil
}

func (r *priceRepository) GetBySlug(ctx context.Context, slug string) (*price.Price, error) {
	query := `
	SELECT ` + priceColumns + `
	FROM prices
	WHERE slug = $1 AND organization_id = $2 AND livemode = $3 AND status = $4
	`

	var p price.Price
	err := r.db.GetQuerier(ctx).GetContext(ctx, &p, query,
		slug, types.GetOrganizationID(ctx), types.GetLivemode(ctx), types.StatusPublished)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ierr.WithError(err).
				WithHintf("Price with slug %s was not found", slug).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get price by slug").
			Mark(ierr.ErrDatabase)
	}
	return &p, nil
}

func (r *priceRepository) ListByProduct(ctx context.Context, productID string) ([]*price.Price, error) {
	query := `
	SELECT ` + priceColumns + `
	FROM prices
	WHERE product_id = $1 AND organization_id = $2 AND livemode = $3 AND status = $4
	ORDER BY created_at DESC
	`

	var prices []*price.Price
	err := r.db.GetQuerier(ctx).SelectContext(ctx, &prices, query,
		productID, types.GetOrganizationID(ctx), types.GetLivemode(ctx), types.StatusPublished)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list prices by product").
			Mark(ierr.ErrDatabase)
	}
	return prices, nil
}

func (r *priceRepository) ListByUsageMeter(ctx context.Context, usageMeterID string) ([]*price.Price, error) {
	query := `
	SELECT ` + priceColumns + `
	FROM prices
	WHERE usage_meter_id = $1 AND organization_id = $2 AND livemode = $3 AND status = $4
	ORDER BY created_at DESC
	`

	var prices []*price.Price
	err := r.db.GetQuerier(ctx).SelectContext(ctx, &prices, query,
		usageMeterID, types.GetOrganizationID(ctx), types.GetLivemode(ctx), types.StatusPublished)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list prices by meter").
			Mark(ierr.ErrDatabase)
	}
	return prices, nil
}
