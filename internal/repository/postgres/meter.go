package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/metergrid/metergrid/internal/domain/meter"
	ierr "github.com/metergrid/metergrid/internal/errors"
	"github.com/metergrid/metergrid/internal/logger"
	"github.com/metergrid/metergrid/internal/postgres"
	"github.com/metergrid/metergrid/internal/types"
)

type meterRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewMeterRepository(db *postgres.DB, logger *logger.Logger) meter.Repository {
	return &meterRepository{db: db, logger: logger}
}

const meterColumns = `
	id, name, slug, pricing_model_id, aggregation_type,
	organization_id, livemode, status, created_at, updated_at, created_by, updated_by
`

func (r *meterRepository) Create(ctx context.Context, m *meter.UsageMeter) error {
	query := `
	INSERT INTO usage_meters (` + meterColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	r.logger.Debugw("creating usage meter", "usage_meter_id", m.ID, "slug", m.Slug)

	_, err := r.db.GetQuerier(ctx).ExecContext(ctx, query,
		m.ID, m.Name, m.Slug, m.PricingModelID, m.AggregationType,
		m.OrganizationID, m.Livemode, m.Status, m.CreatedAt, m.UpdatedAt, m.CreatedBy, m.UpdatedBy,
	)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return ierr.WithError(err).
				WithHint("A meter with this slug already exists").
				Mark(ierr.ErrAlreadyExists)
		}
		return ierr.WithError(err).
			WithHint("Failed to create meter").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *meterRepository) Get(ctx context.Context, id string) (*meter.UsageMeter, error) {
	query := `
	SELECT ` + meterColumns + `
	FROM usage_meters
	WHERE id = $1 AND organization_id = $2 AND livemode = $3 AND status = $4
	`

	var m meter.UsageMeter
	err := r.db.GetQuerier(ctx).GetContext(ctx, &m, query,
		id, types.GetOrganizationID(ctx), types.GetLivemode(ctx), types.StatusPublished)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ierr.WithError(err).
				WithHintf("Meter %s was not found", id).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get meter").
			Mark(ierr.ErrDatabase)
	}
	return &m, nil
}

func (r *meterRepository) GetBySlug(ctx context.Context, slug string) (*meter.UsageMeter, error) {
	query := `
	SELECT ` + meterColumns + `
	FROM usage_meters
	WHERE slug = $1 AND organization_id = $2 AND livemode = $3 AND status = $4
	`

	var m meter.UsageMeter
	err := r.db.GetQuerier(ctx).GetContext(ctx, &m, query,
		slug, types.GetOrganizationID(ctx), types.GetLivemode(ctx), types.StatusPublished)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ierr.WithError(err).
				WithHintf("Meter with slug %s was not found", slug).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get meter by slug").
			Mark(ierr.ErrDatabase)
	}
	return &m, nil
}

func (r *meterRepository) List(ctx context.Context) ([]*meter.UsageMeter, error) {
	query := `
	SELECT ` + meterColumns + `
	FROM usage_meters
	WHERE organization_id = $1 AND livemode = $2 AND status = $3
	ORDER BY created_at DESC
	`

	var meters []*meter.UsageMeter
	err := r.db.GetQuerier(ctx).SelectContext(ctx, &meters, query,
		types.GetOrganizationID(ctx), types.GetLivemode(ctx), types.StatusPublished)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list meters").
			Mark(ierr.ErrDatabase)
	}
	return meters, nil
}
