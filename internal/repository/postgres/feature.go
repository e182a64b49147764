package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/metergrid/metergrid/internal/domain/feature"
	ierr "github.com/metergrid/metergrid/internal/errors"
	"github.com/metergrid/metergrid/internal/logger"
	"github.com/metergrid/metergrid/internal/postgres"
	"github.com/metergrid/metergrid/internal/types"
)

type featureRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewFeatureRepository(db *postgres.DB, logger *logger.Logger) feature.Repository {
	return &featureRepository{db: db, logger: logger}
}

const featureColumns = `
	id, subscription_id, name, slug, description, type,
	amount, usage_meter_id, renewal_frequency,
	organization_id, livemode, status, created_at, updated_at, created_by, updated_by
`

func (r *featureRepository) Create(ctx context.Context, f *feature.Feature) error {
	if err := f.Validate(); err != nil {
		return err
	}

	query := `
	INSERT INTO features (` + featureColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	r.logger.Debugw("creating feature", "feature_id", f.ID, "type", f.Type)

	_, err := r.db.GetQuerier(ctx).ExecContext(ctx, query,
		f.ID, f.SubscriptionID, f.Name, f.Slug, f.Description, f.Type,
		f.Amount, f.UsageMeterID, f.RenewalFrequency,
		f.OrganizationID, f.Livemode, f.Status, f.CreatedAt, f.UpdatedAt, f.CreatedBy, f.UpdatedBy,
	)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return ierr.WithError(err).
				WithHint("A feature with this slug already exists for the subscription").
				Mark(ierr.ErrAlreadyExists)
		}
		return ierr.WithError(err).
			WithHint("Failed to create feature").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *featureRepository) Get(ctx context.Context, id string) (*feature.Feature, error) {
	query := `
	SELECT ` + featureColumns + `
	FROM features
	WHERE id = $1 AND organization_id = $2 AND livemode = $3 AND status = $4
	`

	var f feature.Feature
	err := r.db.GetQuerier(ctx).GetContext(ctx, &f, query,
		id, types.GetOrganizationID(ctx), types.GetLivemode(ctx), types.StatusPublished)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ierr.WithError(err).
				WithHintf("Feature %s was not found", id).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get feature").
			Mark(ierr.ErrDatabase)
	}
	return &f, nil
}

func (r *featureRepository) ListBySubscription(ctx context.Context, subscriptionID string) ([]*feature.Feature, error) {
	query := `
	SELECT ` + featureColumns + `
	FROM features
	WHERE subscription_id = $1 AND organization_id = $2 AND livemode = $3 AND status = $4
	ORDER BY created_at
	`

	var features []*feature.Feature
	err := r.db.GetQuerier(ctx).SelectContext(ctx, &features, query,
		subscriptionID, types.GetOrganizationID(ctx), types.GetLivemode(ctx), types.StatusPublished)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list features").
			Mark(ierr.ErrDatabase)
	}
	return features, nil
}
