package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/metergrid/metergrid/internal/domain/customer"
	ierr "github.com/metergrid/metergrid/internal/errors"
	"github.com/metergrid/metergrid/internal/logger"
	"github.com/metergrid/metergrid/internal/postgres"
	"github.com/metergrid/metergrid/internal/types"
)

type customerRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewCustomerRepository(db *postgres.DB, logger *logger.Logger) customer.Repository {
	return &customerRepository{db: db, logger: logger}
}

const customerColumns = `
	id, name, external_id, email,
	organization_id, livemode, status, created_at, updated_at, created_by, updated_by
`

func (r *customerRepository) Create(ctx context.Context, c *customer.Customer) error {
	query := `
	INSERT INTO customers (` + customerColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.db.GetQuerier(ctx).ExecContext(ctx, query,
		c.ID, c.Name, c.ExternalID, c.Email,
		c.OrganizationID, c.Livemode, c.Status, c.CreatedAt, c.UpdatedAt, c.CreatedBy, c.UpdatedBy,
	)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return ierr.WithError(err).
				WithHint("A customer with this external id already exists").
				Mark(ierr.ErrAlreadyExists)
		}
		return ierr.WithError(err).
			WithHint("Failed to create customer").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *customerRepository) Get(ctx context.Context, id string) (*customer.Customer, error) {
	query := `
	SELECT ` + customerColumns + `
	FROM customers
	WHERE id = $1 AND organization_id = $2 AND livemode = $3 AND status = $4
	`

	var c customer.Customer
	err := r.db.GetQuerier(ctx).GetContext(ctx, &c, query,
		id, types.GetOrganizationID(ctx), types.GetLivemode(ctx), types.StatusPublished)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ierr.WithError(err).
				WithHintf("Customer %s was not found", id).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get customer").
			Mark(ierr.ErrDatabase)
	}
	return &c, nil
}
