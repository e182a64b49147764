package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/metergrid/metergrid/internal/domain/payment"
	ierr "github.com/metergrid/metergrid/internal/errors"
	"github.com/metergrid/metergrid/internal/logger"
	"github.com/metergrid/metergrid/internal/postgres"
	"github.com/metergrid/metergrid/internal/types"
)

type paymentRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewPaymentRepository(db *postgres.DB, logger *logger.Logger) payment.Repository {
	return &paymentRepository{db: db, logger: logger}
}

const paymentColumns = `
	id, customer_id, subscription_id, amount, currency, payment_status, processor_transaction_id,
	organization_id, livemode, status, created_at, updated_at, created_by, updated_by
`

func (r *paymentRepository) Create(ctx context.Context, p *payment.Payment) error {
	if err := p.Validate(); err != nil {
		return err
	}

	query := `
	INSERT INTO payments (` + paymentColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	r.logger.Debugw("recording payment",
		"payment_id", p.ID,
		"processor_transaction_id", p.ProcessorTransactionID,
	)

	_, err := r.db.GetQuerier(ctx).ExecContext(ctx, query,
		p.ID, p.CustomerID, p.SubscriptionID, p.Amount, p.Currency, p.PaymentStatus, p.ProcessorTransactionID,
		p.OrganizationID, p.Livemode, p.Status, p.CreatedAt, p.UpdatedAt, p.CreatedBy, p.UpdatedBy,
	)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return ierr.WithError(err).
				WithHint("A payment with this processor transaction id is already recorded").
				Mark(ierr.ErrAlreadyExists)
		}
		return ierr.WithError(err).
			WithHint("Failed to record payment").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *paymentRepository) Get(ctx context.Context, id string) (*payment.Payment, error) {
	query := `
	SELECT ` + paymentColumns + `
	FROM payments
	WHERE id = $1 AND organization_id = $2 AND livemode = $3 AND status = $4
	`

	var p payment.Payment
	err := r.db.GetQuerier(ctx).GetContext(ctx, &p, query,
		id, types.GetOrganizationID(ctx), types.GetLivemode(ctx), types.StatusPublished)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ierr.WithError(err).
				WithHintf("Payment %s was not found", id).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get payment").
			Mark(ierr.ErrDatabase)
	}
	return &p, nil
}

func (r *paymentRepository) GetByProcessorTransactionID(ctx context.Context, processorTransactionID string) (*payment.Payment, error) {
	query := `
	SELECT ` + paymentColumns + `
	FROM payments
	WHERE processor_transaction_id = $1 AND organization_id = $2 AND livemode = $3 AND status = $4
	`

	var p payment.Payment
	err := r.db.GetQuerier(ctx).GetContext(ctx, &p, query,
		processorTransactionID, types.GetOrganizationID(ctx), types.GetLivemode(ctx), types.StatusPublished)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ierr.WithError(err).
				WithHint("No payment is recorded for this processor transaction id").
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get payment by processor transaction id").
			Mark(ierr.ErrDatabase)
	}
	return &p, nil
}
