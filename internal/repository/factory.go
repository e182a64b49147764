package repository

import (
	"github.com/metergrid/metergrid/internal/domain/billingperiod"
	"github.com/metergrid/metergrid/internal/domain/customer"
	"github.com/metergrid/metergrid/internal/domain/events"
	"github.com/metergrid/metergrid/internal/domain/feature"
	"github.com/metergrid/metergrid/internal/domain/ledger"
	"github.com/metergrid/metergrid/internal/domain/meter"
	"github.com/metergrid/metergrid/internal/domain/payment"
	"github.com/metergrid/metergrid/internal/domain/price"
	"github.com/metergrid/metergrid/internal/domain/subscription"
	"github.com/metergrid/metergrid/internal/domain/usagecredit"
	"github.com/metergrid/metergrid/internal/logger"
	"github.com/metergrid/metergrid/internal/postgres"
	postgresRepo "github.com/metergrid/metergrid/internal/repository/postgres"
)

func NewMeterRepository(db *postgres.DB, logger *logger.Logger) meter.Repository {
	return postgresRepo.NewMeterRepository(db, logger)
}

func NewPriceRepository(db *postgres.DB, logger *logger.Logger) price.Repository {
	return postgresRepo.NewPriceRepository(db, logger)
}

func NewFeatureRepository(db *postgres.DB, logger *logger.Logger) feature.Repository {
	return postgresRepo.NewFeatureRepository(db, logger)
}

func NewCustomerRepository(db *postgres.DB, logger *logger.Logger) customer.Repository {
	return postgresRepo.NewCustomerRepository(db, logger)
}

func NewSubscriptionRepository(db *postgres.DB, logger *logger.Logger) subscription.Repository {
	return postgresRepo.NewSubscriptionRepository(db, logger)
}

func NewBillingPeriodRepository(db *postgres.DB, logger *logger.Logger) billingperiod.Repository {
	return postgresRepo.NewBillingPeriodRepository(db, logger)
}

func NewEventRepository(db *postgres.DB, logger *logger.Logger) events.Repository {
	return postgresRepo.NewEventRepository(db, logger)
}

func NewUsageCreditRepository(db *postgres.DB, logger *logger.Logger) usagecredit.Repository {
	return postgresRepo.NewUsageCreditRepository(db, logger)
}

func NewPaymentRepository(db *postgres.DB, logger *logger.Logger) payment.Repository {
	return postgresRepo.NewPaymentRepository(db, logger)
}

func NewLedgerRepository(db *postgres.DB, logger *logger.Logger) ledger.Repository {
	return postgresRepo.NewLedgerRepository(db, logger)
}
