package service

import (
	"context"

	"github.com/metergrid/metergrid/internal/cache"
	"github.com/metergrid/metergrid/internal/config"
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
)

// TxRunner executes a function inside one atomic unit of work. postgres.DB
// implements it; tests substitute a passthrough.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// ServiceParams holds common dependencies for services
type ServiceParams struct {
	Logger *logger.Logger
	Config *config.Configuration
	DB     TxRunner
	Cache  cache.Cache

	// Repositories
	MeterRepo         meter.Repository
	PriceRepo         price.Repository
	FeatureRepo       feature.Repository
	CustomerRepo      customer.Repository
	SubscriptionRepo  subscription.Repository
	BillingPeriodRepo billingperiod.Repository
	EventRepo         events.Repository
	UsageCreditRepo   usagecredit.Repository
	PaymentRepo       payment.Repository
	LedgerRepo        ledger.Repository
}

// NewServiceParams assembles the common service dependencies
func NewServiceParams(
	logger *logger.Logger,
	config *config.Configuration,
	db *postgres.DB,
	cacheClient cache.Cache,
	meterRepo meter.Repository,
	priceRepo price.Repository,
	featureRepo feature.Repository,
	customerRepo customer.Repository,
	subscriptionRepo subscription.Repository,
	billingPeriodRepo billingperiod.Repository,
	eventRepo events.Repository,
	usageCreditRepo usagecredit.Repository,
	paymentRepo payment.Repository,
	ledgerRepo ledger.Repository,
) ServiceParams {
	return ServiceParams{
		Logger:            logger,
		Config:            config,
		DB:                db,
		Cache:             cacheClient,
		MeterRepo:         meterRepo,
		PriceRepo:         priceRepo,
		FeatureRepo:       featureRepo,
		CustomerRepo:      customerRepo,
		SubscriptionRepo:  subscriptionRepo,
		BillingPeriodRepo: billingPeriodRepo,
		EventRepo:         eventRepo,
		UsageCreditRepo:   usageCreditRepo,
		PaymentRepo:       paymentRepo,
		LedgerRepo:        ledgerRepo,
	}
}
