package testutil

import (
	"context"
	"time"

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
	"github.com/metergrid/metergrid/internal/types"
	"github.com/metergrid/metergrid/internal/validator"
	"github.com/stretchr/testify/suite"
)

// Stores holds all the repository interfaces for testing
type Stores struct {
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

// BaseServiceTestSuite provides common functionality for all service test suites
type BaseServiceTestSuite struct {
	suite.Suite
	ctx    context.Context
	stores Stores
	db     *PassthroughTxRunner
	cache  cache.Cache
	logger *logger.Logger
	config *config.Configuration
	now    time.Time
}

// SetupSuite is called once before running the tests in the suite
func (s *BaseServiceTestSuite) SetupSuite() {
	validator.NewValidator()

	cfg := &config.Configuration{
		Logging: config.LoggingConfig{
			Level: types.LogLevelInfo,
		},
	}
	var err error
	s.config = cfg
	s.logger, err = logger.NewLogger(cfg)
	if err != nil {
		s.T().Fatalf("failed to create logger: %v", err)
	}
}

// SetupTest is called before each test
func (s *BaseServiceTestSuite) SetupTest() {
	s.ctx = SetupContext()
	s.db = NewPassthroughTxRunner()
	s.cache = cache.NewInMemoryCache()
	s.stores = Stores{
		MeterRepo:         NewInMemoryMeterStore(),
		PriceRepo:         NewInMemoryPriceStore(),
		FeatureRepo:       NewInMemoryFeatureStore(),
		CustomerRepo:      NewInMemoryCustomerStore(),
		SubscriptionRepo:  NewInMemorySubscriptionStore(),
		BillingPeriodRepo: NewInMemoryBillingPeriodStore(),
		EventRepo:         NewInMemoryEventStore(),
		UsageCreditRepo:   NewInMemoryUsageCreditStore(),
		PaymentRepo:       NewInMemoryPaymentStore(),
		LedgerRepo:        NewInMemoryLedgerStore(),
	}
	s.now = time.Now().UTC()
}

func (s *BaseServiceTestSuite) GetContext() context.Context {
	return s.ctx
}

// SetContext overrides the per-test context, ex for isolation tests running
// under a different tenant
func (s *BaseServiceTestSuite) SetContext(ctx context.Context) {
	s.ctx = ctx
}

func (s *BaseServiceTestSuite) GetStores() Stores {
	return s.stores
}

func (s *BaseServiceTestSuite) GetDB() *PassthroughTxRunner {
	return s.db
}

func (s *BaseServiceTestSuite) GetCache() cache.Cache {
	return s.cache
}

func (s *BaseServiceTestSuite) GetLogger() *logger.Logger {
	return s.logger
}

func (s *BaseServiceTestSuite) GetConfig() *config.Configuration {
	return s.config
}

func (s *BaseServiceTestSuite) GetNow() time.Time {
	return s.now
}
