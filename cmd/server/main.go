package main

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/metergrid/metergrid/internal/api"
	v1 "github.com/metergrid/metergrid/internal/api/v1"
	"github.com/metergrid/metergrid/internal/cache"
	"github.com/metergrid/metergrid/internal/config"
	"github.com/metergrid/metergrid/internal/logger"
	"github.com/metergrid/metergrid/internal/postgres"
	"github.com/metergrid/metergrid/internal/repository"
	"github.com/metergrid/metergrid/internal/service"
	"github.com/metergrid/metergrid/internal/validator"
	"go.uber.org/fx"
)

func init() {
	// Set UTC timezone for the entire application
	time.Local = time.UTC
}

func main() {
	app := fx.New(
		fx.Provide(
			// Validator
			validator.NewValidator,

			// Config
			config.NewConfig,

			// Logger
			logger.NewLogger,

			// Cache
			cache.NewInMemoryCache,

			// Postgres
			postgres.NewDB,

			// Repositories
			repository.NewMeterRepository,
			repository.NewPriceRepository,
			repository.NewFeatureRepository,
			repository.NewCustomerRepository,
			repository.NewSubscriptionRepository,
			repository.NewBillingPeriodRepository,
			repository.NewEventRepository,
			repository.NewUsageCreditRepository,
			repository.NewPaymentRepository,
			repository.NewLedgerRepository,

			// Services
			service.NewServiceParams,
			service.NewMeterService,
			service.NewPriceService,
			service.NewFeatureService,
			service.NewEventService,
			service.NewLedgerService,
			service.NewCreditService,
			service.NewPaymentService,

			provideHandlers,
			provideRouter,
		),
		fx.Invoke(startServer),
	)

	app.Run()
}

func provideHandlers(
	logger *logger.Logger,
	eventService service.EventService,
	meterService service.MeterService,
	priceService service.PriceService,
	featureService service.FeatureService,
	creditService service.CreditService,
	paymentService service.PaymentService,
	ledgerService service.LedgerService,
) api.Handlers {
	return api.Handlers{
		Events:  v1.NewEventsHandler(eventService, logger),
		Meter:   v1.NewMeterHandler(meterService, logger),
		Price:   v1.NewPriceHandler(priceService, logger),
		Feature: v1.NewFeatureHandler(featureService, logger),
		Credit:  v1.NewCreditHandler(creditService, logger),
		Payment: v1.NewPaymentHandler(paymentService, logger),
		Ledger:  v1.NewLedgerHandler(ledgerService, logger),
	}
}

func provideRouter(handlers api.Handlers, logger *logger.Logger) *gin.Engine {
	return api.NewRouter(handlers, logger)
}

func startServer(
	lc fx.Lifecycle,
	r *gin.Engine,
	cfg *config.Configuration,
	db *postgres.DB,
	log *logger.Logger,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infow("starting API server", "address", cfg.Server.Address)
			go func() {
				if err := r.Run(cfg.Server.Address); err != nil {
					log.Fatalf("Failed to start server: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Shutting down server...")
			db.Close()
			return nil
		},
	})
}
