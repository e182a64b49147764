package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	v1 "github.com/metergrid/metergrid/internal/api/v1"
	"github.com/metergrid/metergrid/internal/logger"
	"github.com/metergrid/metergrid/internal/rest/middleware"
)

type Handlers struct {
	Events  *v1.EventsHandler
	Meter   *v1.MeterHandler
	Price   *v1.PriceHandler
	Feature *v1.FeatureHandler
	Credit  *v1.CreditHandler
	Payment *v1.PaymentHandler
	Ledger  *v1.LedgerHandler
}

func NewRouter(handlers Handlers, log *logger.Logger) *gin.Engine {
	router := gin.New()

	router.Use(
		gin.Recovery(),
		middleware.RequestIDMiddleware,
		middleware.CORSMiddleware,
		middleware.ErrorHandler(),
	)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// v1 routes, all behind the tenant scope set by the authn proxy
	v1Group := router.Group("/v1", middleware.TenantMiddleware(log))
	registerV1Routes(v1Group, handlers)

	return router
}

func registerV1Routes(router *gin.RouterGroup, handlers Handlers) {
	events := router.Group("/events")
	{
		events.POST("/usage", handlers.Events.IngestUsageEvent)
		events.GET("/usage", handlers.Events.ListUsageEvents)
		events.GET("/usage/:id", handlers.Events.GetUsageEvent)
	}

	meters := router.Group("/meters")
	{
		meters.POST("", handlers.Meter.CreateMeter)
		meters.GET("", handlers.Meter.ListMeters)
		meters.GET("/:id", handlers.Meter.GetMeter)
	}

	prices := router.Group("/prices")
	{
		prices.POST("", handlers.Price.CreatePrice)
		prices.GET("", handlers.Price.ListPrices)
		prices.GET("/:id", handlers.Price.GetPrice)
	}

	features := router.Group("/features")
	{
		features.POST("", handlers.Feature.CreateFeature)
		features.GET("", handlers.Feature.ListFeatures)
		features.GET("/:id", handlers.Feature.GetFeature)
	}

	credits := router.Group("/credits")
	{
		credits.POST("/renewals", handlers.Credit.GrantRenewalCredits)
		credits.POST("/applications", handlers.Credit.ApplyCreditToUsage)
		credits.POST("/adjustments", handlers.Credit.AdjustCreditBalance)
		credits.GET("/:id", handlers.Credit.GetUsageCredit)
	}

	subscriptions := router.Group("/subscriptions")
	{
		subscriptions.GET("/:id/balance", handlers.Ledger.GetBalance)
	}

	webhooks := router.Group("/webhooks")
	{
		webhooks.POST("/payments", handlers.Payment.HandlePaymentWebhook)
	}
}
