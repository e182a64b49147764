package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/metergrid/metergrid/internal/api/dto"
	ierr "github.com/metergrid/metergrid/internal/errors"
	"github.com/metergrid/metergrid/internal/logger"
	"github.com/metergrid/metergrid/internal/service"
)

type PaymentHandler struct {
	service service.PaymentService
	log     *logger.Logger
}

func NewPaymentHandler(service service.PaymentService, log *logger.Logger) *PaymentHandler {
	return &PaymentHandler{service: service, log: log}
}

// HandlePaymentWebhook accepts normalized payment events from the processor
// integration. Retried deliveries are safe: the response reflects the state
// recorded on first delivery.
func (h *PaymentHandler) HandlePaymentWebhook(c *gin.Context) {
	ctx := c.Request.Context()
	var req dto.PaymentSucceededEvent
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Errorw("failed to bind payment event", "error", err)
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.HandlePaymentSucceeded(ctx, req)
	if err != nil {
		h.log.Errorw("failed to process payment event", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
