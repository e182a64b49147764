package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/metergrid/metergrid/internal/api/dto"
	ierr "github.com/metergrid/metergrid/internal/errors"
	"github.com/metergrid/metergrid/internal/logger"
	"github.com/metergrid/metergrid/internal/service"
)

type LedgerHandler struct {
	service service.LedgerService
	log     *logger.Logger
}

func NewLedgerHandler(service service.LedgerService, log *logger.Logger) *LedgerHandler {
	return &LedgerHandler{service: service, log: log}
}

// GetBalance returns the available balance of a subscription's meter
func (h *LedgerHandler) GetBalance(c *gin.Context) {
	ctx := c.Request.Context()
	subscriptionID := c.Param("id")
	usageMeterID := c.Query("usage_meter_id")
	if usageMeterID == "" {
		c.Error(ierr.NewError("usage_meter_id is required").
			WithHint("Provide a usage_meter_id query parameter").
			Mark(ierr.ErrValidation))
		return
	}

	balance, err := h.service.GetBalance(ctx, subscriptionID, usageMeterID)
	if err != nil {
		h.log.Errorw("failed to get balance", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.BalanceResponse{
		SubscriptionID: subscriptionID,
		UsageMeterID:   usageMeterID,
		Balance:        balance,
	})
}
