package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/metergrid/metergrid/internal/api/dto"
	ierr "github.com/metergrid/metergrid/internal/errors"
	"github.com/metergrid/metergrid/internal/logger"
	"github.com/metergrid/metergrid/internal/service"
)

type PriceHandler struct {
	service service.PriceService
	log     *logger.Logger
}

func NewPriceHandler(service service.PriceService, log *logger.Logger) *PriceHandler {
	return &PriceHandler{service: service, log: log}
}

func (h *PriceHandler) CreatePrice(c *gin.Context) {
	ctx := c.Request.Context()
	var req dto.CreatePriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Errorw("failed to bind price request", "error", err)
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.CreatePrice(ctx, req)
	if err != nil {
		h.log.Errorw("failed to create price", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func (h *PriceHandler) GetPrice(c *gin.Context) {
	ctx := c.Request.Context()
	resp, err := h.service.GetPrice(ctx, c.Param("id"))
	if err != nil {
		h.log.Errorw("failed to get price", "error", err)
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *PriceHandler) ListPrices(c *gin.Context) {
	ctx := c.Request.Context()

	productID := c.Query("product_id")
	usageMeterID := c.Query("usage_meter_id")
	if (productID == "") == (usageMeterID == "") {
		c.Error(ierr.NewError("exactly one of product_id and usage_meter_id is required").
			WithHint("Provide either a product_id or a usage_meter_id query parameter").
			Mark(ierr.ErrValidation))
		return
	}

	var resp *dto.ListPricesResponse
	var err error
	if productID != "" {
		resp, err = h.service.ListPricesByProduct(ctx, productID)
	} else {
		resp, err = h.service.ListPricesByUsageMeter(ctx, usageMeterID)
	}
	if err != nil {
		h.log.Errorw("failed to list prices", "error", err)
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
