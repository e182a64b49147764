package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/metergrid/metergrid/internal/api/dto"
	ierr "github.com/metergrid/metergrid/internal/errors"
	"github.com/metergrid/metergrid/internal/logger"
	"github.com/metergrid/metergrid/internal/service"
)

type MeterHandler struct {
	service service.MeterService
	log     *logger.Logger
}

func NewMeterHandler(service service.MeterService, log *logger.Logger) *MeterHandler {
	return &MeterHandler{service: service, log: log}
}

func (h *MeterHandler) CreateMeter(c *gin.Context) {
	ctx := c.Request.Context()
	var req dto.CreateUsageMeterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Errorw("failed to bind meter request", "error", err)
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.CreateUsageMeter(ctx, req)
	if err != nil {
		h.log.Errorw("failed to create meter", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func (h *MeterHandler) GetMeter(c *gin.Context) {
	ctx := c.Request.Context()
	resp, err := h.service.GetUsageMeter(ctx, c.Param("id"))
	if err != nil {
		h.log.Errorw("failed to get meter", "error", err)
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *MeterHandler) ListMeters(c *gin.Context) {
	ctx := c.Request.Context()
	resp, err := h.service.ListUsageMeters(ctx)
	if err != nil {
		h.log.Errorw("failed to list meters", "error", err)
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
