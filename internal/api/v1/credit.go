package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/metergrid/metergrid/internal/api/dto"
	ierr "github.com/metergrid/metergrid/internal/errors"
	"github.com/metergrid/metergrid/internal/logger"
	"github.com/metergrid/metergrid/internal/service"
)

type CreditHandler struct {
	service service.CreditService
	log     *logger.Logger
}

func NewCreditHandler(service service.CreditService, log *logger.Logger) *CreditHandler {
	return &CreditHandler{service: service, log: log}
}

// GrantRenewalCredits re-issues recurring grants for a new billing period
func (h *CreditHandler) GrantRenewalCredits(c *gin.Context) {
	ctx := c.Request.Context()
	var req dto.GrantRenewalCreditsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Errorw("failed to bind renewal grant request", "error", err)
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.GrantRenewalCredits(ctx, req)
	if err != nil {
		h.log.Errorw("failed to grant renewal credits", "error", err)
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CreditHandler) ApplyCreditToUsage(c *gin.Context) {
	ctx := c.Request.Context()
	var req dto.ApplyCreditToUsageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Errorw("failed to bind credit application request", "error", err)
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.ApplyCreditToUsage(ctx, req)
	if err != nil {
		h.log.Errorw("failed to apply credit", "error", err)
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CreditHandler) AdjustCreditBalance(c *gin.Context) {
	ctx := c.Request.Context()
	var req dto.AdjustCreditBalanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Errorw("failed to bind balance adjustment request", "error", err)
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.AdjustCreditBalance(ctx, req)
	if err != nil {
		h.log.Errorw("failed to adjust credit balance", "error", err)
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CreditHandler) GetUsageCredit(c *gin.Context) {
	ctx := c.Request.Context()
	credit, err := h.service.GetUsageCredit(ctx, c.Param("id"))
	if err != nil {
		h.log.Errorw("failed to get usage credit", "error", err)
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, credit)
}
