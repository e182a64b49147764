package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/metergrid/metergrid/internal/api/dto"
	ierr "github.com/metergrid/metergrid/internal/errors"
	"github.com/metergrid/metergrid/internal/logger"
	"github.com/metergrid/metergrid/internal/service"
)

type FeatureHandler struct {
	service service.FeatureService
	log     *logger.Logger
}

func NewFeatureHandler(service service.FeatureService, log *logger.Logger) *FeatureHandler {
	return &FeatureHandler{service: service, log: log}
}

func (h *FeatureHandler) CreateFeature(c *gin.Context) {
	ctx := c.Request.Context()
	var req dto.CreateFeatureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Errorw("failed to bind feature request", "error", err)
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.CreateFeature(ctx, req)
	if err != nil {
		h.log.Errorw("failed to create feature", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func (h *FeatureHandler) GetFeature(c *gin.Context) {
	ctx := c.Request.Context()
	resp, err := h.service.GetFeature(ctx, c.Param("id"))
	if err != nil {
		h.log.Errorw("failed to get feature", "error", err)
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *FeatureHandler) ListFeatures(c *gin.Context) {
	ctx := c.Request.Context()
	subscriptionID := c.Query("subscription_id")
	if subscriptionID == "" {
		c.Error(ierr.NewError("subscription_id is required").
			WithHint("Provide a subscription_id query parameter").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.ListFeaturesBySubscription(ctx, subscriptionID)
	if err != nil {
		h.log.Errorw("failed to list features", "error", err)
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
