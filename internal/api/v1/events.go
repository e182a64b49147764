package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/metergrid/metergrid/internal/api/dto"
	ierr "github.com/metergrid/metergrid/internal/errors"
	"github.com/metergrid/metergrid/internal/logger"
	"github.com/metergrid/metergrid/internal/service"
)

type EventsHandler struct {
	service service.EventService
	log     *logger.Logger
}

func NewEventsHandler(service service.EventService, log *logger.Logger) *EventsHandler {
	return &EventsHandler{service: service, log: log}
}

// IngestUsageEvent accepts one usage event. Duplicate submissions on the same
// (transaction_id, meter) return the original row with 200 instead of 201.
func (h *EventsHandler) IngestUsageEvent(c *gin.Context) {
	ctx := c.Request.Context()
	var req dto.IngestUsageEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Errorw("failed to bind usage event", "error", err)
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.IngestUsageEvent(ctx, req)
	if err != nil {
		h.log.Errorw("failed to ingest usage event", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func (h *EventsHandler) GetUsageEvent(c *gin.Context) {
	ctx := c.Request.Context()
	resp, err := h.service.GetUsageEvent(ctx, c.Param("id"))
	if err != nil {
		h.log.Errorw("failed to get usage event", "error", err)
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *EventsHandler) ListUsageEvents(c *gin.Context) {
	ctx := c.Request.Context()
	subscriptionID := c.Query("subscription_id")
	if subscriptionID == "" {
		c.Error(ierr.NewError("subscription_id is required").
			WithHint("Provide a subscription_id query parameter").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.ListUsageEvents(ctx, subscriptionID)
	if err != nil {
		h.log.Errorw("failed to list usage events", "error", err)
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
