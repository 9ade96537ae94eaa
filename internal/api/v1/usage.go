package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/meterline/meterline/internal/api/dto"
	ierr "github.com/meterline/meterline/internal/errors"
	"github.com/meterline/meterline/internal/logger"
	"github.com/meterline/meterline/internal/service"
)

type UsageHandler struct {
	service service.UsageService
	log     *logger.Logger
}

func NewUsageHandler(service service.UsageService, log *logger.Logger) *UsageHandler {
	return &UsageHandler{service: service, log: log}
}

// @Summary Ingest a usage event
// @Description Record a usage event and post its cost against the target ledger account atomically. Idempotent by transaction correlation ID.
// @Tags Usage
// @Accept json
// @Produce json
// @Param event body dto.IngestUsageEventRequest true "Usage event"
// @Success 201 {object} dto.UsageEventResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /usage/events [post]
func (h *UsageHandler) IngestEvent(c *gin.Context) {
	var req dto.IngestUsageEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.IngestUsageEvent(c.Request.Context(), req)
	if err != nil {
		h.log.Error("Failed to ingest usage event", "error", err)
		c.Error(err)
		return
	}

	if resp.Replayed {
		c.JSON(http.StatusOK, resp)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// @Summary Get a usage event
// @Description Get a usage event by ID
// @Tags Usage
// @Accept json
// @Produce json
// @Param id path string true "Usage event ID"
// @Success 200 {object} dto.UsageEventResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /usage/events/{id} [get]
func (h *UsageHandler) GetEvent(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.Error(ierr.NewError("usage event id is required").
			WithHint("Usage event ID must be provided in the URL path").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.GetUsageEvent(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
