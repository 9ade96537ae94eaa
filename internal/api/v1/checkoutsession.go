package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/meterline/meterline/internal/api/dto"
	ierr "github.com/meterline/meterline/internal/errors"
	"github.com/meterline/meterline/internal/logger"
	"github.com/meterline/meterline/internal/service"
)

type CheckoutSessionHandler struct {
	service service.CheckoutSessionService
	log     *logger.Logger
}

func NewCheckoutSessionHandler(service service.CheckoutSessionService, log *logger.Logger) *CheckoutSessionHandler {
	return &CheckoutSessionHandler{service: service, log: log}
}

// @Summary Create a checkout session
// @Description Open a checkout session. The session type determines which payload fields are required and which reconciliation branch processes its setup intent.
// @Tags Checkout
// @Accept json
// @Produce json
// @Param session body dto.CreateCheckoutSessionRequest true "Checkout session configuration"
// @Success 201 {object} dto.CheckoutSessionResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /checkout/sessions [post]
func (h *CheckoutSessionHandler) CreateCheckoutSession(c *gin.Context) {
	var req dto.CreateCheckoutSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.CreateCheckoutSession(c.Request.Context(), req)
	if err != nil {
		h.log.Error("Failed to create checkout session", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// @Summary Get a checkout session
// @Description Get a checkout session by ID
// @Tags Checkout
// @Accept json
// @Produce json
// @Param id path string true "Checkout session ID"
// @Success 200 {object} dto.CheckoutSessionResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /checkout/sessions/{id} [get]
func (h *CheckoutSessionHandler) GetCheckoutSession(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.Error(ierr.NewError("checkout session id is required").
			WithHint("Checkout session ID must be provided in the URL path").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.GetCheckoutSession(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
