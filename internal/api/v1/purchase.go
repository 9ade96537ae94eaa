package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/meterline/meterline/internal/api/dto"
	ierr "github.com/meterline/meterline/internal/errors"
	"github.com/meterline/meterline/internal/logger"
	"github.com/meterline/meterline/internal/service"
)

type PurchaseHandler struct {
	service service.PurchaseService
	log     *logger.Logger
}

func NewPurchaseHandler(service service.PurchaseService, log *logger.Logger) *PurchaseHandler {
	return &PurchaseHandler{service: service, log: log}
}

// @Summary Create a purchase
// @Description Create a one-time purchase order with subtotal, platform fee and discount amounts computed from the price
// @Tags Purchases
// @Accept json
// @Produce json
// @Param purchase body dto.CreatePurchaseRequest true "Purchase order"
// @Success 201 {object} dto.PurchaseResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /purchases [post]
func (h *PurchaseHandler) CreatePurchase(c *gin.Context) {
	var req dto.CreatePurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.CreatePurchase(c.Request.Context(), req)
	if err != nil {
		h.log.Error("Failed to create purchase", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// @Summary Get a purchase
// @Description Get a purchase by ID
// @Tags Purchases
// @Accept json
// @Produce json
// @Param id path string true "Purchase ID"
// @Success 200 {object} dto.PurchaseResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /purchases/{id} [get]
func (h *PurchaseHandler) GetPurchase(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.Error(ierr.NewError("purchase id is required").
			WithHint("Purchase ID must be provided in the URL path").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.GetPurchase(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
