package v1

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/meterline/meterline/internal/api/dto"
	ierr "github.com/meterline/meterline/internal/errors"
	"github.com/meterline/meterline/internal/logger"
	"github.com/meterline/meterline/internal/service"
)

type CreditHandler struct {
	service service.CreditService
	log     *logger.Logger
}

func NewCreditHandler(service service.CreditService, log *logger.Logger) *CreditHandler {
	return &CreditHandler{service: service, log: log}
}

// @Summary Issue a credit grant
// @Description Grant credit to a ledger account and book its recognition entry atomically. Idempotent per grant.
// @Tags Credits
// @Accept json
// @Produce json
// @Param credit body dto.IssueCreditRequest true "Credit grant"
// @Success 201 {object} dto.CreditResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /credits [post]
func (h *CreditHandler) IssueCredit(c *gin.Context) {
	var req dto.IssueCreditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.IssueCredit(c.Request.Context(), req)
	if err != nil {
		h.log.Error("Failed to issue credit", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// @Summary Get a credit grant
// @Description Get a credit grant by ID
// @Tags Credits
// @Accept json
// @Produce json
// @Param id path string true "Credit ID"
// @Success 200 {object} dto.CreditResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /credits/{id} [get]
func (h *CreditHandler) GetCredit(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.Error(ierr.NewError("credit id is required").
			WithHint("Credit ID must be provided in the URL path").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.GetCredit(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Expire credit grants
// @Description Book offsetting debits for the unconsumed remainder of every grant expired as of the given instant. Defaults to now.
// @Tags Credits
// @Accept json
// @Produce json
// @Param as_of query string false "Expiry cutoff (RFC3339, default now)"
// @Success 200 {object} dto.ExpireCreditsResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Router /credits/expire [post]
func (h *CreditHandler) ExpireCredits(c *gin.Context) {
	asOf := time.Now().UTC()
	if raw := c.Query("as_of"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.Error(ierr.WithError(err).
				WithHint("as_of must be a valid RFC3339 timestamp").
				Mark(ierr.ErrValidation))
			return
		}
		asOf = parsed
	}

	resp, err := h.service.ExpireCredits(c.Request.Context(), asOf)
	if err != nil {
		h.log.Error("Failed to expire credits", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
