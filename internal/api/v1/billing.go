package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/meterline/meterline/internal/api/dto"
	ierr "github.com/meterline/meterline/internal/errors"
	"github.com/meterline/meterline/internal/logger"
	"github.com/meterline/meterline/internal/service"
)

type BillingHandler struct {
	service service.CreditApplicationService
	log     *logger.Logger
}

func NewBillingHandler(service service.CreditApplicationService, log *logger.Logger) *BillingHandler {
	return &BillingHandler{service: service, log: log}
}

// @Summary Run a billing recalculation
// @Description Compute the outstanding debit on a ledger account and write pending credit applications against eligible grants. Re-running with the same idempotency key supersedes the previous run.
// @Tags Billing
// @Accept json
// @Produce json
// @Param recalculation body dto.BillingRecalculationRequest true "Recalculation run"
// @Success 200 {object} dto.LedgerTransactionResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /billing/recalculations [post]
func (h *BillingHandler) RunRecalculation(c *gin.Context) {
	var req dto.BillingRecalculationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.RunBillingRecalculation(c.Request.Context(), req)
	if err != nil {
		h.log.Error("Failed to run billing recalculation", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Finalize a billing recalculation
// @Description Post all surviving pending entries of the recalculation run atomically. Already finalized runs are a no-op.
// @Tags Billing
// @Accept json
// @Produce json
// @Param id path string true "Ledger transaction ID"
// @Success 200 {object} dto.LedgerTransactionResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /billing/recalculations/{id}/finalize [post]
func (h *BillingHandler) FinalizeRecalculation(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.Error(ierr.NewError("transaction id is required").
			WithHint("Ledger transaction ID must be provided in the URL path").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.FinalizeBillingRecalculation(c.Request.Context(), id)
	if err != nil {
		h.log.Error("Failed to finalize billing recalculation", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
