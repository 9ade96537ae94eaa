package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/meterline/meterline/internal/api/dto"
	ierr "github.com/meterline/meterline/internal/errors"
	"github.com/meterline/meterline/internal/logger"
	"github.com/meterline/meterline/internal/service"
	"github.com/meterline/meterline/internal/types"
)

type LedgerHandler struct {
	service service.LedgerService
	log     *logger.Logger
}

func NewLedgerHandler(service service.LedgerService, log *logger.Logger) *LedgerHandler {
	return &LedgerHandler{service: service, log: log}
}

// @Summary Create a ledger account
// @Description Provision the accumulation scope for one subscription and usage meter pair. Idempotent per pair.
// @Tags Ledger
// @Accept json
// @Produce json
// @Param account body dto.CreateLedgerAccountRequest true "Ledger account configuration"
// @Success 201 {object} dto.LedgerAccountResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 500 {object} ierr.ErrorResponse
// @Router /ledger/accounts [post]
func (h *LedgerHandler) CreateAccount(c *gin.Context) {
	var req dto.CreateLedgerAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.CreateAccount(c.Request.Context(), req)
	if err != nil {
		h.log.Error("Failed to create ledger account", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// @Summary Get a ledger account
// @Description Get a ledger account by ID
// @Tags Ledger
// @Accept json
// @Produce json
// @Param id path string true "Ledger account ID"
// @Success 200 {object} dto.LedgerAccountResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /ledger/accounts/{id} [get]
func (h *LedgerHandler) GetAccount(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.Error(ierr.NewError("ledger account id is required").
			WithHint("Ledger account ID must be provided in the URL path").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.GetAccount(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Get a ledger account balance
// @Description Aggregate the account balance in the requested consistency mode
// @Tags Ledger
// @Accept json
// @Produce json
// @Param id path string true "Ledger account ID"
// @Param mode query string false "Balance mode (posted or available, default posted)"
// @Success 200 {object} dto.BalanceResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /ledger/accounts/{id}/balance [get]
func (h *LedgerHandler) GetBalance(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.Error(ierr.NewError("ledger account id is required").
			WithHint("Ledger account ID must be provided in the URL path").
			Mark(ierr.ErrValidation))
		return
	}

	mode := types.BalanceMode(c.DefaultQuery("mode", string(types.BalanceModePosted)))

	resp, err := h.service.GetBalance(c.Request.Context(), id, mode)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Create a ledger transaction
// @Description Insert a transaction with its entries atomically. Redeliveries with a known idempotency key replay the committed transaction.
// @Tags Ledger
// @Accept json
// @Produce json
// @Param transaction body dto.CreateLedgerTransactionRequest true "Transaction with entries"
// @Success 201 {object} dto.LedgerTransactionResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 500 {object} ierr.ErrorResponse
// @Router /ledger/transactions [post]
func (h *LedgerHandler) CreateTransaction(c *gin.Context) {
	var req dto.CreateLedgerTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.CreateTransaction(c.Request.Context(), req)
	if err != nil {
		h.log.Error("Failed to create ledger transaction", "error", err)
		c.Error(err)
		return
	}

	if resp.Replayed {
		c.JSON(http.StatusOK, resp)
		return
	}
	c.JSON(http.StatusCreated, resp)
}
