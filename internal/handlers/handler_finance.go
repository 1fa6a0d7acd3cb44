package handlers

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/SscSPs/finance_sync/internal/apperrors"
	"github.com/SscSPs/finance_sync/internal/core/domain"
	portssvc "github.com/SscSPs/finance_sync/internal/core/ports/services"
	"github.com/SscSPs/finance_sync/internal/dto"
	"github.com/SscSPs/finance_sync/internal/middleware"
	"github.com/gin-gonic/gin"
)

// financeHandler handles operations spanning more than one CRUD call.
type financeHandler struct {
	financeService portssvc.FinanceSvc
}

func newFinanceHandler(fs portssvc.FinanceSvc) *financeHandler {
	return &financeHandler{financeService: fs}
}

// registerFinanceRoutes registers the finance operation routes.
func registerFinanceRoutes(rg *gin.RouterGroup, financeService portssvc.FinanceSvc) {
	h := newFinanceHandler(financeService)

	rg.POST("/accounts/transfer", h.transfer)
	rg.POST("/shared-debts/:id/payments", h.recordDebtPayment)
	rg.GET("/investments/positions", h.listPositions)
	rg.GET("/contacts/lookup", h.lookupContact)
}

// transfer godoc
// @Summary Transfer money between accounts
// @Description Debits one account and credits the other with two explicit updates. A failed credit reverts the debit.
// @Tags finance
// @Accept json
// @Produce json
// @Param request body dto.TransferRequest true "Transfer details"
// @Success 200 {object} dto.TransferResponse
// @Failure 400 {object} map[string]string "Invalid input or validation error"
// @Failure 404 {object} map[string]string "Account not found"
// @Security BearerAuth
// @Router /accounts/transfer [post]
func (h *financeHandler) transfer(c *gin.Context) {
	var req dto.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.GetLoggerFromCtx(c.Request.Context()).Warn("Failed to bind JSON for Transfer", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	from, to, err := h.financeService.TransferBetweenAccounts(c.Request.Context(), req.FromAccountID, req.ToAccountID, req.Amount)
	if err != nil {
		respondError(c, err, string(domain.Accounts), "Failed to transfer between accounts")
		return
	}
	c.JSON(http.StatusOK, dto.TransferResponse{From: from, To: to})
}

// recordDebtPayment godoc
// @Summary Record a payment against a shared debt
// @Description Lowers the current amount; reaching zero marks the debt paid.
// @Tags finance
// @Accept json
// @Produce json
// @Param id path string true "Shared debt ID"
// @Param request body dto.PaymentRequest true "Payment"
// @Success 200 {object} domain.SharedDebt
// @Failure 400 {object} map[string]string "Invalid payment"
// @Failure 404 {object} map[string]string "Debt not found"
// @Security BearerAuth
// @Router /shared-debts/{id}/payments [post]
func (h *financeHandler) recordDebtPayment(c *gin.Context) {
	var req dto.PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.GetLoggerFromCtx(c.Request.Context()).Warn("Failed to bind JSON for RecordDebtPayment", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	debt, err := h.financeService.RecordDebtPayment(c.Request.Context(), c.Param("id"), req.Amount)
	if err != nil {
		respondError(c, err, string(domain.SharedDebts), "Failed to record debt payment")
		return
	}
	c.JSON(http.StatusOK, debt)
}

// listPositions godoc
// @Summary List consolidated investment positions
// @Tags finance
// @Produce json
// @Success 200 {object} dto.PositionsResponse
// @Security BearerAuth
// @Router /investments/positions [get]
func (h *financeHandler) listPositions(c *gin.Context) {
	positions := h.financeService.InvestmentPositions(c.Request.Context())
	if positions == nil {
		positions = []domain.Position{}
	}
	c.JSON(http.StatusOK, dto.PositionsResponse{Positions: positions})
}

// lookupContact godoc
// @Summary Find a contact by email
// @Tags finance
// @Produce json
// @Param email query string true "Email, matched case-insensitively"
// @Success 200 {object} domain.Contact
// @Failure 400 {object} map[string]string "Missing or invalid email"
// @Failure 404 {object} map[string]string "No contact with that email"
// @Security BearerAuth
// @Router /contacts/lookup [get]
func (h *financeHandler) lookupContact(c *gin.Context) {
	var params dto.ContactLookupParams
	if err := c.ShouldBindQuery(&params); err != nil {
		respondError(c, fmt.Errorf("%w: %v", apperrors.ErrValidation, err), string(domain.Contacts), "Invalid contact lookup")
		return
	}

	contact, err := h.financeService.FindContactByEmail(c.Request.Context(), params.Email)
	if err != nil {
		respondError(c, err, string(domain.Contacts), "Contact lookup failed")
		return
	}
	c.JSON(http.StatusOK, contact)
}
