package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "brickvest/internal/errors"
	"brickvest/internal/pagination"
	"brickvest/internal/services"
)

// InvestmentHandler handles purchase-history requests. The history is an
// off-ledger mirror; the ledger itself remains the source of truth for
// holdings.
type InvestmentHandler struct {
	investmentService services.InvestmentServicer
}

// NewInvestmentHandler creates a new InvestmentHandler.
func NewInvestmentHandler(investmentService services.InvestmentServicer) *InvestmentHandler {
	return &InvestmentHandler{investmentService: investmentService}
}

// WalletHistoryRequest represents the query parameters for a wallet history lookup
type WalletHistoryRequest struct {
	pagination.PageRequest
	Address string `form:"address" binding:"required,eth_address"`
}

// GetUserInvestments lists the authenticated user's purchase history
// @Summary     List own investments
// @Description List the authenticated user's recorded share purchases, newest first
// @Tags        investments
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       page query int false "Page number"
// @Param       page_size query int false "Page size"
// @Success     200 {object} pagination.PageResponse[models.Investment] "Purchase history"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /investments [get]
func (h *InvestmentHandler) GetUserInvestments(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.investmentService.GetUserInvestments(userID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetInvestmentsByWallet lists recorded purchases made from a wallet address
// @Summary     List investments by wallet
// @Description List recorded share purchases made from a wallet address, newest first
// @Tags        investments
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       address query string true "Wallet address"
// @Param       page query int false "Page number"
// @Param       page_size query int false "Page size"
// @Success     200 {object} pagination.PageResponse[models.Investment] "Purchase history"
// @Failure     400 {object} ErrorResponse "Invalid address"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /investments/by-wallet [get]
func (h *InvestmentHandler) GetInvestmentsByWallet(c *gin.Context) {
	var req WalletHistoryRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.investmentService.GetInvestmentsByWallet(req.Address, req.PageRequest)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
