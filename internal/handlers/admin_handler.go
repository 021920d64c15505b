package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "brickvest/internal/errors"
	"brickvest/internal/ledger"
	"brickvest/internal/services"
)

// adminAuditUser marks audit entries written by key-authenticated admin
// requests, which carry no user identity.
const adminAuditUser = "admin"

// AdminHandler handles administrative ledger writes. Routes using it are
// gated by the admin API key; the contract additionally enforces that the
// service wallet is the contract owner.
type AdminHandler struct {
	assetService services.AssetServicer
	auditService services.AuditServicer
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(assetService services.AssetServicer, auditService services.AuditServicer) *AdminHandler {
	return &AdminHandler{assetService: assetService, auditService: auditService}
}

// CreateAssetRequest represents the asset creation request payload
type CreateAssetRequest struct {
	Type         string `json:"type" binding:"required,asset_type"`
	Title        string `json:"title" binding:"required,max=200"`
	Description  string `json:"description" binding:"max=2000"`
	Valuation    string `json:"valuation" binding:"required,decimal_amount"`
	Deadline     string `json:"deadline" binding:"required"`
	Image        string `json:"image" binding:"omitempty,url,max=500"`
	TotalShares  int64  `json:"total_shares" binding:"required,gt=0"`
	SharePrice   string `json:"share_price" binding:"required,decimal_amount"`
	PaymentToken string `json:"payment_token" binding:"required,payment_token"`
}

// SetActiveRequest represents the activation toggle request payload
type SetActiveRequest struct {
	Active *bool `json:"active" binding:"required"`
}

// WithdrawRequest represents the funds withdrawal request payload
type WithdrawRequest struct {
	ToAddress string `json:"to_address" binding:"required,eth_address"`
}

// OwnerCheckRequest represents the query parameters for an owner check
type OwnerCheckRequest struct {
	Address string `form:"address" binding:"required,eth_address"`
}

// CreateAsset creates a new asset on the ledger
// @Summary     Create an asset
// @Description Create a new asset on the ledger; only the contract owner wallet may do this
// @Tags        admin
// @Accept      json
// @Produce     json
// @Security    AdminKeyAuth
// @Param       request body CreateAssetRequest true "Asset details"
// @Success     201 {object} map[string]string "Transaction hash"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     403 {object} ErrorResponse "Service wallet is not the contract owner"
// @Failure     502 {object} ErrorResponse "Ledger unreachable"
// @Failure     504 {object} ErrorResponse "Confirmation timed out"
// @Router      /admin/assets [post]
func (h *AdminHandler) CreateAsset(c *gin.Context) {
	var req CreateAssetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	assetType, ok := ledger.ParseAssetType(req.Type)
	if !ok {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "unknown asset type "+req.Type))
		return
	}

	deadline, err := time.Parse(time.RFC3339, req.Deadline)
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "deadline must be an RFC 3339 timestamp"))
		return
	}
	if !deadline.After(time.Now()) {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "deadline must be in the future"))
		return
	}

	txHash, err := h.assetService.CreateAsset(c.Request.Context(), ledger.CreateAssetParams{
		Type:         assetType,
		Title:        req.Title,
		Description:  req.Description,
		Valuation:    req.Valuation,
		Deadline:     deadline.Unix(),
		Image:        req.Image,
		TotalShares:  req.TotalShares,
		SharePrice:   req.SharePrice,
		PaymentToken: req.PaymentToken,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(adminAuditUser, "CREATE_ASSET", "asset", txHash, c.ClientIP(),
		map[string]interface{}{"title": req.Title, "type": req.Type, "total_shares": req.TotalShares})

	c.JSON(http.StatusCreated, gin.H{"transaction_hash": txHash})
}

// SetAssetActive toggles an asset's availability for purchase
// @Summary     Toggle asset availability
// @Description Activate or pause an asset on the ledger
// @Tags        admin
// @Accept      json
// @Produce     json
// @Security    AdminKeyAuth
// @Param       id path int true "Asset ID"
// @Param       request body SetActiveRequest true "Desired active state"
// @Success     200 {object} map[string]string "Transaction hash"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     403 {object} ErrorResponse "Service wallet is not the contract owner"
// @Failure     502 {object} ErrorResponse "Ledger unreachable"
// @Failure     504 {object} ErrorResponse "Confirmation timed out"
// @Router      /admin/assets/{id}/active [patch]
func (h *AdminHandler) SetAssetActive(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req SetActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	txHash, err := h.assetService.SetAssetActive(c.Request.Context(), id, *req.Active)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(adminAuditUser, "SET_ASSET_ACTIVE", "asset", strconv.FormatInt(id, 10), c.ClientIP(),
		map[string]interface{}{"active": *req.Active})

	c.JSON(http.StatusOK, gin.H{"transaction_hash": txHash})
}

// Withdraw transfers an asset's collected funds
// @Summary     Withdraw collected funds
// @Description Transfer an asset's collected funds to the given address
// @Tags        admin
// @Accept      json
// @Produce     json
// @Security    AdminKeyAuth
// @Param       id path int true "Asset ID"
// @Param       request body WithdrawRequest true "Destination address"
// @Success     200 {object} map[string]string "Transaction hash"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     403 {object} ErrorResponse "Service wallet is not the contract owner"
// @Failure     422 {object} ErrorResponse "No funds to withdraw"
// @Failure     502 {object} ErrorResponse "Ledger unreachable"
// @Failure     504 {object} ErrorResponse "Confirmation timed out"
// @Router      /admin/assets/{id}/withdraw [post]
func (h *AdminHandler) Withdraw(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req WithdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	txHash, err := h.assetService.Withdraw(c.Request.Context(), id, req.ToAddress)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(adminAuditUser, "WITHDRAW_FUNDS", "asset", strconv.FormatInt(id, 10), c.ClientIP(),
		map[string]interface{}{"to_address": req.ToAddress})

	c.JSON(http.StatusOK, gin.H{"transaction_hash": txHash})
}

// CheckOwner reports whether an address is the contract owner
// @Summary     Check contract ownership
// @Description Report whether the given address is the ledger contract's owner
// @Tags        admin
// @Accept      json
// @Produce     json
// @Security    AdminKeyAuth
// @Param       address query string true "Address to check"
// @Success     200 {object} map[string]bool "Ownership flag"
// @Failure     400 {object} ErrorResponse "Invalid address"
// @Failure     502 {object} ErrorResponse "Ledger unreachable"
// @Router      /admin/owner [get]
func (h *AdminHandler) CheckOwner(c *gin.Context) {
	var req OwnerCheckRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	isOwner, err := h.assetService.IsOwner(c.Request.Context(), req.Address)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"address": req.Address, "is_owner": isOwner})
}

// ResetSession drops the cached ledger session
// @Summary     Reset the ledger session
// @Description Drop the cached RPC connection and signer so the next call reconnects
// @Tags        admin
// @Produce     json
// @Security    AdminKeyAuth
// @Success     200 {object} map[string]string "Status"
// @Router      /admin/session/reset [post]
func (h *AdminHandler) ResetSession(c *gin.Context) {
	h.assetService.InvalidateSession()
	h.auditService.Log(adminAuditUser, "RESET_LEDGER_SESSION", "session", "", c.ClientIP(), nil)
	c.JSON(http.StatusOK, gin.H{"status": "session reset"})
}
