package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "brickvest/internal/errors"
	"brickvest/internal/ledger"
	"brickvest/internal/services"
)

// AssetHandler handles read and purchase requests against the asset ledger.
type AssetHandler struct {
	assetService services.AssetServicer
	auditService services.AuditServicer
}

// NewAssetHandler creates a new AssetHandler.
func NewAssetHandler(assetService services.AssetServicer, auditService services.AuditServicer) *AssetHandler {
	return &AssetHandler{assetService: assetService, auditService: auditService}
}

// ListAssetsRequest represents the optional query filters for listing assets
type ListAssetsRequest struct {
	Type string `form:"type" binding:"omitempty,asset_type"`
}

// BuyerSharesRequest represents the query parameters for a holdings lookup
type BuyerSharesRequest struct {
	Address string `form:"address" binding:"required,eth_address"`
}

// PurchaseRequest represents the share purchase request payload
type PurchaseRequest struct {
	Shares int64 `json:"shares" binding:"required,gt=0"`
}

// assetJSON renders a ledger asset with display fields derived from its
// decimal amounts. The decimal strings stay exact; the floats feed display
// formatting only.
func assetJSON(a *ledger.Asset) gin.H {
	valuation, _ := strconv.ParseFloat(a.Valuation, 64)
	collected, _ := strconv.ParseFloat(a.AmountCollected, 64)
	return gin.H{
		"id":                a.ID,
		"asset_type":        a.Type,
		"asset_type_name":   a.TypeName,
		"title":             a.Title,
		"description":       a.Description,
		"valuation":         a.Valuation,
		"valuation_display": ledger.FormatCurrency(valuation),
		"deadline":          a.Deadline,
		"deadline_passed":   ledger.IsDeadlinePassed(a.Deadline),
		"amount_collected":  a.AmountCollected,
		"collected_display": ledger.FormatCurrency(collected),
		"percent_funded":    ledger.CalculatePercentage(collected, valuation),
		"image":             a.Image,
		"total_shares":      a.TotalShares,
		"shares_sold":       a.SharesSold,
		"share_price":       a.SharePrice,
		"payment_token":     a.PaymentToken,
		"active":            a.Active,
	}
}

// ListAssets lists all assets on the ledger
// @Summary     List assets
// @Description List all assets on the ledger, optionally filtered by type
// @Tags        assets
// @Accept      json
// @Produce     json
// @Param       type query string false "Asset type filter" Enums(real_estate, bond)
// @Success     200 {array} ledger.Asset "Assets"
// @Failure     400 {object} ErrorResponse "Invalid type filter"
// @Failure     502 {object} ErrorResponse "Ledger unreachable"
// @Router      /assets [get]
func (h *AssetHandler) ListAssets(c *gin.Context) {
	var req ListAssetsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	var (
		assets []ledger.Asset
		err    error
	)
	if req.Type != "" {
		assetType, ok := ledger.ParseAssetType(req.Type)
		if !ok {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "unknown asset type "+req.Type))
			return
		}
		assets, err = h.assetService.ListAssetsByType(c.Request.Context(), assetType)
	} else {
		assets, err = h.assetService.ListAssets(c.Request.Context())
	}
	if err != nil {
		respondWithError(c, err)
		return
	}

	out := make([]gin.H, 0, len(assets))
	for i := range assets {
		out = append(out, assetJSON(&assets[i]))
	}
	c.JSON(http.StatusOK, gin.H{"assets": out})
}

// GetAsset returns a single asset by its ledger ID
// @Summary     Get an asset
// @Description Get a single asset's full record from the ledger
// @Tags        assets
// @Accept      json
// @Produce     json
// @Param       id path int true "Asset ID"
// @Success     200 {object} ledger.Asset "Asset"
// @Failure     400 {object} ErrorResponse "Invalid ID"
// @Failure     404 {object} ErrorResponse "Asset not found"
// @Failure     502 {object} ErrorResponse "Ledger unreachable"
// @Router      /assets/{id} [get]
func (h *AssetHandler) GetAsset(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	asset, err := h.assetService.GetAsset(c.Request.Context(), id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"asset": assetJSON(asset)})
}

// GetContributors lists the wallet addresses that bought shares of an asset
// @Summary     List asset contributors
// @Description List the wallet addresses that have purchased shares of an asset
// @Tags        assets
// @Accept      json
// @Produce     json
// @Param       id path int true "Asset ID"
// @Success     200 {array} string "Contributor addresses"
// @Failure     400 {object} ErrorResponse "Invalid ID"
// @Failure     404 {object} ErrorResponse "Asset not found"
// @Failure     502 {object} ErrorResponse "Ledger unreachable"
// @Router      /assets/{id}/contributors [get]
func (h *AssetHandler) GetContributors(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	contributors, err := h.assetService.GetContributors(c.Request.Context(), id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"contributors": contributors})
}

// GetBuyerShares returns the share count a wallet holds in an asset
// @Summary     Get a buyer's share count
// @Description Get the number of shares a wallet address holds in an asset
// @Tags        assets
// @Accept      json
// @Produce     json
// @Param       id path int true "Asset ID"
// @Param       address query string true "Buyer wallet address"
// @Success     200 {object} map[string]int64 "Share count"
// @Failure     400 {object} ErrorResponse "Invalid ID or address"
// @Failure     404 {object} ErrorResponse "Asset not found"
// @Failure     502 {object} ErrorResponse "Ledger unreachable"
// @Router      /assets/{id}/shares [get]
func (h *AssetHandler) GetBuyerShares(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req BuyerSharesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	shares, err := h.assetService.GetBuyerShares(c.Request.Context(), id, req.Address)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"asset_id": id, "address": req.Address, "shares": shares})
}

// Purchase buys shares of an asset on behalf of the authenticated user
// @Summary     Purchase shares
// @Description Buy shares of an asset; the write is submitted to the ledger and awaited until confirmed
// @Tags        assets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Asset ID"
// @Param       request body PurchaseRequest true "Number of shares to buy"
// @Success     200 {object} services.PurchaseOutcome "Confirmed purchase"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Asset not found"
// @Failure     422 {object} ErrorResponse "Ledger rejected the purchase"
// @Failure     502 {object} ErrorResponse "Ledger unreachable"
// @Failure     504 {object} ErrorResponse "Confirmation timed out"
// @Router      /assets/{id}/purchase [post]
func (h *AssetHandler) Purchase(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req PurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	outcome, err := h.assetService.Purchase(c.Request.Context(), userID, id, req.Shares)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "PURCHASE_SHARES", "asset", strconv.FormatInt(id, 10), c.ClientIP(),
		map[string]interface{}{
			"shares":           req.Shares,
			"total_cost":       outcome.Purchase.TotalCost,
			"transaction_hash": outcome.Purchase.TransactionHash,
			"recorded":         outcome.Recorded,
		})

	c.JSON(http.StatusOK, gin.H{
		"purchase": outcome.Purchase,
		"recorded": outcome.Recorded,
	})
}
