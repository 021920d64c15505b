package services

import (
	"time"

	"gorm.io/gorm"

	apperrors "brickvest/internal/errors"
	"brickvest/internal/ledger"
	"brickvest/internal/models"
	"brickvest/internal/pagination"
)

// investmentService persists the purchase-history mirror. Rows are
// insert-only: the ledger owns the truth, this table only answers "what
// did this user buy and when" without a chain round trip.
type investmentService struct {
	db *gorm.DB
}

// NewInvestmentService creates a new InvestmentServicer.
func NewInvestmentService(db *gorm.DB) InvestmentServicer {
	return &investmentService{db: db}
}

// Record inserts one history row for a confirmed ledger purchase.
func (s *investmentService) Record(userID, walletAddress string, result *ledger.PurchaseResult) (*models.Investment, error) {
	investment := &models.Investment{
		UserID:          userID,
		WalletAddress:   walletAddress,
		AssetID:         result.Asset.ID,
		AssetType:       int(result.Asset.Type),
		AssetTitle:      result.Asset.Title,
		SharesPurchased: result.Shares,
		SharePrice:      result.SharePrice,
		TotalAmount:     result.TotalCost,
		PaymentToken:    result.Asset.PaymentToken,
		TransactionHash: result.TransactionHash,
		PurchasedAt:     time.Now(),
	}

	if err := s.db.Create(investment).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return investment, nil
}

// GetUserInvestments returns the user's purchase history, newest first.
func (s *investmentService) GetUserInvestments(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Investment], error) {
	page.Defaults()

	var totalItems int64
	if err := s.db.Model(&models.Investment{}).Where("user_id = ?", userID).Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var investments []models.Investment
	if err := s.db.Where("user_id = ?", userID).
		Order("purchased_at DESC").
		Scopes(pagination.Paginate(page)).
		Find(&investments).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(investments, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetInvestmentsByWallet returns the purchase history for one wallet
// address, newest first. The lookup is case-insensitive; addresses are
// stored lowercased.
func (s *investmentService) GetInvestmentsByWallet(walletAddress string, page pagination.PageRequest) (*pagination.PageResponse[models.Investment], error) {
	page.Defaults()

	var totalItems int64
	if err := s.db.Model(&models.Investment{}).
		Where("LOWER(wallet_address) = LOWER(?)", walletAddress).
		Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var investments []models.Investment
	if err := s.db.Where("LOWER(wallet_address) = LOWER(?)", walletAddress).
		Order("purchased_at DESC").
		Scopes(pagination.Paginate(page)).
		Find(&investments).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(investments, page.Page, page.PageSize, totalItems)
	return &result, nil
}
