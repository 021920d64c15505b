package services

import (
	"context"

	"brickvest/internal/ledger"
	"brickvest/internal/models"
	"brickvest/internal/pagination"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(email, password, firstName, lastName string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
	AttemptLogin(email, password string) (*models.User, error)
	StoreRefreshTokenHash(userID string, tokenHash string) error
	GetRefreshTokenHash(userID string) (string, error)
	LinkWallet(userID, address, label string) (*models.WalletAddress, error)
	GetWallets(userID string) ([]models.WalletAddress, error)
}

// PurchaseOutcome is the result of a share purchase: the confirmed ledger
// write plus whether the off-ledger history mirror was recorded. The ledger
// write and the mirror are two independent operations with no transactional
// link; Recorded is false when the purchase is valid on the ledger but
// missing from the history table.
type PurchaseOutcome struct {
	Purchase   *ledger.PurchaseResult `json:"purchase"`
	Recorded   bool                   `json:"recorded"`
	Investment *models.Investment     `json:"investment,omitempty"`
}

// AssetServicer defines the contract for ledger-backed asset operations.
type AssetServicer interface {
	ListAssets(ctx context.Context) ([]ledger.Asset, error)
	ListAssetsByType(ctx context.Context, assetType ledger.AssetType) ([]ledger.Asset, error)
	GetAsset(ctx context.Context, id int64) (*ledger.Asset, error)
	GetContributors(ctx context.Context, id int64) ([]string, error)
	GetBuyerShares(ctx context.Context, id int64, address string) (int64, error)
	Purchase(ctx context.Context, userID string, assetID, shares int64) (*PurchaseOutcome, error)
	CreateAsset(ctx context.Context, params ledger.CreateAssetParams) (string, error)
	SetAssetActive(ctx context.Context, id int64, active bool) (string, error)
	Withdraw(ctx context.Context, id int64, toAddress string) (string, error)
	IsOwner(ctx context.Context, address string) (bool, error)
	InvalidateSession()
}

// InvestmentServicer defines the contract for the purchase-history mirror.
type InvestmentServicer interface {
	Record(userID, walletAddress string, result *ledger.PurchaseResult) (*models.Investment, error)
	GetUserInvestments(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Investment], error)
	GetInvestmentsByWallet(walletAddress string, page pagination.PageRequest) (*pagination.PageResponse[models.Investment], error)
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(userID string, action, resourceType string, resourceID string, ipAddress string, changes map[string]interface{})
}
