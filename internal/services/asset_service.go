package services

import (
	"context"

	"brickvest/internal/ledger"
	"brickvest/internal/logger"
)

// assetService exposes the asset ledger to the HTTP layer and orchestrates
// the purchase flow: confirmed ledger write first, then the best-effort
// history mirror.
type assetService struct {
	client      *ledger.Client
	investments InvestmentServicer
}

// NewAssetService creates a new AssetServicer.
func NewAssetService(client *ledger.Client, investments InvestmentServicer) AssetServicer {
	return &assetService{client: client, investments: investments}
}

// ListAssets returns every ledger asset in ascending id order.
func (s *assetService) ListAssets(ctx context.Context) ([]ledger.Asset, error) {
	return s.client.GetAllAssets(ctx)
}

// ListAssetsByType returns ledger assets of one type, order preserved.
func (s *assetService) ListAssetsByType(ctx context.Context, assetType ledger.AssetType) ([]ledger.Asset, error) {
	return s.client.GetAssetsByType(ctx, assetType)
}

// GetAsset returns one normalized ledger asset.
func (s *assetService) GetAsset(ctx context.Context, id int64) (*ledger.Asset, error) {
	return s.client.GetAsset(ctx, id)
}

// GetContributors returns the wallet addresses that purchased into the asset.
func (s *assetService) GetContributors(ctx context.Context, id int64) ([]string, error) {
	return s.client.GetContributors(ctx, id)
}

// GetBuyerShares returns the share count a wallet holds in the asset.
func (s *assetService) GetBuyerShares(ctx context.Context, id int64, address string) (int64, error) {
	return s.client.GetBuyerShares(ctx, id, address)
}

// Purchase buys shares on the ledger and mirrors the confirmed purchase
// into the investment history. The two writes have no transactional link:
// when the mirror insert fails after a successful on-chain purchase, the
// purchase stands and the outcome reports Recorded=false so the caller can
// tell the user their history entry is missing. No retry is attempted.
func (s *assetService) Purchase(ctx context.Context, userID string, assetID, shares int64) (*PurchaseOutcome, error) {
	result, err := s.client.BuyShares(ctx, assetID, shares)
	if err != nil {
		return nil, err
	}

	wallet, err := s.client.WalletAddress(ctx)
	if err != nil {
		// The purchase already confirmed; treat a failed wallet lookup
		// like a failed mirror rather than failing the whole call.
		logger.Get().Errorw("purchase confirmed but wallet lookup failed",
			"asset_id", assetID,
			"tx_hash", result.TransactionHash,
			"error", err,
		)
		return &PurchaseOutcome{Purchase: result, Recorded: false}, nil
	}

	investment, err := s.investments.Record(userID, wallet, result)
	if err != nil {
		logger.Get().Errorw("purchase confirmed on ledger but history mirror failed",
			"user_id", userID,
			"asset_id", assetID,
			"tx_hash", result.TransactionHash,
			"error", err,
		)
		return &PurchaseOutcome{Purchase: result, Recorded: false}, nil
	}

	return &PurchaseOutcome{Purchase: result, Recorded: true, Investment: investment}, nil
}

// CreateAsset submits an asset-creation write. The ledger enforces that
// only its administrator may create assets.
func (s *assetService) CreateAsset(ctx context.Context, params ledger.CreateAssetParams) (string, error) {
	return s.client.AddAsset(ctx, params)
}

// SetAssetActive toggles purchase availability for an asset.
func (s *assetService) SetAssetActive(ctx context.Context, id int64, active bool) (string, error) {
	return s.client.SetAssetActive(ctx, id, active)
}

// Withdraw transfers an asset's collected funds to the given address.
func (s *assetService) Withdraw(ctx context.Context, id int64, toAddress string) (string, error) {
	return s.client.WithdrawFunds(ctx, id, toAddress)
}

// IsOwner reports whether the address is the ledger administrator.
// Advisory only; the ledger enforces ownership on every admin write.
func (s *assetService) IsOwner(ctx context.Context, address string) (bool, error) {
	return s.client.IsOwner(ctx, address)
}

// InvalidateSession drops the cached ledger session. Callers must invoke
// it when the platform signing key is rotated.
func (s *assetService) InvalidateSession() {
	s.client.Invalidate()
}
