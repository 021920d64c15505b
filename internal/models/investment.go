package models

import "time"

// Investment mirrors a successful share purchase on the asset ledger.
// Rows are written once per confirmed purchase and never updated or
// deleted; the ledger remains the source of truth for ownership, and a
// row can be missing if the mirror write failed after the on-chain
// purchase succeeded.
type Investment struct {
	Base
	UserID          string    `gorm:"type:uuid;not null;index" json:"user_id"`
	WalletAddress   string    `gorm:"size:42;not null;index" json:"wallet_address"`
	AssetID         int64     `gorm:"not null" json:"asset_id"`
	AssetType       int       `gorm:"not null" json:"asset_type"`
	AssetTitle      string    `gorm:"size:200;not null" json:"asset_title"`
	SharesPurchased int64     `gorm:"not null" json:"shares_purchased"`
	SharePrice      string    `gorm:"size:80;not null" json:"share_price"`
	TotalAmount     string    `gorm:"size:80;not null" json:"total_amount"`
	PaymentToken    string    `gorm:"size:42" json:"payment_token"`
	TransactionHash string    `gorm:"size:66;not null" json:"transaction_hash"`
	PurchasedAt     time.Time `gorm:"not null" json:"purchased_at"`
}
