// Package ledger implements the client for the on-chain tokenized asset
// contract. It translates between human decimal units and the contract's
// 18-decimal fixed-point integers, caches the wallet session across calls,
// and decodes contract reverts into application errors. All business rules
// (active flag, deadline, share availability, payment sufficiency) are
// enforced by the contract itself; this package never pre-validates them.
package ledger

// AssetType identifies the category of a tokenized asset on the ledger.
type AssetType uint8

// Asset types as stored on the contract.
const (
	AssetTypeRealEstate AssetType = 0
	AssetTypeBond       AssetType = 1
)

// String returns the API representation of the asset type.
func (t AssetType) String() string {
	switch t {
	case AssetTypeRealEstate:
		return "real_estate"
	case AssetTypeBond:
		return "bond"
	}
	return "unknown"
}

// ParseAssetType converts an API asset-type string to its ledger enum value.
func ParseAssetType(s string) (AssetType, bool) {
	switch s {
	case "real_estate":
		return AssetTypeRealEstate, true
	case "bond":
		return AssetTypeBond, true
	}
	return 0, false
}

// Asset is a normalized ledger record. Monetary fields are decimal strings;
// the fixed-point base-unit representation never leaves this package.
type Asset struct {
	ID              int64     `json:"id"`
	Type            AssetType `json:"asset_type"`
	TypeName        string    `json:"asset_type_name"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	Valuation       string    `json:"valuation"`
	Deadline        int64     `json:"deadline"`
	AmountCollected string    `json:"amount_collected"`
	Image           string    `json:"image"`
	TotalShares     int64     `json:"total_shares"`
	SharesSold      int64     `json:"shares_sold"`
	SharePrice      string    `json:"share_price"`
	PaymentToken    string    `json:"payment_token"`
	Active          bool      `json:"active"`
}
