package models

import "time"

// User represents the user model in the database
type User struct {
	Base
	Email               string          `gorm:"uniqueIndex;not null" json:"email"`
	Password            string          `gorm:"not null" json:"-"`
	FirstName           string          `json:"first_name"`
	LastName            string          `json:"last_name"`
	IsActive            bool            `gorm:"default:true" json:"is_active"`
	RefreshTokenHash    string          `gorm:"size:64" json:"-"`
	FailedLoginAttempts int             `gorm:"default:0" json:"-"`
	LockedUntil         *time.Time      `json:"-"`
	LastLoginAt         *time.Time      `json:"last_login_at,omitempty"`
	WalletAddresses     []WalletAddress `gorm:"foreignKey:UserID" json:"wallet_addresses,omitempty"`
	Investments         []Investment    `gorm:"foreignKey:UserID" json:"investments,omitempty"`
}

// WalletAddress links a user to one of their on-chain wallet addresses.
// A user may hold several wallets; each address belongs to at most one user.
// Addresses are stored lowercased so lookups stay case-insensitive.
type WalletAddress struct {
	Base
	UserID  string `gorm:"type:uuid;not null;index" json:"user_id"`
	Address string `gorm:"size:42;uniqueIndex;not null" json:"address"`
	Label   string `gorm:"size:100" json:"label,omitempty"`
}
