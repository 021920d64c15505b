package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"brickvest/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates a user with a hashed password and unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	email := fmt.Sprintf("user%d@test.com", nextID())
	return CreateTestUserWithEmail(t, db, email)
}

// CreateTestUserWithEmail creates a user with the given email.
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Email:    email,
		Password: string(hash),
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// TestWalletAddress returns a unique, well-formed wallet address.
func TestWalletAddress() string {
	return fmt.Sprintf("0x%040x", nextID())
}

// CreateTestWallet links a fresh wallet address to the user.
func CreateTestWallet(t *testing.T, db *gorm.DB, userID string) *models.WalletAddress {
	t.Helper()

	wallet := &models.WalletAddress{
		UserID:  userID,
		Address: TestWalletAddress(),
		Label:   fmt.Sprintf("Test Wallet %d", nextID()),
	}
	if err := db.Create(wallet).Error; err != nil {
		t.Fatalf("failed to create test wallet: %v", err)
	}
	return wallet
}

// CreateTestInvestment records an investment mirror row for the user.
func CreateTestInvestment(t *testing.T, db *gorm.DB, userID, walletAddress string, assetID int64) *models.Investment {
	t.Helper()

	investment := &models.Investment{
		UserID:          userID,
		WalletAddress:   walletAddress,
		AssetID:         assetID,
		AssetType:       0,
		AssetTitle:      fmt.Sprintf("Test Asset %d", nextID()),
		SharesPurchased: 5,
		SharePrice:      "0.01",
		TotalAmount:     "0.05",
		PaymentToken:    "0x0000000000000000000000000000000000000000",
		TransactionHash: fmt.Sprintf("0x%064x", nextID()),
		PurchasedAt:     time.Now(),
	}
	if err := db.Create(investment).Error; err != nil {
		t.Fatalf("failed to create test investment: %v", err)
	}
	return investment
}
