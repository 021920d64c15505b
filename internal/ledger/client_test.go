package ledger_test

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"

	apperrors "brickvest/internal/errors"
	"brickvest/internal/ledger"
	"brickvest/internal/ledger/ledgertest"
	"brickvest/internal/testutil"
)

func TestGetAssetCount(t *testing.T) {
	fake := ledgertest.NewFakeContract()
	fake.AddAssetRecord(0, "Lakeside Lofts", "1000", "10", 100, true)
	fake.AddAssetRecord(1, "Muni Bond A", "500", "5", 100, true)
	client, _ := ledgertest.NewClient(fake, ledger.Config{})

	count, err := client.GetAssetCount(context.Background())
	testutil.AssertNoError(t, err)
	if count != 2 {
		t.Errorf("expected 2 assets, got %d", count)
	}
}

func TestGetAsset(t *testing.T) {
	t.Run("normalizes_units", func(t *testing.T) {
		fake := ledgertest.NewFakeContract()
		fake.AddAssetRecord(0, "Lakeside Lofts", "250000.5", "0.01", 1000, true)
		client, _ := ledgertest.NewClient(fake, ledger.Config{})

		asset, err := client.GetAsset(context.Background(), 0)
		testutil.AssertNoError(t, err)
		if asset.Valuation != "250000.5" {
			t.Errorf("expected valuation 250000.5, got %s", asset.Valuation)
		}
		if asset.SharePrice != "0.01" {
			t.Errorf("expected share price 0.01, got %s", asset.SharePrice)
		}
		if asset.Type != ledger.AssetTypeRealEstate || asset.TypeName != "real_estate" {
			t.Errorf("expected real_estate type, got %s", asset.TypeName)
		}
	})

	t.Run("out_of_range", func(t *testing.T) {
		fake := ledgertest.NewFakeContract()
		client, _ := ledgertest.NewClient(fake, ledger.Config{})

		_, err := client.GetAsset(context.Background(), 7)
		testutil.AssertAppError(t, err, "ASSET_NOT_FOUND")
	})
}

func TestGetAllAssets(t *testing.T) {
	t.Run("ascending_order", func(t *testing.T) {
		fake := ledgertest.NewFakeContract()
		for i := 0; i < 5; i++ {
			fake.AddAssetRecord(uint8(i%2), "Asset", "100", "1", 10, true)
		}
		client, _ := ledgertest.NewClient(fake, ledger.Config{})

		assets, err := client.GetAllAssets(context.Background())
		testutil.AssertNoError(t, err)
		if len(assets) != 5 {
			t.Fatalf("expected 5 assets, got %d", len(assets))
		}
		for i, a := range assets {
			if a.ID != int64(i) {
				t.Errorf("expected id %d at position %d, got %d", i, i, a.ID)
			}
		}
	})

	t.Run("aborts_without_partial_list", func(t *testing.T) {
		fake := ledgertest.NewFakeContract()
		for i := 0; i < 4; i++ {
			fake.AddAssetRecord(0, "Asset", "100", "1", 10, true)
		}
		fake.FailAssetID = 2
		client, _ := ledgertest.NewClient(fake, ledger.Config{})

		assets, err := client.GetAllAssets(context.Background())
		testutil.AssertAppError(t, err, "LEDGER_UNAVAILABLE")
		if assets != nil {
			t.Errorf("expected no partial list, got %d assets", len(assets))
		}
	})

	t.Run("bounded_concurrency_preserves_order", func(t *testing.T) {
		fake := ledgertest.NewFakeContract()
		for i := 0; i < 8; i++ {
			fake.AddAssetRecord(0, "Asset", "100", "1", 10, true)
		}
		client, _ := ledgertest.NewClient(fake, ledger.Config{ReadConcurrency: 4})

		assets, err := client.GetAllAssets(context.Background())
		testutil.AssertNoError(t, err)
		for i, a := range assets {
			if a.ID != int64(i) {
				t.Errorf("expected id %d at position %d, got %d", i, i, a.ID)
			}
		}
	})
}

func TestGetAssetsByType(t *testing.T) {
	fake := ledgertest.NewFakeContract()
	fake.AddAssetRecord(0, "Estate A", "100", "1", 10, true)
	fake.AddAssetRecord(1, "Bond A", "100", "1", 10, true)
	fake.AddAssetRecord(0, "Estate B", "100", "1", 10, true)
	client, _ := ledgertest.NewClient(fake, ledger.Config{})

	bonds, err := client.GetAssetsByType(context.Background(), ledger.AssetTypeBond)
	testutil.AssertNoError(t, err)
	if len(bonds) != 1 || bonds[0].Title != "Bond A" {
		t.Errorf("expected only Bond A, got %+v", bonds)
	}

	estates, err := client.GetAssetsByType(context.Background(), ledger.AssetTypeRealEstate)
	testutil.AssertNoError(t, err)
	if len(estates) != 2 || estates[0].ID >= estates[1].ID {
		t.Errorf("expected two estates in ascending order, got %+v", estates)
	}
}

func TestBuyShares(t *testing.T) {
	t.Run("exact_fixed_point_cost", func(t *testing.T) {
		fake := ledgertest.NewFakeContract()
		fake.AddAssetRecord(0, "Lakeside Lofts", "1000", "0.01", 1000, true)
		client, _ := ledgertest.NewClient(fake, ledger.Config{})

		result, err := client.BuyShares(context.Background(), 0, 5)
		testutil.AssertNoError(t, err)
		if result.TotalCost != "0.05" {
			t.Errorf("expected total cost 0.05, got %s", result.TotalCost)
		}

		// The submitted value must equal the base-unit cost exactly.
		want, _ := ledger.ToBaseUnits("0.05")
		if fake.LastBuyValue.Cmp(want) != 0 {
			t.Errorf("expected submitted value %s, got %s", want, fake.LastBuyValue)
		}
		if result.TransactionHash == "" {
			t.Error("expected a transaction hash")
		}
	})

	t.Run("inactive_asset_rejected", func(t *testing.T) {
		fake := ledgertest.NewFakeContract()
		fake.AddAssetRecord(0, "Paused Asset", "1000", "0.01", 1000, false)
		client, _ := ledgertest.NewClient(fake, ledger.Config{})

		_, err := client.BuyShares(context.Background(), 0, 5)
		testutil.AssertAppError(t, err, "PURCHASE_REJECTED")
	})

	t.Run("insufficient_shares_rejected", func(t *testing.T) {
		fake := ledgertest.NewFakeContract()
		fake.AddAssetRecord(0, "Small Asset", "1000", "0.01", 3, true)
		client, _ := ledgertest.NewClient(fake, ledger.Config{})

		_, err := client.BuyShares(context.Background(), 0, 5)
		testutil.AssertAppError(t, err, "PURCHASE_REJECTED")
	})

	t.Run("non_positive_shares", func(t *testing.T) {
		fake := ledgertest.NewFakeContract()
		fake.AddAssetRecord(0, "Asset", "1000", "0.01", 1000, true)
		client, _ := ledgertest.NewClient(fake, ledger.Config{})

		_, err := client.BuyShares(context.Background(), 0, 0)
		testutil.AssertAppError(t, err, "INVALID_AMOUNT")
	})

	t.Run("records_buyer_holdings", func(t *testing.T) {
		fake := ledgertest.NewFakeContract()
		fake.AddAssetRecord(0, "Asset", "1000", "0.01", 1000, true)
		client, _ := ledgertest.NewClient(fake, ledger.Config{})

		ctx := context.Background()
		_, err := client.BuyShares(ctx, 0, 5)
		testutil.AssertNoError(t, err)

		wallet, err := client.WalletAddress(ctx)
		testutil.AssertNoError(t, err)

		shares, err := client.GetBuyerShares(ctx, 0, wallet)
		testutil.AssertNoError(t, err)
		if shares != 5 {
			t.Errorf("expected 5 shares held, got %d", shares)
		}

		contributors, err := client.GetContributors(ctx, 0)
		testutil.AssertNoError(t, err)
		if len(contributors) != 1 || contributors[0] != wallet {
			t.Errorf("expected %s as sole contributor, got %v", wallet, contributors)
		}
	})

	t.Run("confirmation_timeout", func(t *testing.T) {
		fake := ledgertest.NewFakeContract()
		fake.AddAssetRecord(0, "Asset", "1000", "0.01", 1000, true)
		dial := func(ctx context.Context) (ledger.Contract, common.Address, error) {
			return &stalledWriteContract{fake}, common.HexToAddress("0x00000000000000000000000000000000DeaDBeef"), nil
		}
		client := ledger.NewClientWithDialer(ledger.Config{ConfirmTimeout: 5 * time.Millisecond}, dial)

		_, err := client.BuyShares(context.Background(), 0, 5)
		testutil.AssertAppError(t, err, "TIMEOUT")
	})

	t.Run("updates_collected_amount", func(t *testing.T) {
		fake := ledgertest.NewFakeContract()
		fake.AddAssetRecord(0, "Asset", "1000", "2.5", 100, true)
		client, _ := ledgertest.NewClient(fake, ledger.Config{})

		_, err := client.BuyShares(context.Background(), 0, 4)
		testutil.AssertNoError(t, err)

		asset, err := client.GetAsset(context.Background(), 0)
		testutil.AssertNoError(t, err)
		if asset.AmountCollected != "10" {
			t.Errorf("expected collected 10, got %s", asset.AmountCollected)
		}
		if asset.SharesSold != 4 {
			t.Errorf("expected 4 shares sold, got %d", asset.SharesSold)
		}
	})
}

// stalledWriteContract reads from the embedded fake but never confirms a
// purchase write, to exercise the confirmation timeout bound.
type stalledWriteContract struct {
	*ledgertest.FakeContract
}

func (s *stalledWriteContract) BuyShares(ctx context.Context, id, shares, value *big.Int) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func TestSessionCaching(t *testing.T) {
	t.Run("session_reused_across_calls", func(t *testing.T) {
		fake := ledgertest.NewFakeContract()
		fake.AddAssetRecord(0, "Asset", "100", "1", 10, true)
		client, dialer := ledgertest.NewClient(fake, ledger.Config{})

		ctx := context.Background()
		_, err := client.GetAssetCount(ctx)
		testutil.AssertNoError(t, err)
		_, err = client.GetAllAssets(ctx)
		testutil.AssertNoError(t, err)

		if dialer.DialCount() != 1 {
			t.Errorf("expected a single session, got %d dials", dialer.DialCount())
		}
	})

	t.Run("invalidate_forces_fresh_session", func(t *testing.T) {
		fake := ledgertest.NewFakeContract()
		client, dialer := ledgertest.NewClient(fake, ledger.Config{})

		ctx := context.Background()
		_, err := client.GetAssetCount(ctx)
		testutil.AssertNoError(t, err)

		client.Invalidate()

		_, err = client.GetAssetCount(ctx)
		testutil.AssertNoError(t, err)
		if dialer.DialCount() != 2 {
			t.Errorf("expected a fresh session after Invalidate, got %d dials", dialer.DialCount())
		}
	})

	t.Run("transport_error_drops_session", func(t *testing.T) {
		fake := ledgertest.NewFakeContract()
		fake.AddAssetRecord(0, "Asset", "100", "1", 10, true)
		client, dialer := ledgertest.NewClient(fake, ledger.Config{})

		ctx := context.Background()
		_, err := client.GetAsset(ctx, 0)
		testutil.AssertNoError(t, err)

		fake.FailAssetID = 0
		_, err = client.GetAsset(ctx, 0)
		testutil.AssertAppError(t, err, "LEDGER_UNAVAILABLE")

		fake.FailAssetID = -1
		_, err = client.GetAsset(ctx, 0)
		testutil.AssertNoError(t, err)
		if dialer.DialCount() != 2 {
			t.Errorf("expected a fresh session after a transport failure, got %d dials", dialer.DialCount())
		}
	})

	t.Run("revert_keeps_session", func(t *testing.T) {
		fake := ledgertest.NewFakeContract()
		fake.AddAssetRecord(0, "Asset", "100", "1", 10, true)
		client, dialer := ledgertest.NewClient(fake, ledger.Config{})

		ctx := context.Background()
		_, err := client.GetAsset(ctx, 7)
		testutil.AssertAppError(t, err, "ASSET_NOT_FOUND")

		_, err = client.GetAsset(ctx, 0)
		testutil.AssertNoError(t, err)
		if dialer.DialCount() != 1 {
			t.Errorf("expected the session to survive a revert, got %d dials", dialer.DialCount())
		}
	})

	t.Run("dial_failure_surfaces", func(t *testing.T) {
		fake := ledgertest.NewFakeContract()
		client, dialer := ledgertest.NewClient(fake, ledger.Config{})
		dialer.Err = apperrors.ErrNoWalletProvider

		_, err := client.GetAssetCount(context.Background())
		testutil.AssertAppError(t, err, "NO_WALLET_PROVIDER")
	})
}

func TestIsOwner(t *testing.T) {
	fake := ledgertest.NewFakeContract()
	fake.OwnerAddress = common.HexToAddress("0xAbCd00000000000000000000000000000000Ef12")
	client, _ := ledgertest.NewClient(fake, ledger.Config{})

	ctx := context.Background()

	// Case must not matter: the same address in any casing matches.
	upper, err := client.IsOwner(ctx, "0xABCD00000000000000000000000000000000EF12")
	testutil.AssertNoError(t, err)
	lower, err := client.IsOwner(ctx, "0xabcd00000000000000000000000000000000ef12")
	testutil.AssertNoError(t, err)
	if !upper || !lower {
		t.Errorf("expected case-insensitive owner match, got upper=%v lower=%v", upper, lower)
	}

	other, err := client.IsOwner(ctx, "0x0000000000000000000000000000000000000001")
	testutil.AssertNoError(t, err)
	if other {
		t.Error("expected non-owner address to not match")
	}
}

func TestAdminWrites(t *testing.T) {
	t.Run("add_asset_converts_units", func(t *testing.T) {
		fake := ledgertest.NewFakeContract()
		client, _ := ledgertest.NewClient(fake, ledger.Config{})

		txHash, err := client.AddAsset(context.Background(), ledger.CreateAssetParams{
			Type:        ledger.AssetTypeBond,
			Title:       "Muni Bond A",
			Description: "A municipal bond",
			Valuation:   "50000",
			Deadline:    4102444800,
			TotalShares: 500,
			SharePrice:  "100.25",
		})
		testutil.AssertNoError(t, err)
		if txHash == "" {
			t.Fatal("expected a transaction hash")
		}

		asset, err := client.GetAsset(context.Background(), 0)
		testutil.AssertNoError(t, err)
		if asset.SharePrice != "100.25" {
			t.Errorf("expected share price 100.25 after round trip, got %s", asset.SharePrice)
		}
	})

	t.Run("native_payment_token_maps_to_zero_address", func(t *testing.T) {
		fake := ledgertest.NewFakeContract()
		client, _ := ledgertest.NewClient(fake, ledger.Config{})

		_, err := client.AddAsset(context.Background(), ledger.CreateAssetParams{
			Type:         ledger.AssetTypeRealEstate,
			Title:        "Estate",
			Valuation:    "100",
			Deadline:     4102444800,
			TotalShares:  10,
			SharePrice:   "1",
			PaymentToken: "ETH",
		})
		testutil.AssertNoError(t, err)
		if fake.Assets[0].PaymentToken != (common.Address{}) {
			t.Errorf("expected the zero address for the native coin, got %s", fake.Assets[0].PaymentToken.Hex())
		}

		// And the sentinel comes back out on reads.
		asset, err := client.GetAsset(context.Background(), 0)
		testutil.AssertNoError(t, err)
		if asset.PaymentToken != "ETH" {
			t.Errorf("expected ETH after round trip, got %s", asset.PaymentToken)
		}
	})

	t.Run("token_contract_payment_token", func(t *testing.T) {
		fake := ledgertest.NewFakeContract()
		client, _ := ledgertest.NewClient(fake, ledger.Config{})

		token := "0x6B175474E89094C44Da98b954EedeAC495271d0F"
		_, err := client.AddAsset(context.Background(), ledger.CreateAssetParams{
			Type:         ledger.AssetTypeBond,
			Title:        "Bond",
			Valuation:    "100",
			Deadline:     4102444800,
			TotalShares:  10,
			SharePrice:   "1",
			PaymentToken: token,
		})
		testutil.AssertNoError(t, err)
		if fake.Assets[0].PaymentToken != common.HexToAddress(token) {
			t.Errorf("expected token address %s, got %s", token, fake.Assets[0].PaymentToken.Hex())
		}
	})

	t.Run("unknown_payment_token_rejected", func(t *testing.T) {
		fake := ledgertest.NewFakeContract()
		client, _ := ledgertest.NewClient(fake, ledger.Config{})

		_, err := client.AddAsset(context.Background(), ledger.CreateAssetParams{
			Type:         ledger.AssetTypeBond,
			Title:        "Bond",
			Valuation:    "100",
			SharePrice:   "1",
			PaymentToken: "USDC",
		})
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("add_asset_invalid_valuation", func(t *testing.T) {
		fake := ledgertest.NewFakeContract()
		client, _ := ledgertest.NewClient(fake, ledger.Config{})

		_, err := client.AddAsset(context.Background(), ledger.CreateAssetParams{
			Type:       ledger.AssetTypeBond,
			Title:      "Bad Bond",
			Valuation:  "not-a-number",
			SharePrice: "1",
		})
		testutil.AssertAppError(t, err, "INVALID_AMOUNT")
	})

	t.Run("permission_denied_revert", func(t *testing.T) {
		fake := ledgertest.NewFakeContract()
		fake.WriteErr = errors.New("execution reverted: caller is not the owner")
		client, _ := ledgertest.NewClient(fake, ledger.Config{})

		_, err := client.SetAssetActive(context.Background(), 0, false)
		testutil.AssertAppError(t, err, "PERMISSION_DENIED")
	})

	t.Run("transport_failure_on_write", func(t *testing.T) {
		fake := ledgertest.NewFakeContract()
		fake.WriteErr = errors.New("dial tcp: connection refused")
		client, _ := ledgertest.NewClient(fake, ledger.Config{})

		_, err := client.SetAssetActive(context.Background(), 0, false)
		testutil.AssertAppError(t, err, "LEDGER_UNAVAILABLE")
	})

	t.Run("withdraw_without_funds", func(t *testing.T) {
		fake := ledgertest.NewFakeContract()
		fake.AddAssetRecord(0, "Asset", "100", "1", 10, true)
		client, _ := ledgertest.NewClient(fake, ledger.Config{})

		_, err := client.WithdrawFunds(context.Background(), 0, "0x0000000000000000000000000000000000000001")
		testutil.AssertAppError(t, err, "INSUFFICIENT_BALANCE")
	})

	t.Run("set_active_toggles", func(t *testing.T) {
		fake := ledgertest.NewFakeContract()
		fake.AddAssetRecord(0, "Asset", "100", "1", 10, true)
		client, _ := ledgertest.NewClient(fake, ledger.Config{})

		_, err := client.SetAssetActive(context.Background(), 0, false)
		testutil.AssertNoError(t, err)

		asset, err := client.GetAsset(context.Background(), 0)
		testutil.AssertNoError(t, err)
		if asset.Active {
			t.Error("expected asset to be inactive")
		}
	})
}
