package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	apperrors "brickvest/internal/errors"
	"brickvest/internal/ledger"
	"brickvest/internal/services"
)

// --- mock asset service ---

type mockAssetService struct {
	listAssetsFn       func(ctx context.Context) ([]ledger.Asset, error)
	listAssetsByTypeFn func(ctx context.Context, assetType ledger.AssetType) ([]ledger.Asset, error)
	getAssetFn         func(ctx context.Context, id int64) (*ledger.Asset, error)
	getContributorsFn  func(ctx context.Context, id int64) ([]string, error)
	getBuyerSharesFn   func(ctx context.Context, id int64, address string) (int64, error)
	purchaseFn         func(ctx context.Context, userID string, assetID, shares int64) (*services.PurchaseOutcome, error)
	createAssetFn      func(ctx context.Context, params ledger.CreateAssetParams) (string, error)
	setAssetActiveFn   func(ctx context.Context, id int64, active bool) (string, error)
	withdrawFn         func(ctx context.Context, id int64, toAddress string) (string, error)
	isOwnerFn          func(ctx context.Context, address string) (bool, error)
	invalidated        int
}

func (m *mockAssetService) ListAssets(ctx context.Context) ([]ledger.Asset, error) {
	if m.listAssetsFn != nil {
		return m.listAssetsFn(ctx)
	}
	return nil, nil
}

func (m *mockAssetService) ListAssetsByType(ctx context.Context, assetType ledger.AssetType) ([]ledger.Asset, error) {
	if m.listAssetsByTypeFn != nil {
		return m.listAssetsByTypeFn(ctx, assetType)
	}
	return nil, nil
}

func (m *mockAssetService) GetAsset(ctx context.Context, id int64) (*ledger.Asset, error) {
	if m.getAssetFn != nil {
		return m.getAssetFn(ctx, id)
	}
	return &ledger.Asset{}, nil
}

func (m *mockAssetService) GetContributors(ctx context.Context, id int64) ([]string, error) {
	if m.getContributorsFn != nil {
		return m.getContributorsFn(ctx, id)
	}
	return nil, nil
}

func (m *mockAssetService) GetBuyerShares(ctx context.Context, id int64, address string) (int64, error) {
	if m.getBuyerSharesFn != nil {
		return m.getBuyerSharesFn(ctx, id, address)
	}
	return 0, nil
}

func (m *mockAssetService) Purchase(ctx context.Context, userID string, assetID, shares int64) (*services.PurchaseOutcome, error) {
	if m.purchaseFn != nil {
		return m.purchaseFn(ctx, userID, assetID, shares)
	}
	return &services.PurchaseOutcome{Purchase: &ledger.PurchaseResult{}}, nil
}

func (m *mockAssetService) CreateAsset(ctx context.Context, params ledger.CreateAssetParams) (string, error) {
	if m.createAssetFn != nil {
		return m.createAssetFn(ctx, params)
	}
	return "0xtx", nil
}

func (m *mockAssetService) SetAssetActive(ctx context.Context, id int64, active bool) (string, error) {
	if m.setAssetActiveFn != nil {
		return m.setAssetActiveFn(ctx, id, active)
	}
	return "0xtx", nil
}

func (m *mockAssetService) Withdraw(ctx context.Context, id int64, toAddress string) (string, error) {
	if m.withdrawFn != nil {
		return m.withdrawFn(ctx, id, toAddress)
	}
	return "0xtx", nil
}

func (m *mockAssetService) IsOwner(ctx context.Context, address string) (bool, error) {
	if m.isOwnerFn != nil {
		return m.isOwnerFn(ctx, address)
	}
	return false, nil
}

func (m *mockAssetService) InvalidateSession() {
	m.invalidated++
}

// --- test helpers ---

func setupAssetRouter(handler *AssetHandler) *gin.Engine {
	r := gin.New()
	r.GET("/assets", handler.ListAssets)
	r.GET("/assets/:id", handler.GetAsset)
	r.GET("/assets/:id/contributors", handler.GetContributors)
	r.GET("/assets/:id/shares", handler.GetBuyerShares)
	r.POST("/assets/:id/purchase", injectUserID("user-1"), handler.Purchase)
	return r
}

func sampleAsset() ledger.Asset {
	return ledger.Asset{
		ID:              0,
		Type:            ledger.AssetTypeRealEstate,
		TypeName:        "real_estate",
		Title:           "Lakeside Lofts",
		Valuation:       "1000000",
		Deadline:        4102444800,
		AmountCollected: "250000",
		TotalShares:     1000,
		SharesSold:      250,
		SharePrice:      "1000",
		PaymentToken:    "ETH",
		Active:          true,
	}
}

// --- tests ---

func TestAssetHandler_ListAssets(t *testing.T) {
	t.Run("returns 200 with display fields", func(t *testing.T) {
		assetSvc := &mockAssetService{
			listAssetsFn: func(_ context.Context) ([]ledger.Asset, error) {
				return []ledger.Asset{sampleAsset()}, nil
			},
		}
		handler := NewAssetHandler(assetSvc, &mockAuditService{})
		r := setupAssetRouter(handler)

		rec := doRequest(r, "GET", "/assets", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		assets := result["assets"].([]interface{})
		if len(assets) != 1 {
			t.Fatalf("expected 1 asset, got %d", len(assets))
		}
		asset := assets[0].(map[string]interface{})
		if asset["valuation_display"] != "$1,000,000.00" {
			t.Errorf("expected formatted valuation, got %v", asset["valuation_display"])
		}
		if asset["percent_funded"] != float64(25) {
			t.Errorf("expected 25 percent funded, got %v", asset["percent_funded"])
		}
	})

	t.Run("filters by type", func(t *testing.T) {
		var gotType ledger.AssetType
		assetSvc := &mockAssetService{
			listAssetsByTypeFn: func(_ context.Context, assetType ledger.AssetType) ([]ledger.Asset, error) {
				gotType = assetType
				return nil, nil
			},
		}
		handler := NewAssetHandler(assetSvc, &mockAuditService{})
		r := setupAssetRouter(handler)

		rec := doRequest(r, "GET", "/assets?type=bond", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if gotType != ledger.AssetTypeBond {
			t.Errorf("expected bond filter, got %v", gotType)
		}
	})

	t.Run("returns 400 on unknown type", func(t *testing.T) {
		handler := NewAssetHandler(&mockAssetService{}, &mockAuditService{})
		r := setupAssetRouter(handler)

		rec := doRequest(r, "GET", "/assets?type=painting", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 502 when ledger is unreachable", func(t *testing.T) {
		assetSvc := &mockAssetService{
			listAssetsFn: func(_ context.Context) ([]ledger.Asset, error) {
				return nil, apperrors.ErrLedgerUnavailable
			},
		}
		handler := NewAssetHandler(assetSvc, &mockAuditService{})
		r := setupAssetRouter(handler)

		rec := doRequest(r, "GET", "/assets", "")

		if rec.Code != http.StatusBadGateway {
			t.Fatalf("expected 502, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "LEDGER_UNAVAILABLE")
	})
}

func TestAssetHandler_GetAsset(t *testing.T) {
	t.Run("returns 200 on success", func(t *testing.T) {
		assetSvc := &mockAssetService{
			getAssetFn: func(_ context.Context, id int64) (*ledger.Asset, error) {
				a := sampleAsset()
				a.ID = id
				return &a, nil
			},
		}
		handler := NewAssetHandler(assetSvc, &mockAuditService{})
		r := setupAssetRouter(handler)

		rec := doRequest(r, "GET", "/assets/0", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		asset := result["asset"].(map[string]interface{})
		if asset["title"] != "Lakeside Lofts" {
			t.Errorf("expected title, got %v", asset["title"])
		}
	})

	t.Run("returns 404 for unknown asset", func(t *testing.T) {
		assetSvc := &mockAssetService{
			getAssetFn: func(_ context.Context, _ int64) (*ledger.Asset, error) {
				return nil, apperrors.ErrAssetNotFound
			},
		}
		handler := NewAssetHandler(assetSvc, &mockAuditService{})
		r := setupAssetRouter(handler)

		rec := doRequest(r, "GET", "/assets/99", "")

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "ASSET_NOT_FOUND")
	})

	t.Run("returns 400 on non-numeric id", func(t *testing.T) {
		handler := NewAssetHandler(&mockAssetService{}, &mockAuditService{})
		r := setupAssetRouter(handler)

		rec := doRequest(r, "GET", "/assets/abc", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestAssetHandler_GetBuyerShares(t *testing.T) {
	const address = "0x8ba1f109551bD432803012645Ac136ddd64DBA72"

	t.Run("returns 200 with share count", func(t *testing.T) {
		assetSvc := &mockAssetService{
			getBuyerSharesFn: func(_ context.Context, _ int64, _ string) (int64, error) {
				return 12, nil
			},
		}
		handler := NewAssetHandler(assetSvc, &mockAuditService{})
		r := setupAssetRouter(handler)

		rec := doRequest(r, "GET", "/assets/0/shares?address="+address, "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		if result["shares"] != float64(12) {
			t.Errorf("expected 12 shares, got %v", result["shares"])
		}
	})

	t.Run("returns 400 on malformed address", func(t *testing.T) {
		handler := NewAssetHandler(&mockAssetService{}, &mockAuditService{})
		r := setupAssetRouter(handler)

		rec := doRequest(r, "GET", "/assets/0/shares?address=0xnope", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestAssetHandler_Purchase(t *testing.T) {
	t.Run("returns 200 with confirmed purchase", func(t *testing.T) {
		var gotUser string
		var gotShares int64
		assetSvc := &mockAssetService{
			purchaseFn: func(_ context.Context, userID string, _, shares int64) (*services.PurchaseOutcome, error) {
				gotUser = userID
				gotShares = shares
				return &services.PurchaseOutcome{
					Purchase: &ledger.PurchaseResult{
						Shares:          shares,
						SharePrice:      "1000",
						TotalCost:       "5000",
						TransactionHash: "0xabc",
					},
					Recorded: true,
				}, nil
			},
		}
		handler := NewAssetHandler(assetSvc, &mockAuditService{})
		r := setupAssetRouter(handler)

		rec := doRequest(r, "POST", "/assets/0/purchase", `{"shares":5}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotUser != "user-1" {
			t.Errorf("expected authenticated user to be passed through, got %q", gotUser)
		}
		if gotShares != 5 {
			t.Errorf("expected 5 shares, got %d", gotShares)
		}
		result := parseJSON(t, rec)
		if result["recorded"] != true {
			t.Error("expected recorded=true")
		}
		purchase := result["purchase"].(map[string]interface{})
		if purchase["total_cost"] != "5000" {
			t.Errorf("expected total_cost 5000, got %v", purchase["total_cost"])
		}
	})

	t.Run("returns 422 when ledger rejects", func(t *testing.T) {
		assetSvc := &mockAssetService{
			purchaseFn: func(_ context.Context, _ string, _, _ int64) (*services.PurchaseOutcome, error) {
				return nil, apperrors.ErrPurchaseRejected
			},
		}
		handler := NewAssetHandler(assetSvc, &mockAuditService{})
		r := setupAssetRouter(handler)

		rec := doRequest(r, "POST", "/assets/0/purchase", `{"shares":5}`)

		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "PURCHASE_REJECTED")
	})

	t.Run("returns 400 on zero shares", func(t *testing.T) {
		handler := NewAssetHandler(&mockAssetService{}, &mockAuditService{})
		r := setupAssetRouter(handler)

		rec := doRequest(r, "POST", "/assets/0/purchase", `{"shares":0}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 504 on confirmation timeout", func(t *testing.T) {
		assetSvc := &mockAssetService{
			purchaseFn: func(_ context.Context, _ string, _, _ int64) (*services.PurchaseOutcome, error) {
				return nil, apperrors.ErrLedgerTimeout
			},
		}
		handler := NewAssetHandler(assetSvc, &mockAuditService{})
		r := setupAssetRouter(handler)

		rec := doRequest(r, "POST", "/assets/0/purchase", `{"shares":5}`)

		if rec.Code != http.StatusGatewayTimeout {
			t.Fatalf("expected 504, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "TIMEOUT")
	})
}
