package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"brickvest/internal/handlers"
	"brickvest/internal/ledger"
	"brickvest/internal/ledger/ledgertest"
	"brickvest/internal/logger"
	"brickvest/internal/middleware"
	"brickvest/internal/models"
	"brickvest/internal/services"
	"brickvest/internal/validator"
)

const testAdminKey = "integration-admin-key"

// testApp holds the full application stack for integration tests. The asset
// ledger is an in-memory fake; everything else is the real wiring.
type testApp struct {
	DB     *gorm.DB
	Router *gin.Engine
	Fake   *ledgertest.FakeContract
	Dialer *ledgertest.Dialer
}

// dbCounter ensures each test gets a unique in-memory database.
var dbCounter atomic.Int64

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	validator.Register()
}

// setupIsolatedDB creates an isolated in-memory SQLite database for a single test.
func setupIsolatedDB(t *testing.T) *gorm.DB {
	t.Helper()

	n := dbCounter.Add(1)
	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", n)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	allModels := []interface{}{
		&models.User{},
		&models.WalletAddress{},
		&models.Investment{},
		&models.AuditLog{},
	}
	if err := db.AutoMigrate(allModels...); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

// setupApp creates a full application stack backed by an isolated in-memory
// SQLite database and a fake ledger contract.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	db := setupIsolatedDB(t)

	fake := ledgertest.NewFakeContract()
	client, dialer := ledgertest.NewClient(fake, ledger.Config{})

	// Services
	userService := services.NewUserService(db)
	auditService := services.NewAuditService(db)
	investmentService := services.NewInvestmentService(db)
	assetService := services.NewAssetService(client, investmentService)

	// Handlers
	authHandler := handlers.NewAuthHandler(userService, auditService)
	assetHandler := handlers.NewAssetHandler(assetService, auditService)
	adminHandler := handlers.NewAdminHandler(assetService, auditService)
	investmentHandler := handlers.NewInvestmentHandler(investmentService)

	// Router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.ErrorHandler())

	v1 := router.Group("/api/v1")

	// Public auth routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)

	// Public asset reads
	assets := v1.Group("/assets")
	assets.GET("", assetHandler.ListAssets)
	assets.GET("/:id", assetHandler.GetAsset)
	assets.GET("/:id/contributors", assetHandler.GetContributors)
	assets.GET("/:id/shares", assetHandler.GetBuyerShares)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	protected.GET("/profile", authHandler.GetProfile)
	protected.POST("/profile/wallets", authHandler.LinkWallet)
	protected.GET("/profile/wallets", authHandler.GetWallets)

	protected.POST("/assets/:id/purchase", assetHandler.Purchase)
	protected.GET("/investments", investmentHandler.GetUserInvestments)
	protected.GET("/investments/by-wallet", investmentHandler.GetInvestmentsByWallet)

	// Admin routes
	admin := v1.Group("/admin")
	admin.Use(middleware.AdminAuthMiddleware(testAdminKey))
	admin.POST("/assets", adminHandler.CreateAsset)
	admin.PATCH("/assets/:id/active", adminHandler.SetAssetActive)
	admin.POST("/assets/:id/withdraw", adminHandler.Withdraw)
	admin.GET("/owner", adminHandler.CheckOwner)
	admin.POST("/session/reset", adminHandler.ResetSession)

	return &testApp{DB: db, Router: router, Fake: fake, Dialer: dialer}
}

// request makes an HTTP request to the test router and returns the recorder.
func (app *testApp) request(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

// adminRequest makes an HTTP request carrying the admin API key.
func (app *testApp) adminRequest(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Admin-Key", testAdminKey)
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

// parseJSON parses the response body into a map.
func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

// registerUser registers a new user and returns the access token, refresh token, and user ID.
func (app *testApp) registerUser(t *testing.T, email, password string) (accessToken, refreshToken, userID string) {
	t.Helper()
	body := fmt.Sprintf(`{"email":%q,"password":%q,"first_name":"Test","last_name":"User"}`, email, password)
	rec := app.request("POST", "/api/v1/auth/register", body, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("register failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	user := result["user"].(map[string]interface{})
	return result["access_token"].(string), result["refresh_token"].(string), user["id"].(string)
}

// loginUser logs in and returns the access and refresh tokens.
func (app *testApp) loginUser(t *testing.T, email, password string) (accessToken, refreshToken string) {
	t.Helper()
	body := fmt.Sprintf(`{"email":%q,"password":%q}`, email, password)
	rec := app.request("POST", "/api/v1/auth/login", body, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("login failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	return result["access_token"].(string), result["refresh_token"].(string)
}
