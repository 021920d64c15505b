package ledger

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"golang.org/x/sync/errgroup"

	apperrors "brickvest/internal/errors"
	"brickvest/internal/logger"
)

// Config holds the deployment-time inputs for the ledger connection.
type Config struct {
	// RPCURL is the JSON-RPC endpoint of the ledger network.
	RPCURL string
	// ChainID identifies the network for transaction signing.
	ChainID int64
	// ContractAddress is the deployed asset contract.
	ContractAddress string
	// PrivateKey is the hex-encoded signing key of the platform wallet.
	PrivateKey string
	// ConfirmTimeout bounds each submit-then-wait write. Zero disables
	// the bound and leaves a stalled confirmation pending until the
	// caller's context is cancelled.
	ConfirmTimeout time.Duration
	// ReadConcurrency is the number of parallel getAsset reads used by
	// GetAllAssets. The default of 1 reads strictly in ascending order.
	ReadConcurrency int
}

// DialFunc establishes a ledger session: a connected contract handle plus
// the signing wallet's address. Tests substitute this to observe session
// establishment.
type DialFunc func(ctx context.Context) (Contract, common.Address, error)

// Client mediates all reads and writes against the asset ledger. The
// wallet session (connection + signer) is established lazily on the first
// operation and cached until Invalidate is called. The cache is guarded by
// a mutex so concurrent requests share one session.
type Client struct {
	cfg  Config
	dial DialFunc

	mu       sync.Mutex
	contract Contract
	wallet   common.Address
}

// NewClient creates a ledger client that dials the configured RPC endpoint
// on first use.
func NewClient(cfg Config) *Client {
	c := &Client{cfg: cfg}
	c.dial = c.dialRPC
	return c
}

// NewClientWithDialer creates a ledger client with a custom session dialer.
func NewClientWithDialer(cfg Config, dial DialFunc) *Client {
	return &Client{cfg: cfg, dial: dial}
}

// connect returns the cached session, establishing one if needed.
func (c *Client) connect(ctx context.Context) (Contract, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.contract != nil {
		return c.contract, nil
	}

	contract, wallet, err := c.dial(ctx)
	if err != nil {
		return nil, err
	}
	c.contract = contract
	c.wallet = wallet
	logger.Get().Infow("ledger session established", "wallet", wallet.Hex(), "contract", c.cfg.ContractAddress)
	return c.contract, nil
}

// Invalidate drops the cached connection and signer. Callers must invoke
// it whenever the active wallet key changes; the client does not observe
// key changes itself. The next operation establishes a fresh session.
func (c *Client) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.contract = nil
	c.wallet = common.Address{}
}

// dialRPC is the production dialer: it connects to the RPC endpoint and
// derives the transaction signer from the configured private key.
func (c *Client) dialRPC(ctx context.Context) (Contract, common.Address, error) {
	if c.cfg.RPCURL == "" || c.cfg.PrivateKey == "" || c.cfg.ContractAddress == "" {
		return nil, common.Address{}, apperrors.ErrNoWalletProvider
	}

	key, err := crypto.HexToECDSA(strings.TrimPrefix(c.cfg.PrivateKey, "0x"))
	if err != nil {
		return nil, common.Address{}, apperrors.Wrap(apperrors.ErrNoWalletProvider, err)
	}

	backend, err := ethclient.DialContext(ctx, c.cfg.RPCURL)
	if err != nil {
		return nil, common.Address{}, apperrors.Wrap(apperrors.ErrLedgerUnavailable, err)
	}

	signer, err := bind.NewKeyedTransactorWithChainID(key, big.NewInt(c.cfg.ChainID))
	if err != nil {
		return nil, common.Address{}, apperrors.Wrap(apperrors.ErrNoWalletProvider, err)
	}

	contract, err := newBoundContract(backend, common.HexToAddress(c.cfg.ContractAddress), signer)
	if err != nil {
		return nil, common.Address{}, apperrors.Wrap(apperrors.ErrLedgerUnavailable, err)
	}
	return contract, crypto.PubkeyToAddress(key.PublicKey), nil
}

// WalletAddress returns the address of the signing wallet, establishing a
// session if none is cached.
func (c *Client) WalletAddress(ctx context.Context) (string, error) {
	if _, err := c.connect(ctx); err != nil {
		return "", err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.wallet.Hex(), nil
}

// GetAssetCount returns the number of assets recorded on the ledger.
func (c *Client) GetAssetCount(ctx context.Context) (int64, error) {
	contract, err := c.connect(ctx)
	if err != nil {
		return 0, err
	}
	count, err := contract.AssetCount(ctx)
	if err != nil {
		return 0, c.readError(err)
	}
	return count.Int64(), nil
}

// GetAsset returns one normalized asset record.
func (c *Client) GetAsset(ctx context.Context, id int64) (*Asset, error) {
	contract, err := c.connect(ctx)
	if err != nil {
		return nil, err
	}
	return c.getAsset(ctx, contract, id)
}

func (c *Client) getAsset(ctx context.Context, contract Contract, id int64) (*Asset, error) {
	raw, err := contract.Asset(ctx, big.NewInt(id))
	if err != nil {
		// The contract rejects out-of-range ids with a revert; anything
		// else on a read path is a transport failure.
		if isRevert(err) {
			return nil, apperrors.Wrap(apperrors.ErrAssetNotFound, err)
		}
		return nil, c.readError(err)
	}
	return normalizeAsset(raw), nil
}

// GetAllAssets reads assets 0..count-1 and returns them in ascending id
// order. Any single failed read aborts the whole call; partial lists are
// never returned. With ReadConcurrency > 1 the per-id reads run in a
// bounded parallel batch, still assembled in id order.
func (c *Client) GetAllAssets(ctx context.Context) ([]Asset, error) {
	contract, err := c.connect(ctx)
	if err != nil {
		return nil, err
	}

	count, err := contract.AssetCount(ctx)
	if err != nil {
		return nil, c.readError(err)
	}
	n := count.Int64()
	assets := make([]Asset, n)

	if c.cfg.ReadConcurrency > 1 {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(c.cfg.ReadConcurrency)
		for i := int64(0); i < n; i++ {
			i := i
			g.Go(func() error {
				asset, err := c.getAsset(gctx, contract, i)
				if err != nil {
					return err
				}
				assets[i] = *asset
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		return assets, nil
	}

	for i := int64(0); i < n; i++ {
		asset, err := c.getAsset(ctx, contract, i)
		if err != nil {
			return nil, err
		}
		assets[i] = *asset
	}
	return assets, nil
}

// GetAssetsByType filters GetAllAssets by asset type, preserving order.
func (c *Client) GetAssetsByType(ctx context.Context, assetType AssetType) ([]Asset, error) {
	all, err := c.GetAllAssets(ctx)
	if err != nil {
		return nil, err
	}
	filtered := make([]Asset, 0, len(all))
	for _, a := range all {
		if a.Type == assetType {
			filtered = append(filtered, a)
		}
	}
	return filtered, nil
}

// PurchaseResult describes a confirmed share purchase.
type PurchaseResult struct {
	Asset           *Asset `json:"asset"`
	Shares          int64  `json:"shares"`
	SharePrice      string `json:"share_price"`
	TotalCost       string `json:"total_cost"`
	TransactionHash string `json:"transaction_hash"`
}

// BuyShares purchases shares of an asset. The current share price is
// re-read from the ledger, the total payment is computed in base units
// (exact fixed-point, never floating point), and the value-bearing write
// is submitted and awaited. Eligibility (active flag, deadline, remaining
// shares, payment sufficiency) is not pre-validated; the contract's revert
// is decoded instead.
func (c *Client) BuyShares(ctx context.Context, id, shares int64) (*PurchaseResult, error) {
	if shares <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidAmount, "shares must be a positive integer")
	}

	contract, err := c.connect(ctx)
	if err != nil {
		return nil, err
	}

	asset, err := c.getAsset(ctx, contract, id)
	if err != nil {
		return nil, err
	}

	priceBase, err := ToBaseUnits(asset.SharePrice)
	if err != nil {
		return nil, err
	}
	totalCost := mulShares(priceBase, shares)

	wctx, cancel := c.confirmContext(ctx)
	defer cancel()

	txHash, err := contract.BuyShares(wctx, big.NewInt(id), big.NewInt(shares), totalCost)
	if err != nil {
		return nil, c.writeError(err, apperrors.ErrPurchaseRejected)
	}

	return &PurchaseResult{
		Asset:           asset,
		Shares:          shares,
		SharePrice:      asset.SharePrice,
		TotalCost:       FromBaseUnits(totalCost),
		TransactionHash: txHash,
	}, nil
}

// GetBuyerShares returns the number of shares the address holds in the asset.
func (c *Client) GetBuyerShares(ctx context.Context, id int64, address string) (int64, error) {
	contract, err := c.connect(ctx)
	if err != nil {
		return 0, err
	}
	shares, err := contract.BuyerShares(ctx, big.NewInt(id), common.HexToAddress(address))
	if err != nil {
		return 0, c.readError(err)
	}
	return shares.Int64(), nil
}

// GetContributors returns the addresses that purchased into the asset.
func (c *Client) GetContributors(ctx context.Context, id int64) ([]string, error) {
	contract, err := c.connect(ctx)
	if err != nil {
		return nil, err
	}
	contributors, err := contract.Contributors(ctx, big.NewInt(id))
	if err != nil {
		return nil, c.readError(err)
	}
	result := make([]string, len(contributors))
	for i, addr := range contributors {
		result[i] = addr.Hex()
	}
	return result, nil
}

// NativeToken is the paymentToken value selecting the chain's native coin.
// The contract stores the native sentinel as the zero address.
const NativeToken = "ETH"

// paymentTokenAddress resolves a paymentToken input into the contract's
// address form: the native sentinel maps to the zero address, anything
// else must be a token contract address.
func paymentTokenAddress(s string) (common.Address, error) {
	if strings.EqualFold(s, NativeToken) {
		return common.Address{}, nil
	}
	if !common.IsHexAddress(s) {
		return common.Address{}, apperrors.WithMessage(apperrors.ErrInvalidInput, "payment token must be ETH or a token contract address")
	}
	return common.HexToAddress(s), nil
}

// CreateAssetParams carries the human-unit inputs for a new asset.
type CreateAssetParams struct {
	Type         AssetType
	Title        string
	Description  string
	Valuation    string // decimal
	Deadline     int64  // absolute unix timestamp
	Image        string
	TotalShares  int64
	SharePrice   string // decimal
	PaymentToken string
}

// AddAsset submits an asset-creation write and waits for confirmation.
// Only the contract administrator may create assets; the contract enforces
// that, this client merely surfaces the denial.
func (c *Client) AddAsset(ctx context.Context, p CreateAssetParams) (string, error) {
	contract, err := c.connect(ctx)
	if err != nil {
		return "", err
	}

	valuation, err := ToBaseUnits(p.Valuation)
	if err != nil {
		return "", err
	}
	sharePrice, err := ToBaseUnits(p.SharePrice)
	if err != nil {
		return "", err
	}
	paymentToken, err := paymentTokenAddress(p.PaymentToken)
	if err != nil {
		return "", err
	}

	wctx, cancel := c.confirmContext(ctx)
	defer cancel()

	txHash, err := contract.AddAsset(wctx, AddAssetParams{
		Type:         uint8(p.Type),
		Title:        p.Title,
		Description:  p.Description,
		Valuation:    valuation,
		Deadline:     big.NewInt(p.Deadline),
		Image:        p.Image,
		TotalShares:  big.NewInt(p.TotalShares),
		SharePrice:   sharePrice,
		PaymentToken: paymentToken,
	})
	if err != nil {
		return "", c.writeError(err, apperrors.ErrPermissionDenied)
	}
	return txHash, nil
}

// SetAssetActive toggles an asset's purchase availability.
func (c *Client) SetAssetActive(ctx context.Context, id int64, active bool) (string, error) {
	contract, err := c.connect(ctx)
	if err != nil {
		return "", err
	}

	wctx, cancel := c.confirmContext(ctx)
	defer cancel()

	txHash, err := contract.SetAssetActive(wctx, big.NewInt(id), active)
	if err != nil {
		return "", c.writeError(err, apperrors.ErrPermissionDenied)
	}
	return txHash, nil
}

// WithdrawFunds transfers an asset's collected funds to the given address.
func (c *Client) WithdrawFunds(ctx context.Context, id int64, toAddress string) (string, error) {
	contract, err := c.connect(ctx)
	if err != nil {
		return "", err
	}

	wctx, cancel := c.confirmContext(ctx)
	defer cancel()

	txHash, err := contract.WithdrawFunds(wctx, big.NewInt(id), common.HexToAddress(toAddress))
	if err != nil {
		return "", c.writeError(err, apperrors.ErrPermissionDenied)
	}
	return txHash, nil
}

// IsOwner reports whether the address is the contract administrator. The
// comparison is case-insensitive; hex addresses carry no case semantics
// beyond the checksum. This check is advisory only — the contract itself
// enforces ownership on every admin write.
func (c *Client) IsOwner(ctx context.Context, address string) (bool, error) {
	contract, err := c.connect(ctx)
	if err != nil {
		return false, err
	}
	owner, err := contract.Owner(ctx)
	if err != nil {
		return false, c.readError(err)
	}
	return strings.EqualFold(owner.Hex(), address), nil
}

// confirmContext bounds a submit-then-wait write with the configured
// confirmation timeout.
func (c *Client) confirmContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.cfg.ConfirmTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.cfg.ConfirmTimeout)
}

// normalizeAsset converts a raw contract record into human units.
func normalizeAsset(raw RawAsset) *Asset {
	t := AssetType(raw.AssetType)
	paymentToken := raw.PaymentToken.Hex()
	if raw.PaymentToken == (common.Address{}) {
		paymentToken = NativeToken
	}
	return &Asset{
		ID:              raw.Id.Int64(),
		Type:            t,
		TypeName:        t.String(),
		Title:           raw.AssetTitle,
		Description:     raw.AssetDescription,
		Valuation:       FromBaseUnits(raw.Valuation),
		Deadline:        raw.Deadline.Int64(),
		AmountCollected: FromBaseUnits(raw.AmountCollected),
		Image:           raw.Image,
		TotalShares:     raw.TotalShares.Int64(),
		SharesSold:      raw.SharesSold.Int64(),
		SharePrice:      FromBaseUnits(raw.SharePrice),
		PaymentToken:    paymentToken,
		Active:          raw.Active,
	}
}

// readError maps a failed ledger read into the error taxonomy. A transport
// failure drops the cached session so the next operation re-dials.
func (c *Client) readError(err error) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.Wrap(apperrors.ErrLedgerTimeout, err)
	}
	c.Invalidate()
	return apperrors.Wrap(apperrors.ErrLedgerUnavailable, err)
}

// writeError maps a failed ledger write into the error taxonomy. Revert
// reasons are surfaced verbatim in the message; reverts that name the
// owner check or an empty balance override the operation's default kind.
// A transport failure drops the cached session; a revert or timeout keeps
// it, since the session itself is healthy.
func (c *Client) writeError(err error, rejected *apperrors.AppError) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.Wrap(apperrors.ErrLedgerTimeout, err)
	}

	if isRevert(err) {
		reason := strings.ToLower(err.Error())
		switch {
		case strings.Contains(reason, "not the owner") || strings.Contains(reason, "only owner") || strings.Contains(reason, "caller is not"):
			return apperrors.Wrap(apperrors.ErrPermissionDenied, err)
		case strings.Contains(reason, "no funds") || strings.Contains(reason, "nothing collected") || strings.Contains(reason, "nothing to withdraw"):
			return apperrors.Wrap(apperrors.ErrInsufficientBalance, err)
		}
		wrapped := apperrors.Wrap(rejected, err)
		wrapped.Message = rejected.Message + ": " + err.Error()
		return wrapped
	}
	c.Invalidate()
	return apperrors.Wrap(apperrors.ErrLedgerUnavailable, err)
}

// isRevert reports whether the error is a contract revert rather than a
// transport failure.
func isRevert(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "execution reverted") || strings.Contains(msg, "revert")
}
