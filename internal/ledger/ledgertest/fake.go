// Package ledgertest provides an in-memory fake of the asset contract for
// tests. The fake mimics the contract's observable behavior: sequential
// ids, base-unit integers at the boundary, reverts on bad input, and
// running totals updated per purchase.
package ledgertest

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/common"

	"brickvest/internal/ledger"
)

// ErrRevert is the transport-level shape of a contract revert.
var ErrRevert = errors.New("execution reverted")

// FakeContract is an in-memory ledger.Contract.
type FakeContract struct {
	mu sync.Mutex

	Assets       []ledger.RawAsset
	OwnerAddress common.Address
	Holdings     map[string]map[int64]int64 // address -> asset id -> shares
	Buyers       map[int64][]common.Address

	// Caller stands in for msg.sender on purchases. The Dialer sets it to
	// the session wallet; tests may override it between calls.
	Caller common.Address

	// FailAssetID makes reads of that id fail with a transport error.
	// Negative disables the fault.
	FailAssetID int64
	CountErr    error
	BuyErr      error
	WriteErr    error

	LastBuyValue  *big.Int
	LastBuyShares *big.Int
	txCounter     int
}

// NewFakeContract returns an empty fake with faults disabled.
func NewFakeContract() *FakeContract {
	return &FakeContract{
		FailAssetID: -1,
		Holdings:    make(map[string]map[int64]int64),
		Buyers:      make(map[int64][]common.Address),
	}
}

// AddAssetRecord appends a raw asset with the next sequential id and
// returns it. Monetary inputs are decimal strings.
func (f *FakeContract) AddAssetRecord(assetType uint8, title, valuation, sharePrice string, totalShares int64, active bool) ledger.RawAsset {
	f.mu.Lock()
	defer f.mu.Unlock()

	val, err := ledger.ToBaseUnits(valuation)
	if err != nil {
		panic(fmt.Sprintf("ledgertest: bad valuation %q: %v", valuation, err))
	}
	price, err := ledger.ToBaseUnits(sharePrice)
	if err != nil {
		panic(fmt.Sprintf("ledgertest: bad share price %q: %v", sharePrice, err))
	}

	raw := ledger.RawAsset{
		Id:               big.NewInt(int64(len(f.Assets))),
		AssetType:        assetType,
		AssetTitle:       title,
		AssetDescription: title + " description",
		Valuation:        val,
		Deadline:         big.NewInt(4102444800), // far future
		AmountCollected:  big.NewInt(0),
		Image:            "",
		TotalShares:      big.NewInt(totalShares),
		SharesSold:       big.NewInt(0),
		SharePrice:       price,
		PaymentToken:     common.Address{},
		Active:           active,
	}
	f.Assets = append(f.Assets, raw)
	return raw
}

func (f *FakeContract) AssetCount(ctx context.Context) (*big.Int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.CountErr != nil {
		return nil, f.CountErr
	}
	return big.NewInt(int64(len(f.Assets))), nil
}

func (f *FakeContract) Asset(ctx context.Context, id *big.Int) (ledger.RawAsset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	i := id.Int64()
	if f.FailAssetID >= 0 && i == f.FailAssetID {
		return ledger.RawAsset{}, errors.New("connection reset by peer")
	}
	if i < 0 || i >= int64(len(f.Assets)) {
		return ledger.RawAsset{}, fmt.Errorf("%w: invalid asset id", ErrRevert)
	}
	return f.Assets[i], nil
}

func (f *FakeContract) BuyShares(ctx context.Context, id, shares, value *big.Int) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.BuyErr != nil {
		return "", f.BuyErr
	}

	i := id.Int64()
	if i < 0 || i >= int64(len(f.Assets)) {
		return "", fmt.Errorf("%w: invalid asset id", ErrRevert)
	}
	asset := &f.Assets[i]
	if !asset.Active {
		return "", fmt.Errorf("%w: asset is not active", ErrRevert)
	}

	cost := new(big.Int).Mul(asset.SharePrice, shares)
	if value.Cmp(cost) < 0 {
		return "", fmt.Errorf("%w: insufficient payment", ErrRevert)
	}
	remaining := new(big.Int).Sub(asset.TotalShares, asset.SharesSold)
	if shares.Cmp(remaining) > 0 {
		return "", fmt.Errorf("%w: insufficient shares remaining", ErrRevert)
	}

	asset.SharesSold = new(big.Int).Add(asset.SharesSold, shares)
	asset.AmountCollected = new(big.Int).Add(asset.AmountCollected, cost)
	if f.Caller != (common.Address{}) {
		key := f.Caller.Hex()
		if f.Holdings[key] == nil {
			f.Holdings[key] = make(map[int64]int64)
		}
		if f.Holdings[key][i] == 0 {
			f.Buyers[i] = append(f.Buyers[i], f.Caller)
		}
		f.Holdings[key][i] += shares.Int64()
	}
	f.LastBuyValue = new(big.Int).Set(value)
	f.LastBuyShares = new(big.Int).Set(shares)
	return f.nextTxHash(), nil
}

func (f *FakeContract) BuyerShares(ctx context.Context, id *big.Int, buyer common.Address) (*big.Int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	held := f.Holdings[buyer.Hex()]
	return big.NewInt(held[id.Int64()]), nil
}

func (f *FakeContract) Contributors(ctx context.Context, id *big.Int) ([]common.Address, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Buyers[id.Int64()], nil
}

func (f *FakeContract) AddAsset(ctx context.Context, p ledger.AddAssetParams) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.WriteErr != nil {
		return "", f.WriteErr
	}

	f.Assets = append(f.Assets, ledger.RawAsset{
		Id:               big.NewInt(int64(len(f.Assets))),
		AssetType:        p.Type,
		AssetTitle:       p.Title,
		AssetDescription: p.Description,
		Valuation:        p.Valuation,
		Deadline:         p.Deadline,
		AmountCollected:  big.NewInt(0),
		Image:            p.Image,
		TotalShares:      p.TotalShares,
		SharesSold:       big.NewInt(0),
		SharePrice:       p.SharePrice,
		PaymentToken:     p.PaymentToken,
		Active:           true,
	})
	return f.nextTxHash(), nil
}

func (f *FakeContract) SetAssetActive(ctx context.Context, id *big.Int, active bool) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.WriteErr != nil {
		return "", f.WriteErr
	}
	i := id.Int64()
	if i < 0 || i >= int64(len(f.Assets)) {
		return "", fmt.Errorf("%w: invalid asset id", ErrRevert)
	}
	f.Assets[i].Active = active
	return f.nextTxHash(), nil
}

func (f *FakeContract) WithdrawFunds(ctx context.Context, id *big.Int, to common.Address) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.WriteErr != nil {
		return "", f.WriteErr
	}
	i := id.Int64()
	if i < 0 || i >= int64(len(f.Assets)) {
		return "", fmt.Errorf("%w: invalid asset id", ErrRevert)
	}
	if f.Assets[i].AmountCollected.Sign() == 0 {
		return "", fmt.Errorf("%w: no funds collected", ErrRevert)
	}
	f.Assets[i].AmountCollected = big.NewInt(0)
	return f.nextTxHash(), nil
}

func (f *FakeContract) Owner(ctx context.Context) (common.Address, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.OwnerAddress, nil
}

func (f *FakeContract) nextTxHash() string {
	f.txCounter++
	return fmt.Sprintf("0x%064x", f.txCounter)
}

// Dialer returns a DialFunc serving the fake contract and counts how many
// sessions the client establishes, so tests can verify session caching and
// invalidation.
type Dialer struct {
	Contract *FakeContract
	Wallet   common.Address
	Err      error
	dials    atomic.Int64
}

// Dial implements ledger.DialFunc.
func (d *Dialer) Dial(ctx context.Context) (ledger.Contract, common.Address, error) {
	if d.Err != nil {
		return nil, common.Address{}, d.Err
	}
	d.dials.Add(1)
	d.Contract.mu.Lock()
	d.Contract.Caller = d.Wallet
	d.Contract.mu.Unlock()
	return d.Contract, d.Wallet, nil
}

// DialCount reports how many sessions have been established.
func (d *Dialer) DialCount() int64 {
	return d.dials.Load()
}

// NewClient wires a ledger client to the fake contract through a counting
// dialer. ReadConcurrency 1 and no confirm timeout unless cfg overrides.
func NewClient(f *FakeContract, cfg ledger.Config) (*ledger.Client, *Dialer) {
	if cfg.ReadConcurrency == 0 {
		cfg.ReadConcurrency = 1
	}
	d := &Dialer{Contract: f, Wallet: common.HexToAddress("0x00000000000000000000000000000000DeaDBeef")}
	return ledger.NewClientWithDialer(cfg, d.Dial), d
}
