package ledger

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
)

// assetLedgerABI is the subset of the TokenizedAssets contract ABI this
// client consumes.
const assetLedgerABI = `[
  {"inputs":[],"name":"getAssetCount","outputs":[{"internalType":"uint256","name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
  {"inputs":[{"internalType":"uint256","name":"assetId","type":"uint256"}],"name":"getAsset","outputs":[{"components":[
    {"internalType":"uint256","name":"id","type":"uint256"},
    {"internalType":"uint8","name":"assetType","type":"uint8"},
    {"internalType":"string","name":"assetTitle","type":"string"},
    {"internalType":"string","name":"assetDescription","type":"string"},
    {"internalType":"uint256","name":"valuation","type":"uint256"},
    {"internalType":"uint256","name":"deadline","type":"uint256"},
    {"internalType":"uint256","name":"amountCollected","type":"uint256"},
    {"internalType":"string","name":"image","type":"string"},
    {"internalType":"uint256","name":"totalShares","type":"uint256"},
    {"internalType":"uint256","name":"sharesSold","type":"uint256"},
    {"internalType":"uint256","name":"sharePrice","type":"uint256"},
    {"internalType":"address","name":"paymentToken","type":"address"},
    {"internalType":"bool","name":"active","type":"bool"}
  ],"internalType":"struct TokenizedAssets.Asset","name":"","type":"tuple"}],"stateMutability":"view","type":"function"},
  {"inputs":[{"internalType":"uint256","name":"assetId","type":"uint256"},{"internalType":"uint256","name":"shares","type":"uint256"}],"name":"buyShares","outputs":[],"stateMutability":"payable","type":"function"},
  {"inputs":[{"internalType":"uint256","name":"assetId","type":"uint256"},{"internalType":"address","name":"buyer","type":"address"}],"name":"getBuyerShares","outputs":[{"internalType":"uint256","name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
  {"inputs":[{"internalType":"uint256","name":"assetId","type":"uint256"}],"name":"getContributors","outputs":[{"internalType":"address[]","name":"","type":"address[]"}],"stateMutability":"view","type":"function"},
  {"inputs":[
    {"internalType":"uint8","name":"assetType","type":"uint8"},
    {"internalType":"string","name":"assetTitle","type":"string"},
    {"internalType":"string","name":"assetDescription","type":"string"},
    {"internalType":"uint256","name":"valuation","type":"uint256"},
    {"internalType":"uint256","name":"deadline","type":"uint256"},
    {"internalType":"string","name":"image","type":"string"},
    {"internalType":"uint256","name":"totalShares","type":"uint256"},
    {"internalType":"uint256","name":"sharePrice","type":"uint256"},
    {"internalType":"address","name":"paymentToken","type":"address"}
  ],"name":"addAsset","outputs":[],"stateMutability":"nonpayable","type":"function"},
  {"inputs":[{"internalType":"uint256","name":"assetId","type":"uint256"},{"internalType":"bool","name":"active","type":"bool"}],"name":"setAssetActive","outputs":[],"stateMutability":"nonpayable","type":"function"},
  {"inputs":[{"internalType":"uint256","name":"assetId","type":"uint256"},{"internalType":"address","name":"to","type":"address"}],"name":"withdrawFunds","outputs":[],"stateMutability":"nonpayable","type":"function"},
  {"inputs":[],"name":"owner","outputs":[{"internalType":"address","name":"","type":"address"}],"stateMutability":"view","type":"function"}
]`

// RawAsset is a ledger record exactly as returned by the contract, with
// every monetary field still in base units.
type RawAsset struct {
	Id               *big.Int
	AssetType        uint8
	AssetTitle       string
	AssetDescription string
	Valuation        *big.Int
	Deadline         *big.Int
	AmountCollected  *big.Int
	Image            string
	TotalShares      *big.Int
	SharesSold       *big.Int
	SharePrice       *big.Int
	PaymentToken     common.Address
	Active           bool
}

// AddAssetParams carries the creation write's arguments in base units.
type AddAssetParams struct {
	Type         uint8
	Title        string
	Description  string
	Valuation    *big.Int
	Deadline     *big.Int
	Image        string
	TotalShares  *big.Int
	SharePrice   *big.Int
	PaymentToken common.Address
}

// Contract is the raw ABI surface of the asset ledger. The production
// implementation wraps a bound go-ethereum contract; tests substitute a
// fake. Write methods submit a transaction, wait for it to be mined, and
// return the transaction hash.
type Contract interface {
	AssetCount(ctx context.Context) (*big.Int, error)
	Asset(ctx context.Context, id *big.Int) (RawAsset, error)
	BuyShares(ctx context.Context, id, shares, value *big.Int) (string, error)
	BuyerShares(ctx context.Context, id *big.Int, buyer common.Address) (*big.Int, error)
	Contributors(ctx context.Context, id *big.Int) ([]common.Address, error)
	AddAsset(ctx context.Context, params AddAssetParams) (string, error)
	SetAssetActive(ctx context.Context, id *big.Int, active bool) (string, error)
	WithdrawFunds(ctx context.Context, id *big.Int, to common.Address) (string, error)
	Owner(ctx context.Context) (common.Address, error)
}

// boundContract implements Contract over an ethclient connection.
type boundContract struct {
	contract *bind.BoundContract
	backend  *ethclient.Client
	signer   *bind.TransactOpts
}

func newBoundContract(backend *ethclient.Client, address common.Address, signer *bind.TransactOpts) (*boundContract, error) {
	parsed, err := abi.JSON(strings.NewReader(assetLedgerABI))
	if err != nil {
		return nil, fmt.Errorf("parsing asset ledger ABI: %w", err)
	}
	return &boundContract{
		contract: bind.NewBoundContract(address, parsed, backend, backend, backend),
		backend:  backend,
		signer:   signer,
	}, nil
}

func (b *boundContract) AssetCount(ctx context.Context) (*big.Int, error) {
	var out []interface{}
	if err := b.contract.Call(&bind.CallOpts{Context: ctx}, &out, "getAssetCount"); err != nil {
		return nil, err
	}
	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}

func (b *boundContract) Asset(ctx context.Context, id *big.Int) (RawAsset, error) {
	var out []interface{}
	if err := b.contract.Call(&bind.CallOpts{Context: ctx}, &out, "getAsset", id); err != nil {
		return RawAsset{}, err
	}
	return *abi.ConvertType(out[0], new(RawAsset)).(*RawAsset), nil
}

func (b *boundContract) BuyShares(ctx context.Context, id, shares, value *big.Int) (string, error) {
	opts := b.transactOpts(ctx)
	opts.Value = value
	tx, err := b.contract.Transact(opts, "buyShares", id, shares)
	if err != nil {
		return "", err
	}
	return b.waitMined(ctx, tx)
}

func (b *boundContract) BuyerShares(ctx context.Context, id *big.Int, buyer common.Address) (*big.Int, error) {
	var out []interface{}
	if err := b.contract.Call(&bind.CallOpts{Context: ctx}, &out, "getBuyerShares", id, buyer); err != nil {
		return nil, err
	}
	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}

func (b *boundContract) Contributors(ctx context.Context, id *big.Int) ([]common.Address, error) {
	var out []interface{}
	if err := b.contract.Call(&bind.CallOpts{Context: ctx}, &out, "getContributors", id); err != nil {
		return nil, err
	}
	return *abi.ConvertType(out[0], new([]common.Address)).(*[]common.Address), nil
}

func (b *boundContract) AddAsset(ctx context.Context, p AddAssetParams) (string, error) {
	tx, err := b.contract.Transact(b.transactOpts(ctx), "addAsset",
		p.Type, p.Title, p.Description, p.Valuation, p.Deadline,
		p.Image, p.TotalShares, p.SharePrice, p.PaymentToken)
	if err != nil {
		return "", err
	}
	return b.waitMined(ctx, tx)
}

func (b *boundContract) SetAssetActive(ctx context.Context, id *big.Int, active bool) (string, error) {
	tx, err := b.contract.Transact(b.transactOpts(ctx), "setAssetActive", id, active)
	if err != nil {
		return "", err
	}
	return b.waitMined(ctx, tx)
}

func (b *boundContract) WithdrawFunds(ctx context.Context, id *big.Int, to common.Address) (string, error) {
	tx, err := b.contract.Transact(b.transactOpts(ctx), "withdrawFunds", id, to)
	if err != nil {
		return "", err
	}
	return b.waitMined(ctx, tx)
}

func (b *boundContract) Owner(ctx context.Context) (common.Address, error) {
	var out []interface{}
	if err := b.contract.Call(&bind.CallOpts{Context: ctx}, &out, "owner"); err != nil {
		return common.Address{}, err
	}
	return *abi.ConvertType(out[0], new(common.Address)).(*common.Address), nil
}

// transactOpts returns a shallow copy of the signer options bound to ctx,
// so per-call values never leak into the shared signer.
func (b *boundContract) transactOpts(ctx context.Context) *bind.TransactOpts {
	opts := *b.signer
	opts.Context = ctx
	return &opts
}

// waitMined blocks until the transaction is included in a block. A mined
// transaction with a failed status still counts as a revert; the reason is
// not recoverable from the receipt, so a generic revert error is returned
// and the caller maps it into the error taxonomy.
func (b *boundContract) waitMined(ctx context.Context, tx *types.Transaction) (string, error) {
	receipt, err := bind.WaitMined(ctx, b.backend, tx)
	if err != nil {
		return "", err
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return "", fmt.Errorf("execution reverted: transaction %s failed", tx.Hash().Hex())
	}
	return tx.Hash().Hex(), nil
}
