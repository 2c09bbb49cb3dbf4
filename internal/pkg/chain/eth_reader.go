package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/ManuelReschke/TierFox/internal/pkg/apperrors"
	"github.com/ManuelReschke/TierFox/internal/pkg/wallet"
)

// Backend is the subset of ethclient.Client the reader needs.
type Backend interface {
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	TransactionByHash(ctx context.Context, hash common.Hash) (*types.Transaction, bool, error)
}

// EthReader reads the factory and subscription contracts over JSON-RPC.
type EthReader struct {
	backend Backend
	factory common.Address
}

// Dial connects to the configured RPC endpoint.
func Dial(ctx context.Context, cfg *Config) (*EthReader, *ethclient.Client, error) {
	client, err := ethclient.DialContext(ctx, cfg.RPCURL)
	if err != nil {
		return nil, nil, fmt.Errorf("dial %s: %w", cfg.RPCURL, err)
	}
	return NewEthReader(client, cfg.FactoryAddress), client, nil
}

func NewEthReader(backend Backend, factory string) *EthReader {
	return &EthReader{backend: backend, factory: common.HexToAddress(factory)}
}

func (r *EthReader) call(ctx context.Context, contractABI abi.ABI, to common.Address, method string, args ...interface{}) ([]interface{}, error) {
	data, err := contractABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	raw, err := r.backend.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		return nil, apperrors.Upstream(method, err)
	}
	out, err := contractABI.Unpack(method, raw)
	if err != nil {
		return nil, apperrors.Upstream(method, fmt.Errorf("unpack: %w", err))
	}
	return out, nil
}

func contractAddress(contract string) (common.Address, error) {
	norm := wallet.Normalize(contract)
	if norm == "" || norm == ZeroAddress {
		return common.Address{}, apperrors.Invalid("contractAddress", "creator has no subscription contract")
	}
	return common.HexToAddress(norm), nil
}

func subscriberAddress(addr string) (common.Address, error) {
	norm := wallet.Normalize(addr)
	if norm == "" {
		return common.Address{}, apperrors.Invalid("address", "must be a 0x-prefixed 20 byte hex address")
	}
	return common.HexToAddress(norm), nil
}

// GetProfile returns the creator's subscription contract, or ZeroAddress.
func (r *EthReader) GetProfile(ctx context.Context, creator string) (string, error) {
	addr, err := subscriberAddress(creator)
	if err != nil {
		return "", err
	}
	out, err := r.call(ctx, factoryABI, r.factory, "getProfile", addr)
	if err != nil {
		return "", err
	}
	contract := *abi.ConvertType(out[0], new(common.Address)).(*common.Address)
	return strings.ToLower(contract.Hex()), nil
}

func (r *EthReader) IsMember(ctx context.Context, contract, subscriber string) (bool, error) {
	to, err := contractAddress(contract)
	if err != nil {
		return false, err
	}
	addr, err := subscriberAddress(subscriber)
	if err != nil {
		return false, err
	}
	out, err := r.call(ctx, subscriptionABI, to, "isMember", addr)
	if err != nil {
		return false, err
	}
	return *abi.ConvertType(out[0], new(bool)).(*bool), nil
}

func (r *EthReader) Memberships(ctx context.Context, contract, subscriber string) (Membership, error) {
	to, err := contractAddress(contract)
	if err != nil {
		return Membership{}, err
	}
	addr, err := subscriberAddress(subscriber)
	if err != nil {
		return Membership{}, err
	}
	out, err := r.call(ctx, subscriptionABI, to, "memberships", addr)
	if err != nil {
		return Membership{}, err
	}
	expiry := *abi.ConvertType(out[0], new(*big.Int)).(**big.Int)
	tierID := *abi.ConvertType(out[1], new(*big.Int)).(**big.Int)
	return Membership{Expiry: unixToTime(expiry), TierID: toUint64(tierID)}, nil
}

// tierTuple mirrors the contract's Tier struct for ABI conversion.
type tierTuple struct {
	Name     string
	Price    *big.Int
	Duration *big.Int
	Active   bool
}

func (r *EthReader) GetTiers(ctx context.Context, contract string) ([]OnchainTier, error) {
	to, err := contractAddress(contract)
	if err != nil {
		return nil, err
	}
	out, err := r.call(ctx, subscriptionABI, to, "getTiers")
	if err != nil {
		return nil, err
	}
	raw := *abi.ConvertType(out[0], new([]tierTuple)).(*[]tierTuple)
	tiers := make([]OnchainTier, 0, len(raw))
	for i, t := range raw {
		tiers = append(tiers, OnchainTier{
			ID:       uint64(i),
			Name:     t.Name,
			PriceWei: t.Price,
			Duration: toUint64(t.Duration),
			Active:   t.Active,
		})
	}
	return tiers, nil
}

// TxStatus reports pending until a receipt exists.
func (r *EthReader) TxStatus(ctx context.Context, hash string) (TxReceipt, error) {
	if !isTxHash(hash) {
		return TxReceipt{}, apperrors.Invalid("hash", "must be a 0x-prefixed 32 byte hex hash")
	}
	h := common.HexToHash(hash)
	res := TxReceipt{Hash: strings.ToLower(h.Hex()), State: TxPending}

	tx, _, err := r.backend.TransactionByHash(ctx, h)
	switch {
	case errors.Is(err, ethereum.NotFound):
		return res, nil
	case err != nil:
		return TxReceipt{}, apperrors.Upstream("transactionByHash", err)
	}
	if tx.To() != nil {
		res.To = strings.ToLower(tx.To().Hex())
	}
	if from, err := types.Sender(types.LatestSignerForChainID(tx.ChainId()), tx); err == nil {
		res.From = strings.ToLower(from.Hex())
	}

	receipt, err := r.backend.TransactionReceipt(ctx, h)
	switch {
	case errors.Is(err, ethereum.NotFound):
		return res, nil
	case err != nil:
		return TxReceipt{}, apperrors.Upstream("transactionReceipt", err)
	}
	if receipt.BlockNumber != nil {
		res.BlockNumber = receipt.BlockNumber.Uint64()
	}
	if receipt.Status == types.ReceiptStatusSuccessful {
		res.State = TxSucceeded
	} else {
		res.State = TxFailed
	}
	return res, nil
}

func isTxHash(s string) bool {
	if len(s) != 66 || !strings.HasPrefix(s, "0x") {
		return false
	}
	for _, c := range s[2:] {
		if !strings.ContainsRune("0123456789abcdefABCDEF", c) {
			return false
		}
	}
	return true
}
