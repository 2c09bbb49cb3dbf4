package chain

import (
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/ManuelReschke/TierFox/internal/pkg/apperrors"
)

// CallRequest is an unsigned contract call for the wallet to sign and send.
type CallRequest struct {
	ChainID int64  `json:"chainId"`
	To      string `json:"to"`
	Data    string `json:"data"`
	Value   string `json:"value"`
	Method  string `json:"method"`
}

// TxBuilder encodes contract writes. The server never signs.
type TxBuilder struct {
	chainID      int64
	tierDuration time.Duration
}

func NewTxBuilder(cfg *Config) *TxBuilder {
	return &TxBuilder{chainID: cfg.ChainID, tierDuration: cfg.TierDuration}
}

func (b *TxBuilder) build(contract, method string, value *big.Int, args ...interface{}) (*CallRequest, error) {
	to, err := contractAddress(contract)
	if err != nil {
		return nil, err
	}
	data, err := subscriptionABI.Pack(method, args...)
	if err != nil {
		return nil, apperrors.Invalid(method, err.Error())
	}
	if value == nil {
		value = new(big.Int)
	}
	return &CallRequest{
		ChainID: b.chainID,
		To:      strings.ToLower(to.Hex()),
		Data:    hexutil.Encode(data),
		Value:   hexutil.EncodeBig(value),
		Method:  method,
	}, nil
}

// CreateTier encodes createTier(name, priceWei, durationSeconds).
func (b *TxBuilder) CreateTier(contract, name string, priceWei *big.Int) (*CallRequest, error) {
	if name == "" {
		return nil, apperrors.Invalid("name", "is required")
	}
	if priceWei == nil || priceWei.Sign() < 0 {
		return nil, apperrors.Invalid("price", "must not be negative")
	}
	duration := big.NewInt(int64(b.tierDuration / time.Second))
	return b.build(contract, "createTier", nil, name, priceWei, duration)
}

// Subscribe encodes subscribe(tierId) carrying the tier price as value.
func (b *TxBuilder) Subscribe(contract string, tierID uint64, priceWei *big.Int) (*CallRequest, error) {
	if priceWei == nil || priceWei.Sign() < 0 {
		return nil, apperrors.Invalid("price", "must not be negative")
	}
	return b.build(contract, "subscribe", priceWei, new(big.Int).SetUint64(tierID))
}

func (b *TxBuilder) Withdraw(contract string) (*CallRequest, error) {
	return b.build(contract, "withdraw", nil)
}
