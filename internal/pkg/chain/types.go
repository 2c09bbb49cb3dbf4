package chain

import (
	"context"
	"math/big"
	"time"
)

// Membership is the contract's authoritative record for one subscriber.
type Membership struct {
	Expiry time.Time `json:"expiry"`
	TierID uint64    `json:"tierId"`
}

// Active reports expiry > now. There is no separate cancelled state.
func (m Membership) Active(now time.Time) bool {
	return !m.Expiry.IsZero() && m.Expiry.After(now)
}

// OnchainTier is a tier as stored in the subscription contract. Its position
// in the returned slice is its tier id.
type OnchainTier struct {
	ID       uint64   `json:"id"`
	Name     string   `json:"name"`
	PriceWei *big.Int `json:"priceWei"`
	Duration uint64   `json:"durationSeconds"`
	Active   bool     `json:"active"`
}

// TxState is the lifecycle of a wallet-submitted transaction.
type TxState string

const (
	TxPending   TxState = "pending"
	TxSucceeded TxState = "succeeded"
	TxFailed    TxState = "failed"
)

// TxReceipt summarizes what the node knows about a transaction.
type TxReceipt struct {
	Hash        string  `json:"hash"`
	State       TxState `json:"state"`
	From        string  `json:"from,omitempty"`
	To          string  `json:"to,omitempty"`
	BlockNumber uint64  `json:"blockNumber,omitempty"`
}

// Reader is the read side of the chain collaborator. Addresses are
// lower-case hex strings; a zero contract address means "no profile".
type Reader interface {
	GetProfile(ctx context.Context, creator string) (string, error)
	IsMember(ctx context.Context, contract, subscriber string) (bool, error)
	Memberships(ctx context.Context, contract, subscriber string) (Membership, error)
	GetTiers(ctx context.Context, contract string) ([]OnchainTier, error)
	TxStatus(ctx context.Context, hash string) (TxReceipt, error)
}

var maxExpiry = time.Date(9999, 12, 31, 23, 59, 59, 0, time.UTC)

// ZeroAddress is returned by getProfile for creators without a contract.
const ZeroAddress = "0x0000000000000000000000000000000000000000"

func unixToTime(v *big.Int) time.Time {
	if v == nil || v.Sign() <= 0 {
		return time.Time{}
	}
	if !v.IsInt64() {
		return maxExpiry
	}
	return time.Unix(v.Int64(), 0).UTC()
}

func toUint64(v *big.Int) uint64 {
	if v == nil || v.Sign() < 0 {
		return 0
	}
	if !v.IsUint64() {
		return ^uint64(0)
	}
	return v.Uint64()
}
