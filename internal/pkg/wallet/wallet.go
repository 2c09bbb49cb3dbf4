// Package wallet holds address normalization and personal_sign verification.
// Addresses are stored lower-case everywhere in TierFox.
package wallet

import (
	"errors"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

var (
	ErrInvalidAddress   = errors.New("invalid wallet address")
	ErrInvalidSignature = errors.New("invalid signature")
)

// Normalize returns the lower-case 0x form of addr, or "" if addr is not a
// 20 byte hex address.
func Normalize(addr string) string {
	addr = strings.TrimSpace(addr)
	if !common.IsHexAddress(addr) {
		return ""
	}
	return strings.ToLower(common.HexToAddress(addr).Hex())
}

// MustNormalize is Normalize with an error for invalid input.
func MustNormalize(addr string) (string, error) {
	n := Normalize(addr)
	if n == "" {
		return "", ErrInvalidAddress
	}
	return n, nil
}

// Equal compares two addresses ignoring case. Invalid addresses never match.
func Equal(a, b string) bool {
	na, nb := Normalize(a), Normalize(b)
	return na != "" && na == nb
}

// RecoverSigner returns the normalized address that produced an EIP-191
// personal_sign signature over message.
func RecoverSigner(message, signatureHex string) (string, error) {
	sig, err := hexutil.Decode(strings.TrimSpace(signatureHex))
	if err != nil || len(sig) != crypto.SignatureLength {
		return "", ErrInvalidSignature
	}
	// Wallets emit v as 27/28, go-ethereum expects 0/1.
	sig = append([]byte(nil), sig...)
	if sig[crypto.RecoveryIDOffset] >= 27 {
		sig[crypto.RecoveryIDOffset] -= 27
	}

	pub, err := crypto.SigToPub(accounts.TextHash([]byte(message)), sig)
	if err != nil {
		return "", ErrInvalidSignature
	}
	return strings.ToLower(crypto.PubkeyToAddress(*pub).Hex()), nil
}

// VerifySignature reports whether signatureHex over message was produced by address.
func VerifySignature(address, message, signatureHex string) bool {
	signer, err := RecoverSigner(message, signatureHex)
	if err != nil {
		return false
	}
	return signer == Normalize(address)
}
