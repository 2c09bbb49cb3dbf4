package chain

import (
	"crypto/ecdsa"

	"github.com/ethereum/go-ethereum/crypto"
)

func newTestKey() (*ecdsa.PrivateKey, error) {
	return crypto.GenerateKey()
}
