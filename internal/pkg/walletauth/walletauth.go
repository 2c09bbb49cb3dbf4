// Package walletauth implements sign-in by wallet signature: the server
// issues a one-time nonce, the wallet signs it with personal_sign, and the
// recovered signer becomes the session identity.
package walletauth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/ManuelReschke/TierFox/internal/pkg/apperrors"
	"github.com/ManuelReschke/TierFox/internal/pkg/wallet"
)

const (
	nonceKey = "walletauth:nonce:%s"
	// NonceTTL bounds how long a challenge can be signed.
	NonceTTL = 5 * time.Minute
)

// Challenge is what the wallet must sign.
type Challenge struct {
	Address   string    `json:"address"`
	Nonce     string    `json:"nonce"`
	Message   string    `json:"message"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type Service struct {
	rdb redis.Cmdable
	now func() time.Time
}

func NewService(rdb redis.Cmdable) *Service {
	return &Service{rdb: rdb, now: time.Now}
}

// Message is the exact text presented to the wallet.
func Message(address, nonce string) string {
	return fmt.Sprintf("Sign in to TierFox\n\nAddress: %s\nNonce: %s", address, nonce)
}

// IssueNonce stores a fresh nonce for address, replacing any pending one.
func (s *Service) IssueNonce(ctx context.Context, address string) (*Challenge, error) {
	addr := wallet.Normalize(address)
	if addr == "" {
		return nil, apperrors.Invalid("address", "must be a 0x-prefixed 20 byte hex address")
	}
	nonce := uuid.NewString()
	if err := s.rdb.Set(ctx, fmt.Sprintf(nonceKey, addr), nonce, NonceTTL).Err(); err != nil {
		return nil, fmt.Errorf("store nonce: %w", err)
	}
	return &Challenge{
		Address:   addr,
		Nonce:     nonce,
		Message:   Message(addr, nonce),
		ExpiresAt: s.now().Add(NonceTTL).UTC(),
	}, nil
}

// Verify consumes the pending nonce and checks that signature was produced
// by address over its challenge message. It returns the normalized address.
func (s *Service) Verify(ctx context.Context, address, signature string) (string, error) {
	addr := wallet.Normalize(address)
	if addr == "" {
		return "", apperrors.Invalid("address", "must be a 0x-prefixed 20 byte hex address")
	}

	nonce, err := s.rdb.GetDel(ctx, fmt.Sprintf(nonceKey, addr)).Result()
	if errors.Is(err, redis.Nil) {
		return "", fmt.Errorf("no pending challenge: %w", apperrors.ErrUnauthorized)
	}
	if err != nil {
		return "", fmt.Errorf("load nonce: %w", err)
	}

	signer, err := wallet.RecoverSigner(Message(addr, nonce), signature)
	if err != nil {
		return "", fmt.Errorf("%v: %w", err, apperrors.ErrUnauthorized)
	}
	if signer != addr {
		return "", fmt.Errorf("signature does not match address: %w", apperrors.ErrUnauthorized)
	}
	return addr, nil
}
