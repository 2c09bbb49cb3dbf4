package walletauth

import (
	"context"
	"crypto/ecdsa"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/TierFox/internal/pkg/apperrors"
)

func sign(t *testing.T, key *ecdsa.PrivateKey, message string) string {
	t.Helper()
	sig, err := crypto.Sign(accounts.TextHash([]byte(message)), key)
	require.NoError(t, err)
	sig[crypto.RecoveryIDOffset] += 27
	return hexutil.Encode(sig)
}

func setup(t *testing.T) (*Service, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	return NewService(redis.NewClient(&redis.Options{Addr: mr.Addr()})), mr
}

func TestSignInFlow(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	addr := crypto.PubkeyToAddress(key.PublicKey).Hex()

	ch, err := svc.IssueNonce(ctx, addr)
	require.NoError(t, err)
	assert.Equal(t, strings.ToLower(addr), ch.Address)
	assert.Contains(t, ch.Message, ch.Nonce)

	got, err := svc.Verify(ctx, addr, sign(t, key, ch.Message))
	require.NoError(t, err)
	assert.Equal(t, strings.ToLower(addr), got)

	// Single use.
	_, err = svc.Verify(ctx, addr, sign(t, key, ch.Message))
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestVerifyRejectsOtherSigner(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()
	owner, _ := crypto.GenerateKey()
	attacker, _ := crypto.GenerateKey()
	addr := crypto.PubkeyToAddress(owner.PublicKey).Hex()

	ch, err := svc.IssueNonce(ctx, addr)
	require.NoError(t, err)

	_, err = svc.Verify(ctx, addr, sign(t, attacker, ch.Message))
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	// The failed attempt burned the nonce.
	_, err = svc.Verify(ctx, addr, sign(t, owner, ch.Message))
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestNonceExpires(t *testing.T) {
	svc, mr := setup(t)
	ctx := context.Background()
	key, _ := crypto.GenerateKey()
	addr := crypto.PubkeyToAddress(key.PublicKey).Hex()

	ch, err := svc.IssueNonce(ctx, addr)
	require.NoError(t, err)
	mr.FastForward(NonceTTL + time.Second)

	_, err = svc.Verify(ctx, addr, sign(t, key, ch.Message))
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestIssueNonceValidatesAddress(t *testing.T) {
	svc, _ := setup(t)
	_, err := svc.IssueNonce(context.Background(), "nope")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}
