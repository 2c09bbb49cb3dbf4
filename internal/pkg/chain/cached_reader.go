package chain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ManuelReschke/TierFox/internal/pkg/cache"
	"github.com/ManuelReschke/TierFox/internal/pkg/metrics"
	"github.com/ManuelReschke/TierFox/internal/pkg/wallet"
)

const (
	profileKey    = "chain:profile:%s"
	membershipKey = "chain:membership:%s:%s"
	tiersKey      = "chain:tiers:%s"
)

// CachedReader serves reads from Redis within a bounded staleness window and
// falls through to the chain on miss or cache failure.
type CachedReader struct {
	next       Reader
	rdb        redis.Cmdable
	freshness  time.Duration
	profileTTL time.Duration
	log        *zap.Logger
}

func NewCachedReader(next Reader, rdb redis.Cmdable, cfg *Config, log *zap.Logger) *CachedReader {
	if log == nil {
		log = zap.NewNop()
	}
	return &CachedReader{
		next:       next,
		rdb:        rdb,
		freshness:  cfg.Freshness,
		profileTTL: cfg.ProfileTTL,
		log:        log,
	}
}

func (r *CachedReader) lookup(ctx context.Context, kind, key string, dst interface{}) bool {
	err := cache.GetJSON(ctx, r.rdb, key, dst)
	switch {
	case err == nil:
		metrics.ChainCacheLookups.WithLabelValues(kind, "hit").Inc()
		return true
	case errors.Is(err, cache.ErrMiss):
		metrics.ChainCacheLookups.WithLabelValues(kind, "miss").Inc()
	default:
		metrics.ChainCacheLookups.WithLabelValues(kind, "error").Inc()
		r.log.Warn("chain cache read failed", zap.String("key", key), zap.Error(err))
	}
	return false
}

func (r *CachedReader) store(ctx context.Context, key string, v interface{}, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	if err := cache.SetJSON(ctx, r.rdb, key, v, ttl); err != nil {
		r.log.Warn("chain cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func (r *CachedReader) GetProfile(ctx context.Context, creator string) (string, error) {
	key := fmt.Sprintf(profileKey, wallet.Normalize(creator))
	var contract string
	if r.lookup(ctx, "profile", key, &contract) {
		return contract, nil
	}
	defer metrics.ObserveChainCall("getProfile", time.Now())
	contract, err := r.next.GetProfile(ctx, creator)
	if err != nil {
		return "", err
	}
	// A creator may deploy later; only remember real contracts.
	if contract != ZeroAddress {
		r.store(ctx, key, contract, r.profileTTL)
	}
	return contract, nil
}

func (r *CachedReader) IsMember(ctx context.Context, contract, subscriber string) (bool, error) {
	defer metrics.ObserveChainCall("isMember", time.Now())
	return r.next.IsMember(ctx, contract, subscriber)
}

func (r *CachedReader) Memberships(ctx context.Context, contract, subscriber string) (Membership, error) {
	key := fmt.Sprintf(membershipKey, wallet.Normalize(contract), wallet.Normalize(subscriber))
	var m Membership
	if r.lookup(ctx, "membership", key, &m) {
		return m, nil
	}
	defer metrics.ObserveChainCall("memberships", time.Now())
	m, err := r.next.Memberships(ctx, contract, subscriber)
	if err != nil {
		return Membership{}, err
	}
	r.store(ctx, key, m, r.freshness)
	return m, nil
}

func (r *CachedReader) GetTiers(ctx context.Context, contract string) ([]OnchainTier, error) {
	key := fmt.Sprintf(tiersKey, wallet.Normalize(contract))
	var tiers []OnchainTier
	if r.lookup(ctx, "tiers", key, &tiers) {
		return tiers, nil
	}
	defer metrics.ObserveChainCall("getTiers", time.Now())
	tiers, err := r.next.GetTiers(ctx, contract)
	if err != nil {
		return nil, err
	}
	r.store(ctx, key, tiers, r.freshness)
	return tiers, nil
}

// TxStatus is never cached.
func (r *CachedReader) TxStatus(ctx context.Context, hash string) (TxReceipt, error) {
	return r.next.TxStatus(ctx, hash)
}

// ForgetMembership drops the cached membership so the next read hits the chain.
func (r *CachedReader) ForgetMembership(ctx context.Context, contract, subscriber string) {
	key := fmt.Sprintf(membershipKey, wallet.Normalize(contract), wallet.Normalize(subscriber))
	if err := r.rdb.Del(ctx, key).Err(); err != nil {
		r.log.Warn("chain cache delete failed", zap.String("key", key), zap.Error(err))
	}
}

// ForgetTiers drops the cached tier list of a contract.
func (r *CachedReader) ForgetTiers(ctx context.Context, contract string) {
	key := fmt.Sprintf(tiersKey, wallet.Normalize(contract))
	if err := r.rdb.Del(ctx, key).Err(); err != nil {
		r.log.Warn("chain cache delete failed", zap.String("key", key), zap.Error(err))
	}
}
