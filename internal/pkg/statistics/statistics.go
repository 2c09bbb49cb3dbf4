package statistics

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ManuelReschke/TierFox/app/models"
	"github.com/ManuelReschke/TierFox/internal/pkg/apperrors"
	"github.com/ManuelReschke/TierFox/internal/pkg/cache"
	"github.com/ManuelReschke/TierFox/internal/pkg/tiers"
	"github.com/ManuelReschke/TierFox/internal/pkg/wallet"
)

const (
	CacheKeyCreator = "statistics:creator:%s"
	CacheExpiration = 5 * time.Minute
)

// TierCount is the number of active members on one tier.
type TierCount struct {
	TierID  uint64 `json:"tierId"`
	Name    string `json:"name"`
	Members int64  `json:"members"`
}

// CreatorStats summarizes a creator's active audience. Revenue is the sum of
// the tier prices of active subscriptions, i.e. the recurring amount.
type CreatorStats struct {
	Creator       string      `json:"creator"`
	ActiveMembers int64       `json:"activeMembers"`
	Revenue       string      `json:"revenue"`
	RevenueWei    string      `json:"revenueWei"`
	ByTier        []TierCount `json:"byTier"`
	ComputedAt    time.Time   `json:"computedAt"`
}

type SubscriptionSource interface {
	ListActiveByCreator(ctx context.Context, creatorAddress string, now time.Time) ([]models.Subscription, error)
}

type CatalogSource interface {
	GetCatalog(ctx context.Context, creatorAddress string) (*models.TierCatalog, error)
}

type Service struct {
	subs  SubscriptionSource
	tiers CatalogSource
	rdb   redis.Cmdable
	log   *zap.Logger
	now   func() time.Time
}

func NewService(subs SubscriptionSource, tierSrc CatalogSource, rdb redis.Cmdable, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{subs: subs, tiers: tierSrc, rdb: rdb, log: log, now: time.Now}
}

// CreatorStats returns cached statistics, computing them on a miss.
func (s *Service) CreatorStats(ctx context.Context, creator string) (*CreatorStats, error) {
	addr := wallet.Normalize(creator)
	if addr == "" {
		return nil, apperrors.Invalid("creator", "must be a 0x-prefixed 20 byte hex address")
	}
	key := fmt.Sprintf(CacheKeyCreator, addr)

	var stats CreatorStats
	err := cache.GetJSON(ctx, s.rdb, key, &stats)
	if err == nil {
		return &stats, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		s.log.Warn("statistics cache read failed", zap.String("key", key), zap.Error(err))
	}

	computed, err := s.compute(ctx, addr)
	if err != nil {
		return nil, err
	}
	if err := cache.SetJSON(ctx, s.rdb, key, computed, CacheExpiration); err != nil {
		s.log.Warn("statistics cache write failed", zap.String("key", key), zap.Error(err))
	}
	return computed, nil
}

// Invalidate drops the cached statistics of creator.
func (s *Service) Invalidate(ctx context.Context, creator string) error {
	return s.rdb.Del(ctx, fmt.Sprintf(CacheKeyCreator, wallet.Normalize(creator))).Err()
}

func (s *Service) compute(ctx context.Context, creator string) (*CreatorStats, error) {
	now := s.now().UTC()
	subs, err := s.subs.ListActiveByCreator(ctx, creator, now)
	if err != nil {
		return nil, err
	}
	catalog, err := s.tiers.GetCatalog(ctx, creator)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	revenue := new(big.Int)
	counts := map[uint64]int64{}
	for _, sub := range subs {
		counts[sub.TierID]++
		if catalog == nil {
			continue
		}
		t, ok := catalog.FindTier(sub.TierID)
		if !ok {
			continue
		}
		wei, err := tiers.PriceWei(t.Price)
		if err != nil {
			continue
		}
		revenue.Add(revenue, wei)
	}

	byTier := make([]TierCount, 0, len(counts))
	for id, n := range counts {
		tc := TierCount{TierID: id, Members: n}
		if catalog != nil {
			if t, ok := catalog.FindTier(id); ok {
				tc.Name = t.Name
			}
		}
		byTier = append(byTier, tc)
	}
	sort.Slice(byTier, func(i, j int) bool { return byTier[i].TierID < byTier[j].TierID })

	return &CreatorStats{
		Creator:       creator,
		ActiveMembers: int64(len(subs)),
		Revenue:       tiers.FormatWei(revenue),
		RevenueWei:    revenue.String(),
		ByTier:        byTier,
		ComputedAt:    now,
	}, nil
}
