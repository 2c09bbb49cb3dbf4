// Package membership mirrors on-chain memberships into the subscriptions
// table. The table is a cache for list views; access decisions always use the
// chain read that was reconciled.
package membership

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ManuelReschke/TierFox/app/models"
	"github.com/ManuelReschke/TierFox/internal/pkg/apperrors"
	"github.com/ManuelReschke/TierFox/internal/pkg/chain"
	"github.com/ManuelReschke/TierFox/internal/pkg/metrics"
	"github.com/ManuelReschke/TierFox/internal/pkg/wallet"
)

// Outcome describes what Reconcile did with the cache.
type Outcome string

const (
	OutcomeSynced          Outcome = "synced"
	OutcomeSkippedInactive Outcome = "skipped_inactive"
	OutcomeWriteFailed     Outcome = "write_failed"
)

// Store is the cache write side, satisfied by repository.SubscriptionRepository.
type Store interface {
	Upsert(ctx context.Context, sub *models.Subscription) error
}

type membershipForgetter interface {
	ForgetMembership(ctx context.Context, contract, subscriber string)
}

// Service reconciles chain state into the subscriptions cache.
type Service struct {
	store  Store
	reader chain.Reader
	log    *zap.Logger
	now    func() time.Time
}

type Option func(*Service)

// WithClock overrides time.Now, used by tests around the expiry boundary.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithLogger(log *zap.Logger) Option {
	return func(s *Service) { s.log = log }
}

func NewService(store Store, reader chain.Reader, opts ...Option) *Service {
	s := &Service{store: store, reader: reader, log: zap.NewNop(), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Reconcile upserts the (subscriber, creator) row when the membership is
// active and leaves the cache untouched otherwise. A failed write is logged
// and reported as OutcomeWriteFailed with a nil error.
func (s *Service) Reconcile(ctx context.Context, subscriber, creator string, m chain.Membership) (Outcome, error) {
	sub, cr, err := normalizePair(subscriber, creator)
	if err != nil {
		return "", err
	}

	now := s.now().UTC()
	if !m.Active(now) {
		metrics.ReconcileOutcomes.WithLabelValues(string(OutcomeSkippedInactive)).Inc()
		return OutcomeSkippedInactive, nil
	}

	row := &models.Subscription{
		SubscriberAddress: sub,
		CreatorAddress:    cr,
		TierID:            m.TierID,
		Expiry:            m.Expiry.UTC().Truncate(time.Second),
		VerifiedAt:        now.Truncate(time.Second),
	}
	if err := s.store.Upsert(ctx, row); err != nil {
		s.log.Error("membership cache upsert failed",
			zap.String("subscriber", sub),
			zap.String("creator", cr),
			zap.Uint64("tierId", m.TierID),
			zap.Error(err))
		metrics.ReconcileOutcomes.WithLabelValues(string(OutcomeWriteFailed)).Inc()
		return OutcomeWriteFailed, nil
	}

	s.log.Debug("membership cache synced",
		zap.String("subscriber", sub),
		zap.String("creator", cr),
		zap.Uint64("tierId", m.TierID),
		zap.Time("expiry", row.Expiry))
	metrics.ReconcileOutcomes.WithLabelValues(string(OutcomeSynced)).Inc()
	return OutcomeSynced, nil
}

// SyncResult is the chain read plus what reconciliation did with it.
type SyncResult struct {
	Contract   string
	Membership chain.Membership
	Outcome    Outcome
}

// SyncFromChain resolves the creator's contract, reads the subscriber's
// membership and reconciles it. Creators without a contract have no members.
func (s *Service) SyncFromChain(ctx context.Context, subscriber, creator string) (*SyncResult, error) {
	return s.sync(ctx, subscriber, creator, false)
}

// Refresh is SyncFromChain after dropping any cached membership read, used
// once a subscribe transaction is confirmed.
func (s *Service) Refresh(ctx context.Context, subscriber, creator string) (*SyncResult, error) {
	return s.sync(ctx, subscriber, creator, true)
}

func (s *Service) sync(ctx context.Context, subscriber, creator string, bypassCache bool) (*SyncResult, error) {
	subscriber, creator, err := normalizePair(subscriber, creator)
	if err != nil {
		return nil, err
	}
	contract, err := s.reader.GetProfile(ctx, creator)
	if err != nil {
		return nil, err
	}
	if contract == chain.ZeroAddress {
		return &SyncResult{Contract: contract, Outcome: OutcomeSkippedInactive}, nil
	}
	if bypassCache {
		if f, ok := s.reader.(membershipForgetter); ok {
			f.ForgetMembership(ctx, contract, subscriber)
		}
	}

	m, err := s.reader.Memberships(ctx, contract, subscriber)
	if err != nil {
		return nil, err
	}
	outcome, err := s.Reconcile(ctx, subscriber, creator, m)
	if err != nil {
		return nil, err
	}
	return &SyncResult{Contract: contract, Membership: m, Outcome: outcome}, nil
}

func normalizePair(subscriber, creator string) (string, string, error) {
	sub := wallet.Normalize(subscriber)
	if sub == "" {
		return "", "", apperrors.Invalid("subscriberAddress", "must be a 0x-prefixed 20 byte hex address")
	}
	cr := wallet.Normalize(creator)
	if cr == "" {
		return "", "", apperrors.Invalid("creatorAddress", "must be a 0x-prefixed 20 byte hex address")
	}
	return sub, cr, nil
}
