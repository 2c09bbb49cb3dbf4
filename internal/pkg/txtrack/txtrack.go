// Package txtrack follows wallet-submitted transactions from pending to a
// terminal state by polling receipts on demand.
package txtrack

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ManuelReschke/TierFox/internal/pkg/apperrors"
	"github.com/ManuelReschke/TierFox/internal/pkg/cache"
	"github.com/ManuelReschke/TierFox/internal/pkg/chain"
	"github.com/ManuelReschke/TierFox/internal/pkg/membership"
	"github.com/ManuelReschke/TierFox/internal/pkg/metrics"
	"github.com/ManuelReschke/TierFox/internal/pkg/wallet"
)

type Kind string

const (
	KindSubscribe  Kind = "subscribe"
	KindCreateTier Kind = "createTier"
	KindWithdraw   Kind = "withdraw"
)

const (
	recordKey = "tx:%s"
	recordTTL = 24 * time.Hour
)

// Record is the tracked transaction. Request keeps the original client input
// so a failed transaction can be retried without re-entering it.
type Record struct {
	Hash           string          `json:"hash"`
	Kind           Kind            `json:"kind"`
	CreatorAddress string          `json:"creatorAddress"`
	Sender         string          `json:"sender"`
	TierID         *uint64         `json:"tierId,omitempty"`
	Request        json.RawMessage `json:"request,omitempty"`
	State          chain.TxState   `json:"state"`
	Slow           bool            `json:"slow"`
	BlockNumber    uint64          `json:"blockNumber,omitempty"`
	Synced         bool            `json:"synced"`
	SubmittedAt    time.Time       `json:"submittedAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// Terminal reports whether the record will not change any more.
func (r *Record) Terminal() bool {
	return r.State == chain.TxSucceeded || r.State == chain.TxFailed
}

// Syncer refreshes the cached membership after a confirmed subscribe.
type Syncer interface {
	Refresh(ctx context.Context, subscriber, creator string) (*membership.SyncResult, error)
}

type tiersForgetter interface {
	ForgetTiers(ctx context.Context, contract string)
}

type Tracker struct {
	rdb     redis.Cmdable
	reader  chain.Reader
	syncer  Syncer
	timeout time.Duration
	log     *zap.Logger
	now     func() time.Time
}

func NewTracker(rdb redis.Cmdable, reader chain.Reader, syncer Syncer, confirmTimeout time.Duration, log *zap.Logger) *Tracker {
	if log == nil {
		log = zap.NewNop()
	}
	return &Tracker{
		rdb:     rdb,
		reader:  reader,
		syncer:  syncer,
		timeout: confirmTimeout,
		log:     log,
		now:     time.Now,
	}
}

func validKind(k Kind) bool {
	switch k {
	case KindSubscribe, KindCreateTier, KindWithdraw:
		return true
	}
	return false
}

// Register starts tracking a transaction. Registering the same hash again
// returns the stored record unchanged.
func (t *Tracker) Register(ctx context.Context, rec Record) (*Record, error) {
	rec.Hash = strings.ToLower(strings.TrimSpace(rec.Hash))
	if len(rec.Hash) != 66 || !strings.HasPrefix(rec.Hash, "0x") {
		return nil, apperrors.Invalid("hash", "must be a 0x-prefixed 32 byte hex hash")
	}
	if !validKind(rec.Kind) {
		return nil, apperrors.Invalid("kind", "must be one of subscribe createTier withdraw")
	}
	if rec.CreatorAddress = wallet.Normalize(rec.CreatorAddress); rec.CreatorAddress == "" {
		return nil, apperrors.Invalid("creatorAddress", "must be a 0x-prefixed 20 byte hex address")
	}
	if rec.Kind == KindSubscribe && rec.TierID == nil {
		return nil, apperrors.Invalid("tierId", "is required")
	}

	if existing, err := t.load(ctx, rec.Hash); err == nil {
		return existing, nil
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	now := t.now().UTC()
	rec.State = chain.TxPending
	rec.Slow = false
	rec.Synced = false
	rec.SubmittedAt = now
	rec.UpdatedAt = now
	if err := t.save(ctx, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// Status returns the record, polling the chain while it is still pending.
func (t *Tracker) Status(ctx context.Context, hash string) (*Record, error) {
	rec, err := t.load(ctx, strings.ToLower(strings.TrimSpace(hash)))
	if err != nil {
		return nil, err
	}
	if rec.Terminal() {
		return rec, nil
	}

	receipt, err := t.reader.TxStatus(ctx, rec.Hash)
	if err != nil {
		return nil, err
	}

	now := t.now().UTC()
	rec.UpdatedAt = now
	switch receipt.State {
	case chain.TxPending:
		rec.Slow = now.Sub(rec.SubmittedAt) > t.timeout
	default:
		rec.State = receipt.State
		rec.Slow = false
		rec.BlockNumber = receipt.BlockNumber
		metrics.TransactionStates.WithLabelValues(string(rec.Kind), string(rec.State)).Inc()
		if rec.State == chain.TxSucceeded {
			t.afterSuccess(ctx, rec, receipt)
		}
	}

	if err := t.save(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (t *Tracker) afterSuccess(ctx context.Context, rec *Record, receipt chain.TxReceipt) {
	switch rec.Kind {
	case KindSubscribe:
		subscriber := receipt.From
		if subscriber == "" {
			subscriber = rec.Sender
		}
		if subscriber == "" || t.syncer == nil {
			return
		}
		res, err := t.syncer.Refresh(ctx, subscriber, rec.CreatorAddress)
		if err != nil {
			t.log.Warn("membership sync after subscribe failed",
				zap.String("hash", rec.Hash), zap.String("subscriber", subscriber), zap.Error(err))
			return
		}
		rec.Synced = res.Outcome == membership.OutcomeSynced
	case KindCreateTier:
		if f, ok := t.reader.(tiersForgetter); ok && receipt.To != "" {
			f.ForgetTiers(ctx, receipt.To)
		}
	}
}

func (t *Tracker) load(ctx context.Context, hash string) (*Record, error) {
	var rec Record
	err := cache.GetJSON(ctx, t.rdb, fmt.Sprintf(recordKey, hash), &rec)
	if errors.Is(err, cache.ErrMiss) {
		return nil, apperrors.NotFound("transaction")
	}
	if err != nil {
		return nil, fmt.Errorf("load transaction: %w", err)
	}
	return &rec, nil
}

func (t *Tracker) save(ctx context.Context, rec *Record) error {
	if err := cache.SetJSON(ctx, t.rdb, fmt.Sprintf(recordKey, rec.Hash), rec, recordTTL); err != nil {
		return fmt.Errorf("save transaction: %w", err)
	}
	return nil
}
