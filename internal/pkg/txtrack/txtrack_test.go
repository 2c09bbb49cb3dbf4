package txtrack

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ManuelReschke/TierFox/internal/pkg/apperrors"
	"github.com/ManuelReschke/TierFox/internal/pkg/chain"
	"github.com/ManuelReschke/TierFox/internal/pkg/membership"
)

const (
	creator = "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
	fan     = "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
)

var hash = "0x" + strings.Repeat("1f", 32)

type stubReader struct {
	chain.Reader
	receipt chain.TxReceipt
	polls   int
}

func (s *stubReader) TxStatus(context.Context, string) (chain.TxReceipt, error) {
	s.polls++
	return s.receipt, nil
}

type stubSyncer struct {
	calls []string
}

func (s *stubSyncer) Refresh(_ context.Context, subscriber, creator string) (*membership.SyncResult, error) {
	s.calls = append(s.calls, subscriber+"|"+creator)
	return &membership.SyncResult{Outcome: membership.OutcomeSynced}, nil
}

func newTracker(t *testing.T, reader chain.Reader, syncer Syncer, clock *time.Time) *Tracker {
	mr := miniredis.RunT(t)
	tr := NewTracker(redis.NewClient(&redis.Options{Addr: mr.Addr()}), reader, syncer, 90*time.Second, zaptest.NewLogger(t))
	tr.now = func() time.Time { return *clock }
	return tr
}

func tier(id uint64) *uint64 { return &id }

func TestSubscribeLifecycle(t *testing.T) {
	clock := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	reader := &stubReader{receipt: chain.TxReceipt{State: chain.TxPending}}
	syncer := &stubSyncer{}
	tr := newTracker(t, reader, syncer, &clock)
	ctx := context.Background()

	rec, err := tr.Register(ctx, Record{
		Hash: strings.ToUpper(hash[2:]), Kind: KindSubscribe, CreatorAddress: creator,
		Sender: fan, TierID: tier(1), Request: json.RawMessage(`{"tierId":1}`),
	})
	// Hash without 0x prefix is rejected.
	require.ErrorIs(t, err, apperrors.ErrValidation)
	assert.Nil(t, rec)

	rec, err = tr.Register(ctx, Record{
		Hash: hash, Kind: KindSubscribe, CreatorAddress: creator,
		Sender: fan, TierID: tier(1), Request: json.RawMessage(`{"tierId":1}`),
	})
	require.NoError(t, err)
	assert.Equal(t, chain.TxPending, rec.State)

	clock = clock.Add(30 * time.Second)
	rec, err = tr.Status(ctx, hash)
	require.NoError(t, err)
	assert.Equal(t, chain.TxPending, rec.State)
	assert.False(t, rec.Slow)

	clock = clock.Add(2 * time.Minute)
	rec, err = tr.Status(ctx, hash)
	require.NoError(t, err)
	assert.True(t, rec.Slow, "pending beyond the confirm timeout")

	reader.receipt = chain.TxReceipt{State: chain.TxSucceeded, From: fan, BlockNumber: 12}
	rec, err = tr.Status(ctx, hash)
	require.NoError(t, err)
	assert.Equal(t, chain.TxSucceeded, rec.State)
	assert.False(t, rec.Slow)
	assert.True(t, rec.Synced)
	assert.Equal(t, []string{fan + "|" + creator}, syncer.calls)

	// Terminal records are served without polling again.
	polls := reader.polls
	_, err = tr.Status(ctx, hash)
	require.NoError(t, err)
	assert.Equal(t, polls, reader.polls)
	assert.Len(t, syncer.calls, 1)
}

func TestFailedKeepsRequest(t *testing.T) {
	clock := time.Now()
	reader := &stubReader{receipt: chain.TxReceipt{State: chain.TxFailed}}
	syncer := &stubSyncer{}
	tr := newTracker(t, reader, syncer, &clock)
	ctx := context.Background()

	_, err := tr.Register(ctx, Record{
		Hash: hash, Kind: KindCreateTier, CreatorAddress: creator,
		Request: json.RawMessage(`{"name":"Gold","price":"1.5"}`),
	})
	require.NoError(t, err)

	rec, err := tr.Status(ctx, hash)
	require.NoError(t, err)
	assert.Equal(t, chain.TxFailed, rec.State)
	assert.JSONEq(t, `{"name":"Gold","price":"1.5"}`, string(rec.Request))
	assert.Empty(t, syncer.calls)
}

func TestRegisterValidation(t *testing.T) {
	clock := time.Now()
	tr := newTracker(t, &stubReader{}, nil, &clock)
	ctx := context.Background()

	_, err := tr.Register(ctx, Record{Hash: hash, Kind: "mint", CreatorAddress: creator})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = tr.Register(ctx, Record{Hash: hash, Kind: KindSubscribe, CreatorAddress: creator})
	assert.ErrorIs(t, err, apperrors.ErrValidation, "subscribe needs a tier")

	_, err = tr.Status(ctx, hash)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
