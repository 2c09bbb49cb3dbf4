package membership

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ManuelReschke/TierFox/app/models"
	"github.com/ManuelReschke/TierFox/internal/pkg/apperrors"
	"github.com/ManuelReschke/TierFox/internal/pkg/chain"
)

const (
	fan      = "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	creator  = "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
	contract = "0xcccccccccccccccccccccccccccccccccccccccc"
)

// memStore keys rows by (subscriber, creator) like the unique index does.
type memStore struct {
	mu     sync.Mutex
	rows   map[[2]string]models.Subscription
	nextID uint
	fail   error
	writes int
}

func newMemStore() *memStore {
	return &memStore{rows: map[[2]string]models.Subscription{}}
}

func (m *memStore) Upsert(_ context.Context, sub *models.Subscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes++
	if m.fail != nil {
		return m.fail
	}
	key := [2]string{sub.SubscriberAddress, sub.CreatorAddress}
	existing, ok := m.rows[key]
	if ok {
		sub.ID = existing.ID
		sub.CreatedAt = existing.CreatedAt
	} else {
		m.nextID++
		sub.ID = m.nextID
		sub.CreatedAt = sub.VerifiedAt
	}
	m.rows[key] = *sub
	return nil
}

type fakeReader struct {
	contract   string
	membership chain.Membership
	err        error
	forgotten  int
	reads      int
	queried    string
}

func (f *fakeReader) GetProfile(context.Context, string) (string, error) {
	f.reads++
	return f.contract, f.err
}
func (f *fakeReader) IsMember(context.Context, string, string) (bool, error) {
	return false, errors.New("unused")
}
func (f *fakeReader) Memberships(_ context.Context, _, subscriber string) (chain.Membership, error) {
	f.reads++
	f.queried = subscriber
	return f.membership, f.err
}
func (f *fakeReader) GetTiers(context.Context, string) ([]chain.OnchainTier, error) { return nil, nil }
func (f *fakeReader) TxStatus(context.Context, string) (chain.TxReceipt, error) {
	return chain.TxReceipt{}, nil
}
func (f *fakeReader) ForgetMembership(context.Context, string, string) { f.forgotten++ }

var now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newService(t *testing.T, store Store, reader chain.Reader) *Service {
	return NewService(store, reader, WithClock(func() time.Time { return now }), WithLogger(zaptest.NewLogger(t)))
}

func TestReconcileIsIdempotent(t *testing.T) {
	store := newMemStore()
	svc := newService(t, store, &fakeReader{})
	m := chain.Membership{Expiry: now.Add(30 * 24 * time.Hour), TierID: 2}

	for i := 0; i < 3; i++ {
		out, err := svc.Reconcile(context.Background(), fan, creator, m)
		require.NoError(t, err)
		assert.Equal(t, OutcomeSynced, out)
	}

	require.Len(t, store.rows, 1)
	row := store.rows[[2]string{fan, creator}]
	assert.Equal(t, uint(1), row.ID)
	assert.Equal(t, uint64(2), row.TierID)
	assert.Equal(t, m.Expiry, row.Expiry)
	assert.Equal(t, now, row.VerifiedAt)
}

func TestReconcileStalenessBoundary(t *testing.T) {
	tests := []struct {
		name   string
		expiry time.Time
		want   Outcome
	}{
		{"expiry equals now", now, OutcomeSkippedInactive},
		{"expired", now.Add(-time.Hour), OutcomeSkippedInactive},
		{"never subscribed", time.Time{}, OutcomeSkippedInactive},
		{"one second left", now.Add(time.Second), OutcomeSynced},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemStore()
			old := models.Subscription{
				ID: 9, SubscriberAddress: fan, CreatorAddress: creator,
				TierID: 1, Expiry: now.Add(-48 * time.Hour), VerifiedAt: now.Add(-72 * time.Hour),
			}
			store.rows[[2]string{fan, creator}] = old
			svc := newService(t, store, &fakeReader{})

			out, err := svc.Reconcile(context.Background(), fan, creator, chain.Membership{Expiry: tt.expiry, TierID: 3})
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
			if tt.want == OutcomeSkippedInactive {
				assert.Equal(t, 0, store.writes)
				assert.Equal(t, old, store.rows[[2]string{fan, creator}])
			}
		})
	}
}

func TestReconcileOverwritesSamePair(t *testing.T) {
	store := newMemStore()
	svc := newService(t, store, &fakeReader{})
	ctx := context.Background()

	_, err := svc.Reconcile(ctx, fan, creator, chain.Membership{Expiry: now.Add(time.Hour), TierID: 0})
	require.NoError(t, err)
	// Mixed case addresses hit the same key.
	_, err = svc.Reconcile(ctx, "0xAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA", creator, chain.Membership{Expiry: now.Add(2 * time.Hour), TierID: 4})
	require.NoError(t, err)

	require.Len(t, store.rows, 1)
	row := store.rows[[2]string{fan, creator}]
	assert.Equal(t, uint64(4), row.TierID)
	assert.Equal(t, now.Add(2*time.Hour), row.Expiry)
}

func TestReconcileSwallowsWriteFailure(t *testing.T) {
	store := newMemStore()
	store.fail = errors.New("deadlock")
	svc := newService(t, store, &fakeReader{})

	out, err := svc.Reconcile(context.Background(), fan, creator, chain.Membership{Expiry: now.Add(time.Hour)})
	require.NoError(t, err)
	assert.Equal(t, OutcomeWriteFailed, out)
}

func TestReconcileRejectsInvalidAddress(t *testing.T) {
	svc := newService(t, newMemStore(), &fakeReader{})
	_, err := svc.Reconcile(context.Background(), "bob", creator, chain.Membership{Expiry: now.Add(time.Hour)})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestSyncFromChain(t *testing.T) {
	t.Run("creator without contract", func(t *testing.T) {
		store := newMemStore()
		svc := newService(t, store, &fakeReader{contract: chain.ZeroAddress})
		res, err := svc.SyncFromChain(context.Background(), fan, creator)
		require.NoError(t, err)
		assert.Equal(t, OutcomeSkippedInactive, res.Outcome)
		assert.Equal(t, 0, store.writes)
	})

	t.Run("active membership", func(t *testing.T) {
		store := newMemStore()
		reader := &fakeReader{contract: contract, membership: chain.Membership{Expiry: now.Add(time.Hour), TierID: 1}}
		svc := newService(t, store, reader)
		res, err := svc.SyncFromChain(context.Background(), fan, creator)
		require.NoError(t, err)
		assert.Equal(t, OutcomeSynced, res.Outcome)
		assert.Equal(t, uint64(1), res.Membership.TierID)
		assert.Equal(t, 0, reader.forgotten)

		_, err = svc.Refresh(context.Background(), fan, creator)
		require.NoError(t, err)
		assert.Equal(t, 1, reader.forgotten)
	})

	t.Run("invalid address skips the chain", func(t *testing.T) {
		reader := &fakeReader{contract: contract, err: apperrors.Upstream("memberships", errors.New("bad address"))}
		svc := newService(t, newMemStore(), reader)
		_, err := svc.SyncFromChain(context.Background(), "bob", creator)
		assert.ErrorIs(t, err, apperrors.ErrValidation)
		_, err = svc.Refresh(context.Background(), fan, "0x12")
		assert.ErrorIs(t, err, apperrors.ErrValidation)
		assert.Zero(t, reader.reads)
		assert.Zero(t, reader.forgotten)
	})

	t.Run("subscriber is normalized before the read", func(t *testing.T) {
		reader := &fakeReader{contract: contract, membership: chain.Membership{Expiry: now.Add(time.Hour)}}
		svc := newService(t, newMemStore(), reader)
		_, err := svc.SyncFromChain(context.Background(), "  0xAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA ", creator)
		require.NoError(t, err)
		assert.Equal(t, fan, reader.queried)
	})

	t.Run("chain unavailable", func(t *testing.T) {
		reader := &fakeReader{err: apperrors.Upstream("getProfile", errors.New("timeout"))}
		svc := newService(t, newMemStore(), reader)
		_, err := svc.SyncFromChain(context.Background(), fan, creator)
		assert.ErrorIs(t, err, apperrors.ErrUpstream)
	})
}
