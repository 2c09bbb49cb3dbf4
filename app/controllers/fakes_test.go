package controllers

import (
	"context"
	"io"
	"math/big"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/TierFox/app/models"
	"github.com/ManuelReschke/TierFox/app/repository"
	"github.com/ManuelReschke/TierFox/internal/pkg/apperrors"
	"github.com/ManuelReschke/TierFox/internal/pkg/chain"
	"github.com/ManuelReschke/TierFox/internal/pkg/membership"
	"github.com/ManuelReschke/TierFox/internal/pkg/usercontext"
	"github.com/ManuelReschke/TierFox/internal/pkg/wallet"
)

const (
	creatorAddr  = "0x1111111111111111111111111111111111111111"
	otherAddr    = "0x2222222222222222222222222222222222222222"
	fanAddr      = "0x3333333333333333333333333333333333333333"
	contractAddr = "0x4444444444444444444444444444444444444444"
	walletHeader = "X-Test-Wallet"
)

// newTestApp returns an app whose requests are signed in as the address in
// the X-Test-Wallet header.
func newTestApp() *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if addr := wallet.Normalize(c.Get(walletHeader)); addr != "" {
			usercontext.Set(c, usercontext.UserContext{Address: addr, IsLoggedIn: true})
		}
		return c.Next()
	})
	return app
}

func doRequest(t *testing.T, app *fiber.App, method, target, as, body string) (int, string) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if as != "" {
		req.Header.Set(walletHeader, as)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(raw)
}

type fakeCreators struct {
	mu   sync.Mutex
	rows map[string]models.Creator
}

func newFakeCreators(list ...models.Creator) *fakeCreators {
	f := &fakeCreators{rows: map[string]models.Creator{}}
	for _, c := range list {
		f.rows[c.Address] = c
	}
	return f
}

func (f *fakeCreators) Upsert(_ context.Context, c *models.Creator) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[c.Address] = *c
	return nil
}

func (f *fakeCreators) GetByAddress(_ context.Context, addr string) (*models.Creator, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.rows[addr]
	if !ok {
		return nil, apperrors.NotFound("creator")
	}
	return &c, nil
}

func (f *fakeCreators) List(_ context.Context, _ repository.CreatorFilter) ([]models.Creator, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Creator, 0, len(f.rows))
	for _, c := range f.rows {
		out = append(out, c)
	}
	return out, nil
}

type fakePosts struct {
	mu     sync.Mutex
	nextID uint
	rows   map[uint]models.Post
}

func newFakePosts(list ...models.Post) *fakePosts {
	f := &fakePosts{rows: map[uint]models.Post{}}
	for _, p := range list {
		f.rows[p.ID] = p
		if p.ID > f.nextID {
			f.nextID = p.ID
		}
	}
	return f
}

func (f *fakePosts) Create(_ context.Context, p *models.Post) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	p.ID = f.nextID
	f.rows[p.ID] = *p
	return nil
}

func (f *fakePosts) GetByID(_ context.Context, id uint) (*models.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.rows[id]
	if !ok {
		return nil, apperrors.NotFound("post")
	}
	return &p, nil
}

func (f *fakePosts) GetBySlug(_ context.Context, slug string) (*models.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.rows {
		if p.Slug == slug {
			return &p, nil
		}
	}
	return nil, apperrors.NotFound("post")
}

func (f *fakePosts) ListByCreator(_ context.Context, addr string, offset, limit int) ([]models.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Post
	for _, p := range f.rows {
		if p.CreatorAddress == addr {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakePosts) Update(_ context.Context, p *models.Post) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[p.ID] = *p
	return nil
}

func (f *fakePosts) Delete(_ context.Context, id uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[id]; !ok {
		return apperrors.NotFound("post")
	}
	delete(f.rows, id)
	return nil
}

func (f *fakePosts) IncrementLikes(_ context.Context, id uint, delta int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := f.rows[id]
	p.Likes += delta
	f.rows[id] = p
	return nil
}

type fakeTiers struct {
	mu       sync.Mutex
	catalogs map[string]models.TierCatalog
}

func newFakeTiers(list ...models.TierCatalog) *fakeTiers {
	f := &fakeTiers{catalogs: map[string]models.TierCatalog{}}
	for _, c := range list {
		f.catalogs[c.CreatorAddress] = c
	}
	return f
}

func (f *fakeTiers) GetCatalog(_ context.Context, addr string) (*models.TierCatalog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.catalogs[addr]
	if !ok {
		return nil, apperrors.NotFound("tier catalog")
	}
	return &c, nil
}

func (f *fakeTiers) SaveCatalog(_ context.Context, c *models.TierCatalog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.catalogs[c.CreatorAddress] = *c
	return nil
}

type fakeSubs struct {
	mu   sync.Mutex
	rows map[[2]string]models.Subscription
}

func newFakeSubs(list ...models.Subscription) *fakeSubs {
	f := &fakeSubs{rows: map[[2]string]models.Subscription{}}
	for _, s := range list {
		f.rows[[2]string{s.SubscriberAddress, s.CreatorAddress}] = s
	}
	return f
}

func (f *fakeSubs) Upsert(_ context.Context, s *models.Subscription) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[[2]string{s.SubscriberAddress, s.CreatorAddress}] = *s
	return nil
}

func (f *fakeSubs) Get(_ context.Context, subscriber, creator string) (*models.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.rows[[2]string{subscriber, creator}]
	if !ok {
		return nil, apperrors.NotFound("subscription")
	}
	return &s, nil
}

func (f *fakeSubs) List(_ context.Context, subscriber, creator string) ([]models.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Subscription
	for _, s := range f.rows {
		if subscriber != "" && s.SubscriberAddress != subscriber {
			continue
		}
		if creator != "" && s.CreatorAddress != creator {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubscriberAddress < out[j].SubscriberAddress })
	return out, nil
}

func (f *fakeSubs) ListActiveByCreator(ctx context.Context, creator string, now time.Time) ([]models.Subscription, error) {
	all, _ := f.List(ctx, "", creator)
	var out []models.Subscription
	for _, s := range all {
		if s.IsActive(now) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeSubs) CountActiveByCreator(ctx context.Context, creator string, now time.Time) (int64, error) {
	active, _ := f.ListActiveByCreator(ctx, creator, now)
	return int64(len(active)), nil
}

// fakeReader is a chain.Reader backed by maps.
type fakeReader struct {
	profiles    map[string]string
	memberships map[[2]string]chain.Membership
	tiers       map[string][]chain.OnchainTier
	profileErr  error
}

func newFakeReader() *fakeReader {
	return &fakeReader{
		profiles:    map[string]string{},
		memberships: map[[2]string]chain.Membership{},
		tiers:       map[string][]chain.OnchainTier{},
	}
}

func (f *fakeReader) GetProfile(_ context.Context, creator string) (string, error) {
	if f.profileErr != nil {
		return "", f.profileErr
	}
	if c, ok := f.profiles[creator]; ok {
		return c, nil
	}
	return chain.ZeroAddress, nil
}

func (f *fakeReader) IsMember(ctx context.Context, contract, subscriber string) (bool, error) {
	m, err := f.Memberships(ctx, contract, subscriber)
	return m.Active(time.Now()), err
}

func (f *fakeReader) Memberships(_ context.Context, contract, subscriber string) (chain.Membership, error) {
	return f.memberships[[2]string{contract, subscriber}], nil
}

func (f *fakeReader) GetTiers(_ context.Context, contract string) ([]chain.OnchainTier, error) {
	return f.tiers[contract], nil
}

func (f *fakeReader) TxStatus(_ context.Context, hash string) (chain.TxReceipt, error) {
	return chain.TxReceipt{Hash: hash, State: chain.TxPending}, nil
}

func testBuilder() *chain.TxBuilder {
	return chain.NewTxBuilder(&chain.Config{ChainID: 8453, TierDuration: 30 * 24 * time.Hour})
}

func wei(s string) *big.Int {
	v, _ := new(big.Int).SetString(s, 10)
	return v
}

var _ membership.Store = (*fakeSubs)(nil)
