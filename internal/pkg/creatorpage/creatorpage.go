// Package creatorpage assembles the creator page: profile, tiers, posts and
// the viewer's membership, with every post gated for that viewer.
package creatorpage

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ManuelReschke/TierFox/app/models"
	"github.com/ManuelReschke/TierFox/internal/pkg/apperrors"
	"github.com/ManuelReschke/TierFox/internal/pkg/entitlements"
	"github.com/ManuelReschke/TierFox/internal/pkg/membership"
	"github.com/ManuelReschke/TierFox/internal/pkg/tiers"
	"github.com/ManuelReschke/TierFox/internal/pkg/wallet"
)

// PostLimit caps the posts rendered on one page.
const PostLimit = 50

// Owner is the viewer used when creators look at their own posts.
var Owner = entitlements.Viewer{IsSubscribed: true, MemberTierID: int(^uint32(0) >> 1)}

type CreatorSource interface {
	GetByAddress(ctx context.Context, address string) (*models.Creator, error)
}

type TierSource interface {
	GetCatalog(ctx context.Context, creatorAddress string) (*models.TierCatalog, error)
}

type PostSource interface {
	ListByCreator(ctx context.Context, creatorAddress string, offset, limit int) ([]models.Post, error)
}

type MembershipSyncer interface {
	SyncFromChain(ctx context.Context, subscriber, creator string) (*membership.SyncResult, error)
}

// PostView is a post as seen by one viewer. Locked posts never carry content
// or the video link.
type PostView struct {
	ID        uint                `json:"id"`
	Slug      string              `json:"slug"`
	Title     string              `json:"title"`
	Body      string              `json:"body"`
	Image     string              `json:"image,omitempty"`
	VideoURL  string              `json:"videoUrl,omitempty"`
	IsPublic  bool                `json:"isPublic"`
	MinTier   int                 `json:"minTier"`
	Access    entitlements.Access `json:"access"`
	Likes     int64               `json:"likes"`
	CreatedAt time.Time           `json:"createdAt"`
}

// ViewerState is what the page knows about the person looking at it.
type ViewerState struct {
	Address         string     `json:"address,omitempty"`
	IsSubscribed    bool       `json:"isSubscribed"`
	MemberTierID    int        `json:"memberTierId"`
	Expiry          *time.Time `json:"expiry,omitempty"`
	MembershipError bool       `json:"membershipError"`
	IsOwner         bool       `json:"isOwner"`
}

type Page struct {
	Creator      *models.Creator `json:"creator"`
	Tiers        []models.Tier   `json:"tiers"`
	TiersError   bool            `json:"tiersError"`
	TierWarnings []string        `json:"tierWarnings,omitempty"`
	Posts        []PostView      `json:"posts"`
	Viewer       ViewerState     `json:"viewer"`
}

type Composer struct {
	creators CreatorSource
	tiers    TierSource
	posts    PostSource
	members  MembershipSyncer
	log      *zap.Logger
	now      func() time.Time
}

func NewComposer(creators CreatorSource, tierSrc TierSource, posts PostSource, members MembershipSyncer, log *zap.Logger) *Composer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Composer{
		creators: creators,
		tiers:    tierSrc,
		posts:    posts,
		members:  members,
		log:      log,
		now:      time.Now,
	}
}

// Compose fetches all inputs concurrently and evaluates access only after
// every fetch has settled. A missing creator is the only fatal read besides
// the post list; tier and membership failures degrade the page.
func (c *Composer) Compose(ctx context.Context, creatorAddress, viewerAddress string) (*Page, error) {
	creatorAddr := wallet.Normalize(creatorAddress)
	if creatorAddr == "" {
		return nil, apperrors.Invalid("address", "must be a 0x-prefixed 20 byte hex address")
	}
	viewerAddr := wallet.Normalize(viewerAddress)
	isOwner := viewerAddr != "" && viewerAddr == creatorAddr

	var (
		creator   *models.Creator
		catalog   *models.TierCatalog
		tiersErr  error
		posts     []models.Post
		synced    *membership.SyncResult
		memberErr error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		creator, err = c.creators.GetByAddress(gctx, creatorAddr)
		return err
	})
	g.Go(func() error {
		var err error
		posts, err = c.posts.ListByCreator(gctx, creatorAddr, 0, PostLimit)
		return err
	})
	g.Go(func() error {
		catalog, tiersErr = c.tiers.GetCatalog(gctx, creatorAddr)
		return nil
	})
	if viewerAddr != "" && !isOwner {
		g.Go(func() error {
			synced, memberErr = c.members.SyncFromChain(gctx, viewerAddr, creatorAddr)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	page := &Page{Creator: creator, Tiers: []models.Tier{}}
	switch {
	case tiersErr == nil && catalog != nil:
		page.Tiers = tiers.Visible(catalog)
		page.TierWarnings = tiers.CheckPriceOrdering(catalog.Tiers)
	case errors.Is(tiersErr, apperrors.ErrNotFound):
	default:
		page.TiersError = true
		c.log.Warn("tier catalog read failed", zap.String("creator", creatorAddr), zap.Error(tiersErr))
	}

	viewer, state := c.buildViewer(creatorAddr, viewerAddr, synced, memberErr)
	page.Viewer = state

	page.Posts = make([]PostView, 0, len(posts))
	for _, p := range posts {
		page.Posts = append(page.Posts, RenderPost(p, viewer))
	}
	return page, nil
}

// ResolveViewer reads the membership of viewerAddress for one creator and
// returns the gate input plus the state shown to the client.
func (c *Composer) ResolveViewer(ctx context.Context, creatorAddress, viewerAddress string) (entitlements.Viewer, ViewerState) {
	creatorAddr := wallet.Normalize(creatorAddress)
	viewerAddr := wallet.Normalize(viewerAddress)
	var (
		synced    *membership.SyncResult
		memberErr error
	)
	if viewerAddr != "" && viewerAddr != creatorAddr {
		synced, memberErr = c.members.SyncFromChain(ctx, viewerAddr, creatorAddr)
	}
	return c.buildViewer(creatorAddr, viewerAddr, synced, memberErr)
}

func (c *Composer) buildViewer(creatorAddr, viewerAddr string, synced *membership.SyncResult, memberErr error) (entitlements.Viewer, ViewerState) {
	state := ViewerState{Address: viewerAddr, MemberTierID: entitlements.NoTier}
	switch {
	case viewerAddr == "":
		return entitlements.Anonymous, state
	case viewerAddr == creatorAddr:
		state.IsOwner = true
		return Owner, state
	case memberErr != nil:
		state.MembershipError = true
		c.log.Warn("membership read failed",
			zap.String("creator", creatorAddr), zap.String("viewer", viewerAddr), zap.Error(memberErr))
		return entitlements.Anonymous, state
	case synced == nil:
		return entitlements.Anonymous, state
	}

	viewer := entitlements.ViewerFromMembership(synced.Membership.Expiry, synced.Membership.TierID, c.now())
	state.IsSubscribed = viewer.IsSubscribed
	state.MemberTierID = viewer.MemberTierID
	if viewer.IsSubscribed {
		expiry := synced.Membership.Expiry
		state.Expiry = &expiry
	}
	return viewer, state
}

// RenderPost gates a single post for viewer.
func RenderPost(p models.Post, viewer entitlements.Viewer) PostView {
	access := entitlements.Evaluate(entitlements.PostGate{IsPublic: p.IsPublic, MinTier: p.MinTier}, viewer)
	view := PostView{
		ID:        p.ID,
		Slug:      p.Slug,
		Title:     p.Title,
		Body:      entitlements.Render(access, p.Content, p.Teaser),
		Image:     p.Image,
		IsPublic:  p.IsPublic,
		MinTier:   p.MinTier,
		Access:    access,
		Likes:     p.Likes,
		CreatedAt: p.CreatedAt,
	}
	if access == entitlements.AccessFull {
		view.VideoURL = p.VideoURL
	}
	return view
}
