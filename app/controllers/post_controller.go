package controllers

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/ManuelReschke/TierFox/app/models"
	"github.com/ManuelReschke/TierFox/app/repository"
	"github.com/ManuelReschke/TierFox/internal/pkg/apperrors"
	"github.com/ManuelReschke/TierFox/internal/pkg/creatorpage"
	"github.com/ManuelReschke/TierFox/internal/pkg/entitlements"
	"github.com/ManuelReschke/TierFox/internal/pkg/logging"
	"github.com/ManuelReschke/TierFox/internal/pkg/ownership"
	"github.com/ManuelReschke/TierFox/internal/pkg/shortener"
)

// LikeCounter buffers likes; satisfied by *counter.Likes.
type LikeCounter interface {
	Add(ctx context.Context, postID uint) error
	Pending(ctx context.Context, postID uint) (int64, error)
}

// ViewerResolver gates posts for the current wallet; satisfied by
// *creatorpage.Composer.
type ViewerResolver interface {
	ResolveViewer(ctx context.Context, creatorAddress, viewerAddress string) (entitlements.Viewer, creatorpage.ViewerState)
}

// PostController handles creator posts. Reads are gated per viewer, writes
// are restricted to the owning creator.
type PostController struct {
	posts    repository.PostRepository
	creators repository.CreatorRepository
	tiers    repository.TierRepository
	viewers  ViewerResolver
	likes    LikeCounter
}

func NewPostController(
	posts repository.PostRepository,
	creators repository.CreatorRepository,
	tierRepo repository.TierRepository,
	viewers ViewerResolver,
	likes LikeCounter,
) *PostController {
	return &PostController{posts: posts, creators: creators, tiers: tierRepo, viewers: viewers, likes: likes}
}

type postRequest struct {
	CreatorAddress string `json:"creatorAddress"`
	Title          string `json:"title" validate:"required,min=1,max=255"`
	Content        string `json:"content" validate:"required"`
	Teaser         string `json:"teaser" validate:"max=500"`
	Image          string `json:"image" validate:"omitempty,url,max=512"`
	VideoURL       string `json:"videoUrl" validate:"omitempty,url,max=512"`
	MinTier        int    `json:"minTier" validate:"min=0"`
	IsPublic       bool   `json:"isPublic"`
}

// HandleList lists the posts of ?address= gated for the current viewer.
func (pc *PostController) HandleList(c *fiber.Ctx) error {
	creator, err := addressParam("address", c.Query("address"))
	if err != nil {
		return respondError(c, err)
	}
	offset, limit := pagination(c)
	posts, err := pc.posts.ListByCreator(c.UserContext(), creator, offset, limit)
	if err != nil {
		return respondError(c, err)
	}

	viewer, state := pc.viewers.ResolveViewer(c.UserContext(), creator, callerAddress(c))
	views := make([]creatorpage.PostView, 0, len(posts))
	for _, p := range posts {
		views = append(views, creatorpage.RenderPost(p, viewer))
	}
	return c.JSON(fiber.Map{"posts": views, "viewer": state, "offset": offset, "limit": limit})
}

// HandleGet returns one post by numeric id or share slug.
func (pc *PostController) HandleGet(c *fiber.Ctx) error {
	post, err := pc.lookup(c)
	if err != nil {
		return respondError(c, err)
	}
	viewer, state := pc.viewers.ResolveViewer(c.UserContext(), post.CreatorAddress, callerAddress(c))
	return c.JSON(fiber.Map{"post": creatorpage.RenderPost(*post, viewer), "viewer": state})
}

func (pc *PostController) HandleCreate(c *fiber.Ctx) error {
	caller := callerAddress(c)
	var req postRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}
	if err := ownership.CheckAsserted(caller, req.CreatorAddress, caller); err != nil {
		return respondError(c, err)
	}
	ctx := c.UserContext()
	if _, err := pc.creators.GetByAddress(ctx, caller); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return respondError(c, apperrors.Invalid("creatorAddress", "create a creator profile first"))
		}
		return respondError(c, err)
	}
	if err := pc.checkMinTier(c, caller, req.MinTier); err != nil {
		return respondError(c, err)
	}

	slug, err := shortener.PostSlug()
	if err != nil {
		return respondError(c, err)
	}
	post := &models.Post{
		Slug:           slug,
		CreatorAddress: caller,
		Title:          strings.TrimSpace(req.Title),
		Content:        req.Content,
		Teaser:         strings.TrimSpace(req.Teaser),
		Image:          req.Image,
		VideoURL:       req.VideoURL,
		MinTier:        req.MinTier,
		IsPublic:       req.IsPublic,
	}
	if err := pc.posts.Create(ctx, post); err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

// HandleUpdate replaces the editable fields of a post. The stored creator
// address is never changed.
func (pc *PostController) HandleUpdate(c *fiber.Ctx) error {
	id, err := uintParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var req postRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}
	ctx := c.UserContext()
	post, err := pc.posts.GetByID(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	caller := callerAddress(c)
	if err := ownership.CheckAsserted(caller, req.CreatorAddress, post.CreatorAddress); err != nil {
		return respondError(c, err)
	}
	if err := pc.checkMinTier(c, caller, req.MinTier); err != nil {
		return respondError(c, err)
	}

	post.Title = strings.TrimSpace(req.Title)
	post.Content = req.Content
	post.Teaser = strings.TrimSpace(req.Teaser)
	post.Image = req.Image
	post.VideoURL = req.VideoURL
	post.MinTier = req.MinTier
	post.IsPublic = req.IsPublic
	if err := pc.posts.Update(ctx, post); err != nil {
		return respondError(c, err)
	}
	return c.JSON(post)
}

func (pc *PostController) HandleDelete(c *fiber.Ctx) error {
	id, err := uintParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	ctx := c.UserContext()
	post, err := pc.posts.GetByID(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	if err := ownership.CheckAsserted(callerAddress(c), c.Query("creatorAddress"), post.CreatorAddress); err != nil {
		return respondError(c, err)
	}
	if err := pc.posts.Delete(ctx, id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// HandleLike buffers one like; the total includes not yet flushed likes.
func (pc *PostController) HandleLike(c *fiber.Ctx) error {
	id, err := uintParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	ctx := c.UserContext()
	post, err := pc.posts.GetByID(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	if err := pc.likes.Add(ctx, post.ID); err != nil {
		return respondError(c, err)
	}
	pending, err := pc.likes.Pending(ctx, post.ID)
	if err != nil {
		logging.L().Warn("pending likes lookup failed", zap.Uint("post", post.ID), zap.Error(err))
	}
	return c.JSON(fiber.Map{"id": post.ID, "likes": post.Likes + pending})
}

func (pc *PostController) lookup(c *fiber.Ctx) (*models.Post, error) {
	raw := c.Params("id")
	if id, err := strconv.ParseUint(raw, 10, 64); err == nil && id > 0 {
		return pc.posts.GetByID(c.UserContext(), uint(id))
	}
	if shortener.IsSlug(raw) {
		return pc.posts.GetBySlug(c.UserContext(), raw)
	}
	return nil, apperrors.Invalid("id", "must be a post id or slug")
}

// checkMinTier rejects gates on tiers the creator never defined. minTier N
// requires tier N-1.
func (pc *PostController) checkMinTier(c *fiber.Ctx, creator string, minTier int) error {
	if minTier <= 0 {
		return nil
	}
	catalog, err := pc.tiers.GetCatalog(c.UserContext(), creator)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.Invalid("minTier", "creator has no tiers")
		}
		return err
	}
	if _, ok := catalog.FindTier(uint64(minTier - 1)); !ok {
		return apperrors.Invalid("minTier", "no tier with id "+strconv.Itoa(minTier-1))
	}
	return nil
}
