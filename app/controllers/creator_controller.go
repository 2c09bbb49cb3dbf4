package controllers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/ManuelReschke/TierFox/app/models"
	"github.com/ManuelReschke/TierFox/app/repository"
	"github.com/ManuelReschke/TierFox/internal/pkg/apperrors"
	"github.com/ManuelReschke/TierFox/internal/pkg/chain"
	"github.com/ManuelReschke/TierFox/internal/pkg/creatorpage"
	"github.com/ManuelReschke/TierFox/internal/pkg/logging"
	"github.com/ManuelReschke/TierFox/internal/pkg/ownership"
)

// CreatorController serves creator profiles, discovery and the creator page.
type CreatorController struct {
	creators   repository.CreatorRepository
	categories repository.CategoryRepository
	hashtags   repository.HashtagRepository
	reader     chain.Reader
	composer   *creatorpage.Composer
}

func NewCreatorController(
	creators repository.CreatorRepository,
	categories repository.CategoryRepository,
	hashtags repository.HashtagRepository,
	reader chain.Reader,
	composer *creatorpage.Composer,
) *CreatorController {
	return &CreatorController{
		creators:   creators,
		categories: categories,
		hashtags:   hashtags,
		reader:     reader,
		composer:   composer,
	}
}

type creatorRequest struct {
	CreatorAddress string            `json:"creatorAddress"`
	Name           string            `json:"name" validate:"required,min=2,max=150"`
	Description    string            `json:"description" validate:"max=5000"`
	AvatarURL      string            `json:"avatarUrl" validate:"omitempty,url,max=512"`
	Socials        map[string]string `json:"socials" validate:"max=10,dive,omitempty,url"`
	PayoutToken    string            `json:"payoutToken" validate:"omitempty,eth_addr"`
	CategoryID     string            `json:"categoryId" validate:"max=64"`
	Hashtags       []string          `json:"hashtags" validate:"max=10,dive,min=2,max=64"`
}

// HandleList lists creators, filtered by ?category=, ?hashtag= and ?q=.
func (cc *CreatorController) HandleList(c *fiber.Ctx) error {
	offset, limit := pagination(c)
	creators, err := cc.creators.List(c.UserContext(), repository.CreatorFilter{
		CategoryID: c.Query("category"),
		Hashtag:    c.Query("hashtag"),
		Query:      c.Query("q"),
		Offset:     offset,
		Limit:      limit,
	})
	if err != nil {
		return respondError(c, err)
	}
	if creators == nil {
		creators = []models.Creator{}
	}
	return c.JSON(fiber.Map{"creators": creators, "offset": offset, "limit": limit})
}

func (cc *CreatorController) HandleGet(c *fiber.Ctx) error {
	addr, err := addressParam("address", c.Params("address"))
	if err != nil {
		return respondError(c, err)
	}
	creator, err := cc.creators.GetByAddress(c.UserContext(), addr)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(creator)
}

// HandlePage returns the composed creator page for the current viewer.
func (cc *CreatorController) HandlePage(c *fiber.Ctx) error {
	page, err := cc.composer.Compose(c.UserContext(), c.Params("address"), callerAddress(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(page)
}

// HandleUpsert creates or updates the profile of the session wallet.
func (cc *CreatorController) HandleUpsert(c *fiber.Ctx) error {
	caller := callerAddress(c)
	var req creatorRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}
	if err := ownership.CheckAsserted(caller, req.CreatorAddress, caller); err != nil {
		return respondError(c, err)
	}
	ctx := c.UserContext()

	if req.CategoryID != "" {
		if _, err := cc.categories.GetByID(ctx, req.CategoryID); err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return respondError(c, apperrors.Invalid("categoryId", "unknown category"))
			}
			return respondError(c, err)
		}
	}
	for _, tag := range req.Hashtags {
		if _, err := cc.hashtags.GetByID(ctx, tag); err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return respondError(c, apperrors.Invalid("hashtags", "unknown hashtag "+tag))
			}
			return respondError(c, err)
		}
	}

	creator := &models.Creator{
		Address:     caller,
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		AvatarURL:   req.AvatarURL,
		PayoutToken: strings.ToLower(req.PayoutToken),
		CategoryID:  req.CategoryID,
		Hashtags:    datatypes.JSONSlice[string](req.Hashtags),
		Socials:     datatypes.JSONMap{},
	}
	for k, v := range req.Socials {
		creator.Socials[k] = v
	}

	// The contract address always comes from the factory, never the client.
	contract, err := cc.reader.GetProfile(ctx, caller)
	switch {
	case err != nil:
		logging.L().Warn("factory lookup failed", zap.String("creator", caller), zap.Error(err))
		if existing, gerr := cc.creators.GetByAddress(ctx, caller); gerr == nil {
			creator.ContractAddress = existing.ContractAddress
		}
	case contract != chain.ZeroAddress:
		creator.ContractAddress = contract
	}

	if err := creator.Validate(); err != nil {
		return respondError(c, apperrors.FromValidator(err))
	}
	if err := cc.creators.Upsert(ctx, creator); err != nil {
		return respondError(c, err)
	}
	saved, err := cc.creators.GetByAddress(ctx, caller)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(saved)
}
