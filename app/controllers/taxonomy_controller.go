package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/TierFox/app/models"
	"github.com/ManuelReschke/TierFox/app/repository"
	"github.com/ManuelReschke/TierFox/internal/pkg/apperrors"
)

// TaxonomyController manages categories and hashtags. Reads are public,
// mutations are admin only (enforced by the router).
type TaxonomyController struct {
	categories repository.CategoryRepository
	hashtags   repository.HashtagRepository
}

func NewTaxonomyController(categories repository.CategoryRepository, hashtags repository.HashtagRepository) *TaxonomyController {
	return &TaxonomyController{categories: categories, hashtags: hashtags}
}

// categoryPatch and hashtagPatch only touch the fields that were sent.
type categoryPatch struct {
	Name      *string `json:"name" validate:"omitempty,min=2,max=100"`
	Icon      *string `json:"icon" validate:"omitempty,max=64"`
	SortOrder *int    `json:"sortOrder"`
	IsActive  *bool   `json:"isActive"`
}

type hashtagPatch struct {
	Label      *string `json:"label" validate:"omitempty,min=2,max=100"`
	SortOrder  *int    `json:"sortOrder"`
	IsActive   *bool   `json:"isActive"`
	IsTrending *bool   `json:"isTrending"`
}

func (tc *TaxonomyController) HandleListCategories(c *fiber.Ctx) error {
	list, err := tc.categories.List(c.UserContext(), !c.QueryBool("all", false))
	if err != nil {
		return respondError(c, err)
	}
	if list == nil {
		list = []models.Category{}
	}
	return c.JSON(fiber.Map{"categories": list})
}

func (tc *TaxonomyController) HandleCreateCategory(c *fiber.Ctx) error {
	var cat models.Category
	if err := parseBody(c, &cat); err != nil {
		return respondError(c, err)
	}
	ctx := c.UserContext()
	if _, err := tc.categories.GetByID(ctx, cat.ID); err == nil {
		return respondError(c, apperrors.Invalid("id", "already exists"))
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return respondError(c, err)
	}
	if err := tc.categories.Create(ctx, &cat); err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(cat)
}

func (tc *TaxonomyController) HandleUpdateCategory(c *fiber.Ctx) error {
	var patch categoryPatch
	if err := parseBody(c, &patch); err != nil {
		return respondError(c, err)
	}
	ctx := c.UserContext()
	cat, err := tc.categories.GetByID(ctx, c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	if patch.Name != nil {
		cat.Name = *patch.Name
	}
	if patch.Icon != nil {
		cat.Icon = *patch.Icon
	}
	if patch.SortOrder != nil {
		cat.SortOrder = *patch.SortOrder
	}
	if patch.IsActive != nil {
		cat.IsActive = *patch.IsActive
	}
	if err := tc.categories.Update(ctx, cat); err != nil {
		return respondError(c, err)
	}
	return c.JSON(cat)
}

func (tc *TaxonomyController) HandleDeleteCategory(c *fiber.Ctx) error {
	if err := tc.categories.Delete(c.UserContext(), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (tc *TaxonomyController) HandleListHashtags(c *fiber.Ctx) error {
	list, err := tc.hashtags.List(c.UserContext(), !c.QueryBool("all", false))
	if err != nil {
		return respondError(c, err)
	}
	if list == nil {
		list = []models.Hashtag{}
	}
	return c.JSON(fiber.Map{"hashtags": list})
}

func (tc *TaxonomyController) HandleCreateHashtag(c *fiber.Ctx) error {
	var tag models.Hashtag
	if err := parseBody(c, &tag); err != nil {
		return respondError(c, err)
	}
	ctx := c.UserContext()
	if _, err := tc.hashtags.GetByID(ctx, tag.ID); err == nil {
		return respondError(c, apperrors.Invalid("id", "already exists"))
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return respondError(c, err)
	}
	if err := tc.hashtags.Create(ctx, &tag); err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(tag)
}

func (tc *TaxonomyController) HandleUpdateHashtag(c *fiber.Ctx) error {
	var patch hashtagPatch
	if err := parseBody(c, &patch); err != nil {
		return respondError(c, err)
	}
	ctx := c.UserContext()
	tag, err := tc.hashtags.GetByID(ctx, c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	if patch.Label != nil {
		tag.Label = *patch.Label
	}
	if patch.SortOrder != nil {
		tag.SortOrder = *patch.SortOrder
	}
	if patch.IsActive != nil {
		tag.IsActive = *patch.IsActive
	}
	if patch.IsTrending != nil {
		tag.IsTrending = *patch.IsTrending
	}
	if err := tc.hashtags.Update(ctx, tag); err != nil {
		return respondError(c, err)
	}
	return c.JSON(tag)
}

func (tc *TaxonomyController) HandleDeleteHashtag(c *fiber.Ctx) error {
	if err := tc.hashtags.Delete(c.UserContext(), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
