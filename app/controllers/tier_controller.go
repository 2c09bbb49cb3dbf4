package controllers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/ManuelReschke/TierFox/app/models"
	"github.com/ManuelReschke/TierFox/app/repository"
	"github.com/ManuelReschke/TierFox/internal/pkg/apperrors"
	"github.com/ManuelReschke/TierFox/internal/pkg/chain"
	"github.com/ManuelReschke/TierFox/internal/pkg/logging"
	"github.com/ManuelReschke/TierFox/internal/pkg/ownership"
	"github.com/ManuelReschke/TierFox/internal/pkg/tiers"
)

type TierController struct {
	tiers   repository.TierRepository
	reader  chain.Reader
	builder *chain.TxBuilder
}

func NewTierController(tierRepo repository.TierRepository, reader chain.Reader, builder *chain.TxBuilder) *TierController {
	return &TierController{tiers: tierRepo, reader: reader, builder: builder}
}

type tierReplaceRequest struct {
	CreatorAddress string        `json:"creatorAddress"`
	Tiers          []tiers.Input `json:"tiers" validate:"max=20"`
}

// HandleList returns the active tiers of ?address= in display order.
func (tc *TierController) HandleList(c *fiber.Ctx) error {
	creator, err := addressParam("address", c.Query("address"))
	if err != nil {
		return respondError(c, err)
	}
	catalog, err := tc.tiers.GetCatalog(c.UserContext(), creator)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return c.JSON(fiber.Map{"creatorAddress": creator, "tiers": []models.Tier{}})
		}
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"creatorAddress": creator, "tiers": tiers.Visible(catalog)})
}

// HandleReplace replaces the session creator's tier list. Tiers the contract
// does not hold yet come back with the unsigned createTier calls the wallet
// has to send, in the order they must be mined.
func (tc *TierController) HandleReplace(c *fiber.Ctx) error {
	caller := callerAddress(c)
	var req tierReplaceRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}
	if err := ownership.CheckAsserted(caller, req.CreatorAddress, caller); err != nil {
		return respondError(c, err)
	}
	ctx := c.UserContext()

	existing, err := tc.tiers.GetCatalog(ctx, caller)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return respondError(c, err)
	}
	res, err := tiers.Replace(existing, caller, req.Tiers)
	if err != nil {
		return respondError(c, err)
	}
	if err := tc.tiers.SaveCatalog(ctx, res.Catalog); err != nil {
		return respondError(c, err)
	}

	calls, err := tc.pendingCalls(ctx, caller, res.Catalog)
	if err != nil {
		return respondError(c, err)
	}

	warnings := res.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	return c.JSON(fiber.Map{
		"creatorAddress": caller,
		"tiers":          tiers.Visible(res.Catalog),
		"created":        res.Created,
		"warnings":       warnings,
		"calls":          calls,
	})
}

// pendingCalls builds createTier calls for every catalogue tier beyond the
// contract's tier count. Without a contract, or when the chain cannot be
// read, no calls are built and the tiers stay pending for the next replace.
func (tc *TierController) pendingCalls(ctx context.Context, creator string, catalog *models.TierCatalog) ([]*chain.CallRequest, error) {
	calls := []*chain.CallRequest{}
	contract, err := tc.reader.GetProfile(ctx, creator)
	if err != nil {
		logging.L().Warn("factory lookup failed, no createTier calls built", zap.String("creator", creator), zap.Error(err))
		return calls, nil
	}
	if contract == chain.ZeroAddress {
		return calls, nil
	}
	onchain, err := tc.reader.GetTiers(ctx, contract)
	if err != nil {
		logging.L().Warn("tier read failed, no createTier calls built", zap.String("contract", contract), zap.Error(err))
		return calls, nil
	}
	for _, t := range tiers.Pending(catalog, len(onchain)) {
		wei, err := tiers.PriceWei(t.Price)
		if err != nil {
			return nil, apperrors.Invalid("tiers", err.Error())
		}
		call, err := tc.builder.CreateTier(contract, t.Name, wei)
		if err != nil {
			return nil, err
		}
		calls = append(calls, call)
	}
	return calls, nil
}
