package controllers

import (
	"context"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/TierFox/app/repository"
	"github.com/ManuelReschke/TierFox/internal/pkg/apperrors"
	"github.com/ManuelReschke/TierFox/internal/pkg/chain"
	"github.com/ManuelReschke/TierFox/internal/pkg/tiers"
	"github.com/ManuelReschke/TierFox/internal/pkg/txtrack"
)

// TxController builds unsigned contract calls and tracks the transactions
// wallets submit for them.
type TxController struct {
	tiers   repository.TierRepository
	reader  chain.Reader
	builder *chain.TxBuilder
	tracker *txtrack.Tracker
}

func NewTxController(tierRepo repository.TierRepository, reader chain.Reader, builder *chain.TxBuilder, tracker *txtrack.Tracker) *TxController {
	return &TxController{tiers: tierRepo, reader: reader, builder: builder, tracker: tracker}
}

type registerTxRequest struct {
	Hash           string  `json:"hash" validate:"required"`
	Kind           string  `json:"kind" validate:"required,oneof=subscribe createTier withdraw"`
	CreatorAddress string  `json:"creatorAddress" validate:"required"`
	TierID         *uint64 `json:"tierId"`
}

// HandleCreateTier returns the createTier call for ?tierId= of the session
// creator's catalogue. The contract appends tiers, so only the id matching
// its current tier count can be created.
func (tc *TxController) HandleCreateTier(c *fiber.Ctx) error {
	caller := callerAddress(c)
	tierID, err := tierIDQuery(c)
	if err != nil {
		return respondError(c, err)
	}
	ctx := c.UserContext()

	catalog, err := tc.tiers.GetCatalog(ctx, caller)
	if err != nil {
		return respondError(c, err)
	}
	tier, ok := catalog.FindTier(tierID)
	if !ok {
		return respondError(c, apperrors.NotFound("tier"))
	}
	wei, err := tiers.PriceWei(tier.Price)
	if err != nil {
		return respondError(c, apperrors.Invalid("price", err.Error()))
	}
	contract, err := tc.contractOf(ctx, caller)
	if err != nil {
		return respondError(c, err)
	}
	onchain, err := tc.reader.GetTiers(ctx, contract)
	if err != nil {
		return respondError(c, err)
	}
	if next := uint64(len(onchain)); tierID != next {
		if tierID < next {
			return respondError(c, apperrors.Conflict("tier %d already exists on chain", tierID))
		}
		return respondError(c, apperrors.Conflict("tier %d has to be created before tier %d", next, tierID))
	}
	call, err := tc.builder.CreateTier(contract, tier.Name, wei)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(call)
}

// HandleSubscribe returns the payable subscribe call for ?creator= and
// ?tierId=. The value is the price stored in the contract.
func (tc *TxController) HandleSubscribe(c *fiber.Ctx) error {
	creator, err := addressParam("creator", c.Query("creator"))
	if err != nil {
		return respondError(c, err)
	}
	tierID, err := tierIDQuery(c)
	if err != nil {
		return respondError(c, err)
	}
	ctx := c.UserContext()

	contract, err := tc.contractOf(ctx, creator)
	if err != nil {
		return respondError(c, err)
	}
	onchain, err := tc.reader.GetTiers(ctx, contract)
	if err != nil {
		return respondError(c, err)
	}
	for _, t := range onchain {
		if t.ID != tierID {
			continue
		}
		if !t.Active {
			return respondError(c, apperrors.Invalid("tierId", "tier is not active"))
		}
		call, err := tc.builder.Subscribe(contract, tierID, t.PriceWei)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(call)
	}
	return respondError(c, apperrors.NotFound("tier"))
}

func (tc *TxController) HandleWithdraw(c *fiber.Ctx) error {
	contract, err := tc.contractOf(c.UserContext(), callerAddress(c))
	if err != nil {
		return respondError(c, err)
	}
	call, err := tc.builder.Withdraw(contract)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(call)
}

// HandleRegister starts tracking a submitted transaction. The raw request is
// kept so a failed transaction can be retried.
func (tc *TxController) HandleRegister(c *fiber.Ctx) error {
	var req registerTxRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}
	rec, err := tc.tracker.Register(c.UserContext(), txtrack.Record{
		Hash:           req.Hash,
		Kind:           txtrack.Kind(req.Kind),
		CreatorAddress: req.CreatorAddress,
		Sender:         callerAddress(c),
		TierID:         req.TierID,
		Request:        append([]byte(nil), c.Body()...),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusAccepted).JSON(rec)
}

func (tc *TxController) HandleStatus(c *fiber.Ctx) error {
	rec, err := tc.tracker.Status(c.UserContext(), c.Params("hash"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(rec)
}

func (tc *TxController) contractOf(ctx context.Context, creator string) (string, error) {
	contract, err := tc.reader.GetProfile(ctx, creator)
	if err != nil {
		return "", err
	}
	if contract == chain.ZeroAddress {
		return "", apperrors.NotFound("subscription contract")
	}
	return contract, nil
}

func tierIDQuery(c *fiber.Ctx) (uint64, error) {
	v, err := strconv.ParseUint(c.Query("tierId"), 10, 64)
	if err != nil {
		return 0, apperrors.Invalid("tierId", "must be a non-negative integer")
	}
	return v, nil
}
