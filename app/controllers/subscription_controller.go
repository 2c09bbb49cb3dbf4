package controllers

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/TierFox/app/models"
	"github.com/ManuelReschke/TierFox/app/repository"
	"github.com/ManuelReschke/TierFox/internal/pkg/apperrors"
	"github.com/ManuelReschke/TierFox/internal/pkg/membership"
	"github.com/ManuelReschke/TierFox/internal/pkg/ownership"
	"github.com/ManuelReschke/TierFox/internal/pkg/wallet"
)

// MembershipSyncer re-derives a membership from the chain; satisfied by
// *membership.Service.
type MembershipSyncer interface {
	SyncFromChain(ctx context.Context, subscriber, creator string) (*membership.SyncResult, error)
}

// SubscriptionController exposes the subscriptions cache. Writes never take
// tier or expiry from the client.
type SubscriptionController struct {
	subs    repository.SubscriptionRepository
	members MembershipSyncer
	now     func() time.Time
}

func NewSubscriptionController(subs repository.SubscriptionRepository, members MembershipSyncer) *SubscriptionController {
	return &SubscriptionController{subs: subs, members: members, now: time.Now}
}

type subscriptionRequest struct {
	SubscriberAddress string `json:"subscriberAddress"`
	CreatorAddress    string `json:"creatorAddress" validate:"required"`
}

type membershipView struct {
	models.Subscription
	Stale bool `json:"stale"`
}

// HandleList filters by ?subscriber= and/or ?creator=.
func (sc *SubscriptionController) HandleList(c *fiber.Ctx) error {
	subscriber, creator := c.Query("subscriber"), c.Query("creator")
	if subscriber == "" && creator == "" {
		return respondError(c, apperrors.Invalid("subscriber", "subscriber or creator is required"))
	}
	var err error
	if subscriber != "" {
		if subscriber, err = addressParam("subscriber", subscriber); err != nil {
			return respondError(c, err)
		}
	}
	if creator != "" {
		if creator, err = addressParam("creator", creator); err != nil {
			return respondError(c, err)
		}
	}
	subs, err := sc.subs.List(c.UserContext(), subscriber, creator)
	if err != nil {
		return respondError(c, err)
	}
	if subs == nil {
		subs = []models.Subscription{}
	}
	return c.JSON(fiber.Map{"subscriptions": subs})
}

// HandleSync re-reads the session wallet's membership with creatorAddress
// from the chain and reconciles the cache row.
func (sc *SubscriptionController) HandleSync(c *fiber.Ctx) error {
	caller := callerAddress(c)
	var req subscriptionRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}
	if err := ownership.CheckAsserted(caller, req.SubscriberAddress, caller); err != nil {
		return respondError(c, err)
	}
	creator, err := addressParam("creatorAddress", req.CreatorAddress)
	if err != nil {
		return respondError(c, err)
	}
	ctx := c.UserContext()

	res, err := sc.members.SyncFromChain(ctx, caller, creator)
	if err != nil {
		return respondError(c, err)
	}
	body := fiber.Map{
		"outcome": res.Outcome,
		"active":  res.Membership.Active(sc.now()),
		"tierId":  res.Membership.TierID,
	}
	if !res.Membership.Expiry.IsZero() {
		body["expiry"] = res.Membership.Expiry
	}

	sub, err := sc.subs.Get(ctx, caller, creator)
	switch {
	case err == nil:
		body["subscription"] = sub
	case !errors.Is(err, apperrors.ErrNotFound):
		return respondError(c, err)
	}
	return c.JSON(body)
}

// HandleMemberships lists the session wallet's cached memberships. Rows whose
// expiry has passed are marked stale rather than hidden.
func (sc *SubscriptionController) HandleMemberships(c *fiber.Ctx) error {
	caller := callerAddress(c)
	creator := ""
	if raw := c.Query("creator"); raw != "" {
		creator = wallet.Normalize(raw)
		if creator == "" {
			return respondError(c, apperrors.Invalid("creator", "must be a 0x-prefixed 20 byte hex address"))
		}
	}
	subs, err := sc.subs.List(c.UserContext(), caller, creator)
	if err != nil {
		return respondError(c, err)
	}
	now := sc.now()
	views := make([]membershipView, 0, len(subs))
	for _, s := range subs {
		views = append(views, membershipView{Subscription: s, Stale: !s.IsActive(now)})
	}
	return c.JSON(fiber.Map{"memberships": views})
}
