package controllers

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/TierFox/app/repository"
	"github.com/ManuelReschke/TierFox/internal/pkg/apperrors"
	"github.com/ManuelReschke/TierFox/internal/pkg/ownership"
	"github.com/ManuelReschke/TierFox/internal/pkg/statistics"
)

// StatsProvider is satisfied by *statistics.Service.
type StatsProvider interface {
	CreatorStats(ctx context.Context, creator string) (*statistics.CreatorStats, error)
}

// AudienceController serves a creator's own member list and statistics.
type AudienceController struct {
	subs  repository.SubscriptionRepository
	tiers repository.TierRepository
	stats StatsProvider
	now   func() time.Time
}

func NewAudienceController(subs repository.SubscriptionRepository, tierRepo repository.TierRepository, stats StatsProvider) *AudienceController {
	return &AudienceController{subs: subs, tiers: tierRepo, stats: stats, now: time.Now}
}

type audienceMember struct {
	SubscriberAddress string    `json:"subscriberAddress"`
	TierID            uint64    `json:"tierId"`
	TierName          string    `json:"tierName"`
	Expiry            time.Time `json:"expiry"`
	Since             time.Time `json:"since"`
}

// HandleAudience lists active members of ?creator=, which must be the
// session wallet. ?format=csv returns a CSV download.
func (ac *AudienceController) HandleAudience(c *fiber.Ctx) error {
	caller := callerAddress(c)
	if err := ownership.CheckAsserted(caller, c.Query("creator"), caller); err != nil {
		return respondError(c, err)
	}
	ctx := c.UserContext()

	subs, err := ac.subs.ListActiveByCreator(ctx, caller, ac.now().UTC())
	if err != nil {
		return respondError(c, err)
	}
	names := map[uint64]string{}
	catalog, err := ac.tiers.GetCatalog(ctx, caller)
	switch {
	case err == nil:
		for _, t := range catalog.Tiers {
			names[t.ID] = t.Name
		}
	case !errors.Is(err, apperrors.ErrNotFound):
		return respondError(c, err)
	}

	members := make([]audienceMember, 0, len(subs))
	for _, s := range subs {
		members = append(members, audienceMember{
			SubscriberAddress: s.SubscriberAddress,
			TierID:            s.TierID,
			TierName:          names[s.TierID],
			Expiry:            s.Expiry,
			Since:             s.CreatedAt,
		})
	}

	if c.Query("format") != "csv" {
		return c.JSON(fiber.Map{"creator": caller, "members": members})
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{"subscriber", "tier_id", "tier_name", "expiry", "since"})
	for _, m := range members {
		_ = w.Write([]string{
			m.SubscriberAddress,
			strconv.FormatUint(m.TierID, 10),
			m.TierName,
			m.Expiry.UTC().Format(time.RFC3339),
			m.Since.UTC().Format(time.RFC3339),
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return respondError(c, err)
	}
	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="audience-`+caller+`.csv"`)
	return c.Send(buf.Bytes())
}

// HandleStats returns member count and recurring revenue of the session
// creator.
func (ac *AudienceController) HandleStats(c *fiber.Ctx) error {
	caller := callerAddress(c)
	if err := ownership.CheckAsserted(caller, c.Query("creator"), caller); err != nil {
		return respondError(c, err)
	}
	stats, err := ac.stats.CreatorStats(c.UserContext(), caller)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(stats)
}
