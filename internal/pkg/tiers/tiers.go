// Package tiers maintains a creator's tier catalogue. Tier ids are assigned
// once from a per-creator counter and never reused, so the id always matches
// the tier index inside the creator's contract.
package tiers

import (
	"fmt"
	"math/big"
	"regexp"
	"sort"
	"strings"

	"github.com/ManuelReschke/TierFox/app/models"
	"github.com/ManuelReschke/TierFox/internal/pkg/apperrors"
)

// TokenDecimals is the precision of creator-native token prices.
const TokenDecimals = 18

const maxTiers = 20

var decimalPattern = regexp.MustCompile(`^[0-9]+(\.[0-9]+)?$`)

// Input is a tier as submitted by the creator. A nil ID creates a new tier.
type Input struct {
	ID          *uint64  `json:"id"`
	Name        string   `json:"name"`
	Price       string   `json:"price"`
	Benefits    []string `json:"benefits"`
	Active      *bool    `json:"active"`
	Recommended bool     `json:"recommended"`
}

// Result of a catalogue replace.
type Result struct {
	Catalog  *models.TierCatalog
	Created  []models.Tier
	Warnings []string
}

// PriceWei converts a decimal price string into the smallest token unit.
func PriceWei(price string) (*big.Int, error) {
	p := strings.TrimSpace(price)
	if !decimalPattern.MatchString(p) {
		return nil, fmt.Errorf("price %q is not a decimal number", price)
	}
	if i := strings.IndexByte(p, '.'); i >= 0 && len(p)-i-1 > TokenDecimals {
		return nil, fmt.Errorf("price %q has more than %d decimals", price, TokenDecimals)
	}
	r, ok := new(big.Rat).SetString(p)
	if !ok {
		return nil, fmt.Errorf("price %q is not a decimal number", price)
	}
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(TokenDecimals), nil)
	r.Mul(r, new(big.Rat).SetInt(scale))
	return new(big.Int).Set(r.Num()), nil
}

// FormatWei renders a wei amount as a decimal token string.
func FormatWei(wei *big.Int) string {
	if wei == nil {
		return "0"
	}
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(TokenDecimals), nil)
	whole, frac := new(big.Int).QuoRem(new(big.Int).Abs(wei), scale, new(big.Int))
	sign := ""
	if wei.Sign() < 0 {
		sign = "-"
	}
	if frac.Sign() == 0 {
		return sign + whole.String()
	}
	fs := frac.String()
	fs = strings.Repeat("0", TokenDecimals-len(fs)) + fs
	return sign + whole.String() + "." + strings.TrimRight(fs, "0")
}

// Replace applies a whole-list replace to the catalogue of creator. Tiers
// missing from the input are kept but deactivated, so subscribers that hold
// their id keep a valid reference.
func Replace(existing *models.TierCatalog, creator string, in []Input) (*Result, error) {
	if len(in) > maxTiers {
		return nil, apperrors.Invalid("tiers", fmt.Sprintf("at most %d tiers are allowed", maxTiers))
	}

	catalog := &models.TierCatalog{CreatorAddress: creator}
	if existing != nil {
		catalog.NextTierID = existing.NextTierID
		catalog.CreatedAt = existing.CreatedAt
	}

	var ferrs apperrors.FieldErrors
	seen := make(map[uint64]bool, len(in))
	out := make([]models.Tier, 0, len(in))
	var created []models.Tier

	for i, item := range in {
		field := fmt.Sprintf("tiers[%d]", i)
		name := strings.TrimSpace(item.Name)
		if name == "" || len(name) > 100 {
			ferrs = append(ferrs, &apperrors.FieldError{Field: field + ".name", Message: "must be 1-100 characters"})
		}
		if _, err := PriceWei(item.Price); err != nil {
			ferrs = append(ferrs, &apperrors.FieldError{Field: field + ".price", Message: err.Error()})
		}

		t := models.Tier{
			Position:    i,
			Name:        name,
			Price:       strings.TrimSpace(item.Price),
			Benefits:    cleanBenefits(item.Benefits),
			Active:      item.Active == nil || *item.Active,
			Recommended: item.Recommended,
		}

		if item.ID == nil {
			t.ID = catalog.NextTierID
			catalog.NextTierID++
			created = append(created, t)
			out = append(out, t)
			continue
		}

		id := *item.ID
		if seen[id] {
			ferrs = append(ferrs, &apperrors.FieldError{Field: field + ".id", Message: "duplicate tier id"})
			continue
		}
		seen[id] = true

		var prev models.Tier
		found := false
		if existing != nil {
			prev, found = existing.FindTier(id)
		}
		if !found {
			ferrs = append(ferrs, &apperrors.FieldError{Field: field + ".id", Message: "unknown tier id"})
			continue
		}
		if !samePrice(prev.Price, t.Price) {
			ferrs = append(ferrs, &apperrors.FieldError{Field: field + ".price", Message: "price is fixed once the tier exists on-chain"})
		}
		t.ID = id
		out = append(out, t)
	}

	if len(ferrs) > 0 {
		return nil, ferrs
	}

	// Keep omitted tiers, deactivated, behind the submitted ones.
	if existing != nil {
		pos := len(out)
		for _, prev := range sortedByID(existing.Tiers) {
			if seen[prev.ID] {
				continue
			}
			prev.Active = false
			prev.Position = pos
			pos++
			out = append(out, prev)
		}
	}

	catalog.Tiers = out
	return &Result{
		Catalog:  catalog,
		Created:  created,
		Warnings: CheckPriceOrdering(out),
	}, nil
}

// CheckPriceOrdering reports active tiers that are cheaper than an active
// tier with a lower id. Access checks treat a higher id as at least as
// privileged as every lower id, so such catalogues are almost always a mistake.
func CheckPriceOrdering(list []models.Tier) []string {
	var warnings []string
	var active []models.Tier
	for _, t := range sortedByID(list) {
		if t.Active {
			active = append(active, t)
		}
	}
	for i := 1; i < len(active); i++ {
		cur, err := PriceWei(active[i].Price)
		if err != nil {
			continue
		}
		for j := 0; j < i; j++ {
			lower, err := PriceWei(active[j].Price)
			if err != nil {
				continue
			}
			if cur.Cmp(lower) < 0 {
				warnings = append(warnings, fmt.Sprintf(
					"tier %q (id %d) is cheaper than %q (id %d) but unlocks all of its posts",
					active[i].Name, active[i].ID, active[j].Name, active[j].ID))
				break
			}
		}
	}
	return warnings
}

// Visible returns the active tiers in display order.
func Visible(c *models.TierCatalog) []models.Tier {
	if c == nil {
		return []models.Tier{}
	}
	out := make([]models.Tier, 0, len(c.Tiers))
	for _, t := range c.Tiers {
		if t.Active {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out
}

// Pending returns the catalogue tiers the contract does not hold yet, given
// how many tiers it already has. The contract appends, so the result starts
// at id onchain and stops at the first missing id. Inactive tiers are
// included: their ids are taken and must exist on chain as well.
func Pending(c *models.TierCatalog, onchain int) []models.Tier {
	if c == nil {
		return nil
	}
	var out []models.Tier
	next := uint64(onchain)
	for _, t := range sortedByID(c.Tiers) {
		if t.ID < next {
			continue
		}
		if t.ID != next {
			break
		}
		out = append(out, t)
		next++
	}
	return out
}

func samePrice(a, b string) bool {
	wa, errA := PriceWei(a)
	wb, errB := PriceWei(b)
	if errA != nil || errB != nil {
		return strings.TrimSpace(a) == strings.TrimSpace(b)
	}
	return wa.Cmp(wb) == 0
}

func sortedByID(list []models.Tier) []models.Tier {
	out := append([]models.Tier(nil), list...)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func cleanBenefits(in []string) []string {
	out := make([]string, 0, len(in))
	for _, b := range in {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}
