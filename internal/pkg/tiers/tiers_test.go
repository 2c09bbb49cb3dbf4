package tiers

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/TierFox/app/models"
	"github.com/ManuelReschke/TierFox/internal/pkg/apperrors"
)

const creator = "0xabcdef0123456789abcdef0123456789abcdef01"

func id(v uint64) *uint64 { return &v }

func TestPriceWei(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "1", want: "1000000000000000000"},
		{in: "0.5", want: "500000000000000000"},
		{in: " 2.25 ", want: "2250000000000000000"},
		{in: "0", want: "0"},
		{in: "0.000000000000000001", want: "1"},
		{in: "0.0000000000000000001", wantErr: true},
		{in: "-1", wantErr: true},
		{in: "1e18", wantErr: true},
		{in: "1/3", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		got, err := PriceWei(tt.in)
		if tt.wantErr {
			assert.Error(t, err, "PriceWei(%q)", tt.in)
			continue
		}
		require.NoError(t, err, "PriceWei(%q)", tt.in)
		want, _ := new(big.Int).SetString(tt.want, 10)
		assert.Equal(t, 0, want.Cmp(got), "PriceWei(%q) = %s", tt.in, got)
	}
}

func TestReplaceAssignsStableIDs(t *testing.T) {
	res, err := Replace(nil, creator, []Input{
		{Name: "Fan", Price: "0.01", Benefits: []string{"feed", " "}},
		{Name: "Superfan", Price: "0.05", Recommended: true},
	})
	require.NoError(t, err)
	require.Len(t, res.Catalog.Tiers, 2)
	assert.Equal(t, uint64(0), res.Catalog.Tiers[0].ID)
	assert.Equal(t, uint64(1), res.Catalog.Tiers[1].ID)
	assert.Equal(t, uint64(2), res.Catalog.NextTierID)
	assert.Equal(t, []string{"feed"}, res.Catalog.Tiers[0].Benefits)
	assert.Len(t, res.Created, 2)
	assert.Empty(t, res.Warnings)

	// Reorder, drop "Fan" and add a new tier: ids stay put, Fan is deactivated.
	res2, err := Replace(res.Catalog, creator, []Input{
		{ID: id(1), Name: "Superfan", Price: "0.05"},
		{Name: "Patron", Price: "0.2"},
	})
	require.NoError(t, err)
	require.Len(t, res2.Catalog.Tiers, 3)

	superfan, ok := res2.Catalog.FindTier(1)
	require.True(t, ok)
	assert.Equal(t, 0, superfan.Position)
	assert.True(t, superfan.Active)

	patron, ok := res2.Catalog.FindTier(2)
	require.True(t, ok)
	assert.Equal(t, "Patron", patron.Name)
	require.Len(t, res2.Created, 1)
	assert.Equal(t, uint64(2), res2.Created[0].ID)

	fan, ok := res2.Catalog.FindTier(0)
	require.True(t, ok)
	assert.False(t, fan.Active)
	assert.Equal(t, uint64(3), res2.Catalog.NextTierID)

	visible := Visible(res2.Catalog)
	require.Len(t, visible, 2)
	assert.Equal(t, "Superfan", visible[0].Name)
	assert.Equal(t, "Patron", visible[1].Name)
}

func TestReplaceRejectsBadInput(t *testing.T) {
	existing := &models.TierCatalog{
		CreatorAddress: creator,
		Tiers:          []models.Tier{{ID: 0, Name: "Fan", Price: "0.01", Active: true}},
		NextTierID:     1,
	}

	tests := []struct {
		name  string
		in    []Input
		field string
	}{
		{"unknown id", []Input{{ID: id(7), Name: "Ghost", Price: "1"}}, "tiers[0].id"},
		{"duplicate id", []Input{{ID: id(0), Name: "Fan", Price: "0.01"}, {ID: id(0), Name: "Fan", Price: "0.01"}}, "tiers[1].id"},
		{"price change", []Input{{ID: id(0), Name: "Fan", Price: "0.02"}}, "tiers[0].price"},
		{"bad price", []Input{{Name: "New", Price: "free"}}, "tiers[0].price"},
		{"empty name", []Input{{Name: "  ", Price: "1"}}, "tiers[0].name"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Replace(existing, creator, tc.in)
			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrValidation)
			var fe apperrors.FieldErrors
			require.ErrorAs(t, err, &fe)
			assert.Contains(t, fe.Fields(), tc.field)
		})
	}
	assert.Equal(t, uint64(1), existing.NextTierID, "existing catalogue must not be mutated")
}

func TestReplaceAcceptsSamePriceDifferentSpelling(t *testing.T) {
	existing := &models.TierCatalog{
		Tiers:      []models.Tier{{ID: 0, Name: "Fan", Price: "0.10", Active: true}},
		NextTierID: 1,
	}
	_, err := Replace(existing, creator, []Input{{ID: id(0), Name: "Fan+", Price: "0.1"}})
	assert.NoError(t, err)
}

func TestCheckPriceOrdering(t *testing.T) {
	list := []models.Tier{
		{ID: 0, Name: "Gold", Price: "1", Active: true},
		{ID: 1, Name: "Bronze", Price: "0.1", Active: true},
		{ID: 2, Name: "Retired", Price: "0.01", Active: false},
	}
	warnings := CheckPriceOrdering(list)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "Bronze")

	assert.Empty(t, CheckPriceOrdering([]models.Tier{
		{ID: 0, Name: "A", Price: "0.1", Active: true},
		{ID: 1, Name: "B", Price: "0.1", Active: true},
		{ID: 2, Name: "C", Price: "0.3", Active: true},
	}))
}

func TestFormatWei(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "0"},
		{"1", "0.000000000000000001"},
		{"1500000000000000000", "1.5"},
		{"42000000000000000000", "42"},
	}
	for _, tt := range tests {
		wei, ok := new(big.Int).SetString(tt.in, 10)
		require.True(t, ok)
		assert.Equal(t, tt.want, FormatWei(wei))
	}
	assert.Equal(t, "0", FormatWei(nil))

	wei, err := PriceWei("12.345")
	require.NoError(t, err)
	assert.Equal(t, "12.345", FormatWei(wei))
}

func TestPending(t *testing.T) {
	catalog := &models.TierCatalog{
		CreatorAddress: creator,
		NextTierID:     4,
		Tiers: []models.Tier{
			{ID: 2, Name: "Pro", Price: "3", Active: true},
			{ID: 0, Name: "Fan", Price: "1", Active: true},
			{ID: 1, Name: "Old", Price: "2", Active: false},
		},
	}

	ids := func(list []models.Tier) []uint64 {
		out := []uint64{}
		for _, t := range list {
			out = append(out, t.ID)
		}
		return out
	}

	assert.Equal(t, []uint64{0, 1, 2}, ids(Pending(catalog, 0)), "inactive ids still need a slot on chain")
	assert.Equal(t, []uint64{1, 2}, ids(Pending(catalog, 1)))
	assert.Empty(t, Pending(catalog, 3))
	assert.Empty(t, Pending(catalog, 5))
	assert.Nil(t, Pending(nil, 0))

	gap := &models.TierCatalog{Tiers: []models.Tier{{ID: 0}, {ID: 2}}}
	assert.Equal(t, []uint64{0}, ids(Pending(gap, 0)))
}
