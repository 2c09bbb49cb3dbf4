package entitlements

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEvaluatePublicOverride(t *testing.T) {
	viewers := []Viewer{
		Anonymous,
		{IsSubscribed: false, MemberTierID: 3},
		{IsSubscribed: true, MemberTierID: 0},
		{IsSubscribed: true, MemberTierID: 9},
	}
	for _, minTier := range []int{-4, 0, 1, 2, 10} {
		for _, v := range viewers {
			got := Evaluate(PostGate{IsPublic: true, MinTier: minTier}, v)
			assert.Equal(t, AccessFull, got, "minTier=%d viewer=%+v", minTier, v)
		}
	}
}

func TestEvaluateNonMemberLock(t *testing.T) {
	for _, minTier := range []int{-1, 0, 1, 5} {
		for _, tier := range []int{NoTier, 0, 7} {
			got := Evaluate(PostGate{MinTier: minTier}, Viewer{IsSubscribed: false, MemberTierID: tier})
			assert.Equal(t, AccessLocked, got, "minTier=%d tier=%d", minTier, tier)
		}
	}
}

func TestEvaluateAllMembersTier(t *testing.T) {
	for _, tier := range []int{0, 1, 4} {
		assert.Equal(t, AccessFull, Evaluate(PostGate{MinTier: 0}, Viewer{IsSubscribed: true, MemberTierID: tier}))
	}
}

func TestEvaluateTierThreshold(t *testing.T) {
	tests := []struct {
		name    string
		minTier int
		tier    int
		want    Access
	}{
		{"exact tier", 2, 1, AccessFull},
		{"lower tier", 2, 0, AccessLocked},
		{"higher tier", 2, 5, AccessFull},
		{"first paid tier", 1, 0, AccessFull},
		{"subscribed without tier", 1, NoTier, AccessLocked},
		{"negative min tier is all-members", -3, 0, AccessFull},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Evaluate(PostGate{MinTier: tc.minTier}, Viewer{IsSubscribed: true, MemberTierID: tc.tier})
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestRender(t *testing.T) {
	assert.Equal(t, "secret body", Render(AccessFull, "secret body", "teaser"))
	assert.Equal(t, "teaser", Render(AccessLocked, "secret body", " teaser "))
	assert.Equal(t, LockedPlaceholder, Render(AccessLocked, "secret body", "   "))
	assert.NotContains(t, Render(AccessLocked, "secret body", ""), "secret")
}

func TestViewerFromMembership(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)

	active := ViewerFromMembership(now.Add(time.Hour), 2, now)
	assert.Equal(t, Viewer{IsSubscribed: true, MemberTierID: 2}, active)

	assert.Equal(t, Anonymous, ViewerFromMembership(now, 2, now), "expiry == now is not active")
	assert.Equal(t, Anonymous, ViewerFromMembership(now.Add(-time.Second), 2, now))
	assert.Equal(t, Anonymous, ViewerFromMembership(time.Time{}, 0, now))
}
