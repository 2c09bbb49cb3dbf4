package entitlements

import (
	"strings"
	"time"
)

// Access is the rendered access level of a post for one viewer.
type Access string

const (
	AccessFull   Access = "full"
	AccessLocked Access = "locked"
)

// LockedPlaceholder is shown for locked posts without a teaser.
const LockedPlaceholder = "This post is for members only."

// NoTier marks a viewer without a membership tier.
const NoTier = -1

// PostGate is the part of a post that decides who may read it.
// MinTier 0 means "any active member", N means "tier N-1 and above".
type PostGate struct {
	IsPublic bool
	MinTier  int
}

// Viewer is the membership state of the person looking at a post. It must be
// derived from the on-chain membership read, never from the subscriptions cache.
type Viewer struct {
	IsSubscribed bool
	MemberTierID int
}

// Anonymous is a viewer without a wallet session or membership.
var Anonymous = Viewer{IsSubscribed: false, MemberTierID: NoTier}

// Evaluate decides whether a viewer sees the full post or a locked placeholder.
// Tier ids are assumed to be ordered by privilege: a member of tier k can read
// everything gated at tier k or below.
func Evaluate(post PostGate, viewer Viewer) Access {
	if post.IsPublic {
		return AccessFull
	}
	if !viewer.IsSubscribed {
		return AccessLocked
	}
	minTier := post.MinTier
	if minTier < 0 {
		minTier = 0
	}
	if minTier == 0 {
		return AccessFull
	}
	if viewer.MemberTierID >= minTier-1 {
		return AccessFull
	}
	return AccessLocked
}

// Render returns the body to show for the given access level. Content is
// only ever returned for AccessFull.
func Render(access Access, content, teaser string) string {
	if access == AccessFull {
		return content
	}
	if t := strings.TrimSpace(teaser); t != "" {
		return t
	}
	return LockedPlaceholder
}

// ViewerFromMembership builds a Viewer from an on-chain membership read.
// A membership is active iff expiry > now.
func ViewerFromMembership(expiry time.Time, tierID uint64, now time.Time) Viewer {
	if expiry.IsZero() || !expiry.After(now) {
		return Anonymous
	}
	return Viewer{IsSubscribed: true, MemberTierID: clampTier(tierID)}
}

func clampTier(id uint64) int {
	const maxInt = int(^uint(0) >> 1)
	if id > uint64(maxInt) {
		return maxInt
	}
	return int(id)
}
