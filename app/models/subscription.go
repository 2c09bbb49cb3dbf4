package models

import "time"

// Subscription is the cached mirror of an on-chain membership. It backs list
// views only and must not be used for access decisions.
type Subscription struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	SubscriberAddress string    `gorm:"type:varchar(42);not null;uniqueIndex:ux_subscriptions_pair,priority:1" json:"subscriberAddress"`
	CreatorAddress    string    `gorm:"type:varchar(42);not null;uniqueIndex:ux_subscriptions_pair,priority:2;index" json:"creatorAddress"`
	TierID            uint64    `gorm:"not null;default:0" json:"tierId"`
	Expiry            time.Time `gorm:"type:datetime;not null;index" json:"expiry"`
	VerifiedAt        time.Time `gorm:"type:datetime;not null" json:"verifiedAt"`
	CreatedAt         time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// IsActive reports whether the cached expiry lies after now.
func (s *Subscription) IsActive(now time.Time) bool {
	return s.Expiry.After(now)
}
