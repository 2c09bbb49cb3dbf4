package models

import (
	"time"

	"gorm.io/datatypes"
)

// Tier is one subscription plan of a creator. ID is assigned once on creation
// and equals the tier index in the creator's contract; Position only drives
// display order.
type Tier struct {
	ID          uint64   `json:"id"`
	Position    int      `json:"position"`
	Name        string   `json:"name" validate:"required,min=1,max=100"`
	Price       string   `json:"price" validate:"required,numeric"`
	Benefits    []string `json:"benefits" validate:"max=20,dive,max=200"`
	Active      bool     `json:"active"`
	Recommended bool     `json:"recommended"`
}

// TierCatalog stores all tiers of a creator as one JSON document.
type TierCatalog struct {
	CreatorAddress string                    `gorm:"primaryKey;type:varchar(42)" json:"creatorAddress"`
	Tiers          datatypes.JSONSlice[Tier] `gorm:"type:json" json:"tiers"`
	NextTierID     uint64                    `gorm:"not null;default:0" json:"nextTierId"`
	CreatedAt      time.Time                 `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt      time.Time                 `gorm:"autoUpdateTime" json:"updatedAt"`
}

// FindTier returns the tier with id, if any.
func (c *TierCatalog) FindTier(id uint64) (Tier, bool) {
	for _, t := range c.Tiers {
		if t.ID == id {
			return t, true
		}
	}
	return Tier{}, false
}
