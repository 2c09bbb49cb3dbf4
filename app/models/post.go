package models

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// Post is creator content. IsPublic short-circuits MinTier.
type Post struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Slug           string    `gorm:"uniqueIndex;type:varchar(16)" json:"slug"`
	CreatorAddress string    `gorm:"type:varchar(42);not null;index" json:"creatorAddress" validate:"required,eth_addr"`
	Title          string    `gorm:"type:varchar(255);not null" json:"title" validate:"required,min=1,max=255"`
	Content        string    `gorm:"type:longtext" json:"content" validate:"required"`
	Teaser         string    `gorm:"type:varchar(500);default:null" json:"teaser" validate:"max=500"`
	Image          string    `gorm:"type:varchar(512);default:null" json:"image" validate:"omitempty,url,max=512"`
	VideoURL       string    `gorm:"type:varchar(512);default:null" json:"videoUrl" validate:"omitempty,url,max=512"`
	MinTier        int       `gorm:"not null;default:0" json:"minTier" validate:"min=0"`
	IsPublic       bool      `gorm:"default:false" json:"isPublic"`
	Likes          int64     `gorm:"not null;default:0" json:"likes"`
	CreatedAt      time.Time `gorm:"autoCreateTime;index" json:"createdAt"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (p *Post) Validate() error {
	return validator.New().Struct(p)
}
