package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/datatypes"
)

// Creator is the off-chain profile of an account that owns a subscription contract.
type Creator struct {
	Address         string                      `gorm:"primaryKey;type:varchar(42)" json:"address" validate:"required,eth_addr"`
	Name            string                      `gorm:"type:varchar(150);not null" json:"name" validate:"required,min=2,max=150"`
	Description     string                      `gorm:"type:text" json:"description" validate:"max=5000"`
	AvatarURL       string                      `gorm:"type:varchar(512);default:null" json:"avatarUrl" validate:"omitempty,url,max=512"`
	Socials         datatypes.JSONMap           `gorm:"type:json" json:"socials"`
	PayoutToken     string                      `gorm:"type:varchar(42);default:null" json:"payoutToken" validate:"omitempty,eth_addr"`
	ContractAddress string                      `gorm:"type:varchar(42);index" json:"contractAddress" validate:"omitempty,eth_addr"`
	CategoryID      string                      `gorm:"type:varchar(64);index" json:"categoryId" validate:"max=64"`
	Hashtags        datatypes.JSONSlice[string] `gorm:"type:json" json:"hashtags"`
	CreatedAt       time.Time                   `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt       time.Time                   `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (c *Creator) Validate() error {
	return validator.New().Struct(c)
}
