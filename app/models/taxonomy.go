package models

// Category groups creators on the discovery page. ID is the slug.
type Category struct {
	ID        string `gorm:"primaryKey;type:varchar(64)" json:"id" validate:"required,min=2,max=64"`
	Name      string `gorm:"type:varchar(100);not null" json:"name" validate:"required,min=2,max=100"`
	Icon      string `gorm:"type:varchar(64);default:null" json:"icon" validate:"max=64"`
	SortOrder int    `gorm:"not null;default:0;index" json:"sortOrder"`
	IsActive  bool   `gorm:"default:true" json:"isActive"`
}

// Hashtag is a reference-data tag creators can attach to their profile.
type Hashtag struct {
	ID         string `gorm:"primaryKey;type:varchar(64)" json:"id" validate:"required,min=2,max=64"`
	Label      string `gorm:"type:varchar(100);not null" json:"label" validate:"required,min=2,max=100"`
	SortOrder  int    `gorm:"not null;default:0;index" json:"sortOrder"`
	IsActive   bool   `gorm:"default:true" json:"isActive"`
	IsTrending bool   `gorm:"default:false" json:"isTrending"`
}
