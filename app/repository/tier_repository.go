package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ManuelReschke/TierFox/app/models"
)

// tierRepository implements the TierRepository interface
type tierRepository struct {
	db *gorm.DB
}

// NewTierRepository creates a new tier repository instance
func NewTierRepository(db *gorm.DB) TierRepository {
	return &tierRepository{db: db}
}

// GetCatalog retrieves the tier catalogue of a creator
func (r *tierRepository) GetCatalog(ctx context.Context, creatorAddress string) (*models.TierCatalog, error) {
	var catalog models.TierCatalog
	err := r.db.WithContext(ctx).Where("creator_address = ?", creatorAddress).First(&catalog).Error
	if err != nil {
		return nil, notFound(err, "tier catalog")
	}
	return &catalog, nil
}

// SaveCatalog replaces the whole catalogue in one statement
func (r *tierRepository) SaveCatalog(ctx context.Context, catalog *models.TierCatalog) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "creator_address"}},
		DoUpdates: clause.AssignmentColumns([]string{"tiers", "next_tier_id", "updated_at"}),
	}).Create(catalog).Error
}
