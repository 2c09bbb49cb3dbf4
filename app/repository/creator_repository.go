package repository

import (
	"context"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ManuelReschke/TierFox/app/models"
)

// creatorRepository implements the CreatorRepository interface
type creatorRepository struct {
	db *gorm.DB
}

// NewCreatorRepository creates a new creator repository instance
func NewCreatorRepository(db *gorm.DB) CreatorRepository {
	return &creatorRepository{db: db}
}

// Upsert creates or updates a creator keyed by wallet address
func (r *creatorRepository) Upsert(ctx context.Context, creator *models.Creator) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "address"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name",
			"description",
			"avatar_url",
			"socials",
			"payout_token",
			"contract_address",
			"category_id",
			"hashtags",
			"updated_at",
		}),
	}).Create(creator).Error
}

// GetByAddress retrieves a creator by wallet address
func (r *creatorRepository) GetByAddress(ctx context.Context, address string) (*models.Creator, error) {
	var creator models.Creator
	err := r.db.WithContext(ctx).Where("address = ?", address).First(&creator).Error
	if err != nil {
		return nil, notFound(err, "creator")
	}
	return &creator, nil
}

// List retrieves creators for the discovery page
func (r *creatorRepository) List(ctx context.Context, filter CreatorFilter) ([]models.Creator, error) {
	q := r.db.WithContext(ctx).Model(&models.Creator{})
	if filter.CategoryID != "" {
		q = q.Where("category_id = ?", filter.CategoryID)
	}
	if filter.Hashtag != "" {
		q = q.Where(datatypes.JSONArrayQuery("hashtags").Contains(filter.Hashtag))
	}
	if s := strings.TrimSpace(filter.Query); s != "" {
		like := "%" + s + "%"
		q = q.Where("name LIKE ? OR description LIKE ?", like, like)
	}
	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	var creators []models.Creator
	err := q.Order("created_at DESC").Offset(filter.Offset).Limit(limit).Find(&creators).Error
	return creators, err
}
