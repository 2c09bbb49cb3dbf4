package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/ManuelReschke/TierFox/app/models"
)

// categoryRepository implements the CategoryRepository interface
type categoryRepository struct {
	db *gorm.DB
}

// NewCategoryRepository creates a new category repository instance
func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

func (r *categoryRepository) List(ctx context.Context, activeOnly bool) ([]models.Category, error) {
	q := r.db.WithContext(ctx)
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	var categories []models.Category
	err := q.Order("sort_order ASC, id ASC").Find(&categories).Error
	return categories, err
}

func (r *categoryRepository) GetByID(ctx context.Context, id string) (*models.Category, error) {
	var category models.Category
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&category).Error; err != nil {
		return nil, notFound(err, "category")
	}
	return &category, nil
}

func (r *categoryRepository) Create(ctx context.Context, category *models.Category) error {
	return r.db.WithContext(ctx).Create(category).Error
}

func (r *categoryRepository) Update(ctx context.Context, category *models.Category) error {
	return r.db.WithContext(ctx).Save(category).Error
}

func (r *categoryRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Category{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound(gorm.ErrRecordNotFound, "category")
	}
	return nil
}

// hashtagRepository implements the HashtagRepository interface
type hashtagRepository struct {
	db *gorm.DB
}

// NewHashtagRepository creates a new hashtag repository instance
func NewHashtagRepository(db *gorm.DB) HashtagRepository {
	return &hashtagRepository{db: db}
}

func (r *hashtagRepository) List(ctx context.Context, activeOnly bool) ([]models.Hashtag, error) {
	q := r.db.WithContext(ctx)
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	var hashtags []models.Hashtag
	err := q.Order("sort_order ASC, id ASC").Find(&hashtags).Error
	return hashtags, err
}

func (r *hashtagRepository) GetByID(ctx context.Context, id string) (*models.Hashtag, error) {
	var hashtag models.Hashtag
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&hashtag).Error; err != nil {
		return nil, notFound(err, "hashtag")
	}
	return &hashtag, nil
}

func (r *hashtagRepository) Create(ctx context.Context, hashtag *models.Hashtag) error {
	return r.db.WithContext(ctx).Create(hashtag).Error
}

func (r *hashtagRepository) Update(ctx context.Context, hashtag *models.Hashtag) error {
	return r.db.WithContext(ctx).Save(hashtag).Error
}

func (r *hashtagRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Hashtag{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound(gorm.ErrRecordNotFound, "hashtag")
	}
	return nil
}
