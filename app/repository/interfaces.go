package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/ManuelReschke/TierFox/app/models"
)

// CreatorFilter narrows the creator discovery list.
type CreatorFilter struct {
	CategoryID string
	Hashtag    string
	Query      string
	Offset     int
	Limit      int
}

// CreatorRepository defines the interface for creator profile operations
type CreatorRepository interface {
	Upsert(ctx context.Context, creator *models.Creator) error
	GetByAddress(ctx context.Context, address string) (*models.Creator, error)
	List(ctx context.Context, filter CreatorFilter) ([]models.Creator, error)
}

// PostRepository defines the interface for post-related database operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	GetBySlug(ctx context.Context, slug string) (*models.Post, error)
	ListByCreator(ctx context.Context, creatorAddress string, offset, limit int) ([]models.Post, error)
	Update(ctx context.Context, post *models.Post) error
	Delete(ctx context.Context, id uint) error
	IncrementLikes(ctx context.Context, id uint, delta int64) error
}

// TierRepository stores the per-creator tier catalogue as one JSON document
type TierRepository interface {
	GetCatalog(ctx context.Context, creatorAddress string) (*models.TierCatalog, error)
	SaveCatalog(ctx context.Context, catalog *models.TierCatalog) error
}

// SubscriptionRepository defines the interface for the membership cache
type SubscriptionRepository interface {
	Upsert(ctx context.Context, sub *models.Subscription) error
	Get(ctx context.Context, subscriberAddress, creatorAddress string) (*models.Subscription, error)
	List(ctx context.Context, subscriberAddress, creatorAddress string) ([]models.Subscription, error)
	ListActiveByCreator(ctx context.Context, creatorAddress string, now time.Time) ([]models.Subscription, error)
	CountActiveByCreator(ctx context.Context, creatorAddress string, now time.Time) (int64, error)
}

// CategoryRepository defines the interface for category reference data
type CategoryRepository interface {
	List(ctx context.Context, activeOnly bool) ([]models.Category, error)
	GetByID(ctx context.Context, id string) (*models.Category, error)
	Create(ctx context.Context, category *models.Category) error
	Update(ctx context.Context, category *models.Category) error
	Delete(ctx context.Context, id string) error
}

// HashtagRepository defines the interface for hashtag reference data
type HashtagRepository interface {
	List(ctx context.Context, activeOnly bool) ([]models.Hashtag, error)
	GetByID(ctx context.Context, id string) (*models.Hashtag, error)
	Create(ctx context.Context, hashtag *models.Hashtag) error
	Update(ctx context.Context, hashtag *models.Hashtag) error
	Delete(ctx context.Context, id string) error
}

// Repositories struct holds all repository instances
type Repositories struct {
	Creator      CreatorRepository
	Post         PostRepository
	Tier         TierRepository
	Subscription SubscriptionRepository
	Category     CategoryRepository
	Hashtag      HashtagRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Creator:      NewCreatorRepository(db),
		Post:         NewPostRepository(db),
		Tier:         NewTierRepository(db),
		Subscription: NewSubscriptionRepository(db),
		Category:     NewCategoryRepository(db),
		Hashtag:      NewHashtagRepository(db),
	}
}
